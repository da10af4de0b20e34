package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/auth"
	"github.com/vovakirdan/grams-server/internal/grams"
	"github.com/vovakirdan/grams-server/internal/store"
)

const (
	// ContextKeyViewer is the context key for storing the request's grams.Viewer.
	ContextKeyViewer = "viewer"
	// ContextKeyUserID is the context key for storing the signed-in user ID.
	ContextKeyUserID = "user_id"
)

// SessionViewer resolves the browser session cookie into a viewer.
// Requests without a valid session continue as anonymous.
func SessionViewer(sessions *auth.Sessions, authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		viewer := grams.Anonymous()

		if userID, ok := sessions.UserID(c.Request); ok {
			user, err := authService.UserByID(c.Request.Context(), userID)
			switch {
			case err == nil:
				viewer = grams.SignedIn(user.ID, user.Email)
			case errors.Is(err, store.ErrNotFound):
				logger.Debug().Int64("user_id", userID).Msg("session refers to a missing user")
			default:
				logger.Error().Err(err).Int64("user_id", userID).Msg("failed to load session user")
				c.String(http.StatusInternalServerError, "internal server error")
				c.Abort()
				return
			}
		}

		setViewer(c, viewer)
		c.Next()
	}
}

// BearerViewer validates an optional "Authorization: Bearer <jwt>" header.
// A missing header means anonymous; a malformed or invalid one is rejected.
func BearerViewer(authService *auth.Service, logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			setViewer(c, grams.Anonymous())
			c.Next()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			logger.Debug().Msg("invalid authorization header format")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			logger.Debug().Err(err).Msg("invalid token")
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid token"})
			c.Abort()
			return
		}

		setViewer(c, grams.SignedIn(claims.UserID, claims.Email))
		c.Next()
	}
}

func setViewer(c *gin.Context, viewer grams.Viewer) {
	c.Set(ContextKeyViewer, viewer)
	if userID, ok := viewer.UserID(); ok {
		c.Set(ContextKeyUserID, userID)
	}
}

func viewerFrom(c *gin.Context) grams.Viewer {
	if v, ok := c.Get(ContextKeyViewer); ok {
		if viewer, ok := v.(grams.Viewer); ok {
			return viewer
		}
	}
	return grams.Anonymous()
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		event := logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start))
		if userID := c.GetInt64(ContextKeyUserID); userID > 0 {
			event = event.Int64("user_id", userID)
		}
		event.Msg("http request")
	}
}
