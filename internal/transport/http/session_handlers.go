package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/auth"
	"github.com/vovakirdan/grams-server/internal/store"
)

// SessionHandlers serves the browser sign-in, sign-up and sign-out pages.
type SessionHandlers struct {
	authService *auth.Service
	sessions    *auth.Sessions
	limiter     *rateLimiter
	log         *zerolog.Logger
}

// NewSessionHandlers creates a new session handlers instance.
func NewSessionHandlers(authService *auth.Service, sessions *auth.Sessions, limiter *rateLimiter, logger *zerolog.Logger) *SessionHandlers {
	return &SessionHandlers{
		authService: authService,
		sessions:    sessions,
		limiter:     limiter,
		log:         logger,
	}
}

type credentialsForm struct {
	Email    string `form:"email"`
	Password string `form:"password"`
}

// SignInForm renders the sign-in page.
// GET /users/sign_in
func (h *SessionHandlers) SignInForm(c *gin.Context) {
	render(c, http.StatusOK, "sign_in.tmpl", page{Title: "Sign in"})
}

// SignIn checks credentials and starts a session.
// POST /users/sign_in
func (h *SessionHandlers) SignIn(c *gin.Context) {
	var form credentialsForm
	_ = c.ShouldBind(&form)

	if ok, retryAfter := h.limiter.allow(c.ClientIP()); !ok {
		h.log.Warn().Str("client_ip", c.ClientIP()).Dur("retry_after", retryAfter).Msg("sign-in rate limit exceeded")
		c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
		render(c, http.StatusTooManyRequests, "sign_in.tmpl", page{
			Title: "Sign in",
			Email: form.Email,
			Alert: "Too many sign-in attempts. Try again in a minute.",
		})
		return
	}

	user, err := h.authService.Authenticate(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			render(c, http.StatusUnauthorized, "sign_in.tmpl", page{
				Title: "Sign in",
				Email: form.Email,
				Alert: "Invalid email or password.",
			})
			return
		}
		h.log.Error().Err(err).Msg("failed to authenticate user")
		render(c, http.StatusInternalServerError, "status.tmpl", page{Title: "Error", Alert: "Something went wrong."})
		return
	}

	h.startSession(c, user)
}

// SignUpForm renders the sign-up page.
// GET /users/sign_up
func (h *SessionHandlers) SignUpForm(c *gin.Context) {
	render(c, http.StatusOK, "sign_up.tmpl", page{Title: "Sign up"})
}

// SignUp creates an account and signs it in.
// POST /users/sign_up
func (h *SessionHandlers) SignUp(c *gin.Context) {
	var form credentialsForm
	_ = c.ShouldBind(&form)

	user, err := h.authService.Register(c.Request.Context(), form.Email, form.Password)
	if err != nil {
		fields := map[string]string{}
		switch {
		case errors.Is(err, auth.ErrUserExists):
			fields["email"] = "has already been taken"
		case errors.Is(err, auth.ErrInvalidEmail):
			fields["email"] = "is invalid"
		case errors.Is(err, auth.ErrInvalidPassword):
			fields["password"] = "must be 6 to 72 characters"
		default:
			h.log.Error().Err(err).Msg("failed to register user")
			render(c, http.StatusInternalServerError, "status.tmpl", page{Title: "Error", Alert: "Something went wrong."})
			return
		}
		render(c, http.StatusUnprocessableEntity, "sign_up.tmpl", page{Title: "Sign up", Email: form.Email, Errors: fields})
		return
	}

	h.log.Info().Int64("user_id", user.ID).Msg("user signed up")
	h.startSession(c, user)
}

// SignOut ends the session.
// POST|DELETE /users/sign_out
func (h *SessionHandlers) SignOut(c *gin.Context) {
	if err := h.sessions.SignOut(c.Writer, c.Request); err != nil {
		h.log.Error().Err(err).Msg("failed to sign out")
	}
	c.Redirect(http.StatusSeeOther, rootPath)
}

func (h *SessionHandlers) startSession(c *gin.Context, user *store.User) {
	if err := h.sessions.SignIn(c.Writer, c.Request, user.ID); err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to save session")
		render(c, http.StatusInternalServerError, "status.tmpl", page{Title: "Error", Alert: "Something went wrong."})
		return
	}
	h.log.Info().Int64("user_id", user.ID).Msg("user signed in")
	c.Redirect(http.StatusSeeOther, rootPath)
}
