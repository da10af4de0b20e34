package http

import (
	"embed"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/auth"
	"github.com/vovakirdan/grams-server/internal/config"
	"github.com/vovakirdan/grams-server/internal/feed"
	"github.com/vovakirdan/grams-server/internal/grams"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

const (
	rootPath   = "/"
	signInPath = "/users/sign_in"
)

// NewServer builds the HTTP server: HTML pages, JSON API, live feed, health and metrics.
func NewServer(
	gramService *grams.Service,
	authService *auth.Service,
	sessions *auth.Sessions,
	hub *feed.Hub,
	cfg *config.Config,
	logger *zerolog.Logger,
) *http.Server {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Error().Err(err).Strs("trusted_proxies", cfg.TrustedProxies).Msg("invalid trusted proxies, forwarding headers ignored")
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.SetHTMLTemplate(loadTemplates())

	router.GET("/health", healthHandler)
	if cfg.MetricsEnabled {
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}

	limiter := newRateLimiter(cfg.SignInRateLimit)

	pages := NewGramHandlers(gramService, logger)
	accounts := NewSessionHandlers(authService, sessions, limiter, logger)

	// Browser routes, identified by the session cookie.
	web := router.Group("/")
	web.Use(SessionViewer(sessions, authService, logger))
	{
		web.GET("/", pages.Index)
		web.GET("/grams", pages.Index)
		web.GET("/grams/new", pages.New)
		web.POST("/grams", pages.Create)
		web.GET("/grams/:id", pages.Show)
		web.GET("/grams/:id/edit", pages.Edit)
		web.PATCH("/grams/:id", pages.Update)
		web.PUT("/grams/:id", pages.Update)
		web.DELETE("/grams/:id", pages.Destroy)

		web.GET("/users/sign_in", accounts.SignInForm)
		web.POST("/users/sign_in", accounts.SignIn)
		web.GET("/users/sign_up", accounts.SignUpForm)
		web.POST("/users/sign_up", accounts.SignUp)
		web.POST("/users/sign_out", accounts.SignOut)
		web.DELETE("/users/sign_out", accounts.SignOut)
	}

	apiAuth := NewAPIHandlers(authService, logger)
	apiGrams := NewGramAPIHandlers(gramService, logger)

	api := router.Group("/api")
	{
		api.POST("/register", apiAuth.Register)
		api.POST("/login", apiAuth.Login)
	}

	apiResource := api.Group("/grams")
	apiResource.Use(BearerViewer(authService, logger))
	{
		apiResource.GET("", apiGrams.Index)
		apiResource.POST("", apiGrams.Create)
		apiResource.GET("/:id", apiGrams.Show)
		apiResource.PATCH("/:id", apiGrams.Update)
		apiResource.PUT("/:id", apiGrams.Update)
		apiResource.DELETE("/:id", apiGrams.Destroy)
	}

	// The feed bypasses gin: its ResponseWriter commits headers before a websocket hijack.
	mux := http.NewServeMux()
	if hub != nil {
		mux.Handle("GET /grams/feed", NewFeedHandler(hub, logger))
	} else {
		mux.HandleFunc("GET /grams/feed", feedUnavailable)
	}
	mux.Handle("/", methodOverride(router))

	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func loadTemplates() *template.Template {
	funcs := template.FuncMap{
		"timestamp": func(t time.Time) string {
			return t.UTC().Format("2006-01-02 15:04 MST")
		},
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.tmpl"))
}

// methodOverride lets HTML forms reach PATCH, PUT and DELETE routes via a
// hidden _method field. It must wrap the router: gin picks the route before
// any middleware runs.
func methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && isFormPost(r) {
			switch method := strings.ToUpper(r.PostFormValue("_method")); method {
			case http.MethodPatch, http.MethodPut, http.MethodDelete:
				r.Method = method
			}
		}
		next.ServeHTTP(w, r)
	})
}

func isFormPost(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") ||
		strings.HasPrefix(ct, "multipart/form-data")
}

func healthHandler(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
