package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/grams"
	"github.com/vovakirdan/grams-server/internal/store"
)

// page is the data handed to every HTML template.
type page struct {
	Title  string
	Viewer grams.Viewer
	Grams  []*store.Gram
	Gram   *store.Gram
	GramID string
	Form   grams.Input
	Email  string
	Errors map[string]string
	Alert  string
}

func render(c *gin.Context, status int, name string, p page) {
	p.Viewer = viewerFrom(c)
	c.HTML(status, name, p)
}

// renderFailure answers an action error that has no form to re-render.
func renderFailure(c *gin.Context, logger *zerolog.Logger, err error) {
	switch {
	case errors.Is(err, grams.ErrUnauthenticated):
		c.Redirect(http.StatusSeeOther, signInPath)
	case errors.Is(err, grams.ErrNotFound):
		render(c, http.StatusNotFound, "status.tmpl", page{
			Title: "Not Found",
			Alert: "The gram you were looking for does not exist.",
		})
	default:
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
		render(c, http.StatusInternalServerError, "status.tmpl", page{
			Title: "Error",
			Alert: "Something went wrong.",
		})
	}
}

func validationFields(err error) (map[string]string, bool) {
	var verr *grams.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields, true
	}
	return nil, false
}
