package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/grams"
)

// GramHandlers serves the HTML pages of the gram resource.
type GramHandlers struct {
	grams *grams.Service
	log   *zerolog.Logger
}

// NewGramHandlers creates a new gram page handlers instance.
func NewGramHandlers(gramService *grams.Service, logger *zerolog.Logger) *GramHandlers {
	return &GramHandlers{
		grams: gramService,
		log:   logger,
	}
}

// Index lists every gram.
// GET / and GET /grams
func (h *GramHandlers) Index(c *gin.Context) {
	list, err := h.grams.List(c.Request.Context(), viewerFrom(c))
	if err != nil {
		renderFailure(c, h.log, err)
		return
	}
	render(c, http.StatusOK, "index.tmpl", page{Title: "Grams", Grams: list})
}

// New shows the empty gram form.
// GET /grams/new
func (h *GramHandlers) New(c *gin.Context) {
	form, err := h.grams.New(viewerFrom(c))
	if err != nil {
		renderFailure(c, h.log, err)
		return
	}
	render(c, http.StatusOK, "new.tmpl", page{Title: "New Gram", Form: form})
}

// Create stores a gram for the signed-in user.
// POST /grams
func (h *GramHandlers) Create(c *gin.Context) {
	var in grams.Input
	if err := c.ShouldBind(&in); err != nil {
		h.log.Debug().Err(err).Msg("invalid gram form")
	}

	if _, err := h.grams.Create(c.Request.Context(), viewerFrom(c), in); err != nil {
		if fields, ok := validationFields(err); ok {
			render(c, http.StatusUnprocessableEntity, "new.tmpl", page{Title: "New Gram", Form: in, Errors: fields})
			return
		}
		renderFailure(c, h.log, err)
		return
	}
	c.Redirect(http.StatusSeeOther, rootPath)
}

// Show renders a single gram.
// GET /grams/:id
func (h *GramHandlers) Show(c *gin.Context) {
	gram, err := h.grams.Show(c.Request.Context(), viewerFrom(c), c.Param("id"))
	if err != nil {
		renderFailure(c, h.log, err)
		return
	}
	render(c, http.StatusOK, "show.tmpl", page{Title: "Gram", Gram: gram, GramID: gram.ID})
}

// Edit shows the gram form pre-filled with the current message.
// GET /grams/:id/edit
func (h *GramHandlers) Edit(c *gin.Context) {
	gram, err := h.grams.Edit(c.Request.Context(), viewerFrom(c), c.Param("id"))
	if err != nil {
		renderFailure(c, h.log, err)
		return
	}
	render(c, http.StatusOK, "edit.tmpl", page{
		Title:  "Edit Gram",
		Gram:   gram,
		GramID: gram.ID,
		Form:   grams.Input{Message: gram.Message},
	})
}

// Update changes the message of a gram.
// PATCH|PUT /grams/:id
func (h *GramHandlers) Update(c *gin.Context) {
	id := c.Param("id")

	var in grams.Input
	if err := c.ShouldBind(&in); err != nil {
		h.log.Debug().Err(err).Str("gram_id", id).Msg("invalid gram form")
	}

	if _, err := h.grams.Update(c.Request.Context(), viewerFrom(c), id, in); err != nil {
		if fields, ok := validationFields(err); ok {
			render(c, http.StatusUnprocessableEntity, "edit.tmpl", page{Title: "Edit Gram", GramID: id, Form: in, Errors: fields})
			return
		}
		renderFailure(c, h.log, err)
		return
	}
	c.Redirect(http.StatusSeeOther, rootPath)
}

// Destroy removes a gram.
// DELETE /grams/:id
func (h *GramHandlers) Destroy(c *gin.Context) {
	if err := h.grams.Destroy(c.Request.Context(), viewerFrom(c), c.Param("id")); err != nil {
		renderFailure(c, h.log, err)
		return
	}
	c.Redirect(http.StatusSeeOther, rootPath)
}
