package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/grams-server/internal/grams"
)

// GramAPIHandlers serves the gram resource as JSON under /api/grams.
type GramAPIHandlers struct {
	grams *grams.Service
	log   *zerolog.Logger
}

// NewGramAPIHandlers creates a new gram API handlers instance.
func NewGramAPIHandlers(gramService *grams.Service, logger *zerolog.Logger) *GramAPIHandlers {
	return &GramAPIHandlers{
		grams: gramService,
		log:   logger,
	}
}

// ValidationErrorResponse lists rejected fields.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields"`
}

// Index handles listing grams.
// GET /api/grams
func (h *GramAPIHandlers) Index(c *gin.Context) {
	list, err := h.grams.List(c.Request.Context(), viewerFrom(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	response := make([]GramResponse, 0, len(list))
	for _, g := range list {
		response = append(response, gramToResponse(g))
	}
	c.JSON(http.StatusOK, response)
}

// Create handles creating a gram.
// POST /api/grams
func (h *GramAPIHandlers) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}

	gram, err := h.grams.Create(c.Request.Context(), viewerFrom(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gramToResponse(gram))
}

// Show handles fetching one gram.
// GET /api/grams/:id
func (h *GramAPIHandlers) Show(c *gin.Context) {
	gram, err := h.grams.Show(c.Request.Context(), viewerFrom(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gramToResponse(gram))
}

// Update handles changing a gram's message.
// PATCH|PUT /api/grams/:id
func (h *GramAPIHandlers) Update(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}

	gram, err := h.grams.Update(c.Request.Context(), viewerFrom(c), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gramToResponse(gram))
}

// Destroy handles deleting a gram.
// DELETE /api/grams/:id
func (h *GramAPIHandlers) Destroy(c *gin.Context) {
	if err := h.grams.Destroy(c.Request.Context(), viewerFrom(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bind decodes the JSON body. Anonymous callers get 401 before any body error.
func (h *GramAPIHandlers) bind(c *gin.Context) (grams.Input, bool) {
	var in grams.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		if !viewerFrom(c).Authenticated() {
			h.fail(c, grams.ErrUnauthenticated)
			return in, false
		}
		h.log.Debug().Err(err).Msg("invalid gram request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return in, false
	}
	return in, true
}

func (h *GramAPIHandlers) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, grams.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
	case errors.Is(err, grams.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "gram not found"})
	case errors.Is(err, grams.ErrValidation):
		fields, _ := validationFields(err)
		c.JSON(http.StatusUnprocessableEntity, ValidationErrorResponse{Error: "validation failed", Fields: fields})
	default:
		h.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("gram api request failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
