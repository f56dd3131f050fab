package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/infrastructure/http/v1/dto"
)

// SequenceHandler exposes the numbering counters for inspection and
// administrative adjustment.
type SequenceHandler struct {
	BaseHandler
	allocator *numbering.Allocator
}

// NewSequenceHandler creates a sequence handler.
func NewSequenceHandler(allocator *numbering.Allocator) *SequenceHandler {
	return &SequenceHandler{allocator: allocator}
}

// Peek handles GET /sequences/:class/next. The returned number is not
// reserved; a concurrent creation may consume it first.
func (h *SequenceHandler) Peek(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	class, err := docclass.Parse(c.Param("class"))
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	next, err := h.allocator.Peek(c.Request.Context(), tenantID, class)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PeekResponse{
		Class:      string(class),
		NextNumber: next,
	})
}

// Reset handles POST /sequences/reset. Lowering a counter can produce
// duplicate numbers; the operation is audited via logs and intended
// for period rollover only.
func (h *SequenceHandler) Reset(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req dto.ResetSequenceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	sc, err := req.ToSequenceClass()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.allocator.Reset(c.Request.Context(), tenantID, sc, req.Value); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Ensure handles POST /sequences/ensure. Creates any missing counters
// for the tenant; existing values are left untouched.
func (h *SequenceHandler) Ensure(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	if err := h.allocator.EnsureSequences(c.Request.Context(), tenantID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers the sequence routes on the group.
func (h *SequenceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	seq := rg.Group("/sequences")
	seq.GET("/:class/next", h.Peek)
	seq.POST("/reset", h.Reset)
	seq.POST("/ensure", h.Ensure)
}
