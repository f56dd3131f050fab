package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/docclass"
	"fakturo/internal/core/id"
	"fakturo/internal/core/tenant"
	"fakturo/internal/domain/document"
	"fakturo/internal/infrastructure/http/v1/dto"
)

// DocumentHandler handles the document endpoints.
type DocumentHandler struct {
	BaseHandler
	composer    *document.Composer
	transformer *document.Transformer
	service     *document.Service
}

// NewDocumentHandler creates a document handler.
func NewDocumentHandler(composer *document.Composer, transformer *document.Transformer, service *document.Service) *DocumentHandler {
	return &DocumentHandler{
		composer:    composer,
		transformer: transformer,
		service:     service,
	}
}

// Create handles POST /documents.
func (h *DocumentHandler) Create(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	var req dto.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.composer.Create(c.Request.Context(), tenantID, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromDocument(doc))
}

// Get handles GET /documents/:id.
func (h *DocumentHandler) Get(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	doc, err := h.service.Get(c.Request.Context(), tenantID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDocument(doc))
}

// GetByNumber handles GET /documents/by-number/:class/:number.
func (h *DocumentHandler) GetByNumber(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	class, err := docclass.Parse(c.Param("class"))
	if err != nil {
		h.Error(c, apperror.NewValidation(err.Error()))
		return
	}

	doc, err := h.service.GetByNumber(c.Request.Context(), tenantID, class, c.Param("number"))
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDocument(doc))
}

// List handles GET /documents.
func (h *DocumentHandler) List(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}

	filter := document.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if raw := c.Query("class"); raw != "" {
		class, err := docclass.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", "class"))
			return
		}
		filter.Class = &class
	}
	if raw := c.Query("status"); raw != "" {
		status := document.Status(raw)
		if !status.Valid() {
			h.Error(c, apperror.NewValidation("unknown status").WithDetail("field", "status"))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("clientId"); raw != "" {
		clientID, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid client id").WithDetail("field", "clientId"))
			return
		}
		filter.ClientID = &clientID
	}
	if raw := c.Query("dateFrom"); raw != "" {
		parsed, err := time.Parse(dto.DateFormat, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid date, expected YYYY-MM-DD").WithDetail("field", "dateFrom"))
			return
		}
		filter.DateFrom = &parsed
	}
	if raw := c.Query("dateTo"); raw != "" {
		parsed, err := time.Parse(dto.DateFormat, raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid date, expected YYYY-MM-DD").WithDetail("field", "dateTo"))
			return
		}
		filter.DateTo = &parsed
	}

	docs, err := h.service.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.DocumentResponse, len(docs))
	for i, doc := range docs {
		items[i] = dto.FromDocument(doc)
	}
	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// Patch handles PATCH /documents/:id. Drafts only.
func (h *DocumentHandler) Patch(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	var req dto.PatchDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	patch, err := req.ToPatch()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.composer.ApplyPatch(c.Request.Context(), tenantID, docID, patch)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDocument(doc))
}

// Transform handles POST /documents/:id/transform.
func (h *DocumentHandler) Transform(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	var req dto.TransformRequest
	if !h.BindJSON(c, &req) {
		return
	}
	class, in, err := req.ToInput()
	if err != nil {
		h.Error(c, err)
		return
	}

	doc, err := h.transformer.Transform(c.Request.Context(), tenantID, docID, class, in)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromDocument(doc))
}

// Finalize handles POST /documents/:id/finalize.
func (h *DocumentHandler) Finalize(c *gin.Context) {
	h.transition(c, h.service.Finalize)
}

// Revert handles POST /documents/:id/revert.
func (h *DocumentHandler) Revert(c *gin.Context) {
	h.transition(c, h.service.RevertToDraft)
}

// Cancel handles POST /documents/:id/cancel.
func (h *DocumentHandler) Cancel(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	var req dto.CancelRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Cancel(c.Request.Context(), tenantID, docID, req.Reason)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDocument(doc))
}

// Pay handles POST /documents/:id/pay.
func (h *DocumentHandler) Pay(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	var req dto.PayRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.MarkPaid(c.Request.Context(), tenantID, docID, req.PaidAt)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDocument(doc))
}

// Delete handles DELETE /documents/:id. Drafts only.
func (h *DocumentHandler) Delete(c *gin.Context) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	docID, ok := h.docID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), tenantID, docID); err != nil {
		h.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RegisterRoutes registers the document routes on the group.
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	docs.POST("", h.Create)
	docs.GET("", h.List)
	docs.GET("/by-number/:class/:number", h.GetByNumber)
	docs.GET("/:id", h.Get)
	docs.PATCH("/:id", h.Patch)
	docs.DELETE("/:id", h.Delete)
	docs.POST("/:id/transform", h.Transform)
	docs.POST("/:id/finalize", h.Finalize)
	docs.POST("/:id/revert", h.Revert)
	docs.POST("/:id/cancel", h.Cancel)
	docs.POST("/:id/pay", h.Pay)
}

func (h *DocumentHandler) docID(c *gin.Context) (id.ID, bool) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return id.Nil(), false
	}
	return docID, true
}

func (h *DocumentHandler) transition(c *gin.Context, fn func(context.Context, tenant.ID, id.ID) (*document.Document, error)) {
	tenantID, ok := h.TenantID(c)
	if !ok {
		return
	}
	docID, ok := h.docID(c)
	if !ok {
		return
	}
	doc, err := fn(c.Request.Context(), tenantID, docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromDocument(doc))
}
