// Package handlers contains the gin HTTP handlers of the v1 API.
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"fakturo/internal/core/apperror"
	"fakturo/internal/core/tenant"
)

// BaseHandler provides shared request plumbing for all handlers.
type BaseHandler struct{}

// Error attaches err to the context; the error middleware renders it.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BindJSON binds the request body and reports malformed payloads as
// validation errors. Returns false when binding failed.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithCause(err))
		return false
	}
	return true
}

// TenantID extracts the authenticated tenant. The auth middleware
// guarantees it is present on every /api route.
func (h *BaseHandler) TenantID(c *gin.Context) (tenant.ID, bool) {
	tenantID, err := tenant.Require(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return 0, false
	}
	return tenantID, true
}

// ParseIntQuery reads an integer query parameter with a default.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
