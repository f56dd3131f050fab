// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"fakturo/internal/domain/document"
	"fakturo/internal/domain/numbering"
	"fakturo/internal/infrastructure/http/v1/handlers"
	"fakturo/internal/infrastructure/http/v1/middleware"
	"fakturo/internal/infrastructure/storage/postgres"
	"fakturo/pkg/logger"
)

// RouterConfig holds the wired services the router exposes.
type RouterConfig struct {
	Pool        *postgres.Pool
	Composer    *document.Composer
	Transformer *document.Transformer
	Service     *document.Service
	Allocator   *numbering.Allocator
	Logger      *logger.Logger

	// JWTSecret signs the HMAC bearer tokens accepted on /api routes.
	JWTSecret []byte
}

// NewRouter creates and configures the gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery outermost, then request logging, then
	// error rendering.
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints carry no auth.
	handlers.NewHealthHandler(cfg.Pool).RegisterRoutes(router)

	api := router.Group("/api/v1")
	api.Use(middleware.Auth(cfg.JWTSecret))
	{
		handlers.NewDocumentHandler(cfg.Composer, cfg.Transformer, cfg.Service).RegisterRoutes(api)
		handlers.NewSequenceHandler(cfg.Allocator).RegisterRoutes(api)
	}

	return router
}
