package router

import (
	"fmt"

	"guestbook/backend/internal/api"
	"guestbook/backend/pkg/di"
	"guestbook/backend/pkg/errors"
	"guestbook/backend/pkg/logger"
	"guestbook/backend/pkg/middleware"
	"guestbook/backend/web"

	"github.com/gin-gonic/gin"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
}

// New creates a new router with the given container
func New(container *di.Container) (*Router, error) {
	logger.SetGlobal(container.Logger)

	// Debug mode unless running in production
	if container.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(container.Metrics.Middleware())
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	templates, err := web.Templates(container.Config.Server.TemplatesDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	engine.SetHTMLTemplate(templates)

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
	}, nil
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.GET("/health", gin.WrapF(r.Container.Health.HTTPHandler()))
	r.Engine.GET("/metrics", gin.WrapH(r.Container.Metrics.Handler()))

	// Guestbook pages build the connection pool on first use
	pages := r.Engine.Group("/")
	pages.Use(middleware.EnsurePool(r.Container.Pools))

	guestbookHandler := api.NewGuestbookHandler(r.Container.GuestbookService)
	guestbookHandler.RegisterRoutes(pages)
}
