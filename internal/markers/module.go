// Package markers provides the markers bounded context: categorized points
// on a map, their images and the category catalog.
package markers

import (
	"context"

	"mapshare_backend/internal/adapters/storage"
	"mapshare_backend/internal/events"
	apphttp "mapshare_backend/internal/http"
	"mapshare_backend/internal/markers/handler"
	"mapshare_backend/internal/markers/repository"
	"mapshare_backend/internal/markers/service"
	"mapshare_backend/platform/logger"
	"mapshare_backend/platform/validator"
)

// Module is the markers bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	cascade bool
}

// NewModule creates and initializes the markers module. When cascade is
// false, markers of a deleted map are left in place.
func NewModule(repo repository.Repository, owners service.MapOwnership, images storage.ImageStore, cascade bool, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, owners, images, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		cascade: cascade,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "markers"
}

// Service returns the service layer for adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts marker routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.V1.GET("/categories", m.handler.Categories)

	markers := ctx.Protected.Group("/maps/:id/markers")
	markers.GET("", m.handler.List)
	markers.POST("", m.handler.Create)
	markers.POST("/images/presign", m.handler.PresignImage)
	markers.PATCH("/:markerId", m.handler.Update)
	markers.DELETE("/:markerId", m.handler.Delete)
}

// RegisterHandlers subscribes to map deletions when cascading is enabled.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	if !m.cascade {
		return
	}
	bus.Subscribe(events.MapDeleted{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.MapDeleted:
		return m.service.DeleteByMap(ctx, e.MapID)
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
