// Package maps provides the maps bounded context: owner CRUD, share
// settings and the anonymous shared-map viewer.
package maps

import (
	"context"

	"mapshare_backend/internal/events"
	apphttp "mapshare_backend/internal/http"
	"mapshare_backend/internal/maps/handler"
	"mapshare_backend/internal/maps/repository"
	"mapshare_backend/internal/maps/service"
	"mapshare_backend/platform/logger"
	"mapshare_backend/platform/validator"
)

// Module is the maps bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	shared  *handler.SharedHandler
	service *service.Service
}

// NewModule creates and initializes the maps module with all its dependencies.
func NewModule(repo repository.Repository, bus events.Bus, cfg service.Config, val *validator.Validator, log *logger.Logger) *Module {
	svc := service.New(repo, bus, cfg, log)

	return &Module{
		handler: handler.New(svc, val),
		shared:  handler.NewShared(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "maps"
}

// Service returns the service layer for adapters.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts map routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	maps := ctx.Protected.Group("/maps")
	maps.GET("", m.handler.List)
	maps.POST("", m.handler.Create)
	maps.GET("/stats", m.handler.Stats)
	maps.GET("/:id", m.handler.Get)
	maps.PATCH("/:id", m.handler.Update)
	maps.DELETE("/:id", m.handler.Delete)
	maps.GET("/:id/share", m.handler.GetShareSettings)
	maps.PUT("/:id/share", m.handler.UpdateShareSettings)
	maps.GET("/:id/share/qr", m.handler.ShareQRCode)

	shared := ctx.V1.Group("/shared")
	shared.GET("/:id", m.shared.View)
	if ctx.SharedAccessLimiter != nil {
		shared.POST("/:id/access", ctx.SharedAccessLimiter.RateLimit(), m.shared.Access)
	} else {
		shared.POST("/:id/access", m.shared.Access)
	}
}

// RegisterHandlers subscribes to events that update view counters.
func (m *Module) RegisterHandlers(bus *events.InMemoryBus) {
	bus.Subscribe(events.MapViewed{}.EventName(), m)
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.MapViewed:
		return m.service.IncrementViews(ctx, e.MapID)
	default:
		return nil
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
