// Package geosearch provides proximity-ranked place search backed by
// OpenStreetMap Nominatim.
package geosearch

import (
	apphttp "mapshare_backend/internal/http"
	"mapshare_backend/platform/logger"
	"mapshare_backend/platform/ratelimit"
)

// Module wires the location search HTTP routes.
type Module struct {
	handler *Handler
	service *Service
}

func NewModule(provider Provider, limiter ratelimit.Limiter, log *logger.Logger) *Module {
	svc := NewService(provider, limiter, log)
	return &Module{handler: NewHandler(svc), service: svc}
}

func (m *Module) Name() string {
	return "geosearch"
}

// Service returns the search service.
func (m *Module) Service() *Service {
	return m.service
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.API.GET("/search/poi", m.handler.SearchPOI)
}

var _ apphttp.Module = (*Module)(nil)
