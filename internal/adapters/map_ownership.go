package adapters

import (
	"context"

	mapsservice "mapshare_backend/internal/maps/service"
	markersservice "mapshare_backend/internal/markers/service"

	"github.com/google/uuid"
)

// MapOwnershipAdapter lets the markers module check map ownership.
type MapOwnershipAdapter struct {
	svc *mapsservice.Service
}

func NewMapOwnershipAdapter(svc *mapsservice.Service) *MapOwnershipAdapter {
	return &MapOwnershipAdapter{svc: svc}
}

var _ markersservice.MapOwnership = (*MapOwnershipAdapter)(nil)

func (a *MapOwnershipAdapter) RequireOwner(ctx context.Context, ownerID, mapID uuid.UUID) error {
	return a.svc.RequireOwner(ctx, ownerID, mapID)
}
