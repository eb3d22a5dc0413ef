package adapters

import (
	"context"

	mapsservice "mapshare_backend/internal/maps/service"
	mapstransport "mapshare_backend/internal/maps/transport"
	markersservice "mapshare_backend/internal/markers/service"
	markerstransport "mapshare_backend/internal/markers/transport"

	"github.com/google/uuid"
)

// SharedMarkersAdapter exposes marker data to the shared-map viewer.
type SharedMarkersAdapter struct {
	svc *markersservice.Service
}

func NewSharedMarkersAdapter(svc *markersservice.Service) *SharedMarkersAdapter {
	return &SharedMarkersAdapter{svc: svc}
}

var _ mapsservice.MarkerLister = (*SharedMarkersAdapter)(nil)

func (a *SharedMarkersAdapter) ListForSharedMap(ctx context.Context, mapID uuid.UUID, filter mapstransport.MarkerFilter) ([]mapstransport.SharedMarker, error) {
	list, err := a.svc.ListShared(ctx, mapID, markerstransport.Filter{
		Categories: filter.Categories,
		Query:      filter.Query,
	})
	if err != nil {
		return nil, err
	}

	out := make([]mapstransport.SharedMarker, 0, len(list.Items))
	for _, mk := range list.Items {
		out = append(out, mapstransport.SharedMarker{
			ID:           mk.ID,
			Title:        mk.Title,
			CategoryID:   mk.CategoryID,
			CategoryName: mk.CategoryName,
			Lat:          mk.Lat,
			Lng:          mk.Lng,
			Address:      mk.Address,
			Description:  mk.Description,
			Tips:         mk.Tips,
			Images:       mk.ImageURLs,
			IconColor:    mk.Icon.Color,
			IconShape:    mk.Icon.Shape,
			CreatedAt:    mk.CreatedAt,
		})
	}
	return out, nil
}
