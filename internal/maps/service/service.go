// Package service contains the maps business logic: owner CRUD, share
// settings, and the shared-map viewer.
package service

import (
	"context"
	"strings"

	"mapshare_backend/internal/events"
	"mapshare_backend/internal/maps/access"
	"mapshare_backend/internal/maps/repository"
	"mapshare_backend/internal/maps/transport"
	"mapshare_backend/platform/apperr"
	"mapshare_backend/platform/logger"
	"mapshare_backend/platform/sanitize"

	"github.com/google/uuid"
)

const msgMapNotFound = "map not found"

// MarkerLister loads the markers shown on a shared map.
type MarkerLister interface {
	ListForSharedMap(ctx context.Context, mapID uuid.UUID, filter transport.MarkerFilter) ([]transport.SharedMarker, error)
}

// Config is the subset of configuration the maps service needs.
type Config interface {
	GetAppBaseURL() string
}

// Service provides business logic for maps.
type Service struct {
	repo    repository.Repository
	markers MarkerLister
	bus     events.Bus
	cfg     Config
	log     *logger.Logger
}

// New creates a new maps service.
func New(repo repository.Repository, bus events.Bus, cfg Config, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, cfg: cfg, log: log}
}

// SetMarkerLister wires the markers module after both modules exist.
func (s *Service) SetMarkerLister(markers MarkerLister) {
	s.markers = markers
}

// Create creates a new private map owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req transport.CreateMapRequest) (transport.MapResponse, error) {
	title := sanitize.Text(req.Title)
	if title == "" {
		return transport.MapResponse{}, apperr.Validation("title is required")
	}

	m, err := s.repo.Create(ctx, repository.CreateParams{
		OwnerID:      ownerID,
		Title:        title,
		Description:  sanitize.TextPtr(req.Description),
		MainLocation: toLocation(req.MainLocation),
		Tags:         req.Tags,
	})
	if err != nil {
		return transport.MapResponse{}, err
	}

	s.log.Info("map created", "id", m.ID, "owner_id", ownerID)
	return s.toResponse(m), nil
}

// Get returns a map owned by ownerID. Other users' maps are reported as missing.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (transport.MapResponse, error) {
	m, err := s.ownedMap(ctx, ownerID, id)
	if err != nil {
		return transport.MapResponse{}, err
	}
	return s.toResponse(m), nil
}

// List returns the owner's maps, most recently updated first.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) (transport.MapListResponse, error) {
	items, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return transport.MapListResponse{}, err
	}

	resp := transport.MapListResponse{Items: make([]transport.MapResponse, 0, len(items)), Total: len(items)}
	for _, m := range items {
		resp.Items = append(resp.Items, s.toResponse(m))
	}
	return resp, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, req transport.UpdateMapRequest) (transport.MapResponse, error) {
	params := repository.UpdateParams{
		ID:            id,
		OwnerID:       ownerID,
		Title:         req.Title,
		Description:   sanitize.TextPtr(req.Description),
		MainLocation:  toLocation(req.MainLocation),
		ClearLocation: req.ClearLocation && req.MainLocation == nil,
	}
	if params.Title != nil {
		title := sanitize.Text(*params.Title)
		if title == "" {
			return transport.MapResponse{}, apperr.Validation("title is required")
		}
		params.Title = &title
	}
	if req.Tags != nil {
		params.Tags = *req.Tags
		params.TagsSet = true
	}

	m, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.MapResponse{}, err
	}
	return s.toResponse(m), nil
}

// Delete removes a map and announces it so dependent data can follow.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id, ownerID); err != nil {
		return err
	}

	s.log.Info("map deleted", "id", id, "owner_id", ownerID)
	if s.bus == nil {
		return nil
	}
	if err := s.bus.PublishSync(ctx, events.MapDeleted{BaseEvent: events.NewBaseEvent(), MapID: id, OwnerID: ownerID}); err != nil {
		s.log.Error("map deleted handlers failed", "id", id, "error", err)
	}
	return nil
}

// RequireOwner fails with NotFound unless ownerID owns the map.
func (s *Service) RequireOwner(ctx context.Context, ownerID, mapID uuid.UUID) error {
	_, err := s.ownedMap(ctx, ownerID, mapID)
	return err
}

// Stats aggregates counters over the owner's maps.
func (s *Service) Stats(ctx context.Context, ownerID uuid.UUID) (transport.StatsResponse, error) {
	st, err := s.repo.Stats(ctx, ownerID)
	if err != nil {
		return transport.StatsResponse{}, err
	}
	return transport.StatsResponse{
		TotalMaps:  st.TotalMaps,
		SharedMaps: st.SharedMaps,
		TotalViews: st.TotalViews,
		TotalLikes: st.TotalLikes,
	}, nil
}

// IncrementViews counts one granted view.
func (s *Service) IncrementViews(ctx context.Context, id uuid.UUID) error {
	return s.repo.IncrementViews(ctx, id)
}

func (s *Service) ownedMap(ctx context.Context, ownerID, id uuid.UUID) (repository.Map, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Map{}, err
	}
	if m.OwnerID != ownerID {
		return repository.Map{}, apperr.NotFound(msgMapNotFound)
	}
	return m, nil
}

func (s *Service) shareURL(id uuid.UUID) string {
	return strings.TrimRight(s.cfg.GetAppBaseURL(), "/") + "/shared/" + id.String()
}

func (s *Service) toResponse(m repository.Map) transport.MapResponse {
	return transport.MapResponse{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		Title:         m.Title,
		Description:   m.Description,
		MainLocation:  fromLocation(m.MainLocation),
		Tags:          m.Tags,
		ShareSettings: s.shareSettingsResponse(m),
		Views:         m.Views,
		Likes:         m.Likes,
		Comments:      m.Comments,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (s *Service) shareSettingsResponse(m repository.Map) transport.ShareSettingsResponse {
	return transport.ShareSettingsResponse{
		ShareType:   string(m.Share.Type),
		IsEnabled:   m.Share.Enabled,
		HasPassword: m.Share.Type == access.ShareTypePassword && m.Share.SecretHash != "",
		ShareURL:    s.shareURL(m.ID),
	}
}

func toLocation(loc *transport.Location) *repository.Location {
	if loc == nil {
		return nil
	}
	return &repository.Location{Lat: loc.Lat, Lng: loc.Lng, Address: strings.TrimSpace(loc.Address), City: loc.City}
}

func fromLocation(loc *repository.Location) *transport.Location {
	if loc == nil {
		return nil
	}
	return &transport.Location{Lat: loc.Lat, Lng: loc.Lng, Address: loc.Address, City: loc.City}
}
