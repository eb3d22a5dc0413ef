// Package service contains the markers business logic.
package service

import (
	"context"
	"fmt"
	"strings"

	"mapshare_backend/internal/adapters/storage"
	"mapshare_backend/internal/markers/catalog"
	"mapshare_backend/internal/markers/repository"
	"mapshare_backend/internal/markers/transport"
	"mapshare_backend/platform/apperr"
	"mapshare_backend/platform/logger"
	"mapshare_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	// MaxImages is the number of images a marker may carry.
	MaxImages = 5

	defaultIconShape = "pin"
)

// MapOwnership checks that a user owns a map. Implemented by an adapter
// over the maps module.
type MapOwnership interface {
	RequireOwner(ctx context.Context, ownerID, mapID uuid.UUID) error
}

// ImagePurgeScheduler defers removal of a deleted map's images to a
// background worker.
type ImagePurgeScheduler interface {
	SchedulePurgeMapImages(ctx context.Context, mapID uuid.UUID) error
}

// Service provides business logic for markers.
type Service struct {
	repo   repository.Repository
	owners MapOwnership
	images storage.ImageStore
	purger ImagePurgeScheduler
	log    *logger.Logger
}

// New creates a new markers service. images may be nil when object storage
// is not configured.
func New(repo repository.Repository, owners MapOwnership, images storage.ImageStore, log *logger.Logger) *Service {
	return &Service{repo: repo, owners: owners, images: images, log: log}
}

// SetImagePurgeScheduler moves image cleanup of deleted maps off the request
// path. Without one, images are removed inline.
func (s *Service) SetImagePurgeScheduler(purger ImagePurgeScheduler) {
	s.purger = purger
}

// List returns the owner's markers of a map, newest first.
func (s *Service) List(ctx context.Context, ownerID, mapID uuid.UUID, filter transport.Filter) (transport.MarkerListResponse, error) {
	if err := s.owners.RequireOwner(ctx, ownerID, mapID); err != nil {
		return transport.MarkerListResponse{}, err
	}
	return s.ListShared(ctx, mapID, filter)
}

// ListShared returns the markers of a map without an ownership check. The
// caller must already have been granted access to the map.
func (s *Service) ListShared(ctx context.Context, mapID uuid.UUID, filter transport.Filter) (transport.MarkerListResponse, error) {
	items, err := s.repo.ListByMap(ctx, mapID)
	if err != nil {
		return transport.MarkerListResponse{}, err
	}
	items = applyFilter(items, filter)

	resp := transport.MarkerListResponse{Items: make([]transport.MarkerResponse, 0, len(items)), Total: len(items)}
	for _, mk := range items {
		resp.Items = append(resp.Items, s.toResponse(ctx, mk))
	}
	return resp, nil
}

// Create adds a marker to a map owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID, mapID uuid.UUID, req transport.CreateMarkerRequest) (transport.MarkerResponse, error) {
	if err := s.owners.RequireOwner(ctx, ownerID, mapID); err != nil {
		return transport.MarkerResponse{}, err
	}

	title := sanitize.Text(req.Title)
	if title == "" {
		return transport.MarkerResponse{}, apperr.Validation("title is required")
	}
	categoryID, err := normalizeCategory(req.CategoryID)
	if err != nil {
		return transport.MarkerResponse{}, err
	}
	if err := validateImages(mapID, req.Images); err != nil {
		return transport.MarkerResponse{}, err
	}

	params := repository.CreateParams{
		MapID:       mapID,
		Title:       title,
		CategoryID:  categoryID,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Address:     sanitize.TextPtr(req.Address),
		Description: sanitize.TextPtr(req.Description),
		Tips:        sanitize.Lines(req.Tips),
		Images:      req.Images,
		IconShape:   defaultIconShape,
		CreatedBy:   ownerID,
	}
	if req.Icon != nil {
		params.IconColor = req.Icon.Color
		if req.Icon.Shape != "" {
			params.IconShape = req.Icon.Shape
		}
	}

	mk, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.MarkerResponse{}, err
	}

	s.log.Info("marker created", "id", mk.ID, "map_id", mapID)
	return s.toResponse(ctx, mk), nil
}

// Update applies a partial update to a marker. Images removed from the
// marker are deleted from storage.
func (s *Service) Update(ctx context.Context, ownerID, mapID, markerID uuid.UUID, req transport.UpdateMarkerRequest) (transport.MarkerResponse, error) {
	if err := s.owners.RequireOwner(ctx, ownerID, mapID); err != nil {
		return transport.MarkerResponse{}, err
	}

	params := repository.UpdateParams{
		ID:          markerID,
		MapID:       mapID,
		Lat:         req.Lat,
		Lng:         req.Lng,
		Address:     sanitize.TextPtr(req.Address),
		Description: sanitize.TextPtr(req.Description),
	}
	if req.Title != nil {
		title := sanitize.Text(*req.Title)
		if title == "" {
			return transport.MarkerResponse{}, apperr.Validation("title is required")
		}
		params.Title = &title
	}
	if req.CategoryID != nil {
		categoryID, err := normalizeCategory(req.CategoryID)
		if err != nil {
			return transport.MarkerResponse{}, err
		}
		params.CategoryID = categoryID
		params.ClearCategory = categoryID == nil
	}
	if req.Tips != nil {
		params.Tips = sanitize.Lines(*req.Tips)
		params.TipsSet = true
	}

	var removed []string
	if req.Images != nil {
		if err := validateImages(mapID, *req.Images); err != nil {
			return transport.MarkerResponse{}, err
		}
		current, err := s.repo.GetByID(ctx, mapID, markerID)
		if err != nil {
			return transport.MarkerResponse{}, err
		}
		removed = difference(current.Images, *req.Images)
		params.Images = *req.Images
		params.ImagesSet = true
	}
	if req.Icon != nil {
		params.IconColor = req.Icon.Color
		if req.Icon.Shape != "" {
			shape := req.Icon.Shape
			params.IconShape = &shape
		}
	}

	mk, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.MarkerResponse{}, err
	}

	s.deleteImages(ctx, removed)
	return s.toResponse(ctx, mk), nil
}

// Delete removes a marker and its images.
func (s *Service) Delete(ctx context.Context, ownerID, mapID, markerID uuid.UUID) error {
	if err := s.owners.RequireOwner(ctx, ownerID, mapID); err != nil {
		return err
	}

	mk, err := s.repo.Delete(ctx, mapID, markerID)
	if err != nil {
		return err
	}
	s.deleteImages(ctx, mk.Images)
	return nil
}

// DeleteByMap removes every marker of a deleted map together with its images.
func (s *Service) DeleteByMap(ctx context.Context, mapID uuid.UUID) error {
	n, err := s.repo.DeleteByMap(ctx, mapID)
	if err != nil {
		return err
	}

	s.log.Info("markers removed with map", "map_id", mapID, "count", n)

	if s.images == nil {
		return nil
	}
	if s.purger != nil {
		err := s.purger.SchedulePurgeMapImages(ctx, mapID)
		if err == nil {
			return nil
		}
		s.log.Warn("schedule image purge failed, purging inline", "map_id", mapID, "error", err)
	}
	return s.PurgeMapImages(ctx, mapID)
}

// PurgeMapImages removes every stored image under the map's key prefix.
func (s *Service) PurgeMapImages(ctx context.Context, mapID uuid.UUID) error {
	if s.images == nil {
		return nil
	}
	n, err := s.images.DeletePrefix(ctx, mapID.String()+"/")
	if err != nil {
		return fmt.Errorf("delete marker images: %w", err)
	}
	s.log.Info("marker images purged", "map_id", mapID, "count", n)
	return nil
}

// PresignImageUpload returns a URL the browser can PUT one image to.
func (s *Service) PresignImageUpload(ctx context.Context, ownerID, mapID uuid.UUID, req transport.PresignImageRequest) (transport.PresignImageResponse, error) {
	if err := s.owners.RequireOwner(ctx, ownerID, mapID); err != nil {
		return transport.PresignImageResponse{}, err
	}
	if s.images == nil {
		return transport.PresignImageResponse{}, apperr.Unavailable("image storage is not configured")
	}

	presigned, err := s.images.GenerateUploadURL(ctx, mapID.String(), req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return transport.PresignImageResponse{}, err
	}
	return transport.PresignImageResponse{
		UploadURL: presigned.URL,
		FileKey:   presigned.FileKey,
		ExpiresAt: presigned.ExpiresAt,
	}, nil
}

func (s *Service) deleteImages(ctx context.Context, keys []string) {
	if s.images == nil {
		return
	}
	for _, key := range keys {
		if err := s.images.DeleteObject(ctx, key); err != nil {
			s.log.Warn("marker image cleanup failed", "key", key, "error", err)
		}
	}
}

func (s *Service) toResponse(ctx context.Context, mk repository.Marker) transport.MarkerResponse {
	resp := transport.MarkerResponse{
		ID:          mk.ID,
		MapID:       mk.MapID,
		Title:       mk.Title,
		CategoryID:  mk.CategoryID,
		Lat:         mk.Lat,
		Lng:         mk.Lng,
		Address:     mk.Address,
		Description: mk.Description,
		Tips:        mk.Tips,
		Images:      mk.Images,
		ImageURLs:   make([]string, 0, len(mk.Images)),
		Icon:        transport.Icon{Color: mk.IconColor, Shape: mk.IconShape},
		CreatedBy:   mk.CreatedBy,
		CreatedAt:   mk.CreatedAt,
		UpdatedAt:   mk.UpdatedAt,
	}
	resp.CategoryName = catalog.UncategorizedName
	if mk.CategoryID != nil {
		resp.CategoryName = catalog.Name(*mk.CategoryID)
	}

	if s.images != nil {
		for _, key := range mk.Images {
			u, err := s.images.GenerateDownloadURL(ctx, key)
			if err != nil {
				s.log.Warn("presign marker image failed", "key", key, "error", err)
				continue
			}
			resp.ImageURLs = append(resp.ImageURLs, u.URL)
		}
	}
	return resp
}

func normalizeCategory(id *string) (*string, error) {
	if id == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" || trimmed == catalog.Uncategorized {
		return nil, nil
	}
	if !catalog.Valid(trimmed) {
		return nil, apperr.Validation("unknown category")
	}
	return &trimmed, nil
}

func validateImages(mapID uuid.UUID, keys []string) error {
	if len(keys) > MaxImages {
		return apperr.Validationf("a marker can have at most %d images", MaxImages)
	}
	prefix := mapID.String() + "/"
	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) || strings.Contains(key, "..") {
			return apperr.Validation("image does not belong to this map")
		}
	}
	return nil
}

func difference(before, after []string) []string {
	keep := make(map[string]bool, len(after))
	for _, k := range after {
		keep[k] = true
	}
	var out []string
	for _, k := range before {
		if !keep[k] {
			out = append(out, k)
		}
	}
	return out
}
