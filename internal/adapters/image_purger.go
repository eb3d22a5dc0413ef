package adapters

import (
	"context"
	"fmt"

	"mapshare_backend/internal/adapters/storage"
	"mapshare_backend/internal/scheduler"
	"mapshare_backend/platform/logger"

	"github.com/google/uuid"
)

// ImagePurgerAdapter removes a map's marker images for the scheduler worker.
// Marker image keys are prefixed with the map ID.
type ImagePurgerAdapter struct {
	store storage.ImageStore
	log   *logger.Logger
}

func NewImagePurgerAdapter(store storage.ImageStore, log *logger.Logger) *ImagePurgerAdapter {
	return &ImagePurgerAdapter{store: store, log: log}
}

func (a *ImagePurgerAdapter) PurgeMapImages(ctx context.Context, mapID uuid.UUID) error {
	n, err := a.store.DeletePrefix(ctx, mapID.String()+"/")
	if err != nil {
		return fmt.Errorf("purge images of map %s: %w", mapID, err)
	}
	a.log.Info("marker images purged", "map_id", mapID, "count", n)
	return nil
}

var _ scheduler.ImagePurger = (*ImagePurgerAdapter)(nil)
