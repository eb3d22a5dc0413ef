package repository

import (
	"context"
	"time"

	"mapshare_backend/internal/maps/access"

	"github.com/google/uuid"
)

// Location is the optional main location of a map.
type Location struct {
	Lat     float64
	Lng     float64
	Address string
	City    *string
}

// Map is a persisted collection of markers owned by one user.
type Map struct {
	ID           uuid.UUID
	OwnerID      uuid.UUID
	Title        string
	Description  *string
	MainLocation *Location
	Tags         []string
	Share        access.Settings
	Views        int64
	Likes        int64
	Comments     int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ShareSettings lets a Map be passed straight to access.Resolve.
func (m *Map) ShareSettings() *access.Settings {
	if m == nil {
		return nil
	}
	return &m.Share
}

// CreateParams contains parameters for creating a map.
type CreateParams struct {
	OwnerID      uuid.UUID
	Title        string
	Description  *string
	MainLocation *Location
	Tags         []string
}

// UpdateParams contains the fields of a partial map update. Nil means unchanged.
type UpdateParams struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Title         *string
	Description   *string
	Tags          []string
	TagsSet       bool
	MainLocation  *Location
	ClearLocation bool
}

// Stats aggregates a user's maps.
type Stats struct {
	TotalMaps  int
	SharedMaps int
	TotalViews int64
	TotalLikes int64
}

// MapReader provides read operations for maps.
type MapReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Map, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]Map, error)
	Stats(ctx context.Context, ownerID uuid.UUID) (Stats, error)
}

// MapWriter provides write operations for maps.
type MapWriter interface {
	Create(ctx context.Context, params CreateParams) (Map, error)
	Update(ctx context.Context, params UpdateParams) (Map, error)
	Delete(ctx context.Context, id, ownerID uuid.UUID) error
	UpdateShareSettings(ctx context.Context, id, ownerID uuid.UUID, settings access.Settings) (Map, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// Repository combines all map repository operations.
type Repository interface {
	MapReader
	MapWriter
}
