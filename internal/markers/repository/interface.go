package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Marker is a categorized point on a map.
type Marker struct {
	ID          uuid.UUID
	MapID       uuid.UUID
	Title       string
	CategoryID  *string
	Lat         float64
	Lng         float64
	Address     *string
	Description *string
	Tips        []string
	Images      []string
	IconColor   *string
	IconShape   string
	CreatedBy   uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateParams contains parameters for creating a marker.
type CreateParams struct {
	MapID       uuid.UUID
	Title       string
	CategoryID  *string
	Lat         float64
	Lng         float64
	Address     *string
	Description *string
	Tips        []string
	Images      []string
	IconColor   *string
	IconShape   string
	CreatedBy   uuid.UUID
}

// UpdateParams is a partial marker update. Nil pointers leave fields unchanged.
type UpdateParams struct {
	ID            uuid.UUID
	MapID         uuid.UUID
	Title         *string
	CategoryID    *string
	ClearCategory bool
	Lat           *float64
	Lng           *float64
	Address       *string
	Description   *string
	Tips          []string
	TipsSet       bool
	Images        []string
	ImagesSet     bool
	IconColor     *string
	IconShape     *string
}

// MarkerReader provides read operations for markers.
type MarkerReader interface {
	GetByID(ctx context.Context, mapID, id uuid.UUID) (Marker, error)
	ListByMap(ctx context.Context, mapID uuid.UUID) ([]Marker, error)
	CountByMap(ctx context.Context, mapID uuid.UUID) (int, error)
}

// MarkerWriter provides write operations for markers.
type MarkerWriter interface {
	Create(ctx context.Context, params CreateParams) (Marker, error)
	Update(ctx context.Context, params UpdateParams) (Marker, error)
	Delete(ctx context.Context, mapID, id uuid.UUID) (Marker, error)
	DeleteByMap(ctx context.Context, mapID uuid.UUID) (int64, error)
}

// Repository combines all marker repository operations.
type Repository interface {
	MarkerReader
	MarkerWriter
}
