package transport

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tags accepts either a JSON array or a comma-separated string.
type Tags []string

// UnmarshalJSON trims entries and drops empty ones.
func (t *Tags) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		var raw string
		if strErr := json.Unmarshal(data, &raw); strErr != nil {
			return err
		}
		list = strings.Split(raw, ",")
	}

	out := make([]string, 0, len(list))
	for _, tag := range list {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	*t = out
	return nil
}

// Location is the optional main location of a map.
type Location struct {
	Lat     float64 `json:"lat" validate:"latitude"`
	Lng     float64 `json:"lng" validate:"longitude"`
	Address string  `json:"address" validate:"max=200"`
	City    *string `json:"city,omitempty" validate:"omitempty,max=100"`
}

// CreateMapRequest contains data for creating a map.
type CreateMapRequest struct {
	Title        string    `json:"title" validate:"required,min=1,max=100"`
	Description  *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Tags         Tags      `json:"tags,omitempty" validate:"max=20,dive,max=50"`
	MainLocation *Location `json:"mainLocation,omitempty" validate:"omitempty"`
}

// UpdateMapRequest contains a partial map update.
type UpdateMapRequest struct {
	Title         *string   `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	Description   *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Tags          *Tags     `json:"tags,omitempty" validate:"omitempty,max=20,dive,max=50"`
	MainLocation  *Location `json:"mainLocation,omitempty" validate:"omitempty"`
	ClearLocation bool      `json:"clearLocation,omitempty"`
}

// UpdateShareSettingsRequest changes how a map is shared.
type UpdateShareSettingsRequest struct {
	ShareType string  `json:"shareType" validate:"required,oneof=private public password"`
	Password  *string `json:"password,omitempty" validate:"omitempty,max=128"`
	IsEnabled bool    `json:"isEnabled"`
}

// AccessRequest carries the password for a protected shared map.
type AccessRequest struct {
	Password string `json:"password" validate:"max=128"`
}

// ShareSettingsResponse never exposes the stored secret.
type ShareSettingsResponse struct {
	ShareType   string `json:"shareType"`
	IsEnabled   bool   `json:"isEnabled"`
	HasPassword bool   `json:"hasPassword"`
	ShareURL    string `json:"shareUrl"`
}

// MapResponse represents a map in API responses.
type MapResponse struct {
	ID            uuid.UUID             `json:"id"`
	OwnerID       uuid.UUID             `json:"ownerId"`
	Title         string                `json:"title"`
	Description   *string               `json:"description,omitempty"`
	MainLocation  *Location             `json:"mainLocation,omitempty"`
	Tags          []string              `json:"tags"`
	ShareSettings ShareSettingsResponse `json:"shareSettings"`
	Views         int64                 `json:"views"`
	Likes         int64                 `json:"likes"`
	Comments      int64                 `json:"comments"`
	CreatedAt     time.Time             `json:"createdAt"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

// SharedMapResponse is what a granted viewer receives.
type SharedMapResponse struct {
	Map     SharedMap      `json:"map"`
	Markers []SharedMarker `json:"markers"`
}

// SharedMap is the read-only view of a map; it carries no share settings.
type SharedMap struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  *string   `json:"description,omitempty"`
	MainLocation *Location `json:"mainLocation,omitempty"`
	Tags         []string  `json:"tags"`
	Views        int64     `json:"views"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// AccessDeniedResponse is returned when a shared map needs a password.
type AccessDeniedResponse struct {
	Error            string `json:"error"`
	RequiresPassword bool   `json:"requiresPassword"`
}

// MapListResponse wraps a list of maps.
type MapListResponse struct {
	Items []MapResponse `json:"items"`
	Total int           `json:"total"`
}

// StatsResponse aggregates the caller's maps.
type StatsResponse struct {
	TotalMaps  int   `json:"totalMaps"`
	SharedMaps int   `json:"sharedMaps"`
	TotalViews int64 `json:"totalViews"`
	TotalLikes int64 `json:"totalLikes"`
}

// MarkerFilter narrows the markers of a shared map.
type MarkerFilter struct {
	Categories []string
	Query      string
}

// SharedMarker is a marker as shown to a shared-map viewer.
type SharedMarker struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	CategoryID   *string   `json:"categoryId,omitempty"`
	CategoryName string    `json:"categoryName"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Address      *string   `json:"address,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Tips         []string  `json:"tips"`
	Images       []string  `json:"images"`
	IconColor    *string   `json:"iconColor,omitempty"`
	IconShape    string    `json:"iconShape"`
	CreatedAt    time.Time `json:"createdAt"`
}
