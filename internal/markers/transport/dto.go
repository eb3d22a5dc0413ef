package transport

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Tips accepts either a JSON array or a newline-separated string.
type Tips []string

// UnmarshalJSON trims entries and drops empty ones.
func (t *Tips) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		var raw string
		if strErr := json.Unmarshal(data, &raw); strErr != nil {
			return err
		}
		list = strings.Split(raw, "\n")
	}

	out := make([]string, 0, len(list))
	for _, tip := range list {
		tip = strings.TrimSpace(tip)
		if tip != "" {
			out = append(out, tip)
		}
	}
	*t = out
	return nil
}

// Icon describes how a marker is drawn.
type Icon struct {
	Color *string `json:"color,omitempty" validate:"omitempty,hexcolor"`
	Shape string  `json:"shape,omitempty" validate:"omitempty,oneof=pin circle"`
}

// CreateMarkerRequest contains data for creating a marker.
type CreateMarkerRequest struct {
	Title       string   `json:"title" validate:"required,min=1,max=100"`
	CategoryID  *string  `json:"categoryId,omitempty" validate:"omitempty,max=64"`
	Lat         float64  `json:"lat" validate:"latitude"`
	Lng         float64  `json:"lng" validate:"longitude"`
	Address     *string  `json:"address,omitempty" validate:"omitempty,max=200"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=1000"`
	Tips        Tips     `json:"tips,omitempty" validate:"max=50,dive,max=500"`
	Images      []string `json:"images,omitempty" validate:"max=5,dive,required,max=512"`
	Icon        *Icon    `json:"icon,omitempty"`
}

// UpdateMarkerRequest is a partial marker update. An empty categoryId
// removes the category.
type UpdateMarkerRequest struct {
	Title       *string   `json:"title,omitempty" validate:"omitempty,min=1,max=100"`
	CategoryID  *string   `json:"categoryId,omitempty" validate:"omitempty,max=64"`
	Lat         *float64  `json:"lat,omitempty" validate:"omitempty,latitude"`
	Lng         *float64  `json:"lng,omitempty" validate:"omitempty,longitude"`
	Address     *string   `json:"address,omitempty" validate:"omitempty,max=200"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=1000"`
	Tips        *Tips     `json:"tips,omitempty" validate:"omitempty,max=50,dive,max=500"`
	Images      *[]string `json:"images,omitempty" validate:"omitempty,max=5,dive,required,max=512"`
	Icon        *Icon     `json:"icon,omitempty"`
}

// PresignImageRequest asks for an upload URL for one marker image.
type PresignImageRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,min=1"`
}

// PresignImageResponse carries the upload URL and the key to store on the marker.
type PresignImageResponse struct {
	UploadURL string    `json:"uploadUrl"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Filter narrows a marker list. An empty category set matches everything.
type Filter struct {
	Categories []string
	Query      string
}

// MarkerResponse represents a marker in API responses.
type MarkerResponse struct {
	ID           uuid.UUID `json:"id"`
	MapID        uuid.UUID `json:"mapId"`
	Title        string    `json:"title"`
	CategoryID   *string   `json:"categoryId,omitempty"`
	CategoryName string    `json:"categoryName"`
	Lat          float64   `json:"lat"`
	Lng          float64   `json:"lng"`
	Address      *string   `json:"address,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Tips         []string  `json:"tips"`
	Images       []string  `json:"images"`
	ImageURLs    []string  `json:"imageUrls"`
	Icon         Icon      `json:"icon"`
	CreatedBy    uuid.UUID `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// MarkerListResponse wraps a list of markers.
type MarkerListResponse struct {
	Items []MarkerResponse `json:"items"`
	Total int              `json:"total"`
}
