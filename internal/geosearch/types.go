package geosearch

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// MinQueryLength is the shortest accepted query, in characters, after trimming.
	MinQueryLength = 3
	// DefaultLimit is used when the caller gives no usable limit.
	DefaultLimit = 10
	// MaxLimit caps the number of returned candidates.
	MaxLimit = 20
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Valid reports whether p lies within latitude and longitude bounds.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Request is one location search.
type Request struct {
	Query string
	// Limit is clamped to [1, MaxLimit]; zero selects DefaultLimit.
	Limit int
	// Reference biases ranking toward a point when set.
	Reference *Point
}

// LocationCandidate is a geocoded place returned to the browser.
type LocationCandidate struct {
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Type        string  `json:"type"`
	Importance  float64 `json:"importance"`
	PlaceID     string  `json:"place_id"`
	// Distance to the reference point in kilometers.
	Distance *float64 `json:"distance,omitempty"`

	lat, lon float64
	hasCoord bool
}

// Response is the search endpoint payload.
type Response struct {
	Results []LocationCandidate `json:"results"`
}

// ProviderQuery is what the service asks the geocoder for.
type ProviderQuery struct {
	Text    string
	Limit   int
	Viewbox *Viewbox
}

// Viewbox is a non-exclusive bias area: results outside it are still allowed.
type Viewbox struct {
	Left, Top, Right, Bottom float64
}

// ViewboxAround builds the ±0.1° bias box around p.
func ViewboxAround(p Point) *Viewbox {
	return &Viewbox{Left: p.Lng - 0.1, Top: p.Lat + 0.1, Right: p.Lng + 0.1, Bottom: p.Lat - 0.1}
}

// Place is a raw geocoder result.
type Place struct {
	PlaceID     json.Number `json:"place_id"`
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	Type        string      `json:"type"`
	Importance  float64     `json:"importance"`
	DisplayName string      `json:"display_name"`
}

var (
	// ErrInvalidQuery is returned for queries shorter than MinQueryLength.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrInvalidReference is returned for out-of-range reference coordinates.
	ErrInvalidReference = errors.New("invalid reference point")
	// ErrRateLimited is returned when a client searches too often.
	ErrRateLimited = errors.New("rate limited")
)

// ProviderError is a failed geocoder round trip. StatusCode is the upstream
// HTTP status, or zero when no response was received.
type ProviderError struct {
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("geocoder returned status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("geocoder request failed: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
