package geosearch

import (
	"math"
	"sort"
	"strconv"
)

const (
	earthRadiusKm = 6371.0
	// tieWindowKm is the distance difference under which importance decides.
	tieWindowKm = 2.0
)

// Haversine returns the great-circle distance between a and b in kilometers.
func Haversine(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

// candidatesFrom converts raw places, attaching distances when ref is set.
func candidatesFrom(places []Place, ref *Point) []LocationCandidate {
	out := make([]LocationCandidate, 0, len(places))
	for _, p := range places {
		c := LocationCandidate{
			DisplayName: p.DisplayName,
			Lat:         p.Lat,
			Lon:         p.Lon,
			Type:        p.Type,
			Importance:  p.Importance,
			PlaceID:     p.PlaceID.String(),
		}

		lat, latErr := strconv.ParseFloat(p.Lat, 64)
		lon, lonErr := strconv.ParseFloat(p.Lon, 64)
		if latErr == nil && lonErr == nil {
			c.lat, c.lon, c.hasCoord = lat, lon, true
		}

		if ref != nil && c.hasCoord {
			d := Haversine(*ref, Point{Lat: lat, Lng: lon})
			c.Distance = &d
		}
		out = append(out, c)
	}
	return out
}

// rank orders candidates in place. Without a reference point the order is by
// descending importance. With one, candidates are ordered by ascending
// distance, except that a candidate less than tieWindowKm away from its
// neighbour is placed by descending importance instead. Candidates whose
// coordinates could not be parsed go last.
func rank(cs []LocationCandidate, withReference bool) {
	if !withReference {
		sort.SliceStable(cs, func(i, j int) bool { return cs[i].Importance > cs[j].Importance })
		return
	}

	// Insertion sort keeps the pairwise rule for every adjacent pair: the
	// rule is not transitive, so a general sort gives no such guarantee.
	for i := 1; i < len(cs); i++ {
		x := cs[i]
		j := i
		for j > 0 && precedes(x, cs[j-1]) {
			cs[j] = cs[j-1]
			j--
		}
		cs[j] = x
	}
}

// precedes reports whether a must be placed before b.
func precedes(a, b LocationCandidate) bool {
	switch {
	case a.Distance == nil && b.Distance == nil:
		return a.Importance > b.Importance
	case a.Distance == nil:
		return false
	case b.Distance == nil:
		return true
	}

	diff := *a.Distance - *b.Distance
	if math.Abs(diff) < tieWindowKm {
		return a.Importance > b.Importance
	}
	return diff < 0
}

func truncate(cs []LocationCandidate, limit int) []LocationCandidate {
	if len(cs) > limit {
		return cs[:limit]
	}
	return cs
}

// clampLimit maps a requested limit into [1, MaxLimit]. Zero selects DefaultLimit.
func clampLimit(limit int) int {
	switch {
	case limit == 0:
		return DefaultLimit
	case limit < 1:
		return 1
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
