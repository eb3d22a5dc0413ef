package geosearch

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"mapshare_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is logged when the browser abandoned a search.
const statusClientClosedRequest = 499

// Handler exposes the location search endpoint.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// SearchPOI handles GET /api/search/poi?q=...&limit=...&userLat=...&userLng=...
func (h *Handler) SearchPOI(c *gin.Context) {
	req, err := parseRequest(c)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidReference, nil)
		return
	}

	resp, err := h.svc.Search(c.Request.Context(), c.ClientIP(), req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			c.AbortWithStatus(statusClientClosedRequest)
			return
		}
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, resp)
}

// parseRequest reads the query string. An unparseable limit falls back to
// the default; a reference point needs both coordinates.
func parseRequest(c *gin.Context) (Request, error) {
	req := Request{Query: c.Query("q")}

	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			if n < 1 {
				n = 1
			}
			req.Limit = n
		}
	}

	rawLat := strings.TrimSpace(c.Query("userLat"))
	rawLng := strings.TrimSpace(c.Query("userLng"))
	if rawLat == "" || rawLng == "" {
		return req, nil
	}
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return Request{}, err
	}
	lng, err := strconv.ParseFloat(rawLng, 64)
	if err != nil {
		return Request{}, err
	}
	req.Reference = &Point{Lat: lat, Lng: lng}
	return req, nil
}
