package handler

import (
	"net/http"
	"strings"

	"mapshare_backend/internal/markers/catalog"
	"mapshare_backend/internal/markers/service"
	"mapshare_backend/internal/markers/transport"
	"mapshare_backend/platform/httpkit"
	"mapshare_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for markers.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidMapID     = "invalid map ID"
	msgInvalidMarkerID  = "invalid marker ID"
)

// New creates a new markers handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Categories lists the marker categories.
// GET /api/v1/categories
func (h *Handler) Categories(c *gin.Context) {
	httpkit.OK(c, gin.H{"items": catalog.All()})
}

// List retrieves the markers of a map.
// GET /api/v1/maps/:id/markers?categories=a,b&q=text
func (h *Handler) List(c *gin.Context) {
	identity, mapID, ok := h.ownerAndMap(c)
	if !ok {
		return
	}

	result, err := h.svc.List(c.Request.Context(), identity.UserID(), mapID, filterFromQuery(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create adds a marker.
// POST /api/v1/maps/:id/markers
func (h *Handler) Create(c *gin.Context) {
	identity, mapID, ok := h.ownerAndMap(c)
	if !ok {
		return
	}

	var req transport.CreateMarkerRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity.UserID(), mapID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Update changes a marker.
// PATCH /api/v1/maps/:id/markers/:markerId
func (h *Handler) Update(c *gin.Context) {
	identity, mapID, ok := h.ownerAndMap(c)
	if !ok {
		return
	}
	markerID, ok := markerIDParam(c)
	if !ok {
		return
	}

	var req transport.UpdateMarkerRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), identity.UserID(), mapID, markerID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a marker.
// DELETE /api/v1/maps/:id/markers/:markerId
func (h *Handler) Delete(c *gin.Context) {
	identity, mapID, ok := h.ownerAndMap(c)
	if !ok {
		return
	}
	markerID, ok := markerIDParam(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), identity.UserID(), mapID, markerID); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// PresignImage returns an upload URL for a marker image.
// POST /api/v1/maps/:id/markers/images/presign
func (h *Handler) PresignImage(c *gin.Context) {
	identity, mapID, ok := h.ownerAndMap(c)
	if !ok {
		return
	}

	var req transport.PresignImageRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.PresignImageUpload(c.Request.Context(), identity.UserID(), mapID, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

func (h *Handler) ownerAndMap(c *gin.Context) (httpkit.Identity, uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return nil, uuid.Nil, false
	}
	mapID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidMapID, nil)
		return nil, uuid.Nil, false
	}
	return identity, mapID, true
}

func markerIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("markerId"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidMarkerID, nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func filterFromQuery(c *gin.Context) transport.Filter {
	var f transport.Filter
	for _, id := range strings.Split(c.Query("categories"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			f.Categories = append(f.Categories, id)
		}
	}
	f.Query = strings.TrimSpace(c.Query("q"))
	return f
}
