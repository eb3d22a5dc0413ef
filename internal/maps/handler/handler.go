package handler

import (
	"net/http"

	"mapshare_backend/internal/maps/service"
	"mapshare_backend/internal/maps/transport"
	"mapshare_backend/platform/httpkit"
	"mapshare_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handler handles HTTP requests for the owner's maps.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid map ID"
)

// New creates a new maps handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves the caller's maps.
// GET /api/v1/maps
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.List(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Stats aggregates the caller's maps.
// GET /api/v1/maps/stats
func (h *Handler) Stats(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Stats(c.Request.Context(), identity.UserID())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Create creates a new map.
// POST /api/v1/maps
func (h *Handler) Create(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var req transport.CreateMapRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Create(c.Request.Context(), identity.UserID(), req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Get retrieves one of the caller's maps.
// GET /api/v1/maps/:id
func (h *Handler) Get(c *gin.Context) {
	identity, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	result, err := h.svc.Get(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Update applies a partial update.
// PATCH /api/v1/maps/:id
func (h *Handler) Update(c *gin.Context) {
	identity, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	var req transport.UpdateMapRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.Update(c.Request.Context(), identity.UserID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Delete removes a map.
// DELETE /api/v1/maps/:id
func (h *Handler) Delete(c *gin.Context) {
	identity, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), identity.UserID(), id); httpkit.HandleError(c, err) {
		return
	}
	httpkit.NoContent(c)
}

// GetShareSettings returns the share configuration.
// GET /api/v1/maps/:id/share
func (h *Handler) GetShareSettings(c *gin.Context) {
	identity, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	result, err := h.svc.GetShareSettings(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// UpdateShareSettings changes the share configuration.
// PUT /api/v1/maps/:id/share
func (h *Handler) UpdateShareSettings(c *gin.Context) {
	identity, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	var req transport.UpdateShareSettingsRequest
	if !h.bind(c, &req) {
		return
	}

	result, err := h.svc.UpdateShareSettings(c.Request.Context(), identity.UserID(), id, req)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// ShareQRCode renders the share link as a PNG.
// GET /api/v1/maps/:id/share/qr
func (h *Handler) ShareQRCode(c *gin.Context) {
	identity, id, ok := h.ownerAndID(c)
	if !ok {
		return
	}

	png, err := h.svc.ShareQRCode(c.Request.Context(), identity.UserID(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (h *Handler) ownerAndID(c *gin.Context) (httpkit.Identity, uuid.UUID, bool) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return nil, uuid.Nil, false
	}
	return identity, id, true
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
