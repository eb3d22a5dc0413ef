package handler

import (
	"net/http"
	"strings"

	"mapshare_backend/internal/maps/access"
	"mapshare_backend/internal/maps/service"
	"mapshare_backend/internal/maps/transport"
	"mapshare_backend/platform/httpkit"
	"mapshare_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgAccessDenied     = "access denied"
	msgMapNotFound      = "map not found"
	msgPasswordRequired = "password required"
)

// SharedHandler serves read-only shared maps to anonymous viewers.
type SharedHandler struct {
	svc *service.Service
	val *validator.Validator
}

// NewShared creates a new shared-map handler.
func NewShared(svc *service.Service, val *validator.Validator) *SharedHandler {
	return &SharedHandler{svc: svc, val: val}
}

// View resolves access without a password.
// GET /api/v1/shared/:id
func (h *SharedHandler) View(c *gin.Context) {
	id, ok := parseSharedID(c)
	if !ok {
		return
	}
	h.resolve(c, id, "")
}

// Access resolves access with a password from the request body. The password
// is never read from the query string.
// POST /api/v1/shared/:id/access
func (h *SharedHandler) Access(c *gin.Context) {
	id, ok := parseSharedID(c)
	if !ok {
		return
	}

	var req transport.AccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return
	}
	h.resolve(c, id, req.Password)
}

func (h *SharedHandler) resolve(c *gin.Context, id uuid.UUID, password string) {
	view, err := h.svc.ResolveShared(c.Request.Context(), id, password, c.ClientIP(), markerFilter(c))
	if httpkit.HandleError(c, err) {
		return
	}

	res := view.Result
	switch res.Outcome {
	case access.OutcomeGranted:
		httpkit.OK(c, view.View)
	case access.OutcomePasswordRequired:
		msg := msgPasswordRequired
		if res.Message != "" {
			msg = res.Message
		}
		httpkit.JSON(c, http.StatusUnauthorized, transport.AccessDeniedResponse{Error: msg, RequiresPassword: true})
	default:
		if res.Reason == access.ReasonNotFound {
			httpkit.Error(c, http.StatusNotFound, msgMapNotFound, nil)
			return
		}
		httpkit.Error(c, http.StatusForbidden, msgAccessDenied, nil)
	}
}

func parseSharedID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		// Invalid ids cannot name an existing map.
		httpkit.Error(c, http.StatusNotFound, msgMapNotFound, nil)
		return uuid.Nil, false
	}
	return id, true
}

// markerFilter reads ?categories=a,b&q=text.
func markerFilter(c *gin.Context) transport.MarkerFilter {
	var filter transport.MarkerFilter
	for _, id := range strings.Split(c.Query("categories"), ",") {
		if id = strings.TrimSpace(id); id != "" {
			filter.Categories = append(filter.Categories, id)
		}
	}
	filter.Query = strings.TrimSpace(c.Query("q"))
	return filter
}
