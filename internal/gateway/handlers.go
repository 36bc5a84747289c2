package gateway

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/internal/api/handlers/common"
	"github.com/biometricfleet/attendance/internal/domain/entities"
	apierrors "github.com/biometricfleet/attendance/pkg/errors"
	"github.com/biometricfleet/attendance/pkg/interfaces"
	"github.com/biometricfleet/attendance/pkg/validation"
)

// Handlers wires Service into gin for the Gateway's single REST API
// (spec §4.1, §6).
type Handlers struct {
	svc           *Service
	frontendAuth  interfaces.AuthProvider
	placeAuth     interfaces.AuthProvider
	frontendKey   string
	placeKey      string
	validator     *validation.Validator
}

// NewHandlers builds the Gateway's HTTP handlers. frontendAuth issues
// Frontend-kind tokens for the Dashboard; placeAuth issues
// PlaceBackend-kind tokens from POST /auth/place/token (spec §9a: two
// independent issuers). The tokens the Gateway presents to each
// Location are fetched from that Location's own /auth/token.
func NewHandlers(svc *Service, frontendAuth, placeAuth interfaces.AuthProvider, frontendKey, placeKey string) *Handlers {
	return &Handlers{
		svc:          svc,
		frontendAuth: frontendAuth,
		placeAuth:    placeAuth,
		frontendKey:  frontendKey,
		placeKey:     placeKey,
		validator:    validation.NewValidator(),
	}
}

type tokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// FrontendToken handles POST /auth/frontend/token.
func (h *Handlers) FrontendToken(c *gin.Context) {
	h.issueToken(c, h.frontendKey, h.frontendAuth, entities.KindFrontend)
}

// PlaceToken handles POST /auth/place/token.
func (h *Handlers) PlaceToken(c *gin.Context) {
	h.issueToken(c, h.placeKey, h.placeAuth, entities.KindPlaceBackend)
}

func (h *Handlers) issueToken(c *gin.Context, expectedKey string, auth interfaces.AuthProvider, kind entities.PrincipalKind) {
	var req tokenRequest
	if !h.validator.ValidateJSON(c, &req) {
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(expectedKey)) != 1 {
		common.RespondError(c, apierrors.NewAuthInvalid())
		return
	}
	token, expiresIn, err := auth.IssueToken(kind, 0)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.RespondSuccess(c, gin.H{"token": token, "expires_in": expiresIn})
}

// Health handles GET /health: fans out to every registered Location's
// own /health and merges the result with this Gateway's local circuit
// breaker states (spec §4.3: "/health aggregates LS healths via
// fan-out").
func (h *Handlers) Health(c *gin.Context) {
	states := h.svc.registry.BreakerStates()
	reported, failures := h.svc.LocationHealth(c.Request.Context())

	locations := make(map[string]gin.H, len(states))
	for id, st := range states {
		status, reachable := reported[id]
		if !reachable {
			status = "unreachable"
		}
		locations[id] = gin.H{"status": status, "circuit_breaker": st.String()}
	}

	common.RespondSuccess(c, gin.H{"status": "ok", "locations": locations, "failures": failures})
}

// Places handles GET /places.
func (h *Handlers) Places(c *gin.Context) {
	common.RespondSuccess(c, h.svc.Places())
}

// AllDevices handles GET /devices/all.
func (h *Handlers) AllDevices(c *gin.Context) {
	devices, failures := h.svc.AllDevices(c.Request.Context())
	h.respondFanOut(c, devices, failures)
}

// AllUsers handles GET /users/all.
func (h *Handlers) AllUsers(c *gin.Context) {
	users, failures := h.svc.AllUsers(c.Request.Context())
	h.respondFanOut(c, users, failures)
}

type rangeQuery struct {
	validation.DateRangeRequest
	Holidays string `form:"holidays"`
}

// AllAttendance handles GET /attendance/all.
func (h *Handlers) AllAttendance(c *gin.Context) {
	var q rangeQuery
	if !h.validator.ValidateQuery(c, &q) {
		return
	}
	start, end, err := q.Range()
	if err != nil || end.Before(start) {
		common.RespondBadRequest(c, "invalid date range")
		return
	}
	records, failures := h.svc.AllAttendance(c.Request.Context(), start, end, validation.ParseHolidays(q.Holidays))
	h.respondFanOut(c, records, failures)
}

// AllSummary handles GET /summary/all.
func (h *Handlers) AllSummary(c *gin.Context) {
	var q rangeQuery
	if !h.validator.ValidateQuery(c, &q) {
		return
	}
	start, end, err := q.Range()
	if err != nil || end.Before(start) {
		common.RespondBadRequest(c, "invalid date range")
		return
	}
	summary, failures := h.svc.AllSummary(c.Request.Context(), start, end, validation.ParseHolidays(q.Holidays))
	h.respondFanOut(c, summary, failures)
}

// Place handles GET /place/:id/*path, proxying to one Location.
func (h *Handlers) Place(c *gin.Context) {
	id := c.Param("id")
	sub := c.Param("path")
	data, err := h.svc.Place(c.Request.Context(), id, sub)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.RespondSuccess(c, data)
}

// Device handles GET /device/:name/*path, resolving the owning
// Location and proxying, or 409 CONFLICT if ambiguous (spec §4.1).
func (h *Handlers) Device(c *gin.Context) {
	name := c.Param("name")
	sub := c.Param("path")

	client, err := h.svc.DeviceOwner(c.Request.Context(), name)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	data, err := h.svc.Place(c.Request.Context(), client.Location().ID, sub)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.RespondSuccess(c, data)
}

// respondFanOut resolves a cross-Location fan-out into the correct
// envelope: 502 UPSTREAM_UNAVAILABLE when every registered Location
// failed (zero successes), a partial 200 when some but not all failed,
// and a plain 200 otherwise (spec §4.3 rule 6, §7, §8 invariant 8:
// partial = |failures| > 0 AND |successes| > 0).
func (h *Handlers) respondFanOut(c *gin.Context, data interface{}, failures []entities.Failure) {
	total := len(h.svc.registry.All())
	if total > 0 && len(failures) == total {
		common.RespondUpstreamUnavailable(c, failures)
		return
	}
	if len(failures) > 0 {
		common.RespondPartial(c, data, failures)
		return
	}
	common.RespondSuccess(c, data)
}
