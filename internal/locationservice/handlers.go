package locationservice

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/internal/api/handlers/common"
	"github.com/biometricfleet/attendance/internal/domain/entities"
	apierrors "github.com/biometricfleet/attendance/pkg/errors"
	"github.com/biometricfleet/attendance/pkg/interfaces"
	"github.com/biometricfleet/attendance/pkg/validation"
)

// Handlers wires the Service into gin, mirroring the teacher's
// handler-struct-with-injected-dependencies pattern.
type Handlers struct {
	svc       *Service
	auth      interfaces.AuthProvider
	apiKey    string
	devices   map[string]entities.Device
	validator *validation.Validator
}

// NewHandlers builds the Location Service's HTTP handlers.
func NewHandlers(svc *Service, auth interfaces.AuthProvider, apiKey string, devices map[string]entities.Device) *Handlers {
	return &Handlers{svc: svc, auth: auth, apiKey: apiKey, devices: devices, validator: validation.NewValidator()}
}

type tokenRequest struct {
	APIKey string `json:"api_key" validate:"required"`
}

// IssueToken handles POST /auth/token: exchanges the Location's shared
// API key for a place_backend-kind bearer token (spec §4.1, §6).
//
// @Summary Issue an access token
// @Accept json
// @Produce json
// @Router /auth/token [post]
func (h *Handlers) IssueToken(c *gin.Context) {
	var req tokenRequest
	if !h.validator.ValidateJSON(c, &req) {
		return
	}
	if subtle.ConstantTimeCompare([]byte(req.APIKey), []byte(h.apiKey)) != 1 {
		common.RespondError(c, apierrors.NewAuthInvalid())
		return
	}

	token, expiresIn, err := h.auth.IssueToken(entities.KindPlaceBackend, 0)
	if err != nil {
		common.HandleError(c, err)
		return
	}

	common.RespondSuccess(c, gin.H{"token": token, "expires_in": expiresIn})
}

// Health handles GET /health: liveness plus device-reachability
// summary (spec §4.2).
func (h *Handlers) Health(c *gin.Context) {
	devices := h.svc.ListDevices(h.devices)
	common.RespondSuccess(c, gin.H{"status": "ok", "devices": devices})
}

// ListDevices handles GET /devices.
func (h *Handlers) ListDevices(c *gin.Context) {
	common.RespondSuccess(c, h.svc.ListDevices(h.devices))
}

type usersQuery struct {
	Device         string `form:"device" validate:"omitempty,device_name"`
	IncludeUnknown bool   `form:"include_unknown"`
}

// GetUsers handles GET /users?device=<name>&include_unknown=bool (spec
// §4.2): device is optional; when absent, the union of every
// configured device's users is returned, de-duplicated on user_id.
func (h *Handlers) GetUsers(c *gin.Context) {
	var q usersQuery
	if !h.validator.ValidateQuery(c, &q) {
		return
	}

	if q.Device == "" {
		users, failures := h.svc.UsersAcrossDevices(c.Request.Context())
		respondPartialOrSuccess(c, users, failures)
		return
	}

	users, err := h.svc.GetUsers(c.Request.Context(), q.Device)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.RespondSuccess(c, users)
}

type attendanceQuery struct {
	validation.DateRangeRequest
	Device   string `form:"device" validate:"omitempty,device_name"`
	Holidays string `form:"holidays"`
}

// GetAttendance handles GET /attendance?device=&start=&end=&holidays=
// (spec §4.2): device optional, spanning every configured device when
// absent; a 502 is returned only when the caller named exactly one
// device and it failed, otherwise per-device failures are embedded in
// response metadata.
func (h *Handlers) GetAttendance(c *gin.Context) {
	var q attendanceQuery
	if !h.validator.ValidateQuery(c, &q) {
		return
	}
	start, end, err := q.Range()
	if err != nil {
		common.RespondBadRequest(c, "invalid date range")
		return
	}
	if end.Before(start) {
		common.RespondBadRequest(c, "end must not be before start")
		return
	}

	if q.Device == "" {
		records, failures := h.svc.AttendanceAcrossDevices(c.Request.Context(), start, end, validation.ParseHolidays(q.Holidays))
		respondPartialOrSuccess(c, records, failures)
		return
	}

	records, err := h.svc.GetAttendance(c.Request.Context(), q.Device, start, end, validation.ParseHolidays(q.Holidays))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.RespondSuccess(c, records)
}

// GetSummary handles GET /attendance/summary?device=&start=&end=&holidays=
// (spec §4.2, §4.3), mirroring GetAttendance's device-optional fan-in.
func (h *Handlers) GetSummary(c *gin.Context) {
	var q attendanceQuery
	if !h.validator.ValidateQuery(c, &q) {
		return
	}
	start, end, err := q.Range()
	if err != nil {
		common.RespondBadRequest(c, "invalid date range")
		return
	}
	if end.Before(start) {
		common.RespondBadRequest(c, "end must not be before start")
		return
	}

	if q.Device == "" {
		summary, failures := h.svc.SummaryAcrossDevices(c.Request.Context(), start, end, validation.ParseHolidays(q.Holidays))
		respondPartialOrSuccess(c, summary, failures)
		return
	}

	summary, err := h.svc.GetSummary(c.Request.Context(), q.Device, start, end, validation.ParseHolidays(q.Holidays))
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.RespondSuccess(c, summary)
}

func respondPartialOrSuccess[T any](c *gin.Context, data []T, failures []entities.Failure) {
	if len(failures) > 0 {
		common.RespondPartial(c, data, failures)
		return
	}
	common.RespondSuccess(c, data)
}

// DeviceInfo handles GET /devices/:name/info.
func (h *Handlers) DeviceInfo(c *gin.Context) {
	name := c.Param("name")
	info, err := h.svc.DeviceInfo(c.Request.Context(), name)
	if err != nil {
		common.HandleError(c, err)
		return
	}
	common.RespondSuccess(c, info)
}
