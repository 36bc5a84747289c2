// Package validation wraps go-playground/validator/v10 with the
// domain-specific rules this repo needs, keeping the teacher's
// Validator.Validate/ValidateJSON/ValidateQuery shape from
// pkg/validation/validator.go but swapping its fintech field
// validators (strong_password, blockchain_address, amount) for the
// ones this spec's request types actually use: iso_date and
// device_name, plus the DateRangeRequest query type.
package validation

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	apierrors "github.com/biometricfleet/attendance/pkg/errors"
)

// Validator wraps the validator library with this repo's custom rules.
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator with device_name and iso_date
// registered.
func NewValidator() *Validator {
	v := validator.New()
	v.RegisterValidation("device_name", validateDeviceName)
	v.RegisterValidation("iso_date", validateISODate)
	return &Validator{validate: v}
}

// Validate runs struct-tag validation over s.
func (v *Validator) Validate(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return apierrors.Wrap(apierrors.BadRequest, "validation failed", err)
	}
	return nil
}

// ValidateJSON binds the request body into obj and validates it,
// writing a BAD_REQUEST envelope and returning false on failure.
func (v *Validator) ValidateJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondBadRequest(c, "invalid JSON body: "+err.Error())
		return false
	}
	if err := v.Validate(obj); err != nil {
		respondBadRequest(c, err.Error())
		return false
	}
	return true
}

// ValidateQuery binds query parameters into obj and validates it.
func (v *Validator) ValidateQuery(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		respondBadRequest(c, "invalid query parameters: "+err.Error())
		return false
	}
	if err := v.Validate(obj); err != nil {
		respondBadRequest(c, err.Error())
		return false
	}
	return true
}

func respondBadRequest(c *gin.Context, message string) {
	requestID, _ := c.Get("request_id")
	id, _ := requestID.(string)
	c.AbortWithStatusJSON(http.StatusBadRequest, entities.NewError(id, string(apierrors.BadRequest), message))
}

var deviceNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// validateDeviceName enforces the device-name charset configs and
// query parameters share (spec §4.4: device names are path/query
// safe identifiers, not arbitrary display strings).
func validateDeviceName(fl validator.FieldLevel) bool {
	return deviceNamePattern.MatchString(fl.Field().String())
}

// validateISODate enforces YYYY-MM-DD, the date format every
// attendance/summary endpoint accepts (spec §4.2, §4.3).
func validateISODate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

// DateRangeRequest validates the date-range query parameters shared by
// the attendance and summary endpoints (spec §4.2, §4.3): both dates
// required and ISO-formatted. The order of the two dates is not
// checked here; the handlers reject an end before start.
type DateRangeRequest struct {
	StartDate string `form:"start" validate:"required,iso_date" json:"start"`
	EndDate   string `form:"end" validate:"required,iso_date" json:"end"`
}

// Range parses the validated bounds, assuming Validate already ran.
func (r DateRangeRequest) Range() (start, end time.Time, err error) {
	start, err = time.Parse("2006-01-02", r.StartDate)
	if err != nil {
		return
	}
	end, err = time.Parse("2006-01-02", r.EndDate)
	return
}

// ParseHolidays splits the `holidays` query parameter's comma-separated
// YYYY-MM-DD list (spec §6), trimming empty entries from a stray
// leading/trailing/doubled comma.
func ParseHolidays(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
