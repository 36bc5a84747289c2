// Package common holds the response helpers shared by every handler
// package, adapted from the teacher's internal/api/handlers/common/
// common.go RespondX family: same shape (one function per status),
// rebuilt on entities.Envelope and pkg/errors.APIError instead of the
// teacher's bespoke entities.ErrorResponse.
package common

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	apierrors "github.com/biometricfleet/attendance/pkg/errors"
)

// RequestID extracts the correlation ID the security middleware chain
// attached to the context.
func RequestID(c *gin.Context) string {
	if v, ok := c.Get("request_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// RespondSuccess sends a 200 success envelope.
func RespondSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, entities.NewSuccess(RequestID(c), data))
}

// RespondPartial sends a 200 success envelope carrying partial-result
// metadata (spec §4.3 rule 6 / §8 invariant 8).
func RespondPartial(c *gin.Context, data interface{}, failures []entities.Failure) {
	c.JSON(http.StatusOK, entities.NewPartial(RequestID(c), data, failures))
}

// RespondUpstreamUnavailable sends a 502 UPSTREAM_UNAVAILABLE envelope
// carrying the per-Location failure list, for the case where a fan-out
// produced zero successes (spec §4.3 rule 6, §7, §8 invariant 8:
// partial requires at least one success).
func RespondUpstreamUnavailable(c *gin.Context, failures []entities.Failure) {
	apiErr := apierrors.NewUpstreamUnavailable("all locations unavailable")
	env := entities.NewError(RequestID(c), string(apiErr.Code), apiErr.Message)
	env.Metadata.Failures = failures
	c.JSON(apiErr.StatusCode, env)
}

// RespondCreated sends a 201 success envelope.
func RespondCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, entities.NewSuccess(RequestID(c), data))
}

// RespondError sends the envelope for apiErr, using its own status
// code and taxonomy code (spec §7).
func RespondError(c *gin.Context, apiErr *apierrors.APIError) {
	if apiErr.Code == apierrors.RateLimited && apiErr.RetryAfterSeconds > 0 {
		c.Header("Retry-After", strconv.Itoa(apiErr.RetryAfterSeconds))
	}
	c.JSON(apiErr.StatusCode, entities.NewError(RequestID(c), string(apiErr.Code), apiErr.Message))
}

// RespondBadRequest is a convenience wrapper over RespondError.
func RespondBadRequest(c *gin.Context, message string) {
	RespondError(c, apierrors.NewBadRequest(message))
}

// RespondNotFound is a convenience wrapper over RespondError.
func RespondNotFound(c *gin.Context, message string) {
	RespondError(c, apierrors.NewNotFound(message))
}

// RespondConflict is a convenience wrapper over RespondError.
func RespondConflict(c *gin.Context, message string) {
	RespondError(c, apierrors.NewConflict(message))
}

// RespondInternalError is a convenience wrapper over RespondError,
// logging nothing itself — the caller's own logger records cause.
func RespondInternalError(c *gin.Context, message string) {
	RespondError(c, apierrors.New(apierrors.Internal, message))
}

// HandleError inspects err for a wrapped *APIError and responds with
// its taxonomy; anything else becomes an opaque INTERNAL error so a
// handler never needs its own type switch (spec §7: "never leak
// internals in the message").
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	if apiErr, ok := apierrors.As(err); ok {
		RespondError(c, apiErr)
		return
	}
	RespondError(c, apierrors.Wrap(apierrors.Internal, "internal error", err))
}

// PaginationParams holds offset/limit pagination parameters.
type PaginationParams struct {
	Limit  int
	Offset int
}

// ExtractPagination reads limit/offset query parameters bounded by
// [1, maxLimit] and [0, +inf).
func ExtractPagination(c *gin.Context, defaultLimit, maxLimit int) PaginationParams {
	limit := parseIntParam(c, "limit", defaultLimit)
	if limit > maxLimit {
		limit = maxLimit
	}
	if limit < 1 {
		limit = defaultLimit
	}
	offset := parseIntParam(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return PaginationParams{Limit: limit, Offset: offset}
}

func parseIntParam(c *gin.Context, param string, defaultVal int) int {
	val := c.Query(param)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}
