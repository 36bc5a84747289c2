package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	apierrors "github.com/biometricfleet/attendance/pkg/errors"
	"github.com/biometricfleet/attendance/pkg/wrappers"
)

// envelope mirrors entities.Envelope for decoding a Location Service's
// response without importing the handler-facing constructors.
type envelope struct {
	Success bool `json:"success"`
	Data    json.RawMessage
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// callLocation issues method/path against c and decodes the envelope's
// data field into T, translating a non-2xx/error envelope into the
// matching taxonomy error (spec §7: the Gateway re-derives its own
// error from the downstream's, it never forwards raw bodies).
func callLocation[T any](ctx context.Context, c *wrappers.LocationClient, method, path string) (T, error) {
	var zero T

	resp, err := c.Do(ctx, method, path, nil)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return zero, apierrors.Wrap(apierrors.UpstreamUnavailable, "malformed location response", err)
	}

	if !env.Success || resp.StatusCode >= http.StatusBadRequest {
		code := apierrors.UpstreamUnavailable
		msg := fmt.Sprintf("location returned status %d", resp.StatusCode)
		if env.Error != nil {
			msg = env.Error.Message
			if mapped, ok := taxonomyByCode[env.Error.Code]; ok {
				code = mapped
			}
		}
		return zero, apierrors.New(code, msg)
	}

	var out T
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return zero, apierrors.Wrap(apierrors.UpstreamUnavailable, "malformed location data", err)
		}
	}
	return out, nil
}

var taxonomyByCode = map[string]apierrors.Code{
	string(apierrors.AuthRequired):        apierrors.UpstreamUnavailable,
	string(apierrors.AuthInvalid):         apierrors.UpstreamUnavailable,
	string(apierrors.Forbidden):           apierrors.UpstreamUnavailable,
	string(apierrors.NotFound):            apierrors.NotFound,
	string(apierrors.BadRequest):          apierrors.UpstreamUnavailable,
	string(apierrors.Conflict):            apierrors.Conflict,
	string(apierrors.RateLimited):         apierrors.UpstreamUnavailable,
	string(apierrors.UpstreamUnavailable): apierrors.UpstreamUnavailable,
	string(apierrors.Timeout):             apierrors.Timeout,
	string(apierrors.Internal):            apierrors.UpstreamUnavailable,
}
