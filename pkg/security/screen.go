package security

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin"

	"github.com/biometricfleet/attendance/internal/domain/entities"
	"github.com/biometricfleet/attendance/pkg/errors"
)

// DefaultMaxBodyBytes is the request size cap, adapted from the
// teacher's common.MaxRequestBodySizeMiddleware's 1 MiB default.
const DefaultMaxBodyBytes = 1 << 20

// DefaultBlockedPatterns is the operator-configurable blocklist spec
// §4.1 describes as "SQLish substrings, path-traversal tokens, common
// XSS markers" — literal, case-insensitive substrings, grounded on the
// teacher's validateSafeString dangerousPatterns list
// (pkg/validation/validator.go), re-scoped from a single struct-tag
// validator to a request-wide query/path/body screen.
var DefaultBlockedPatterns = []string{
	"<script", "</script>", "javascript:", "vbscript:",
	"onload=", "onerror=", "onclick=",
	"union select", "union all select", "drop table", "drop database",
	"insert into", "delete from", "-- ", "/*", "*/",
	"../", "..\\", "%2e%2e%2f", "%2e%2e/",
}

// ScreenConfig configures the request-screening stage of the pipeline
// (spec §4.1 step 3: "size/content screening").
type ScreenConfig struct {
	MaxBodyBytes int64
	// BlockedContentTypes rejects bodies declared with these types
	// outright (e.g. multipart uploads neither service accepts).
	BlockedContentTypes []string
	// BlockedPatterns are literal, case-insensitive substrings rejected
	// wherever they appear in the path, query string, or body (spec
	// §4.1 "patterns are literal substrings, case-insensitive; applied
	// to query, path, and body text").
	BlockedPatterns []string
}

// DefaultScreenConfig returns the spec §4.4 default screening policy.
func DefaultScreenConfig() ScreenConfig {
	return ScreenConfig{
		MaxBodyBytes:        DefaultMaxBodyBytes,
		BlockedContentTypes: []string{"multipart/form-data"},
		BlockedPatterns:     DefaultBlockedPatterns,
	}
}

// Screen implements spec §4.1's screen_content: reject a request whose
// body exceeds MaxBodyBytes, whose path contains a raw control
// character, or whose path/query/body matches a blocked pattern —
// before the body is ever parsed by a handler, so screening runs ahead
// of authentication in the pipeline (spec §4.1 ordering).
func Screen(cfg ScreenConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		ct := c.ContentType()
		for _, blocked := range cfg.BlockedContentTypes {
			if strings.EqualFold(ct, blocked) {
				reject(c, "unsupported content type")
				return
			}
		}

		if containsControlChars(c.Request.URL.Path) {
			reject(c, "path contains control characters")
			return
		}

		query := c.Request.URL.RawQuery
		decodedQuery := query
		if unescaped, err := url.QueryUnescape(query); err == nil {
			decodedQuery = unescaped
		}
		if matchesBlocked(query, cfg.BlockedPatterns) || matchesBlocked(decodedQuery, cfg.BlockedPatterns) || matchesBlocked(c.Request.URL.Path, cfg.BlockedPatterns) {
			reject(c, "request contains a disallowed pattern")
			return
		}

		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			limit := cfg.MaxBodyBytes
			if limit <= 0 {
				limit = DefaultMaxBodyBytes
			}
			buf, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
			c.Request.Body.Close()
			if err != nil {
				reject(c, "failed to read request body")
				return
			}
			if int64(len(buf)) > limit {
				reject(c, "request body exceeds maximum size")
				return
			}
			if matchesBlocked(string(buf), cfg.BlockedPatterns) {
				reject(c, "request contains a disallowed pattern")
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(buf))
			c.Request.ContentLength = int64(len(buf))
		}

		c.Next()
	}
}

func reject(c *gin.Context, message string) {
	apiErr := errors.NewBadRequest(message)
	c.AbortWithStatusJSON(http.StatusBadRequest, entities.NewError(
		c.GetString(RequestIDKey), string(apiErr.Code), apiErr.Message))
}

func containsControlChars(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) && r != '\t' {
			return true
		}
	}
	return false
}

func matchesBlocked(s string, patterns []string) bool {
	if s == "" {
		return false
	}
	lower := strings.ToLower(s)
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
