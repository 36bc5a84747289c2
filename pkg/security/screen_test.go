package security

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newScreenRouter(cfg ScreenConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Screen(cfg))
	r.Any("/*path", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func TestScreen_AllowsCleanRequest(t *testing.T) {
	r := newScreenRouter(DefaultScreenConfig())
	req := httptest.NewRequest(http.MethodGet, "/users?device=main", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestScreen_RejectsBlockedQueryPattern(t *testing.T) {
	r := newScreenRouter(DefaultScreenConfig())
	req := httptest.NewRequest(http.MethodGet, "/users?q=1%20UNION%20SELECT%20*", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreen_RejectsPathTraversal(t *testing.T) {
	r := newScreenRouter(DefaultScreenConfig())
	req := httptest.NewRequest(http.MethodGet, "/files/../../etc/passwd", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreen_RejectsControlCharInPath(t *testing.T) {
	r := newScreenRouter(DefaultScreenConfig())
	// httptest.NewRequest rejects a control byte in the target, so the
	// raw path is set on the parsed URL instead.
	req := httptest.NewRequest(http.MethodGet, "/users/bad", nil)
	req.URL.Path = "/users/\x01bad"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreen_RejectsBlockedBodyPattern(t *testing.T) {
	r := newScreenRouter(DefaultScreenConfig())
	body := strings.NewReader(`{"name":"<script>alert(1)</script>"}`)
	req := httptest.NewRequest(http.MethodPost, "/enroll", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreen_RejectsOversizedBody(t *testing.T) {
	cfg := DefaultScreenConfig()
	cfg.MaxBodyBytes = 8
	r := newScreenRouter(cfg)
	body := strings.NewReader("this body is definitely longer than eight bytes")
	req := httptest.NewRequest(http.MethodPost, "/enroll", body)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScreen_RejectsBlockedContentType(t *testing.T) {
	cfg := DefaultScreenConfig()
	r := newScreenRouter(cfg)
	body := strings.NewReader("file content")
	req := httptest.NewRequest(http.MethodPost, "/enroll", body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMatchesBlocked_CaseInsensitive(t *testing.T) {
	assert.True(t, matchesBlocked("SELECT * FROM t; DROP TABLE users", DefaultBlockedPatterns))
	assert.False(t, matchesBlocked("perfectly ordinary text", DefaultBlockedPatterns))
}
