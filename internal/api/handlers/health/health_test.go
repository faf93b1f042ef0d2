package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"recipe-scraper/internal/infrastructure/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticChecker bool

func (s staticChecker) Available() bool { return bool(s) }

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", h.Root)
	r.GET("/health", h.HealthCheck)
	r.GET("/ready", h.ReadinessCheck)
	r.GET("/live", h.LivenessCheck)
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Version = "1.0.0"
	return cfg
}

func TestHealthReportsDependencies(t *testing.T) {
	h := NewHandler(testConfig(),
		Dependency{Name: "yt-dlp", Checker: staticChecker(true), Required: true},
		Dependency{Name: "instagram", Checker: staticChecker(false)},
	)

	w := get(newRouter(h), "/health")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.0.0", resp.Version)
	assert.Equal(t, map[string]bool{"yt-dlp": true, "instagram": false}, resp.Dependencies)
}

func TestReadiness(t *testing.T) {
	ready := NewHandler(testConfig(),
		Dependency{Name: "yt-dlp", Checker: staticChecker(true), Required: true},
		Dependency{Name: "instagram", Checker: staticChecker(false)},
	)
	assert.Equal(t, http.StatusOK, get(newRouter(ready), "/ready").Code)

	notReady := NewHandler(testConfig(),
		Dependency{Name: "groq", Checker: staticChecker(false), Required: true},
	)
	w := get(newRouter(notReady), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "not_ready")
	assert.Contains(t, w.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestRootAndLiveness(t *testing.T) {
	r := newRouter(NewHandler(testConfig()))

	w := get(r, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/scrape/social")

	w = get(r, "/live")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alive")
}
