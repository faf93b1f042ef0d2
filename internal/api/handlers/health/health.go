package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-scraper/internal/infrastructure/config"
	"recipe-scraper/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Checker 外部依賴的可用性檢查
type Checker interface {
	Available() bool
}

// Dependency 具名的依賴檢查，Required 不可用時服務視為未就緒
type Dependency struct {
	Name     string
	Checker  Checker
	Required bool
}

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status       string                 `json:"status"`
	Timestamp    time.Time              `json:"timestamp"`
	Version      string                 `json:"version"`
	Dependencies map[string]bool        `json:"dependencies"`
	Runtime      map[string]interface{} `json:"runtime"`
}

// Handler 健康檢查處理器
type Handler struct {
	cfg  *config.Config
	deps []Dependency
}

// NewHandler 創建健康檢查處理器
func NewHandler(cfg *config.Config, deps ...Dependency) *Handler {
	return &Handler{cfg: cfg, deps: deps}
}

func (h *Handler) dependencyStatus() (map[string]bool, bool) {
	status := make(map[string]bool, len(h.deps))
	ready := true
	for _, d := range h.deps {
		ok := d.Checker != nil && d.Checker.Available()
		status[d.Name] = ok
		if d.Required && !ok {
			ready = false
		}
	}
	return status, ready
}

// Root 服務資訊與端點列表
func (h *Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe Scraper API",
		"version": h.cfg.App.Version,
		"endpoints": gin.H{
			"social":  "/scrape/social",
			"article": "/scrape/article",
			"image":   "/scrape/image",
		},
	})
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	deps, _ := h.dependencyStatus()

	response := HealthResponse{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Version:      h.cfg.App.Version,
		Dependencies: deps,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器
func (h *Handler) ReadinessCheck(c *gin.Context) {
	deps, ready := h.dependencyStatus()
	if !ready {
		common.LogWarn("Readiness check failed", zap.Any("dependencies", deps))
		c.JSON(common.ErrServiceUnavailable.Status, gin.H{
			"status":       "not_ready",
			"code":         common.ErrServiceUnavailable.Code,
			"dependencies": deps,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ready",
		"dependencies": deps,
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
