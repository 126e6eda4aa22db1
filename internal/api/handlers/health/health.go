package health

import (
	"net/http"
	"runtime"
	"time"

	"recipe-parser/internal/core/cache"
	"recipe-parser/internal/core/escalate"
	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime"`
	Backends  []escalate.BackendStatus `json:"backends,omitempty"`
	Cache     map[string]interface{}   `json:"cache,omitempty"`
}

// Handler 健康檢查處理器
type Handler struct {
	config     *config.Config
	controller *escalate.Controller
	cache      *cache.Manager
}

// NewHandler 創建健康檢查處理器
func NewHandler(cfg *config.Config, controller *escalate.Controller, cacheManager *cache.Manager) *Handler {
	return &Handler{
		config:     cfg,
		controller: controller,
		cache:      cacheManager,
	}
}

// HealthCheck 健康檢查處理器
func (h *Handler) HealthCheck(c *gin.Context) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   h.config.App.Version,
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
		Backends: h.controller.BackendStatuses(c.Request.Context()),
		Cache:    h.cache.GetStats(),
	}

	// 記錄請求
	common.LogInfo("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查處理器
// heuristic 後端沒有外部依賴，行程起來就緒即成立
func (h *Handler) ReadinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func (h *Handler) LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
