package escalate

import (
	"context"
	"sync"
	"time"

	"recipe-parser/internal/core/backend"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
)

// BackendStatus 單一後端的可用性快照
type BackendStatus struct {
	Name          common.BackendName `json:"name"`
	Available     bool               `json:"available"`
	LastLatencyMs int64              `json:"last_latency_ms"`
	CheckedAt     time.Time          `json:"checked_at"`
}

// statusEntry 快取條目，mu 讓同一後端的並發探測合流成一次
type statusEntry struct {
	mu     sync.Mutex
	status BackendStatus
	fresh  bool
}

// statusCache 後端可用性快取
// 探測結果在 TTL 內重複使用，避免每個請求都去敲 Ollama / OpenRouter
type statusCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[common.BackendName]*statusEntry
}

func newStatusCache(ttl time.Duration) *statusCache {
	return &statusCache{
		ttl:     ttl,
		entries: make(map[common.BackendName]*statusEntry),
	}
}

// Check 回傳後端目前的可用性，需要時重新探測
// 同一後端同時只會有一個 goroutine 在探測，其餘等待並共用結果
func (c *statusCache) Check(ctx context.Context, b backend.Backend) BackendStatus {
	entry := c.entry(b.Name())

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.fresh && time.Since(entry.status.CheckedAt) < c.ttl {
		return entry.status
	}

	start := time.Now()
	available := b.CheckAvailable(ctx)
	latency := time.Since(start)

	entry.status = BackendStatus{
		Name:          b.Name(),
		Available:     available,
		LastLatencyMs: latency.Milliseconds(),
		CheckedAt:     time.Now(),
	}
	entry.fresh = true

	common.LogDebug("後端可用性探測完成",
		zap.String("後端", string(b.Name())),
		zap.Bool("可用", available),
		zap.Duration("耗時", latency),
	)

	return entry.status
}

// MarkUnavailable 呼叫失敗後立即標記後端不可用
// 讓同一個 TTL 視窗內的後續請求跳過這個後端
func (c *statusCache) MarkUnavailable(name common.BackendName) {
	entry := c.entry(name)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	entry.status.Name = name
	entry.status.Available = false
	entry.status.CheckedAt = time.Now()
	entry.fresh = true
}

func (c *statusCache) entry(name common.BackendName) *statusEntry {
	c.mu.RLock()
	entry, ok := c.entries[name]
	c.mu.RUnlock()
	if ok {
		return entry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok = c.entries[name]; ok {
		return entry
	}
	entry = &statusEntry{}
	c.entries[name] = entry
	return entry
}
