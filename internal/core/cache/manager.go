package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
)

// Manager 解析結果緩存管理器
// 鍵是正規化文字的雜湊：同一張照片重拍、同一段文字重送都直接命中，
// 不會再打一次 LLM 後端
// 有 Redis 就走 Redis，否則用行程內的 TTL+LRU map
type Manager struct {
	config *config.Config
	redis  *Service
	mu     sync.RWMutex
	store  map[string]cacheEntry
	stats  cacheStats
	done   chan struct{}
}

// cacheEntry 緩存條目
type cacheEntry struct {
	value       string
	expiresAt   time.Time
	lastAccess  time.Time
	accessCount int
}

// cacheStats 緩存統計
type cacheStats struct {
	hits      int64
	misses    int64
	evictions int64
	errors    int64
}

// NewManager 創建新的緩存管理器
func NewManager(cfg *config.Config) *Manager {
	if !cfg.Cache.Enabled {
		common.LogInfo("Cache disabled")
		return nil
	}

	m := &Manager{
		config: cfg,
		store:  make(map[string]cacheEntry),
		done:   make(chan struct{}),
	}

	if cfg.Cache.RedisAddr != "" {
		svc, err := NewService(&cfg.Cache)
		if err != nil {
			common.LogWarn("Redis 緩存初始化失敗，退回記憶體緩存", zap.Error(err))
		} else {
			m.redis = svc
		}
	}

	// 啟動清理過期緩存的協程
	go m.startCleanup()

	common.LogInfo("快取管理員已初始化",
		zap.Int("最大容量", cfg.Cache.MaxSize),
		zap.Duration("存活時間", cfg.Cache.TTL),
		zap.Duration("清理間隔", cfg.Cache.CleanupInterval),
		zap.Bool("redis", m.redis != nil),
	)

	return m
}

// Key 計算緩存鍵：正規化文字的 SHA-256
func Key(normalizedText string) string {
	hash := sha256.Sum256([]byte(normalizedText))
	return hex.EncodeToString(hash[:])
}

// Get 獲取緩存的解析結果（序列化後的 JSON 字串）
func (m *Manager) Get(ctx context.Context, key string) (string, bool) {
	if m == nil || !m.config.Cache.Enabled {
		return "", false
	}

	if m.redis != nil {
		val, err := m.redis.Get(ctx, key)
		if err == nil && val != "" {
			common.LogCacheHit("redis", key)
			return val, true
		}
		common.LogCacheMiss("redis", key)
		return "", false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.store[key]
	if !exists {
		m.stats.misses++
		common.LogCacheMiss("memory", key)
		return "", false
	}

	// 過期條目當場淘汰
	if time.Now().After(entry.expiresAt) {
		delete(m.store, key)
		m.stats.evictions++
		m.stats.misses++
		common.LogCacheMiss("memory", key)
		return "", false
	}

	entry.lastAccess = time.Now()
	entry.accessCount++
	m.store[key] = entry
	m.stats.hits++
	common.LogCacheHit("memory", key)
	return entry.value, true
}

// Set 寫入解析結果
func (m *Manager) Set(ctx context.Context, key, value string) error {
	if m == nil || !m.config.Cache.Enabled {
		return nil
	}

	if m.redis != nil {
		return m.redis.Set(ctx, key, value)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// 容量不足先清過期，再不行就 LRU
	if len(m.store) >= m.config.Cache.MaxSize {
		evicted := m.cleanupLocked()
		common.LogInfo("快取清理執行",
			zap.Int("清理數量", evicted),
		)
		if len(m.store) >= m.config.Cache.MaxSize {
			m.evictLRULocked()
		}
		if len(m.store) >= m.config.Cache.MaxSize {
			m.stats.errors++
			common.LogWarn("快取已滿",
				zap.Int("目前容量", len(m.store)),
			)
			return common.ErrCacheFull
		}
	}

	now := time.Now()
	m.store[key] = cacheEntry{
		value:      value,
		expiresAt:  now.Add(m.config.Cache.TTL),
		lastAccess: now,
	}
	return nil
}

// startCleanup 啟動清理過期緩存的協程
func (m *Manager) startCleanup() {
	ticker := time.NewTicker(m.config.Cache.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.mu.Lock()
			m.cleanupLocked()
			m.mu.Unlock()
		case <-m.done:
			return
		}
	}
}

// cleanupLocked 清理過期條目，呼叫方需持有鎖
func (m *Manager) cleanupLocked() int {
	now := time.Now()
	count := 0
	for key, entry := range m.store {
		if now.After(entry.expiresAt) {
			delete(m.store, key)
			count++
			m.stats.evictions++
		}
	}
	return count
}

// evictLRULocked 淘汰最少使用的條目，呼叫方需持有鎖
func (m *Manager) evictLRULocked() {
	var oldestKey string
	var oldestAccess time.Time
	var lowestAccessCount int

	for key, entry := range m.store {
		if oldestKey == "" ||
			entry.accessCount < lowestAccessCount ||
			(entry.accessCount == lowestAccessCount && entry.lastAccess.Before(oldestAccess)) {
			oldestKey = key
			oldestAccess = entry.lastAccess
			lowestAccessCount = entry.accessCount
		}
	}

	if oldestKey != "" {
		delete(m.store, oldestKey)
		m.stats.evictions++
		common.LogInfo("快取已淘汰(LRU)",
			zap.String("鍵", oldestKey),
		)
	}
}

// GetStats 獲取緩存統計信息
func (m *Manager) GetStats() map[string]interface{} {
	if m == nil {
		return map[string]interface{}{"enabled": false}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	total := m.stats.hits + m.stats.misses
	hitRatio := 0.0
	if total > 0 {
		hitRatio = float64(m.stats.hits) / float64(total)
	}
	return map[string]interface{}{
		"enabled":   true,
		"redis":     m.redis != nil,
		"size":      len(m.store),
		"max_size":  m.config.Cache.MaxSize,
		"hits":      m.stats.hits,
		"misses":    m.stats.misses,
		"evictions": m.stats.evictions,
		"errors":    m.stats.errors,
		"hit_ratio": hitRatio,
	}
}

// Close 關閉緩存管理器
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	close(m.done)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]cacheEntry)

	common.LogInfo("快取管理員已關閉",
		zap.Int64("命中次數", m.stats.hits),
		zap.Int64("未命中次數", m.stats.misses),
		zap.Int64("淘汰次數", m.stats.evictions),
	)

	if m.redis != nil {
		return m.redis.Close()
	}
	return nil
}
