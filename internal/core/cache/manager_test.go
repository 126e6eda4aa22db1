package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func memoryConfig(maxSize int, ttl time.Duration) *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{
			Enabled:         true,
			MaxSize:         maxSize,
			TTL:             ttl,
			CleanupInterval: time.Hour,
		},
	}
}

func TestManagerSetGet(t *testing.T) {
	m := NewManager(memoryConfig(10, time.Hour))
	defer m.Close()

	ctx := context.Background()
	if err := m.Set(ctx, "k1", `{"confidence":0.8}`); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	val, ok := m.Get(ctx, "k1")
	if !ok {
		t.Fatal("Get() miss for freshly set key")
	}
	if val != `{"confidence":0.8}` {
		t.Errorf("Get() = %q", val)
	}

	if _, ok := m.Get(ctx, "missing"); ok {
		t.Error("Get() hit for absent key")
	}
}

func TestManagerExpiry(t *testing.T) {
	m := NewManager(memoryConfig(10, 10*time.Millisecond))
	defer m.Close()

	ctx := context.Background()
	if err := m.Set(ctx, "k1", "v"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}

	time.Sleep(20 * time.Millisecond)
	if _, ok := m.Get(ctx, "k1"); ok {
		t.Error("Get() hit for expired key")
	}
}

func TestManagerEvictsLRUWhenFull(t *testing.T) {
	m := NewManager(memoryConfig(2, time.Hour))
	defer m.Close()

	ctx := context.Background()
	_ = m.Set(ctx, "old", "1")
	_ = m.Set(ctx, "hot", "2")

	// 讓 "hot" 的使用次數高於 "old"
	m.Get(ctx, "hot")
	m.Get(ctx, "hot")

	if err := m.Set(ctx, "new", "3"); err != nil {
		t.Fatalf("Set() error after eviction: %v", err)
	}

	if _, ok := m.Get(ctx, "old"); ok {
		t.Error("least-used entry survived eviction")
	}
	if _, ok := m.Get(ctx, "hot"); !ok {
		t.Error("frequently used entry evicted")
	}
}

func TestManagerDisabled(t *testing.T) {
	cfg := memoryConfig(10, time.Hour)
	cfg.Cache.Enabled = false

	m := NewManager(cfg)
	if m != nil {
		t.Fatal("NewManager() non-nil for disabled cache")
	}

	// nil manager 的操作必須是安全的 no-op
	ctx := context.Background()
	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Errorf("nil manager Set() error: %v", err)
	}
	if _, ok := m.Get(ctx, "k"); ok {
		t.Error("nil manager Get() returned a hit")
	}
	if err := m.Close(); err != nil {
		t.Errorf("nil manager Close() error: %v", err)
	}
}

func TestManagerStats(t *testing.T) {
	m := NewManager(memoryConfig(10, time.Hour))
	defer m.Close()

	ctx := context.Background()
	_ = m.Set(ctx, "k1", "v")
	m.Get(ctx, "k1")
	m.Get(ctx, "nope")

	stats := m.GetStats()
	if stats["hits"].(int64) != 1 || stats["misses"].(int64) != 1 {
		t.Errorf("stats = %v", stats)
	}
	if stats["size"].(int) != 1 {
		t.Errorf("size = %v, want 1", stats["size"])
	}
}

func TestKeyDeterministic(t *testing.T) {
	a := Key("Chocolate Cake\n2 cups flour")
	b := Key("Chocolate Cake\n2 cups flour")
	c := Key("different text")

	if a != b {
		t.Error("Key() not deterministic")
	}
	if a == c {
		t.Error("Key() collision for different inputs")
	}
	if len(a) != 64 {
		t.Errorf("Key() length = %d, want 64 hex chars", len(a))
	}
}
