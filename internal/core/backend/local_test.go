package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	common.Logger = zap.NewNop()
	os.Exit(m.Run())
}

func localConfig(baseURL string) *config.Config {
	return &config.Config{
		LocalLLM: config.LocalLLMConfig{
			Enabled: true,
			BaseURL: baseURL,
			Model:   "qwen2.5:7b-instruct",
			Timeout: 2 * time.Second,
		},
	}
}

func TestLocalLLMTryParse(t *testing.T) {
	recipeJSON := `{"title": "Toast", "ingredients": ["2 slices bread"], "instructions": ["Toast it"], "confidence": 0.85}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Stream {
			t.Error("stream should be disabled")
		}
		if req.Format != "json" {
			t.Errorf("format = %q, want json", req.Format)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateResponse{Response: recipeJSON, Done: true})
	}))
	defer server.Close()

	b := NewLocalLLMBackend(localConfig(server.URL))
	recipe, err := b.TryParse(context.Background(), &common.OCRResult{Text: "toast text", Confidence: 0.9})
	if err != nil {
		t.Fatalf("TryParse() error: %v", err)
	}
	if recipe.Title != "Toast" {
		t.Errorf("Title = %q", recipe.Title)
	}
	if recipe.Confidence <= 0 {
		t.Errorf("Confidence = %v, want composite score > 0", recipe.Confidence)
	}
}

func TestLocalLLMDoesNotLogBackendCall(t *testing.T) {
	// 後端呼叫的成敗紀錄由升級控制器統一輸出，
	// 後端自己再記一筆就會出現同一次呼叫兩個 request_id
	core, logs := observer.New(zap.DebugLevel)
	prev := common.Logger
	common.Logger = zap.New(core)
	defer func() { common.Logger = prev }()

	recipeJSON := `{"title": "Toast", "ingredients": ["2 slices bread"], "instructions": ["Toast it"], "confidence": 0.85}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateResponse{Response: recipeJSON, Done: true})
	}))
	defer server.Close()

	b := NewLocalLLMBackend(localConfig(server.URL))
	ctx := common.WithRequestID(context.Background(), "req-123")
	if _, err := b.TryParse(ctx, &common.OCRResult{Text: "toast text", Confidence: 0.9}); err != nil {
		t.Fatalf("TryParse() error: %v", err)
	}

	for _, entry := range logs.All() {
		if entry.Message == "後端解析成功" || entry.Message == "後端解析失敗" {
			t.Errorf("backend logged call record itself: %q", entry.Message)
		}
		for _, f := range entry.Context {
			if f.Key == "request_id" && f.String != "req-123" {
				t.Errorf("request_id = %q, want id from context", f.String)
			}
		}
	}
}

func TestLocalLLMServerErrorIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusInternalServerError)
	}))
	defer server.Close()

	b := NewLocalLLMBackend(localConfig(server.URL))
	_, err := b.TryParse(context.Background(), &common.OCRResult{Text: "text", Confidence: 0.9})
	if err == nil {
		t.Fatal("TryParse() succeeded against 500")
	}
	if !IsTransient(err) {
		t.Errorf("500 error not marked transient: %v", err)
	}
}

func TestLocalLLMMalformedResponseIsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(generateResponse{Response: "Sorry, I can't find a recipe here.", Done: true})
	}))
	defer server.Close()

	b := NewLocalLLMBackend(localConfig(server.URL))
	_, err := b.TryParse(context.Background(), &common.OCRResult{Text: "text", Confidence: 0.9})
	if err == nil {
		t.Fatal("TryParse() accepted prose response")
	}
	// 模型輸出有隨機性：壞回應要能觸發那一次重試
	if !IsTransient(err) {
		t.Errorf("malformed response not marked transient: %v", err)
	}
}

func TestLocalLLMBadRequestIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown model", http.StatusBadRequest)
	}))
	defer server.Close()

	b := NewLocalLLMBackend(localConfig(server.URL))
	_, err := b.TryParse(context.Background(), &common.OCRResult{Text: "text", Confidence: 0.9})
	if err == nil {
		t.Fatal("TryParse() succeeded against 400")
	}
	if IsTransient(err) {
		t.Errorf("400 error marked transient: %v", err)
	}
}

func TestLocalLLMCheckAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			t.Errorf("unexpected probe path %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	b := NewLocalLLMBackend(localConfig(server.URL))
	if !b.CheckAvailable(context.Background()) {
		t.Error("CheckAvailable() = false for healthy server")
	}

	server.Close()
	if b.CheckAvailable(context.Background()) {
		t.Error("CheckAvailable() = true for closed server")
	}
}

func TestLocalLLMDisabled(t *testing.T) {
	cfg := localConfig("http://localhost:1")
	cfg.LocalLLM.Enabled = false

	b := NewLocalLLMBackend(cfg)
	if b.CheckAvailable(context.Background()) {
		t.Error("CheckAvailable() = true for disabled backend")
	}
}

func TestHeuristicBackendAlwaysAvailable(t *testing.T) {
	b := NewHeuristicBackend()
	if !b.CheckAvailable(context.Background()) {
		t.Error("heuristic backend must always be available")
	}
	if b.Timeout() != 0 {
		t.Errorf("Timeout() = %v, want 0", b.Timeout())
	}

	recipe, err := b.TryParse(context.Background(), &common.OCRResult{
		Text:       "Pancakes\nIngredients\n2 cups flour\nDirections\n1. Mix.",
		Confidence: 0.9,
	})
	if err != nil {
		t.Fatalf("TryParse() error: %v", err)
	}
	if recipe.Title != "Pancakes" {
		t.Errorf("Title = %q", recipe.Title)
	}
}
