package backend

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 可用性探測的時間上限，遠小於推理逾時
const localProbeTimeout = 2 * time.Second

// LocalLLMBackend 本地 LLM 解析後端（Ollama 相容 API）
type LocalLLMBackend struct {
	config *config.Config
	client *resty.Client
}

// NewLocalLLMBackend 創建本地 LLM 後端
func NewLocalLLMBackend(cfg *config.Config) *LocalLLMBackend {
	client := resty.New().
		SetBaseURL(cfg.LocalLLM.BaseURL).
		SetHeader("Content-Type", "application/json")

	return &LocalLLMBackend{
		config: cfg,
		client: client,
	}
}

// Name 後端名稱
func (b *LocalLLMBackend) Name() common.BackendName {
	return common.BackendLocalLLM
}

// Timeout 本地推理的時間上限（秒級，可配置）
func (b *LocalLLMBackend) Timeout() time.Duration {
	return b.config.LocalLLM.Timeout
}

// generateRequest Ollama /api/generate 請求
type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format string `json:"format,omitempty"`
}

// generateResponse Ollama /api/generate 回應
type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// TryParse 把正規化文字交給本地模型做結構化
func (b *LocalLLMBackend) TryParse(ctx context.Context, ocr *common.OCRResult) (*common.ParsedRecipe, error) {
	requestID := common.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	prompt := buildParsePrompt(ocr.Text, ocr.Language)

	var result generateResponse
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(&generateRequest{
			Model:  b.config.LocalLLM.Model,
			Prompt: prompt,
			Stream: false,
			Format: "json",
		}).
		SetResult(&result).
		Post("/api/generate")

	if err != nil {
		return nil, fmt.Errorf("local llm request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		err := fmt.Errorf("local llm returned status %d: %s", resp.StatusCode(), resp.String())
		if resp.StatusCode() >= http.StatusInternalServerError {
			return nil, Transient(err)
		}
		return nil, err
	}
	if result.Response == "" {
		return nil, fmt.Errorf("empty local llm response")
	}

	recipe, err := decodeCandidate(result.Response, ocr.Confidence)
	if err != nil {
		common.LogWarn("本地模型回應無法解析",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		// 模型輸出是隨機的，壞回應視為暫態，值得重抽一次
		return nil, Transient(err)
	}

	common.LogDebug("本地模型解析完成",
		zap.String("request_id", requestID),
		zap.Float64("confidence", recipe.Confidence),
		zap.Int("ingredients", len(recipe.Ingredients)),
		zap.Int("instructions", len(recipe.Instructions)),
	)
	return recipe, nil
}

// CheckAvailable 探測本地模型服務是否在線（/api/tags 輕量端點）
func (b *LocalLLMBackend) CheckAvailable(ctx context.Context) bool {
	if !b.config.LocalLLM.Enabled {
		return false
	}

	probeCtx, cancel := context.WithTimeout(ctx, localProbeTimeout)
	defer cancel()

	resp, err := b.client.R().
		SetContext(probeCtx).
		Get("/api/tags")
	if err != nil {
		common.LogDebug("本地模型探測失敗", zap.Error(err))
		return false
	}
	return resp.StatusCode() == http.StatusOK
}
