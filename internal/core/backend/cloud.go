package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"recipe-parser/internal/infrastructure/config"
	"recipe-parser/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CloudLLMBackend 雲端 LLM 解析後端（OpenRouter chat/completions）
// 升級鏈的最後一棒：最貴、最慢，但對爛 OCR 的容忍度最好
type CloudLLMBackend struct {
	config *config.Config
	client *resty.Client
}

// NewCloudLLMBackend 創建雲端 LLM 後端
func NewCloudLLMBackend(cfg *config.Config) *CloudLLMBackend {
	client := resty.New().
		SetBaseURL("https://openrouter.ai/api/v1").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.CloudLLM.APIKey)).
		SetHeader("HTTP-Referer", "https://recipe-parser.app").
		SetHeader("X-Title", "Recipe Parser")

	return &CloudLLMBackend{
		config: cfg,
		client: client,
	}
}

// Name 後端名稱
func (b *CloudLLMBackend) Name() common.BackendName {
	return common.BackendCloudLLM
}

// Timeout 雲端呼叫的時間上限（十秒級，可配置，容忍網路延遲但絕不無界）
func (b *CloudLLMBackend) Timeout() time.Duration {
	return b.config.CloudLLM.Timeout
}

// TryParse 把正規化文字交給雲端模型做結構化
func (b *CloudLLMBackend) TryParse(ctx context.Context, ocr *common.OCRResult) (*common.ParsedRecipe, error) {
	requestID := common.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	req := map[string]interface{}{
		"model": b.config.CloudLLM.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": buildParsePrompt(ocr.Text, ocr.Language),
			},
		},
		"max_tokens": b.config.CloudLLM.MaxTokens,
	}

	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")

	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		err := fmt.Errorf("OpenRouter API returned status %d: %s", resp.StatusCode(), resp.String())
		if resp.StatusCode() >= http.StatusInternalServerError || resp.StatusCode() == http.StatusTooManyRequests {
			return nil, Transient(err)
		}
		return nil, err
	}

	// 解析回應
	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if len(result.Choices) == 0 {
		return nil, fmt.Errorf("no choices in OpenRouter response")
	}

	recipe, err := decodeCandidate(result.Choices[0].Message.Content, ocr.Confidence)
	if err != nil {
		common.LogWarn("雲端模型回應無法解析",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		// 模型輸出是隨機的，壞回應視為暫態，值得重抽一次
		return nil, Transient(err)
	}

	common.LogDebug("雲端模型解析完成",
		zap.String("request_id", requestID),
		zap.Float64("confidence", recipe.Confidence),
		zap.Int("ingredients", len(recipe.Ingredients)),
		zap.Int("instructions", len(recipe.Instructions)),
	)
	return recipe, nil
}

// CheckAvailable 雲端後端不做探測呼叫（省額度），有啟用且有金鑰就視為可用
// 實際的網路／認證失敗由 TryParse 的重試與升級邏輯吸收
func (b *CloudLLMBackend) CheckAvailable(_ context.Context) bool {
	return b.config.CloudLLM.Enabled && b.config.CloudLLM.APIKey != ""
}
