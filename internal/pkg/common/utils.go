package common

import (
	"context"

	"github.com/google/uuid"
)

// GenerateUUID 生成 UUID
func GenerateUUID() string {
	return uuid.New().String()
}

type contextKey string

const requestIDKey contextKey = "request_id"

// WithRequestID 將請求 ID 放入 context，供核心層記錄日誌
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext 從 context 取出請求 ID，取不到時回傳空字串
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ClampUnit 將數值限制在 [0,1] 區間
// 信心分數一律經過這裡，確保任何權重組合都不會越界
func ClampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
