package backend

import (
	"context"
	"errors"
	"net"
	"time"

	"recipe-parser/internal/pkg/common"
)

// Backend 一種把正規化文字變成結構化食譜的策略
// escalation controller 持有它的有序列表，不認得具體型別
type Backend interface {
	// Name 後端名稱
	Name() common.BackendName

	// TryParse 解析一次 OCR 結果，回傳候選食譜
	// 候選的 Confidence 已經是合成後的最終分數，跨後端可比較
	TryParse(ctx context.Context, ocr *common.OCRResult) (*common.ParsedRecipe, error)

	// CheckAvailable 探測後端目前是否可用
	CheckAvailable(ctx context.Context) bool

	// Timeout 單次呼叫的時間上限，0 表示同步即時（不設逾時）
	Timeout() time.Duration
}

// transientError 標記後端回報的暫態失敗（5xx、429 之類）
type transientError struct{ err error }

func (e *transientError) Error() string { return e.err.Error() }
func (e *transientError) Unwrap() error { return e.err }

// Transient 把錯誤標記為暫態，讓 controller 知道可以重試一次
func Transient(err error) error {
	return &transientError{err: err}
}

// IsTransient 判斷錯誤是否為暫態（逾時、網路、被標記者），值得重試一次
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var te *transientError
	if errors.As(err, &te) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
