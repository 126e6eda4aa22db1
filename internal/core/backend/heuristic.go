package backend

import (
	"context"
	"time"

	"recipe-parser/internal/core/parse"
	"recipe-parser/internal/pkg/common"
)

// HeuristicBackend 本地規則解析後端：正規化 → 逐行分類 → 組裝
// 同步、即時、永遠可用，永遠是升級鏈的第一棒
type HeuristicBackend struct{}

// NewHeuristicBackend 創建規則解析後端
func NewHeuristicBackend() *HeuristicBackend {
	return &HeuristicBackend{}
}

// Name 後端名稱
func (b *HeuristicBackend) Name() common.BackendName {
	return common.BackendHeuristic
}

// TryParse 跑完整的規則解析管線
// 契約上不會對結構不完整的輸入回錯誤，只會給低信心候選
func (b *HeuristicBackend) TryParse(_ context.Context, ocr *common.OCRResult) (*common.ParsedRecipe, error) {
	normalized := parse.Normalize(ocr.Text)
	lines := parse.SplitLines(normalized)
	classified := parse.Classify(lines, ocr.Blocks)
	return parse.AssembleRecipe(classified, ocr.Confidence), nil
}

// CheckAvailable 規則後端沒有外部依賴，永遠可用
func (b *HeuristicBackend) CheckAvailable(_ context.Context) bool {
	return true
}

// Timeout 同步執行，不需要逾時
func (b *HeuristicBackend) Timeout() time.Duration {
	return 0
}
