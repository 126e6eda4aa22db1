package common

import "strings"

// BackendName 解析後端名稱
type BackendName string

const (
	BackendHeuristic BackendName = "heuristic"
	BackendLocalLLM  BackendName = "local_llm"
	BackendCloudLLM  BackendName = "cloud_llm"
)

// BoundingBox 文字區塊的外框座標
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// TextBlock OCR 偵測到的單一文字區塊
// 序列順序對應 OCR 的由上而下、由左至右偵測順序
type TextBlock struct {
	Text        string      `json:"text"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// OCRResult OCR 引擎的輸出（外部協作者提供）
// Text 可能為空字串（OCR 完全失敗時），但不會是 null
type OCRResult struct {
	Text       string      `json:"text"`
	Confidence float64     `json:"confidence"`
	Language   string      `json:"language,omitempty"`
	Blocks     []TextBlock `json:"blocks,omitempty"`
}

// IsEmpty 判斷 OCR 結果是否沒有任何可解析文字
func (r *OCRResult) IsEmpty() bool {
	return strings.TrimSpace(r.Text) == ""
}

// ParsedRecipe 結構化食譜（單次解析的輸出，回傳後不可變）
// Ingredients 與 Instructions 的順序有意義：前者為食譜顯示順序，
// 後者為執行順序
type ParsedRecipe struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepTime     *int     `json:"prep_time,omitempty"` // 分鐘
	CookTime     *int     `json:"cook_time,omitempty"` // 分鐘
	Servings     *int     `json:"servings,omitempty"`
	Confidence   float64  `json:"confidence"`
}

// ValidationResult 食譜驗證結果
// Errors 為阻斷性問題，Warnings 與 Suggestions 不阻斷
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Errors      []string `json:"errors"`
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// ParseOutcome 單次解析流程的完整輸出（交給 UI/儲存層）
type ParseOutcome struct {
	Recipe        *ParsedRecipe     `json:"parsed_recipe"`
	Validation    *ValidationResult `json:"validation"`
	Confidence    float64           `json:"confidence"`
	BackendUsed   BackendName       `json:"backend_used"`
	LowConfidence bool              `json:"low_confidence"`
}
