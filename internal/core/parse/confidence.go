package parse

import (
	"recipe-parser/internal/pkg/common"
)

// 信心分數的固定權重
// 刻意不做成可調參數：所有後端、所有時間點的分數要能互相比較
const (
	weightOCR            = 0.3
	weightClassification = 0.4
	weightCompleteness   = 0.3
)

// Score 合成最終信心分數：OCR 信心、分類確信度、結構完整度的加權和
// 輸入各自先夾到 [0,1]，輸出保證落在 [0,1]
func Score(ocrConfidence, classificationCertainty, completeness float64) float64 {
	ocr := common.ClampUnit(ocrConfidence)
	cls := common.ClampUnit(classificationCertainty)
	cmp := common.ClampUnit(completeness)
	return common.ClampUnit(weightOCR*ocr + weightClassification*cls + weightCompleteness*cmp)
}

// Completeness 計算必要欄位的齊備比例：標題、至少一項食材、至少一個步驟
func Completeness(r *common.ParsedRecipe) float64 {
	populated := 0
	if r.Title != "" && r.Title != UntitledPlaceholder {
		populated++
	}
	if len(r.Ingredients) > 0 {
		populated++
	}
	if len(r.Instructions) > 0 {
		populated++
	}
	return float64(populated) / 3.0
}
