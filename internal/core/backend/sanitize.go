package backend

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"recipe-parser/internal/core/parse"
	"recipe-parser/internal/pkg/common"
)

// llmRecipe 模型回應的中間結構
type llmRecipe struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Ingredients  []string `json:"ingredients"`
	Instructions []string `json:"instructions"`
	PrepTime     *int     `json:"prep_time,omitempty"`
	CookTime     *int     `json:"cook_time,omitempty"`
	Servings     *int     `json:"servings,omitempty"`
	Confidence   float64  `json:"confidence,omitempty"`
}

// decodeCandidate 把 LLM 的文字回應修復、驗證、轉成 ParsedRecipe
// 模型輸出常見毛病：夾帶 ```json 標記、鍵沒加引號、數字用字串、optional 塞 null
// 先寬鬆修復再跑 schema 驗證；schema 過不了就是 malformed response
func decodeCandidate(content string, ocrConfidence float64) (*common.ParsedRecipe, error) {
	text := common.ExtractJSONObject(content)
	text = common.QuoteJSONKeys(text)

	cleaned, err := sanitizeRecipeJSON([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("sanitize llm response: %w", err)
	}

	if err := validateAgainstSchema(buildRecipeJSONSchema(), cleaned); err != nil {
		return nil, fmt.Errorf("malformed llm response: %w", err)
	}

	var out llmRecipe
	if err := common.ParseJSONBytes(cleaned, &out); err != nil {
		return nil, fmt.Errorf("unmarshal llm response: %w", err)
	}

	recipe := &common.ParsedRecipe{
		Title:        strings.TrimSpace(out.Title),
		Description:  strings.TrimSpace(out.Description),
		Ingredients:  out.Ingredients,
		Instructions: out.Instructions,
		PrepTime:     out.PrepTime,
		CookTime:     out.CookTime,
		Servings:     out.Servings,
	}
	if recipe.Ingredients == nil {
		recipe.Ingredients = []string{}
	}
	if recipe.Instructions == nil {
		recipe.Instructions = []string{}
	}

	// 跨後端可比較的最終分數：模型自評當作分類確信度餵進同一個 scorer
	modelConfidence := common.ClampUnit(out.Confidence)
	recipe.Confidence = parse.Score(ocrConfidence, modelConfidence, parse.Completeness(recipe))
	return recipe, nil
}

// sanitizeRecipeJSON 寬鬆修復模型輸出
// - null / 空字串的 optional 欄位直接拿掉
// - 數字字串轉整數（"30" → 30）、浮點數取整
// - 陣列裡的空項目與非字串項目剔除
// - schema 以外的鍵移除（additionalProperties = false 才過得了）
func sanitizeRecipeJSON(raw []byte) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	// 整數欄位的強制轉型
	intFields := []string{"prep_time", "cook_time", "servings"}
	for _, k := range intFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil:
			delete(m, k)
		case float64:
			m[k] = int(t)
		case string:
			s := strings.TrimSpace(t)
			if n, err := strconv.ParseFloat(s, 64); err == nil {
				m[k] = int(n)
			} else {
				delete(m, k)
			}
		default:
			delete(m, k)
		}
		// schema 會拒絕負的時間與非正的份數，這類值直接拿掉
		if n, ok := m[k].(int); ok {
			if n < 0 || (k == "servings" && n < 1) {
				delete(m, k)
			}
		}
	}

	// confidence 接受字串形式，超界交給 ClampUnit
	if v, ok := m["confidence"]; ok {
		switch t := v.(type) {
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				m["confidence"] = common.ClampUnit(f)
			} else {
				delete(m, "confidence")
			}
		case float64:
			m["confidence"] = common.ClampUnit(t)
		case nil:
			delete(m, "confidence")
		}
	}

	// 字串欄位去空白，空了就刪
	for _, k := range []string{"title", "description"} {
		if v, ok := m[k].(string); ok {
			s := strings.TrimSpace(v)
			if s == "" {
				delete(m, k)
			} else {
				m[k] = s
			}
		} else if _, exists := m[k]; exists {
			if _, isStr := m[k].(string); !isStr {
				delete(m, k)
			}
		}
	}

	// 字串陣列清理
	for _, k := range []string{"ingredients", "instructions"} {
		arr, ok := m[k].([]any)
		if !ok {
			continue
		}
		items := make([]string, 0, len(arr))
		for _, item := range arr {
			if s, ok := item.(string); ok {
				if t := strings.TrimSpace(s); t != "" {
					items = append(items, t)
				}
			}
		}
		m[k] = items
	}

	// 未知鍵移除
	allowed := map[string]struct{}{
		"title": {}, "description": {}, "ingredients": {}, "instructions": {},
		"prep_time": {}, "cook_time": {}, "servings": {}, "confidence": {},
	}
	for k := range m {
		if _, ok := allowed[k]; !ok {
			delete(m, k)
		}
	}

	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return out, nil
}
