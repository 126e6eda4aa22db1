package parse

import (
	"regexp"
	"strconv"
	"strings"

	"recipe-parser/internal/pkg/common"
)

// UntitledPlaceholder 找不到標題時的佔位字串，會拉低完整度分數
const UntitledPlaceholder = "Untitled Recipe"

var (
	// 步驟前綴："1. "、"2) "、"Step 3: "
	reStepPrefix = regexp.MustCompile(`(?i)^(\d+[.)]\s*|step\s+\d+[:.]?\s*)`)

	// 食材前導符號
	reIngredientBullet = regexp.MustCompile(`^[-*•·]\s*`)

	// 中繼資料行裡的第一個整數與其後的單位詞
	reFirstNumber = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(hours?|hrs?|hr|h|minutes?|mins?|min|m)?`)

	reMetaPrep     = regexp.MustCompile(`(?i)\bprep(?:aration)?\s*time\b`)
	reMetaCook     = regexp.MustCompile(`(?i)\b(cook(?:ing)?|total)\s*time\b|\bready\s*in\b`)
	reMetaServings = regexp.MustCompile(`(?i)\b(serves|servings|yield|makes)\b`)
)

// AssembleRecipe 把分類後的行組裝成 ParsedRecipe 候選
// 對結構不完整的輸入不回錯誤：一律回傳候選（可能欄位空、信心低），
// 要不要升級後端由 escalation controller 決定
func AssembleRecipe(classified []ClassifiedLine, ocrConfidence float64) *common.ParsedRecipe {
	recipe := &common.ParsedRecipe{
		Ingredients:  []string{},
		Instructions: []string{},
	}

	// 標題：確信度最高的 Title 行
	titleIdx := -1
	for i, cl := range classified {
		if cl.Role != RoleTitle {
			continue
		}
		if titleIdx == -1 || cl.Certainty > classified[titleIdx].Certainty {
			titleIdx = i
		}
	}
	if titleIdx >= 0 {
		recipe.Title = classified[titleIdx].Text
	} else {
		// 退而求其次：第一個非雜訊行，再沒有就佔位字串
		for _, cl := range classified {
			if cl.Role != RoleNoise && cl.Text != "" {
				recipe.Title = cl.Text
				break
			}
		}
		if recipe.Title == "" {
			recipe.Title = UntitledPlaceholder
		}
	}

	firstIngredientIdx := -1
	for i, cl := range classified {
		switch cl.Role {
		case RoleIngredient:
			if firstIngredientIdx == -1 {
				firstIngredientIdx = i
			}
			// 順序保持來源順序，不重排
			recipe.Ingredients = append(recipe.Ingredients, cleanIngredient(cl.Text))
		case RoleInstruction:
			recipe.Instructions = append(recipe.Instructions, cleanInstruction(cl.Text))
		case RoleMetadata:
			applyMetadata(recipe, cl.Text)
		}
	}

	// 描述：第一個食材區塊之前、緊鄰標題或段落標題的散文行
	recipe.Description = pickDescription(classified, titleIdx, firstIngredientIdx)

	recipe.Confidence = Score(ocrConfidence, averageCertainty(classified), Completeness(recipe))
	return recipe
}

// cleanIngredient 去掉前導符號，保留數量與名稱
func cleanIngredient(text string) string {
	return strings.TrimSpace(reIngredientBullet.ReplaceAllString(text, ""))
}

// cleanInstruction 去掉步驟編號前綴，只留動作本身
func cleanInstruction(text string) string {
	return strings.TrimSpace(reStepPrefix.ReplaceAllString(text, ""))
}

// applyMetadata 從中繼資料行取出第一個整數，填入對應欄位
// 單位是小時就乘 60；已填過的欄位不覆寫（第一次出現者優先）
func applyMetadata(recipe *common.ParsedRecipe, text string) {
	minutes, ok := parseMinutes(text)

	switch {
	case reMetaPrep.MatchString(text):
		if ok && recipe.PrepTime == nil {
			recipe.PrepTime = &minutes
		}
	case reMetaCook.MatchString(text):
		if ok && recipe.CookTime == nil {
			recipe.CookTime = &minutes
		}
	case reMetaServings.MatchString(text):
		if n, found := parseFirstInt(text); found && recipe.Servings == nil {
			recipe.Servings = &n
		}
	}
}

// parseMinutes 解析 "30 min"、"45 minutes"、"2 hours" 之類的時間，統一成分鐘
func parseMinutes(text string) (int, bool) {
	m := reFirstNumber.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	unit := strings.ToLower(m[2])
	if strings.HasPrefix(unit, "h") {
		value *= 60
	}
	return int(value), true
}

func parseFirstInt(text string) (int, bool) {
	m := reFirstNumber.FindStringSubmatch(text)
	if m == nil || m[1] == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return int(value), true
}

// pickDescription 在標題之後、第一個食材之前，找緊鄰標題或段落標題的散文行
func pickDescription(classified []ClassifiedLine, titleIdx, firstIngredientIdx int) string {
	end := firstIngredientIdx
	if end == -1 {
		end = len(classified)
	}
	for i := titleIdx + 1; i >= 0 && i < end; i++ {
		cl := classified[i]
		if cl.Role == RoleNoise && cl.Text == "" {
			continue
		}
		// 只接受低確信度的散文行（規則都沒命中的那種）
		if cl.Role != RoleTitle && cl.Role != RoleSectionHeader && cl.Role != RoleMetadata && cl.Certainty <= certFallback {
			if prevIsAnchor(classified, i) {
				return cl.Text
			}
		}
	}
	return ""
}

// prevIsAnchor 檢查前一個非空行是不是標題或段落標題
func prevIsAnchor(classified []ClassifiedLine, idx int) bool {
	for j := idx - 1; j >= 0; j-- {
		if classified[j].Text == "" {
			continue
		}
		return classified[j].Role == RoleTitle || classified[j].Role == RoleSectionHeader
	}
	return false
}

// averageCertainty 非雜訊行的平均分類確信度
func averageCertainty(classified []ClassifiedLine) float64 {
	sum, n := 0.0, 0
	for _, cl := range classified {
		if cl.Role == RoleNoise {
			continue
		}
		sum += cl.Certainty
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
