package parse

import (
	"regexp"
	"sort"
	"strings"

	"recipe-parser/internal/pkg/common"
)

// 分類規則的基礎確信度
// 這些數值是可調參數，不是固定契約
const (
	certTitleBase       = 0.7
	certTitleFirstBoost = 0.2
	certSectionHeader   = 0.9
	certPatternOnly     = 0.6
	certPatternSection  = 0.8
	certMetadata        = 0.85
	certNoise           = 0.9
	certFallback        = 0.3

	// 區塊高度超過中位數多少倍視為標題字級
	titleHeightRatio = 1.5
)

var (
	// 數量開頭：整數、分數、範圍（"2"、"1/2"、"2-3"、"1 1/2"），含 unicode 分數字元
	reQuantityLead = regexp.MustCompile(`^([0-9]+([./][0-9]+)?(-[0-9]+([./][0-9]+)?)?|[¼½¾⅓⅔⅛⅜⅝⅞])(\s|$)`)

	// 步驟開頭："1."、"2)"、"Step 3"、"First,"
	reStepLead    = regexp.MustCompile(`(?i)^(\d+[.)]\s|step\s+\d+\b|first\s*,|second\s*,|third\s*,|then\s|next\s*,|finally\s*,)`)
	reBulletLead  = regexp.MustCompile(`^[-*•·]\s`)
	reNumericLead = regexp.MustCompile(`^\d`)

	// 中繼資料："prep time: 30 min"、"serves 4"、"yield: 12"
	reMetadata = regexp.MustCompile(`(?i)\b(prep(?:aration)?\s*time|cook(?:ing)?\s*time|total\s*time|ready\s*in|serves|servings|yield|makes)\b[^0-9]*[0-9]`)

	// 雜訊：純標點、頁碼
	rePunctOnly  = regexp.MustCompile(`^[\s\p{P}\p{S}]*$`)
	rePageNumber = regexp.MustCompile(`(?i)^(page\s*)?\d{1,4}$`)
)

// 段落標題詞庫（不分大小寫）
var headerLexicon = map[string]sectionKind{
	"ingredients":  sectionIngredients,
	"ingredient":   sectionIngredients,
	"directions":   sectionInstructions,
	"instructions": sectionInstructions,
	"method":       sectionInstructions,
	"steps":        sectionInstructions,
	"preparation":  sectionInstructions,
	"notes":        sectionOther,
}

// Classify 依序為每一行指派語意角色
// lines 是正規化後依行切開的文字；blocks 若與行數 1:1 對齊則提供位置信息
// 規則依序套用，先命中者先贏；同時命中多條規則時由段落上下文裁決
func Classify(lines []string, blocks []common.TextBlock) []ClassifiedLine {
	result := make([]ClassifiedLine, 0, len(lines))

	blocksAligned := len(blocks) > 0 && len(blocks) == len(lines)
	medianHeight := 0.0
	if blocksAligned {
		medianHeight = medianBlockHeight(blocks)
	}

	// 重複短行（跨頁頁眉之類）先數好
	repeats := countRepeats(lines)

	section := sectionNone
	titleSeen := false
	firstContent := firstNonEmptyIndex(lines)

	for i, line := range lines {
		text := strings.TrimSpace(line)

		cl := ClassifiedLine{Text: text}
		if blocksAligned {
			idx := i
			cl.SourceBlockIndex = &idx
		}

		// 雜訊：空行同時是段落邊界，結束食材段落的位置窗口
		// （步驟段落不重設：步驟常以空行分段）
		if text == "" {
			if section == sectionIngredients {
				section = sectionNone
			}
			cl.Role = RoleNoise
			cl.Certainty = certNoise
			result = append(result, cl)
			continue
		}
		if rePunctOnly.MatchString(text) || rePageNumber.MatchString(text) || isRepeatedArtifact(text, repeats) {
			cl.Role = RoleNoise
			cl.Certainty = certNoise
			result = append(result, cl)
			continue
		}

		// 標題：第一個非空行，或區塊高度明顯大於中位數
		if !titleSeen {
			tall := blocksAligned && medianHeight > 0 &&
				blocks[i].BoundingBox.Height > medianHeight*titleHeightRatio
			if i == firstContent || tall {
				cl.Role = RoleTitle
				cl.Certainty = certTitleBase
				if i == firstContent {
					cl.Certainty += certTitleFirstBoost
				}
				titleSeen = true
				result = append(result, cl)
				continue
			}
		}

		// 段落標題：短行、無前導符號、命中詞庫
		if kind, ok := matchHeader(text); ok {
			cl.Role = RoleSectionHeader
			cl.Certainty = certSectionHeader
			section = kind
			result = append(result, cl)
			continue
		}

		// 中繼資料："prep time"、"serves" 等字樣後接數字
		// 先於食材規則檢查會搶走 "2 servings" 這種行，所以照規則順序放在後面，
		// 但純文字開頭的中繼行不會被食材規則吃掉
		ingredientPattern := matchIngredientPattern(text)
		stepPattern := reStepLead.MatchString(text)

		// 食材與步驟的 pattern 同時命中時由段落上下文裁決
		if ingredientPattern && stepPattern {
			switch section {
			case sectionInstructions:
				ingredientPattern = false
			case sectionIngredients:
				stepPattern = false
			}
			// 無上下文時規則順序裁決：食材優先
		}

		// 食材段落裡的編號清單（"2. diced onions"）視為食材
		if stepPattern && !ingredientPattern &&
			section == sectionIngredients && reNumericLead.MatchString(text) {
			stepPattern = false
			ingredientPattern = true
		}

		if ingredientPattern {
			cl.Role = RoleIngredient
			cl.Certainty = certPatternOnly
			if section == sectionIngredients {
				cl.Certainty = certPatternSection
			}
			result = append(result, cl)
			continue
		}

		if stepPattern {
			cl.Role = RoleInstruction
			cl.Certainty = certPatternOnly
			if section == sectionInstructions {
				cl.Certainty = certPatternSection
			}
			result = append(result, cl)
			continue
		}

		if reMetadata.MatchString(text) {
			cl.Role = RoleMetadata
			cl.Certainty = certMetadata
			result = append(result, cl)
			continue
		}

		// 沒有規則命中：依已建立的段落上下文給預設角色
		switch section {
		case sectionIngredients:
			cl.Role = RoleIngredient
			cl.Certainty = certFallback
		case sectionInstructions:
			cl.Role = RoleInstruction
			cl.Certainty = certFallback
		default:
			cl.Role = RoleNoise
			cl.Certainty = certFallback
		}
		result = append(result, cl)
	}

	return result
}

// matchIngredientPattern 判斷是否符合 [數量] [單位]? [名稱] 形式
func matchIngredientPattern(text string) bool {
	if reBulletLead.MatchString(text) {
		// 去掉前導符號後再比對數量
		text = reBulletLead.ReplaceAllString(text, "")
	}
	return reQuantityLead.MatchString(text)
}

// matchHeader 比對段落標題詞庫：四個詞以內、無前導符號或編號
func matchHeader(text string) (sectionKind, bool) {
	if reBulletLead.MatchString(text) || reNumericLead.MatchString(text) {
		return sectionNone, false
	}
	trimmed := strings.TrimRight(text, ":：")
	words := strings.Fields(trimmed)
	if len(words) == 0 || len(words) > 4 {
		return sectionNone, false
	}
	for _, w := range words {
		if kind, ok := headerLexicon[strings.ToLower(strings.Trim(w, ":："))]; ok {
			return kind, true
		}
	}
	return sectionNone, false
}

// firstNonEmptyIndex 回傳第一個非空、非明顯雜訊的行
func firstNonEmptyIndex(lines []string) int {
	for i, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" || rePunctOnly.MatchString(t) || rePageNumber.MatchString(t) {
			continue
		}
		return i
	}
	return -1
}

func medianBlockHeight(blocks []common.TextBlock) float64 {
	heights := make([]float64, 0, len(blocks))
	for _, b := range blocks {
		if b.BoundingBox.Height > 0 {
			heights = append(heights, b.BoundingBox.Height)
		}
	}
	if len(heights) == 0 {
		return 0
	}
	sort.Float64s(heights)
	mid := len(heights) / 2
	if len(heights)%2 == 1 {
		return heights[mid]
	}
	return (heights[mid-1] + heights[mid]) / 2
}

// countRepeats 統計每個短行出現的次數，用於偵測跨頁重複頁眉
func countRepeats(lines []string) map[string]int {
	counts := make(map[string]int)
	for _, l := range lines {
		t := strings.TrimSpace(l)
		if t == "" || len(strings.Fields(t)) > 4 {
			continue
		}
		counts[strings.ToLower(t)]++
	}
	return counts
}

func isRepeatedArtifact(text string, repeats map[string]int) bool {
	return repeats[strings.ToLower(text)] >= 3
}
