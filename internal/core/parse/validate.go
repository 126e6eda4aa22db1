package parse

import (
	"fmt"
	"strings"

	"recipe-parser/internal/pkg/common"
)

// 驗證規則的邊界值
// 數值是合理的佔位預設，待產品需求確認
const (
	maxReasonableMinutes  = 480 // 8 小時
	maxReasonableServings = 100
	reviewSuggestionBelow = 0.5
)

// Validate 檢查候選食譜的完整性與合理性，純函式、無副作用
// Errors 阻斷上游的「成功」判定；Warnings 與 Suggestions 僅供 UI 提示
func Validate(candidate *common.ParsedRecipe) *common.ValidationResult {
	result := &common.ValidationResult{
		Errors:      []string{},
		Warnings:    []string{},
		Suggestions: []string{},
	}

	// 阻斷性規則
	if strings.TrimSpace(candidate.Title) == "" || candidate.Title == UntitledPlaceholder {
		result.Errors = append(result.Errors, "title is required")
	}
	if len(candidate.Ingredients) == 0 {
		result.Errors = append(result.Errors, "at least one ingredient is required")
	}
	if len(candidate.Instructions) == 0 {
		result.Errors = append(result.Errors, "at least one instruction step is required")
	}

	// 非阻斷性規則
	if candidate.PrepTime != nil && *candidate.PrepTime > maxReasonableMinutes {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("prep time of %d minutes is unusually long, please verify", *candidate.PrepTime))
	}
	if candidate.CookTime != nil && *candidate.CookTime > maxReasonableMinutes {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("cook time of %d minutes is unusually long, please verify", *candidate.CookTime))
	}
	if candidate.Servings != nil && (*candidate.Servings <= 0 || *candidate.Servings > maxReasonableServings) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("servings value %d looks implausible", *candidate.Servings))
	}
	if len(candidate.Ingredients) < 2 && len(candidate.Instructions) > 3 {
		result.Warnings = append(result.Warnings, "possible missing ingredients")
	}

	if candidate.Confidence < reviewSuggestionBelow {
		result.Suggestions = append(result.Suggestions, "consider manual review of this recipe before saving")
	}

	result.IsValid = len(result.Errors) == 0
	return result
}
