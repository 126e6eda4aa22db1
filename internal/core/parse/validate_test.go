package parse

import (
	"strings"
	"testing"

	"recipe-parser/internal/pkg/common"
)

func validRecipe() *common.ParsedRecipe {
	return &common.ParsedRecipe{
		Title:        "Chocolate Cake",
		Ingredients:  []string{"2 cups flour", "1 cup sugar"},
		Instructions: []string{"Mix", "Bake"},
		Confidence:   0.8,
	}
}

func TestValidateAcceptsCompleteRecipe(t *testing.T) {
	result := Validate(validRecipe())

	if !result.IsValid {
		t.Errorf("IsValid = false for complete recipe, errors: %v", result.Errors)
	}
	if len(result.Errors) != 0 || len(result.Warnings) != 0 || len(result.Suggestions) != 0 {
		t.Errorf("unexpected findings: %+v", result)
	}
}

func TestValidateBlockingRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*common.ParsedRecipe)
		wantErr string
	}{
		{
			name:    "missing title",
			mutate:  func(r *common.ParsedRecipe) { r.Title = "  " },
			wantErr: "title is required",
		},
		{
			name:    "placeholder title",
			mutate:  func(r *common.ParsedRecipe) { r.Title = UntitledPlaceholder },
			wantErr: "title is required",
		},
		{
			name:    "no ingredients",
			mutate:  func(r *common.ParsedRecipe) { r.Ingredients = nil },
			wantErr: "at least one ingredient is required",
		},
		{
			name:    "no instructions",
			mutate:  func(r *common.ParsedRecipe) { r.Instructions = nil },
			wantErr: "at least one instruction step is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecipe()
			tt.mutate(r)
			result := Validate(r)

			if result.IsValid {
				t.Errorf("IsValid = true, want false")
			}
			if !containsSubstring(result.Errors, tt.wantErr) {
				t.Errorf("errors %v missing %q", result.Errors, tt.wantErr)
			}
		})
	}
}

func TestValidateWarnings(t *testing.T) {
	longTime := 481
	badServings := 150

	r := validRecipe()
	r.PrepTime = &longTime
	r.CookTime = &longTime
	r.Servings = &badServings
	result := Validate(r)

	if !result.IsValid {
		t.Errorf("warnings must not block: errors %v", result.Errors)
	}
	if len(result.Warnings) != 3 {
		t.Errorf("got %d warnings, want 3: %v", len(result.Warnings), result.Warnings)
	}
}

func TestValidateBoundaryValuesPass(t *testing.T) {
	okTime := 480
	okServings := 100

	r := validRecipe()
	r.PrepTime = &okTime
	r.CookTime = &okTime
	r.Servings = &okServings
	result := Validate(r)

	if len(result.Warnings) != 0 {
		t.Errorf("boundary values triggered warnings: %v", result.Warnings)
	}
}

func TestValidateMissingIngredientsHeuristic(t *testing.T) {
	r := validRecipe()
	r.Ingredients = []string{"2 cups flour"}
	r.Instructions = []string{"a", "b", "c", "d"}
	result := Validate(r)

	if !containsSubstring(result.Warnings, "possible missing ingredients") {
		t.Errorf("warnings %v missing ingredient-count heuristic", result.Warnings)
	}
	if !result.IsValid {
		t.Errorf("ingredient-count heuristic must not block")
	}
}

func TestValidateLowConfidenceSuggestion(t *testing.T) {
	r := validRecipe()
	r.Confidence = 0.4
	result := Validate(r)

	if len(result.Suggestions) != 1 {
		t.Errorf("got suggestions %v, want manual-review suggestion", result.Suggestions)
	}

	r.Confidence = 0.5
	result = Validate(r)
	if len(result.Suggestions) != 0 {
		t.Errorf("suggestion emitted at threshold: %v", result.Suggestions)
	}
}

func TestValidateZeroServingsWarns(t *testing.T) {
	zero := 0
	r := validRecipe()
	r.Servings = &zero
	result := Validate(r)

	if len(result.Warnings) != 1 {
		t.Errorf("got warnings %v, want implausible-servings warning", result.Warnings)
	}
}

func containsSubstring(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
