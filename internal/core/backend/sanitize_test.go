package backend

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestDecodeCandidateCleanJSON(t *testing.T) {
	content := `{
		"title": "Chocolate Cake",
		"ingredients": ["2 cups flour", "1 cup sugar"],
		"instructions": ["Mix", "Bake"],
		"prep_time": 20,
		"cook_time": 45,
		"servings": 8,
		"confidence": 0.9
	}`

	recipe, err := decodeCandidate(content, 0.9)
	if err != nil {
		t.Fatalf("decodeCandidate() error: %v", err)
	}
	if recipe.Title != "Chocolate Cake" {
		t.Errorf("Title = %q", recipe.Title)
	}
	if len(recipe.Ingredients) != 2 || len(recipe.Instructions) != 2 {
		t.Errorf("ingredients/instructions = %v / %v", recipe.Ingredients, recipe.Instructions)
	}
	if recipe.PrepTime == nil || *recipe.PrepTime != 20 {
		t.Errorf("PrepTime = %v, want 20", recipe.PrepTime)
	}
	if recipe.Confidence <= 0 || recipe.Confidence > 1 {
		t.Errorf("Confidence = %v, out of range", recipe.Confidence)
	}
}

func TestDecodeCandidateMarkdownFence(t *testing.T) {
	content := "Here is the recipe:\n```json\n" +
		`{"title": "Toast", "ingredients": ["2 slices bread"], "instructions": ["Toast it"], "confidence": 0.8}` +
		"\n```\nHope this helps!"

	recipe, err := decodeCandidate(content, 0.9)
	if err != nil {
		t.Fatalf("decodeCandidate() error: %v", err)
	}
	if recipe.Title != "Toast" {
		t.Errorf("Title = %q, want %q", recipe.Title, "Toast")
	}
}

func TestDecodeCandidateCoercesTypes(t *testing.T) {
	content := `{
		"title": "  Stew  ",
		"ingredients": ["1 lb beef", "", "  "],
		"instructions": ["Simmer"],
		"prep_time": "15",
		"cook_time": 90.7,
		"servings": null,
		"confidence": "0.75"
	}`

	recipe, err := decodeCandidate(content, 0.9)
	if err != nil {
		t.Fatalf("decodeCandidate() error: %v", err)
	}
	if recipe.Title != "Stew" {
		t.Errorf("Title = %q, want trimmed %q", recipe.Title, "Stew")
	}
	if len(recipe.Ingredients) != 1 {
		t.Errorf("empty ingredient entries not dropped: %v", recipe.Ingredients)
	}
	if recipe.PrepTime == nil || *recipe.PrepTime != 15 {
		t.Errorf("PrepTime = %v, want 15 (string coerced)", recipe.PrepTime)
	}
	if recipe.CookTime == nil || *recipe.CookTime != 90 {
		t.Errorf("CookTime = %v, want 90 (float truncated)", recipe.CookTime)
	}
	if recipe.Servings != nil {
		t.Errorf("Servings = %v, want nil for null", recipe.Servings)
	}
}

func TestDecodeCandidateDropsUnknownKeys(t *testing.T) {
	content := `{
		"title": "Toast",
		"ingredients": ["bread"],
		"instructions": ["toast"],
		"confidence": 0.8,
		"chef_notes": "invented by the model"
	}`

	if _, err := decodeCandidate(content, 0.9); err != nil {
		t.Fatalf("unknown keys should be stripped, got error: %v", err)
	}
}

func TestDecodeCandidateRejectsMissingRequired(t *testing.T) {
	content := `{"title": "Toast", "confidence": 0.8}`

	if _, err := decodeCandidate(content, 0.9); err == nil {
		t.Fatal("decodeCandidate() accepted response without ingredients/instructions")
	}
}

func TestDecodeCandidateRejectsNonJSON(t *testing.T) {
	if _, err := decodeCandidate("Sorry, I cannot parse this text.", 0.9); err == nil {
		t.Fatal("decodeCandidate() accepted prose response")
	}
}

func TestDecodeCandidateClampsConfidence(t *testing.T) {
	content := `{"title": "Toast", "ingredients": ["bread"], "instructions": ["toast"], "confidence": 7}`

	recipe, err := decodeCandidate(content, 0.9)
	if err != nil {
		t.Fatalf("decodeCandidate() error: %v", err)
	}
	if recipe.Confidence < 0 || recipe.Confidence > 1 {
		t.Errorf("Confidence = %v, out of [0,1]", recipe.Confidence)
	}
}

func TestBuildParsePromptTruncates(t *testing.T) {
	long := make([]byte, maxPromptTextLen*2)
	for i := range long {
		long[i] = 'a'
	}

	prompt := buildParsePrompt(string(long), "")
	if len(prompt) > maxPromptTextLen+2048 {
		t.Errorf("prompt length %d, text not truncated", len(prompt))
	}
}

func TestBuildParsePromptTruncatesAtRuneBoundary(t *testing.T) {
	// 兩位元組的 rune：截斷點落在字元中間時必須往回退
	long := strings.Repeat("½", maxPromptTextLen)

	prompt := buildParsePrompt(long, "")
	if !utf8.ValidString(prompt) {
		t.Error("truncated prompt contains invalid UTF-8")
	}
}
