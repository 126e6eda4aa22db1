package parse

import (
	"testing"

	"recipe-parser/internal/pkg/common"
)

func roleAt(t *testing.T, classified []ClassifiedLine, idx int) ClassifiedLine {
	t.Helper()
	if idx >= len(classified) {
		t.Fatalf("index %d out of range (%d lines)", idx, len(classified))
	}
	return classified[idx]
}

func TestClassifyFirstLineIsTitle(t *testing.T) {
	lines := []string{"Chocolate Cake", "2 cups flour"}
	classified := Classify(lines, nil)

	title := roleAt(t, classified, 0)
	if title.Role != RoleTitle {
		t.Errorf("first line role = %v, want RoleTitle", title.Role)
	}
	if title.Certainty < certTitleBase {
		t.Errorf("title certainty = %v, want >= %v", title.Certainty, certTitleBase)
	}
}

func TestClassifySkipsNoiseBeforeTitle(t *testing.T) {
	lines := []string{"42", "---", "Chocolate Cake", "2 cups flour"}
	classified := Classify(lines, nil)

	if classified[0].Role != RoleNoise || classified[1].Role != RoleNoise {
		t.Errorf("leading artifacts not classified as noise: %v, %v", classified[0].Role, classified[1].Role)
	}
	if classified[2].Role != RoleTitle {
		t.Errorf("line after artifacts role = %v, want RoleTitle", classified[2].Role)
	}
}

func TestClassifySectionHeaders(t *testing.T) {
	tests := []struct {
		line string
	}{
		{"Ingredients"},
		{"Ingredients:"},
		{"INGREDIENTS"},
		{"Directions"},
		{"Method"},
		{"For the sauce ingredients"},
	}

	for _, tt := range tests {
		// 標題規則只吃第一行，前面墊一行避開
		classified := Classify([]string{"Some Recipe", tt.line}, nil)
		got := roleAt(t, classified, 1)
		if got.Role != RoleSectionHeader {
			t.Errorf("Classify(%q) role = %v, want RoleSectionHeader", tt.line, got.Role)
		}
		if got.Certainty != certSectionHeader {
			t.Errorf("Classify(%q) certainty = %v, want %v", tt.line, got.Certainty, certSectionHeader)
		}
	}
}

func TestClassifyHeaderRejectsLongLines(t *testing.T) {
	line := "Mix all the ingredients together in a large bowl until smooth"
	classified := Classify([]string{"Some Recipe", line}, nil)
	if classified[1].Role == RoleSectionHeader {
		t.Errorf("long prose line misclassified as section header")
	}
}

func TestClassifyIngredients(t *testing.T) {
	lines := []string{
		"Pancakes",
		"Ingredients",
		"2 cups flour",
		"1/2 tsp salt",
		"1-2 tbsp sugar",
		"½ cup milk",
		"- 3 eggs",
	}
	classified := Classify(lines, nil)

	for i := 2; i < len(lines); i++ {
		got := roleAt(t, classified, i)
		if got.Role != RoleIngredient {
			t.Errorf("line %q role = %v, want RoleIngredient", lines[i], got.Role)
		}
		if got.Certainty != certPatternSection {
			t.Errorf("line %q certainty = %v, want %v (pattern + section)", lines[i], got.Certainty, certPatternSection)
		}
	}
}

func TestClassifyInstructions(t *testing.T) {
	lines := []string{
		"Pancakes",
		"Directions",
		"1. Preheat the oven to 350F",
		"2) Mix the dry ingredients",
		"Step 3 fold in the eggs",
		"Then pour into the pan",
	}
	classified := Classify(lines, nil)

	for i := 2; i < len(lines); i++ {
		got := roleAt(t, classified, i)
		if got.Role != RoleInstruction {
			t.Errorf("line %q role = %v, want RoleInstruction", lines[i], got.Role)
		}
	}
}

func TestClassifyNumericLeadTieBreak(t *testing.T) {
	// "2 cups flour" 同時像步驟編號又像數量，由段落上下文裁決
	inInstructions := Classify([]string{
		"Pancakes",
		"Directions",
		"2. Mix everything together",
	}, nil)
	if got := inInstructions[2].Role; got != RoleInstruction {
		t.Errorf("numbered line in instructions section role = %v, want RoleInstruction", got)
	}

	inIngredients := Classify([]string{
		"Pancakes",
		"Ingredients",
		"2. diced onions",
	}, nil)
	if got := inIngredients[2].Role; got != RoleIngredient {
		t.Errorf("numbered line in ingredients section role = %v, want RoleIngredient", got)
	}
}

func TestClassifyMetadata(t *testing.T) {
	lines := []string{
		"Pancakes",
		"Prep time: 30 minutes",
		"Cook time: 1 hour",
		"Serves 4",
	}
	classified := Classify(lines, nil)

	for i := 1; i < len(lines); i++ {
		got := roleAt(t, classified, i)
		if got.Role != RoleMetadata {
			t.Errorf("line %q role = %v, want RoleMetadata", lines[i], got.Role)
		}
	}
}

func TestClassifyBlankLineEndsIngredientSection(t *testing.T) {
	lines := []string{
		"Pancakes",
		"Ingredients",
		"2 cups flour",
		"",
		"Pour the batter gently",
	}
	classified := Classify(lines, nil)

	// 空行後的無 pattern 行不再繼承食材上下文
	got := roleAt(t, classified, 4)
	if got.Role == RoleIngredient {
		t.Errorf("line after blank run still inherited ingredient context")
	}
}

func TestClassifyFallbackInsideSection(t *testing.T) {
	lines := []string{
		"Pancakes",
		"Ingredients",
		"a pinch of love", // 沒有數量 pattern
	}
	classified := Classify(lines, nil)

	got := roleAt(t, classified, 2)
	if got.Role != RoleIngredient {
		t.Errorf("patternless line in ingredients section role = %v, want RoleIngredient", got.Role)
	}
	if got.Certainty != certFallback {
		t.Errorf("fallback certainty = %v, want %v", got.Certainty, certFallback)
	}
}

func TestClassifyRepeatedArtifacts(t *testing.T) {
	lines := []string{
		"Grandma's Cookbook",
		"Pancakes",
		"Grandma's Cookbook",
		"2 cups flour",
		"Grandma's Cookbook",
	}
	classified := Classify(lines, nil)

	for _, i := range []int{0, 2, 4} {
		if classified[i].Role != RoleNoise {
			t.Errorf("repeated header line %d role = %v, want RoleNoise", i, classified[i].Role)
		}
	}
}

func TestClassifyTallBlockIsTitle(t *testing.T) {
	lines := []string{
		"some note",
		"CHOCOLATE CAKE",
		"2 cups flour",
	}
	blocks := []common.TextBlock{
		{Text: lines[0], BoundingBox: common.BoundingBox{Height: 10}},
		{Text: lines[1], BoundingBox: common.BoundingBox{Height: 30}},
		{Text: lines[2], BoundingBox: common.BoundingBox{Height: 10}},
	}
	classified := Classify(lines, blocks)

	if classified[1].Role != RoleTitle {
		t.Errorf("tall block role = %v, want RoleTitle", classified[1].Role)
	}
	if classified[1].SourceBlockIndex == nil || *classified[1].SourceBlockIndex != 1 {
		t.Errorf("SourceBlockIndex not set for aligned blocks")
	}
}

func TestClassifyMisalignedBlocksIgnored(t *testing.T) {
	lines := []string{"Pancakes", "2 cups flour"}
	blocks := []common.TextBlock{
		{Text: "Pancakes", BoundingBox: common.BoundingBox{Height: 30}},
	}
	classified := Classify(lines, blocks)

	for _, cl := range classified {
		if cl.SourceBlockIndex != nil {
			t.Errorf("SourceBlockIndex set despite misaligned blocks")
		}
	}
}

func TestClassifyPreservesLineCount(t *testing.T) {
	lines := []string{"Pancakes", "", "Ingredients", "2 cups flour"}
	classified := Classify(lines, nil)
	if len(classified) != len(lines) {
		t.Fatalf("Classify() returned %d lines, want %d", len(classified), len(lines))
	}
}
