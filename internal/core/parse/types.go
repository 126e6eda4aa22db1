package parse

// LineRole 每一行文字的語意角色
type LineRole string

const (
	RoleTitle         LineRole = "title"
	RoleSectionHeader LineRole = "section_header"
	RoleIngredient    LineRole = "ingredient"
	RoleInstruction   LineRole = "instruction_step"
	RoleMetadata      LineRole = "metadata"
	RoleNoise         LineRole = "noise"
)

// sectionKind 目前所在的食譜段落（由 SectionHeader 建立）
type sectionKind int

const (
	sectionNone sectionKind = iota
	sectionIngredients
	sectionInstructions
	sectionOther
)

// ClassifiedLine 分類後的單行文字
// SourceBlockIndex 指回原始 TextBlock 的索引，沒有對齊資料時為 nil
type ClassifiedLine struct {
	Text             string
	Role             LineRole
	Certainty        float64
	SourceBlockIndex *int
}
