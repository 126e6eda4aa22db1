package backend

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// LLM 後端一次請求能送出的 OCR 文字上限
const maxPromptTextLen = 4000

// buildParsePrompt 組出給 LLM 的解析指令
// 只做文字結構化，不補腦內容：模型不可以發明原文沒有的食材或步驟
func buildParsePrompt(text, language string) string {
	var sb strings.Builder
	sb.WriteString("You are a recipe parser. The following text was produced by OCR from a photo of a recipe and may contain noise.\n")
	sb.WriteString("Extract the recipe structure and return ONLY a single JSON object, no prose, no code fences.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("1. Use only information present in the text. Never invent ingredients or steps.\n")
	sb.WriteString("2. Keep ingredients and instructions in their original order.\n")
	sb.WriteString("3. Strip step numbers from instructions, strip bullets from ingredients.\n")
	sb.WriteString("4. prep_time and cook_time are integer minutes; convert hours to minutes.\n")
	sb.WriteString("5. Omit optional fields you cannot find. Never output null.\n")
	sb.WriteString("6. Set confidence to your certainty (0.0-1.0) that the structure is correct.\n")
	if language != "" {
		sb.WriteString(fmt.Sprintf("7. The recipe language is %q; keep the original language in all fields.\n", language))
	}
	sb.WriteString("\nJSON shape:\n")
	sb.WriteString(`{"title":"...","description":"...","ingredients":["..."],"instructions":["..."],"prep_time":30,"cook_time":45,"servings":4,"confidence":0.9}`)
	sb.WriteString("\n\nOCR text:\n")
	if len(text) > maxPromptTextLen {
		// 截斷點退到 rune 邊界，避免送出壞掉的 UTF-8
		n := maxPromptTextLen
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		sb.WriteString(text[:n])
	} else {
		sb.WriteString(text)
	}
	return sb.String()
}
