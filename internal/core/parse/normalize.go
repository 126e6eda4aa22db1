package parse

import (
	"regexp"
	"strings"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`\t+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
	reMultiBlank = regexp.MustCompile(`\n{3,}`)

	// 斷行連字：行尾連字號後若接字母就視為被 OCR 拆開的單字
	// 接數字則保留（"2-3" 這類範圍不能黏合）
	reHyphenBreak = regexp.MustCompile(`-\n([^\d\s])`)

	// 看起來像「數量＋單位」的 token，OCR 誤讀修正只在這裡面做
	reQtyUnit = regexp.MustCompile(`(?i)\b([0-9lO]*[0-9][0-9lO]*(?:[./-][0-9lO]+)?)(\s*)(cups?|tbsps?|tablespoons?|tsps?|teaspoons?|oz|ounces?|grams?|g|kg|ml|liters?|litres?|lbs?|pounds?|pinch(?:es)?|cloves?|slices?|cans?|sticks?|mins?|minutes?|hrs?|hours?|servings?)\b`)

	qtyMisreads = strings.NewReplacer("l", "1", "O", "0")
)

// Normalize 清理 OCR 原始文字，供結構解析使用
// 確定性的純函式：同一輸入永遠得到同一輸出，且 Normalize(Normalize(x)) == Normalize(x)
// 處理順序：
//  1. 統一換行符號、tab 轉空白
//  2. 黏合被行尾連字號拆開的單字（後接數字不黏）
//  3. 連續兩個以上空行保留成一個段落分隔
//  4. 在「數量＋單位」token 內修正常見 OCR 誤讀（l→1、O→0）
func Normalize(raw string) string {
	if raw == "" {
		return raw
	}

	s := reCRLF.ReplaceAllString(raw, "\n")
	s = reTabs.ReplaceAllString(s, " ")

	// 黏合斷行連字
	s = reHyphenBreak.ReplaceAllString(s, "$1")

	s = reMultiSpace.ReplaceAllString(s, " ")

	// 修掉每行首尾空白，避免 " \n \n" 擋住段落偵測
	lines := strings.Split(s, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	s = strings.Join(lines, "\n")

	// 段落分隔：兩個以上連續換行收斂為一個空行
	s = reMultiBlank.ReplaceAllString(s, "\n\n")

	// 數字相鄰的 l/O 誤讀，只動數量 token，不碰一般文字
	s = reQtyUnit.ReplaceAllStringFunc(s, func(m string) string {
		parts := reQtyUnit.FindStringSubmatch(m)
		return qtyMisreads.Replace(parts[1]) + parts[2] + parts[3]
	})

	return strings.TrimSpace(s)
}

// SplitLines 把正規化後的文字切成行，保留空行（分類器視為段落邊界）
func SplitLines(normalized string) []string {
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, "\n")
}
