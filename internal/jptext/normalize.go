package jptext

import "golang.org/x/text/unicode/norm"

// NormalizeKatakana converts every hiragana character (U+3041..U+3096) to
// its katakana counterpart (+0x60); all other characters pass through.
// Idempotent: already-katakana text is unchanged.
func NormalizeKatakana(text string) string {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if r >= 0x3041 && r <= 0x3096 {
			r += 0x60
		}
		out = append(out, r)
	}
	return string(out)
}

// NarrowWidth canonicalizes full-width digits, letters and the percent sign
// to their half-width forms ("１００ｍｇ" -> "100mg"). NFKC covers exactly
// the compatibility mappings the master data mixes in. Only apply it to
// specification strings and product names being compared, never to whole
// prescription lines: it would also fold the width variants the dosage-form
// list distinguishes.
func NarrowWidth(s string) string {
	return norm.NFKC.String(s)
}
