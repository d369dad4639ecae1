package jptext

import (
	"regexp"
	"unicode/utf8"
)

// Maximal runs of katakana (including voiced/semi-voiced forms, small kana,
// the long-vowel mark) or common-use kanji. Latin, digits and punctuation
// break a run.
var reNameRun = regexp.MustCompile(`[ア-ンヴガ-ゴザ-ゾダ-ドバ-ボパ-ポヤャユュヨョワヮヰヱヲッー一-龯]+`)

// MinTokenLen is the shortest name token worth searching; one- and
// two-character runs are statistically too ambiguous.
const MinTokenLen = 3

// ExtractNameTokens splits a normalized line into candidate drug-name
// tokens, dropping runs shorter than MinTokenLen and any token found in
// stopWords. Duplicates are kept; selection collapses them after scoring.
func ExtractNameTokens(line string, stopWords map[string]struct{}) []string {
	runs := reNameRun.FindAllString(line, -1)
	tokens := make([]string, 0, len(runs))
	for _, run := range runs {
		if utf8.RuneCountInString(run) < MinTokenLen {
			continue
		}
		if _, stop := stopWords[run]; stop {
			continue
		}
		tokens = append(tokens, run)
	}
	return tokens
}

// TruncateRunes returns the first n runes of s (the whole string when it is
// shorter). Similarity comparisons truncate both sides to the token length
// so length mismatch does not drag the ratio down.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
