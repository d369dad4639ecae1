package constants

// DosageForms are the known dosage-form strings scanned for in a prescription
// line, both full-width and half-width spellings where the master data uses
// both. When several forms match the same line, the longest match wins.
var DosageForms = []string{
	"錠",
	"ＯＤ錠",
	"OD錠",
	"カプセル",
	"細粒",
	"顆粒",
	"散",
	"シロップ",
	"ドライシロップ",
	"ＤＳ",
	"DS",
	"懸濁",
	"ゼリー",
	"チュアブル",
	"トローチ",
	"ＯＤフィルム",
	"ODフィルム",
	"注",
	"液",
	"点眼",
	"軟膏",
	"クリーム",
	"点鼻",
	"坐剤",
	"坐薬",
	"吸入",
	"吸入用",
	"貼付",
	"点耳",
}

// StopWords are generic packaging words that look like drug-name tokens but
// only produce false-positive matches.
var StopWords = map[string]struct{}{
	"キット": {},
	"セット": {},
	"バッグ": {},
}
