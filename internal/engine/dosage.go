package engine

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rxscan/rx-scanner/constants"
	"github.com/rxscan/rx-scanner/internal/entity"
	"github.com/rxscan/rx-scanner/internal/jptext"
)

// Strength: a number (either width, optional decimal) immediately followed
// by a known unit. Matches are canonicalized to half-width afterwards.
var reSpec = regexp.MustCompile(`([\d０-９]+(?:[．.][\d０-９]+)?(?:mg|ｍｇ|g|ｇ|mL|ｍＬ|ml|μg|μｇ|％|%))`)

// ExtractDosageSpecs scans one normalized line for a dosage form and a
// strength specification.
//
// Forms: every known form string is tested for substring presence; when
// several match, only the longest is kept ("ＯＤ錠" beats the "錠" it
// contains). Specs: only the first strength found is kept, a line is
// assumed to describe one strength. Absent matches yield empty slices,
// never an error.
func ExtractDosageSpecs(line string) entity.DosageSpecInfo {
	var info entity.DosageSpecInfo

	longest := ""
	for _, form := range constants.DosageForms {
		if !strings.Contains(line, form) {
			continue
		}
		if utf8.RuneCountInString(form) > utf8.RuneCountInString(longest) {
			longest = form
		}
	}
	if longest != "" {
		info.Forms = []string{longest}
	}

	if m := reSpec.FindString(line); m != "" {
		info.Specs = []string{jptext.NarrowWidth(m)}
	}
	return info
}
