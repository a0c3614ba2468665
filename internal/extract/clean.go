package extract

import (
	"regexp"
	"strings"
)

// Cleaning rules for recognized person names. Engines leave pipe and slash
// artifacts around Devanagari text and sprinkle short Latin fragments into
// it; both are noise, not name material.
var (
	nameNoiseChars = regexp.MustCompile(`[|¦\\/<>]`)
	nameStripChars = regexp.MustCompile(`[=z&*]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// ocrIDConfusions maps characters engines commonly misread inside the
// numeric tail of a card ID.
var ocrIDConfusions = map[rune]rune{
	'O': '0',
	'I': '1',
	'L': '1',
	'B': '8',
	'S': '5',
	'G': '6',
}

// cleanPersonName normalizes a recognized name: noise characters become
// spaces, short Latin fragments are dropped, stray symbols are stripped,
// whitespace runs collapse and the result is capped at maxWords words.
// Returns "" when nothing usable remains.
func cleanPersonName(raw string, maxWords int) string {
	s := nameNoiseChars.ReplaceAllString(raw, " ")
	s = dropLatinNoiseTokens(s)
	s = nameStripChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(whitespaceRuns.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}
	words := strings.Fields(s)
	if len(words) > maxWords {
		words = words[:maxWords]
	}
	return strings.Join(words, " ")
}

// dropLatinNoiseTokens removes whitespace-separated tokens of one to three
// Latin letters. Devanagari tokens and longer Latin words pass through.
func dropLatinNoiseTokens(s string) string {
	tokens := strings.Fields(s)
	kept := tokens[:0]
	for _, tok := range tokens {
		if len(tok) <= 3 && isLatinLetters(tok) {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func isLatinLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// repairIDToken fixes digit confusions in a card-ID token. Card IDs open
// with a short letter prefix, so up to four leading letters are trusted
// as-is and the repair applies only to the tail.
func repairIDToken(tok string) string {
	prefix := 0
	for prefix < len(tok) && prefix < 4 && tok[prefix] >= 'A' && tok[prefix] <= 'Z' {
		prefix++
	}
	tail := strings.Map(func(r rune) rune {
		if repl, ok := ocrIDConfusions[r]; ok {
			return repl
		}
		return r
	}, tok[prefix:])
	return tok[:prefix] + tail
}
