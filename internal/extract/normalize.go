package extract

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// marathiMisreads maps frequent engine misreads of card labels back to
// their canonical spelling. Keys are applied longest first so a longer
// correction is never clobbered by a fragment of itself.
var marathiMisreads = map[string]string{
	"मतदाराचे पुर्ण": "मतदाराचे पूर्ण",
	"मतराराचे":       "मतदाराचे",
	"पतिचे नाव":      "पतीचे नाव",
	"पतीच नाव":       "पतीचे नाव",
	"वडीलांचे नाव":   "वडिलांचे नाव",
	"वडिळांचे नाव":   "वडिलांचे नाव",
	"घर क्र.":        "घर क्रमांक",
	"घर क्रं":        "घर क्रमांक",
	"लिग":            "लिंग",
	"लींग":           "लिंग",
}

// NormalizeText prepares recognized text for parsing: NFC normalization so
// composed and decomposed Devanagari compare equal, zero-width character
// removal, then the misread corrections.
func NormalizeText(s string) string {
	s = norm.NFC.String(s)
	s = removeZeroWidth(s)
	return applyReplaceMap(s, marathiMisreads)
}

// removeZeroWidth strips zero-width spaces and byte order marks. Zero-width
// joiners are kept since they carry meaning in Devanagari conjuncts.
func removeZeroWidth(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\u200b' || r == '\ufeff' {
			return -1
		}
		return r
	}, s)
}

func applyReplaceMap(s string, m map[string]string) string {
	for _, k := range sortedKeysByLength(m) {
		s = strings.ReplaceAll(s, k, m[k])
	}
	return s
}

func sortedKeysByLength(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}

// NormalizeDigits maps Devanagari digits to their ASCII equivalents so
// numeric fields parse with strconv. All other runes pass through.
func NormalizeDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '०' && r <= '९' {
			b.WriteByte(byte('0' + (r - '०')))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
