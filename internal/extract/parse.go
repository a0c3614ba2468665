package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Anchor patterns are bilingual: cards carry Marathi labels, with English
// appearing on newer rolls. Each field tries its patterns in order and the
// first capturing match wins. Patterns stay line-local on purpose; values
// never bleed across lines.
var (
	voterIDLine   = regexp.MustCompile(`([A-Z0-9]{5,})\s+(\d{1,2}/\d{1,2}/\d{2,4})`)
	cardIDToken   = regexp.MustCompile(`^[A-Z]{2,4}[0-9A-Z]{6,10}$`)
	regNoToken    = regexp.MustCompile(`\b[0-9]{1,3}/[0-9]{1,3}/[0-9]{1,5}\b`)
	firstDigitRun = regexp.MustCompile(`[0-9]+`)

	relativeNameAnchors = []*regexp.Regexp{
		regexp.MustCompile(`(?:पतीचे|वडिलांचे|आईचे)[ \t]*नाव[ \t]*[:ः]*[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)(?:husband'?s?|father'?s?|mother'?s?)[ \t]+name[ \t]*:*[ \t]*([^\n]+)`),
	}
	voterNameAnchors = []*regexp.Regexp{
		regexp.MustCompile(`मतदाराचे[ \t]*(?:पूर्ण[ \t]*)?(?:नाव[ \t]*)?[:ः]*[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?mi)^[ \t]*name[ \t]*:*[ \t]*([^\n]+)`),
	}
	houseNoAnchors = []*regexp.Regexp{
		regexp.MustCompile(`घर[ \t]*क्रमांक[ \t]*[:ः]*[ \t]*([^\n]+)`),
		regexp.MustCompile(`(?i)house[ \t]*(?:number|no\.?)[ \t]*:*[ \t]*([^\n]+)`),
	}
	ageAnchors = []*regexp.Regexp{
		regexp.MustCompile(`वय[ \t]*[:ः]*[ \t]*([0-9०-९]+)`),
		regexp.MustCompile(`(?i)\bage[ \t]*:*[ \t]*([0-9०-९]+)`),
	}
	genderAnchors = []*regexp.Regexp{
		regexp.MustCompile(`लिंग[ \t]*[:ः]*[ \t]*(\S+)`),
		regexp.MustCompile(`(?i)\bgender[ \t]*:*[ \t]*(\S+)`),
	}

	fallbackNameSep = regexp.MustCompile(`[:ः]`)
)

// Markers used by the fallback name rule to skip lines that belong to other
// fields.
var (
	relativeMarkers   = []string{"पती", "वडिल", "आई", "सासू", "पत्नी", "सून"}
	otherFieldMarkers = []string{"घर", "लिंग", "वय"}
)

const (
	maxNameWords     = 4
	maxRelativeWords = 3
	minAge           = 1
	maxAge           = 120
)

// Parse extracts voter fields from recognized card text. It is a pure
// function of its input and never fails: fields that cannot be located are
// left absent and gender falls back to unknown.
func Parse(text string) Fields {
	f := Fields{Gender: GenderUnknown, Raw: text}
	if strings.TrimSpace(text) == "" {
		return f
	}

	t := NormalizeText(text)
	lines := nonEmptyLines(t)

	idValue, idLine := parseVoterID(lines)
	f.VoterID = idValue
	f.RegNo = parseRegNo(lines, idLine)

	if m := firstAnchorMatch(relativeNameAnchors, t); m != "" {
		if cleaned := cleanPersonName(m, maxRelativeWords); cleaned != "" {
			f.RelativeName = &cleaned
		}
	}

	if m := firstAnchorMatch(voterNameAnchors, t); m != "" {
		if cleaned := cleanPersonName(m, maxNameWords); cleaned != "" {
			f.Name = &cleaned
		}
	} else if m := fallbackNameLine(lines); m != "" {
		if cleaned := cleanPersonName(m, maxNameWords); cleaned != "" {
			f.Name = &cleaned
		}
	}

	if m := firstAnchorMatch(houseNoAnchors, t); m != "" {
		if digits := firstDigitRun.FindString(NormalizeDigits(m)); digits != "" {
			f.HouseNo = &digits
		}
	}

	if m := firstAnchorMatch(ageAnchors, t); m != "" {
		if age, ok := validAge(NormalizeDigits(m)); ok {
			f.Age = &age
		}
	}

	if m := firstAnchorMatch(genderAnchors, t); m != "" {
		f.Gender = ClassifyGender(m)
	} else {
		f.Gender = ClassifyGender(t)
	}

	return f
}

// ClassifyGender maps recognized gender text onto the Gender enum. It is
// total: any input, including garbage, yields exactly one value.
func ClassifyGender(s string) Gender {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return GenderUnknown
	}

	for _, k := range []string{"स्त्री", "स्री", "महिला"} {
		if strings.Contains(s, k) {
			return GenderFemale
		}
	}
	for _, k := range []string{"इतर", "तृतीय"} {
		if strings.Contains(s, k) {
			return GenderOther
		}
	}
	for _, k := range []string{"पुरुष", "पुरूष"} {
		if strings.Contains(s, k) {
			return GenderMale
		}
	}

	// Short markers only count as whole tokens; जी is a frequent engine
	// misread of स्त्री on low-quality scans.
	for _, tok := range strings.Fields(s) {
		switch strings.Trim(tok, ".,:;|-ः") {
		case "जी":
			return GenderFemale
		case "पु":
			return GenderMale
		case "f", "female":
			return GenderFemale
		case "m", "male":
			return GenderMale
		case "o", "other":
			return GenderOther
		}
	}
	return GenderUnknown
}

func nonEmptyLines(s string) []string {
	raw := strings.Split(s, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func firstAnchorMatch(patterns []*regexp.Regexp, text string) string {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

// parseVoterID finds the card identity. The canonical shape is an
// alphanumeric ID followed by an issue date on the same line; when the
// engine mangles the date, the bare card-ID token shape is tried instead.
// Returns the value and the index of the line it came from.
func parseVoterID(lines []string) (*string, int) {
	for i, line := range lines {
		if m := voterIDLine.FindStringSubmatch(line); m != nil {
			v := repairIDToken(m[1]) + " " + m[2]
			return &v, i
		}
	}
	for i, line := range lines {
		for _, tok := range strings.Fields(strings.ToUpper(line)) {
			tok = repairIDToken(tok)
			if cardIDToken.MatchString(tok) && strings.ContainsAny(tok, "0123456789") {
				return &tok, i
			}
		}
	}
	return nil, -1
}

// parseRegNo looks for the part/section register number (e.g. 113/236/1277),
// skipping the line the voter ID came from so its date is never mistaken for
// a register number.
func parseRegNo(lines []string, idLine int) *string {
	for i, line := range lines {
		if i == idLine {
			continue
		}
		if m := regNoToken.FindString(NormalizeDigits(line)); m != "" {
			return &m
		}
	}
	return nil
}

// fallbackNameLine finds a bare "नाव" line when no full anchor matched,
// skipping lines that clearly belong to the relative or other fields.
func fallbackNameLine(lines []string) string {
	for _, line := range lines {
		if !strings.Contains(line, "नाव") {
			continue
		}
		if containsAny(line, relativeMarkers) || containsAny(line, otherFieldMarkers) {
			continue
		}
		var candidate string
		if parts := fallbackNameSep.Split(line, 2); len(parts) == 2 {
			candidate = parts[1]
		} else if idx := strings.Index(line, "नाव"); idx >= 0 {
			candidate = line[idx+len("नाव"):]
		}
		if candidate = strings.TrimSpace(candidate); candidate != "" {
			return candidate
		}
	}
	return ""
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func validAge(digits string) (string, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil || n < minAge || n > maxAge {
		return "", false
	}
	return strconv.Itoa(n), true
}
