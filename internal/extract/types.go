// Package extract parses recognized card text into structured voter fields.
// Parsing is best-effort: fields the text does not yield stay absent rather
// than failing the card, and only the recognition engine itself produces
// errors.
package extract

// Gender is the classified gender of a voter record.
type Gender string

// Gender values. Classification is total: every input maps to exactly one
// of these, with GenderUnknown as the fallback.
const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

// Fields holds one card's extracted voter data. Pointer fields are nil when
// the recognized text did not yield the field; they serialize as JSON null
// so absence survives round trips instead of turning into empty strings.
type Fields struct {
	// VoterID is the card identity, "ID DATE" when the issue date was
	// read alongside the ID, or the bare ID token otherwise.
	VoterID *string `json:"voter_id"`
	// RegNo is the part/section register number, e.g. "113/236/1277".
	RegNo        *string `json:"reg_no"`
	Name         *string `json:"name"`
	RelativeName *string `json:"relative_name"`
	HouseNo      *string `json:"house_no"`
	Age          *string `json:"age"`
	Gender       Gender  `json:"gender"`
	// Raw is the recognized text the fields were parsed from.
	Raw string `json:"raw_text,omitempty"`
}
