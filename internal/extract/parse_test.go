package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParse_MarathiCard(t *testing.T) {
	text := strings.Join([]string{
		"XFC2589099 21/11/2020",
		"मतदाराचे पूर्ण नाव : गणेश कुमार पाटील",
		"वडिलांचे नाव : रमेश पाटील",
		"घर क्रमांक : १२३",
		"वय : ४५ लिंग : पुरुष",
	}, "\n")

	f := Parse(text)

	require.NotNil(t, f.VoterID)
	assert.Equal(t, "XFC2589099 21/11/2020", *f.VoterID)
	require.NotNil(t, f.Name)
	assert.Equal(t, "गणेश कुमार पाटील", *f.Name)
	require.NotNil(t, f.RelativeName)
	assert.Equal(t, "रमेश पाटील", *f.RelativeName)
	require.NotNil(t, f.HouseNo)
	assert.Equal(t, "123", *f.HouseNo)
	require.NotNil(t, f.Age)
	assert.Equal(t, "45", *f.Age)
	assert.Equal(t, GenderMale, f.Gender)
	assert.Nil(t, f.RegNo)
	assert.Equal(t, text, f.Raw)
}

func TestParse_EnglishCard(t *testing.T) {
	text := strings.Join([]string{
		"ABC1234567 12/05/2019",
		"Name: Ganesh Kumar Patil",
		"Father's Name: Ramesh Patil",
		"House Number: 42",
		"Age: 34 Gender: Male",
	}, "\n")

	f := Parse(text)

	require.NotNil(t, f.VoterID)
	assert.Equal(t, "ABC1234567 12/05/2019", *f.VoterID)
	assert.Equal(t, strPtr("Ganesh Kumar Patil"), f.Name)
	assert.Equal(t, strPtr("Ramesh Patil"), f.RelativeName)
	assert.Equal(t, strPtr("42"), f.HouseNo)
	assert.Equal(t, strPtr("34"), f.Age)
	assert.Equal(t, GenderMale, f.Gender)
}

func TestParse_FemaleCardWithHusbandName(t *testing.T) {
	text := strings.Join([]string{
		"XFC2589100 21/11/2020",
		"मतदाराचे पूर्ण नाव : सीता देवी पाटील",
		"पतीचे नाव : गणेश पाटील",
		"घर क्रमांक : १२३",
		"वय : ४१ लिंग : स्त्री",
	}, "\n")

	f := Parse(text)

	assert.Equal(t, strPtr("सीता देवी पाटील"), f.Name)
	assert.Equal(t, strPtr("गणेश पाटील"), f.RelativeName)
	assert.Equal(t, GenderFemale, f.Gender)
}

func TestParse_VoterIDConfusionRepair(t *testing.T) {
	// Tail characters after the letter prefix get the usual OCR
	// confusions repaired (O->0, I->1, B->8, S->5, G->6).
	f := Parse("ABC12B4S67 1/1/21\nवय : ३०")

	require.NotNil(t, f.VoterID)
	assert.Equal(t, "ABC1284567 1/1/21", *f.VoterID)
}

func TestParse_VoterIDBareTokenFallback(t *testing.T) {
	// No issue date on the card; the bare card-ID shape still counts.
	f := Parse("मतदान कार्ड\nXFC2589099\nवय : ५०")

	require.NotNil(t, f.VoterID)
	assert.Equal(t, "XFC2589099", *f.VoterID)
}

func TestParse_NoVoterID(t *testing.T) {
	f := Parse("मतदाराचे नाव : गणेश पाटील\nवय : ५०")

	assert.Nil(t, f.VoterID)
	assert.Equal(t, strPtr("गणेश पाटील"), f.Name)
}

func TestParse_RegisterNumber(t *testing.T) {
	text := strings.Join([]string{
		"XFC2589099 21/11/2020",
		"113/236/1277",
		"मतदाराचे नाव : गणेश पाटील",
	}, "\n")

	f := Parse(text)

	assert.Equal(t, strPtr("113/236/1277"), f.RegNo)
}

func TestParse_IssueDateIsNotARegisterNumber(t *testing.T) {
	// The only slash-separated token is the issue date on the ID line;
	// it must not be reported as a register number.
	f := Parse("XFC2589099 21/11/2020\nमतदाराचे नाव : गणेश पाटील")

	require.NotNil(t, f.VoterID)
	assert.Nil(t, f.RegNo)
}

func TestParse_FallbackNameLine(t *testing.T) {
	// A bare नाव line without the full मतदाराचे anchor still yields the
	// name, but नाव lines belonging to other fields are skipped.
	text := strings.Join([]string{
		"पतीचे नाव : गणेश पाटील",
		"नाव : सीता देवी",
	}, "\n")

	f := Parse(text)

	assert.Equal(t, strPtr("सीता देवी"), f.Name)
	assert.Equal(t, strPtr("गणेश पाटील"), f.RelativeName)
}

func TestParse_AgeBounds(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *string
	}{
		{"lowest valid", "वय : १", strPtr("1")},
		{"highest valid", "वय : १२०", strPtr("120")},
		{"zero is absent", "वय : ०", nil},
		{"above range is absent", "वय : १५०", nil},
		{"missing is absent", "लिंग : पुरुष", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).Age)
		})
	}
}

func TestParse_HouseNumberDigitsOnly(t *testing.T) {
	tests := []struct {
		name string
		text string
		want *string
	}{
		{"devanagari digits", "घर क्रमांक : १२३", strPtr("123")},
		{"mixed noise around digits", "घर क्रमांक : अ-४२ब", strPtr("42")},
		{"no digits is absent", "घर क्रमांक : ---", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.text).HouseNo)
		})
	}
}

func TestParse_GenderWithoutAnchorFallsBackToWholeText(t *testing.T) {
	f := Parse("मतदाराचे नाव : सीता देवी\nस्त्री मतदार")

	assert.Equal(t, GenderFemale, f.Gender)
}

func TestParse_EmptyAndGarbageText(t *testing.T) {
	for _, text := range []string{"", "   \n\t", "~~~###***"} {
		f := Parse(text)

		assert.Nil(t, f.VoterID)
		assert.Nil(t, f.RegNo)
		assert.Nil(t, f.Name)
		assert.Nil(t, f.RelativeName)
		assert.Nil(t, f.HouseNo)
		assert.Nil(t, f.Age)
		assert.Equal(t, GenderUnknown, f.Gender)
	}
}

func TestClassifyGender(t *testing.T) {
	tests := []struct {
		in   string
		want Gender
	}{
		{"पुरुष", GenderMale},
		{"पु", GenderMale},
		{"स्त्री", GenderFemale},
		{"स्री", GenderFemale},
		{"महिला", GenderFemale},
		{"जी", GenderFemale},
		{"स्त्री.", GenderFemale},
		{"इतर", GenderOther},
		{"Male", GenderMale},
		{"F", GenderFemale},
		{"female", GenderFemale},
		{"other", GenderOther},
		{"", GenderUnknown},
		{"   ", GenderUnknown},
		{"xyz", GenderUnknown},
		{"७७७", GenderUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyGender(tt.in))
		})
	}
}
