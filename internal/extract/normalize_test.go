package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeText_MisreadCorrections(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"gender label misread", "लिग : पुरुष", "लिंग : पुरुष"},
		{"gender label long vowel", "लींग : स्त्री", "लिंग : स्त्री"},
		{"husband label misread", "पतिचे नाव : गणेश", "पतीचे नाव : गणेश"},
		{"house label abbreviated", "घर क्र. : १२", "घर क्रमांक : १२"},
		{"voter label misread", "मतराराचे नाव : गणेश", "मतदाराचे नाव : गणेश"},
		{"clean text untouched", "मतदाराचे पूर्ण नाव : गणेश", "मतदाराचे पूर्ण नाव : गणेश"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeText(tt.in))
		})
	}
}

func TestNormalizeText_RemovesZeroWidthCharacters(t *testing.T) {
	assert.Equal(t, "मतदार", NormalizeText("मत\u200bदार"))
	assert.Equal(t, "वय", NormalizeText("\ufeffवय"))
}

func TestNormalizeText_KeepsZeroWidthJoiners(t *testing.T) {
	// ZWJ participates in Devanagari conjunct rendering and must survive.
	in := "श्र‍ी"
	assert.Equal(t, in, NormalizeText(in))
}

func TestNormalizeText_Idempotent(t *testing.T) {
	inputs := []string{
		"लिग : पुरुष",
		"घर क्र. : १२",
		"मतदाराचे पूर्ण नाव : गणेश कुमार पाटील",
		"",
	}
	for _, in := range inputs {
		once := NormalizeText(in)
		assert.Equal(t, once, NormalizeText(once))
	}
}

func TestNormalizeDigits(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"devanagari digits", "१२३", "123"},
		{"mixed text", "वय ४५", "वय 45"},
		{"ascii passthrough", "age 45", "age 45"},
		{"all ten digits", "०१२३४५६७८९", "0123456789"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDigits(tt.in))
		})
	}
}
