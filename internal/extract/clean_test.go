package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPersonName(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		maxWords int
		want     string
	}{
		{"plain devanagari", "गणेश कुमार पाटील", 4, "गणेश कुमार पाटील"},
		{"pipe noise becomes space", "गणेश|पाटील", 4, "गणेश पाटील"},
		{"slash and angle noise", "गणेश/पाटील <कुमार>", 4, "गणेश पाटील कुमार"},
		{"short latin tokens dropped", "गणेश xy पाटील", 4, "गणेश पाटील"},
		{"long latin words kept", "Ganesh Kumar Patil", 4, "Ganesh Kumar Patil"},
		{"stray symbols stripped", "गणेश* =पाटील", 4, "गणेश पाटील"},
		{"whitespace collapsed", "गणेश   कुमार \t पाटील", 4, "गणेश कुमार पाटील"},
		{"capped at four words", "एक दोन तीन चार पाच", 4, "एक दोन तीन चार"},
		{"capped at three words", "एक दोन तीन चार", 3, "एक दोन तीन"},
		{"all noise yields empty", "|| // <>", 4, ""},
		{"empty input", "", 4, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanPersonName(tt.in, tt.maxWords))
		})
	}
}

func TestRepairIDToken(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"confused tail digits", "ABC12B4S67", "ABC1284567"},
		{"letter prefix trusted", "XFCO123456", "XFCO123456"},
		{"fifth letter repaired", "ABCDO12345", "ABCD012345"},
		{"o and i in tail", "AB1OI23456", "AB10123456"},
		{"devanagari passthrough", "मतदान", "मतदान"},
		{"digits only", "123456", "123456"},
		{"lowercase is not a prefix", "abc123", "abc123"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairIDToken(tt.in))
		})
	}
}
