package extract

import (
	"reflect"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestParseProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("gender classification is total", prop.ForAll(
		func(s string) bool {
			switch ClassifyGender(s) {
			case GenderMale, GenderFemale, GenderOther, GenderUnknown:
				return true
			}
			return false
		},
		gen.AnyString(),
	))

	properties.Property("parsing never fails and keeps the raw text", prop.ForAll(
		func(s string) bool {
			f := Parse(s)
			switch f.Gender {
			case GenderMale, GenderFemale, GenderOther, GenderUnknown:
				return f.Raw == s
			}
			return false
		},
		gen.AnyString(),
	))

	properties.Property("parsing is deterministic", prop.ForAll(
		func(s string) bool {
			return reflect.DeepEqual(Parse(s), Parse(s))
		},
		gen.AnyString(),
	))

	properties.Property("age outside 1..120 is absent", prop.ForAll(
		func(n int) bool {
			f := Parse("वय : " + strconv.Itoa(n))
			if n >= 1 && n <= 120 {
				return f.Age != nil && *f.Age == strconv.Itoa(n)
			}
			return f.Age == nil
		},
		gen.IntRange(0, 10000),
	))

	properties.TestingRun(t)
}
