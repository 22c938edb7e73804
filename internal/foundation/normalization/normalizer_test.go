package normalization

import "testing"

type testEnum string

const (
	enumAlpha testEnum = "alpha"
	enumBeta  testEnum = "beta"
)

func newTestNormalizer() *EnumNormalizer[testEnum] {
	return NewEnumNormalizer("test enum", map[string]testEnum{
		"alpha": enumAlpha,
		"a":     enumAlpha,
		"beta":  enumBeta,
	}, "")
}

func TestNormalize(t *testing.T) {
	n := newTestNormalizer()
	tests := []struct {
		input string
		want  testEnum
	}{
		{"alpha", enumAlpha},
		{"  ALPHA ", enumAlpha},
		{"A", enumAlpha},
		{"Beta", enumBeta},
		{"gamma", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := n.Normalize(tt.input); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeWithValidation(t *testing.T) {
	n := newTestNormalizer()
	if v, err := n.NormalizeWithValidation("BETA"); err != nil || v != enumBeta {
		t.Fatalf("got %q, %v", v, err)
	}
	if _, err := n.NormalizeWithValidation("gamma"); err == nil {
		t.Fatal("expected error for unknown value")
	}
}

func TestValidValuesSorted(t *testing.T) {
	got := newTestNormalizer().ValidValues()
	want := []string{"a", "alpha", "beta"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}
