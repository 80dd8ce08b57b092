package sanitizer

import "testing"

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"already E.164", "+201001234567", "+201001234567"},
		{"E.164 with spaces", " +201001234567 ", "+201001234567"},
		{"US number with prefix", "+1 212 555 0123", "+12125550123"},
		{"local Egyptian mobile", "01001234567", "+201001234567"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NormalizePhone(tc.input)
			if got != tc.want {
				t.Errorf("NormalizePhone(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizePhone_UnparseableComesBackUnchanged(t *testing.T) {
	inputs := []string{"not-a-phone", "123"}

	for _, input := range inputs {
		if got := NormalizePhone(input); got != input {
			t.Errorf("NormalizePhone(%q) = %q, want input unchanged", input, got)
		}
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	inputs := []string{"+201001234567", "01001234567", ""}

	for _, input := range inputs {
		once := NormalizePhone(input)
		twice := NormalizePhone(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
