package sanitizer

import "testing"

func TestTrimAndNormalize(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Jane Diver", "Jane Diver"},
		{"leading and trailing spaces", "  Jane Diver  ", "Jane Diver"},
		{"collapsed inner whitespace", "Jane \t  Diver", "Jane Diver"},
		{"newlines", "Jane\nDiver", "Jane Diver"},
		{"empty", "", ""},
		{"only whitespace", "   \t\n  ", ""},
		{"unicode preserved", "José  Müller", "José Müller"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := TrimAndNormalize(tc.input)
			if got != tc.want {
				t.Errorf("TrimAndNormalize(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTrimAndNormalize_Idempotent(t *testing.T) {
	inputs := []string{"  Jane   Diver ", "plain", "", " mixed\twhitespace\nhere "}

	for _, input := range inputs {
		once := TrimAndNormalize(input)
		twice := TrimAndNormalize(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"  Diver@Example.COM ", "diver@example.com"},
		{"already@lower.com", "already@lower.com"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := NormalizeEmail(tc.input); got != tc.want {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}
