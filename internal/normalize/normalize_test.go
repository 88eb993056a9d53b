package normalize

import (
	"strings"
	"testing"
)

func TestCleanBasics(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"", ""},
		{"   ", ""},
		{"  ViTaMin - C ", "VITAMIN C"},
		{"a&b", "A AND B"},
		{"fish  oil!!", "FISH OIL"},
		{"omega-3 (fish oil)", "OMEGA 3 FISH OIL"},
	}
	for _, c := range cases {
		if got := Clean(c.in); got != c.want {
			t.Errorf("Clean(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestCleanOutputCharset(t *testing.T) {
	inputs := []string{
		"Vitamin C 500 MG Tablets",
		"  café-au-lait &&& sugar  ",
		"weird\t\nwhitespace everywhere",
		"UPC 0123456789",
	}
	for _, in := range inputs {
		got := Clean(in)
		if got != strings.TrimSpace(got) {
			t.Errorf("Clean(%q) has leading/trailing space: %q", in, got)
		}
		for i, r := range got {
			ok := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' '
			if !ok {
				t.Errorf("Clean(%q) has invalid rune %q at %d", in, r, i)
			}
			if r == ' ' && i > 0 && got[i-1] == ' ' {
				t.Errorf("Clean(%q) has a double space: %q", in, got)
			}
		}
	}
}

func TestProductDosageStripping(t *testing.T) {
	a := Product("Vitamin C 500 MG Tablets")
	b := Product("Vitamin C 1000mg Tablet")
	if a != b {
		t.Errorf("dosage variants should share a key: %q vs %q", a, b)
	}
	if a != "VITAMIN C" {
		t.Errorf("Product dosage strip = %q, want %q", a, "VITAMIN C")
	}
}

func TestProductStripping(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"NO UPC Fish Oil", "FISH OIL"},
		{"UPC 123 Fish Oil", "FISH OIL"},
		{"Calcium 0.5 mg", "CALCIUM"},
		{"Protein Powder Shake", "PROTEIN"},
		{"The Best of Greens", "BEST GREENS"},
		{"Gummy Bears 100 CFU", "BEARS"},
		{"500 MG", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := Product(c.in); got != c.want {
			t.Errorf("Product(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestProductTruncation(t *testing.T) {
	got := Product("Super Energy Boost Extreme")
	if got != "SUPER ENERGY" {
		t.Errorf("Product truncation = %q, want %q", got, "SUPER ENERGY")
	}
	// Two tokens survive untruncated.
	if got := Product("Fish Oil"); got != "FISH OIL" {
		t.Errorf("Product(%q) = %q", "Fish Oil", got)
	}
}

func TestReactionStagingCollapse(t *testing.T) {
	a := Reaction("Nausea Grade II")
	b := Reaction("Nausea")
	if a != b || a != "NAUSEA" {
		t.Errorf("staging collapse: %q vs %q, want NAUSEA", a, b)
	}
}

func TestReactionStripping(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Abdominal Pain Upper", "ABDOMINAL PAIN"},
		{"Burn Type III", "BURN"},
		{"Severe Vomiting", "VOMITING"},
		{"Rash Stage 2", "RASH"},
		{"Anaphylactic Shock Reaction", "ANAPHYLACTIC SHOCK"},
	}
	for _, c := range cases {
		if got := Reaction(c.in); got != c.want {
			t.Errorf("Reaction(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestOutcomeKeepsTokens(t *testing.T) {
	// Outcomes must not be truncated or token-stripped.
	got := Outcome("Visited an Emergency Room")
	if got != "VISITED AN EMERGENCY ROOM" {
		t.Errorf("Outcome = %q, want full cleaned string", got)
	}
}

func TestIdempotence(t *testing.T) {
	inputs := []string{
		"Vitamin C 500 MG Tablets",
		"Super Energy Boost Extreme",
		"NO UPC Fish Oil",
		"Nausea Grade II",
		"Abdominal Pain Upper Left",
		"Visited an Emergency Room",
	}
	for _, in := range inputs {
		if p := Product(in); Product(p) != p {
			t.Errorf("Product not idempotent on %q: %q -> %q", in, p, Product(p))
		}
		if r := Reaction(in); Reaction(r) != r {
			t.Errorf("Reaction not idempotent on %q: %q -> %q", in, r, Reaction(r))
		}
		if o := Outcome(in); Outcome(o) != o {
			t.Errorf("Outcome not idempotent on %q: %q -> %q", in, o, Outcome(o))
		}
	}
}
