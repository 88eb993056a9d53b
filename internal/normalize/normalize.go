// Package normalize collapses free-text product, reaction, and outcome
// strings into canonical keys used for frequency counting. All functions are
// pure: the same input always yields the same key, and an empty or
// whitespace-only input yields an empty key.
package normalize

import (
	"regexp"
	"strings"
)

var (
	nonAlnumRE = regexp.MustCompile(`[^A-Z0-9]+`)
	upcRE      = regexp.MustCompile(`\bNO\s+UPC\b|\bUPC\b`)
	dosageRE   = regexp.MustCompile(`\b\d+(\.\d+)?\s*(MG|MCG|G|GRAM|GRAMS|ML|L|IU|OZ|LB|CFU)\b`)
	numberRE   = regexp.MustCompile(`\b\d+(\.\d+)?\b`)
	romanRE    = regexp.MustCompile(`\b[IVX]{1,6}\b`)
)

var stopWords = tokenSet(
	"THE", "AND", "WITH", "FOR", "OF", "TO", "IN", "A", "AN", "OR",
)

// Dosage-form and packaging words that carry no identity.
var formWords = tokenSet(
	"TABLET", "TABLETS", "CAPSULE", "CAPSULES", "SOFTGEL", "SOFTGELS",
	"GUMMY", "GUMMIES", "CHEW", "CHEWABLE", "CHEWABLES", "POWDER", "LIQUID",
	"DROPS", "SPRAY", "GEL", "LOTION", "CREAM", "DRINK", "BEVERAGE",
	"BAR", "BARS", "SHAKE", "SYRUP", "TEA", "PACKET", "BOTTLE", "JAR",
)

var unitWords = tokenSet(
	"MG", "MCG", "G", "GRAM", "GRAMS", "ML", "L", "IU", "OZ", "LB",
	"PERCENT", "CFU",
)

// Severity/staging qualifiers on reaction terms.
var qualifierWords = tokenSet(
	"NOS", "STAGE", "GRADE", "TYPE", "SEVERE", "MILD", "MODERATE",
	"ACUTE", "CHRONIC",
)

var lateralityWords = tokenSet(
	"UPPER", "LOWER", "LEFT", "RIGHT", "BILATERAL", "GENERALIZED", "LOCALIZED",
)

func tokenSet(words ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

// Clean is the base pass shared by every normalizer: trim, uppercase, expand
// "&" to "AND", squash every run of non-alphanumeric characters to a single
// space, and trim again. The result contains only uppercase letters, digits,
// and single interior spaces.
func Clean(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "&", " AND ")
	s = nonAlnumRE.ReplaceAllString(s, " ")
	return collapse(s)
}

// Product normalizes a product name: UPC noise, dosage expressions, bare
// numbers, stop words, dosage-form words, and unit words are stripped, then
// long names are truncated to their first two tokens. Truncation deliberately
// merges distinct products sharing a two-word prefix; that tradeoff keeps
// verbose label variants of one product in a single bucket.
func Product(s string) string {
	s = Clean(s)
	if s == "" {
		return ""
	}
	s = upcRE.ReplaceAllString(s, "")
	s = dosageRE.ReplaceAllString(s, "")
	s = numberRE.ReplaceAllString(s, "")
	s = dropTokens(s, stopWords, formWords, unitWords)
	return truncateLong(s)
}

// Reaction normalizes a reaction term: severity/staging qualifiers,
// laterality words, roman numerals, and bare numbers are stripped, then long
// terms are truncated to their first two tokens.
func Reaction(s string) string {
	s = Clean(s)
	if s == "" {
		return ""
	}
	s = dropTokens(s, qualifierWords, lateralityWords)
	s = romanRE.ReplaceAllString(s, "")
	s = numberRE.ReplaceAllString(s, "")
	return truncateLong(s)
}

// Outcome normalizes an outcome term. Outcomes are a small closed vocabulary,
// so only Clean is applied: no token removal and no truncation.
func Outcome(s string) string {
	return Clean(s)
}

// collapse squashes runs of whitespace to single spaces and trims the ends.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// dropTokens removes every token that appears in any of the given sets.
func dropTokens(s string, sets ...map[string]struct{}) string {
	fields := strings.Fields(s)
	kept := fields[:0]
	for _, f := range fields {
		drop := false
		for _, set := range sets {
			if _, ok := set[f]; ok {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, f)
		}
	}
	return strings.Join(kept, " ")
}

// truncateLong keeps only the first two tokens of a string that still has
// three or more, dropping trailing descriptors like REGULAR or RAPID RELEASE.
func truncateLong(s string) string {
	words := strings.Fields(s)
	if len(words) >= 3 {
		return strings.Join(words[:2], " ")
	}
	return strings.Join(words, " ")
}
