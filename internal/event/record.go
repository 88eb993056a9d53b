// Package event models openFDA food adverse-event reports and extracts typed
// fields from their loosely structured JSON. Extraction never fails hard:
// missing or malformed fields yield a distinguished "absent" result and the
// rest of the record stays usable.
package event

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// Record is one adverse-event report. Records are read-only inputs; only the
// fields the aggregation consumes are modeled.
type Record struct {
	DateStarted string          `json:"date_started"`
	DateCreated string          `json:"date_created"`
	Products    []Product       `json:"products"`
	Reactions   []ReactionEntry `json:"reactions"`
	Outcomes    []OutcomeEntry  `json:"outcomes"`
	Consumer    *Consumer       `json:"consumer"`
	Patient     *Patient        `json:"patient"`
	Gender      string          `json:"gender"`
	Age         Scalar          `json:"age"`
	AgeUnit     Scalar          `json:"age_unit"`
}

// Product is one entry of a record's product list. Brand-name keys vary
// across report vintages, so all three are modeled.
type Product struct {
	NameBrand string `json:"name_brand"`
	Name      string `json:"name"`
	BrandName string `json:"brand_name"`
	Role      string `json:"role"`
}

// Consumer holds the demographic sub-object present on most food reports.
type Consumer struct {
	Gender      string `json:"gender"`
	Age         Scalar `json:"age"`
	AgeYears    Scalar `json:"age_years"`
	AgeUnit     Scalar `json:"age_unit"`
	AgeUnitCode Scalar `json:"age_unit_code"`
}

// Patient holds the drug-style demographic sub-object some records carry
// instead of Consumer.
type Patient struct {
	Sex     string `json:"sex"`
	Age     Scalar `json:"age"`
	AgeUnit Scalar `json:"age_unit"`
}

// Scalar is a JSON value that may arrive as a number or a string. It decodes
// to its string form; anything else decodes to empty.
type Scalar string

func (s *Scalar) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		*s = Scalar(t)
	case float64:
		*s = Scalar(strconv.FormatFloat(t, 'f', -1, 64))
	default:
		*s = ""
	}
	return nil
}

// ReactionEntry is a reaction list element: either a plain string or an
// object carrying the term under one of several keys.
type ReactionEntry string

func (r *ReactionEntry) UnmarshalJSON(b []byte) error {
	*r = ReactionEntry(decodeTerm(b, "reactionmeddrapt", "reaction", "term"))
	return nil
}

// OutcomeEntry is an outcome list element, string or object form.
type OutcomeEntry string

func (o *OutcomeEntry) UnmarshalJSON(b []byte) error {
	*o = OutcomeEntry(decodeTerm(b, "outcome", "term"))
	return nil
}

// decodeTerm pulls a term out of a string or object element, trying the given
// keys in order. Unusable shapes yield an empty term.
func decodeTerm(b []byte, keys ...string) string {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return s
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return ""
	}
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// ParseReports decodes one data file: a JSON document whose top-level
// "results" field holds the record array. A syntactically invalid document is
// an error (the caller skips the whole file); per-field shape mismatches are
// tolerated and leave the remaining fields of each record populated.
func ParseReports(data []byte) ([]Record, error) {
	var doc struct {
		Results []Record `json:"results"`
	}
	err := json.Unmarshal(data, &doc)
	var typeErr *json.UnmarshalTypeError
	if err != nil && !errors.As(err, &typeErr) {
		return nil, err
	}
	return doc.Results, nil
}

// Year derives the report year from the start date, falling back to the
// created date. It reports false when neither field starts with four digits.
func (r *Record) Year() (int, bool) {
	ds := r.DateStarted
	if ds == "" {
		ds = r.DateCreated
	}
	if len(ds) < 4 {
		return 0, false
	}
	for i := 0; i < 4; i++ {
		if ds[i] < '0' || ds[i] > '9' {
			return 0, false
		}
	}
	y, _ := strconv.Atoi(ds[:4])
	return y, true
}

// NamedProduct is a product reference with its resolved display name and an
// uppercased role.
type NamedProduct struct {
	Name string
	Role string
}

// ProductList resolves each product entry's name (first present of
// name_brand, name, brand_name) and uppercased role. Entries without a name
// are skipped; a missing or malformed products field yields an empty list.
func (r *Record) ProductList() []NamedProduct {
	var out []NamedProduct
	for _, p := range r.Products {
		name := p.NameBrand
		if name == "" {
			name = p.Name
		}
		if name == "" {
			name = p.BrandName
		}
		if name == "" {
			continue
		}
		out = append(out, NamedProduct{Name: name, Role: strings.ToUpper(p.Role)})
	}
	return out
}

// ReactionTerms returns the record's non-empty reaction terms.
func (r *Record) ReactionTerms() []string {
	return terms(r.Reactions)
}

// OutcomeTerms returns the record's non-empty outcome terms.
func (r *Record) OutcomeTerms() []string {
	out := make([]string, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o != "" {
			out = append(out, string(o))
		}
	}
	return out
}

func terms(entries []ReactionEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if e != "" {
			out = append(out, string(e))
		}
	}
	return out
}

// GenderCode returns "F" or "M", or "" when the record carries no
// recognizable gender. Precedence: consumer.gender, top-level gender,
// patient.sex. Unrecognized codes map to "", never to a raw passthrough.
func (r *Record) GenderCode() string {
	g := ""
	if r.Consumer != nil && r.Consumer.Gender != "" {
		g = r.Consumer.Gender
	} else if r.Gender != "" {
		g = r.Gender
	} else if r.Patient != nil {
		g = r.Patient.Sex
	}
	switch strings.ToUpper(strings.TrimSpace(g)) {
	case "F", "FEMALE":
		return "F"
	case "M", "MALE":
		return "M"
	}
	return ""
}

// Age-unit conversion divisors. openFDA uses both word codes and the numeric
// C-SSRS-style codes 801/802/803.
var (
	yearUnits  = map[string]struct{}{"Y": {}, "YR": {}, "YRS": {}, "YEAR": {}, "YEARS": {}, "801": {}}
	monthUnits = map[string]struct{}{"M": {}, "MO": {}, "MOS": {}, "MONTH": {}, "MONTHS": {}, "802": {}}
	dayUnits   = map[string]struct{}{"D": {}, "DAY": {}, "DAYS": {}, "803": {}}
)

func member(set map[string]struct{}, s string) bool {
	_, ok := set[s]
	return ok
}

// AgeYears converts the record's age to years. Precedence for the value:
// consumer.age, consumer.age_years, top-level age, patient.age; the unit
// follows the same chain. The raw value must parse as a number and lie in
// (0, 1200]; the ceiling applies before unit conversion, so 1300 months is
// accepted while 1300 years is not. After conversion the result must lie in
// (0, 120] or it is discarded, never clamped.
func (r *Record) AgeYears() (float64, bool) {
	raw := r.ageRaw()
	if raw == "" {
		return 0, false
	}
	a, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || a <= 0 || a > 1200 {
		return 0, false
	}

	y := a
	unit := strings.ToUpper(strings.TrimSpace(r.ageUnitRaw()))
	switch {
	case member(yearUnits, unit):
		// identity
	case member(monthUnits, unit):
		y = a / 12.0
	case member(dayUnits, unit):
		y = a / 365.0
	default:
		// Unrecognized or absent units are treated as years.
	}

	if y <= 0 || y > 120 {
		return 0, false
	}
	return y, true
}

func (r *Record) ageRaw() string {
	if r.Consumer != nil {
		if r.Consumer.Age != "" {
			return string(r.Consumer.Age)
		}
		if r.Consumer.AgeYears != "" {
			return string(r.Consumer.AgeYears)
		}
	}
	if r.Age != "" {
		return string(r.Age)
	}
	if r.Patient != nil {
		return string(r.Patient.Age)
	}
	return ""
}

func (r *Record) ageUnitRaw() string {
	if r.Consumer != nil {
		if r.Consumer.AgeUnit != "" {
			return string(r.Consumer.AgeUnit)
		}
		if r.Consumer.AgeUnitCode != "" {
			return string(r.Consumer.AgeUnitCode)
		}
	}
	if r.AgeUnit != "" {
		return string(r.AgeUnit)
	}
	if r.Patient != nil {
		return string(r.Patient.AgeUnit)
	}
	return ""
}
