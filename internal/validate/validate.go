// Package validate implements the input normalization and validation pipeline
// for domain payloads. Free-text fields are normalized (whitespace collapsed)
// before any length or grammar check, and every field rule is evaluated so a
// single response can report all offending fields at once.
//
// The pipeline runs in two phases:
//  1. normalize all fields independently,
//  2. run field-level and cross-field rules against the normalized values,
//     accumulating failures per field.
//
// A failed run yields *Errors (field → ordered messages), which the HTTP layer
// renders as a single validation problem. Values are rejected, never silently
// coerced.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// periodRE is the fixed period-name grammar: "Q1 2025" … "Q4 2025" or "FY 2025".
var periodRE = regexp.MustCompile(`^(Q[1-4]|FY) \d{4}$`)

// Errors maps a field path to the ordered list of messages describing why the
// field was rejected. It implements error so it can travel through ordinary
// error returns and be recognized at the rendering boundary.
type Errors map[string][]string

// Error implements the error interface.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	return "validation failed: " + strings.Join(fields, ", ")
}

// add appends a message under field.
func (e Errors) add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Normalize trims leading and trailing whitespace and collapses every internal
// run of whitespace characters to a single ASCII space. It is idempotent.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// ObjectiveInput is the raw objective payload before normalization.
type ObjectiveInput struct {
	Title      string `json:"title"`
	PeriodName string `json:"period_name"`
}

// ObjectiveValues is a validated, normalized objective payload.
type ObjectiveValues struct {
	Title      string
	PeriodName string
}

// Objective normalizes and validates an objective payload. On failure it
// returns an Errors value listing every offending field.
func Objective(in ObjectiveInput) (ObjectiveValues, error) {
	v := ObjectiveValues{
		Title:      Normalize(in.Title),
		PeriodName: Normalize(in.PeriodName),
	}

	errs := Errors{}
	checkTitle(errs, "title", v.Title)
	if !periodRE.MatchString(v.PeriodName) {
		errs.add("period_name", "must be 'Q1 2025', 'Q2 2025', ..., 'Q4 2025', or 'FY 2025'")
	}
	if len(errs) > 0 {
		return ObjectiveValues{}, errs
	}
	return v, nil
}

// KeyResultInput is the raw key-result payload before normalization. Numeric
// fields are pointers so that absent values can be reported rather than
// defaulting to zero.
type KeyResultInput struct {
	Title    string   `json:"title"`
	Metric   string   `json:"metric"`
	Target   *float64 `json:"target"`
	Progress *float64 `json:"progress"`
}

// KeyResultValues is a validated, normalized key-result payload.
type KeyResultValues struct {
	Title    string
	Metric   string
	Target   float64
	Progress float64
}

// KeyResult normalizes and validates a key-result payload, including the
// cross-field progress ≤ target rule. All field failures accumulate; the
// cross-field rule is only evaluated when target itself is present and valid.
func KeyResult(in KeyResultInput) (KeyResultValues, error) {
	v := KeyResultValues{
		Title:  Normalize(in.Title),
		Metric: Normalize(in.Metric),
	}

	errs := Errors{}
	checkTitle(errs, "title", v.Title)

	if n := utf8.RuneCountInString(v.Metric); n < 1 {
		errs.add("metric", "must not be empty")
	} else if n > 100 {
		errs.add("metric", "must not exceed 100 characters")
	}

	targetOK := false
	switch {
	case in.Target == nil:
		errs.add("target", "field required")
	case *in.Target <= 0:
		errs.add("target", "must be greater than 0")
	default:
		v.Target = *in.Target
		targetOK = true
	}

	switch {
	case in.Progress == nil:
		errs.add("progress", "field required")
	case *in.Progress < 0:
		errs.add("progress", "must be greater than or equal to 0")
	case targetOK && *in.Progress > v.Target:
		errs.add("progress", "must not exceed target")
	default:
		v.Progress = *in.Progress
	}

	if len(errs) > 0 {
		return KeyResultValues{}, errs
	}
	return v, nil
}

// checkTitle applies the shared 3–200 rune length rule for titles.
func checkTitle(errs Errors, field, title string) {
	switch n := utf8.RuneCountInString(title); {
	case n < 3:
		errs.add(field, "must be at least 3 characters")
	case n > 200:
		errs.add(field, "must not exceed 200 characters")
	}
}
