// Package schema decides which questions apply to a session and whether
// an answer is acceptable. Visibility gates both display and
// required-ness: a field whose governing condition is false can never
// block submission, regardless of its required flag.
package schema

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	apperrors "github.com/shaneHighPeek/beesold-mission-control/internal/errors"
)

// Engine evaluates an ordered list of step definitions against flat
// answer maps. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	steps  []StepDefinition
	byKey  map[string]int
	totals int
}

// NewEngine builds an engine over the given ordered step definitions.
func NewEngine(steps []StepDefinition) *Engine {
	byKey := make(map[string]int, len(steps))
	for i, step := range steps {
		byKey[step.Key] = i
	}
	return &Engine{steps: steps, byKey: byKey, totals: len(steps)}
}

// Steps returns the ordered step definitions.
func (e *Engine) Steps() []StepDefinition { return e.steps }

// TotalSteps is the number of steps in the questionnaire.
func (e *Engine) TotalSteps() int { return e.totals }

// Step looks up a step definition by key.
func (e *Engine) Step(key string) (StepDefinition, bool) {
	i, ok := e.byKey[key]
	if !ok {
		return StepDefinition{}, false
	}
	return e.steps[i], true
}

// IsVisible reports whether a field currently applies. A field with no
// condition is always visible.
func (e *Engine) IsVisible(field FieldDefinition, answers AnswerMap) bool {
	cond := field.Condition
	if cond == nil {
		return true
	}
	if len(cond.AnyOf) > 0 {
		for _, pair := range cond.AnyOf {
			if answers[pair.Field].matches(pair.Equals) {
				return true
			}
		}
		return false
	}
	if cond.NonEmpty {
		return !answers[cond.Field].IsBlank()
	}
	return answers[cond.Field].matches(cond.Equals)
}

// IsRequired reports whether a field blocks completion right now. A
// required-but-hidden field never does.
func (e *Engine) IsRequired(field FieldDefinition, answers AnswerMap) bool {
	return field.Required && e.IsVisible(field, answers)
}

// IsEmpty applies the per-type emptiness rules: booleans require literal
// true, list types require a non-empty list, numeric types require a
// parseable number, string types require non-blank text after trimming.
func (e *Engine) IsEmpty(field FieldDefinition, value Value) bool {
	switch {
	case field.Type == FieldBoolean:
		return !value.Bool()
	case field.Type == FieldMultiselect:
		return value.Kind() != KindStringList || len(value.List()) == 0
	case field.Type.IsNumeric():
		_, ok := ParseNumber(value)
		return !ok
	default:
		return value.IsBlank()
	}
}

// ValidateField checks one field's value: required-emptiness first, then
// regex, max word count, and numeric bounds. A nil result means the
// value is acceptable.
func (e *Engine) ValidateField(field FieldDefinition, value Value) *apperrors.FieldError {
	if e.IsEmpty(field, value) {
		if field.Required {
			return &apperrors.FieldError{Field: field.Name, Message: field.Label + " is required"}
		}
		return nil
	}

	if v := field.Validation; v != nil {
		if v.Regex != "" && value.Kind() == KindString {
			re, err := regexp.Compile(v.Regex)
			if err == nil && !re.MatchString(strings.TrimSpace(value.Str())) {
				return &apperrors.FieldError{Field: field.Name, Message: field.Label + " format is invalid"}
			}
		}
		if v.MaxWords > 0 && value.Kind() == KindString {
			if countWords(value.Str()) > v.MaxWords {
				return &apperrors.FieldError{
					Field:   field.Name,
					Message: fmt.Sprintf("%s cannot exceed %d words", field.Label, v.MaxWords),
				}
			}
		}
	}

	if field.Type.IsNumeric() {
		n, ok := ParseNumber(value)
		if !ok {
			return &apperrors.FieldError{Field: field.Name, Message: field.Label + " must be numeric"}
		}
		if v := field.Validation; v != nil {
			if v.Min != nil && n < *v.Min {
				return &apperrors.FieldError{
					Field:   field.Name,
					Message: fmt.Sprintf("%s must be at least %s", field.Label, formatBound(*v.Min)),
				}
			}
			if v.Max != nil && n > *v.Max {
				return &apperrors.FieldError{
					Field:   field.Name,
					Message: fmt.Sprintf("%s must be no more than %s", field.Label, formatBound(*v.Max)),
				}
			}
		}
	}

	return nil
}

// ValidateSumGroup checks a named cohort of numeric fields. It fires only
// once every member has a non-blank answer; partial groups are never
// flagged. The error, if any, is attached to the group id.
func (e *Engine) ValidateSumGroup(groupID string, fields []FieldDefinition, answers AnswerMap) *apperrors.FieldError {
	total := 0.0
	for _, field := range fields {
		value := answers[field.Name]
		if e.IsEmpty(field, value) {
			return nil
		}
		if n, ok := ParseNumber(value); ok {
			total += n
		}
	}
	if int(math.Round(total)) != 100 {
		return &apperrors.FieldError{
			Field:   groupID,
			Message: "Percentages in this group must total exactly 100%",
		}
	}
	return nil
}

// ValidateStep runs per-field validation on every currently visible field
// of the step, then every sum-group present in it. Hidden fields are
// skipped entirely. Unknown step keys yield a single error keyed by the
// step key itself.
func (e *Engine) ValidateStep(stepKey string, answers AnswerMap) []apperrors.FieldError {
	step, ok := e.Step(stepKey)
	if !ok {
		return []apperrors.FieldError{{Field: stepKey, Message: "Unknown step"}}
	}

	var errs []apperrors.FieldError
	for _, field := range step.Fields {
		if !e.IsVisible(field, answers) {
			continue
		}
		// Required-ness is visibility-gated; the field copy carries the
		// effective flag into the shared validation path.
		effective := field
		effective.Required = e.IsRequired(field, answers)
		if fe := e.ValidateField(effective, answers[field.Name]); fe != nil {
			errs = append(errs, *fe)
		}
	}

	seen := map[string]bool{}
	for _, field := range step.Fields {
		if field.Validation == nil || field.Validation.SumGroup == "" {
			continue
		}
		groupID := field.Validation.SumGroup
		if seen[groupID] {
			continue
		}
		seen[groupID] = true

		var members []FieldDefinition
		for _, candidate := range step.Fields {
			if candidate.Validation != nil && candidate.Validation.SumGroup == groupID {
				members = append(members, candidate)
			}
		}
		if fe := e.ValidateSumGroup(groupID, members, answers); fe != nil {
			errs = append(errs, *fe)
		}
	}

	return errs
}

// ParseNumber extracts a float from a value, stripping currency symbols,
// separators, and other non-numeric characters from string input.
func ParseNumber(value Value) (float64, bool) {
	switch value.Kind() {
	case KindNumber:
		return value.Num(), true
	case KindString:
		cleaned := stripNonNumeric(value.Str())
		if cleaned == "" || cleaned == "-" || cleaned == "." {
			return 0, false
		}
		n, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func stripNonNumeric(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

func formatBound(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
