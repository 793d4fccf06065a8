package review

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Violation rules reported in ValidationError.
const (
	RuleRequired = "required"
	RuleLength   = "length"
	RuleRange    = "range"
)

// Violation describes one failed field constraint.
type Violation struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// ValidationError lists every constraint a candidate review failed.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "invalid review: " + strings.Join(parts, "; ")
}

func newValidationError(errs validator.ValidationErrors) *ValidationError {
	out := &ValidationError{Violations: make([]Violation, 0, len(errs))}
	for _, fe := range errs {
		out.Violations = append(out.Violations, toViolation(fe))
	}
	return out
}

func toViolation(fe validator.FieldError) Violation {
	v := Violation{Field: fe.Field()}
	switch fe.Tag() {
	case "required":
		v.Rule = RuleRequired
		v.Message = "field required"
	case "max":
		v.Rule = RuleLength
		v.Message = fmt.Sprintf("must not exceed %d characters", MaxTextLength)
	case "gte", "lte":
		v.Rule = RuleRange
		v.Message = fmt.Sprintf("must be between %g and %g", MinRating, MaxRating)
	default:
		v.Rule = fe.Tag()
		v.Message = fe.Error()
	}
	return v
}
