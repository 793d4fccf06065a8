// Package review defines the restaurant review record and the rules a review must
// satisfy before it can be stored.
package review

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// AnonymousReviewer is used when a review arrives without an author.
	AnonymousReviewer = "Anonymous"
	// MaxTextLength bounds the review body, counted in characters.
	MaxTextLength = 500
	// MinRating and MaxRating are the inclusive bounds of Voto.
	MinRating = 0.0
	MaxRating = 5.0
)

// Review is a validated restaurant review.
type Review struct {
	Reviewer  string   `json:"reviewer"`
	Testo     string   `json:"testo"`
	Sentiment *float64 `json:"sentiment"`
	Voto      float64  `json:"voto"`
}

// Candidate carries unvalidated review fields. Nil pointers mean the field was absent.
type Candidate struct {
	Reviewer  *string  `json:"reviewer"`
	Testo     *string  `json:"testo" validate:"required,max=500"`
	Sentiment *float64 `json:"sentiment"`
	Voto      *float64 `json:"voto" validate:"required,gte=0,lte=5"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// New validates c and returns the resulting Review. A blank reviewer becomes
// AnonymousReviewer. Constraint failures are reported as *ValidationError.
func New(c Candidate) (Review, error) {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return Review{}, newValidationError(fieldErrs)
		}
		return Review{}, fmt.Errorf("validate review: %w", err)
	}

	reviewer := AnonymousReviewer
	if c.Reviewer != nil && strings.TrimSpace(*c.Reviewer) != "" {
		reviewer = *c.Reviewer
	}
	r := Review{
		Reviewer: reviewer,
		Testo:    *c.Testo,
		Voto:     *c.Voto,
	}
	if c.Sentiment != nil {
		s := *c.Sentiment
		r.Sentiment = &s
	}
	return r, nil
}

// Candidate converts r back into its unvalidated form.
func (r Review) Candidate() Candidate {
	reviewer, testo, voto := r.Reviewer, r.Testo, r.Voto
	c := Candidate{Reviewer: &reviewer, Testo: &testo, Voto: &voto}
	if r.Sentiment != nil {
		s := *r.Sentiment
		c.Sentiment = &s
	}
	return c
}
