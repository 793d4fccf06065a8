package scraper

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/restaurant-reviews/internal/review"
)

func extract(body []byte, sel Selectors, defaultRating float64) ([]review.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %w", ErrMalformedPage, err)
	}

	containers := doc.Find(sel.Container)
	if containers.Length() == 0 {
		return nil, ErrNoReviews
	}

	out := make([]review.Candidate, 0, containers.Length())
	var extractErr error
	containers.EachWithBreak(func(i int, s *goquery.Selection) bool {
		c, err := extractOne(s, sel, defaultRating)
		if err != nil {
			extractErr = fmt.Errorf("review %d: %w", i+1, err)
			return false
		}
		out = append(out, c)
		return true
	})
	if extractErr != nil {
		return nil, extractErr
	}
	return out, nil
}

func extractOne(s *goquery.Selection, sel Selectors, defaultRating float64) (review.Candidate, error) {
	var c review.Candidate

	if sel.Reviewer != "" {
		name, err := childText(s, sel.Reviewer)
		if err != nil {
			return review.Candidate{}, err
		}
		c.Reviewer = &name
	}

	text, err := childText(s, sel.Text)
	if err != nil {
		return review.Candidate{}, err
	}
	c.Testo = &text

	rating := defaultRating
	if sel.Rating != "" {
		raw, err := childText(s, sel.Rating)
		if err != nil {
			return review.Candidate{}, err
		}
		rating, err = parseRating(raw)
		if err != nil {
			return review.Candidate{}, err
		}
	}
	c.Voto = &rating

	return c, nil
}

func childText(s *goquery.Selection, selector string) (string, error) {
	node := s.Find(selector).First()
	if node.Length() == 0 {
		return "", fmt.Errorf("%w: missing %q", ErrMalformedPage, selector)
	}
	return strings.TrimSpace(node.Text()), nil
}

func parseRating(raw string) (float64, error) {
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: rating %q is not a number", ErrMalformedPage, raw)
	}
	return f, nil
}
