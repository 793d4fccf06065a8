// Package loader turns a spreadsheet of reviews into validated reviews plus a report of
// the rows it had to skip. It runs once at start-up; a bad row never aborts the load.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/restaurant-reviews/internal/clock/system"
	"github.com/JakeFAU/restaurant-reviews/internal/review"
)

// Column names recognised in the header row (case-insensitive).
const (
	ColumnReviewer  = "reviewer"
	ColumnTesto     = "testo"
	ColumnVoto      = "voto"
	ColumnSentiment = "sentiment"
)

// ErrMissingColumns is returned when the header row names none of the review columns.
var ErrMissingColumns = errors.New("header row has no reviewer, testo or voto column")

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// Options tune how rows are read and defaulted.
type Options struct {
	// Sheet selects the worksheet of an .xlsx source; empty means the first sheet.
	Sheet string
	// DefaultText replaces a missing or blank testo cell.
	DefaultText string
	Clock       Clock
}

// Result is the outcome of a load: the valid reviews in source order and the report.
type Result struct {
	Reviews []review.Review
	Report  Report
}

// Report summarises a load.
type Report struct {
	Source     string       `json:"source"`
	Loaded     int          `json:"loaded"`
	Skipped    int          `json:"skipped"`
	Skips      []SkippedRow `json:"skips"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`
}

// SkippedRow records a row that failed validation. Row is the 1-based sheet row.
type SkippedRow struct {
	Row    int               `json:"row"`
	Values map[string]string `json:"values"`
	Reason string            `json:"reason"`
}

// Loader reads review spreadsheets.
type Loader struct {
	opts   Options
	logger *zap.Logger
}

// New constructs a Loader.
func New(opts Options, logger *zap.Logger) *Loader {
	if opts.Clock == nil {
		opts.Clock = system.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{opts: opts, logger: logger.Named("loader")}
}

// Load reads path and validates each data row. Errors are returned only when the
// source itself cannot be read.
func (l *Loader) Load(ctx context.Context, path string) (Result, error) {
	report := Report{Source: path, Skips: []SkippedRow{}, StartedAt: l.opts.Clock.Now()}

	rows, err := readRows(path, l.opts.Sheet)
	if err != nil {
		return Result{}, err
	}

	var reviews []review.Review
	if len(rows) > 0 {
		cols := indexHeader(rows[0])
		if !cols.hasAny(ColumnReviewer, ColumnTesto, ColumnVoto) {
			return Result{}, fmt.Errorf("load %s: %w", path, ErrMissingColumns)
		}
		for i, cells := range rows[1:] {
			if err := ctx.Err(); err != nil {
				return Result{}, fmt.Errorf("load %s: %w", path, err)
			}
			if isBlank(cells) {
				continue
			}
			rowNum := i + 2
			values := cols.values(cells)
			r, err := l.buildReview(values)
			if err != nil {
				l.logger.Warn("skipping invalid review row",
					zap.Int("row", rowNum),
					zap.Any("values", values),
					zap.Error(err),
				)
				report.Skips = append(report.Skips, SkippedRow{Row: rowNum, Values: values, Reason: err.Error()})
				continue
			}
			reviews = append(reviews, r)
		}
	}

	report.Loaded = len(reviews)
	report.Skipped = len(report.Skips)
	report.FinishedAt = l.opts.Clock.Now()
	l.logger.Info("reviews loaded",
		zap.String("source", path),
		zap.Int("loaded", report.Loaded),
		zap.Int("skipped", report.Skipped),
	)
	return Result{Reviews: reviews, Report: report}, nil
}

func (l *Loader) buildReview(values map[string]string) (review.Review, error) {
	var c review.Candidate

	if v, ok := values[ColumnReviewer]; ok && v != "" {
		c.Reviewer = &v
	}

	testo := l.opts.DefaultText
	if v, ok := values[ColumnTesto]; ok && v != "" {
		testo = v
	}
	c.Testo = &testo

	voto := 0.0
	if v, ok := values[ColumnVoto]; ok && v != "" {
		parsed, err := parseNumber(v)
		if err != nil {
			return review.Review{}, fmt.Errorf("voto: %w", err)
		}
		voto = parsed
	}
	c.Voto = &voto

	if v, ok := values[ColumnSentiment]; ok && v != "" {
		parsed, err := parseNumber(v)
		if err != nil {
			return review.Review{}, fmt.Errorf("sentiment: %w", err)
		}
		c.Sentiment = &parsed
	}

	r, err := review.New(c)
	if err != nil {
		return review.Review{}, fmt.Errorf("validate row: %w", err)
	}
	return r, nil
}

// parseNumber accepts both "4.5" and the Italian "4,5".
func parseNumber(raw string) (float64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", ".")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return f, nil
}

type header map[string]int

func indexHeader(cells []string) header {
	h := make(header, len(cells))
	for i, name := range cells {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if key == "" {
			continue
		}
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

func (h header) hasAny(names ...string) bool {
	for _, n := range names {
		if _, ok := h[n]; ok {
			return true
		}
	}
	return false
}

// values maps each known column to its trimmed cell; short rows yield "" cells.
func (h header) values(cells []string) map[string]string {
	out := make(map[string]string, len(h))
	for name, idx := range h {
		v := ""
		if idx < len(cells) {
			v = strings.TrimSpace(cells[idx])
		}
		out[name] = v
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
