package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/restaurant-reviews/internal/config"
	idgen "github.com/JakeFAU/restaurant-reviews/internal/id/uuid"
	"github.com/JakeFAU/restaurant-reviews/internal/loader"
	"github.com/JakeFAU/restaurant-reviews/internal/review"
	"github.com/JakeFAU/restaurant-reviews/internal/scraper"
	"github.com/JakeFAU/restaurant-reviews/internal/service"
	"github.com/JakeFAU/restaurant-reviews/internal/storage/memory"
)

const upstreamPage = `<html><body>
<div class="review-container">
  <span class="reviewer-name">Luca</span>
  <p class="review-text">Buonissima</p>
  <span class="review-rating">5</span>
</div>
<div class="review-container">
  <span class="reviewer-name">Anna</span>
  <p class="review-text">Troppo cara</p>
  <span class="review-rating">9</span>
</div>
</body></html>`

type testEnv struct {
	server *httptest.Server
	store  *memory.ReviewStore
	svc    *service.Service
}

func newTestEnv(t *testing.T, upstream http.Handler) *testEnv {
	t.Helper()

	var sc service.Scraper
	if upstream != nil {
		up := httptest.NewServer(upstream)
		t.Cleanup(up.Close)
		sc = scraper.New(scraper.Config{
			URLTemplate: up.URL + "/domicilio-%s/reviews",
			UserAgent:   "reviews-test",
			Timeout:     5 * time.Second,
			Selectors: scraper.Selectors{
				Container: "div.review-container",
				Reviewer:  "span.reviewer-name",
				Text:      "p.review-text",
				Rating:    "span.review-rating",
			},
		}, zap.NewNop())
	}

	store := memory.NewReviewStore()
	svc := service.New(store, sc, zap.NewNop())
	cfg := config.Config{Server: config.ServerConfig{Port: 8080, RequestTimeoutSeconds: 5}}
	srv := httptest.NewServer(NewServer(svc, idgen.New(), cfg, zap.NewNop()).Handler())
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, store: store, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, path string, body []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), method, e.server.URL+path, bytes.NewReader(body))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func TestAddReviewStoresValidPayload(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/add_review/",
		[]byte(`{"reviewer":"Mario","testo":"Great","voto":4.5}`))

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	var got review.Review
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, review.Review{Reviewer: "Mario", Testo: "Great", Voto: 4.5}, got)
	require.Equal(t, 1, env.store.Len())
}

func TestAddReviewRejectsOutOfRangeRating(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodPost, "/add_review/",
		[]byte(`{"reviewer":"Mario","testo":"Great","voto":6}`))

	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var payload struct {
		Error      string             `json:"error"`
		Violations []review.Violation `json:"violations"`
	}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.Equal(t, "validation failed", payload.Error)
	require.Len(t, payload.Violations, 1)
	require.Equal(t, "voto", payload.Violations[0].Field)
	require.Equal(t, review.RuleRange, payload.Violations[0].Rule)
	require.Zero(t, env.store.Len())
}

func TestAddReviewBadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		code int
	}{
		{name: "malformed json", body: `{"testo":`, code: http.StatusBadRequest},
		{name: "empty body", body: ``, code: http.StatusBadRequest},
		{name: "wrong type", body: `{"testo":"ok","voto":"four"}`, code: http.StatusUnprocessableEntity},
		{name: "missing fields", body: `{}`, code: http.StatusUnprocessableEntity},
		{name: "text too long", body: `{"testo":"` + strings.Repeat("a", 501) + `","voto":3}`, code: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, nil)

			resp, body := env.do(t, http.MethodPost, "/add_review/", []byte(tt.body))
			require.Equal(t, tt.code, resp.StatusCode)

			var payload map[string]any
			require.NoError(t, json.Unmarshal(body, &payload))
			require.Contains(t, payload, "error")
			require.Zero(t, env.store.Len())
		})
	}
}

func TestListReviewsInInsertionOrder(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/reviews/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(body))

	names := []string{"Mario", "", "Giulia"}
	for _, name := range names {
		payload, err := json.Marshal(map[string]any{"reviewer": name, "testo": "ok", "voto": 3})
		require.NoError(t, err)
		resp, _ := env.do(t, http.MethodPost, "/add_review/", payload)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body = env.do(t, http.MethodGet, "/reviews/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []review.Review
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, len(names))
	require.Equal(t, "Mario", got[0].Reviewer)
	require.Equal(t, review.AnonymousReviewer, got[1].Reviewer)
	require.Equal(t, "Giulia", got[2].Reviewer)
}

func TestScrapeReviewsStoresValidOnes(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 2)
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.EscapedPath()
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(upstreamPage))
	}))

	for _, path := range []string{
		"/scrape_reviews/?restaurant_name=da-mario",
		"/scrape_reviews/da-mario",
	} {
		resp, body := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)

		var got []review.Review
		require.NoError(t, json.Unmarshal(body, &got))
		require.Equal(t, []review.Review{{Reviewer: "Luca", Testo: "Buonissima", Voto: 5}}, got)
		require.Equal(t, "/domicilio-da-mario/reviews", <-paths)
	}
	require.Equal(t, 2, env.store.Len())
}

func TestScrapeReviewsEscapedNameMatchesQueryForm(t *testing.T) {
	t.Parallel()

	paths := make(chan string, 2)
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths <- r.URL.EscapedPath()
		_, _ = w.Write([]byte(upstreamPage))
	}))

	for _, path := range []string{
		"/scrape_reviews/pizza%2Fnapoli",
		"/scrape_reviews/?restaurant_name=pizza%2Fnapoli",
	} {
		resp, _ := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Equal(t, "/domicilio-pizza%2Fnapoli/reviews", <-paths, path)
	}
}

func TestScrapeReviewsNotFound(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		upstream http.HandlerFunc
	}{
		{
			name: "upstream 404",
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				http.NotFound(w, nil)
			},
		},
		{
			name: "no review markup",
			upstream: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`<html><body><p>Nessuna recensione</p></body></html>`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t, tt.upstream)

			resp, body := env.do(t, http.MethodGet, "/scrape_reviews/nowhere", nil)
			require.Equal(t, http.StatusNotFound, resp.StatusCode)
			require.JSONEq(t, `{"error":"No reviews found or error in scraping."}`, string(body))
			require.Zero(t, env.store.Len())
		})
	}
}

func TestScrapeReviewsMalformedPage(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<div class="review-container"><p class="review-text">x</p></div>`))
	}))

	resp, _ := env.do(t, http.MethodGet, "/scrape_reviews/broken", nil)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestScrapeReviewsBlankName(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, body := env.do(t, http.MethodGet, "/scrape_reviews/?restaurant_name=%20", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.JSONEq(t, `{"error":"restaurant name is required"}`, string(body))
}

func TestLoadReport(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	resp, _ := env.do(t, http.MethodGet, "/load_report/", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, env.svc.Seed(context.Background(), loader.Result{
		Reviews: []review.Review{{Reviewer: "Mario", Testo: "ok", Voto: 4}},
		Report: loader.Report{
			Source:     "reviews.xlsx",
			Loaded:     1,
			Skipped:    1,
			Skips:      []loader.SkippedRow{{Row: 3, Reason: "voto: must be between 0 and 5"}},
			StartedAt:  started,
			FinishedAt: started.Add(time.Second),
		},
	}))

	resp, body := env.do(t, http.MethodGet, "/load_report/", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got loader.Report
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, 1, got.Loaded)
	require.Equal(t, 1, got.Skipped)
	require.Equal(t, "reviews.xlsx", got.Source)
	require.True(t, started.Equal(got.StartedAt))
}

func TestOperationalEndpoints(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, nil)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, _ := env.do(t, http.MethodGet, path, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

type failingService struct{}

func (failingService) Add(context.Context, review.Candidate) (review.Review, error) {
	return review.Review{}, errors.New("disk on fire")
}

func (failingService) List(context.Context) ([]review.Review, error) {
	return nil, errors.New("disk on fire")
}

func (failingService) Scrape(context.Context, string) ([]review.Review, error) {
	panic("boom")
}

func (failingService) Report() (loader.Report, bool) { return loader.Report{}, false }

func TestServiceFailuresMapToServerErrors(t *testing.T) {
	t.Parallel()

	cfg := config.Config{Server: config.ServerConfig{RequestTimeoutSeconds: 5}}
	handler := NewServer(failingService{}, idgen.New(), cfg, zap.NewNop()).Handler()

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{method: http.MethodPost, path: "/add_review/", body: `{"testo":"ok","voto":1}`},
		{method: http.MethodGet, path: "/reviews/"},
		{method: http.MethodGet, path: "/scrape_reviews/x"},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusInternalServerError, rec.Code, tt.path)
	}
}
