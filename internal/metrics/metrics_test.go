package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitIsIdempotent(t *testing.T) {
	Init()
	first := reviewsAddedTotal
	Init()
	if reviewsAddedTotal != first {
		t.Fatal("Init() re-created collectors")
	}
}

func TestObserveReviewsAdded(t *testing.T) {
	Init()
	before := testutil.ToFloat64(reviewsAddedTotal.WithLabelValues(SourceScrape))

	ObserveReviewsAdded(SourceScrape, 3, 10)
	ObserveReviewsAdded(SourceScrape, 0, 10)

	if got := testutil.ToFloat64(reviewsAddedTotal.WithLabelValues(SourceScrape)) - before; got != 3 {
		t.Errorf("expected 3 scraped reviews counted, got %f", got)
	}
	if got := testutil.ToFloat64(reviewsStored); got != 10 {
		t.Errorf("expected stored gauge 10, got %f", got)
	}
}

func TestObserveLoaderRowsAndScrape(t *testing.T) {
	Init()
	loadedBefore := testutil.ToFloat64(loaderRowsTotal.WithLabelValues("loaded"))
	skippedBefore := testutil.ToFloat64(loaderRowsTotal.WithLabelValues("skipped"))
	notFoundBefore := testutil.ToFloat64(scrapeRequestsTotal.WithLabelValues("not_found"))

	ObserveLoaderRows(4, 1)
	ObserveScrape("not_found", 20*time.Millisecond)

	if got := testutil.ToFloat64(loaderRowsTotal.WithLabelValues("loaded")) - loadedBefore; got != 4 {
		t.Errorf("expected 4 loaded rows, got %f", got)
	}
	if got := testutil.ToFloat64(loaderRowsTotal.WithLabelValues("skipped")) - skippedBefore; got != 1 {
		t.Errorf("expected 1 skipped row, got %f", got)
	}
	if got := testutil.ToFloat64(scrapeRequestsTotal.WithLabelValues("not_found")) - notFoundBefore; got != 1 {
		t.Errorf("expected 1 not_found scrape, got %f", got)
	}
	if n := testutil.CollectAndCount(scrapeDurationSeconds); n != 1 {
		t.Errorf("expected scrape histogram to be collected, got %d", n)
	}
}
