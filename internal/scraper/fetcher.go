package scraper

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
)

const defaultTimeout = 15 * time.Second

type page struct {
	url        string
	statusCode int
	body       []byte
	duration   time.Duration
}

type fetchResult struct {
	page page
	err  error
}

type collectorHooks interface {
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

type fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

func newFetcher(cfg Config) *fetcher {
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	return &fetcher{cfg: cfg, baseCollector: c}
}

// fetch performs one GET. Any non-2xx status becomes a *StatusError.
func (f *fetcher) fetch(ctx context.Context, pageURL string) (page, error) {
	collector := f.buildCollector()

	done := make(chan fetchResult, 1)
	go func() {
		var res fetchResult
		start := time.Now()
		f.configureHooks(collector, start, &res)
		if err := collector.Visit(pageURL); err != nil && res.err == nil {
			res.err = err
		}
		done <- res
	}()

	select {
	case <-ctx.Done():
		return page{}, fmt.Errorf("fetch %s canceled: %w", pageURL, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return page{}, fmt.Errorf("fetch %s: %w", pageURL, res.err)
		}
		if res.page.statusCode < 200 || res.page.statusCode > 299 {
			return page{}, &StatusError{URL: pageURL, Code: res.page.statusCode}
		}
		return res.page, nil
	}
}

func (f *fetcher) buildCollector() *colly.Collector {
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.IgnoreRobotsTxt = !f.cfg.RespectRobots
	// Clones share the visited-URL store; the same page must be fetchable on every call.
	collector.AllowURLRevisit = true
	// Deliver 4xx/5xx through OnResponse so the status code can be reported.
	collector.ParseHTTPErrorResponse = true
	timeout := f.cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	collector.SetRequestTimeout(timeout)
	return collector
}

func (f *fetcher) configureHooks(hooks collectorHooks, start time.Time, res *fetchResult) {
	hooks.OnResponse(func(r *colly.Response) {
		res.page = page{
			url:        r.Request.URL.String(),
			statusCode: r.StatusCode,
			body:       append([]byte(nil), r.Body...),
			duration:   time.Since(start),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		res.err = err
	})
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          20,
		IdleConnTimeout:       90 * time.Second,
	}
}
