package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gocolly/colly/v2"
)

var ErrMaxRetry = errors.New("max retry")
var ErrStatus = errors.New("unexpected status")
var ErrDecode = errors.New("undecodable response body")

const (
	defaultTimeout   = 10 * time.Second
	defaultRetryCnt  = 3
	defaultUserAgent = "hnfeed/0.1 (+https://github.com/SirZenith/hnfeed)"
)

type Options struct {
	Timeout     time.Duration // request timeout, negative value means default
	RetryCnt    int           // retry count for transport failure
	Delay       time.Duration // delay between two requests to the same domain
	Parallelism int           // maximum concurrent requests per domain, 0 for no limit
	UserAgent   string
	Headers     map[string]string
}

// Response is a completed request with decoded body.
type Response struct {
	URL        string
	StatusCode int
	Header     http.Header
	Body       []byte
}

// ContentType returns media type of response without parameters.
func (r *Response) ContentType() string {
	value := r.Header.Get("Content-Type")
	if value == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(value)
	if err != nil {
		mediaType, _, _ = strings.Cut(value, ";")
	}

	return strings.ToLower(strings.TrimSpace(mediaType))
}

func (r *Response) Text() string {
	return string(r.Body)
}

// Fetcher performs blocking requests on top of a colly collector. Every call
// runs on a clone of the base collector so callbacks of concurrent requests
// never see each other, while HTTP backend and limit rules stay shared.
type Fetcher struct {
	base     *colly.Collector
	retryCnt int
}

func NewFetcher(opts Options) *Fetcher {
	headers := map[string]string{
		"Accept-Encoding": AcceptEncoding,
	}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	c := colly.NewCollector(
		colly.Headers(headers),
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
	)

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c.SetRequestTimeout(timeout)

	if opts.Delay > 0 || opts.Parallelism > 0 {
		err := c.Limit(&colly.LimitRule{
			DomainGlob:  "*",
			Delay:       opts.Delay,
			Parallelism: opts.Parallelism,
		})
		if err != nil {
			log.Warnf("failed to set request limit rule: %s", err)
		}
	}

	retryCnt := opts.RetryCnt
	if retryCnt < 0 {
		retryCnt = defaultRetryCnt
	}

	return &Fetcher{
		base:     c,
		retryCnt: retryCnt,
	}
}

// Get requests given URL and returns its decompressed response. Transport
// errors and 5xx responses are retried, other status codes fail at once.
func (f *Fetcher) Get(ctx context.Context, url string) (*Response, error) {
	return f.visit(ctx, url, nil)
}

// GetJSON requests given URL and decodes response body into `v`.
func (f *Fetcher) GetJSON(ctx context.Context, url string, v any) error {
	resp, err := f.Get(ctx, url)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(resp.Body, v); err != nil {
		return fmt.Errorf("could not deserialize response from %s: %w", url, err)
	}

	return nil
}

// OnHTML requests a page and calls `callback` for every element matching
// `selector`. The returned response carries URL after redirects.
func (f *Fetcher) OnHTML(ctx context.Context, url string, selector string, callback colly.HTMLCallback) (*Response, error) {
	return f.visit(ctx, url, func(c *colly.Collector) {
		c.OnHTML(selector, callback)
	})
}

func (f *Fetcher) visit(ctx context.Context, url string, setup func(*colly.Collector)) (*Response, error) {
	var lastErr error

	for retryCnt := 0; retryCnt <= f.retryCnt; retryCnt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if retryCnt > 0 {
			log.Debugf("retry %d/%d: %s", retryCnt, f.retryCnt, url)
		}

		resp, err := f.visitOnce(ctx, url, setup)
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("%w: %s: %w", ErrMaxRetry, url, lastErr)
}

func (f *Fetcher) visitOnce(ctx context.Context, url string, setup func(*colly.Collector)) (*Response, error) {
	c := f.base.Clone()
	c.Context = ctx

	var result *Response
	var statusCode int
	var decodeErr error

	c.OnResponse(func(r *colly.Response) {
		data, err := DecompressResponseBody(r)
		if err != nil {
			log.Warnf("%s: %s", r.Request.URL, err)
			decodeErr = err
			return
		}
		r.Body = data

		header := http.Header{}
		if r.Headers != nil {
			header = r.Headers.Clone()
		}

		result = &Response{
			URL:        r.Request.URL.String(),
			StatusCode: r.StatusCode,
			Header:     header,
			Body:       r.Body,
		}
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil {
			statusCode = r.StatusCode
		}
	})

	if setup != nil {
		setup(c)
	}

	err := c.Visit(url)
	if err != nil {
		if statusCode != 0 {
			return nil, &StatusError{URL: url, StatusCode: statusCode}
		}
		return nil, fmt.Errorf("failed to request %s: %w", url, err)
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, url, decodeErr)
	}

	if result == nil {
		return nil, fmt.Errorf("no response received for %s", url)
	}

	return result, nil
}

// StatusError is returned for responses with status code other than 2xx.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *StatusError) Unwrap() error {
	return ErrStatus
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, ErrDecode) {
		return false
	}

	statusErr := &StatusError{}
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}

	return true
}

type headerValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ReadHeaderFile reads header value from file and stores then into the map
// passed as argument. Header file should a JSON containing array of header
// objects. Each header objects should be object with tow string field `name`
// and `value`.
func ReadHeaderFile(path string, result map[string]string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	list := []headerValue{}
	err = json.Unmarshal(data, &list)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, entry := range list {
		result[entry.Name] = entry.Value
	}

	return nil
}
