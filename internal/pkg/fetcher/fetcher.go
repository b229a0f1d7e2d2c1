package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"github.com/geo-optimizer/geo/internal/pkg/types"
	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultMaxSize   = 10 * 1024 * 1024 // 10 MiB
	DefaultAttempts  = 3
	DefaultBaseDelay = time.Second
	DefaultUserAgent = "GEO-Optimizer/2.0 (+https://github.com/geo-optimizer/geo)"

	maxRedirects = 5
)

var (
	errTooLarge      = errors.New("response body exceeds size limit")
	errTooManyHops   = errors.New("stopped after " + strconv.Itoa(maxRedirects) + " redirects")
	errBadRedirectTo = errors.New("redirect to unsupported scheme")

	// Waits between attempts; replaced in tests.
	sleepFunc = sleepContext
)

// Fetch settings. Zero values fall back to the defaults above.
type Options struct {
	Timeout      time.Duration
	MaxSize      int64
	Attempts     int
	BaseDelay    time.Duration
	UserAgent    string
	AllowPrivate bool
	Limiter      *HostLimiter
}

// Performs bounded GET requests with retries. Safe for concurrent use.
type Fetcher struct {
	opts   Options
	client *http.Client
}

func New(opts Options) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxSize <= 0 {
		opts.MaxSize = DefaultMaxSize
	}
	if opts.Attempts <= 0 {
		opts.Attempts = DefaultAttempts
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if !opts.AllowPrivate {
		dialer.Control = refusePrivate
	}

	f := &Fetcher{opts: opts}
	f.client = &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			TLSHandshakeTimeout:   5 * time.Second,
			ResponseHeaderTimeout: opts.Timeout,
			IdleConnTimeout:       30 * time.Second,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
		},
		CheckRedirect: f.checkRedirect,
	}
	return f
}

// Returns the effective options.
func (f *Fetcher) Options() Options {
	return f.opts
}

// Fetches a URL. Failures are reported in the outcome, never as an error.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (outcome types.FetchOutcome) {
	outcome = types.FetchOutcome{URL: rawURL, ErrorKind: types.ErrorNone}
	start := time.Now()
	defer func() { outcome.Elapsed = time.Since(start) }()

	delay := f.opts.BaseDelay
	for attempt := 1; attempt <= f.opts.Attempts; attempt++ {
		outcome.Attempts = attempt
		if f.opts.Limiter != nil {
			if err := f.opts.Limiter.Wait(ctx, rawURL); err != nil {
				return canceled(outcome, err)
			}
		}

		resp, err := f.fetchOnce(ctx, rawURL)
		if err == nil {
			outcome.StatusCode = resp.status
			outcome.Header = resp.header
			outcome.FinalURL = resp.finalURL
			outcome.Body = resp.body
			outcome.ErrorKind = types.ErrorNone
			outcome.Err = ""
			if !retryableStatus(resp.status) {
				return outcome
			}
		} else {
			if ctx.Err() != nil {
				return canceled(outcome, ctx.Err())
			}
			outcome.StatusCode = 0
			outcome.Body = ""
			outcome.ErrorKind = classify(err)
			outcome.Err = err.Error()
			if !retryableError(err) {
				return outcome
			}
		}

		if attempt == f.opts.Attempts {
			break
		}
		slog.Debug("Fetcher: retrying", "url", rawURL, "attempt", attempt, "reason", outcome.Reason(), "delay", delay)
		if err := sleepFunc(ctx, delay); err != nil {
			return canceled(outcome, err)
		}
		delay *= 2
	}
	return outcome
}

type response struct {
	status   int
	header   http.Header
	finalURL string
	body     string
}

// Runs a single GET bounded by the per-attempt timeout.
func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return response{}, fmt.Errorf("%w: failed to create HTTP request: %v", utils.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return response{}, err
	}
	defer resp.Body.Close()

	if resp.ContentLength > f.opts.MaxSize {
		return response{}, fmt.Errorf("%w: Content-Length %d > %d", errTooLarge, resp.ContentLength, f.opts.MaxSize)
	}

	limitedReader := io.LimitReader(resp.Body, f.opts.MaxSize+1)
	bodyBytes, err := io.ReadAll(limitedReader)
	if err != nil {
		return response{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(bodyBytes)) > f.opts.MaxSize {
		return response{}, fmt.Errorf("%w: more than %d bytes", errTooLarge, f.opts.MaxSize)
	}

	return response{
		status:   resp.StatusCode,
		header:   resp.Header,
		finalURL: resp.Request.URL.String(),
		body:     decodeBody(bodyBytes, resp.Header.Get("Content-Type")),
	}, nil
}

// Limits redirect chains and re-validates every hop.
func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return errTooManyHops
	}
	if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
		return fmt.Errorf("%w: %q", errBadRedirectTo, req.URL.Scheme)
	}
	if f.opts.AllowPrivate {
		return nil
	}
	return utils.ValidatePublicURL(req.Context(), req.URL.String())
}

// Refuses connections to private and reserved addresses after DNS resolution.
func refusePrivate(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return err
	}
	if ip := net.ParseIP(host); utils.IsPrivateIP(ip) {
		return fmt.Errorf("%w: %s", utils.ErrPrivateTarget, ip)
	}
	return nil
}

// Records an interruption by the caller's context: an expired parent
// deadline is a timeout, anything else a cancellation.
func canceled(outcome types.FetchOutcome, err error) types.FetchOutcome {
	outcome.StatusCode = 0
	outcome.Body = ""
	outcome.ErrorKind = types.ErrorCanceled
	if errors.Is(err, context.DeadlineExceeded) {
		outcome.ErrorKind = types.ErrorTimeout
	}
	outcome.Err = err.Error()
	return outcome
}

// Maps a transport error onto an ErrorKind.
func classify(err error) types.ErrorKind {
	if errors.Is(err, errTooLarge) {
		return types.ErrorTooLarge
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return types.ErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return types.ErrorTimeout
	}
	return types.ErrorConnectionFailed
}

// Checks if a transport error is worth another attempt.
func retryableError(err error) bool {
	switch {
	case errors.Is(err, errTooLarge),
		errors.Is(err, errTooManyHops),
		errors.Is(err, errBadRedirectTo),
		errors.Is(err, utils.ErrInvalidURL),
		errors.Is(err, utils.ErrPrivateTarget):
		return false
	}
	return true
}

// Checks if a status code is worth another attempt.
func retryableStatus(status int) bool {
	return status == http.StatusRequestTimeout || status == http.StatusTooManyRequests || status >= 500
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
