// Package httpfetch implements the paced, retrying, run-cached JSON/text
// fetch substrate for live upstreams (spec §4.4). Non-retryable failures —
// including an exhausted retry budget — resolve to the zero value rather
// than an error, so adapters keep working with whatever is available
// instead of aborting a batch (the UpstreamUnavailable error class never
// surfaces past this package).
package httpfetch

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/felixge/httpsnoop"
	"golang.org/x/time/rate"
)

var retryableStatus = map[int]bool{
	429: true, 500: true, 502: true, 503: true, 504: true,
}

// Fetcher is a process-scoped paced/retrying HTTP client. It is not safe
// for concurrent use by multiple parallel batch invocations — the pacing
// limiter is shared process-wide by design (spec §5 notes parallel
// invocations are not supported), but a single Fetcher may be shared by
// sequential calls within one invocation.
type Fetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	userAgent   string
	maxRetries  int
	backoffBase time.Duration
	timeout     time.Duration
	log         *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the required User-Agent header (spec §6 — upstream
// policy, especially SEC endpoints, requires attribution).
func WithUserAgent(ua string) Option { return func(f *Fetcher) { f.userAgent = ua } }

// WithMaxRetries sets the number of additional attempts beyond the first.
func WithMaxRetries(n int) Option { return func(f *Fetcher) { f.maxRetries = n } }

// WithBackoffBase sets the exponential backoff base duration (no jitter,
// backoff_base × 2^attempt, per spec §4.4).
func WithBackoffBase(d time.Duration) Option { return func(f *Fetcher) { f.backoffBase = d } }

// WithRequestDelay sets the minimum spacing between requests (the pacing
// token bucket's refill interval).
func WithRequestDelay(d time.Duration) Option {
	return func(f *Fetcher) {
		if d <= 0 {
			f.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		f.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option { return func(f *Fetcher) { f.timeout = d } }

// WithLogger overrides the default component logger.
func WithLogger(l *slog.Logger) Option { return func(f *Fetcher) { f.log = l } }

// New constructs a Fetcher with the spec's defaults: 0.3s pacing, 3 retries,
// 1.0s backoff base, 20s timeout.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		maxRetries:  3,
		backoffBase: time.Second,
		timeout:     20 * time.Second,
		limiter:     rate.NewLimiter(rate.Every(300*time.Millisecond), 1),
		log:         slog.Default().With("component", "httpfetch"),
	}
	for _, o := range opts {
		o(f)
	}
	f.client = &http.Client{
		Timeout:   f.timeout,
		Transport: httpsnoop.Wrap(http.DefaultTransport, f.snoopHooks()),
	}
	return f
}

func (f *Fetcher) snoopHooks() httpsnoop.Hooks {
	return httpsnoop.Hooks{
		RoundTrip: func(next httpsnoop.RoundTripFunc) httpsnoop.RoundTripFunc {
			return func(req *http.Request) *http.Response {
				start := time.Now()
				resp := next(req)
				status := 0
				if resp != nil {
					status = resp.StatusCode
				}
				f.log.Debug("http roundtrip",
					"url", req.URL.String(),
					"status", status,
					"duration_ms", time.Since(start).Milliseconds(),
				)
				return resp
			}
		},
	}
}

// GetJSON fetches url as JSON, retrying on retryable statuses/transport
// errors/decode errors, and returns an empty map on exhausted retries or a
// non-retryable failure — it never returns an error (spec §4.4/§7).
func (f *Fetcher) GetJSON(ctx context.Context, url string) map[string]any {
	result, err := backoff.Retry(ctx, func() (map[string]any, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := f.client.Do(req)
		if err != nil {
			return nil, err // retryable: transport/timeout error
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if retryableStatus[resp.StatusCode] {
				return nil, errStatus(resp.StatusCode)
			}
			return nil, backoff.Permanent(errStatus(resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		var out map[string]any
		if err := json.Unmarshal(body, &out); err != nil {
			return nil, err // retryable: JSON decode failure
		}
		return out, nil
	},
		backoff.WithBackOff(f.exponentialNoJitter()),
		backoff.WithMaxTries(uint(f.maxRetries+1)),
	)
	if err != nil {
		f.log.Warn("json fetch exhausted", "url", url, "error", err)
		return map[string]any{}
	}
	return result
}

// GetText fetches url as raw text with the same retry/pacing policy as
// GetJSON, returning "" on exhausted retries or non-retryable failure.
func (f *Fetcher) GetText(ctx context.Context, url string) string {
	result, err := backoff.Retry(ctx, func() (string, error) {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", f.userAgent)
		req.Header.Set("Accept", "text/plain,application/xml,application/xhtml+xml,*/*")

		resp, err := f.client.Do(req)
		if err != nil {
			return "", err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			if retryableStatus[resp.StatusCode] {
				return "", errStatus(resp.StatusCode)
			}
			return "", backoff.Permanent(errStatus(resp.StatusCode))
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return "", err
		}
		return string(body), nil
	},
		backoff.WithBackOff(f.exponentialNoJitter()),
		backoff.WithMaxTries(uint(f.maxRetries+1)),
	)
	if err != nil {
		f.log.Warn("text fetch exhausted", "url", url, "error", err)
		return ""
	}
	return result
}

// exponentialNoJitter builds a backoff.BackOff that doubles from
// backoffBase with no jitter, matching spec §4.4's "backoff_base_s × 2^attempt"
// exactly (the ecosystem default adds jitter; this disables it deliberately).
func (f *Fetcher) exponentialNoJitter() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = f.backoffBase
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = f.backoffBase * (1 << uint(f.maxRetries))
	return b
}

type statusError struct{ code int }

func (e statusError) Error() string { return http.StatusText(e.code) }

func errStatus(code int) error { return statusError{code: code} }
