package collect

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/juju/ratelimit"
	"github.com/sethvargo/go-retry"
	"github.com/wenzapen/page-loader/limiter"
	"github.com/wenzapen/page-loader/proxy"
	"go.uber.org/zap"
)

const (
	DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	DefaultTimeout   = 10 * time.Second
	DefaultRetryBase = 200 * time.Millisecond
)

type Fetcher interface {
	Get(ctx context.Context, req *Request) (*Response, error)
}

// HTTPFetch downloads resources over HTTP(S). The zero value is usable; all
// fields are optional and must not be changed after the first Get.
type HTTPFetch struct {
	Timeout   time.Duration
	UserAgent string
	Proxy     proxy.ProxyFunc
	Logger    *zap.Logger
	// Limit is waited on before every attempt, retries included.
	Limit limiter.RateLimiter
	// Retries is the number of extra attempts after a temporary failure.
	Retries   int
	RetryBase time.Duration
	// Bandwidth caps the bytes per second read across all responses, zero means no cap.
	Bandwidth int64

	once   sync.Once
	cli    *http.Client
	bucket *ratelimit.Bucket
}

func (f *HTTPFetch) init() {
	if f.Timeout <= 0 {
		f.Timeout = DefaultTimeout
	}
	if f.UserAgent == "" {
		f.UserAgent = DefaultUserAgent
	}
	if f.Retries < 0 {
		f.Retries = 0
	}
	if f.RetryBase <= 0 {
		f.RetryBase = DefaultRetryBase
	}
	if f.Logger == nil {
		f.Logger = zap.NewNop()
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if f.Proxy != nil {
		transport.Proxy = f.Proxy
	}
	f.cli = &http.Client{
		Timeout:   f.Timeout,
		Transport: transport,
	}
	if f.Bandwidth > 0 {
		f.bucket = ratelimit.NewBucketWithRate(float64(f.Bandwidth), f.Bandwidth)
	}
}

func (f *HTTPFetch) Get(ctx context.Context, request *Request) (*Response, error) {
	f.once.Do(f.init)

	var (
		resp    *Response
		attempt int
	)
	backoff := retry.WithMaxRetries(uint64(f.Retries), retry.NewExponential(f.RetryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		r, err := f.get(ctx, request)
		if err != nil {
			if ctx.Err() == nil && temporary(err) {
				f.Logger.Debug("fetch attempt failed",
					zap.String("url", request.URL),
					zap.Int("attempt", attempt),
					zap.Error(err))
				return retry.RetryableError(err)
			}
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (f *HTTPFetch) get(ctx context.Context, request *Request) (*Response, error) {
	if f.Limit != nil {
		if err := f.Limit.Wait(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, request.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("get url failed: %w", err)
	}
	if len(request.Cookie) > 0 {
		req.Header.Set("Cookie", request.Cookie)
	}
	req.Header.Set("User-Agent", f.UserAgent)

	resp, err := f.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{URL: request.URL, StatusCode: resp.StatusCode}
	}

	var body io.Reader = resp.Body
	if f.bucket != nil {
		body = ratelimit.Reader(body, f.bucket)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", request.URL, err)
	}

	f.Logger.Debug("fetched",
		zap.String("url", request.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)))

	return &Response{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}

// temporary reports whether err is worth another attempt: transport failures
// and 5xx/429 responses are, anything else is final.
func temporary(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
