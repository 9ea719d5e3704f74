package collect

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestHTTPFetchGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "page-loader-test", r.Header.Get("User-Agent"))
		assert.Equal(t, "session=42", r.Header.Get("Cookie"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>Test Page</body></html>"))
	}))
	defer srv.Close()

	f := &HTTPFetch{UserAgent: "page-loader-test"}
	resp, err := f.Get(context.Background(), &Request{URL: srv.URL + "/courses", Cookie: "session=42"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, srv.URL+"/courses", resp.URL)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Equal(t, "<html><body>Test Page</body></html>", string(resp.Body))
}

func TestHTTPFetchStatusError(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusInternalServerError} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		f := &HTTPFetch{}
		_, err := f.Get(context.Background(), &Request{URL: srv.URL + "/error"})
		srv.Close()

		var se *StatusError
		require.True(t, errors.As(err, &se), "code %d: %v", code, err)
		assert.Equal(t, code, se.StatusCode)
	}
}

func TestHTTPFetchRetriesTemporaryFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	f := &HTTPFetch{Retries: 3, RetryBase: time.Millisecond}
	resp, err := f.Get(context.Background(), &Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPFetchDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f := &HTTPFetch{Retries: 3, RetryBase: time.Millisecond}
	_, err := f.Get(context.Background(), &Request{URL: srv.URL})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestHTTPFetchRetriesExhausted(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := &HTTPFetch{Retries: 2, RetryBase: time.Millisecond}
	_, err := f.Get(context.Background(), &Request{URL: srv.URL})

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestHTTPFetchNegativeRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := &HTTPFetch{Retries: -1, RetryBase: time.Millisecond}
	_, err := f.Get(context.Background(), &Request{URL: srv.URL})
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Zero(t, f.Retries)
}

func TestHTTPFetchNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := &HTTPFetch{Timeout: time.Second}
	_, err := f.Get(context.Background(), &Request{URL: url})
	assert.Error(t, err)
}

func TestHTTPFetchLimitAndBandwidth(t *testing.T) {
	payload := make([]byte, 2048)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	f := &HTTPFetch{
		Limit:     rate.NewLimiter(rate.Inf, 1),
		Bandwidth: 1 << 20,
	}
	resp, err := f.Get(context.Background(), &Request{URL: srv.URL})
	require.NoError(t, err)
	assert.Len(t, resp.Body, len(payload))
}

func TestHTTPFetchCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("late"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &HTTPFetch{Retries: 5, RetryBase: time.Millisecond}
	_, err := f.Get(ctx, &Request{URL: srv.URL})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequestUnique(t *testing.T) {
	a := &Request{URL: "https://ru.hexlet.io/courses"}
	b := &Request{URL: "https://ru.hexlet.io/courses", Cookie: "x=1"}
	c := &Request{URL: "https://ru.hexlet.io/professions"}

	assert.Equal(t, a.Unique(), b.Unique())
	assert.NotEqual(t, a.Unique(), c.Unique())
}
