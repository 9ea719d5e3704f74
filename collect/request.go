package collect

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/http"
)

type Request struct {
	URL    string
	Cookie string
}

// Unique identifies the request, the same URL always yields the same key.
func (r *Request) Unique() string {
	block := md5.Sum([]byte(r.URL))
	return hex.EncodeToString(block[:])
}

type Response struct {
	// URL is the address the body was finally served from, after redirects.
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// StatusError reports a response whose status code is not 2xx.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("get %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Temporary reports whether repeating the request may succeed.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
