package collect

import (
	"fmt"

	"golang.org/x/net/html/charset"
)

// DecodeHTML converts an HTML body to UTF-8. The encoding is taken from a BOM,
// the Content-Type header, a <meta> declaration or content sniffing, in that
// order. The returned bool reports whether the body was converted.
func DecodeHTML(body []byte, contentType string) ([]byte, bool, error) {
	e, name, certain := charset.DetermineEncoding(body, contentType)
	if name == "utf-8" || (!certain && isASCII(body)) {
		return body, false, nil
	}
	utf8Body, err := e.NewDecoder().Bytes(body)
	if err != nil {
		return nil, false, fmt.Errorf("decode %s body: %w", name, err)
	}
	return utf8Body, true, nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= 0x80 {
			return false
		}
	}
	return true
}
