// Package naming maps page and resource URLs to local file names.
package naming

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

const (
	DefaultExt   = "html"
	AssetsSuffix = "_files"
)

var ErrEmptyName = errors.New("url has no host or path to build a name from")

// nonWord matches runs of characters that are neither letters, digits nor '_'.
var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]+`)

// FileName builds a file name from the host and path of rawURL. Every run of
// non-word characters becomes '-'. The extension is ext when given, else the
// extension of the last path segment, else "html".
//
//	https://ru.hexlet.io/courses -> ru-hexlet-io-courses.html
func FileName(rawURL, ext string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	return build(u, "", ext)
}

// ResourceName is FileName for downloaded resources: the query string takes
// part in the name so that /app.js?v=1 and /app.js?v=2 do not collide.
func ResourceName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	return build(u, u.RawQuery, "")
}

// BaseName is the page file name without its ".html" extension.
func BaseName(rawURL string) (string, error) {
	name, err := FileName(rawURL, DefaultExt)
	if err != nil {
		return "", err
	}
	return strings.TrimSuffix(name, "."+DefaultExt), nil
}

// AssetsDir names the directory that holds the resources of a page.
func AssetsDir(rawURL string) (string, error) {
	base, err := BaseName(rawURL)
	if err != nil {
		return "", err
	}
	return base + AssetsSuffix, nil
}

// WithSuffix inserts "-n" before the extension of name, so that resources
// whose URLs map to the same name still get distinct files.
//
//	host-a-b.png, 2 -> host-a-b-2.png
func WithSuffix(name string, n int) string {
	ext := path.Ext(name)
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n, ext)
}

// IsLocal reports whether resourceURL is served by the same host (port
// included) as pageURL. Relative URLs are local.
func IsLocal(resourceURL, pageURL string) bool {
	r, err := url.Parse(resourceURL)
	if err != nil {
		return false
	}
	if r.Host == "" {
		return true
	}
	p, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return strings.EqualFold(r.Host, p.Host)
}

func build(u *url.URL, query, ext string) (string, error) {
	dir, last := path.Split(u.Path)
	pathExt := path.Ext(last)
	if pathExt == last {
		// dot files such as ".htaccess" have no extension
		pathExt = ""
	}
	last = strings.TrimSuffix(last, pathExt)

	root := u.Host + dir + last
	if query != "" {
		root += "-" + query
	}
	root = strings.Trim(nonWord.ReplaceAllString(root, "-"), "-")
	if root == "" {
		return "", ErrEmptyName
	}

	if ext == "" {
		ext = strings.Trim(nonWord.ReplaceAllString(strings.TrimPrefix(pathExt, "."), "-"), "-")
	}
	if ext == "" {
		ext = DefaultExt
	}
	return root + "." + ext, nil
}
