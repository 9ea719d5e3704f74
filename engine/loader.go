package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/wenzapen/page-loader/collect"
	"github.com/wenzapen/page-loader/naming"
	"github.com/wenzapen/page-loader/parse"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidURL        = errors.New("invalid page url")
	ErrOutputDirNotExist = errors.New("output directory does not exist")
)

// Loader saves a web page together with the resources it serves from its own
// host, so that the copy can be opened offline.
type Loader struct {
	options
}

func New(opts ...Option) *Loader {
	options := DefaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	options.complete()

	return &Loader{options: options}
}

// resource is one unique local resource of the page.
type resource struct {
	url  string
	name string
}

// Download saves pageURL into outputDir and returns the path of the saved
// HTML file. Local resources go to "<name>_files" next to it and the page is
// rewritten to reference them. A resource that cannot be fetched keeps its
// original link; failing to fetch the page or to write anything is an error.
func (l *Loader) Download(ctx context.Context, pageURL, outputDir string) (string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, pageURL)
	}

	ok, err := l.Storage.IsDir(outputDir)
	if err != nil {
		return "", fmt.Errorf("check output directory %s: %w", outputDir, err)
	}
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrOutputDirNotExist, outputDir)
	}

	base, err := naming.BaseName(pageURL)
	if err != nil {
		return "", err
	}
	htmlPath := filepath.Join(outputDir, base+"."+naming.DefaultExt)

	l.Logger.Info("start page download", zap.String("url", pageURL), zap.String("output", outputDir))
	resp, err := l.Fetcher.Get(ctx, &collect.Request{URL: pageURL, Cookie: l.Cookie})
	if err != nil {
		l.Logger.Error("page request failed", zap.String("url", pageURL), zap.Error(err))
		return "", fmt.Errorf("fetch page %s: %w", pageURL, err)
	}

	body, converted, err := collect.DecodeHTML(resp.Body, resp.ContentType)
	if err != nil {
		return "", err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		l.Logger.Warn("page is empty", zap.String("url", pageURL))
		return htmlPath, l.save(htmlPath, body)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse html of %s: %w", pageURL, err)
	}

	var local []parse.Asset
	for _, a := range parse.Assets(doc, u, l.Rules...) {
		if !naming.IsLocal(a.URL, pageURL) {
			l.Logger.Debug("skip external resource", zap.String("url", a.URL))
			continue
		}
		local = append(local, a)
	}
	l.Logger.Debug("resources found", zap.Int("local", len(local)))

	if len(local) > 0 {
		assetsDir, err := naming.AssetsDir(pageURL)
		if err != nil {
			return "", err
		}
		saved, err := l.downloadAll(ctx, local, filepath.Join(outputDir, assetsDir))
		if err != nil {
			return "", err
		}
		for _, a := range local {
			if name, ok := saved[a.URL]; ok {
				a.Rewrite(path.Join(assetsDir, name))
			}
		}
	}

	if converted {
		declareUTF8(doc)
	}

	html, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("render html of %s: %w", pageURL, err)
	}
	if err := l.save(htmlPath, []byte(html)); err != nil {
		return "", err
	}

	l.Logger.Info("page download finished", zap.String("url", pageURL), zap.String("path", htmlPath))
	return htmlPath, nil
}

// downloadAll fetches every unique resource of assets into dir and returns the
// file names of the ones that were saved, keyed by URL.
func (l *Loader) downloadAll(ctx context.Context, assets []parse.Asset, dir string) (map[string]string, error) {
	visited := make(map[string]bool, len(assets))
	taken := make(map[string]bool, len(assets))
	var resources []resource
	for _, a := range assets {
		req := &collect.Request{URL: a.URL}
		if visited[req.Unique()] {
			continue
		}
		visited[req.Unique()] = true

		name, err := naming.ResourceName(a.URL)
		if err != nil {
			l.Logger.Warn("skip resource without a name", zap.String("url", a.URL), zap.Error(err))
			continue
		}
		// different URLs may collapse to the same name, e.g. /a-b.png and /a/b.png
		unique := name
		for n := 2; taken[unique]; n++ {
			unique = naming.WithSuffix(name, n)
		}
		taken[unique] = true
		resources = append(resources, resource{url: a.URL, name: unique})
	}
	if len(resources) == 0 {
		return nil, nil
	}

	if err := l.Storage.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("create resource directory %s: %w", dir, err)
	}

	var (
		mu    sync.Mutex
		saved = make(map[string]string, len(resources))
	)
	l.Progress.Start(len(resources))
	defer l.Progress.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.WorkCount)
	for _, r := range resources {
		r := r
		g.Go(func() error {
			resp, err := l.Fetcher.Get(gctx, &collect.Request{URL: r.url, Cookie: l.Cookie})
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				l.Progress.Done(r.url, err)
				l.Logger.Warn("resource download failed, keeping original link",
					zap.String("url", r.url), zap.Error(err))
				return nil
			}

			target := filepath.Join(dir, r.name)
			if err := l.Storage.WriteFile(target, resp.Body); err != nil {
				l.Progress.Done(r.url, err)
				return fmt.Errorf("save resource %s: %w", r.url, err)
			}
			l.Progress.Done(r.url, nil)
			l.Logger.Info("resource saved", zap.String("url", r.url), zap.String("path", target))

			mu.Lock()
			saved[r.url] = r.name
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return saved, nil
}

func (l *Loader) save(htmlPath string, data []byte) error {
	if err := l.Storage.WriteFile(htmlPath, data); err != nil {
		return fmt.Errorf("save html file %s: %w", htmlPath, err)
	}
	return nil
}

// declareUTF8 updates the charset declarations of a page that was converted
// to UTF-8.
func declareUTF8(doc *goquery.Document) {
	doc.Find("meta[charset]").SetAttr("charset", "utf-8")
	doc.Find("meta[http-equiv]").Each(func(_ int, s *goquery.Selection) {
		if v, _ := s.Attr("http-equiv"); strings.EqualFold(strings.TrimSpace(v), "content-type") {
			s.SetAttr("content", "text/html; charset=utf-8")
		}
	})
}
