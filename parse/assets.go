// Package parse finds the resources an HTML page references.
package parse

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// AssetRule tells which attribute of a tag points to a resource.
type AssetRule struct {
	Tag  string
	Attr string
}

// DefaultRules are the tags whose resources are saved next to the page.
var DefaultRules = []AssetRule{
	{Tag: "img", Attr: "src"},
	{Tag: "link", Attr: "href"},
	{Tag: "script", Attr: "src"},
}

// Asset is one reference to a resource inside the document.
type Asset struct {
	Selection *goquery.Selection
	Attr      string
	// Link is the attribute value as written in the page.
	Link string
	// URL is Link resolved against the document base, without fragment.
	URL string
}

// Rewrite points the reference at a new location.
func (a Asset) Rewrite(link string) {
	a.Selection.SetAttr(a.Attr, link)
}

// Assets returns the references matched by rules in document order. Links are
// resolved against pageURL, or against <base href> when the page declares one.
// Empty links and links that do not resolve to http(s) URLs are skipped.
func Assets(doc *goquery.Document, pageURL *url.URL, rules ...AssetRule) []Asset {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	base := documentBase(doc, pageURL)

	var selectors []string
	for _, r := range rules {
		selectors = append(selectors, r.Tag+"["+r.Attr+"]")
	}

	var assets []Asset
	doc.Find(strings.Join(selectors, ", ")).Each(func(_ int, s *goquery.Selection) {
		tag := goquery.NodeName(s)
		seen := make(map[string]bool, 1)
		for _, r := range rules {
			if r.Tag != tag || seen[r.Attr] {
				continue
			}
			seen[r.Attr] = true
			if a, ok := newAsset(s, r.Attr, base); ok {
				assets = append(assets, a)
			}
		}
	})
	return assets
}

func newAsset(s *goquery.Selection, attr string, base *url.URL) (Asset, bool) {
	link, _ := s.Attr(attr)
	link = strings.TrimSpace(link)
	if link == "" {
		return Asset{}, false
	}
	u, err := base.Parse(link)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Asset{}, false
	}
	u.Fragment = ""
	return Asset{
		Selection: s,
		Attr:      attr,
		Link:      link,
		URL:       u.String(),
	}, true
}

func documentBase(doc *goquery.Document, pageURL *url.URL) *url.URL {
	href, ok := doc.Find("base[href]").First().Attr("href")
	if !ok {
		return pageURL
	}
	u, err := pageURL.Parse(strings.TrimSpace(href))
	if err != nil {
		return pageURL
	}
	return u
}
