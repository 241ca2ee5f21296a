// Package linkverify checks the builder's HTML output for internal links
// whose targets do not exist on disk. External URLs are left to the
// builder's own linkcheck mode.
package linkverify

import (
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	dmerrors "git.home.luguber.info/inful/docmake/internal/errors"
)

// Link is one reference extracted from a rendered HTML page.
type Link struct {
	URL        string // raw attribute value
	Tag        string // HTML tag (a, img, script, link)
	Attribute  string // attribute containing the link (href, src)
	IsInternal bool   // true when the link stays inside the built site
}

// linkAttrs maps tags to the attribute that carries their reference.
var linkAttrs = map[string]string{
	"a":      "href",
	"img":    "src",
	"script": "src",
	"link":   "href",
}

// ExtractLinks extracts all links from an HTML file.
func ExtractLinks(htmlPath string) ([]Link, error) {
	file, err := os.Open(filepath.Clean(htmlPath))
	if err != nil {
		return nil, dmerrors.Wrap(err, dmerrors.CategoryFileSystem, dmerrors.SeverityError, "failed to open HTML file").
			WithContext("html_path", htmlPath)
	}
	defer func() { _ = file.Close() }()

	return ExtractLinksFromReader(file)
}

// ExtractLinksFromReader extracts all links from an HTML document.
func ExtractLinksFromReader(r io.Reader) ([]Link, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, dmerrors.Wrap(err, dmerrors.CategoryValidation, dmerrors.SeverityError, "failed to parse HTML")
	}

	var links []Link

	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := linkAttrs[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key != attr || a.Val == "" {
						continue
					}
					links = append(links, Link{
						URL:        a.Val,
						Tag:        n.Data,
						Attribute:  attr,
						IsInternal: isInternal(a.Val),
					})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}

	extract(doc)
	return links, nil
}

// isInternal reports whether a link target resolves within the built site.
// Scheme-qualified URLs, protocol-relative URLs, and mailto/anchor-only
// references are external or self-referential.
func isInternal(raw string) bool {
	if raw == "" || strings.HasPrefix(raw, "#") || strings.HasPrefix(raw, "//") {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == "" && u.Host == ""
}
