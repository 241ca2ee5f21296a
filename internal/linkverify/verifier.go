package linkverify

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Broken is one internal link whose target is missing from the output tree.
type Broken struct {
	Page   string // page containing the link, relative to the site root
	URL    string // the raw link value
	Target string // resolved filesystem path that was not found
}

// Result summarizes one verification run.
type Result struct {
	Pages  int      // HTML pages scanned
	Links  int      // internal links checked
	Broken []Broken // missing targets
}

// VerifyDir walks a built site directory, extracts internal links from
// every HTML page, and checks their targets exist on disk.
func VerifyDir(siteDir string) (*Result, error) {
	root, err := filepath.Abs(siteDir)
	if err != nil {
		return nil, fmt.Errorf("resolve site dir: %w", err)
	}
	if st, err := os.Stat(root); err != nil || !st.IsDir() {
		return nil, fmt.Errorf("site dir not found or not a directory: %s", siteDir)
	}

	result := &Result{}

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}

		links, err := ExtractLinks(p)
		if err != nil {
			slog.Warn("Skipping unparseable page", "page", rel, "error", err)
			return nil
		}

		result.Pages++
		for _, link := range links {
			if !link.IsInternal {
				continue
			}
			result.Links++
			if target, ok := resolveTarget(root, rel, link.URL); !ok {
				result.Broken = append(result.Broken, Broken{Page: rel, URL: link.URL, Target: target})
			}
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk site dir: %w", walkErr)
	}

	return result, nil
}

// resolveTarget maps a page-relative or root-relative link to a filesystem
// path under root and reports whether it exists. Directory links count as
// existing when the directory (or its index.html) does.
func resolveTarget(root, page, raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return raw, false
	}
	p := u.Path
	if p == "" {
		// Pure query/fragment reference points at the page itself.
		return filepath.Join(root, page), true
	}

	var target string
	if path.IsAbs(p) {
		target = filepath.Join(root, filepath.FromSlash(p))
	} else {
		target = filepath.Join(root, filepath.Dir(page), filepath.FromSlash(p))
	}

	// Keep resolution inside the site root.
	if rel, err := filepath.Rel(root, target); err != nil || strings.HasPrefix(rel, "..") {
		return target, false
	}

	st, err := os.Stat(target)
	if err != nil {
		return target, false
	}
	if st.IsDir() {
		// Directory references resolve through their index page.
		if _, err := os.Stat(filepath.Join(target, "index.html")); err != nil {
			return target, false
		}
	}
	return target, true
}
