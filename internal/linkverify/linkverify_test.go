package linkverify

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <link rel="stylesheet" href="_static/pygments.css">
  <script src="_static/doctools.js"></script>
</head>
<body>
  <a href="install.html">Install</a>
  <a href="api/index.html#classes">API</a>
  <a href="https://example.com/external">External</a>
  <a href="//cdn.example.com/lib.js">Protocol relative</a>
  <a href="mailto:docs@example.com">Mail</a>
  <a href="#section">Anchor</a>
  <img src="_images/plot.png">
</body>
</html>`

func TestExtractLinksFromReader(t *testing.T) {
	links, err := ExtractLinksFromReader(strings.NewReader(samplePage))
	require.NoError(t, err)

	byURL := make(map[string]Link, len(links))
	for _, l := range links {
		byURL[l.URL] = l
	}

	assert.Len(t, links, 9)

	assert.True(t, byURL["install.html"].IsInternal)
	assert.True(t, byURL["api/index.html#classes"].IsInternal)
	assert.True(t, byURL["_static/pygments.css"].IsInternal)
	assert.True(t, byURL["_images/plot.png"].IsInternal)

	assert.False(t, byURL["https://example.com/external"].IsInternal)
	assert.False(t, byURL["//cdn.example.com/lib.js"].IsInternal)
	assert.False(t, byURL["#section"].IsInternal)

	assert.Equal(t, "img", byURL["_images/plot.png"].Tag)
	assert.Equal(t, "src", byURL["_images/plot.png"].Attribute)
}

func writeSite(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestVerifyDirCleanSite(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html":     `<a href="install.html">Install</a><a href="api/">API</a>`,
		"install.html":   `<a href="index.html">Home</a><a href="https://example.com">out</a>`,
		"api/index.html": `<a href="../index.html">Up</a>`,
	})

	result, err := VerifyDir(root)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, 4, result.Links)
	assert.Empty(t, result.Broken)
}

func TestVerifyDirReportsBrokenLinks(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html": `<a href="missing.html">Gone</a><img src="_images/nope.png">`,
	})

	result, err := VerifyDir(root)
	require.NoError(t, err)

	require.Len(t, result.Broken, 2)
	urls := []string{result.Broken[0].URL, result.Broken[1].URL}
	assert.Contains(t, urls, "missing.html")
	assert.Contains(t, urls, "_images/nope.png")
	assert.Equal(t, "index.html", result.Broken[0].Page)
}

func TestVerifyDirRejectsEscapingLinks(t *testing.T) {
	root := writeSite(t, map[string]string{
		"index.html": `<a href="../../etc/passwd">escape</a>`,
	})

	result, err := VerifyDir(root)
	require.NoError(t, err)
	require.Len(t, result.Broken, 1)
}

func TestVerifyDirMissingRoot(t *testing.T) {
	_, err := VerifyDir(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
