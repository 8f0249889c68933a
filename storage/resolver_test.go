package storage

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(t *testing.T) *ExtractionResolver {
	t.Helper()
	resolver, err := NewExtractionResolver(filepath.Join(t.TempDir(), "books"))
	require.NoError(t, err)
	return resolver
}

func TestRootLayout(t *testing.T) {
	resolver := newTestResolver(t)

	root := resolver.Root(42)
	assert.True(t, filepath.IsAbs(root))
	assert.True(t, strings.HasSuffix(root, filepath.Join("42", "extracted")))
}

func TestResolveValidPaths(t *testing.T) {
	resolver := newTestResolver(t)
	root := resolver.Root(42)

	tests := []struct {
		relPath string
		want    string
	}{
		{"OEBPS/chapter1.xhtml", filepath.Join(root, "OEBPS", "chapter1.xhtml")},
		{"content.html", filepath.Join(root, "content.html")},
		{"META-INF/container.xml", filepath.Join(root, "META-INF", "container.xml")},
		{"images/./cover.png", filepath.Join(root, "images", "cover.png")},
		{"a/b/c/d.css", filepath.Join(root, "a", "b", "c", "d.css")},
	}
	for _, tc := range tests {
		got, err := resolver.Resolve(42, tc.relPath)
		require.NoError(t, err, "path %q", tc.relPath)
		assert.Equal(t, tc.want, got, "path %q", tc.relPath)
	}
}

func TestResolveRejectsTraversal(t *testing.T) {
	resolver := newTestResolver(t)

	invalid := []string{
		"",
		"..",
		"../",
		"../../etc/passwd",
		"OEBPS/../../42/secret",
		"a/../../../x",
		"/etc/passwd",
		"/absolute",
		"chapter\x00.html",
		"~/secrets",
		"foo/~/bar",
	}
	for _, relPath := range invalid {
		got, err := resolver.Resolve(42, relPath)
		assert.ErrorIs(t, err, ErrPathViolation, "path %q", relPath)
		assert.Empty(t, got, "path %q", relPath)
	}
}

func TestResolveRejectsInvalidBookID(t *testing.T) {
	resolver := newTestResolver(t)

	for _, id := range []int64{0, -1, -42} {
		_, err := resolver.Resolve(id, "content.html")
		assert.ErrorIs(t, err, ErrPathViolation, "book %d", id)
	}
}

// Every path built from traversal fragments either fails or stays inside
// the extraction root.
func TestResolveNeverEscapesRoot(t *testing.T) {
	resolver := newTestResolver(t)

	fragments := []string{"..", ".", "etc", "passwd", "OEBPS", "a..b", "...", "chapter.xhtml", "..\\..", "..%2F.."}
	var paths []string
	for _, a := range fragments {
		for _, b := range fragments {
			for _, c := range fragments {
				paths = append(paths, a+"/"+b+"/"+c)
			}
		}
	}

	for _, relPath := range paths {
		got, err := resolver.Resolve(42, relPath)
		if err != nil {
			assert.ErrorIs(t, err, ErrPathViolation, "path %q", relPath)
			continue
		}
		assertWithinRoot(t, resolver, 42, got)
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	resolver := newTestResolver(t)

	first, err := resolver.Resolve(42, "OEBPS/chapter1.xhtml")
	require.NoError(t, err)
	second, err := resolver.Resolve(42, "OEBPS/chapter1.xhtml")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// A sibling directory whose name shares the root's prefix (e.g. "42extra"
// next to "42") must never satisfy containment.
func TestResolveSiblingPrefixIsOutside(t *testing.T) {
	resolver := newTestResolver(t)
	root := resolver.Root(42)

	got, err := resolver.Resolve(42, "OEBPS/book.opf")
	require.NoError(t, err)

	rel, err := filepath.Rel(root, got)
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(rel, ".."))
}

func assertWithinRoot(t *testing.T, resolver *ExtractionResolver, bookID int64, resolved string) {
	t.Helper()
	rel, err := filepath.Rel(resolver.Root(bookID), resolved)
	require.NoError(t, err)
	assert.False(t, rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)),
		"resolved path %q escapes root", resolved)
}
