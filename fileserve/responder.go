// Package fileserve streams resolved book assets with correct content-type
// and cache headers.
package fileserve

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/readnwin/bookaccess/webutil"
)

// ErrNotFound marks a missing or unreadable asset. Permission errors map
// here too: the response must not reveal filesystem structure.
var ErrNotFound = errors.New("fileserve: file not found")

const (
	// Content documents change when a book is re-ingested; clients
	// revalidate after a short private cache.
	cacheControlDocument = "private, max-age=300"
	// Static assets within an extraction are immutable.
	cacheControlAsset = "public, max-age=31536000"
)

var contentTypes = map[string]string{
	".html":  "text/html; charset=utf-8",
	".htm":   "text/html; charset=utf-8",
	".xhtml": "application/xhtml+xml",
	".css":   "text/css; charset=utf-8",
	".js":    "application/javascript",
	".json":  "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".webp":  "image/webp",
	".otf":   "font/otf",
	".ttf":   "font/ttf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ncx":   "application/x-dtbncx+xml",
	".opf":   "application/oebps-package+xml",
	".xml":   "application/xml",
	".txt":   "text/plain; charset=utf-8",
	".pdf":   "application/pdf",
	".epub":  "application/epub+zip",
	".mobi":  "application/x-mobipocket-ebook",
}

// ContentTypeFor maps a file name to its MIME type by extension, defaulting
// to application/octet-stream.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Responder serves files resolved by the extraction path resolver.
type Responder struct{}

// NewResponder creates a new Responder.
func NewResponder() *Responder {
	return &Responder{}
}

// ServeFile streams the file at absPath. Missing files, directories and
// permission failures return ErrNotFound; other I/O errors are surfaced.
// Range, HEAD and conditional requests are handled by http.ServeContent,
// and the file handle is released even when the client disconnects
// mid-stream.
func (resp *Responder) ServeFile(w http.ResponseWriter, r *http.Request, absPath string) error {
	f, err := os.Open(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to open asset %q: %w", absPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat asset %q: %w", absPath, err)
	}
	if info.IsDir() {
		return ErrNotFound
	}

	contentType := ContentTypeFor(absPath)
	w.Header().Set(webutil.HeaderContentType, contentType)
	w.Header().Set(webutil.HeaderCacheControl, cacheControlFor(contentType))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
	return nil
}

func cacheControlFor(contentType string) string {
	if strings.HasPrefix(contentType, "text/html") || strings.HasPrefix(contentType, "application/xhtml") {
		return cacheControlDocument
	}
	return cacheControlAsset
}
