// Package ingest resolves artwork arguments (a local path or an http(s)
// URL) into readable sources for upload.
package ingest

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

// Source holds a resolved input ready for reading.
type Source struct {
	// Name is the original filename (no directory), used for key naming.
	Name string
	// Size is the byte count if known in advance (-1 if unknown).
	Size        int64
	ContentType string
	// Open returns a new ReadCloser.
	Open func(ctx context.Context) (io.ReadCloser, error)
}

// Resolver turns inputs into Sources. The zero value uses a default HTTP
// client.
type Resolver struct {
	Client *http.Client
}

func (r Resolver) client() *http.Client {
	if r.Client != nil {
		return r.Client
	}
	return &http.Client{Timeout: 2 * time.Minute}
}

// Resolve determines the type of input and returns a Source.
// Supported formats:
//
//	/path/to/cover.jpg             local file
//	https://example.com/cover.jpg  HTTP URL
func (r Resolver) Resolve(ctx context.Context, input string) (*Source, error) {
	switch {
	case strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://"):
		return r.resolveHTTP(ctx, input)
	default:
		return resolveFile(input)
	}
}

func resolveFile(p string) (*Source, error) {
	fi, err := os.Stat(p)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", p, err)
	}
	if fi.IsDir() {
		return nil, fmt.Errorf("%q is a directory", p)
	}
	return &Source{
		Name:        filepath.Base(p),
		Size:        fi.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(p)),
		Open: func(context.Context) (io.ReadCloser, error) {
			return os.Open(p)
		},
	}, nil
}

func (r Resolver) resolveHTTP(ctx context.Context, rawURL string) (*Source, error) {
	client := r.client()
	src := &Source{
		Name: guessFilenameFromURL(rawURL),
		Size: -1,
	}

	// HEAD the URL to learn Content-Length and Content-Type; servers that
	// reject HEAD still work through GET.
	if req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil); err == nil {
		if resp, err := client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if resp.ContentLength > 0 {
					src.Size = resp.ContentLength
				}
				src.ContentType = resp.Header.Get("Content-Type")
			}
			resp.Body.Close()
		}
	}
	if src.ContentType == "" {
		src.ContentType = mime.TypeByExtension(path.Ext(src.Name))
	}

	src.Open = func(ctx context.Context) (io.ReadCloser, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("GET %s: status %d", rawURL, resp.StatusCode)
		}
		return resp.Body, nil
	}
	return src, nil
}

func guessFilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "" || base == "." || base == "/" {
		return "download"
	}
	return base
}
