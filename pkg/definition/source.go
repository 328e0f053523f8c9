package definition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goliatone/go-jsonform/pkg/form"
)

// SourceKind tells a Reader how to fetch a Source.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

// Source locates a declaration or OpenAPI document.
type Source interface {
	Location() string
	Kind() SourceKind
}

type source struct {
	location string
	kind     SourceKind
}

func (s source) Location() string { return s.location }
func (s source) Kind() SourceKind { return s.kind }

// SourceFromFile points at a path on disk.
func SourceFromFile(path string) Source {
	return source{location: filepath.Clean(path), kind: SourceKindFile}
}

// SourceFromFS points at a path inside the Reader's fs.FS.
func SourceFromFS(name string) Source {
	return source{location: name, kind: SourceKindFS}
}

// SourceFromURL points at an HTTP(S) endpoint.
func SourceFromURL(raw string) (Source, error) {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("definition: invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("definition: unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("definition: url %q has no host", raw)
	}
	return source{location: raw, kind: SourceKindURL}, nil
}

// ParseSource treats http:// and https:// locations as URLs and anything
// else as a file path.
func ParseSource(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("definition: empty source")
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return SourceFromURL(raw)
	}
	return SourceFromFile(raw), nil
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithFS sets the filesystem SourceFromFS locations resolve against.
func WithFS(fsys fs.FS) ReaderOption {
	return func(r *Reader) { r.fs = fsys }
}

// WithHTTPClient enables URL sources using client.
func WithHTTPClient(client *http.Client) ReaderOption {
	return func(r *Reader) { r.http = client }
}

// WithTimeout bounds each URL fetch.
func WithTimeout(timeout time.Duration) ReaderOption {
	return func(r *Reader) { r.timeout = timeout }
}

// Reader fetches Source contents.
type Reader struct {
	fs      fs.FS
	http    *http.Client
	timeout time.Duration
}

// NewReader constructs a Reader. URL sources are rejected unless an HTTP
// client is configured.
func NewReader(options ...ReaderOption) *Reader {
	r := &Reader{}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Read returns the raw bytes behind src.
func (r *Reader) Read(ctx context.Context, src Source) ([]byte, error) {
	if src == nil {
		return nil, errors.New("definition: source is nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch src.Kind() {
	case SourceKindFile:
		return os.ReadFile(src.Location())
	case SourceKindFS:
		if r.fs == nil {
			return nil, errors.New("definition: filesystem is not configured")
		}
		return fs.ReadFile(r.fs, src.Location())
	case SourceKindURL:
		if r.http == nil {
			return nil, errors.New("definition: http support disabled")
		}
		return r.fetch(ctx, src.Location())
	default:
		return nil, fmt.Errorf("definition: unsupported source kind %q", src.Kind())
	}
}

func (r *Reader) fetch(ctx context.Context, location string) ([]byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("definition: fetch %s: unexpected status %s", location, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Declarations reads and parses a declaration document.
func (r *Reader) Declarations(ctx context.Context, src Source) ([]*form.Definition, error) {
	data, err := r.Read(ctx, src)
	if err != nil {
		return nil, err
	}
	return Parse(data, src.Location())
}

// OpenAPI reads an OpenAPI document and builds a definition from component.
func (r *Reader) OpenAPI(ctx context.Context, src Source, component string, options ...OpenAPIOption) (*form.Definition, error) {
	data, err := r.Read(ctx, src)
	if err != nil {
		return nil, err
	}
	return FromOpenAPI(ctx, data, component, options...)
}
