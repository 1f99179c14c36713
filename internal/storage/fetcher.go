package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultMaxFetchBytes caps downloaded files.
const DefaultMaxFetchBytes int64 = 200 << 20

// ObjectWriter stores generated artifacts and returns their public URL.
type ObjectWriter interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Fetcher resolves file references to bytes: http(s) URLs are downloaded,
// s3://bucket/key objects are read through the S3 store and anything else is
// treated as a key in the local file store.
type Fetcher struct {
	httpClient *http.Client
	s3         *S3Store
	files      *FileStore
	maxBytes   int64
}

// FetcherOptions configures a Fetcher. Nil stores disable their scheme.
type FetcherOptions struct {
	HTTPClient *http.Client
	S3         *S3Store
	Files      *FileStore
	MaxBytes   int64
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts FetcherOptions) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Minute}
	}
	limit := opts.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxFetchBytes
	}
	return &Fetcher{httpClient: client, s3: opts.S3, files: opts.Files, maxBytes: limit}
}

// Fetch returns the bytes behind ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errors.New("storage: file reference is required")
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("storage: invalid file reference %q: %w", ref, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return f.download(ctx, parsed.String())
	case "s3":
		if f.s3 == nil {
			return nil, fmt.Errorf("storage: s3 not configured for %s", ref)
		}
		return f.s3.Get(ctx, parsed.Host, parsed.Path, f.maxBytes)
	case "", "file":
		if f.files == nil {
			return nil, fmt.Errorf("storage: local store not configured for %s", ref)
		}
		key := ref
		if parsed.Scheme == "file" {
			key = parsed.Path
		}
		return f.files.Read(ctx, key)
	default:
		return nil, fmt.Errorf("storage: unsupported scheme %q", parsed.Scheme)
	}
}

func (f *Fetcher) download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("storage: build download request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("storage: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("storage: download status %d", resp.StatusCode)
	}
	data, err := readLimited(resp.Body, f.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("storage: read download: %w", err)
	}
	return data, nil
}
