package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"versync/internal/domain"
)

// feedDocument is the change-feed response: a list of changefiles with
// their download URLs.
type feedDocument struct {
	List []FeedEntry `json:"list"`
}

// FeedEntry describes one changefile offered by the feed.
type FeedEntry struct {
	Filename  string `json:"filename"`
	URL       string `json:"url"`
	Filetype  string `json:"filetype"`
	SizeBytes int64  `json:"size_bytes"`
}

// FeedStore adapts an HTTP change-feed to domain.RemoteStore. Listing the
// feed records each entry's download URL and advertised size; Retrieve and
// Size depend on that, so callers list before retrieving.
type FeedStore struct {
	base   string // feed URL, e.g. http://api.example.org/feed/changefile
	apiKey string
	http   *http.Client

	entries map[string]FeedEntry
}

var _ domain.RemoteStore = (*FeedStore)(nil)

// NewFeedStore returns a feed client. httpClient may be nil, in which case
// http.DefaultClient is used.
func NewFeedStore(base, apiKey string, httpClient *http.Client) *FeedStore {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &FeedStore{base: base, apiKey: apiKey, http: httpClient}
}

// ListNames fetches the feed document and returns the names of the jsonl
// changefiles it offers. Other filetypes (the feed also carries csv) are
// dropped. The dir argument is unused; a feed has no directories.
func (s *FeedStore) ListNames(ctx context.Context, dir string) ([]string, error) {
	u := s.base
	if s.apiKey != "" {
		u += "?api_key=" + url.QueryEscape(s.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, &domain.StoreUnreachableError{Store: s.base, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.StoreUnreachableError{Store: s.base, Err: fmt.Errorf("feed returned %s", resp.Status)}
	}

	var doc feedDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding feed: %w", err)
	}

	s.entries = make(map[string]FeedEntry, len(doc.List))
	names := make([]string, 0, len(doc.List))
	for _, e := range doc.List {
		if e.Filetype != "jsonl" {
			continue
		}
		s.entries[e.Filename] = e
		names = append(names, e.Filename)
	}
	return names, nil
}

// Retrieve downloads the named changefile via the URL recorded by the last
// ListNames. net/http enforces Content-Length, so a truncated body surfaces
// as a read error rather than a silently short artifact.
func (s *FeedStore) Retrieve(ctx context.Context, dir, name string) (io.ReadCloser, error) {
	entry, ok := s.entries[name]
	if !ok {
		return nil, fmt.Errorf("%q not present in last feed listing", name)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("downloading %q: %s", name, resp.Status)
	}
	return resp.Body, nil
}

// Store is not supported; the feed is read-only.
func (s *FeedStore) Store(ctx context.Context, dir, name string, r io.Reader) error {
	return fmt.Errorf("change-feed store is read-only")
}

// Size returns the advertised size of a listed changefile. The transfer
// executor uses it to verify the staged byte count.
func (s *FeedStore) Size(name string) (int64, bool) {
	e, ok := s.entries[name]
	if !ok || e.SizeBytes <= 0 {
		return 0, false
	}
	return e.SizeBytes, true
}

// Close is a no-op; the HTTP client holds no per-run connection state worth
// tearing down.
func (s *FeedStore) Close() error { return nil }
