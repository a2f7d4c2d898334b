// Package store serves fixed-size pages of a story file on demand,
// keeping a bounded number of them cached.
package store

import (
	"fmt"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"

	"go.nightjar.dev/fable/nip"
)

// DefaultCachePages bounds the cache when no capacity is given. The
// original engine direct-mapped page number to cache slot and assumed
// the file never outgrew the slot array; keying an LRU by page number
// removes that assumption.
const DefaultCachePages = 64

// PagedStore is a read-only paged view of a story file. Pages are
// immutable for the life of the store: loading is idempotent, so a page
// evicted and reloaded is bit-identical.
type PagedStore struct {
	src   io.ReaderAt
	cache *lru.Cache[int, []byte]
	log   *slog.Logger

	// Loads counts actual backing reads, for the viewers.
	Loads int
}

// New creates a store over src caching up to capacity pages. A zero or
// negative capacity selects DefaultCachePages. logger may be nil.
func New(src io.ReaderAt, capacity int, logger *slog.Logger) (*PagedStore, error) {
	if capacity <= 0 {
		capacity = DefaultCachePages
	}
	cache, err := lru.New[int, []byte](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create page cache: %w", err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PagedStore{src: src, cache: cache, log: logger}, nil
}

// Page returns the content of page n, loading it from the backing
// source on a cache miss. A short read zero-fills the remainder rather
// than failing: the tail page of a story file is allowed to be partial.
func (ps *PagedStore) Page(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative page number %d", n)
	}
	if page, ok := ps.cache.Get(n); ok {
		return page, nil
	}

	page := make([]byte, nip.PageSize)
	read, err := ps.src.ReadAt(page, int64(n)*nip.PageSize)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read page %d: %w", n, err)
	}
	if read < nip.PageSize {
		// Zero-filled already by make, just note it.
		ps.log.Debug("short page read", "page", n, "read", read)
	}
	ps.Loads++
	ps.cache.Add(n, page)
	return page, nil
}

// ReadChunk copies the 6 bytes of chunk record index out of its page.
// Records count chunks across the whole file, skipping page headers.
func (ps *PagedStore) ReadChunk(record int) ([]byte, error) {
	if record < 0 {
		return nil, fmt.Errorf("negative chunk record %d", record)
	}
	page, err := ps.Page(record / nip.ChunksPerPage)
	if err != nil {
		return nil, err
	}
	offset := nip.PageHeader + (record%nip.ChunksPerPage)*nip.ChunkWidth
	chunk := make([]byte, nip.ChunkWidth)
	copy(chunk, page[offset:offset+nip.ChunkWidth])
	return chunk, nil
}

// Cached reports whether page n is currently resident, without
// affecting recency. Used by the viewers.
func (ps *PagedStore) Cached(n int) bool {
	return ps.cache.Contains(n)
}

// Len returns the number of resident pages.
func (ps *PagedStore) Len() int { return ps.cache.Len() }
