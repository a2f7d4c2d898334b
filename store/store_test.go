package store

import (
	"bytes"
	"testing"

	"go.nightjar.dev/fable/nip"
)

// fullPage returns one encoded page whose chunk c packs the symbols
// {c, c+1, ...}.
func fullPage(seed nip.Sym) []byte {
	out := []byte{nip.PageSentinel, nip.PageSentinel}
	for c := range nip.ChunksPerPage {
		syms := make([]nip.Sym, nip.ChunkSyms)
		for i := range syms {
			syms[i] = (seed + nip.Sym(c+i)) & 0x3f
		}
		chunk := nip.PackChunk(syms)
		out = append(out, chunk[:]...)
	}
	return out
}

func TestPageIdempotent(t *testing.T) {
	t.Parallel()

	backing := append(fullPage(0), fullPage(1)...)
	ps, err := New(bytes.NewReader(backing), 4, nil)
	if err != nil {
		t.Fatalf("Failed to create store: %s.", err)
	}

	first, err := ps.Page(1)
	if err != nil {
		t.Fatalf("Failed to read page 1: %s.", err)
	}
	second, err := ps.Page(1)
	if err != nil {
		t.Fatalf("Failed to re-read page 1: %s.", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Re-read page differs from first read.")
	}
	if ps.Loads != 1 {
		t.Errorf("Loads = %d after two reads of one page, want 1.", ps.Loads)
	}
	if !bytes.Equal(first, backing[nip.PageSize:2*nip.PageSize]) {
		t.Error("Page content does not match the backing bytes.")
	}
}

func TestPageShortReadZeroFills(t *testing.T) {
	t.Parallel()

	// 100 bytes of backing: page 0 is partial, page 1 entirely past EOF.
	backing := fullPage(0)[:100]
	ps, err := New(bytes.NewReader(backing), 4, nil)
	if err != nil {
		t.Fatalf("Failed to create store: %s.", err)
	}

	page, err := ps.Page(0)
	if err != nil {
		t.Fatalf("Failed to read partial page: %s.", err)
	}
	if len(page) != nip.PageSize {
		t.Fatalf("Partial page has %d bytes, want %d.", len(page), nip.PageSize)
	}
	if !bytes.Equal(page[:100], backing) {
		t.Error("Partial page head does not match the backing bytes.")
	}
	for i := 100; i < nip.PageSize; i++ {
		if page[i] != 0 {
			t.Fatalf("Partial page byte %d = %#x, want zero fill.", i, page[i])
		}
	}

	beyond, err := ps.Page(1)
	if err != nil {
		t.Fatalf("Failed to read page past EOF: %s.", err)
	}
	if !bytes.Equal(beyond, make([]byte, nip.PageSize)) {
		t.Error("Page past EOF is not all zero.")
	}
}

func TestPageNegative(t *testing.T) {
	t.Parallel()

	ps, err := New(bytes.NewReader(nil), 0, nil)
	if err != nil {
		t.Fatalf("Failed to create store: %s.", err)
	}
	if _, err := ps.Page(-1); err == nil {
		t.Error("Page(-1) did not fail.")
	}
	if _, err := ps.ReadChunk(-1); err == nil {
		t.Error("ReadChunk(-1) did not fail.")
	}
}

func TestReadChunkSkipsHeaders(t *testing.T) {
	t.Parallel()

	backing := append(fullPage(0), fullPage(7)...)
	ps, err := New(bytes.NewReader(backing), 4, nil)
	if err != nil {
		t.Fatalf("Failed to create store: %s.", err)
	}

	// Chunk 0 of page 1 is record ChunksPerPage; its bytes start right
	// after that page's sentinel header.
	chunk, err := ps.ReadChunk(nip.ChunksPerPage)
	if err != nil {
		t.Fatalf("Failed to read chunk: %s.", err)
	}
	want := backing[nip.PageSize+nip.PageHeader : nip.PageSize+nip.PageHeader+nip.ChunkWidth]
	if !bytes.Equal(chunk, want) {
		t.Errorf("ReadChunk(%d) = %x, want %x.", nip.ChunksPerPage, chunk, want)
	}
	if got := nip.ChunkSym(chunk, 0); got != 7 {
		t.Errorf("First symbol of page 1 chunk 0 = %d, want 7.", got)
	}
}

func TestEvictionReloadsIdentical(t *testing.T) {
	t.Parallel()

	backing := append(append(fullPage(0), fullPage(1)...), fullPage(2)...)
	ps, err := New(bytes.NewReader(backing), 2, nil)
	if err != nil {
		t.Fatalf("Failed to create store: %s.", err)
	}

	first, err := ps.Page(0)
	if err != nil {
		t.Fatalf("Failed to read page 0: %s.", err)
	}
	saved := bytes.Clone(first)

	for _, n := range []int{1, 2} {
		if _, err := ps.Page(n); err != nil {
			t.Fatalf("Failed to read page %d: %s.", n, err)
		}
	}
	if ps.Cached(0) {
		t.Fatal("Page 0 still resident after filling a 2-page cache.")
	}
	if ps.Len() != 2 {
		t.Errorf("Len() = %d, want 2.", ps.Len())
	}

	again, err := ps.Page(0)
	if err != nil {
		t.Fatalf("Failed to reload page 0: %s.", err)
	}
	if !bytes.Equal(again, saved) {
		t.Error("Reloaded page differs from the evicted one.")
	}
	if ps.Loads != 4 {
		t.Errorf("Loads = %d, want 4 (three pages plus one reload).", ps.Loads)
	}
}
