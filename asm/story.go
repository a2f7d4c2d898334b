package asm

import (
	"fmt"

	"go.nightjar.dev/fable/nip"
)

// Story lays out messages into the flat paged file format. Messages are
// addressed by symbol index; call operands are 12 bits, so a story is
// capped at 4096 symbols.
type Story struct {
	order []string
	named map[string]*Builder
}

// NewStory returns an empty story.
func NewStory() *Story {
	return &Story{named: make(map[string]*Builder)}
}

// Message adds a named message and returns its builder. Messages are
// laid out in the order they are added.
func (s *Story) Message(name string) *Builder {
	if _, dup := s.named[name]; dup {
		// Re-adding returns the existing builder so callers can extend
		// a message in several steps.
		return s.named[name]
	}
	s.order = append(s.order, name)
	b := NewBuilder()
	s.named[name] = b
	return b
}

// layout builds every message, assigns addresses and resolves call
// operands. Returns the full symbol stream and the address table.
func (s *Story) layout() ([]nip.Sym, map[string]int, error) {
	bodies := make(map[string][]nip.Sym, len(s.order))
	addrs := make(map[string]int, len(s.order))

	next := 0
	for _, name := range s.order {
		body, err := s.named[name].Build()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build message %q: %w", name, err)
		}
		bodies[name] = body
		addrs[name] = next
		next += nip.MsgHeaderSyms + len(body)
	}
	if next > nip.MaxOperand+1 {
		return nil, nil, fmt.Errorf("story is %d symbols, call addresses carry at most %d", next, nip.MaxOperand+1)
	}

	stream := make([]nip.Sym, 0, next)
	for _, name := range s.order {
		body := bodies[name]
		// Resolve call targets now that every address is known.
		for _, cp := range s.named[name].calls {
			addr, ok := addrs[cp.target]
			if !ok {
				return nil, nil, fmt.Errorf("message %q calls undefined message %q", name, cp.target)
			}
			body[cp.pos], body[cp.pos+1] = nip.SplitOperand(addr)
		}
		hi, lo := nip.SplitOperand(len(body))
		stream = append(stream, hi, lo)
		stream = append(stream, body...)
	}
	return stream, addrs, nil
}

// Addresses returns the symbol address of every message.
func (s *Story) Addresses() (map[string]int, error) {
	_, addrs, err := s.layout()
	return addrs, err
}

// Encode packs the story into pages: sentinel header, then whole
// chunks of 8 symbols in 6 bytes. The tail page is emitted in full,
// zero-padded, matching what the store expects from the file.
func (s *Story) Encode() ([]byte, error) {
	stream, _, err := s.layout()
	if err != nil {
		return nil, err
	}

	chunks := (len(stream) + nip.ChunkSyms - 1) / nip.ChunkSyms
	pages := (chunks + nip.ChunksPerPage - 1) / nip.ChunksPerPage
	if pages == 0 {
		pages = 1
	}

	out := make([]byte, 0, pages*nip.PageSize)
	for p := range pages {
		out = append(out, nip.PageSentinel, nip.PageSentinel)
		for c := range nip.ChunksPerPage {
			at := (p*nip.ChunksPerPage + c) * nip.ChunkSyms
			var window []nip.Sym
			if at < len(stream) {
				window = stream[at:min(at+nip.ChunkSyms, len(stream))]
			}
			chunk := nip.PackChunk(window)
			out = append(out, chunk[:]...)
		}
	}
	return out, nil
}
