package msg

import (
	"fmt"

	"go.nightjar.dev/fable/nip"
	"go.nightjar.dev/fable/store"
)

// Cursor tracks a logical position inside a message stream and resolves
// it to chunk reads against the paged store. Positions count symbols:
// base is the symbol index of the message start, offset the symbols
// advanced since.
type Cursor struct {
	store *store.PagedStore

	base   int
	offset int

	// Length is the 2-symbol header read by Open. The original format
	// stores it but the engine never trusts it for bounds: messages
	// terminate on the end symbol, not on length.
	Length int
}

// NewCursor returns a cursor over st, not yet opened.
func NewCursor(st *store.PagedStore) Cursor {
	return Cursor{store: st}
}

// Open resets the cursor to a message start, reads the informational
// length header and positions past it.
func (c *Cursor) Open(addr int) error {
	if addr < 0 {
		return fmt.Errorf("invalid message address %d", addr)
	}
	c.base, c.offset = addr, 0
	length, err := c.ReadOperand()
	if err != nil {
		return fmt.Errorf("failed to read message header at %d: %w", addr, err)
	}
	c.Length = length
	return nil
}

// Base returns the symbol address of the message start.
func (c *Cursor) Base() int { return c.base }

// Pos returns the current offset from the message start.
func (c *Cursor) Pos() int { return c.offset }

// restore rewinds the cursor to a saved (base, offset) pair. Used by
// the call return path.
func (c *Cursor) restore(base, offset, length int) {
	c.base, c.offset, c.Length = base, offset, length
}

// NextSym returns the symbol at the current position and advances by
// one, crossing chunk and page boundaries transparently.
func (c *Cursor) NextSym() (nip.Sym, error) {
	index := c.base + c.offset
	chunk, err := c.store.ReadChunk(index / nip.ChunkSyms)
	if err != nil {
		return 0, err
	}
	c.offset++
	return nip.ChunkSym(chunk, index%nip.ChunkSyms), nil
}

// NextChar decodes the next symbol to its character.
func (c *Cursor) NextChar() (byte, error) {
	s, err := c.NextSym()
	if err != nil {
		return 0, err
	}
	return nip.Decode(s), nil
}

// ReadOperand reads two consecutive symbols as a 12-bit big-endian
// value.
func (c *Cursor) ReadOperand() (int, error) {
	hi, err := c.NextSym()
	if err != nil {
		return 0, err
	}
	lo, err := c.NextSym()
	if err != nil {
		return 0, err
	}
	return nip.Operand(hi, lo), nil
}

// JumpRelative moves the position by delta symbols. A negative result
// clamps to zero; the report lets the machine log the anomaly and
// continue.
func (c *Cursor) JumpRelative(delta int) (clamped bool) {
	c.offset += delta
	if c.offset < 0 {
		c.offset = 0
		return true
	}
	return false
}

// JumpAbsolute moves to an offset from the message start, clamped to
// zero.
func (c *Cursor) JumpAbsolute(pos int) {
	c.offset = max(pos, 0)
}
