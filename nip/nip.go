// Package nip defines the on-disk message format: the 6-bit symbol
// codec, the page/chunk geometry and the opcode tables.
package nip

// Sym is a 6-bit code unit ("nip"), the base addressable element of an
// encoded message stream.
type Sym byte

// SymCount is the size of the symbol space.
const SymCount = 64

// Page geometry. A story file is a flat sequence of fixed-size pages,
// each starting with a 2-byte sentinel header followed by a whole
// number of chunks. A chunk packs 8 symbols into 6 bytes.
const (
	PageSize     = 512
	PageHeader   = 2
	ChunkWidth   = 6
	ChunkSyms    = 8
	ChunksPerPage = (PageSize - PageHeader) / ChunkWidth
	SymsPerPage  = ChunksPerPage * ChunkSyms

	// PageSentinel fills the header bytes of every page.
	PageSentinel = 0xA5

	// MsgHeaderSyms is the size of the nominal-length header every
	// message starts with. The length is informational: execution
	// terminates on the end symbol, never on the header.
	MsgHeaderSyms = 2
)

// Control symbols. Everything at SymEnd and above is a control marker;
// the region below it is printable (letters, space, digits,
// punctuation). SymEnd doubles as "return" when the call stack is not
// empty.
const (
	SymEnd Sym = 49 + iota
	SymJump
	SymJumpFalse
	SymAction
	SymActionRef
	SymTest
	SymTestRef
	SymEdit
	SymEditRef
	SymCall
	SymCase

	// 60..63 are unassigned and behave like SymEnd markers in the
	// codec, but are never produced by the assembler.
	ctrlBase = SymEnd
)

// IsControl reports whether s is a control symbol rather than a
// printable one.
func IsControl(s Sym) bool { return s >= ctrlBase }

// Case dispatch kinds, read as the first symbol of a case block.
const (
	CaseRandom Sym = iota
	CaseByWord
	CaseBySynonym
	CaseByRef
)

// MaxOperand is the largest value a 12-bit operand can carry.
const MaxOperand = 1<<12 - 1

// Operand combines two consecutive symbols into a 12-bit big-endian
// value, used for jump deltas, call addresses and opcode references.
func Operand(hi, lo Sym) int {
	return int(hi)<<6 | int(lo)
}

// SplitOperand is the inverse of Operand.
func SplitOperand(v int) (hi, lo Sym) {
	return Sym(v>>6) & 0x3f, Sym(v) & 0x3f
}

// SignedOperand reinterprets a 12-bit operand as two's complement.
// Jump deltas use this encoding; call addresses and case sizes stay
// unsigned.
func SignedOperand(v int) int {
	if v >= 1<<11 {
		v -= 1 << 12
	}
	return v
}

// ChunkSym extracts symbol i from a packed chunk. The 6 bytes are read
// as a single 48-bit big-endian value, symbol 0 in the topmost bits.
func ChunkSym(chunk []byte, i int) Sym {
	var v uint64
	for _, b := range chunk[:ChunkWidth] {
		v = v<<8 | uint64(b)
	}
	shift := uint(ChunkWidth*8 - (i+1)*6)
	return Sym(v>>shift) & 0x3f
}

// PackChunk packs up to ChunkSyms symbols into a 6-byte chunk, symbol 0
// in the topmost bits. Missing symbols pack as zero.
func PackChunk(syms []Sym) [ChunkWidth]byte {
	var v uint64
	for i := range ChunkSyms {
		var s Sym
		if i < len(syms) {
			s = syms[i] & 0x3f
		}
		v = v<<6 | uint64(s)
	}
	var out [ChunkWidth]byte
	for i := ChunkWidth - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}
