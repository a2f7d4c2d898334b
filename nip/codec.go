package nip

// EndChar is the character every control or unassigned symbol decodes
// to. It never reaches narrative output: the interpreter dispatches on
// the symbol before decoding.
const EndChar byte = 0x00

// The letter block is a fixed permutation, not an identity map: symbol
// (j*7)%26 holds letter 'a'+j. The remaining printable slots are static.
const (
	symSpace    = 26
	symDigit0   = 27
	punctBase   = 37
	punctChars  = ".,!?'\"-:;()\n"
)

var decodeTable = func() [SymCount]byte {
	var t [SymCount]byte
	for i := range t {
		t[i] = EndChar
	}
	for j := range 26 {
		t[(j*7)%26] = byte('a' + j)
	}
	t[symSpace] = ' '
	for d := range 10 {
		t[symDigit0+d] = byte('0' + d)
	}
	for i, c := range []byte(punctChars) {
		t[punctBase+i] = c
	}
	return t
}()

// encodeTable is derived from decodeTable. Uppercase letters share the
// symbol of their lowercase counterpart; every unmapped byte maps to
// SymEnd.
var encodeTable = func() [256]Sym {
	var t [256]Sym
	for i := range t {
		t[i] = SymEnd
	}
	for s, c := range decodeTable {
		if c == EndChar {
			continue
		}
		t[c] = Sym(s)
		if c >= 'a' && c <= 'z' {
			t[c-'a'+'A'] = Sym(s)
		}
	}
	return t
}()

// Decode maps a symbol to its printable character, or EndChar for
// control and unassigned symbols. Total: never fails.
func Decode(s Sym) byte {
	return decodeTable[s&0x3f]
}

// Encode maps a character to its symbol, folding uppercase onto
// lowercase. Unmapped bytes encode to SymEnd. Total: never fails.
func Encode(c byte) Sym {
	return encodeTable[c]
}
