package nip

import "fmt"

// Category selects which opcode table a code indexes. The three
// categories live in disjoint code spaces so a canonical code can name
// any opcode in traces and listings.
type Category int

const (
	CatAction Category = iota
	CatTest
	CatEdit
)

func (c Category) String() string {
	switch c {
	case CatAction:
		return "action"
	case CatTest:
		return "test"
	case CatEdit:
		return "edit"
	default:
		return "unknown category"
	}
}

// Base returns the category's code space offset.
func (c Category) Base() int {
	switch c {
	case CatAction:
		return 0x00
	case CatTest:
		return 0x40
	case CatEdit:
		return 0x80
	default:
		return -1
	}
}

// OpCode is the definition of one engine operation. The effect lives
// behind the host; the table carries the name for listings and the
// known-code check.
type OpCode struct {
	Name    string
	Code    Sym
	Comment string
}

// Canonical returns the category-qualified code of an opcode.
func (oc OpCode) Canonical(cat Category) int {
	return cat.Base() + int(oc.Code)
}

// Lookup finds the opcode definition for a category-relative code.
func Lookup(cat Category, code Sym) (OpCode, bool) {
	var table []OpCode
	switch cat {
	case CatAction:
		table = ActionTable
	case CatTest:
		table = TestTable
	case CatEdit:
		table = EditTable
	}
	for _, oc := range table {
		if oc.Code == code {
			return oc, true
		}
	}
	return OpCode{}, false
}

// Mnemonic returns a printable name for a category-relative code, known
// or not.
func Mnemonic(cat Category, code Sym) string {
	if oc, ok := Lookup(cat, code); ok {
		return oc.Name
	}
	return fmt.Sprintf("%s.%d?", cat, code)
}
