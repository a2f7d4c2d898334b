// Package disasm renders message procedures as readable listings: text
// runs, control mnemonics with resolved operands, and case blocks
// enumerated entry by entry through their skip operands.
package disasm

import (
	"fmt"
	"strconv"
	"strings"

	"go.nightjar.dev/fable/msg"
	"go.nightjar.dev/fable/nip"
	"go.nightjar.dev/fable/store"
)

// Line is one row of a listing. Pos is the symbol offset from the
// message start, header included.
type Line struct {
	Pos  int
	Text string
}

func (l Line) String() string {
	return fmt.Sprintf("%04x  %s", l.Pos, l.Text)
}

// Format joins a listing into printable text.
func Format(lines []Line) string {
	out := &strings.Builder{}
	for _, l := range lines {
		fmt.Fprintln(out, l)
	}
	return out.String()
}

// Message lists the message at addr. The walk is bounded by the
// declared length header when present, otherwise by the first end
// symbol at case depth zero; a run of garbage cannot loop the walker.
func Message(ps *store.PagedStore, addr int) ([]Line, error) {
	c := msg.NewCursor(ps)
	if err := c.Open(addr); err != nil {
		return nil, fmt.Errorf("failed to open message %d: %w", addr, err)
	}

	w := &walker{c: &c}
	w.line(0, fmt.Sprintf("msg @%04x, declared length %d", addr, c.Length))

	end := -1
	if c.Length > 0 {
		end = nip.MsgHeaderSyms + c.Length
	}
	if err := w.walk(end, end < 0); err != nil {
		return nil, err
	}
	w.flushText()
	return w.lines, nil
}

type walker struct {
	c     *msg.Cursor
	lines []Line

	text    strings.Builder
	textPos int
}

func (w *walker) line(pos int, text string) {
	w.flushText()
	w.lines = append(w.lines, Line{Pos: pos, Text: text})
}

func (w *walker) flushText() {
	if w.text.Len() == 0 {
		return
	}
	w.lines = append(w.lines, Line{Pos: w.textPos, Text: strconv.Quote(w.text.String())})
	w.text.Reset()
}

// walk lists symbols until pos reaches end (when end >= 0) or, with
// stopAtEnd, until an end symbol. Case entry bodies recurse with their
// own bounds.
func (w *walker) walk(end int, stopAtEnd bool) error {
	for end < 0 || w.c.Pos() < end {
		pos := w.c.Pos()
		sym, err := w.c.NextSym()
		if err != nil {
			return fmt.Errorf("read failed at %d: %w", pos, err)
		}

		switch sym {
		case nip.SymEnd:
			w.line(pos, "end")
			if stopAtEnd {
				return nil
			}

		case nip.SymJump, nip.SymJumpFalse:
			op, err := w.c.ReadOperand()
			if err != nil {
				return err
			}
			delta := nip.SignedOperand(op)
			name := "jump"
			if sym == nip.SymJumpFalse {
				name = "jif"
			}
			w.line(pos, fmt.Sprintf("%s %+d -> %04x", name, delta, w.c.Pos()+delta))

		case nip.SymAction, nip.SymTest, nip.SymEdit,
			nip.SymActionRef, nip.SymTestRef, nip.SymEditRef:
			if err := w.opcode(pos, sym); err != nil {
				return err
			}

		case nip.SymCall:
			op, err := w.c.ReadOperand()
			if err != nil {
				return err
			}
			w.line(pos, fmt.Sprintf("call @%04x", op))

		case nip.SymCase:
			if err := w.caseBlock(pos); err != nil {
				return err
			}

		default:
			if nip.IsControl(sym) {
				w.line(pos, fmt.Sprintf("ctrl %d", sym))
				continue
			}
			if w.text.Len() == 0 {
				w.textPos = pos
			}
			w.text.WriteByte(nip.Decode(sym))
		}
	}
	return nil
}

func (w *walker) opcode(pos int, sym nip.Sym) error {
	var cat nip.Category
	withRef := false
	switch sym {
	case nip.SymAction:
		cat = nip.CatAction
	case nip.SymActionRef:
		cat, withRef = nip.CatAction, true
	case nip.SymTest:
		cat = nip.CatTest
	case nip.SymTestRef:
		cat, withRef = nip.CatTest, true
	case nip.SymEdit:
		cat = nip.CatEdit
	case nip.SymEditRef:
		cat, withRef = nip.CatEdit, true
	}
	code, err := w.c.NextSym()
	if err != nil {
		return err
	}
	name := nip.Mnemonic(cat, code)
	if !withRef {
		w.line(pos, name)
		return nil
	}
	ref, err := w.c.ReadOperand()
	if err != nil {
		return err
	}
	w.line(pos, fmt.Sprintf("%s #%d", name, ref))
	return nil
}

func (w *walker) caseBlock(pos int) error {
	kind, err := w.c.NextSym()
	if err != nil {
		return err
	}
	kindName := "?"
	switch kind {
	case nip.CaseRandom:
		kindName = "random"
	case nip.CaseByWord:
		kindName = "word"
	case nip.CaseBySynonym:
		kindName = "synonym"
	case nip.CaseByRef:
		kindName = "ref"
	}
	refText := ""
	if kind == nip.CaseByRef {
		ref, err := w.c.ReadOperand()
		if err != nil {
			return err
		}
		refText = fmt.Sprintf(" #%d", ref)
	}
	count, err := w.c.NextSym()
	if err != nil {
		return err
	}
	total, err := w.c.ReadOperand()
	if err != nil {
		return err
	}
	w.line(pos, fmt.Sprintf("case %s%s, %d entries, %d symbols", kindName, refText, count, total))

	for i := range int(count) {
		entryPos := w.c.Pos()
		value, err := w.c.NextSym()
		if err != nil {
			return err
		}
		skip, err := w.c.ReadOperand()
		if err != nil {
			return err
		}
		w.line(entryPos, fmt.Sprintf("  when %d (entry %d):", value, i))
		if err := w.walk(w.c.Pos()+skip, false); err != nil {
			return err
		}
	}
	return nil
}
