// Package asm assembles message procedures: a programmatic builder for
// single messages, a story packer that lays messages out into the paged
// file format, and a small line-based script compiler on top of both.
package asm

import (
	"fmt"

	"go.nightjar.dev/fable/nip"
)

// Builder assembles the body of one message. Positions are symbol
// offsets from the start of the body; the story packer prepends the
// 2-symbol length header and assigns file addresses.
//
// Errors stick: the first problem is kept and reported by Build, so
// call sites can chain without checking each step.
type Builder struct {
	syms    []nip.Sym
	labels  map[string]int
	jumps   []jumpPatch
	calls   []callPatch
	cases   []*casePatch
	err     error
}

type jumpPatch struct {
	pos   int // index of the operand's hi symbol
	label string
}

// callPatch marks a call operand to be resolved against a message name
// by the story packer.
type callPatch struct {
	pos    int
	target string
}

type casePatch struct {
	countPos int
	totalPos int
	startPos int // position right after the total operand
	entries  int
	entryPos int // skip-operand position of the open entry, -1 if none
}

// NewBuilder returns an empty message builder.
func NewBuilder() *Builder {
	return &Builder{labels: make(map[string]int)}
}

func (b *Builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
}

func (b *Builder) emit(syms ...nip.Sym) {
	b.syms = append(b.syms, syms...)
}

// emitOperand appends a 12-bit operand and returns its position.
func (b *Builder) emitOperand(v int) int {
	pos := len(b.syms)
	if v < 0 || v > nip.MaxOperand {
		b.fail("operand %d out of range", v)
		v = 0
	}
	hi, lo := nip.SplitOperand(v)
	b.emit(hi, lo)
	return pos
}

func (b *Builder) patchOperand(pos, v int) {
	if v < 0 || v > nip.MaxOperand {
		b.fail("patched operand %d out of range", v)
		return
	}
	b.syms[pos], b.syms[pos+1] = nip.SplitOperand(v)
}

// Text appends the encoded symbols of s. Characters outside the codec
// are an error: they would encode to the end symbol and cut the message
// short.
func (b *Builder) Text(s string) *Builder {
	for i := 0; i < len(s); i++ {
		sym := nip.Encode(s[i])
		if sym == nip.SymEnd {
			b.fail("unencodable character %q in text", s[i])
			continue
		}
		b.emit(sym)
	}
	return b
}

// Label marks the current position for jumps.
func (b *Builder) Label(name string) *Builder {
	if _, dup := b.labels[name]; dup {
		b.fail("duplicate label %q", name)
		return b
	}
	b.labels[name] = len(b.syms)
	return b
}

// Jump emits an unconditional jump to a label, resolved at Build time.
func (b *Builder) Jump(label string) *Builder {
	b.emit(nip.SymJump)
	pos := b.emitOperand(0)
	b.jumps = append(b.jumps, jumpPatch{pos: pos, label: label})
	return b
}

// JumpFalse emits a jump taken only while the test flag is false.
func (b *Builder) JumpFalse(label string) *Builder {
	b.emit(nip.SymJumpFalse)
	pos := b.emitOperand(0)
	b.jumps = append(b.jumps, jumpPatch{pos: pos, label: label})
	return b
}

func (b *Builder) opByName(table []nip.OpCode, cat nip.Category, name string) (nip.Sym, bool) {
	for _, oc := range table {
		if oc.Name == name {
			return oc.Code, true
		}
	}
	b.fail("unknown %s opcode %q", cat, name)
	return 0, false
}

// Action emits an action opcode by mnemonic.
func (b *Builder) Action(name string) *Builder {
	if code, ok := b.opByName(nip.ActionTable, nip.CatAction, name); ok {
		b.emit(nip.SymAction, code)
	}
	return b
}

// ActionRef emits an action opcode carrying a 12-bit reference.
func (b *Builder) ActionRef(name string, ref int) *Builder {
	if code, ok := b.opByName(nip.ActionTable, nip.CatAction, name); ok {
		b.emit(nip.SymActionRef, code)
		b.emitOperand(ref)
	}
	return b
}

// Test emits a test opcode by mnemonic.
func (b *Builder) Test(name string) *Builder {
	if code, ok := b.opByName(nip.TestTable, nip.CatTest, name); ok {
		b.emit(nip.SymTest, code)
	}
	return b
}

// TestRef emits a test opcode carrying a 12-bit reference.
func (b *Builder) TestRef(name string, ref int) *Builder {
	if code, ok := b.opByName(nip.TestTable, nip.CatTest, name); ok {
		b.emit(nip.SymTestRef, code)
		b.emitOperand(ref)
	}
	return b
}

// Edit emits an edit opcode by mnemonic.
func (b *Builder) Edit(name string) *Builder {
	if code, ok := b.opByName(nip.EditTable, nip.CatEdit, name); ok {
		b.emit(nip.SymEdit, code)
	}
	return b
}

// EditRef emits an edit opcode carrying a 12-bit reference.
func (b *Builder) EditRef(name string, ref int) *Builder {
	if code, ok := b.opByName(nip.EditTable, nip.CatEdit, name); ok {
		b.emit(nip.SymEditRef, code)
		b.emitOperand(ref)
	}
	return b
}

// Call emits a subroutine call to another message, resolved to its file
// address by the story packer.
func (b *Builder) Call(target string) *Builder {
	b.emit(nip.SymCall)
	pos := b.emitOperand(0)
	b.calls = append(b.calls, callPatch{pos: pos, target: target})
	return b
}

// End emits the end-of-message symbol (return, at call depth).
func (b *Builder) End() *Builder {
	b.emit(nip.SymEnd)
	return b
}

// BeginCase opens a case block. ref is only encoded for the by-ref
// kind. Entries follow via When; CloseCase patches count and total.
func (b *Builder) BeginCase(kind nip.Sym, ref int) *Builder {
	b.emit(nip.SymCase, kind)
	if kind == nip.CaseByRef {
		b.emitOperand(ref)
	}
	cp := &casePatch{entryPos: -1}
	b.emit(0) // entry count, patched by CloseCase.
	cp.countPos = len(b.syms) - 1
	cp.totalPos = b.emitOperand(0)
	cp.startPos = len(b.syms)
	b.cases = append(b.cases, cp)
	return b
}

// When opens the next case entry with a match value (0 is the
// wildcard). The entry's body is everything emitted until the next When
// or CloseCase; a body that should not fall through must end itself
// with End or a Jump past the block.
func (b *Builder) When(value nip.Sym) *Builder {
	if len(b.cases) == 0 {
		b.fail("When outside a case block")
		return b
	}
	cp := b.cases[len(b.cases)-1]
	b.closeEntry(cp)
	cp.entries++
	b.emit(value)
	cp.entryPos = b.emitOperand(0)
	return b
}

// closeEntry patches the open entry's skip operand to the distance from
// right after the operand to the current position.
func (b *Builder) closeEntry(cp *casePatch) {
	if cp.entryPos < 0 {
		return
	}
	b.patchOperand(cp.entryPos, len(b.syms)-(cp.entryPos+2))
	cp.entryPos = -1
}

// CloseCase ends the innermost case block.
func (b *Builder) CloseCase() *Builder {
	if len(b.cases) == 0 {
		b.fail("CloseCase without a case block")
		return b
	}
	cp := b.cases[len(b.cases)-1]
	b.cases = b.cases[:len(b.cases)-1]
	b.closeEntry(cp)
	if cp.entries > int(nip.SymCount-1) {
		b.fail("case block with %d entries does not fit a symbol", cp.entries)
		return b
	}
	b.syms[cp.countPos] = nip.Sym(cp.entries)
	b.patchOperand(cp.totalPos, len(b.syms)-cp.startPos)
	return b
}

// Build resolves jump labels and returns the body symbols. Call
// operands stay zero until the story packer resolves them.
func (b *Builder) Build() ([]nip.Sym, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.cases) > 0 {
		return nil, fmt.Errorf("unclosed case block")
	}
	for _, jp := range b.jumps {
		target, ok := b.labels[jp.label]
		if !ok {
			return nil, fmt.Errorf("undefined label %q", jp.label)
		}
		delta := target - (jp.pos + 2)
		if delta < -(1<<11) || delta >= 1<<11 {
			return nil, fmt.Errorf("jump to %q out of 12-bit range (%d)", jp.label, delta)
		}
		b.syms[jp.pos], b.syms[jp.pos+1] = nip.SplitOperand(delta & nip.MaxOperand)
	}
	return b.syms, nil
}
