package msg

import (
	"fmt"

	"go.nightjar.dev/fable/nip"
)

// caseDispatch runs the interleaved multi-way branch: a kind symbol, an
// optional reference operand, an entry count, a total-size operand, then
// count entries of (value symbol, skip operand, inline body). A matched
// entry's body executes as ordinary stream content; everything else is
// skipped over by operand arithmetic, never by scanning bytes.
func (m *Machine) caseDispatch() {
	kind := m.next()
	ref := 0
	if kind == nip.CaseByRef {
		ref = m.readOperand()
	}
	count := int(m.next())
	total := m.readOperand()
	start := m.cursor.Pos()

	var match int
	switch kind {
	case nip.CaseRandom:
		if count > 0 {
			match = m.host.RandomInt(count)
		}
	case nip.CaseByWord, nip.CaseBySynonym:
		match = m.host.CurrentVerbCode()
	case nip.CaseByRef:
		match = m.host.ResolveCaseReference(ref)
	default:
		m.log.Warn("unknown case kind, block skipped", "kind", int(kind), "pos", start)
		m.trace(EvAnomaly, fmt.Sprintf("unknown case kind %d", kind))
		m.cursor.JumpAbsolute(start + total)
		return
	}

	for i := range count {
		value := int(m.next())
		skip := m.readOperand()

		matched := false
		if kind == nip.CaseRandom {
			matched = i == match
		} else {
			// A zero value is the wildcard/default entry.
			matched = value == 0 || value == match
		}
		if matched {
			// Leave the cursor at the start of this entry's inline
			// body; the main loop executes it as ordinary content.
			m.trace(EvCase, fmt.Sprintf("entry %d matched (value %d)", i, value))
			return
		}
		m.cursor.JumpRelative(skip)
	}

	m.cursor.JumpAbsolute(start + total)
	m.trace(EvCase, "no entry matched")
}
