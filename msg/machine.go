// Package msg interprets message procedures: the fetch-decode-dispatch
// loop, jump resolution, case dispatch and the bounded call stack.
package msg

import (
	"context"
	"fmt"
	"log/slog"

	"go.nightjar.dev/fable/nip"
	"go.nightjar.dev/fable/store"
)

const (
	// MaxCallDepth bounds nested message calls. A call at full depth is
	// logged and ignored, execution continues past it.
	MaxCallDepth = 32

	// DefaultMaxSteps is the watchdog budget per ExecuteMessage.
	// Position-addressed control flow has no structural termination
	// guarantee, so a malformed script can loop forever without it.
	DefaultMaxSteps = 5000
)

// Frame is the saved cursor state of a caller, restored when the called
// message reaches its end symbol.
type Frame struct {
	Base   int
	Offset int
	Length int
}

// EndReason says how a message execution finished.
type EndReason int

const (
	EndOfMessage EndReason = iota
	EndWatchdog
	EndCancelled
	EndBadAddress
)

func (er EndReason) String() string {
	switch er {
	case EndOfMessage:
		return "end of message"
	case EndWatchdog:
		return "watchdog"
	case EndCancelled:
		return "cancelled"
	case EndBadAddress:
		return "bad address"
	default:
		return "unknown end reason"
	}
}

// Result reports one finished ExecuteMessage.
type Result struct {
	Reason EndReason
	Steps  int
}

// Machine executes message procedures against a paged store, delegating
// every game effect to a host. One machine runs one message at a time;
// independent machines over the same store do not interfere.
type Machine struct {
	store  *store.PagedStore
	host   Host
	log    *slog.Logger
	cursor Cursor

	frames   []Frame
	testFlag bool

	// MaxSteps and MaxDepth default to DefaultMaxSteps and
	// MaxCallDepth; override before the first ExecuteMessage.
	MaxSteps int
	MaxDepth int

	// Trace is an optional event stream for the viewers.
	// Needs to be consumed otherwise execution will block.
	Trace chan Event
}

// New creates a machine. logger may be nil.
func New(st *store.PagedStore, host Host, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Machine{
		store:    st,
		host:     host,
		log:      logger,
		cursor:   NewCursor(st),
		frames:   make([]Frame, 0, MaxCallDepth),
		MaxSteps: DefaultMaxSteps,
		MaxDepth: MaxCallDepth,
	}
}

// Cursor exposes the current cursor state, for the viewers.
func (m *Machine) Cursor() *Cursor { return &m.cursor }

// Depth returns the current call stack depth.
func (m *Machine) Depth() int { return len(m.frames) }

// Frames returns a snapshot of the call stack, outermost caller first.
func (m *Machine) Frames() []Frame {
	return append([]Frame(nil), m.frames...)
}

// TestFlag returns the boolean register written by test opcodes.
func (m *Machine) TestFlag() bool { return m.testFlag }

func (m *Machine) trace(et EventType, text string) {
	if m.Trace == nil {
		return
	}
	m.Trace <- Event{
		Type:  et,
		Base:  m.cursor.Base(),
		Pos:   m.cursor.Pos(),
		Depth: len(m.frames),
		Text:  text,
	}
}

// next fetches one raw symbol. A failed read degrades to the end
// symbol: the message winds down instead of crashing the host.
func (m *Machine) next() nip.Sym {
	s, err := m.cursor.NextSym()
	if err != nil {
		m.log.Error("message read failed", "base", m.cursor.Base(), "pos", m.cursor.Pos(), "error", err)
		m.trace(EvAnomaly, "read failed: "+err.Error())
		return nip.SymEnd
	}
	return s
}

// readOperand fetches a 12-bit operand, degrading like next.
func (m *Machine) readOperand() int {
	hi, lo := m.next(), m.next()
	return nip.Operand(hi, lo)
}

// open points the cursor at a message start and consumes its header.
// Returns false for an invalid address, leaving the cursor untouched.
func (m *Machine) open(addr int) bool {
	saved := m.cursor
	if err := m.cursor.Open(addr); err != nil {
		m.cursor = saved
		m.log.Warn("failed to open message", "addr", addr, "error", err)
		m.trace(EvAnomaly, fmt.Sprintf("open %d failed", addr))
		return false
	}
	m.trace(EvOpen, fmt.Sprintf("message %d, declared length %d", addr, m.cursor.Length))
	return true
}

// ExecuteMessage runs the message at addr to completion, including all
// nested calls. It never returns an error: structural anomalies are
// logged and recovered, and the abnormal end states (watchdog,
// cancellation, bad address) are reported in the result.
func (m *Machine) ExecuteMessage(ctx context.Context, addr int) Result {
	m.frames = m.frames[:0]
	m.testFlag = false

	if !m.open(addr) {
		return Result{Reason: EndBadAddress}
	}

	steps := 0
	for {
		select {
		case <-ctx.Done():
			// Cooperative cancellation: exit mid-loop without
			// corrupting cursor or call stack state.
			m.trace(EvEnd, "cancelled")
			return Result{Reason: EndCancelled, Steps: steps}
		default:
		}

		steps++
		if steps > m.MaxSteps {
			m.log.Warn("runaway message, watchdog tripped",
				"base", m.cursor.Base(), "pos", m.cursor.Pos(), "steps", steps)
			m.trace(EvEnd, "watchdog")
			return Result{Reason: EndWatchdog, Steps: steps}
		}

		sym := m.next()
		switch {
		case sym == nip.SymEnd:
			if len(m.frames) > 0 {
				// The end symbol doubles as return from call.
				f := m.frames[len(m.frames)-1]
				m.frames = m.frames[:len(m.frames)-1]
				m.cursor.restore(f.Base, f.Offset, f.Length)
				m.trace(EvReturn, fmt.Sprintf("return to %d+%d", f.Base, f.Offset))
				continue
			}
			m.trace(EvEnd, "end of message")
			return Result{Reason: EndOfMessage, Steps: steps}

		case sym == nip.SymJump:
			m.jump(false)

		case sym == nip.SymJumpFalse:
			m.jump(true)

		case sym == nip.SymAction:
			m.execOpcode(nip.CatAction, false)
		case sym == nip.SymActionRef:
			m.execOpcode(nip.CatAction, true)

		case sym == nip.SymTest:
			m.execOpcode(nip.CatTest, false)
		case sym == nip.SymTestRef:
			m.execOpcode(nip.CatTest, true)

		case sym == nip.SymEdit:
			m.execOpcode(nip.CatEdit, false)
		case sym == nip.SymEditRef:
			m.execOpcode(nip.CatEdit, true)

		case sym == nip.SymCall:
			m.call()

		case sym == nip.SymCase:
			m.caseDispatch()

		case nip.IsControl(sym):
			// Unassigned control symbols decode to the end marker;
			// treat them the same way but note the oddity.
			m.log.Debug("unassigned control symbol", "sym", int(sym), "pos", m.cursor.Pos())
			if len(m.frames) > 0 {
				f := m.frames[len(m.frames)-1]
				m.frames = m.frames[:len(m.frames)-1]
				m.cursor.restore(f.Base, f.Offset, f.Length)
				continue
			}
			m.trace(EvEnd, "end of message")
			return Result{Reason: EndOfMessage, Steps: steps}

		default:
			c := nip.Decode(sym)
			m.host.Emit(c)
			m.trace(EvEmit, string(c))
		}
	}
}

// jump reads a 12-bit two's complement offset measured from the
// position right after the operand and applies it. Conditional jumps
// fire only while the test flag is false, skipping the "then" branch.
func (m *Machine) jump(conditional bool) {
	offset := nip.SignedOperand(m.readOperand())
	if conditional && m.testFlag {
		return
	}
	if m.cursor.JumpRelative(offset) {
		m.log.Warn("jump clamped to message start", "base", m.cursor.Base(), "delta", offset)
		m.trace(EvAnomaly, "jump clamped")
		return
	}
	m.trace(EvJump, fmt.Sprintf("%+d -> %d", offset, m.cursor.Pos()))
}

// execOpcode reads a category-relative code (plus a reference for the
// -ref variants) and invokes the matching host handler. Unknown codes
// consume their operands and do nothing.
func (m *Machine) execOpcode(cat nip.Category, withRef bool) {
	code := m.next()
	ref := 0
	if withRef {
		ref = m.readOperand()
	}

	if _, ok := nip.Lookup(cat, code); !ok {
		m.log.Warn("unknown opcode", "category", cat.String(), "code", int(code))
		m.trace(EvAnomaly, fmt.Sprintf("unknown %s opcode %d", cat, code))
		return
	}

	m.trace(EvOpcode, nip.Mnemonic(cat, code))
	switch cat {
	case nip.CatAction:
		m.host.InvokeAction(int(code), withRef, ref)
	case nip.CatTest:
		m.testFlag = m.host.InvokeTest(int(code), withRef, ref)
	case nip.CatEdit:
		m.host.InvokeEdit(int(code), withRef, ref)
	}
}

// call pushes the current cursor as a frame and opens the message at
// the absolute address in the operand. A full stack or a bad target
// turns the call into a no-op.
func (m *Machine) call() {
	addr := m.readOperand()
	if len(m.frames) >= m.MaxDepth {
		m.log.Warn("call stack full, call ignored", "addr", addr, "depth", len(m.frames))
		m.trace(EvAnomaly, "call stack full")
		return
	}
	frame := Frame{Base: m.cursor.Base(), Offset: m.cursor.Pos(), Length: m.cursor.Length}
	if !m.open(addr) {
		return
	}
	m.frames = append(m.frames, frame)
	m.trace(EvCall, fmt.Sprintf("call %d", addr))
}
