// Package world is a reference host implementation: a deliberately
// small mutable world, enough to drive the cmds, the viewers and the
// demo story. Real games supply their own host.
package world

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"

	"go.nightjar.dev/fable/nip"
)

// World answers the machine's host callbacks against a handful of maps.
type World struct {
	Out  io.Writer
	Verb int
	Quit bool

	Flags   map[int]bool
	Doors   map[int]bool
	Carried map[int]bool
	Worn    map[int]bool
	Lit     map[int]bool
	Fields  map[int]int

	hold int
	log  *slog.Logger
}

// New returns a world emitting narrative to out and reporting verb as
// the current input verb. logger may be nil.
func New(out io.Writer, verb int, logger *slog.Logger) *World {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &World{
		Out:     out,
		Verb:    verb,
		Flags:   make(map[int]bool),
		Doors:   make(map[int]bool),
		Carried: make(map[int]bool),
		Worn:    make(map[int]bool),
		Lit:     make(map[int]bool),
		Fields:  make(map[int]int),
		log:     logger,
	}
}

func (w *World) Emit(c byte) {
	fmt.Fprintf(w.Out, "%c", c)
}

func (w *World) InvokeAction(code int, hasRef bool, ref int) {
	w.log.Debug("action", "op", nip.Mnemonic(nip.CatAction, nip.Sym(code)), "hasRef", hasRef, "ref", ref)
	switch nip.Sym(code) {
	case 2: // moveperson
		w.Fields[ref] = ref
	case 3: // moveobject
		w.Fields[ref] = ref
	case 4: // opendoor
		w.Doors[ref] = true
	case 5: // closedoor
		w.Doors[ref] = false
	case 6: // take
		w.Carried[ref] = true
	case 7: // drop
		w.Carried[ref] = false
	case 8: // wear
		w.Worn[ref] = true
	case 9: // unwear
		w.Worn[ref] = false
	case 10: // light
		w.Lit[ref] = true
	case 11: // douse
		w.Lit[ref] = false
	case 12: // printobj
		fmt.Fprintf(w.Out, "object %d", ref)
	case 15: // quit
		w.Quit = true
	}
}

func (w *World) InvokeTest(code int, hasRef bool, ref int) bool {
	switch nip.Sym(code) {
	case 0: // always
		return true
	case 1: // carrying
		return w.Carried[ref]
	case 2: // present
		return true
	case 3: // dooropen
		return w.Doors[ref]
	case 4: // flagset
		return w.Flags[ref]
	case 5: // samearea
		return true
	case 6: // chance
		return rand.IntN(64) < ref
	case 7: // wearing
		return w.Worn[ref]
	case 8: // alive
		return true
	case 9: // fieldzero
		return w.Fields[ref] == 0
	default:
		return false
	}
}

func (w *World) InvokeEdit(code int, hasRef bool, ref int) {
	switch nip.Sym(code) {
	case 0: // setflag
		w.Flags[ref] = true
	case 1: // clearflag
		w.Flags[ref] = false
	case 2: // setfield
		w.Fields[ref] = w.hold
	case 3: // incfield
		w.Fields[ref]++
	case 4: // decfield
		w.Fields[ref]--
	case 5: // setverb
		w.Verb = ref
	case 6: // swapfield
		w.Fields[ref], w.hold = w.hold, w.Fields[ref]
	}
}

func (w *World) ResolveCaseReference(ref int) int {
	return w.Fields[ref]
}

func (w *World) CurrentVerbCode() int {
	return w.Verb
}

func (w *World) RandomInt(bound int) int {
	return rand.IntN(bound)
}
