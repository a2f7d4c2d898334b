package world

import (
	"strings"
	"testing"
)

func TestEmit(t *testing.T) {
	t.Parallel()

	out := &strings.Builder{}
	w := New(out, 0, nil)
	for _, c := range []byte("hi.") {
		w.Emit(c)
	}
	if got := out.String(); got != "hi." {
		t.Errorf("Emitted %q.", got)
	}
}

func TestActionsMutateWorld(t *testing.T) {
	t.Parallel()

	w := New(&strings.Builder{}, 0, nil)

	w.InvokeAction(4, true, 1) // opendoor
	if !w.Doors[1] {
		t.Error("Door 1 not open after opendoor.")
	}
	w.InvokeAction(5, true, 1) // closedoor
	if w.Doors[1] {
		t.Error("Door 1 still open after closedoor.")
	}

	w.InvokeAction(6, true, 9) // take
	if !w.Carried[9] {
		t.Error("Object 9 not carried after take.")
	}
	w.InvokeAction(7, true, 9) // drop
	if w.Carried[9] {
		t.Error("Object 9 still carried after drop.")
	}

	w.InvokeAction(15, false, 0) // quit
	if !w.Quit {
		t.Error("Quit not set.")
	}
}

func TestTestsReadWorld(t *testing.T) {
	t.Parallel()

	w := New(&strings.Builder{}, 0, nil)

	if !w.InvokeTest(0, false, 0) { // always
		t.Error("always returned false.")
	}
	if w.InvokeTest(1, true, 3) { // carrying
		t.Error("carrying true for an object never taken.")
	}
	w.Carried[3] = true
	if !w.InvokeTest(1, true, 3) {
		t.Error("carrying false for a carried object.")
	}

	// chance with ref 0 never fires, with ref 64 always does.
	if w.InvokeTest(6, true, 0) {
		t.Error("chance 0 fired.")
	}
	if !w.InvokeTest(6, true, 64) {
		t.Error("chance 64 did not fire.")
	}

	if w.InvokeTest(63, true, 0) {
		t.Error("Unknown test code returned true.")
	}
}

func TestEditsAndFields(t *testing.T) {
	t.Parallel()

	w := New(&strings.Builder{}, 0, nil)

	w.InvokeEdit(0, true, 2) // setflag
	if !w.Flags[2] {
		t.Error("Flag 2 not set.")
	}
	w.InvokeEdit(1, true, 2) // clearflag
	if w.Flags[2] {
		t.Error("Flag 2 still set.")
	}

	w.InvokeEdit(3, true, 5) // incfield
	w.InvokeEdit(3, true, 5)
	w.InvokeEdit(4, true, 5) // decfield
	if w.Fields[5] != 1 {
		t.Errorf("Field 5 = %d, want 1.", w.Fields[5])
	}
	if w.ResolveCaseReference(5) != 1 {
		t.Errorf("ResolveCaseReference(5) = %d, want 1.", w.ResolveCaseReference(5))
	}

	// swapfield moves the field through the hold register.
	w.InvokeEdit(6, true, 5) // hold=1, field 5=0
	if w.Fields[5] != 0 {
		t.Errorf("Field 5 = %d after swap, want 0.", w.Fields[5])
	}
	w.InvokeEdit(2, true, 8) // setfield from hold
	if w.Fields[8] != 1 {
		t.Errorf("Field 8 = %d, want 1 from the hold register.", w.Fields[8])
	}

	w.InvokeEdit(5, true, 12) // setverb
	if w.CurrentVerbCode() != 12 {
		t.Errorf("Verb = %d, want 12.", w.CurrentVerbCode())
	}
}

func TestRandomIntBound(t *testing.T) {
	t.Parallel()

	w := New(&strings.Builder{}, 0, nil)
	for range 100 {
		if v := w.RandomInt(3); v < 0 || v >= 3 {
			t.Fatalf("RandomInt(3) = %d.", v)
		}
	}
}
