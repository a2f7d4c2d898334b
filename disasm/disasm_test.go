package disasm

import (
	"bytes"
	"strings"
	"testing"

	"go.nightjar.dev/fable/asm"
	"go.nightjar.dev/fable/nip"
	"go.nightjar.dev/fable/store"
)

func buildStore(t *testing.T, fn func(s *asm.Story)) (*store.PagedStore, map[string]int) {
	t.Helper()
	s := asm.NewStory()
	fn(s)
	data, err := s.Encode()
	if err != nil {
		t.Fatalf("Failed to encode story: %s.", err)
	}
	addrs, err := s.Addresses()
	if err != nil {
		t.Fatalf("Failed to lay out story: %s.", err)
	}
	ps, err := store.New(bytes.NewReader(data), 0, nil)
	if err != nil {
		t.Fatalf("Failed to create store: %s.", err)
	}
	return ps, addrs
}

func TestMessageListing(t *testing.T) {
	t.Parallel()

	ps, addrs := buildStore(t, func(s *asm.Story) {
		s.Message("m").
			Text("hello").
			TestRef("chance", 32).
			JumpFalse("skip").
			Action("describe").
			Label("skip").
			Call("m").
			End()
	})

	lines, err := Message(ps, addrs["m"])
	if err != nil {
		t.Fatalf("Failed to list message: %s.", err)
	}
	listing := Format(lines)

	for _, want := range []string{
		"declared length",
		`"hello"`,
		"chance #32",
		"jif",
		"describe",
		"call @0000",
		"end",
	} {
		if !strings.Contains(listing, want) {
			t.Errorf("Listing lacks %q:\n%s", want, listing)
		}
	}
}

func TestCaseListing(t *testing.T) {
	t.Parallel()

	ps, addrs := buildStore(t, func(s *asm.Story) {
		b := s.Message("m")
		b.BeginCase(nip.CaseByWord, 0)
		b.When(5).Text("push")
		b.When(0).Text("any")
		b.CloseCase()
		b.End()
	})

	lines, err := Message(ps, addrs["m"])
	if err != nil {
		t.Fatalf("Failed to list message: %s.", err)
	}
	listing := Format(lines)

	for _, want := range []string{
		"case word, 2 entries",
		"when 5 (entry 0):",
		`"push"`,
		"when 0 (entry 1):",
		`"any"`,
	} {
		if !strings.Contains(listing, want) {
			t.Errorf("Listing lacks %q:\n%s", want, listing)
		}
	}
}

func TestJumpTargetsResolved(t *testing.T) {
	t.Parallel()

	ps, addrs := buildStore(t, func(s *asm.Story) {
		s.Message("m").
			Jump("tail").
			Text("skipped").
			Label("tail").
			End()
	})

	lines, err := Message(ps, addrs["m"])
	if err != nil {
		t.Fatalf("Failed to list message: %s.", err)
	}
	listing := Format(lines)

	// The label sits past the 7-symbol skipped run; header included the
	// target offset is 12.
	if !strings.Contains(listing, "jump +7 -> 000c") {
		t.Errorf("Jump target not resolved:\n%s", listing)
	}
}

func TestLineString(t *testing.T) {
	t.Parallel()

	l := Line{Pos: 0x2a, Text: "end"}
	if got := l.String(); got != "002a  end" {
		t.Errorf("Line.String() = %q.", got)
	}
}
