package msg

// Host is the engine's window on the game world. The machine resolves
// symbols and control flow; every game effect goes through here. Calls
// must not block: the machine runs the whole message synchronously.
type Host interface {
	// Emit appends one decoded character to the narrative output.
	Emit(c byte)

	// InvokeAction performs a world or output side effect.
	InvokeAction(code int, hasRef bool, ref int)

	// InvokeTest evaluates a predicate; the result lands in the test
	// flag read by conditional jumps.
	InvokeTest(code int, hasRef bool, ref int) bool

	// InvokeEdit mutates world state.
	InvokeEdit(code int, hasRef bool, ref int)

	// ResolveCaseReference supplies the comparison value for a
	// by-reference case block.
	ResolveCaseReference(ref int) int

	// CurrentVerbCode supplies the comparison value for by-word and
	// by-synonym case blocks.
	CurrentVerbCode() int

	// RandomInt returns a uniform value in [0, bound) for random case
	// blocks.
	RandomInt(bound int) int
}
