package assets

import (
	_ "embed"
)

// DemoScript is the bundled demo story source, compiled on demand by
// the cmds and tests that want a ready-made story.
//
//go:embed demo.fable
var DemoScript string
