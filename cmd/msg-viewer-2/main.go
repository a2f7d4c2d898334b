// Command msg-viewer-2 plays back the narrative stream of a message in
// a graphical window, one character per tick, teletype style.
package main

import (
	"context"
	"image/color"
	"log"
	"os"
	"strings"
	"sync"

	"github.com/hajimehoshi/bitmapfont/v3"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"

	"go.nightjar.dev/fable/cli"
	"go.nightjar.dev/fable/logs"
	"go.nightjar.dev/fable/msg"
	"go.nightjar.dev/fable/world"
)

var fontFace = text.NewGoXFace(bitmapfont.Face)

const initialScreenWidth, initialScreenHeight = 1024, 768

// charsPerTick controls the teletype speed. Update runs at 60Hz.
const charsPerTick = 1

// stream collects the narrative output of the machine so the render
// loop can reveal it at its own pace.
type stream struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (s *stream) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *stream) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

// Game implements ebiten.Game interface.
type Game struct {
	out *stream

	shown  int
	paused bool

	done   <-chan msg.Result
	result *msg.Result
}

// Update proceeds the playback state.
// Update is called every tick (1/60 [s] by default).
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyQ) || inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	select {
	case res := <-g.done:
		g.result = &res
	default:
	}
	if !g.paused {
		if n := len(g.out.String()); g.shown < n {
			g.shown = min(g.shown+charsPerTick, n)
		}
	}
	return nil
}

// Draw draws the revealed part of the narrative.
// Draw is called every frame (typically 1/60[s] for 60Hz display).
func (g *Game) Draw(screen *ebiten.Image) {
	textOp := &text.DrawOptions{}
	textOp.GeoM.Translate(16, 16)
	textOp.LineSpacing = fontFace.Metrics().HLineGap + fontFace.Metrics().HAscent + fontFace.Metrics().HDescent
	textOp.ColorScale.ScaleWithColor(color.RGBA{R: 0xd0, G: 0xd0, B: 0xb0, A: 0xff})

	body := g.out.String()[:g.shown]
	if g.result != nil && g.shown == len(g.out.String()) {
		body += "\n\n[" + g.result.Reason.String() + "]"
	}
	text.Draw(screen, body, fontFace, textOp)
}

// Layout takes the outside size (e.g., the window size) and returns the (logical) screen size.
func (g *Game) Layout(outsideWidth, outsideHeight int) (screenWidth, screenHeight int) {
	return initialScreenWidth, initialScreenHeight
}

func main() {
	ebiten.SetWindowSize(initialScreenWidth, initialScreenHeight)
	ebiten.SetWindowTitle("Fable")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	cfg, err := cli.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse cli config: %s.", err)
	}
	logger, err := logs.New(os.Stderr, 0, cfg.LogFile)
	if err != nil {
		log.Fatalf("Failed to set up logging: %s.", err)
	}
	ps, addrs, err := cfg.OpenStore(logger)
	if err != nil {
		log.Fatalf("Failed to load story: %s.", err)
	}
	addr, err := cfg.StartAddress(addrs)
	if err != nil {
		log.Fatalf("Failed to resolve start message: %s.", err)
	}

	out := &stream{}
	w := world.New(out, cfg.Verb, logger)
	m := msg.New(ps, w, logger)
	m.MaxSteps = cfg.MaxSteps
	m.MaxDepth = cfg.MaxDepth

	done := make(chan msg.Result, 1)
	go func() {
		done <- m.ExecuteMessage(context.Background(), addr)
	}()

	game := &Game{out: out, done: done}
	if err := ebiten.RunGameWithOptions(game, &ebiten.RunGameOptions{
		InitUnfocused: true,
	}); err != nil {
		log.Fatal(err)
	}
}
