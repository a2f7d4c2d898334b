// Command msg-viewer is an interactive TUI over a message execution:
// the current page with the read position highlighted, the narrative
// output, the machine state and the event trace, with pause/step keys.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"go.nightjar.dev/fable/cli"
	"go.nightjar.dev/fable/logs"
	"go.nightjar.dev/fable/msg"
	"go.nightjar.dev/fable/nip"
	"go.nightjar.dev/fable/store"
	"go.nightjar.dev/fable/world"
)

type viewer struct {
	app *tview.Application

	pageView  *tview.Table
	outView   *tview.TextView
	stateView *tview.TextView
	traceView *tview.TextView

	ps *store.PagedStore
	m  *msg.Machine

	paused   bool
	pausedMu sync.Mutex

	nextStep   bool
	nextStepMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
}

func newViewer(ctx context.Context, ps *store.PagedStore) *viewer {
	newTextView := func(title string) *tview.TextView {
		tv := tview.NewTextView().SetDynamicColors(true)
		tv.SetTitle(title).SetBorder(true)
		return tv
	}

	outView := newTextView("Narrative")
	outView.ScrollToEnd()
	traceView := newTextView("Trace")
	traceView.ScrollToEnd()

	ctx, cancel := context.WithCancel(ctx)
	return &viewer{
		app:       tview.NewApplication().EnableMouse(true),
		pageView:  tview.NewTable().SetBorders(false),
		outView:   outView,
		stateView: newTextView("Machine"),
		traceView: traceView,
		ps:        ps,
		ctx:       ctx,
		cancel:    cancel,
		paused:    true,
	}
}

func (v *viewer) root() tview.Primitive {
	pagePane := tview.NewFlex()
	pagePane.SetBorder(true)
	pagePane.SetTitle("Page")
	pagePane.AddItem(v.pageView, 0, 1, false)

	rightPane := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.stateView, 0, 2, false).
		AddItem(v.outView, 0, 3, false).
		AddItem(v.traceView, 0, 4, false)

	return tview.NewFlex().
		AddItem(pagePane, 0, 2, true).
		AddItem(rightPane, 0, 1, false)
}

func (v *viewer) stop() {
	v.cancel()
	v.app.Stop()
}

func (v *viewer) init() {
	v.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyCtrlC, tcell.KeyEscape:
			v.stop()
			return nil
		}
		switch event.Rune() {
		case 'n':
			v.nextStepMu.Lock()
			v.nextStep = true
			v.nextStepMu.Unlock()
			return nil
		case ' ':
			v.pausedMu.Lock()
			v.paused = !v.paused
			v.pausedMu.Unlock()
			return nil
		case 'q':
			v.stop()
			return nil
		}
		return event
	})
}

func (v *viewer) isPaused() bool {
	v.pausedMu.Lock()
	defer v.pausedMu.Unlock()
	return v.paused
}

func (v *viewer) takeStep() bool {
	v.nextStepMu.Lock()
	defer v.nextStepMu.Unlock()
	if v.nextStep {
		v.nextStep = false
		return true
	}
	return false
}

// consume paces the machine through its trace channel: one event per
// step while paused, a steady trickle otherwise.
func (v *viewer) consume() {
	steps := 0
	for {
		for v.isPaused() && !v.takeStep() {
			select {
			case <-v.ctx.Done():
				return
			case <-time.After(20 * time.Millisecond):
			}
		}
		select {
		case <-v.ctx.Done():
			return
		case ev, ok := <-v.m.Trace:
			if !ok {
				return
			}
			steps++
			v.app.QueueUpdateDraw(func() { v.draw(ev, steps) })
			if !v.isPaused() {
				time.Sleep(50 * time.Millisecond)
			}
		}
	}
}

func (v *viewer) draw(ev msg.Event, steps int) {
	if ev.Type != msg.EvEmit {
		colorCode := "[" + tcell.ColorYellow.String() + ":::]"
		if ev.Type == msg.EvAnomaly {
			colorCode = "[" + tcell.ColorRed.String() + ":::]"
		}
		fmt.Fprintf(v.traceView, "%s%s[:::] %s\n", colorCode, ev.Type, strings.TrimSuffix(ev.Text, "\n"))
	}
	v.drawState(ev, steps)
	v.drawPage(ev)
}

func (v *viewer) drawState(ev msg.Event, steps int) {
	v.stateView.Clear()
	fmt.Fprintf(v.stateView, "Base: %04x\n", ev.Base)
	fmt.Fprintf(v.stateView, "Pos: %04x\n", ev.Pos)
	fmt.Fprintf(v.stateView, "Depth: %d\n", ev.Depth)
	fmt.Fprintf(v.stateView, "TestFlag: %v\n", v.m.TestFlag())
	fmt.Fprintf(v.stateView, "Events: %d\n", steps)
	fmt.Fprintf(v.stateView, "Pages loaded: %d\n", v.ps.Loads)
	fmt.Fprintf(v.stateView, "Pages resident: %d\n", v.ps.Len())
	for i, f := range v.m.Frames() {
		fmt.Fprintf(v.stateView, "  frame %d: %04x+%04x\n", i, f.Base, f.Offset)
	}
}

func (v *viewer) drawPage(ev msg.Event) {
	const width = 24

	index := ev.Base + ev.Pos
	pageNum := index / nip.ChunkSyms / nip.ChunksPerPage
	page, err := v.ps.Page(pageNum)
	if err != nil {
		return
	}
	hot := nip.PageHeader + (index/nip.ChunkSyms%nip.ChunksPerPage)*nip.ChunkWidth

	v.pageView.Clear()
	title := tview.NewTableCell(fmt.Sprintf("page %d", pageNum)).
		SetAttributes(tcell.AttrBold).SetAlign(tview.AlignLeft)
	v.pageView.SetCell(0, 0, title)
	for i, b := range page {
		cell := tview.NewTableCell(fmt.Sprintf("%02x", b))
		if i >= hot && i < hot+nip.ChunkWidth {
			// The chunk the cursor is currently reading from.
			cell.SetAttributes(tcell.AttrReverse).SetTextColor(tcell.ColorGreen)
		} else if b == 0 {
			cell.SetTextColor(tcell.ColorDimGray).SetAttributes(tcell.AttrDim)
		}
		v.pageView.SetCell(1+i/width, i%width, cell)
	}
}

func main() {
	cfg, err := cli.Parse(os.Args[1:])
	if err != nil {
		log.Fatalf("Failed to parse cli config: %s.", err)
	}
	// The TUI owns the terminal; records go to the log file only.
	logger, err := logs.New(io.Discard, 0, cfg.LogFile)
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

	v := newViewer(context.Background(), ps)

	w := world.New(tview.ANSIWriter(v.outView), cfg.Verb, logger)
	m := msg.New(ps, w, logger)
	m.MaxSteps = cfg.MaxSteps
	m.MaxDepth = cfg.MaxDepth
	m.Trace = make(chan msg.Event, 1)
	v.m = m

	v.init()

	go func() {
		res := m.ExecuteMessage(v.ctx, addr)
		close(m.Trace)
		v.app.QueueUpdateDraw(func() {
			fmt.Fprintf(v.traceView, "[%s:::]finished: %s, %d steps[:::]\n",
				tcell.ColorGreen.String(), res.Reason, res.Steps)
		})
	}()
	go v.consume()

	if err := v.app.SetRoot(v.root(), true).Run(); err != nil {
		log.Fatalf("Failed to run viewer: %s.", err)
	}
}
