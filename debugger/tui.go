// Package debugger provides interactive step-debuggers (a terminal TUI and
// a desktop GUI) over a service.Session's per-cycle snapshot log. Both are
// read-only viewers over a completed or in-progress run; neither adds new
// execution semantics beyond what service.Session already computes.
package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/carp-lang/carp/datapath"
	"github.com/carp-lang/carp/service"
)

// TUI is the terminal step-debugger: register/flag/memory/stack panels
// plus a cycle slider that steps forward/back through the snapshot log.
type TUI struct {
	Session *service.Session

	App   *tview.Application
	Pages *tview.Pages

	MainLayout *tview.Flex

	RegisterView *tview.TextView
	MemoryView   *tview.TextView
	StackView    *tview.TextView
	OutputView   *tview.TextView
	StatusView   *tview.TextView

	// cursor indexes into Session.Log(); it tracks the latest cycle once
	// the run has advanced past it, so viewing history never blocks Run.
	cursor int

	// started guards App.Draw(), which requires a live screen; it is set
	// once Run has attached one, so refresh is safe to call beforehand
	// (e.g. from tests driving step/run directly).
	started bool
}

// NewTUI builds a TUI over an already-Loaded session.
func NewTUI(sess *service.Session) *TUI {
	t := &TUI{
		Session: sess,
		App:     tview.NewApplication(),
	}

	t.initializeViews()
	t.buildLayout()
	t.setupKeyBindings()

	return t
}

func (t *TUI) initializeViews() {
	t.RegisterView = tview.NewTextView().SetDynamicColors(true)
	t.RegisterView.SetBorder(true).SetTitle(" Registers / Flags ")

	t.MemoryView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.MemoryView.SetBorder(true).SetTitle(" Memory ")

	t.StackView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true)
	t.StackView.SetBorder(true).SetTitle(" Stack ")

	t.OutputView = tview.NewTextView().SetDynamicColors(true).SetScrollable(true).SetWrap(true)
	t.OutputView.SetBorder(true).SetTitle(" Output (device 3) ")

	t.StatusView = tview.NewTextView().SetDynamicColors(true)
	t.StatusView.SetBorder(true).SetTitle(" Cycle ")
}

func (t *TUI) buildLayout() {
	top := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(t.RegisterView, 0, 1, false).
		AddItem(t.MemoryView, 0, 1, false).
		AddItem(t.StackView, 0, 1, false)

	t.MainLayout = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(top, 0, 3, false).
		AddItem(t.OutputView, 0, 2, false).
		AddItem(t.StatusView, 3, 0, false)

	t.Pages = tview.NewPages().AddPage("main", t.MainLayout, true, true)
}

// setupKeyBindings binds F8=step, F5=run-to-completion, F2=reset, and the
// left/right arrows to move the cursor through the already-computed log.
func (t *TUI) setupKeyBindings() {
	t.App.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyF8:
			t.step()
			return nil
		case tcell.KeyF5:
			t.run()
			return nil
		case tcell.KeyF2:
			t.reset()
			return nil
		case tcell.KeyLeft:
			t.moveCursor(-1)
			return nil
		case tcell.KeyRight:
			t.moveCursor(1)
			return nil
		case tcell.KeyCtrlC:
			t.App.Stop()
			return nil
		}
		return event
	})
}

func (t *TUI) step() {
	_, err := t.Session.Step()
	t.cursor = len(t.Session.Log()) - 1
	if err != nil {
		t.writeStatus(fmt.Sprintf("[red]runtime error: %v", err))
	}
	t.refresh()
}

func (t *TUI) run() {
	if err := t.Session.Run(); err != nil {
		t.writeStatus(fmt.Sprintf("[red]runtime error: %v", err))
	}
	t.cursor = len(t.Session.Log()) - 1
	t.refresh()
}

func (t *TUI) reset() {
	t.Session.Reset(nil, 0)
	t.cursor = 0
	t.refresh()
}

func (t *TUI) moveCursor(delta int) {
	n := len(t.Session.Log())
	if n == 0 {
		return
	}
	t.cursor += delta
	if t.cursor < 0 {
		t.cursor = 0
	}
	if t.cursor >= n {
		t.cursor = n - 1
	}
	t.refresh()
}

func (t *TUI) writeStatus(msg string) {
	fmt.Fprintf(t.StatusView, "%s\n", msg)
}

// refresh redraws the register panel and the cycle status from the log entry
// under the cursor; the memory, stack and output panels always show the
// data path's current state.
func (t *TUI) refresh() {
	log := t.Session.Log()
	if len(log) == 0 {
		return
	}
	snap := log[t.cursor]

	t.RegisterView.Clear()
	fmt.Fprintf(t.RegisterView, "A = %d\nB = %d\nZ = %v  N = %v\nMP = %d  SP = %d  IP = %d\n",
		snap.Accumulator, snap.Buffer, snap.Zero, snap.Negative,
		snap.MemoryPointer, snap.StackPointer, snap.InstructionPointer)

	t.MemoryView.Clear()
	if dp := t.Session.DataPath(); dp != nil {
		var b strings.Builder
		for i := datapath.DeviceCount; i < len(dp.Memory); i++ {
			fmt.Fprintf(&b, "[%3d] %d\n", i, dp.Memory[i])
		}
		fmt.Fprint(t.MemoryView, b.String())
	}

	t.StackView.Clear()
	if dp := t.Session.DataPath(); dp != nil {
		var b strings.Builder
		for i := len(dp.Memory) - 1; i >= dp.StackPointer && i >= datapath.DeviceCount; i-- {
			fmt.Fprintf(&b, "[%3d] %d\n", i, dp.Memory[i])
		}
		fmt.Fprint(t.StackView, b.String())
	}

	t.OutputView.Clear()
	fmt.Fprint(t.OutputView, t.Session.OutputString())

	t.StatusView.Clear()
	fmt.Fprintf(t.StatusView, "cycle %d/%d  (F8 step, F5 run, F2 reset, arrows to scrub log)", t.cursor, len(log)-1)

	if t.started {
		t.App.Draw()
	}
}

// Run starts the terminal event loop.
func (t *TUI) Run() error {
	t.started = true
	t.refresh()
	return t.App.SetRoot(t.Pages, true).EnableMouse(false).Run()
}

// Stop tears down the terminal application.
func (t *TUI) Stop() {
	t.App.Stop()
}
