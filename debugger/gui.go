package debugger

import (
	"fmt"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/carp-lang/carp/datapath"
	"github.com/carp-lang/carp/service"
)

// GUI is the desktop-window equivalent of the TUI: register grid, memory
// grid, stack grid, a step/run/reset toolbar, and a console pane showing
// OUTPUT-device activity.
type GUI struct {
	Session *service.Session

	App    fyne.App
	Window fyne.Window

	RegisterView *widget.TextGrid
	MemoryView   *widget.TextGrid
	StackView    *widget.TextGrid
	ConsoleView  *widget.TextGrid
	StatusLabel  *widget.Label

	Toolbar *widget.Toolbar
}

// RunGUI runs the desktop debugger window and blocks until it is closed.
func RunGUI(sess *service.Session) error {
	gui := newGUI(sess)
	gui.Window.ShowAndRun()
	return nil
}

func newGUI(sess *service.Session) *GUI {
	myApp := app.New()
	myWindow := myApp.NewWindow("carp debugger")

	g := &GUI{Session: sess, App: myApp, Window: myWindow}

	g.initializeViews()
	g.buildLayout()
	g.setupToolbar()
	g.refresh()

	myWindow.Resize(fyne.NewSize(1000, 700))
	return g
}

func (g *GUI) initializeViews() {
	g.RegisterView = widget.NewTextGrid()
	g.MemoryView = widget.NewTextGrid()
	g.StackView = widget.NewTextGrid()
	g.ConsoleView = widget.NewTextGrid()
	g.StatusLabel = widget.NewLabel("ready")
}

func (g *GUI) buildLayout() {
	registerPanel := container.NewBorder(widget.NewLabel("Registers / Flags"), nil, nil, nil,
		container.NewScroll(g.RegisterView))
	memoryPanel := container.NewBorder(widget.NewLabel("Memory"), nil, nil, nil,
		container.NewScroll(g.MemoryView))
	stackPanel := container.NewBorder(widget.NewLabel("Stack"), nil, nil, nil,
		container.NewScroll(g.StackView))
	consolePanel := container.NewBorder(widget.NewLabel("Output (device 3)"), nil, nil, nil,
		container.NewScroll(g.ConsoleView))

	tabs := container.NewAppTabs(
		container.NewTabItem("Memory", memoryPanel),
		container.NewTabItem("Stack", stackPanel),
		container.NewTabItem("Console", consolePanel),
	)

	split := container.NewHSplit(registerPanel, tabs)
	split.SetOffset(0.3)

	statusBar := container.NewBorder(nil, nil, nil, nil, g.StatusLabel)
	content := container.NewBorder(g.Toolbar, statusBar, nil, nil, split)
	g.Window.SetContent(content)
}

func (g *GUI) setupToolbar() {
	g.Toolbar = widget.NewToolbar(
		widget.NewToolbarAction(theme.MediaSkipNextIcon(), g.step),
		widget.NewToolbarAction(theme.MediaPlayIcon(), g.run),
		widget.NewToolbarAction(theme.MediaReplayIcon(), g.reset),
	)
}

func (g *GUI) step() {
	_, err := g.Session.Step()
	g.reportError(err)
	g.refresh()
}

func (g *GUI) run() {
	err := g.Session.Run()
	g.reportError(err)
	g.refresh()
}

func (g *GUI) reset() {
	g.Session.Reset(nil, 0)
	g.StatusLabel.SetText("ready")
	g.refresh()
}

func (g *GUI) reportError(err error) {
	if err != nil {
		g.StatusLabel.SetText(fmt.Sprintf("runtime error: %v", err))
	}
}

func (g *GUI) refresh() {
	snap := g.Session.Snapshot()
	g.RegisterView.SetText(fmt.Sprintf(
		"A = %d\nB = %d\nZ = %v  N = %v\nMP = %d  SP = %d  IP = %d",
		snap.Accumulator, snap.Buffer, snap.Zero, snap.Negative,
		snap.MemoryPointer, snap.StackPointer, snap.InstructionPointer))

	if dp := g.Session.DataPath(); dp != nil {
		var mem, stack strings.Builder
		for i := datapath.DeviceCount; i < len(dp.Memory); i++ {
			fmt.Fprintf(&mem, "[%3d] %d\n", i, dp.Memory[i])
			if i >= dp.StackPointer {
				fmt.Fprintf(&stack, "[%3d] %d\n", i, dp.Memory[i])
			}
		}
		g.MemoryView.SetText(mem.String())
		g.StackView.SetText(stack.String())
	}

	g.ConsoleView.SetText(g.Session.OutputString())

	if g.Session.State() != service.StateError {
		log := g.Session.Log()
		g.StatusLabel.SetText(fmt.Sprintf("%s — cycle %d", g.Session.State(), len(log)-1))
	}
}
