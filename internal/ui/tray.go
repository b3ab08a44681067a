package ui

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/getlantern/systray"

	"github.com/framecut/framecut/internal/catalog"
	"github.com/framecut/framecut/internal/editor"
	"github.com/framecut/framecut/internal/playback"
)

type Tray struct {
	session   *editor.Session
	transport *playback.Transport
	runner    *catalog.Runner
	logger    *slog.Logger

	statusItem *systray.MenuItem
	playItem   *systray.MenuItem
	undoItem   *systray.MenuItem
	redoItem   *systray.MenuItem
	splitItem  *systray.MenuItem
	deleteItem *systray.MenuItem
	pauseItem  *systray.MenuItem

	mu    sync.Mutex
	ready bool

	onQuit func()
}

type TrayConfig struct {
	Session   *editor.Session
	Transport *playback.Transport
	Runner    *catalog.Runner
	Logger    *slog.Logger
	OnQuit    func()
}

func NewTray(cfg TrayConfig) *Tray {
	return &Tray{
		session:   cfg.Session,
		transport: cfg.Transport,
		runner:    cfg.Runner,
		logger:    cfg.Logger,
		onQuit:    cfg.OnQuit,
	}
}

func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetIcon(iconBytes)
	systray.SetTitle("Framecut")
	systray.SetTooltip("Framecut editor")

	t.mu.Lock()
	t.statusItem = systray.AddMenuItem("Timeline: empty", "Timeline status")
	t.statusItem.Disable()

	systray.AddSeparator()

	t.playItem = systray.AddMenuItem("Play", "Play or pause the preview")
	t.splitItem = systray.AddMenuItem("Split", "Split the selected clip at the playhead")
	t.deleteItem = systray.AddMenuItem("Delete", "Delete the selected clip")
	t.undoItem = systray.AddMenuItem("Undo", "Undo the last edit")
	t.redoItem = systray.AddMenuItem("Redo", "Redo the last undone edit")

	systray.AddSeparator()

	t.pauseItem = systray.AddMenuItem("Pause Imports", "Pause the import queue")

	systray.AddSeparator()

	quitItem := systray.AddMenuItem("Quit", "Quit Framecut")
	t.ready = true
	t.mu.Unlock()

	t.Update(t.session.State())

	go func() {
		for {
			select {
			case <-t.playItem.ClickedCh:
				mode := t.transport.Toggle()
				t.logger.Debug("transport toggled from tray", "mode", mode)
				t.Update(t.session.State())
			case <-t.splitItem.ClickedCh:
				if _, _, err := t.session.Split(); err != nil {
					t.logger.Info("split not applied", "error", err)
				}
			case <-t.deleteItem.ClickedCh:
				if err := t.session.DeleteSelected(); err != nil {
					t.logger.Info("delete not applied", "error", err)
				}
			case <-t.undoItem.ClickedCh:
				t.session.Undo()
			case <-t.redoItem.ClickedCh:
				t.session.Redo()
			case <-t.pauseItem.ClickedCh:
				t.togglePause()
			case <-quitItem.ClickedCh:
				t.logger.Info("quit requested from tray")
				if t.onQuit != nil {
					t.onQuit()
				}
				systray.Quit()
				return
			}
		}
	}()

	t.logger.Info("system tray ready")
}

func (t *Tray) onExit() {
	t.logger.Info("system tray exiting")
}

// OnChange is the session subscriber keeping menu items in step with the
// editor.
func (t *Tray) OnChange(c editor.Change) {
	t.Update(c.State)
}

// Update applies st to the menu. Calls before the tray is ready are ignored.
func (t *Tray) Update(st editor.State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ready {
		return
	}

	m := describe(st, t.runner != nil && t.runner.IsPaused())
	t.statusItem.SetTitle(m.status)
	t.playItem.SetTitle(m.play)
	t.pauseItem.SetTitle(m.pause)
	t.undoItem.SetTitle(m.undo)
	t.redoItem.SetTitle(m.redo)
	setEnabled(t.splitItem, m.canSplit)
	setEnabled(t.deleteItem, m.canDelete)
	setEnabled(t.undoItem, m.canUndo)
	setEnabled(t.redoItem, m.canRedo)
}

func (t *Tray) togglePause() {
	if t.runner == nil {
		return
	}

	if t.runner.IsPaused() {
		t.runner.Resume()
	} else {
		t.runner.Pause()
	}
	t.Update(t.session.State())
}

func (t *Tray) Quit() {
	systray.Quit()
}

func setEnabled(item *systray.MenuItem, on bool) {
	if on {
		item.Enable()
	} else {
		item.Disable()
	}
}

// menuState is what the tray shows for one editor state.
type menuState struct {
	status    string
	play      string
	pause     string
	undo      string
	redo      string
	canSplit  bool
	canDelete bool
	canUndo   bool
	canRedo   bool
}

func describe(st editor.State, importsPaused bool) menuState {
	m := menuState{
		status:    "Timeline: empty",
		play:      "Play",
		pause:     "Pause Imports",
		undo:      "Undo",
		redo:      "Redo",
		canSplit:  st.Affordances.CanSplit,
		canDelete: st.Affordances.CanDelete,
		canUndo:   st.CanUndo,
		canRedo:   st.CanRedo,
	}
	if n := st.Timeline.Len(); n > 0 {
		m.status = fmt.Sprintf("Timeline: %d clips, %.1fs", n, st.Timeline.ContentEnd())
	}
	if st.Playing {
		m.play = "Pause"
	}
	if st.NextUndo != nil {
		m.undo = "Undo " + st.NextUndo.Label
	}
	if st.NextRedo != nil {
		m.redo = "Redo " + st.NextRedo.Label
	}
	if importsPaused {
		m.pause = "Resume Imports"
		m.status += " (imports paused)"
	}
	return m
}
