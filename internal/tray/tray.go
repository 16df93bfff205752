// Package tray provides a system tray menu for pappadam.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/pappadam/internal/metrics"
)

// Tray is the system tray menu: a Live toggle, the latest rating and quit.
type Tray struct {
	mu         sync.RWMutex
	onToggle   func(live bool) error
	onSettings func()
	onQuit     func()
	live       bool

	menuLive *systray.MenuItem
	menuLast *systray.MenuItem
}

// New creates a Tray in the Idle state.
func New() *Tray {
	return &Tray{}
}

// OnToggle sets the callback run when Live is toggled. If it returns an
// error the toggle is rolled back.
func (t *Tray) OnToggle(fn func(live bool) error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback for the settings menu item.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback for the quit menu item.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run shows the tray. It blocks until Quit.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit removes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Pappadam")
	systray.SetTooltip("Pappadam bubble analyzer")

	t.mu.Lock()
	t.menuLive = systray.AddMenuItem(liveTitle(false), "Toggle live camera analysis")
	systray.AddSeparator()
	t.menuLast = systray.AddMenuItem("Last: none", "Latest analysis")
	t.menuLast.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Pappadam")

	go func() {
		for {
			select {
			case <-t.menuLive.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func liveTitle(live bool) string {
	if live {
		return "● Live"
	}
	return "○ Idle"
}

// handleToggle flips Live and reports the new state to the callback.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.live = !t.live
	live := t.live
	callback := t.onToggle
	t.mu.Unlock()

	if callback != nil {
		if err := callback(live); err != nil {
			live = !live
			t.mu.Lock()
			t.live = live
			t.mu.Unlock()
		}
	}
	t.SetLive(live)
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	systray.Quit()
}

// SetLive syncs the toggle with a Live state changed elsewhere.
func (t *Tray) SetLive(live bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.live = live
	if t.menuLive != nil {
		t.menuLive.SetTitle(liveTitle(live))
	}
}

// IsLive returns the toggle state.
func (t *Tray) IsLive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.live
}

// LastTitle formats the latest-result menu line.
func LastTitle(s metrics.Snapshot) string {
	return fmt.Sprintf("Last: %d bubbles · %s", s.Count, s.Rating)
}

// SetLast shows the latest snapshot in the menu.
func (t *Tray) SetLast(s metrics.Snapshot) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.menuLast != nil {
		t.menuLast.SetTitle(LastTitle(s))
	}
}
