// Package tray provides the menu bar interface for the fingerspelling
// trainer.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the menu bar application.
type Tray struct {
	onToggle    func(enabled bool)
	onAccepting func(accepting bool)
	onSkip      func()
	onSettings  func()
	onQuit      func()
	enabled     bool
	accepting   bool
	mu          sync.RWMutex

	menuToggle    *systray.MenuItem
	menuAccepting *systray.MenuItem
	menuCurrent   *systray.MenuItem
	current       string
}

// New creates a new Tray with detection enabled and the quiz accepting.
func New() *Tray {
	return &Tray{
		enabled:   true,
		accepting: true,
	}
}

// OnToggle sets the callback run when detection is switched on or off.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnAccepting sets the callback run when grading is paused or resumed.
func (t *Tray) OnAccepting(fn func(accepting bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onAccepting = fn
}

// OnSkip sets the callback run when the current letter is skipped.
func (t *Tray) OnSkip(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSkip = fn
}

// OnSettings sets the callback run when the trainer UI is requested.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback run when quit is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the menu bar application. It blocks until Quit is called and
// must run on the main goroutine.
func (t *Tray) Run() {
	systray.Run(t.onReady, func() {})
}

// Quit stops the menu bar application.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Fingerspell")
	systray.SetTooltip("Fingerspelling trainer")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle hand detection")
	t.menuAccepting = systray.AddMenuItem(acceptingTitle(t.accepting), "Pause or resume grading")
	systray.AddSeparator()
	t.menuCurrent = systray.AddMenuItem(currentTitle(t.current), "Letter being practiced")
	t.menuCurrent.Disable()
	t.mu.Unlock()

	menuSkip := systray.AddMenuItem("Skip letter", "Move on to the next letter")
	systray.AddSeparator()
	menuSettings := systray.AddMenuItem("Open Trainer...", "Open the trainer in the browser")
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("Quit", "Quit Fingerspell")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-t.menuAccepting.ClickedCh:
				t.handleAccepting()
			case <-menuSkip.ClickedCh:
				t.call(&t.onSkip)
			case <-menuSettings.ClickedCh:
				t.call(&t.onSettings)
			case <-menuQuit.ClickedCh:
				t.mu.RLock()
				quit := t.onQuit
				t.mu.RUnlock()
				if quit != nil {
					quit()
				}
				systray.Quit()
				return
			}
		}
	}()
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Outside the lock: the callback may call back into the tray.
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handleAccepting() {
	t.mu.Lock()
	t.accepting = !t.accepting
	accepting := t.accepting
	if t.menuAccepting != nil {
		t.menuAccepting.SetTitle(acceptingTitle(accepting))
	}
	callback := t.onAccepting
	t.mu.Unlock()

	if callback != nil {
		callback(accepting)
	}
}

// call runs the callback stored in *slot on its own goroutine so a slow
// handler does not block the menu.
func (t *Tray) call(slot *func()) {
	t.mu.RLock()
	fn := *slot
	t.mu.RUnlock()
	if fn != nil {
		go fn()
	}
}

// SetCurrent shows letter as the one being practiced. An empty letter
// means the prompt is exhausted or unset.
func (t *Tray) SetCurrent(letter string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = letter
	if t.menuCurrent != nil {
		t.menuCurrent.SetTitle(currentTitle(letter))
	}
}

// Current returns the letter last passed to SetCurrent.
func (t *Tray) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// IsEnabled returns the current detection state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// IsAccepting returns the current grading state.
func (t *Tray) IsAccepting() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.accepting
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Detection on"
	}
	return "○ Detection off"
}

func acceptingTitle(accepting bool) string {
	if accepting {
		return "Pause grading"
	}
	return "Resume grading"
}

func currentTitle(letter string) string {
	if letter == "" {
		return "Current: none"
	}
	return "Current: " + letter
}
