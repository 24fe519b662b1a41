// Package tray provides a macOS system tray interface for handtype.
package tray

import (
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/getlantern/systray"
)

// PreviewLength is how many trailing characters of the typed text the menu shows.
const PreviewLength = 24

// Tray represents the macOS system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onSettings func()
	onQuit     func()
	enabled    bool
	lastAction string
	text       string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle     *systray.MenuItem
	menuLastAction *systray.MenuItem
	menuText       *systray.MenuItem
}

// New creates a new Tray with the given initial enabled state.
func New(enabled bool) *Tray {
	return &Tray{
		enabled: enabled,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until Quit is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and makes Run return.
func (t *Tray) Quit() {
	systray.Quit()
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("handtype")
	systray.SetTooltip("handtype gesture typing")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle gesture typing")
	systray.AddSeparator()

	t.menuLastAction = systray.AddMenuItem(lastActionTitle(t.lastAction), "Last committed gesture")
	t.menuLastAction.Disable()
	t.menuText = systray.AddMenuItem(textTitle(t.text), "Typed text")
	t.menuText.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuSettings := systray.AddMenuItem("Open Settings...", "Open settings in browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit handtype")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
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

func (t *Tray) onExit() {}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// handleSettings handles the settings menu item click.
func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetLastAction updates the last committed gesture shown in the menu.
func (t *Tray) SetLastAction(name string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.lastAction = name
	if t.menuLastAction != nil {
		t.menuLastAction.SetTitle(lastActionTitle(name))
	}
}

// SetText updates the typed text preview.
func (t *Tray) SetText(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.text = text
	if t.menuText != nil {
		t.menuText.SetTitle(textTitle(text))
	}
}

// LastAction returns the gesture shown as the last action.
func (t *Tray) LastAction() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.lastAction
}

// Text returns the typed text shown in the preview.
func (t *Tray) Text() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.text
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func lastActionTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}

func textTitle(text string) string {
	if text == "" {
		return "Text: (empty)"
	}
	return "Text: " + preview(text, PreviewLength)
}

// preview returns the last n runes of text, marking spaces so trailing
// ones stay visible in a menu.
func preview(text string, n int) string {
	prefix := ""
	if utf8.RuneCountInString(text) > n {
		runes := []rune(text)
		text = string(runes[len(runes)-n:])
		prefix = "…"
	}
	return prefix + strings.ReplaceAll(text, " ", "␣")
}
