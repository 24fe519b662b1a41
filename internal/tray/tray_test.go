package tray

import "testing"

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"short text", "abc", 5, "abc"},
		{"spaces marked", "a b ", 5, "a␣b␣"},
		{"exact length", "abcde", 5, "abcde"},
		{"long text keeps tail", "abcdefgh", 3, "…fgh"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := preview(tt.text, tt.n); got != tt.want {
				t.Errorf("preview(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
			}
		})
	}
}

func TestTitles(t *testing.T) {
	if got := toggleTitle(true); got != "● Enabled" {
		t.Errorf("toggleTitle(true) = %q", got)
	}
	if got := toggleTitle(false); got != "○ Disabled" {
		t.Errorf("toggleTitle(false) = %q", got)
	}
	if got := lastActionTitle(""); got != "Last: none" {
		t.Errorf("lastActionTitle(\"\") = %q", got)
	}
	if got := lastActionTitle("BACKSPACE"); got != "Last: BACKSPACE" {
		t.Errorf("lastActionTitle(BACKSPACE) = %q", got)
	}
	if got := textTitle(""); got != "Text: (empty)" {
		t.Errorf("textTitle(\"\") = %q", got)
	}
}

func TestTray_StateBeforeRun(t *testing.T) {
	tr := New(false)
	if tr.IsEnabled() {
		t.Error("expected tray to start disabled")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	// Menu items do not exist before Run; updates are remembered.
	tr.SetLastAction("A")
	tr.SetText("hi")
	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("expected toggles [true false], got %v", got)
	}
	if tr.lastAction != "A" || tr.text != "hi" {
		t.Errorf("expected remembered state, got %q %q", tr.lastAction, tr.text)
	}
}
