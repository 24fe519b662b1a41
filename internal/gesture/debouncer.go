package gesture

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/handtype/internal/detector"
)

// Defaults for the debouncer tunables.
const (
	DefaultRequiredConsecutive = 4
	DefaultCooldown            = 800 * time.Millisecond
)

// ErrInvalidConfig is returned for out-of-range debouncer settings.
var ErrInvalidConfig = errors.New("invalid debouncer config")

// Config holds the debouncer tunables.
type Config struct {
	// RequiredConsecutive is how many frames in a row must classify as the
	// same gesture before it is committed.
	RequiredConsecutive int
	// Cooldown is the minimum time between two committed actions.
	Cooldown time.Duration
}

// DefaultConfig returns the standard tunables: 4 frames and 800ms.
func DefaultConfig() Config {
	return Config{
		RequiredConsecutive: DefaultRequiredConsecutive,
		Cooldown:            DefaultCooldown,
	}
}

// Validate checks that RequiredConsecutive is positive and Cooldown is not negative.
func (c Config) Validate() error {
	if c.RequiredConsecutive <= 0 {
		return fmt.Errorf("%w: required consecutive frames must be positive, got %d", ErrInvalidConfig, c.RequiredConsecutive)
	}
	if c.Cooldown < 0 {
		return fmt.Errorf("%w: cooldown must not be negative, got %s", ErrInvalidConfig, c.Cooldown)
	}
	return nil
}

// Action is a committed gesture together with the time of the frame that
// committed it. Presentation layers use At to schedule feedback.
type Action struct {
	Gesture Gesture   `json:"gesture"`
	At      time.Time `json:"at"`
}

// State is a snapshot of the debouncer.
type State struct {
	// LastAccepted is the most recently committed gesture, empty before the first.
	LastAccepted Gesture `json:"last_accepted"`
	// Candidate is the gesture being accumulated, empty after a reset.
	Candidate Gesture `json:"candidate"`
	// Count is the number of consecutive frames that classified as Candidate.
	Count int `json:"count"`
	// LastActionAt is the time of the last committed action, zero before the first.
	LastActionAt time.Time `json:"last_action_at"`
}

// Debouncer commits a gesture only after it has been held for
// RequiredConsecutive frames and Cooldown has passed since the previous
// action. After each commit the candidate is cleared, so the pose has to be
// accumulated again before anything else fires.
//
// A Debouncer has a single writer and is not safe for concurrent use; frames
// from several producers must be serialized by the owner (see the session
// package).
type Debouncer struct {
	cfg   Config
	state State
	fired bool
}

// NewDebouncer returns a debouncer with no candidate and no action history.
func NewDebouncer(cfg Config) (*Debouncer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Debouncer{cfg: cfg}, nil
}

// Config returns the tunables the debouncer was built with.
func (d *Debouncer) Config() Config {
	return d.cfg
}

// State returns a copy of the current state.
func (d *Debouncer) State() State {
	return d.state
}

// NoHand records a frame without a hand. The candidate and count are cleared;
// the cooldown clock is left alone.
func (d *Debouncer) NoHand() {
	d.state.Candidate = ""
	d.state.Count = 0
}

// Observe records one classified frame taken at now and returns the committed
// action, if any. None frames accumulate like any other gesture but never
// commit.
func (d *Debouncer) Observe(g Gesture, now time.Time) (Action, bool) {
	if g == d.state.Candidate {
		d.state.Count++
	} else {
		d.state.Candidate = g
		d.state.Count = 1
	}

	if g == None || d.state.Count < d.cfg.RequiredConsecutive || !d.cooledDown(now) {
		return Action{}, false
	}

	d.state.LastAccepted = g
	d.state.LastActionAt = now
	d.state.Candidate = ""
	d.state.Count = 0
	d.fired = true

	return Action{Gesture: g, At: now}, true
}

// OnFrame runs one full step: a nil hand is a no-hand frame, anything else is
// extracted, classified and observed.
func (d *Debouncer) OnFrame(h *detector.HandLandmarks, now time.Time) (Action, bool) {
	if h == nil {
		d.NoHand()
		return Action{}, false
	}
	return d.Observe(Classify(Extract(h)), now)
}

func (d *Debouncer) cooledDown(now time.Time) bool {
	if !d.fired {
		return true
	}
	return now.Sub(d.state.LastActionAt) >= d.cfg.Cooldown
}
