// Package text holds the action sinks that committed gestures are applied to.
package text

import (
	"fmt"
	"sync"

	"github.com/ayusman/handtype/internal/gesture"
)

// Sink receives the text-editing effects of committed actions.
type Sink interface {
	AppendChar(r rune)
	AppendSpace()
	DeleteLast()
}

// Apply performs the edit for a committed action: letters type their
// lower-case character, SPACE appends a space and BACKSPACE deletes the last
// character. Anything else is rejected.
func Apply(s Sink, a gesture.Action) error {
	switch a.Gesture {
	case gesture.Space:
		s.AppendSpace()
	case gesture.Backspace:
		s.DeleteLast()
	default:
		r, ok := a.Gesture.Letter()
		if !ok {
			return fmt.Errorf("gesture %q has no text effect", a.Gesture)
		}
		s.AppendChar(r)
	}
	return nil
}

// Buffer is an in-memory Sink. It is safe for concurrent use so that
// presentation code can read it while a session writes.
type Buffer struct {
	mu    sync.RWMutex
	runes []rune
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// AppendChar appends r.
func (b *Buffer) AppendChar(r rune) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runes = append(b.runes, r)
}

// AppendSpace appends a single space.
func (b *Buffer) AppendSpace() {
	b.AppendChar(' ')
}

// DeleteLast removes the last character; it is a no-op on an empty buffer.
func (b *Buffer) DeleteLast() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.runes) > 0 {
		b.runes = b.runes[:len(b.runes)-1]
	}
}

// String returns the current text.
func (b *Buffer) String() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return string(b.runes)
}

// Len returns the number of characters in the buffer.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.runes)
}

// Reset empties the buffer.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.runes = b.runes[:0]
}

// MultiSink duplicates every edit to all of sinks, in order.
func MultiSink(sinks ...Sink) Sink {
	all := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			all = append(all, s)
		}
	}
	return multiSink(all)
}

type multiSink []Sink

func (m multiSink) AppendChar(r rune) {
	for _, s := range m {
		s.AppendChar(r)
	}
}

func (m multiSink) AppendSpace() {
	for _, s := range m {
		s.AppendSpace()
	}
}

func (m multiSink) DeleteLast() {
	for _, s := range m {
		s.DeleteLast()
	}
}
