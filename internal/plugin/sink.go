package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Keyboard plugin actions.
const (
	KeyboardPlugin  = "keyboard"
	ActionType      = "type"
	ActionSpace     = "space"
	ActionBackspace = "backspace"
)

// DefaultSinkQueue is how many edits may wait for the keyboard plugin.
const DefaultSinkQueue = 64

// KeyboardSink forwards text edits to the keyboard plugin. Edits are queued
// and delivered in order by one worker goroutine, so the caller never waits
// on a subprocess. When the queue is full the edit is dropped and logged.
type KeyboardSink struct {
	plugin   *Plugin
	executor *Executor
	logger   *slog.Logger

	queue     chan Request
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
	closed    bool
}

// NewKeyboardSink starts a sink delivering to plugin through executor.
func NewKeyboardSink(plugin *Plugin, executor *Executor, logger *slog.Logger) (*KeyboardSink, error) {
	for _, action := range []string{ActionType, ActionSpace, ActionBackspace} {
		if !plugin.Manifest.Supports(action) {
			return nil, fmt.Errorf("plugin %s does not support %q", plugin.Manifest.Name, action)
		}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &KeyboardSink{
		plugin:   plugin,
		executor: executor,
		logger:   logger.With("plugin", plugin.Manifest.Name),
		queue:    make(chan Request, DefaultSinkQueue),
		done:     make(chan struct{}),
	}
	go s.run()
	return s, nil
}

// AppendChar types r.
func (s *KeyboardSink) AppendChar(r rune) {
	params, _ := json.Marshal(map[string]string{"key": string(r)})
	s.enqueue(Request{Action: ActionType, Params: params})
}

// AppendSpace presses the space bar.
func (s *KeyboardSink) AppendSpace() {
	s.enqueue(Request{Action: ActionSpace})
}

// DeleteLast presses backspace.
func (s *KeyboardSink) DeleteLast() {
	s.enqueue(Request{Action: ActionBackspace})
}

// Close delivers the queued edits and stops the worker.
func (s *KeyboardSink) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})
	<-s.done
}

func (s *KeyboardSink) enqueue(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.queue <- req:
	default:
		s.logger.Warn("keyboard queue full, dropping edit", "action", req.Action)
	}
}

func (s *KeyboardSink) run() {
	defer close(s.done)
	for req := range s.queue {
		resp, err := s.executor.Execute(context.Background(), s.plugin, &req)
		if err != nil {
			s.logger.Error("keyboard plugin failed", "action", req.Action, "error", err)
			continue
		}
		if !resp.Success {
			s.logger.Error("keyboard plugin rejected edit", "action", req.Action, "error", resp.Error)
		}
	}
}
