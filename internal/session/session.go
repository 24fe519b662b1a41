// Package session runs one gesture debouncer per user behind a single owning
// goroutine, so frames from any number of producers are applied strictly in
// arrival order.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ayusman/handtype/internal/detector"
	"github.com/ayusman/handtype/internal/gesture"
	"github.com/ayusman/handtype/internal/text"
)

// DefaultQueueSize is the number of frames that may wait for a session.
const DefaultQueueSize = 32

var (
	// ErrClosed is returned when submitting to a closed session.
	ErrClosed = errors.New("session closed")
	// ErrNotFound is returned when a session id is unknown.
	ErrNotFound = errors.New("session not found")
	// ErrOutOfOrder is returned for a frame older than the one before it.
	// The frame is not applied.
	ErrOutOfOrder = errors.New("frame time goes backwards")
)

// Frame is one tick of input. A nil Hand means no hand was detected.
// When At is zero the session clock is read instead.
type Frame struct {
	Hand *detector.HandLandmarks
	At   time.Time
}

// Result describes what one frame did.
type Result struct {
	Hand    bool
	Fingers gesture.FingerState
	Gesture gesture.Gesture // empty when no hand
	Rule    string
	Action  *gesture.Action
	Text    string
	State   gesture.State
}

// Snapshot is a point-in-time view of a session for presentation.
type Snapshot struct {
	ID         string
	CreatedAt  time.Time
	Config     gesture.Config
	Text       string
	State      gesture.State
	Frames     int
	Actions    int
	LastAction *gesture.Action
}

// Options configure a session.
type Options struct {
	Config    gesture.Config
	QueueSize int
	// Clock is read once per frame without its own timestamp. Defaults to time.Now.
	Clock func() time.Time
	// Sink receives every committed edit in addition to the session buffer.
	Sink text.Sink
	// OnAction is called from the session goroutine after each commit.
	OnAction func(id string, a gesture.Action)
	Logger   *slog.Logger
}

type request struct {
	frame Frame
	reply chan reply
}

type reply struct {
	result Result
	err    error
}

// Session owns a debouncer and its text buffer. All mutation happens on the
// goroutine started by New.
type Session struct {
	id        string
	createdAt time.Time
	opts      Options
	debouncer *gesture.Debouncer
	buffer    *text.Buffer
	sink      text.Sink
	logger    *slog.Logger

	requests  chan request
	done      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// lastAt is the time of the last applied frame. Owned by run.
	lastAt time.Time

	mu       sync.RWMutex
	snapshot Snapshot
}

// New creates a session and starts its goroutine.
func New(id string, opts Options) (*Session, error) {
	d, err := gesture.NewDebouncer(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	buf := text.NewBuffer()
	s := &Session{
		id:        id,
		createdAt: opts.Clock(),
		opts:      opts,
		debouncer: d,
		buffer:    buf,
		sink:      text.MultiSink(buf, opts.Sink),
		logger:    logger.With("session", id),
		requests:  make(chan request, opts.QueueSize),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	s.snapshot = Snapshot{ID: id, CreatedAt: s.createdAt, Config: opts.Config}

	go s.run()
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Text returns the typed text so far.
func (s *Session) Text() string {
	return s.buffer.String()
}

// Snapshot returns the state after the most recent frame.
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snapshot
	snap.Text = s.buffer.String()
	return snap
}

// Submit queues a frame and waits for its result. It blocks while the queue
// is full. A frame stamped earlier than the previous one is rejected with
// ErrOutOfOrder.
//
// When ctx ends after the frame was queued, Submit returns ctx.Err() but the
// frame may still be applied.
func (s *Session) Submit(ctx context.Context, f Frame) (Result, error) {
	req := request{frame: f, reply: make(chan reply, 1)}

	select {
	case s.requests <- req:
	case <-s.done:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	select {
	case r := <-req.reply:
		return r.result, r.err
	case <-s.done:
		return Result{}, ErrClosed
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// Close stops the session goroutine. Frames still queued are dropped.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	<-s.stopped
}

func (s *Session) run() {
	defer close(s.stopped)
	for {
		select {
		case <-s.done:
			return
		case req := <-s.requests:
			res, err := s.step(req.frame)
			req.reply <- reply{result: res, err: err}
		}
	}
}

// step runs one classify-and-debounce step.
func (s *Session) step(f Frame) (Result, error) {
	now := f.At
	if now.IsZero() {
		now = s.opts.Clock()
	}
	if now.Before(s.lastAt) {
		s.logger.Warn("frame out of order", "at", now, "last", s.lastAt)
		return Result{}, fmt.Errorf("%w: %s before %s", ErrOutOfOrder,
			now.Format(time.RFC3339Nano), s.lastAt.Format(time.RFC3339Nano))
	}
	s.lastAt = now

	res := Result{Hand: f.Hand != nil}
	if f.Hand == nil {
		s.debouncer.NoHand()
	} else {
		res.Fingers = gesture.Extract(f.Hand)
		res.Gesture, res.Rule = gesture.Match(res.Fingers)
		if a, ok := s.debouncer.Observe(res.Gesture, now); ok {
			res.Action = &a
			s.commit(a)
		}
	}

	res.State = s.debouncer.State()
	res.Text = s.buffer.String()

	s.mu.Lock()
	s.snapshot.State = res.State
	s.snapshot.Frames++
	if res.Action != nil {
		s.snapshot.Actions++
		s.snapshot.LastAction = res.Action
	}
	s.mu.Unlock()

	return res, nil
}

func (s *Session) commit(a gesture.Action) {
	if err := text.Apply(s.sink, a); err != nil {
		s.logger.Error("apply action", "gesture", a.Gesture, "error", err)
		return
	}
	s.logger.Info("action committed", "gesture", a.Gesture)
	if s.opts.OnAction != nil {
		s.opts.OnAction(s.id, a)
	}
}
