package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/handtype/internal/detector"
	"github.com/ayusman/handtype/internal/gesture"
)

func TestManager_CreateGetDelete(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	s, err := m.Create(nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := uuid.Parse(s.ID()); err != nil {
		t.Errorf("expected a UUID session id, got %q", s.ID())
	}

	got, err := m.Get(s.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != s {
		t.Error("Get returned a different session")
	}
	if m.Len() != 1 {
		t.Errorf("expected 1 session, got %d", m.Len())
	}

	if err := m.Delete(s.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := m.Delete(s.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for second delete, got %v", err)
	}
	if _, err := s.Submit(context.Background(), Frame{}); !errors.Is(err, ErrClosed) {
		t.Errorf("expected deleted session to be closed, got %v", err)
	}
}

func TestManager_DefaultConfig(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	if m.Config() != gesture.DefaultConfig() {
		t.Errorf("expected default tunables, got %+v", m.Config())
	}

	s, err := m.Create(nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.Snapshot().Config != gesture.DefaultConfig() {
		t.Errorf("expected session to use defaults, got %+v", s.Snapshot().Config)
	}
}

func TestManager_SetConfig(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	before, err := m.Create(nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	cfg := gesture.Config{RequiredConsecutive: 2, Cooldown: 300 * time.Millisecond}
	if err := m.SetConfig(cfg); err != nil {
		t.Fatalf("SetConfig() error = %v", err)
	}

	after, err := m.Create(nil)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if before.Snapshot().Config != gesture.DefaultConfig() {
		t.Error("existing session must keep its tunables")
	}
	if after.Snapshot().Config != cfg {
		t.Errorf("expected new session to use %+v, got %+v", cfg, after.Snapshot().Config)
	}

	if err := m.SetConfig(gesture.Config{RequiredConsecutive: -1}); !errors.Is(err, gesture.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if m.Config() != cfg {
		t.Error("invalid config must not replace the defaults")
	}
}

func TestManager_CreateWithOverride(t *testing.T) {
	m := NewManager(Options{})
	defer m.Close()

	cfg := gesture.Config{RequiredConsecutive: 1, Cooldown: 0}
	s, err := m.Create(&cfg)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if s.Snapshot().Config != cfg {
		t.Errorf("expected override %+v, got %+v", cfg, s.Snapshot().Config)
	}

	if _, err := m.Create(&gesture.Config{}); !errors.Is(err, gesture.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if m.Len() != 1 {
		t.Errorf("failed create must not register a session, got %d", m.Len())
	}
}

func TestManager_SessionsAreIndependent(t *testing.T) {
	m := NewManager(Options{Config: gesture.Config{RequiredConsecutive: 1, Cooldown: time.Hour}})
	defer m.Close()

	a, _ := m.Create(nil)
	b, _ := m.Create(nil)

	ctx := context.Background()
	if _, err := a.Submit(ctx, Frame{Hand: pose(true, false, false, false)}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	r, err := b.Submit(ctx, Frame{Hand: pose(true, false, false, false)})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if r.Action == nil {
		t.Error("cooldown of one session must not hold back another")
	}
	if a.Text() != "a" || b.Text() != "a" {
		t.Errorf("expected both sessions to type a, got %q and %q", a.Text(), b.Text())
	}
}

func TestManager_ListAndClose(t *testing.T) {
	m := NewManager(Options{})

	for i := 0; i < 3; i++ {
		if _, err := m.Create(nil); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	list := m.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].createdAt.Before(list[i-1].createdAt) {
			t.Error("sessions should be listed oldest first")
		}
	}

	m.Close()
	if m.Len() != 0 {
		t.Errorf("expected no sessions after Close, got %d", m.Len())
	}
	for _, s := range list {
		if _, err := s.Submit(context.Background(), Frame{}); !errors.Is(err, ErrClosed) {
			t.Errorf("expected closed session, got %v", err)
		}
	}
}

func TestManager_CreateWithSink(t *testing.T) {
	shared := &recordingSink{}
	m := NewManager(Options{Config: gesture.Config{RequiredConsecutive: 1}, Sink: shared})
	defer m.Close()

	local := &recordingSink{}
	withSink, err := m.CreateWith(nil, local)
	if err != nil {
		t.Fatalf("CreateWith() error = %v", err)
	}
	plain, err := m.Create(nil)
	if err != nil {
		t.Fatal(err)
	}

	fist := detector.FistLandmarks()
	for _, s := range []*Session{withSink, plain} {
		if _, err := s.Submit(context.Background(), Frame{Hand: &fist, At: time.Unix(1, 0)}); err != nil {
			t.Fatal(err)
		}
	}

	if len(local.edits) != 1 || local.edits[0] != "delete" {
		t.Errorf("expected one delete on the extra sink, got %v", local.edits)
	}
	if len(shared.edits) != 2 {
		t.Errorf("expected both sessions to reach the default sink, got %v", shared.edits)
	}
}
