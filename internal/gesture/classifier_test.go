package gesture

import (
	"testing"

	"github.com/ayusman/handtype/internal/detector"
)

// allStates enumerates the 16 finger states.
func allStates() []FingerState {
	states := make([]FingerState, 0, 16)
	for mask := 0; mask < 16; mask++ {
		states = append(states, FingerState{
			Index:  mask&1 != 0,
			Middle: mask&2 != 0,
			Ring:   mask&4 != 0,
			Pinky:  mask&8 != 0,
		})
	}
	return states
}

func TestClassify(t *testing.T) {
	tests := []struct {
		fingers string
		want    Gesture
	}{
		{"1111", Space},
		{"0000", Backspace},
		{"1110", D},
		{"0111", F},
		{"1100", B},
		{"1010", E},
		{"0110", G},
		{"1000", A},
		{"0100", H},
		{"0010", I},
		{"0001", J},
	}

	for _, tt := range tests {
		t.Run(tt.fingers, func(t *testing.T) {
			s := parseState(t, tt.fingers)
			if got := Classify(s); got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.fingers, got, tt.want)
			}
		})
	}
}

func TestClassify_CoverageGap(t *testing.T) {
	// These shapes are valid hands but outside the vocabulary.
	unmapped := []string{"1001", "0101", "1101", "1011", "0011"}

	for _, fingers := range unmapped {
		s := parseState(t, fingers)
		g, rule := Match(s)
		if g != None {
			t.Errorf("Classify(%s) = %s, want NONE", fingers, g)
		}
		if rule != "" {
			t.Errorf("Match(%s) rule = %q, want empty", fingers, rule)
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	for _, s := range allStates() {
		first := Classify(s)
		for i := 0; i < 5; i++ {
			if got := Classify(s); got != first {
				t.Fatalf("Classify(%s) changed from %s to %s", s, first, got)
			}
		}
	}
}

func TestClassify_NeverProducesC(t *testing.T) {
	// index-middle-ring is shadowed by three-front.
	for _, s := range allStates() {
		g, rule := Match(s)
		if g == C {
			t.Errorf("Classify(%s) = C via %s, expected C to be unreachable", s, rule)
		}
	}

	if got := Classify(FingerState{Index: true, Middle: true, Ring: true}); got != D {
		t.Errorf("expected three-front to classify as D, got %s", got)
	}
}

func TestRules_FirstMatchWins(t *testing.T) {
	for _, s := range allStates() {
		var first *Rule
		for i := range Rules {
			if Rules[i].Matches(s) {
				first = &Rules[i]
				break
			}
		}

		g, name := Match(s)
		if first == nil {
			if g != None {
				t.Errorf("state %s: expected NONE, got %s", s, g)
			}
			continue
		}
		if g != first.Gesture || name != first.Name {
			t.Errorf("state %s: expected %s (%s), got %s (%s)", s, first.Gesture, first.Name, g, name)
		}
	}
}

func TestRules_Order(t *testing.T) {
	want := []Gesture{Space, Backspace, D, C, F, B, E, G, A, H, I, J}
	if len(Rules) != len(want) {
		t.Fatalf("expected %d rules, got %d", len(want), len(Rules))
	}
	for i, g := range want {
		if Rules[i].Gesture != g {
			t.Errorf("rule %d (%s): expected %s, got %s", i, Rules[i].Name, g, Rules[i].Gesture)
		}
	}
}

func TestGesture_Letter(t *testing.T) {
	letters := map[Gesture]rune{A: 'a', B: 'b', C: 'c', D: 'd', E: 'e', F: 'f', G: 'g', H: 'h', I: 'i', J: 'j'}
	for g, want := range letters {
		r, ok := g.Letter()
		if !ok || r != want {
			t.Errorf("%s.Letter() = %q, %v; want %q, true", g, r, ok, want)
		}
	}

	for _, g := range []Gesture{Space, Backspace, None, "", "K", "AB"} {
		if _, ok := g.Letter(); ok {
			t.Errorf("%q.Letter() should not be a letter", g)
		}
	}
}

func TestGesture_IsAction(t *testing.T) {
	if None.IsAction() {
		t.Error("NONE must not be an action")
	}
	if Gesture("").IsAction() {
		t.Error("empty gesture must not be an action")
	}
	for _, r := range Rules {
		if !r.Gesture.IsAction() {
			t.Errorf("%s should be an action", r.Gesture)
		}
	}
}

func TestExtract(t *testing.T) {
	t.Run("open palm", func(t *testing.T) {
		h := detector.OpenPalmLandmarks()
		if got := Extract(&h); got.Count() != 4 {
			t.Errorf("expected 4 fingers up, got %s", got)
		}
	})

	t.Run("fist", func(t *testing.T) {
		h := detector.FistLandmarks()
		if got := Extract(&h); got.Count() != 0 {
			t.Errorf("expected no fingers up, got %s", got)
		}
	})

	t.Run("every pose round-trips", func(t *testing.T) {
		for _, s := range allStates() {
			h := detector.PoseLandmarks(s.Index, s.Middle, s.Ring, s.Pinky)
			if got := Extract(&h); got != s {
				t.Errorf("expected %s, got %s", s, got)
			}
		}
	})

	t.Run("equal y is down", func(t *testing.T) {
		h := detector.OpenPalmLandmarks()
		h.Points[detector.RingTip].Y = h.Points[detector.RingPIP].Y
		if Extract(&h).Ring {
			t.Error("ring should be down when tip and PIP are level")
		}
	})

	t.Run("only tip and PIP matter", func(t *testing.T) {
		h := detector.FistLandmarks()
		h.Points[detector.IndexDIP].Y = 0.01
		h.Points[detector.IndexMCP].Y = 0.99
		if Extract(&h).Index {
			t.Error("index should stay down")
		}
	})
}

func TestExtractPoints(t *testing.T) {
	palm := detector.OpenPalmLandmarks()

	s, err := ExtractPoints(palm.Points[:])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Count() != 4 {
		t.Errorf("expected 4 fingers up, got %s", s)
	}

	if _, err := ExtractPoints(palm.Points[:detector.IndexTip]); err == nil {
		t.Error("expected error for a frame cut off at the index tip")
	}
}

func TestFingerState_String(t *testing.T) {
	s := FingerState{Index: true, Ring: true}
	if s.String() != "1010" {
		t.Errorf("expected 1010, got %s", s.String())
	}
	if s.Count() != 2 {
		t.Errorf("expected 2, got %d", s.Count())
	}
}

func parseState(t *testing.T, fingers string) FingerState {
	t.Helper()
	if len(fingers) != 4 {
		t.Fatalf("bad finger pattern %q", fingers)
	}
	return FingerState{
		Index:  fingers[0] == '1',
		Middle: fingers[1] == '1',
		Ring:   fingers[2] == '1',
		Pinky:  fingers[3] == '1',
	}
}
