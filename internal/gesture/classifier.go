package gesture

// Gesture is the symbolic shape recognized in one frame.
type Gesture string

const (
	Space     Gesture = "SPACE"
	Backspace Gesture = "BACKSPACE"
	A         Gesture = "A"
	B         Gesture = "B"
	C         Gesture = "C"
	D         Gesture = "D"
	E         Gesture = "E"
	F         Gesture = "F"
	G         Gesture = "G"
	H         Gesture = "H"
	I         Gesture = "I"
	J         Gesture = "J"

	// None means a hand was seen but its shape is not in the vocabulary.
	None Gesture = "NONE"
)

// Letter returns the lower-case character typed by a letter gesture.
func (g Gesture) Letter() (rune, bool) {
	if len(g) != 1 || g[0] < 'A' || g[0] > 'J' {
		return 0, false
	}
	return rune(g[0]-'A') + 'a', true
}

// IsAction reports whether g can be committed as an action.
func (g Gesture) IsAction() bool {
	switch g {
	case Space, Backspace, A, B, C, D, E, F, G, H, I, J:
		return true
	}
	return false
}

// Rule maps one finger pattern to a gesture.
type Rule struct {
	Name    string
	Matches func(FingerState) bool
	Gesture Gesture
}

// only reports whether exactly the listed fingers are up.
func only(index, middle, ring, pinky bool) func(FingerState) bool {
	want := FingerState{Index: index, Middle: middle, Ring: ring, Pinky: pinky}
	return func(s FingerState) bool { return s == want }
}

// Rules is evaluated in order and the first match wins.
//
// The vocabulary is partial: combinations such as index+pinky match nothing
// and classify as None. The "three-front" rule shadows "index-middle-ring"
// completely, so C is never produced; both are kept so that the table mirrors
// the gestures users were taught.
var Rules = []Rule{
	{
		Name:    "all-up",
		Matches: func(s FingerState) bool { return s.Index && s.Middle && s.Ring && s.Pinky },
		Gesture: Space,
	},
	{
		Name:    "fist",
		Matches: func(s FingerState) bool { return !s.Index && !s.Middle && !s.Ring && !s.Pinky },
		Gesture: Backspace,
	},
	{
		Name:    "three-front",
		Matches: func(s FingerState) bool { return s.Index && s.Middle && s.Ring && !s.Pinky },
		Gesture: D,
	},
	{
		Name:    "index-middle-ring",
		Matches: func(s FingerState) bool { return s.Index && s.Middle && s.Ring },
		Gesture: C,
	},
	{
		Name:    "three-back",
		Matches: func(s FingerState) bool { return s.Middle && s.Ring && s.Pinky },
		Gesture: F,
	},
	{Name: "index-middle", Matches: only(true, true, false, false), Gesture: B},
	{Name: "index-ring", Matches: only(true, false, true, false), Gesture: E},
	{Name: "middle-ring", Matches: only(false, true, true, false), Gesture: G},
	{Name: "index", Matches: only(true, false, false, false), Gesture: A},
	{Name: "middle", Matches: only(false, true, false, false), Gesture: H},
	{Name: "ring", Matches: only(false, false, true, false), Gesture: I},
	{Name: "pinky", Matches: only(false, false, false, true), Gesture: J},
}

// Classify returns the gesture of the first rule matching s, or None.
func Classify(s FingerState) Gesture {
	g, _ := Match(s)
	return g
}

// Match is Classify that also reports the matching rule name, empty for None.
func Match(s FingerState) (Gesture, string) {
	for _, r := range Rules {
		if r.Matches(s) {
			return r.Gesture, r.Name
		}
	}
	return None, ""
}
