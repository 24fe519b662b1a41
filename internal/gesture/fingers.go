// Package gesture turns hand landmark frames into debounced typing actions.
//
// A frame is reduced to a FingerState, classified into a Gesture through the
// ordered Rules table, and fed to a Debouncer that only commits a gesture once
// it has been held for enough consecutive frames and the cooldown since the
// previous action has expired.
package gesture

import (
	"github.com/ayusman/handtype/internal/detector"
)

// FingerState records which of the four fingers are extended. The thumb is
// not tracked.
type FingerState struct {
	Index  bool `json:"index"`
	Middle bool `json:"middle"`
	Ring   bool `json:"ring"`
	Pinky  bool `json:"pinky"`
}

// Extract derives the finger state of a landmark frame. A finger is up when
// its tip is higher on screen (smaller y) than its PIP joint.
func Extract(h *detector.HandLandmarks) FingerState {
	up := func(tip, pip int) bool {
		return h.Points[tip].Y < h.Points[pip].Y
	}
	return FingerState{
		Index:  up(detector.IndexTip, detector.IndexPIP),
		Middle: up(detector.MiddleTip, detector.MiddlePIP),
		Ring:   up(detector.RingTip, detector.RingPIP),
		Pinky:  up(detector.PinkyTip, detector.PinkyPIP),
	}
}

// ExtractPoints validates a raw point list and extracts its finger state.
func ExtractPoints(points []detector.Point3D) (FingerState, error) {
	h, err := detector.FromPoints(points)
	if err != nil {
		return FingerState{}, err
	}
	return Extract(h), nil
}

// Count returns the number of extended fingers.
func (s FingerState) Count() int {
	n := 0
	for _, up := range [...]bool{s.Index, s.Middle, s.Ring, s.Pinky} {
		if up {
			n++
		}
	}
	return n
}

// String renders the state as four digits, index first: "1100" is index and
// middle up.
func (s FingerState) String() string {
	b := []byte("0000")
	for i, up := range [...]bool{s.Index, s.Middle, s.Ring, s.Pinky} {
		if up {
			b[i] = '1'
		}
	}
	return string(b)
}
