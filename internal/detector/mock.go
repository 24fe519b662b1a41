package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It replays a scripted sequence of detections, one per Detect call, and
// keeps returning the last entry once the script is exhausted.
type MockDetector struct {
	mu     sync.Mutex
	script [][]HandLandmarks
	next   int
	err    error
	calls  int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands makes every Detect call return hands.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.SetScript([][]HandLandmarks{hands})
}

// SetScript sets the per-call sequence of detections. A nil entry means no hand.
func (m *MockDetector) SetScript(script [][]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = script
	m.next = 0
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect was invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the next scripted detection or the configured error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) == 0 {
		return nil, nil
	}

	hands := m.script[m.next]
	if m.next < len(m.script)-1 {
		m.next++
	}
	return hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PoseLandmarks returns a right hand, palm facing the camera, with the given
// fingers extended upward and the others curled. The thumb is tucked.
func PoseLandmarks(index, middle, ring, pinky bool) HandLandmarks {
	landmarks := HandLandmarks{
		Handedness: "Right",
		Score:      0.95,
	}

	landmarks.Points[Wrist] = Point3D{X: 0.5, Y: 0.8, Z: 0.0}

	landmarks.Points[ThumbCMC] = Point3D{X: 0.55, Y: 0.75, Z: 0.0}
	landmarks.Points[ThumbMCP] = Point3D{X: 0.58, Y: 0.70, Z: -0.01}
	landmarks.Points[ThumbIP] = Point3D{X: 0.56, Y: 0.67, Z: -0.02}
	landmarks.Points[ThumbTip] = Point3D{X: 0.53, Y: 0.66, Z: -0.03}

	setFinger(&landmarks, IndexMCP, 0.56, index)
	setFinger(&landmarks, MiddleMCP, 0.50, middle)
	setFinger(&landmarks, RingMCP, 0.45, ring)
	setFinger(&landmarks, PinkyMCP, 0.40, pinky)

	return landmarks
}

// setFinger fills the MCP, PIP, DIP and tip points starting at mcp.
// Extended fingers rise in steps of 0.1; curled fingers fold the tip back
// below the PIP joint.
func setFinger(h *HandLandmarks, mcp int, x float64, up bool) {
	h.Points[mcp] = Point3D{X: x, Y: 0.68, Z: 0.0}
	if up {
		h.Points[mcp+1] = Point3D{X: x, Y: 0.55, Z: 0.0}
		h.Points[mcp+2] = Point3D{X: x, Y: 0.45, Z: 0.0}
		h.Points[mcp+3] = Point3D{X: x, Y: 0.35, Z: 0.0}
		return
	}
	h.Points[mcp+1] = Point3D{X: x, Y: 0.62, Z: -0.05}
	h.Points[mcp+2] = Point3D{X: x - 0.02, Y: 0.66, Z: -0.04}
	h.Points[mcp+3] = Point3D{X: x - 0.03, Y: 0.70, Z: -0.02}
}

// FistLandmarks returns a closed fist.
func FistLandmarks() HandLandmarks {
	return PoseLandmarks(false, false, false, false)
}

// OpenPalmLandmarks returns an open palm with all four fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return PoseLandmarks(true, true, true, true)
}
