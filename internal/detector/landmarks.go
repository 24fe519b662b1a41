// Package detector provides hand landmark types and the detectors that produce them.
package detector

import (
	"errors"
	"fmt"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// ErrMalformedFrame is returned when a landmark list cannot form a full hand.
var ErrMalformedFrame = errors.New("malformed landmark frame")

// Point3D is one landmark in normalized image coordinates.
// X and Y are in [0,1] with the origin at the top-left of the frame.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks is one landmark frame: the 21 points of a single hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64               `json:"score,omitempty"`
}

// FromPoints builds a HandLandmarks from a raw point list.
// Lists shorter than NumLandmarks are rejected with ErrMalformedFrame;
// extra trailing points are ignored.
func FromPoints(points []Point3D) (*HandLandmarks, error) {
	if len(points) < NumLandmarks {
		return nil, fmt.Errorf("%w: got %d points, need %d", ErrMalformedFrame, len(points), NumLandmarks)
	}

	h := &HandLandmarks{}
	copy(h.Points[:], points[:NumLandmarks])
	return h, nil
}

// Hand is the wire form of a detected hand, shared by the MediaPipe service,
// the HTTP API and frame recordings.
type Hand struct {
	Points     []Point3D `json:"points"`
	Handedness string    `json:"handedness,omitempty"`
	Score      float64   `json:"score,omitempty"`
}

// Landmarks validates the wire hand and converts it to HandLandmarks.
func (h Hand) Landmarks() (*HandLandmarks, error) {
	lm, err := FromPoints(h.Points)
	if err != nil {
		return nil, err
	}
	lm.Handedness = h.Handedness
	lm.Score = h.Score
	return lm, nil
}

// FirstHand returns the first well-formed hand of a detection result, or nil
// when no hand was observed. Only one hand per frame is tracked.
func FirstHand(hands []Hand) (*HandLandmarks, error) {
	if len(hands) == 0 {
		return nil, nil
	}
	return hands[0].Landmarks()
}
