// Package api provides HTTP API handlers for handtype sessions and settings.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ayusman/handtype/internal/detector"
	"github.com/ayusman/handtype/internal/gesture"
	"github.com/ayusman/handtype/internal/session"
)

// maxBodyBytes bounds request bodies. A frame is well under 4KB.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// ErrorMessage is the JSON body sent for a failed request or WebSocket frame.
func ErrorMessage(err error) []byte {
	b, _ := json.Marshal(errorResponse{Error: err.Error()})
	return b
}

// FrameRequest is one frame of landmark input. An empty Hands list means no
// hand was detected.
type FrameRequest struct {
	Hands []detector.Hand `json:"hands"`
	// T optionally stamps the frame, in milliseconds since the Unix epoch.
	T *int64 `json:"t,omitempty"`
}

// DecodeFrame parses and validates a frame. Malformed hands wrap
// detector.ErrMalformedFrame.
func DecodeFrame(data []byte) (session.Frame, error) {
	var req FrameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return session.Frame{}, fmt.Errorf("invalid frame: %w", err)
	}
	hand, err := detector.FirstHand(req.Hands)
	if err != nil {
		return session.Frame{}, err
	}
	f := session.Frame{Hand: hand}
	if req.T != nil {
		f.At = time.UnixMilli(*req.T)
	}
	return f, nil
}

// ResultResponse is the JSON form of one processed frame.
type ResultResponse struct {
	Hand    bool                `json:"hand"`
	Fingers gesture.FingerState `json:"fingers"`
	Gesture gesture.Gesture     `json:"gesture"`
	Rule    string              `json:"rule,omitempty"`
	Action  *gesture.Action     `json:"action"`
	Text    string              `json:"text"`
	State   gesture.State       `json:"state"`
}

// NewResultResponse converts a session result.
func NewResultResponse(r session.Result) ResultResponse {
	return ResultResponse{
		Hand:    r.Hand,
		Fingers: r.Fingers,
		Gesture: r.Gesture,
		Rule:    r.Rule,
		Action:  r.Action,
		Text:    r.Text,
		State:   r.State,
	}
}

// tunables is the JSON form of gesture.Config.
type tunables struct {
	RequiredConsecutive int   `json:"required_consecutive"`
	CooldownMs          int64 `json:"cooldown_ms"`
}

func toTunables(c gesture.Config) tunables {
	return tunables{
		RequiredConsecutive: c.RequiredConsecutive,
		CooldownMs:          c.Cooldown.Milliseconds(),
	}
}

// patch overlays the fields present in the request body onto base.
type tunablesPatch struct {
	RequiredConsecutive *int   `json:"required_consecutive"`
	CooldownMs          *int64 `json:"cooldown_ms"`
}

func (p tunablesPatch) apply(base gesture.Config) gesture.Config {
	if p.RequiredConsecutive != nil {
		base.RequiredConsecutive = *p.RequiredConsecutive
	}
	if p.CooldownMs != nil {
		base.Cooldown = time.Duration(*p.CooldownMs) * time.Millisecond
	}
	return base
}

// decodeBody decodes an optional JSON body into v. It reports whether a
// body was present.
func decodeBody(r *http.Request, v interface{}) (bool, error) {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
