// Package replay feeds recorded landmark streams through a typing session.
//
// A recording is JSON lines, one frame per line:
//
//	{"t":0,"hands":[{"points":[{"x":0.5,"y":0.9,"z":0}, ...]}]}
//
// t is milliseconds since the start of the recording and an empty hands list
// means no hand was detected. Blank lines are skipped.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ayusman/handtype/internal/detector"
	"github.com/ayusman/handtype/internal/gesture"
	"github.com/ayusman/handtype/internal/session"
)

const maxLine = 1 << 20

// Record is the JSON shape of one line.
type Record struct {
	T     int64           `json:"t"`
	Hands []detector.Hand `json:"hands"`
}

// Frame is a decoded record.
type Frame struct {
	Line   int
	Offset time.Duration
	Hand   *detector.HandLandmarks
}

// Reader decodes a recording line by line.
type Reader struct {
	sc   *bufio.Scanner
	line int
	last time.Duration
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLine)
	return &Reader{sc: sc}
}

// Next returns the next frame or io.EOF. Errors carry the line number.
// Timestamps must not go backwards.
func (r *Reader) Next() (Frame, error) {
	for r.sc.Scan() {
		r.line++
		raw := r.sc.Bytes()
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", r.line, err)
		}
		hand, err := detector.FirstHand(rec.Hands)
		if err != nil {
			return Frame{}, fmt.Errorf("line %d: %w", r.line, err)
		}

		offset := time.Duration(rec.T) * time.Millisecond
		if offset < r.last {
			return Frame{}, fmt.Errorf("line %d: timestamp %dms is before %dms", r.line, rec.T, r.last.Milliseconds())
		}
		r.last = offset

		return Frame{Line: r.line, Offset: offset, Hand: hand}, nil
	}
	if err := r.sc.Err(); err != nil {
		return Frame{}, fmt.Errorf("line %d: %w", r.line+1, err)
	}
	return Frame{}, io.EOF
}

// ReadAll decodes a whole recording.
func ReadAll(r io.Reader) ([]Frame, error) {
	rd := NewReader(r)
	var frames []Frame
	for {
		f, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}

// Summary describes a finished replay.
type Summary struct {
	Frames  int
	Hands   int
	Actions []gesture.Action
	Text    string
}

// Run submits frames to sess in order, stamping each with base plus its
// offset. A zero base means the Unix epoch, so every frame carries its own
// time. onResult, when set, is called after every frame.
func Run(ctx context.Context, frames []Frame, sess *session.Session, base time.Time, onResult func(Frame, session.Result)) (Summary, error) {
	if base.IsZero() {
		base = time.Unix(0, 0)
	}
	var sum Summary
	for _, f := range frames {
		res, err := sess.Submit(ctx, session.Frame{Hand: f.Hand, At: base.Add(f.Offset)})
		if err != nil {
			return sum, fmt.Errorf("line %d: %w", f.Line, err)
		}
		sum.Frames++
		if res.Hand {
			sum.Hands++
		}
		if res.Action != nil {
			sum.Actions = append(sum.Actions, *res.Action)
		}
		if onResult != nil {
			onResult(f, res)
		}
	}
	sum.Text = sess.Text()
	return sum, nil
}

// Write encodes frames as a recording. Hands are written with their 21
// points; a nil hand is written as an empty list.
func Write(w io.Writer, frames []Frame) error {
	enc := json.NewEncoder(w)
	for _, f := range frames {
		rec := Record{T: f.Offset.Milliseconds(), Hands: []detector.Hand{}}
		if f.Hand != nil {
			rec.Hands = append(rec.Hands, detector.Hand{
				Points:     f.Hand.Points[:],
				Handedness: f.Hand.Handedness,
				Score:      f.Hand.Score,
			})
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}
