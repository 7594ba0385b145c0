// Package ingest defines the landmark provider contract and the result
// record shared by all ingest paths.
package ingest

import (
	"errors"

	"github.com/meltforce/movassist/internal/pose"
)

// ErrMalformedFrame is returned by a Provider for a record it could not
// parse. Malformed frames are non-fatal: the analyzer treats the tick as a
// hold and counts it for diagnostics.
var ErrMalformedFrame = errors.New("malformed landmark frame")

// Provider yields landmark frames in order. Implementations return io.EOF
// at end of stream and ErrMalformedFrame for individually broken records;
// frame indices increase monotonically but may have gaps.
type Provider interface {
	Next() (*pose.Frame, error)
}

// Result holds the outcome of analyzing one recording.
type Result struct {
	FramesRead    int `json:"frames_read"`
	FramesSkipped int `json:"frames_skipped"`
	WarmupFrames  int `json:"warmup_frames,omitempty"`

	RepsDetected int `json:"reps_detected"`
	GoodReps     int `json:"good_reps"`
	BadReps      int `json:"bad_reps"`

	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
}
