// Package mediapipe reads MovAssist landmark recordings: JSON Lines files
// produced by a MediaPipe pose front end, one frame per line.
package mediapipe

import (
	"encoding/json"
	"fmt"

	"github.com/meltforce/movassist/internal/ingest"
	"github.com/meltforce/movassist/internal/pose"
)

type namedRecord struct {
	Frame     *int                     `json:"frame"`
	Landmarks map[string]pose.Landmark `json:"landmarks"`
}

type indexedRecord struct {
	Frame  *int        `json:"frame"`
	Points [][]float64 `json:"points"`
}

// ParseFrame parses one recorded line into a frame. fallbackIndex is used
// when the record carries no frame number (recordings from the manual
// extraction notebook omit it); it should be one past the previous frame.
func ParseFrame(raw []byte, fallbackIndex int) (*pose.Frame, error) {
	switch DetectRecordShape(raw) {
	case ShapeNamed:
		var rec namedRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ingest.ErrMalformedFrame, err)
		}
		f := &pose.Frame{
			Index:     fallbackIndex,
			Landmarks: make(map[pose.Joint]pose.Landmark, len(rec.Landmarks)),
		}
		if rec.Frame != nil {
			f.Index = *rec.Frame
		}
		for name, lm := range rec.Landmarks {
			f.Landmarks[pose.Joint(name)] = lm
		}
		return f, nil

	case ShapeIndexed:
		var rec indexedRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("%w: %v", ingest.ErrMalformedFrame, err)
		}
		f := &pose.Frame{
			Index:     fallbackIndex,
			Landmarks: make(map[pose.Joint]pose.Landmark, len(indexedJoints)),
		}
		if rec.Frame != nil {
			f.Index = *rec.Frame
		}
		for i, p := range rec.Points {
			joint, ok := indexedJoints[i]
			if !ok {
				continue
			}
			if len(p) < 3 {
				return nil, fmt.Errorf("%w: point %d has %d coordinates", ingest.ErrMalformedFrame, i, len(p))
			}
			lm := pose.Landmark{X: p[0], Y: p[1], Z: p[2]}
			if len(p) >= 4 {
				lm.Visibility = p[3]
			} else {
				lm.Visibility = 1
			}
			f.Landmarks[joint] = lm
		}
		return f, nil

	default:
		return nil, fmt.Errorf("%w: unrecognized record shape", ingest.ErrMalformedFrame)
	}
}
