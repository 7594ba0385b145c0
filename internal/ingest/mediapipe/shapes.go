package mediapipe

import (
	"encoding/json"

	"github.com/meltforce/movassist/internal/pose"
)

// RecordShape describes the structure of one recorded frame line.
type RecordShape int

const (
	// ShapeNamed carries a joint-name → landmark map:
	//   {"frame": 3, "landmarks": {"left_hip": {"x": …}, …}}
	ShapeNamed RecordShape = iota
	// ShapeIndexed carries the raw MediaPipe 33-landmark array:
	//   {"frame": 3, "points": [[x, y, z, visibility], …]}
	ShapeIndexed
	// ShapeUnknown matches neither format.
	ShapeUnknown
)

// DetectRecordShape examines a raw JSON frame record to determine its
// shape.
func DetectRecordShape(raw json.RawMessage) RecordShape {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ShapeUnknown
	}
	if _, ok := probe["landmarks"]; ok {
		return ShapeNamed
	}
	if _, ok := probe["points"]; ok {
		return ShapeIndexed
	}
	return ShapeUnknown
}

// indexedJoints maps MediaPipe pose landmark indices to joint names for
// the joints the analyzer uses. Unlisted indices (face details, hands) are
// dropped.
var indexedJoints = map[int]pose.Joint{
	0:  pose.Nose,
	11: pose.LeftShoulder,
	12: pose.RightShoulder,
	13: pose.LeftElbow,
	14: pose.RightElbow,
	15: pose.LeftWrist,
	16: pose.RightWrist,
	23: pose.LeftHip,
	24: pose.RightHip,
	25: pose.LeftKnee,
	26: pose.RightKnee,
	27: pose.LeftAnkle,
	28: pose.RightAnkle,
	31: pose.LeftFootIndex,
	32: pose.RightFootIndex,
}
