package pose

import (
	"errors"
	"fmt"
)

// Joint names a tracked body joint. Names follow the MediaPipe pose
// vocabulary with an explicit left_/right_ prefix.
type Joint string

const (
	Nose Joint = "nose"

	LeftShoulder  Joint = "left_shoulder"
	LeftElbow     Joint = "left_elbow"
	LeftWrist     Joint = "left_wrist"
	LeftHip       Joint = "left_hip"
	LeftKnee      Joint = "left_knee"
	LeftAnkle     Joint = "left_ankle"
	LeftFootIndex Joint = "left_foot_index"

	RightShoulder  Joint = "right_shoulder"
	RightElbow     Joint = "right_elbow"
	RightWrist     Joint = "right_wrist"
	RightHip       Joint = "right_hip"
	RightKnee      Joint = "right_knee"
	RightAnkle     Joint = "right_ankle"
	RightFootIndex Joint = "right_foot_index"
)

// Side is the profile the subject presents to the camera.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// ErrLowConfidence is returned when a landmark's visibility is below the
// configured minimum. Callers treat the derived metric as unavailable for
// the frame rather than as a hard failure.
var ErrLowConfidence = errors.New("landmark visibility below minimum")

// ErrMissingLandmark is returned when a frame does not contain a joint a
// computation needs.
var ErrMissingLandmark = errors.New("landmark missing from frame")

// Landmark is one joint's estimated position and confidence for a single
// video frame. Coordinates are normalized image coordinates; Z is relative
// depth as reported by the pose estimator.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Frame is one video frame's worth of landmarks, keyed by joint name.
// Frames are immutable once built; the analyzer owns a frame only for the
// duration of one tick.
type Frame struct {
	Index     int                `json:"frame"`
	Landmarks map[Joint]Landmark `json:"landmarks"`
}

// Landmark returns the named joint, or ErrMissingLandmark.
func (f *Frame) Landmark(j Joint) (Landmark, error) {
	lm, ok := f.Landmarks[j]
	if !ok {
		return Landmark{}, fmt.Errorf("%w: %s", ErrMissingLandmark, j)
	}
	return lm, nil
}

// Sided resolves a side-relative joint name ("hip", "knee") to the concrete
// joint for the given side. Already-prefixed names pass through unchanged.
func Sided(name string, side Side) Joint {
	switch name {
	case "nose":
		return Nose
	case "shoulder", "elbow", "wrist", "hip", "knee", "ankle", "foot_index":
		return Joint(string(side) + "_" + name)
	default:
		return Joint(name)
	}
}

// DetectSide determines which profile the subject presents, using shoulder
// depth: the shoulder nearer the camera has the smaller Z. Falls back to
// SideLeft when either shoulder is absent, so a momentary dropout does not
// flip side resolution mid-session.
func DetectSide(f *Frame) Side {
	ls, lok := f.Landmarks[LeftShoulder]
	rs, rok := f.Landmarks[RightShoulder]
	if !lok || !rok {
		return SideLeft
	}
	if ls.Z < rs.Z {
		return SideLeft
	}
	return SideRight
}

// Visible reports whether all given landmarks meet the visibility minimum.
func Visible(f *Frame, minVisibility float64, joints ...Joint) bool {
	for _, j := range joints {
		lm, ok := f.Landmarks[j]
		if !ok || lm.Visibility < minVisibility {
			return false
		}
	}
	return true
}
