package exercise

import (
	"math"
	"testing"

	"github.com/meltforce/movassist/internal/pose"
)

func classifierDef() *Definition {
	return &Definition{
		Name:         "squat",
		StartPhase:   "up",
		DescentPhase: "descent",
		ExtremePhase: "bottom",
		AscentPhase:  "ascent",
		DriveMetric:  "knee_angle",
		UpMin:        150,
		BottomMax:    90,
		Metrics: map[string]Metric{
			"knee_angle": {Type: MetricAngle, Points: []string{"hip", "knee", "ankle"}},
		},
	}
}

// legFrame builds a left-profile frame whose knee angle is exactly deg: the
// shin points straight down from the knee and the thigh is rotated deg away
// from it.
func legFrame(index int, deg float64) *pose.Frame {
	rad := deg * math.Pi / 180
	return &pose.Frame{
		Index: index,
		Landmarks: map[pose.Joint]pose.Landmark{
			pose.LeftHip:   {X: 0.5 + 0.2*math.Sin(rad), Y: 0.5 + 0.2*math.Cos(rad), Visibility: 1},
			pose.LeftKnee:  {X: 0.5, Y: 0.5, Visibility: 1},
			pose.LeftAnkle: {X: 0.5, Y: 0.7, Visibility: 1},
		},
	}
}

// TestComputeMetricsFromGeometry verifies the drive metric is recovered from
// raw landmark positions.
func TestComputeMetricsFromGeometry(t *testing.T) {
	def := classifierDef()
	for _, want := range []float64{180, 120, 90, 45} {
		m := ComputeMetrics(def, legFrame(0, want), pose.SideLeft, 0.5)
		got, ok := m["knee_angle"]
		if !ok {
			t.Fatalf("knee_angle missing for %v°", want)
		}
		if math.Abs(got-want) > 1e-6 {
			t.Errorf("knee_angle = %v, want %v", got, want)
		}
	}
}

// TestComputeMetricsOccluded verifies an occluded landmark omits the metric
// instead of producing a junk value.
func TestComputeMetricsOccluded(t *testing.T) {
	def := classifierDef()
	f := legFrame(0, 120)
	lm := f.Landmarks[pose.LeftHip]
	lm.Visibility = 0.2
	f.Landmarks[pose.LeftHip] = lm

	m := ComputeMetrics(def, f, pose.SideLeft, 0.5)
	if _, ok := m["knee_angle"]; ok {
		t.Error("metric computed from occluded landmark")
	}
}

// TestClassifyTransitions verifies the band logic for every previous phase,
// including the rule that a value sitting exactly on a threshold keeps its
// current phase.
func TestClassifyTransitions(t *testing.T) {
	def := classifierDef()
	cases := []struct {
		prev  Phase
		value float64
		want  Phase
	}{
		{"up", 170, "up"},
		{"up", 150, "up"}, // boundary stays
		{"up", 120, "descent"},
		{"up", 80, "bottom"},
		{"descent", 120, "descent"},
		{"descent", 150, "descent"}, // boundary stays below up
		{"descent", 151, "up"},
		{"descent", 90, "bottom"}, // boundary enters bottom
		{"bottom", 80, "bottom"},
		{"bottom", 90, "bottom"}, // boundary stays
		{"bottom", 120, "ascent"},
		{"bottom", 151, "up"},
		{"ascent", 120, "ascent"},
		{"ascent", 150, "up"},
		{"ascent", 80, "bottom"},
		{"", 170, "up"}, // no history prefers the start phase
		{"", 120, "descent"},
		{"", 80, "bottom"},
	}
	for _, tc := range cases {
		got := Classify(def, Metrics{"knee_angle": tc.value}, tc.prev)
		if got != tc.want {
			t.Errorf("Classify(prev=%q, v=%v) = %q, want %q", tc.prev, tc.value, got, tc.want)
		}
	}
}

// TestClassifyUnavailableDriveHolds verifies a missing drive metric holds the
// previous phase so occlusion cannot cause a spurious transition.
func TestClassifyUnavailableDriveHolds(t *testing.T) {
	def := classifierDef()
	for _, prev := range def.Phases() {
		if got := Classify(def, Metrics{}, prev); got != prev {
			t.Errorf("Classify(prev=%q, no drive) = %q, want hold", prev, got)
		}
	}
}
