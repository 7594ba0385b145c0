package exercise

import (
	"reflect"
	"testing"
)

// TestFeedbackCooldown verifies the same violation is silenced within the
// cooldown window and emitted again once it expires.
func TestFeedbackCooldown(t *testing.T) {
	g := NewFeedbackGenerator(map[string]string{"hip_min": "Maintain more upright position"}, 30)

	if got := g.Emit(10, []string{"hip_min"}); len(got) != 1 {
		t.Fatalf("first emit = %v, want one message", got)
	}
	if got := g.Emit(25, []string{"hip_min"}); len(got) != 0 {
		t.Errorf("emit inside cooldown = %v, want none", got)
	}
	if got := g.Emit(40, []string{"hip_min"}); len(got) != 1 {
		t.Errorf("emit after cooldown = %v, want one message", got)
	}
}

// TestFeedbackIndependentCooldowns verifies each violation name has its own
// cooldown clock.
func TestFeedbackIndependentCooldowns(t *testing.T) {
	g := NewFeedbackGenerator(map[string]string{
		"hip_min":   "Maintain more upright position",
		"ankle_min": "Knees going too far forward",
	}, 30)

	g.Emit(0, []string{"hip_min"})
	got := g.Emit(5, []string{"hip_min", "ankle_min"})
	if !reflect.DeepEqual(got, []string{"Knees going too far forward"}) {
		t.Errorf("emit = %v, want only the ankle message", got)
	}
}

// TestFeedbackFallbackMessage verifies an unmapped violation still produces
// display text.
func TestFeedbackFallbackMessage(t *testing.T) {
	g := NewFeedbackGenerator(map[string]string{}, 30)
	got := g.Emit(0, []string{"mystery_rule"})
	if !reflect.DeepEqual(got, []string{FallbackMessage}) {
		t.Errorf("emit = %v, want fallback message", got)
	}
}
