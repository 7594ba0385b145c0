package exercise

// FallbackMessage is emitted for a violation whose rule has no configured
// message. An unmapped rule is a configuration gap, not a failure.
const FallbackMessage = "Check your form"

// FeedbackGenerator turns per-tick violations into rate-limited,
// de-duplicated display text. Cooldowns are measured in frames rather than
// wall-clock time so that replaying a recording reproduces identical
// feedback.
type FeedbackGenerator struct {
	messages map[string]string
	cooldown int
	lastEmit map[string]int
}

// NewFeedbackGenerator creates a generator with the given rule-name →
// message mapping and cooldown in frames.
func NewFeedbackGenerator(messages map[string]string, cooldownFrames int) *FeedbackGenerator {
	return &FeedbackGenerator{
		messages: messages,
		cooldown: cooldownFrames,
		lastEmit: make(map[string]int),
	}
}

// Emit returns at most one message per violation name, suppressing any
// message emitted for the same name within the cooldown window.
func (g *FeedbackGenerator) Emit(frameIndex int, names []string) []string {
	var out []string
	for _, name := range names {
		last, seen := g.lastEmit[name]
		if seen && frameIndex-last < g.cooldown {
			continue
		}
		g.lastEmit[name] = frameIndex

		msg, ok := g.messages[name]
		if !ok {
			msg = FallbackMessage
		}
		out = append(out, msg)
	}
	return out
}
