// Package exercise implements the streaming exercise analyzer: per-frame
// phase classification, debounced repetition detection, form checking, and
// session summaries. Exercises are data-driven — adding one is a
// configuration change, not a code change.
package exercise

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ErrConfigInvalid is returned when an exercise definition fails
// validation. A session cannot start with an invalid definition.
var ErrConfigInvalid = errors.New("invalid exercise configuration")

// ErrUnknownExercise is returned when a requested exercise has no
// definition.
var ErrUnknownExercise = errors.New("unknown exercise")

// Phase is a discrete stage of a repetition cycle.
type Phase string

// MetricType selects the geometry computation backing a metric.
type MetricType string

const (
	MetricAngle MetricType = "angle"
	MetricRatio MetricType = "ratio"
)

// Metric describes how to compute one named measurement from a frame.
// Points are side-relative joint names ("hip", "knee"); an angle takes
// three points (vertex in the middle), a ratio takes four.
type Metric struct {
	Type   MetricType `yaml:"type"`
	Points []string   `yaml:"points"`
}

// Rule is one form constraint: a bound on a metric, checked while the
// accepted phase is in Phases. The rule name is what appears in a
// repetition's violation set and keys the feedback message.
type Rule struct {
	Name    string   `yaml:"name"`
	Metric  string   `yaml:"metric"`
	Min     *float64 `yaml:"min,omitempty"`
	Max     *float64 `yaml:"max,omitempty"`
	Phases  []Phase  `yaml:"phases"`
	Message string   `yaml:"message,omitempty"`
}

// Violated reports whether the value breaks the rule's bounds.
func (r *Rule) Violated(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return true
	}
	if r.Max != nil && v > *r.Max {
		return true
	}
	return false
}

// AppliesTo reports whether the rule is checked in the given phase.
func (r *Rule) AppliesTo(p Phase) bool {
	for _, rp := range r.Phases {
		if rp == p {
			return true
		}
	}
	return false
}

// Definition is one exercise's full configuration. The phase cycle is
// Start → Descent → Extreme → Ascent → Start, driven by a single metric
// crossing two thresholds: at or above UpMin the subject is in the start
// phase, at or below BottomMax in the extreme phase.
type Definition struct {
	Name string `yaml:"-"`

	StartPhase   Phase `yaml:"start_phase"`
	DescentPhase Phase `yaml:"descent_phase"`
	ExtremePhase Phase `yaml:"extreme_phase"`
	AscentPhase  Phase `yaml:"ascent_phase"`

	DriveMetric string  `yaml:"drive_metric"`
	UpMin       float64 `yaml:"up_min"`
	BottomMax   float64 `yaml:"bottom_max"`

	Metrics map[string]Metric `yaml:"metrics"`
	Rules   []Rule            `yaml:"rules"`

	// DepthMessage is emitted (feedback only, no repetition) when the
	// accepted phase returns to the start phase without having visited the
	// extreme phase.
	DepthMessage string `yaml:"depth_message,omitempty"`
}

// Phases returns the phase cycle in order.
func (d *Definition) Phases() []Phase {
	return []Phase{d.StartPhase, d.DescentPhase, d.ExtremePhase, d.AscentPhase}
}

// Validate checks the definition once at load time; downstream consumers
// trust a validated definition completely for the rest of the session.
func (d *Definition) Validate() error {
	phases := d.Phases()
	seen := map[Phase]bool{}
	for _, p := range phases {
		if p == "" {
			return fmt.Errorf("%w: %s: empty phase name", ErrConfigInvalid, d.Name)
		}
		if seen[p] {
			return fmt.Errorf("%w: %s: duplicate phase %q", ErrConfigInvalid, d.Name, p)
		}
		seen[p] = true
	}

	if d.DriveMetric == "" {
		return fmt.Errorf("%w: %s: drive_metric is required", ErrConfigInvalid, d.Name)
	}
	if _, ok := d.Metrics[d.DriveMetric]; !ok {
		return fmt.Errorf("%w: %s: drive_metric %q has no metric definition", ErrConfigInvalid, d.Name, d.DriveMetric)
	}
	if d.UpMin <= d.BottomMax {
		return fmt.Errorf("%w: %s: up_min (%.1f) must be above bottom_max (%.1f)",
			ErrConfigInvalid, d.Name, d.UpMin, d.BottomMax)
	}

	for name, m := range d.Metrics {
		switch m.Type {
		case MetricAngle:
			if len(m.Points) != 3 {
				return fmt.Errorf("%w: %s: metric %q: angle needs 3 points, got %d",
					ErrConfigInvalid, d.Name, name, len(m.Points))
			}
		case MetricRatio:
			if len(m.Points) != 4 {
				return fmt.Errorf("%w: %s: metric %q: ratio needs 4 points, got %d",
					ErrConfigInvalid, d.Name, name, len(m.Points))
			}
		default:
			return fmt.Errorf("%w: %s: metric %q: unknown type %q", ErrConfigInvalid, d.Name, name, m.Type)
		}
	}

	ruleNames := map[string]bool{}
	for i := range d.Rules {
		r := &d.Rules[i]
		if r.Name == "" {
			return fmt.Errorf("%w: %s: rule %d: name is required", ErrConfigInvalid, d.Name, i)
		}
		if ruleNames[r.Name] {
			return fmt.Errorf("%w: %s: duplicate rule %q", ErrConfigInvalid, d.Name, r.Name)
		}
		ruleNames[r.Name] = true
		if _, ok := d.Metrics[r.Metric]; !ok {
			return fmt.Errorf("%w: %s: rule %q references unknown metric %q",
				ErrConfigInvalid, d.Name, r.Name, r.Metric)
		}
		if r.Min == nil && r.Max == nil {
			return fmt.Errorf("%w: %s: rule %q has neither min nor max", ErrConfigInvalid, d.Name, r.Name)
		}
		if r.Min != nil && r.Max != nil && *r.Min > *r.Max {
			return fmt.Errorf("%w: %s: rule %q: min (%.1f) above max (%.1f)",
				ErrConfigInvalid, d.Name, r.Name, *r.Min, *r.Max)
		}
		if len(r.Phases) == 0 {
			return fmt.Errorf("%w: %s: rule %q applies to no phases", ErrConfigInvalid, d.Name, r.Name)
		}
		for _, p := range r.Phases {
			if !seen[p] {
				return fmt.Errorf("%w: %s: rule %q references unknown phase %q",
					ErrConfigInvalid, d.Name, r.Name, p)
			}
		}
	}

	return nil
}

// Messages returns the rule-name → feedback-text mapping, including the
// depth message under the "depth" key when configured.
func (d *Definition) Messages() map[string]string {
	msgs := make(map[string]string, len(d.Rules)+1)
	for _, r := range d.Rules {
		if r.Message != "" {
			msgs[r.Name] = r.Message
		}
	}
	if d.DepthMessage != "" {
		msgs["depth"] = d.DepthMessage
	}
	return msgs
}

//go:embed defaults.yaml
var defaultsYAML []byte

// Registry holds validated exercise definitions for one session.
type Registry struct {
	defs map[string]*Definition
}

type registryFile struct {
	Exercises map[string]*Definition `yaml:"exercises"`
}

// LoadRegistry loads the embedded defaults, then overlays definitions from
// the optional YAML file at path (whole-exercise replacement). Every
// definition is validated; any failure refuses the whole registry.
func LoadRegistry(path string) (*Registry, error) {
	var base registryFile
	if err := yaml.Unmarshal(defaultsYAML, &base); err != nil {
		return nil, fmt.Errorf("parsing embedded exercise defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading exercises file: %w", err)
		}
		var overlay registryFile
		if err := yaml.Unmarshal(data, &overlay); err != nil {
			return nil, fmt.Errorf("parsing exercises file %s: %w", path, err)
		}
		for name, def := range overlay.Exercises {
			base.Exercises[name] = def
		}
	}

	r := &Registry{defs: make(map[string]*Definition, len(base.Exercises))}
	for name, def := range base.Exercises {
		def.Name = name
		if err := def.Validate(); err != nil {
			return nil, err
		}
		r.defs[name] = def
	}
	return r, nil
}

// Get returns the definition for the named exercise.
func (r *Registry) Get(name string) (*Definition, error) {
	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownExercise, name)
	}
	return def, nil
}

// Names returns the registered exercise names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
