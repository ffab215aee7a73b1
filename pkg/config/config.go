// Package config loads animation presets from YAML or TOML files.
//
// A preset file names reusable animations, staggers and sequences:
//
//	animations:
//	  fade-in:
//	    duration: 300ms
//	    easing: ease-out
//	    fill: forwards
//	    targets:
//	      - selector: .card
//	        property: opacity
//	        from: "0"
//	        to: "1"
//	staggers:
//	  cards:
//	    animation: fade-in
//	    count: 5
//	    delay: 80ms
//	sequences:
//	  intro:
//	    stages: [fade-in, slide]
//
// Durations use time.ParseDuration syntax. Within a stagger, "{index}" in a
// target selector is replaced by the item index.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/motion/pkg/animation"
	"github.com/go-drift/motion/pkg/errors"
)

// Format is a preset file encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported preset extension %q (want .yaml, .yml or .toml)", filepath.Ext(path))
	}
}

// Preset is a parsed preset file.
type Preset struct {
	Animations map[string]Animation `yaml:"animations" toml:"animations"`
	Staggers   map[string]Stagger   `yaml:"staggers" toml:"staggers"`
	Sequences  map[string]Sequence  `yaml:"sequences" toml:"sequences"`
}

// Animation describes one controller.
type Animation struct {
	Duration   string               `yaml:"duration" toml:"duration"`
	Delay      string               `yaml:"delay,omitempty" toml:"delay,omitempty"`
	Easing     string               `yaml:"easing,omitempty" toml:"easing,omitempty"`
	Iterations animation.Iterations `yaml:"iterations,omitempty" toml:"iterations,omitempty"`
	Alternate  bool                 `yaml:"alternate,omitempty" toml:"alternate,omitempty"`
	Fill       animation.FillMode   `yaml:"fill,omitempty" toml:"fill,omitempty"`
	Targets    []Target             `yaml:"targets" toml:"targets"`
}

// Target is one property interpolation.
type Target struct {
	Selector  string `yaml:"selector" toml:"selector"`
	Property  string `yaml:"property" toml:"property"`
	From      string `yaml:"from" toml:"from"`
	To        string `yaml:"to" toml:"to"`
	Important bool   `yaml:"important,omitempty" toml:"important,omitempty"`
}

// Stagger runs count copies of an animation offset by per-item delays.
type Stagger struct {
	Animation string `yaml:"animation" toml:"animation"`
	Count     int    `yaml:"count" toml:"count"`
	Delay     string `yaml:"delay" toml:"delay"`
	Easing    string `yaml:"easing,omitempty" toml:"easing,omitempty"`
	MaxSpan   string `yaml:"max_span,omitempty" toml:"max_span,omitempty"`
	Reverse   bool   `yaml:"reverse,omitempty" toml:"reverse,omitempty"`
}

// Sequence runs animations one after another.
type Sequence struct {
	Stages []string `yaml:"stages" toml:"stages"`
	Loop   bool     `yaml:"loop,omitempty" toml:"loop,omitempty"`
}

// Load reads and validates a preset file.
func Load(path string) (*Preset, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, configError("config.Load", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, configError("config.Load", fmt.Errorf("failed to read %s: %w", path, err))
	}
	p, err := Parse(data, format)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Parse decodes and validates preset data.
func Parse(data []byte, format Format) (*Preset, error) {
	var p Preset
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil {
			return nil, configError("config.Parse", fmt.Errorf("failed to parse yaml: %w", err))
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &p)
		if err != nil {
			return nil, configError("config.Parse", fmt.Errorf("failed to parse toml: %w", err))
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, configError("config.Parse", fmt.Errorf("unknown keys: %v", undecoded))
		}
	default:
		return nil, configError("config.Parse", fmt.Errorf("unknown format %q", format))
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks every entry and cross reference.
func (p *Preset) Validate() error {
	var problems []string
	for _, name := range sortedKeys(p.Animations) {
		a := p.Animations[name]
		if _, err := a.Options(); err != nil {
			problems = append(problems, fmt.Sprintf("animation %q: %v", name, err))
		}
		for i, t := range a.Targets {
			if t.Selector == "" || t.Property == "" {
				problems = append(problems, fmt.Sprintf("animation %q target %d: selector and property are required", name, i))
			}
		}
	}
	for _, name := range sortedKeys(p.Staggers) {
		s := p.Staggers[name]
		if _, ok := p.Animations[s.Animation]; !ok {
			problems = append(problems, fmt.Sprintf("stagger %q: unknown animation %q", name, s.Animation))
		}
		if s.Count <= 0 {
			problems = append(problems, fmt.Sprintf("stagger %q: count must be positive", name))
		}
		if _, err := s.Config(); err != nil {
			problems = append(problems, fmt.Sprintf("stagger %q: %v", name, err))
		}
	}
	for _, name := range sortedKeys(p.Sequences) {
		s := p.Sequences[name]
		if len(s.Stages) == 0 {
			problems = append(problems, fmt.Sprintf("sequence %q: no stages", name))
		}
		for _, stage := range s.Stages {
			a, ok := p.Animations[stage]
			if !ok {
				problems = append(problems, fmt.Sprintf("sequence %q: unknown animation %q", name, stage))
				continue
			}
			if opts, err := a.Options(); err == nil && opts.Iterations == animation.Infinite {
				problems = append(problems, fmt.Sprintf("sequence %q: stage %q repeats forever", name, stage))
			}
		}
	}
	if len(problems) > 0 {
		return configError("config.Validate",
			fmt.Errorf("%w: %s", errors.ErrInvalidOptions, strings.Join(problems, "; ")))
	}
	return nil
}

// Names lists every animation, stagger and sequence name, sorted within each
// group.
func (p *Preset) Names() (animations, staggers, sequences []string) {
	return sortedKeys(p.Animations), sortedKeys(p.Staggers), sortedKeys(p.Sequences)
}

// Options converts the entry to controller options.
func (a Animation) Options() (animation.Options, error) {
	var opts animation.Options
	var err error
	if opts.Duration, err = parseDuration("duration", a.Duration); err != nil {
		return opts, err
	}
	if opts.Delay, err = parseDuration("delay", a.Delay); err != nil {
		return opts, err
	}
	opts.Iterations = a.Iterations
	opts.FillMode = a.Fill
	opts.Easing = a.Easing
	opts.Alternate = a.Alternate
	if _, ok := animation.LookupCurve(a.Easing); !ok {
		return opts, fmt.Errorf("unknown easing %q", a.Easing)
	}
	return opts, opts.Validate()
}

// Config converts the entry to a stagger configuration.
func (s Stagger) Config() (animation.StaggerConfig, error) {
	cfg := animation.StaggerConfig{Easing: s.Easing, Reverse: s.Reverse}
	var err error
	if cfg.Delay, err = parseDuration("delay", s.Delay); err != nil {
		return cfg, err
	}
	if cfg.MaxSpan, err = parseDuration("max_span", s.MaxSpan); err != nil {
		return cfg, err
	}
	if cfg.Delay < 0 || cfg.MaxSpan < 0 {
		return cfg, fmt.Errorf("delay and max_span must not be negative")
	}
	if _, ok := animation.LookupCurve(s.Easing); !ok {
		return cfg, fmt.Errorf("unknown easing %q", s.Easing)
	}
	return cfg, nil
}

func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

func configError(op string, err error) error {
	return &errors.MotionError{Op: op, Kind: errors.KindConfig, Err: err}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
