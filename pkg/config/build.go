package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-drift/motion/pkg/animation"
	"github.com/go-drift/motion/pkg/style"
	"github.com/go-drift/motion/pkg/timing"
)

// Builder creates controllers from a preset on one scheduler and sink.
type Builder struct {
	preset    *Preset
	scheduler timing.Scheduler
	sink      animation.Sink
	copts     []animation.ControllerOption
}

// NewBuilder returns a builder for p. copts apply to every controller it
// creates, before the controller's name.
func NewBuilder(p *Preset, scheduler timing.Scheduler, sink animation.Sink, copts ...animation.ControllerOption) *Builder {
	return &Builder{preset: p, scheduler: scheduler, sink: sink, copts: copts}
}

// Controller creates the named animation with its targets registered.
func (b *Builder) Controller(name string) (*animation.Controller, error) {
	a, ok := b.preset.Animations[name]
	if !ok {
		return nil, configError("config.Builder.Controller", fmt.Errorf("unknown animation %q", name))
	}
	return b.controller(name, a, -1)
}

// Stagger creates the named stagger.
func (b *Builder) Stagger(name string) (*animation.Stagger, error) {
	s, ok := b.preset.Staggers[name]
	if !ok {
		return nil, configError("config.Builder.Stagger", fmt.Errorf("unknown stagger %q", name))
	}
	a, ok := b.preset.Animations[s.Animation]
	if !ok {
		return nil, configError("config.Builder.Stagger", fmt.Errorf("unknown animation %q", s.Animation))
	}
	opts, err := a.Options()
	if err != nil {
		return nil, configError("config.Builder.Stagger", err)
	}
	cfg, err := s.Config()
	if err != nil {
		return nil, configError("config.Builder.Stagger", err)
	}
	delays := animation.StaggerDelays(s.Count, cfg)
	items := make([]*animation.Controller, s.Count)
	for i := range items {
		itemOpts := a
		itemOpts.Delay = (opts.Delay + delays[i]).String()
		c, err := b.controller(fmt.Sprintf("%s-%d", name, i), itemOpts, i)
		if err != nil {
			return nil, err
		}
		items[i] = c
	}
	return animation.NewStagger(items...), nil
}

// Sequence creates the named sequence.
func (b *Builder) Sequence(name string) (*animation.Sequence, error) {
	s, ok := b.preset.Sequences[name]
	if !ok {
		return nil, configError("config.Builder.Sequence", fmt.Errorf("unknown sequence %q", name))
	}
	stages := make([]*animation.Controller, len(s.Stages))
	for i, stage := range s.Stages {
		c, err := b.Controller(stage)
		if err != nil {
			return nil, err
		}
		stages[i] = c
	}
	seq, err := animation.NewSequence(stages, animation.SequenceOptions{Loop: s.Loop})
	if err != nil {
		return nil, configError("config.Builder.Sequence", err)
	}
	return seq, nil
}

// controller builds one controller. index >= 0 substitutes "{index}" in
// selectors.
func (b *Builder) controller(name string, a Animation, index int) (*animation.Controller, error) {
	opts, err := a.Options()
	if err != nil {
		return nil, configError("config.Builder.Controller", fmt.Errorf("animation %q: %w", name, err))
	}
	copts := append(append([]animation.ControllerOption(nil), b.copts...), animation.WithName(name))
	c, err := animation.NewController(opts, b.scheduler, b.sink, copts...)
	if err != nil {
		return nil, configError("config.Builder.Controller", fmt.Errorf("animation %q: %w", name, err))
	}
	for _, t := range a.Targets {
		selector := t.Selector
		if index >= 0 {
			selector = strings.ReplaceAll(selector, "{index}", strconv.Itoa(index))
		}
		priority := style.PriorityNormal
		if t.Important {
			priority = style.PriorityImportant
		}
		c.RegisterStyleUpdate(style.Select(selector), t.Property, t.From, t.To, priority)
	}
	return c, nil
}
