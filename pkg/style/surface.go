// Package style batches property writes to an external rendering surface.
//
// Producers submit updates and removals to a [Processor]; the processor
// applies them together on the next frame (or immediately via FlushNow),
// removals first, so that the surface sees one coalesced burst per frame.
package style

import "fmt"

// Element is an opaque handle to one renderable target. Only the Surface
// interprets it.
type Element any

// Priority marks how strongly a property value should apply.
type Priority string

const (
	// PriorityNormal applies the value normally.
	PriorityNormal Priority = ""
	// PriorityImportant asks the surface to let the value win over others.
	PriorityImportant Priority = "important"
)

// Surface is the rendering surface the processor writes to. Implementations
// must be idempotent and synchronous.
type Surface interface {
	// SetProperty applies property=value on el.
	SetProperty(el Element, property, value string, priority Priority)
	// RemoveProperty clears property on el.
	RemoveProperty(el Element, property string)
	// Query resolves a group selector to the elements that currently match.
	Query(selector string) []Element
}

// Target is either a direct element handle or a group selector.
type Target struct {
	element  Element
	selector string
	grouped  bool
}

// Direct targets a single element.
func Direct(el Element) Target {
	return Target{element: el}
}

// Select targets every element matching selector at flush time.
func Select(selector string) Target {
	return Target{selector: selector, grouped: true}
}

// IsSelector reports whether the target is a group selector.
func (t Target) IsSelector() bool {
	return t.grouped
}

// Selector returns the group selector, or "" for direct targets.
func (t Target) Selector() string {
	return t.selector
}

// Element returns the direct handle, or nil for selector targets.
func (t Target) Element() Element {
	return t.element
}

// Resolve returns the elements the target addresses right now.
func (t Target) Resolve(s Surface) []Element {
	if t.grouped {
		return s.Query(t.selector)
	}
	if t.element == nil {
		return nil
	}
	return []Element{t.element}
}

func (t Target) String() string {
	if t.grouped {
		return t.selector
	}
	if s, ok := t.element.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", t.element)
}

// Update asks for Property on Target to be set to Value.
type Update struct {
	Target   Target
	Property string
	Value    string
	Priority Priority
}

// Removal asks for Property on Target to be cleared.
type Removal struct {
	Target   Target
	Property string
}
