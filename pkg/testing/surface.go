package testing

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-drift/motion/pkg/style"
)

// Node is an element of a MemorySurface.
type Node struct {
	ID      string
	Classes []string
}

func (n *Node) String() string { return "#" + n.ID }

// Prop is one applied property value.
type Prop struct {
	Value    string
	Priority style.Priority
}

// Op records one write the surface received.
type Op struct {
	Node     string
	Property string
	Value    string
	Removed  bool
}

func (o Op) String() string {
	if o.Removed {
		return fmt.Sprintf("#%s remove %s", o.Node, o.Property)
	}
	return fmt.Sprintf("#%s %s=%s", o.Node, o.Property, o.Value)
}

// MemorySurface is an in-memory style.Surface. Selectors support "*",
// "#id" and ".class". All methods are safe for concurrent use.
type MemorySurface struct {
	mu      sync.Mutex
	nodes   []*Node
	props   map[*Node]map[string]Prop
	ops     []Op
	panicOn map[string]bool
}

// NewMemorySurface returns an empty surface.
func NewMemorySurface() *MemorySurface {
	return &MemorySurface{
		props:   make(map[*Node]map[string]Prop),
		panicOn: make(map[string]bool),
	}
}

// Add appends a node and returns it. Nodes added after a selector update was
// queued are still matched when the processor flushes.
func (s *MemorySurface) Add(id string, classes ...string) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := &Node{ID: id, Classes: classes}
	s.nodes = append(s.nodes, n)
	s.props[n] = make(map[string]Prop)
	return n
}

// Remove detaches the node with id.
func (s *MemorySurface) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = slices.DeleteFunc(s.nodes, func(n *Node) bool {
		if n.ID == id {
			delete(s.props, n)
			return true
		}
		return false
	})
}

// Node returns the node with id, or nil.
func (s *MemorySurface) Node(id string) *Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(id)
}

// Nodes returns the attached nodes in insertion order.
func (s *MemorySurface) Nodes() []*Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.nodes)
}

// PanicOn makes writes to property panic, to exercise fault handling.
func (s *MemorySurface) PanicOn(property string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panicOn[property] = true
}

// SetProperty implements style.Surface.
func (s *MemorySurface) SetProperty(el style.Element, property, value string, priority style.Priority) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.node(el)
	if s.panicOn[property] {
		panic(fmt.Sprintf("surface rejected %s on %s", property, n))
	}
	props, ok := s.props[n]
	if !ok {
		return
	}
	props[property] = Prop{Value: value, Priority: priority}
	s.ops = append(s.ops, Op{Node: n.ID, Property: property, Value: value})
}

// RemoveProperty implements style.Surface.
func (s *MemorySurface) RemoveProperty(el style.Element, property string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.node(el)
	if s.panicOn[property] {
		panic(fmt.Sprintf("surface rejected removal of %s on %s", property, n))
	}
	props, ok := s.props[n]
	if !ok {
		return
	}
	delete(props, property)
	s.ops = append(s.ops, Op{Node: n.ID, Property: property, Removed: true})
}

// Query implements style.Surface.
func (s *MemorySurface) Query(selector string) []style.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []style.Element
	for _, n := range s.nodes {
		if matches(n, selector) {
			out = append(out, n)
		}
	}
	return out
}

// Value returns the applied value of property on node id.
func (s *MemorySurface) Value(id, property string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.find(id)
	if n == nil {
		return "", false
	}
	p, ok := s.props[n][property]
	return p.Value, ok
}

// Prop returns the applied value and priority of property on node id.
func (s *MemorySurface) Prop(id, property string) (Prop, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.find(id)
	if n == nil {
		return Prop{}, false
	}
	p, ok := s.props[n][property]
	return p, ok
}

// Ops returns every write received so far.
func (s *MemorySurface) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.ops)
}

// ResetOps clears the write log.
func (s *MemorySurface) ResetOps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
}

func (s *MemorySurface) node(el style.Element) *Node {
	n, ok := el.(*Node)
	if !ok {
		panic(fmt.Sprintf("memory surface: unexpected element %T", el))
	}
	return n
}

func (s *MemorySurface) find(id string) *Node {
	for _, n := range s.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

func matches(n *Node, selector string) bool {
	switch {
	case selector == "*":
		return true
	case strings.HasPrefix(selector, "#"):
		return n.ID == selector[1:]
	case strings.HasPrefix(selector, "."):
		return slices.Contains(n.Classes, selector[1:])
	default:
		return false
	}
}
