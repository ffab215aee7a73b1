package cmd

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/go-drift/motion/pkg/style"
)

// node is one element of the CLI's stand-in document.
type node struct {
	id      string
	classes []string
	props   map[string]string
}

func (n *node) String() string { return "#" + n.id }

// nodeSurface is a flat list of nodes built from --nodes. Writes are
// reported to onWrite, if set.
type nodeSurface struct {
	mu      sync.Mutex
	nodes   []*node
	onWrite func(n *node, property, value string, removed bool)
}

// parseNodes parses "id.class.class,id2" into a surface. An empty spec yields
// a single node "el".
func parseNodes(spec string) (*nodeSurface, error) {
	s := &nodeSurface{}
	if strings.TrimSpace(spec) == "" {
		spec = "el"
	}
	seen := make(map[string]bool)
	for _, part := range strings.Split(spec, ",") {
		fields := strings.Split(strings.TrimSpace(part), ".")
		id := fields[0]
		if id == "" {
			return nil, fmt.Errorf("node %q has no id", part)
		}
		if seen[id] {
			return nil, fmt.Errorf("duplicate node id %q", id)
		}
		seen[id] = true
		s.nodes = append(s.nodes, &node{id: id, classes: fields[1:], props: make(map[string]string)})
	}
	return s, nil
}

func (s *nodeSurface) SetProperty(el style.Element, property, value string, priority style.Priority) {
	n, ok := el.(*node)
	if !ok {
		return
	}
	s.mu.Lock()
	n.props[property] = value
	onWrite := s.onWrite
	s.mu.Unlock()
	if onWrite != nil {
		onWrite(n, property, value, false)
	}
}

func (s *nodeSurface) RemoveProperty(el style.Element, property string) {
	n, ok := el.(*node)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(n.props, property)
	onWrite := s.onWrite
	s.mu.Unlock()
	if onWrite != nil {
		onWrite(n, property, "", true)
	}
}

func (s *nodeSurface) Query(selector string) []style.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []style.Element
	for _, n := range s.nodes {
		switch {
		case selector == "*",
			strings.HasPrefix(selector, "#") && n.id == selector[1:],
			strings.HasPrefix(selector, ".") && slices.Contains(n.classes, selector[1:]):
			out = append(out, n)
		}
	}
	return out
}

// snapshot returns each node's properties as sorted "name: value" lines.
func (s *nodeSurface) snapshot() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string][]string, len(s.nodes))
	for _, n := range s.nodes {
		lines := make([]string, 0, len(n.props))
		for k, v := range n.props {
			lines = append(lines, k+": "+v)
		}
		slices.Sort(lines)
		out[n.id] = lines
	}
	return out
}

func (s *nodeSurface) ids() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(s.nodes))
	for i, n := range s.nodes {
		ids[i] = n.id
	}
	return ids
}
