package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-drift/motion/pkg/style"
)

func TestParseNodes(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    []string
		wantErr bool
	}{
		{"empty defaults to el", "", []string{"el"}, false},
		{"single", "box", []string{"box"}, false},
		{"classes", "a.card.big, b.card", []string{"a", "b"}, false},
		{"missing id", "a,.card", nil, true},
		{"duplicate", "a,a", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := parseNodes(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.ids())
		})
	}
}

func TestNodeSurfaceQuery(t *testing.T) {
	s, err := parseNodes("a.card.big,b.card,c")
	require.NoError(t, err)

	ids := func(selector string) []string {
		var out []string
		for _, el := range s.Query(selector) {
			out = append(out, el.(*node).id)
		}
		return out
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids("*"))
	assert.Equal(t, []string{"b"}, ids("#b"))
	assert.Equal(t, []string{"a", "b"}, ids(".card"))
	assert.Equal(t, []string{"a"}, ids(".big"))
	assert.Empty(t, ids("#missing"))
	assert.Empty(t, ids("div"))
}

func TestNodeSurfaceWrites(t *testing.T) {
	s, err := parseNodes("a,b")
	require.NoError(t, err)

	var writes []string
	s.onWrite = func(n *node, property, value string, removed bool) {
		if removed {
			writes = append(writes, n.String()+" -"+property)
			return
		}
		writes = append(writes, n.String()+" "+property+"="+value)
	}

	a := s.Query("#a")[0]
	s.SetProperty(a, "width", "10px", style.PriorityNormal)
	s.SetProperty(a, "opacity", "0.5", style.PriorityImportant)
	s.RemoveProperty(a, "width")
	s.SetProperty("not a node", "width", "1px", style.PriorityNormal)

	assert.Equal(t, []string{"#a width=10px", "#a opacity=0.5", "#a -width"}, writes)
	assert.Equal(t, map[string][]string{"a": {"opacity: 0.5"}, "b": {}}, s.snapshot())
}
