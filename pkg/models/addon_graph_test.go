package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddonGraph_CycleIfAdded(t *testing.T) {
	tests := []struct {
		name   string
		edges  []AddonEdge
		base   string
		target string
		want   []string
	}{
		{
			name:   "empty graph",
			base:   "A",
			target: "B",
		},
		{
			name:   "self loop",
			base:   "A",
			target: "A",
			want:   []string{"A", "A"},
		},
		{
			name:   "direct back edge",
			edges:  []AddonEdge{{"A", "B"}},
			base:   "B",
			target: "A",
			want:   []string{"B", "A", "B"},
		},
		{
			name:   "three node cycle",
			edges:  []AddonEdge{{"B", "T1"}, {"T1", "T2"}},
			base:   "T2",
			target: "B",
			want:   []string{"T2", "B", "T1", "T2"},
		},
		{
			name:   "diamond stays acyclic",
			edges:  []AddonEdge{{"A", "B"}, {"A", "C"}, {"B", "D"}},
			base:   "C",
			target: "D",
		},
		{
			name:   "same edge twice is not a cycle",
			edges:  []AddonEdge{{"A", "B"}},
			base:   "A",
			target: "B",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph := NewAddonGraph(tt.edges)
			assert.Equal(t, tt.want, graph.CycleIfAdded(tt.base, tt.target))
		})
	}
}

func TestAddonGraph_HasDirectBackEdge(t *testing.T) {
	graph := NewAddonGraph([]AddonEdge{{"B", "T1"}, {"T1", "T2"}})

	assert.True(t, graph.HasDirectBackEdge("T1", "B"), "B already points at T1")
	assert.False(t, graph.HasDirectBackEdge("T2", "B"), "a longer cycle is not a direct back edge")
}
