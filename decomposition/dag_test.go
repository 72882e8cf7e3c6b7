package decomposition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphValidateAcceptsSimpleDAG(t *testing.T) {
	g := newGraph()
	g.addEdge("b", "a")
	g.addEdge("c", "b")
	require.NoError(t, g.validate(g.roots()))
}

func TestGraphValidateDetectsSelfCycleTransitively(t *testing.T) {
	g := newGraph()
	g.addEdge("a", "b")
	g.addEdge("b", "c")
	g.addEdge("c", "a")
	assert.Error(t, g.validate(g.roots()))
}

func TestGraphRootsAreNodesWithNoDependencies(t *testing.T) {
	g := newGraph()
	g.addEdge("b", "a")
	g.addNode("z")
	roots := g.roots()
	assert.Contains(t, roots, "a")
	assert.Contains(t, roots, "z")
	assert.NotContains(t, roots, "b")
}
