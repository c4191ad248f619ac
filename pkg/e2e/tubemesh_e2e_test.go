package e2e

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dd0wney/cluso-tubemesh/pkg/annotation"
	"github.com/dd0wney/cluso-tubemesh/pkg/emit"
	"github.com/dd0wney/cluso-tubemesh/pkg/logging"
	"github.com/dd0wney/cluso-tubemesh/pkg/mesher"
	"github.com/dd0wney/cluso-tubemesh/pkg/metrics"
	"github.com/dd0wney/cluso-tubemesh/pkg/network"
)

// TestCompleteGenerationWorkflow walks a complete user journey: parse a
// branching structure, annotate a branch, override its resolution,
// generate, then check the emitted mesh and its annotation groups.
func TestCompleteGenerationWorkflow(t *testing.T) {
	var logBuf bytes.Buffer
	logger := logging.NewJSONLogger(&logBuf, logging.InfoLevel)
	registry := metrics.NewRegistry()

	t.Log("Step 1: Parsing the structure...")
	net, err := network.Parse("(1-2.1,2.2-3),2.3-4)")
	require.NoError(t, err)
	require.Len(t, net.Segments(), 3)
	t.Logf("✓ Parsed %d segments over %d nodes", len(net.Segments()), len(net.Nodes()))

	t.Log("Step 2: Annotating the lower branch...")
	var branch *network.Segment
	for _, seg := range net.Segments() {
		if seg.EndNode().ID == 4 {
			branch = seg
		}
	}
	require.NotNil(t, branch)
	branch.Annotate("lower branch", annotation.TermID("lower branch"))

	t.Log("Step 3: Generating the mesh...")
	opts := mesher.DefaultOptions()
	opts.Structure = "(1-2.1,2.2-3),2.3-4)"
	opts.AnnotationElementsCountAlong = map[string]int{"lower branch": 6}

	mesh := emit.NewMesh()
	m := mesher.New(logger, registry)
	result, err := m.GenerateNetwork(net, opts, mesh)
	require.NoError(t, err)
	t.Logf("✓ Generated %d nodes, %d elements", result.NodeCount, result.ElementCount)

	t.Log("Step 4: Checking mesh integrity...")
	assert.Equal(t, result.NodeCount, mesh.NodeCount())
	assert.Equal(t, result.ElementCount, mesh.ElementCount(3))
	for _, el := range mesh.Elements() {
		for _, nodeID := range el.Nodes {
			_, ok := mesh.Node(nodeID)
			require.True(t, ok, "element %d references missing node %d", el.ID, nodeID)
		}
	}

	t.Log("Step 5: Checking annotation groups...")
	var lower, shell *annotation.Group
	for _, g := range result.Groups {
		switch g.Name {
		case "lower branch":
			lower = g
		case annotation.GroupShell:
			shell = g
		}
	}
	require.NotNil(t, lower)
	require.NotNil(t, shell)
	assert.Equal(t, annotation.TermID("lower branch"), lower.TermID)
	assert.Positive(t, lower.Size())
	assert.Equal(t, result.ElementCount, shell.Size())
	for _, id := range lower.ElementIDs() {
		el, ok := mesh.Element(id)
		require.True(t, ok)
		assert.Equal(t, 3, el.Dim)
		assert.True(t, shell.Has(id), "branch element %d missing from the shell group", id)
	}

	t.Log("Step 6: Checking the structured log stream...")
	require.NotZero(t, logBuf.Len())
	dec := json.NewDecoder(&logBuf)
	for dec.More() {
		var entry logging.LogEntry
		require.NoError(t, dec.Decode(&entry))
		assert.Equal(t, "mesher", entry.Fields["component"])
	}
}

// TestConcurrentGenerations runs independent generations in parallel
// against a shared mesher; results must match a lone run.
func TestConcurrentGenerations(t *testing.T) {
	opts := mesher.DefaultOptions()
	opts.Structure = "(1-2)"
	opts.IsCore = true

	reference := emit.NewMesh()
	m := mesher.New(nil, metrics.NewRegistry())
	want, err := m.Generate(opts, reference)
	require.NoError(t, err)

	const workers = 8
	results := make([]*mesher.Result, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			mesh := emit.NewMesh()
			result, err := m.Generate(opts, mesh)
			assert.NoError(t, err)
			results[i] = result
		}(i)
	}
	wg.Wait()

	for i, got := range results {
		require.NotNil(t, got, "worker %d produced no result", i)
		assert.Equal(t, want.NodeCount, got.NodeCount)
		assert.Equal(t, want.ElementCount, got.ElementCount)
	}
}

// TestFailedGenerationLeavesNoTrace verifies the transactional contract
// of the emission boundary for a structure that fails late, at resolve.
func TestFailedGenerationLeavesNoTrace(t *testing.T) {
	opts := mesher.DefaultOptions()
	opts.Structure = "(1-2.1,2.2-3),2.3-4)"
	opts.IsCore = true // cores cannot pass through a branching junction

	mesh := emit.NewMesh()
	m := mesher.New(nil, metrics.NewRegistry())
	_, err := m.Generate(opts, mesh)
	require.Error(t, err)
	assert.Zero(t, mesh.NodeCount())
	assert.Zero(t, mesh.ElementCount(3))
	assert.Zero(t, mesh.ElementCount(2))
}
