// internal/infer/engine_test.go
package infer

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reflow-cli/api/schemas"
	"github.com/xkilldash9x/reflow-cli/internal/config"
	"github.com/xkilldash9x/reflow-cli/internal/preprocess"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func box(id string, x, y, w, h float64, children ...*schemas.CaptureNode) *schemas.CaptureNode {
	return &schemas.CaptureNode{
		ID:             id,
		AbsoluteLayout: &schemas.Layout{X: x, Y: y, Width: w, Height: h},
		Children:       children,
	}
}

func runEngine(t *testing.T, root *schemas.CaptureNode) *Result {
	t.Helper()
	cfg := config.NewDefaultConfig()
	pre := preprocess.New(cfg.Engine.MaxNodes, zap.NewNop()).Run(root)
	return NewEngine(cfg.Engine, zap.NewNop()).Infer(pre)
}

func TestVerticalStackDetection(t *testing.T) {
	root := box("root", 0, 0, 100, 80,
		box("a", 0, 0, 100, 20),
		box("b", 0, 30, 100, 20),
		box("c", 0, 60, 100, 20),
	)

	res := runEngine(t, root)

	require.NotNil(t, res.Root)
	assert.Equal(t, TypeStack, res.Root.Inferred)
	al := res.Root.AutoLayout
	require.NotNil(t, al)
	assert.Equal(t, LayoutVertical, al.LayoutMode)
	assert.Equal(t, 10.0, al.ItemSpacing)
	assert.Equal(t, AlignMin, al.CounterAxisAlign)
	assert.Equal(t, AlignMin, al.PrimaryAxisAlign)
	assert.Zero(t, al.PaddingTop)
	assert.Zero(t, al.PaddingBottom)

	require.NotNil(t, res.Root.Hints)
	assert.True(t, res.Root.Hints.IsStack)
	assert.Equal(t, LayoutVertical, res.Root.Hints.StackDirection)
}

func TestHorizontalStackDetection(t *testing.T) {
	root := box("root", 0, 0, 170, 50,
		box("a", 0, 0, 50, 50),
		box("b", 60, 0, 50, 50),
		box("c", 120, 0, 50, 50),
	)

	res := runEngine(t, root)

	assert.Equal(t, TypeStack, res.Root.Inferred)
	require.NotNil(t, res.Root.AutoLayout)
	assert.Equal(t, LayoutHorizontal, res.Root.AutoLayout.LayoutMode)
	assert.Equal(t, 10.0, res.Root.AutoLayout.ItemSpacing)
}

func TestWrapperElimination(t *testing.T) {
	t.Run("Identical Paintless Wrapper Collapses", func(t *testing.T) {
		root := box("wrapper", 0, 0, 50, 50, box("content", 0, 0, 50, 50))

		res := runEngine(t, root)

		assert.Equal(t, 1, res.EliminatedCount)
		require.NotNil(t, res.Root)
		assert.Equal(t, "content", res.Root.ID, "the child is promoted into the wrapper's place")
		require.Len(t, res.Candidates, 1)
		assert.True(t, res.Candidates[0].Eliminated)
		assert.Equal(t, "wrapper", res.Candidates[0].ID)
	})

	t.Run("Small Child Keeps Wrapper", func(t *testing.T) {
		root := box("wrapper", 0, 0, 100, 100, box("content", 0, 0, 50, 50))

		res := runEngine(t, root)

		assert.Equal(t, 0, res.EliminatedCount)
		assert.Equal(t, "wrapper", res.Root.ID)
		// The near miss is still recorded for diagnostics.
		require.Len(t, res.Candidates, 1)
		assert.False(t, res.Candidates[0].Eliminated)
	})

	t.Run("Painted Wrapper Survives", func(t *testing.T) {
		root := box("wrapper", 0, 0, 50, 50, box("content", 0, 0, 50, 50))
		root.Fills = []schemas.Paint{{Color: &schemas.Color{R: 1, A: 1}}}

		res := runEngine(t, root)

		assert.Equal(t, 0, res.EliminatedCount)
		assert.Equal(t, "wrapper", res.Root.ID)
		assert.Empty(t, res.Candidates, "painted nodes are never wrapper candidates")
	})
}

func TestOverlayExcludedFromGrouping(t *testing.T) {
	fixed := box("float", 200, 0, 50, 50)
	fixed.Position = "fixed"
	root := box("root", 0, 0, 100, 90,
		box("a", 0, 0, 100, 20),
		box("b", 0, 30, 100, 20),
		box("c", 0, 60, 100, 20),
		fixed,
	)

	res := runEngine(t, root)

	// The flow children still read as a stack; the overlay rides along.
	assert.Equal(t, TypeStack, res.Root.Inferred)
	require.NotNil(t, res.Root.AutoLayout)
	assert.Equal(t, 10.0, res.Root.AutoLayout.ItemSpacing)
	assert.Equal(t, 10.0, res.Root.AutoLayout.PaddingBottom)

	require.Len(t, res.Root.Children, 4)
	var overlay *InferredNode
	for _, c := range res.Root.Children {
		if c.ID == "float" {
			overlay = c
		}
	}
	require.NotNil(t, overlay)
	assert.Equal(t, TypeOverlay, overlay.Inferred)
	assert.Nil(t, overlay.AutoLayout)
}

func TestGridDetection(t *testing.T) {
	root := box("root", 0, 0, 100, 100,
		box("c1", 0, 0, 40, 40),
		box("c2", 60, 0, 40, 40),
		box("c3", 0, 60, 40, 40),
		box("c4", 60, 60, 40, 40),
	)

	res := runEngine(t, root)

	assert.Equal(t, TypeGrid, res.Root.Inferred)
	al := res.Root.AutoLayout
	require.NotNil(t, al)
	assert.Equal(t, LayoutHorizontal, al.LayoutMode)
	assert.Equal(t, 20.0, al.ItemSpacing)
	require.NotNil(t, res.Root.Hints)
	assert.True(t, res.Root.Hints.IsGrid)
}

func TestSpaceBetweenSynthesis(t *testing.T) {
	root := box("root", 0, 0, 100, 300,
		box("a", 0, 0, 100, 50),
		box("b", 0, 125, 100, 50),
		box("c", 0, 250, 100, 50),
	)

	res := runEngine(t, root)

	require.NotNil(t, res.Root.AutoLayout)
	// Half of the main axis is uniform slack between the items.
	assert.Equal(t, AlignSpaceBetween, res.Root.AutoLayout.PrimaryAxisAlign)
	assert.Equal(t, 75.0, res.Root.AutoLayout.ItemSpacing)
}

func TestSyntheticGrouping(t *testing.T) {
	root := box("root", 0, 0, 100, 100,
		box("header", 0, 0, 100, 10),
		box("item1", 10, 20, 30, 10),
		box("item2", 10, 35, 30, 10),
		box("footer", 0, 90, 100, 10),
	)

	res := runEngine(t, root)

	assert.Equal(t, TypeContainer, res.Root.Inferred)
	assert.Equal(t, 1, res.SyntheticCount)
	require.Len(t, res.Root.Children, 3)

	frame := res.Root.Children[1]
	assert.Equal(t, "reflow-group-1", frame.ID)
	assert.Equal(t, "FRAME", frame.Type)
	assert.True(t, frame.Synthetic)
	assert.Nil(t, frame.Original)
	assert.Equal(t, TypeStack, frame.Inferred)
	require.NotNil(t, frame.AutoLayout)
	assert.Equal(t, LayoutVertical, frame.AutoLayout.LayoutMode)
	assert.Equal(t, 5.0, frame.AutoLayout.ItemSpacing)

	require.Len(t, frame.Children, 2)
	assert.Equal(t, "item1", frame.Children[0].ID)
	assert.Equal(t, "item2", frame.Children[1].ID)
}

func TestContentAndSectionClassification(t *testing.T) {
	text := box("headline", 0, 0, 950, 500)
	text.IsText = true
	wide := box("hero", 50, 600, 950, 500)
	narrow := box("card", 200, 1200, 300, 500)

	root := box("root", 0, 0, 1000, 2000, text, wide, narrow)
	res := runEngine(t, root)

	require.Len(t, res.Root.Children, 3)
	byID := map[string]*InferredNode{}
	for _, c := range res.Root.Children {
		byID[c.ID] = c
	}
	assert.Equal(t, TypeContent, byID["headline"].Inferred)
	assert.Equal(t, TypeSection, byID["hero"].Inferred)
	assert.Equal(t, TypeContainer, byID["card"].Inferred)
}

func TestEmptyInput(t *testing.T) {
	cfg := config.NewDefaultConfig()
	res := NewEngine(cfg.Engine, nil).Infer(nil)
	assert.Nil(t, res.Root)
	assert.Empty(t, res.Candidates)
}

func TestTruncatedInputStillYieldsTree(t *testing.T) {
	kids := make([]*schemas.CaptureNode, 0, 200)
	for i := 0; i < 200; i++ {
		kids = append(kids, box(fmt.Sprintf("c%d", i), 0, float64(i*20), 100, 15))
	}
	root := box("root", 0, 0, 100, 4000, kids...)

	cfg := config.NewDefaultConfig()
	pre := preprocess.New(50, zap.NewNop()).Run(root)
	require.True(t, pre.Truncated)

	res := NewEngine(cfg.Engine, zap.NewNop()).Infer(pre)
	require.NotNil(t, res.Root)
	assert.Equal(t, TypeStack, res.Root.Inferred)
	assert.Len(t, res.Root.Children, 49)
}

func TestDeterminism(t *testing.T) {
	build := func() *schemas.CaptureNode {
		fixed := box("float", 300, 0, 40, 40)
		fixed.Position = "fixed"
		return box("root", 0, 0, 200, 400,
			box("wrapper", 0, 0, 200, 100, box("inner", 0, 0, 200, 100)),
			box("g1", 0, 120, 80, 80),
			box("g2", 100, 120, 80, 80),
			box("g3", 0, 220, 80, 80),
			box("g4", 100, 220, 80, 80),
			fixed,
		)
	}

	run := func() (*Result, *Metrics) {
		cfg := config.NewDefaultConfig()
		pre := preprocess.New(cfg.Engine.MaxNodes, zap.NewNop()).Run(build())
		res := NewEngine(cfg.Engine, zap.NewNop()).Infer(pre)
		return res, Collect(pre, res, cfg.Engine.Thresholds.TopCandidates)
	}

	res1, m1 := run()
	res2, m2 := run()

	tree1, err := json.Marshal(res1.Root)
	require.NoError(t, err)
	tree2, err := json.Marshal(res2.Root)
	require.NoError(t, err)

	if diff := cmp.Diff(string(tree1), string(tree2)); diff != "" {
		t.Fatalf("trees differ between identical runs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(m1, m2); diff != "" {
		t.Fatalf("metrics differ between identical runs (-first +second):\n%s", diff)
	}
}

func TestStructuralConservation(t *testing.T) {
	fixed := box("float", 300, 0, 40, 40)
	fixed.Position = "fixed"
	root := box("root", 0, 0, 200, 400,
		box("wrapper", 0, 0, 200, 100, box("inner", 0, 0, 200, 100)),
		box("g1", 0, 120, 80, 80),
		box("g2", 100, 120, 80, 80),
		box("g3", 0, 220, 80, 80),
		box("g4", 100, 220, 80, 80),
		fixed,
	)

	res := runEngine(t, root)

	// Every surviving input node appears exactly once; only the eliminated
	// wrapper is gone, and synthetic frames are the only additions.
	seen := map[string]int{}
	var walk func(n *InferredNode)
	walk = func(n *InferredNode) {
		seen[n.ID]++
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(res.Root)

	for _, id := range []string{"root", "inner", "g1", "g2", "g3", "g4", "float"} {
		assert.Equal(t, 1, seen[id], "node %s must appear exactly once", id)
	}
	assert.Zero(t, seen["wrapper"], "the eliminated wrapper must not reappear")
	for id, count := range seen {
		if count != 1 {
			t.Errorf("node %s appears %d times", id, count)
		}
		if id != "root" && id != "inner" && id != "float" &&
			!strings.HasPrefix(id, "g") && !strings.HasPrefix(id, "reflow-group-") {
			t.Errorf("unexpected node %s in output", id)
		}
	}
}

func TestMetricsCollection(t *testing.T) {
	root := box("root", 0, 0, 100, 80,
		box("a", 0, 0, 100, 20),
		box("b", 0, 30, 100, 20),
		box("c", 0, 60, 100, 20),
	)

	cfg := config.NewDefaultConfig()
	pre := preprocess.New(cfg.Engine.MaxNodes, zap.NewNop()).Run(root)
	res := NewEngine(cfg.Engine, zap.NewNop()).Infer(pre)
	m := Collect(pre, res, cfg.Engine.Thresholds.TopCandidates)

	assert.Equal(t, 4, m.TotalNodes)
	assert.Equal(t, 4, m.VisitedNodes)
	assert.Equal(t, 1, m.MaxDepth)
	assert.InDelta(t, 0.75, m.AvgDepth, 1e-9)
	// Three childless nodes directly under the root out of four total.
	assert.InDelta(t, 0.75, m.OrphanRate, 1e-9)
	// Of the four container-typed nodes only the root carries auto-layout.
	assert.InDelta(t, 0.25, m.AutoLayoutCoverage, 1e-9)
	assert.Equal(t, 1, m.TypeCounts[TypeStack])
	assert.Equal(t, 3, m.TypeCounts[TypeContainer])
	assert.False(t, m.Truncated)
}
