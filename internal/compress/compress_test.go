// internal/compress/compress_test.go
package compress

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reflow-cli/internal/config"
)

func testConfig() config.CompressConfig {
	return config.NewDefaultConfig().Compress
}

func TestOversizedImageRemoval(t *testing.T) {
	cfg := testConfig()
	cfg.TargetSizeMB = 0.01
	big := "data:image/png;base64," + strings.Repeat("A", 200*1024)
	small := "data:image/png;base64," + strings.Repeat("A", 1024)
	doc := map[string]any{
		"document": map[string]any{
			"imageData": big,
			"children": []any{
				map[string]any{"imageData": small},
			},
		},
	}

	stats := New(cfg, zap.NewNop()).Run(doc, false)

	assert.Equal(t, 1, stats.ImagesRemoved)
	assert.False(t, stats.Aggressive)
	node := doc["document"].(map[string]any)
	assert.Contains(t, node["imageData"], "[image removed:")
	child := node["children"].([]any)[0].(map[string]any)
	assert.Equal(t, small, child["imageData"], "small images are kept")
}

func TestOversizedSVGRemoval(t *testing.T) {
	cfg := testConfig()
	cfg.TargetSizeMB = 0.01
	doc := map[string]any{
		"document": map[string]any{
			"svgContent": "<svg>" + strings.Repeat("p", 64*1024) + "</svg>",
		},
	}

	stats := New(cfg, zap.NewNop()).Run(doc, false)

	assert.Equal(t, 1, stats.SVGsRemoved)
	assert.Contains(t, doc["document"].(map[string]any)["svgContent"], "[svg removed:")
}

func TestMetadataStripped(t *testing.T) {
	cfg := testConfig()
	// Target far below the payload so the pass actually runs.
	cfg.TargetSizeMB = 0.00001
	doc := map[string]any{
		"document": map[string]any{
			"id":        "root",
			"debugInfo": map[string]any{"trace": "x"},
			"children": []any{
				map[string]any{"id": "a", "sourceSelector": "#a", "contentHash": "h"},
			},
		},
	}

	New(cfg, zap.NewNop()).Run(doc, false)

	node := doc["document"].(map[string]any)
	assert.NotContains(t, node, "debugInfo")
	child := node["children"].([]any)[0].(map[string]any)
	assert.NotContains(t, child, "sourceSelector")
	assert.NotContains(t, child, "contentHash")
	assert.Equal(t, "a", child["id"])
}

func TestDepthTruncation(t *testing.T) {
	cfg := testConfig()
	cfg.TargetSizeMB = 0.00001
	cfg.MaxDepth = 2

	leaf := map[string]any{"id": "deep", "children": []any{map[string]any{"id": "deepest"}}}
	l2 := map[string]any{"id": "l2", "children": []any{leaf}}
	doc := map[string]any{
		"document": map[string]any{
			"id": "root",
			"children": []any{
				map[string]any{"id": "l1", "children": []any{l2}},
			},
		},
	}

	stats := New(cfg, zap.NewNop()).Run(doc, false)

	assert.Positive(t, stats.SubtreesTrimmed)
	assert.NotContains(t, l2, "children", "subtrees past the depth cap are cut")
}

func TestColorTrimIsDeterministic(t *testing.T) {
	cfg := testConfig()
	cfg.TargetSizeMB = 0.00001
	cfg.MaxColors = 3

	colors := map[string]any{
		"#aaa": 5.0, "#bbb": 9.0, "#ccc": 9.0, "#ddd": 1.0, "#eee": 7.0,
	}
	doc := map[string]any{"designTokens": map[string]any{"colors": colors}}

	New(cfg, zap.NewNop()).Run(doc, false)

	kept := doc["designTokens"].(map[string]any)["colors"].(map[string]any)
	// Usage descending, key ascending on ties: bbb, ccc, eee.
	assert.Len(t, kept, 3)
	assert.Contains(t, kept, "#bbb")
	assert.Contains(t, kept, "#ccc")
	assert.Contains(t, kept, "#eee")
	assert.NotContains(t, kept, "#aaa")
}

func TestTokenListTrimming(t *testing.T) {
	cfg := testConfig()
	cfg.TargetSizeMB = 0.00001
	cfg.MaxTypography = 2
	cfg.MaxSpacing = 2

	doc := map[string]any{"designTokens": map[string]any{
		"typography": []any{"t1", "t2", "t3", "t4"},
		"spacing":    []any{1.0, 2.0, 3.0},
	}}

	New(cfg, zap.NewNop()).Run(doc, false)

	tokens := doc["designTokens"].(map[string]any)
	assert.Equal(t, []any{"t1", "t2"}, tokens["typography"])
	assert.Equal(t, []any{1.0, 2.0}, tokens["spacing"])
}

func TestAggressiveDropsHeavySections(t *testing.T) {
	cfg := testConfig()
	doc := map[string]any{
		"document":          map[string]any{"id": "root"},
		"screenshot":        strings.Repeat("A", 100),
		"components":        map[string]any{},
		"extractionSummary": map[string]any{},
	}

	stats := New(cfg, zap.NewNop()).Run(doc, true)

	assert.True(t, stats.Aggressive)
	assert.Equal(t, 3, stats.SectionsDropped)
	assert.NotContains(t, doc, "screenshot")
	assert.Contains(t, doc, "document")
}

func TestStandardPassKeepsHeavySections(t *testing.T) {
	cfg := testConfig()
	cfg.TargetSizeMB = 0.01

	// A single oversized image keeps the document above target until the
	// standard pass removes it; no escalation happens.
	doc := map[string]any{
		"document": map[string]any{
			"id":        "root",
			"imageData": "data:image/png;base64," + strings.Repeat("A", 200*1024),
		},
		"screenshot": "tiny",
	}

	stats := New(cfg, zap.NewNop()).Run(doc, false)

	assert.False(t, stats.Aggressive)
	assert.Contains(t, doc, "screenshot")
}

func TestUnderTargetSkipsCompression(t *testing.T) {
	cfg := testConfig()
	doc := map[string]any{
		"document": map[string]any{
			"id":        "root",
			"debugInfo": map[string]any{"trace": "x"},
			"imageData": "data:image/png;base64," + strings.Repeat("A", 200*1024),
		},
	}

	stats := New(cfg, zap.NewNop()).Run(doc, false)

	// Already under the size target: the document comes back untouched.
	assert.False(t, stats.Aggressive)
	assert.Zero(t, stats.ImagesRemoved)
	assert.Equal(t, stats.OriginalBytes, stats.FinalBytes)
	node := doc["document"].(map[string]any)
	assert.Contains(t, node, "debugInfo")
	assert.Contains(t, node["imageData"], "base64")
}

func TestEscalationWhenTargetMissed(t *testing.T) {
	cfg := testConfig()
	// Target far below what the payload can reach, forcing the second pass.
	cfg.TargetSizeMB = 0.0001
	cfg.AggressiveAboveMB = 10000
	cfg.WarnAboveMB = 10000

	nodes := make([]any, 0, 50)
	for i := 0; i < 50; i++ {
		nodes = append(nodes, map[string]any{"id": fmt.Sprintf("n%d", i)})
	}
	doc := map[string]any{
		"document":   map[string]any{"id": "root", "children": nodes},
		"screenshot": strings.Repeat("A", 4096),
	}

	stats := New(cfg, zap.NewNop()).Run(doc, false)

	assert.True(t, stats.Aggressive, "missing the target escalates to the aggressive profile")
	assert.NotContains(t, doc, "screenshot")
	assert.Greater(t, stats.OriginalBytes, stats.FinalBytes)
}

func TestNilDocument(t *testing.T) {
	stats := New(testConfig(), zap.NewNop()).Run(nil, false)
	require.NotNil(t, stats)
	assert.Zero(t, stats.OriginalBytes)
}
