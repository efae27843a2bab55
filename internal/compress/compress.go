// internal/compress/compress.go
//
// Payload compression for oversized captures: strips heavy embedded assets,
// trims design-token inventories and deep subtrees so the file fits under a
// configured size target. Works on the decoded JSON document directly so
// unknown fields survive untouched.
package compress

import (
	"fmt"
	"sort"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/reflow-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// metadataKeys are per-node debugging fields that never survive compression.
var metadataKeys = []string{
	"htmlMetadata",
	"debugInfo",
	"sourceSelector",
	"componentSignature",
	"contentHash",
	"cssVariables",
}

// heavySections are top-level document sections dropped only in aggressive
// mode.
var heavySections = []string{
	"screenshot",
	"components",
	"cssVariables",
	"variants",
	"extractionSummary",
}

// Options is one concrete compression profile.
type Options struct {
	ImageLimitKB  float64
	SVGLimitKB    float64
	MaxDepth      int
	MaxColors     int
	MaxTypography int
	MaxSpacing    int
	// DropHeavySections removes whole optional document sections.
	DropHeavySections bool
}

// Standard builds the default profile from configuration.
func Standard(cfg config.CompressConfig) Options {
	return Options{
		ImageLimitKB:  cfg.ImageLimitKB,
		SVGLimitKB:    cfg.SVGLimitKB,
		MaxDepth:      cfg.MaxDepth,
		MaxColors:     cfg.MaxColors,
		MaxTypography: cfg.MaxTypography,
		MaxSpacing:    cfg.MaxSpacing,
	}
}

// Aggressive builds the escalated profile from configuration.
func Aggressive(cfg config.CompressConfig) Options {
	return Options{
		ImageLimitKB:      cfg.AggrImageLimitKB,
		SVGLimitKB:        cfg.AggrSVGLimitKB,
		MaxDepth:          cfg.AggrMaxDepth,
		MaxColors:         cfg.AggrMaxColors,
		MaxTypography:     cfg.AggrMaxTypography,
		MaxSpacing:        cfg.AggrMaxSpacing,
		DropHeavySections: true,
	}
}

// Stats reports what one compression run removed.
type Stats struct {
	OriginalBytes   int  `json:"originalBytes"`
	FinalBytes      int  `json:"finalBytes"`
	ImagesRemoved   int  `json:"imagesRemoved"`
	SVGsRemoved     int  `json:"svgsRemoved"`
	SubtreesTrimmed int  `json:"subtreesTrimmed"`
	SectionsDropped int  `json:"sectionsDropped"`
	Aggressive      bool `json:"aggressive"`
}

// Compressor applies size-driven compression to capture documents.
type Compressor struct {
	cfg    config.CompressConfig
	logger *zap.Logger
}

// New creates a Compressor.
func New(cfg config.CompressConfig, logger *zap.Logger) *Compressor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compressor{cfg: cfg, logger: logger.Named("compress")}
}

// Run compresses the document in place. A payload already under the target
// is returned untouched. Otherwise the profile escalates automatically:
// standard first, aggressive when the input (or the standard result) still
// exceeds the configured thresholds. forceAggressive skips both the size
// check and the standard pass.
func (c *Compressor) Run(doc map[string]any, forceAggressive bool) *Stats {
	stats := &Stats{}
	if doc == nil {
		return stats
	}
	size := c.measure(doc)
	stats.OriginalBytes = size
	stats.FinalBytes = size

	sizeMB := toMB(size)
	if !forceAggressive && sizeMB <= c.cfg.TargetSizeMB {
		c.logger.Info("payload already under target, skipping compression",
			zap.Float64("size_mb", sizeMB),
			zap.Float64("target_mb", c.cfg.TargetSizeMB))
		return stats
	}

	aggressive := forceAggressive || sizeMB > c.cfg.AggressiveAboveMB
	c.apply(doc, c.profile(aggressive), stats)
	size = c.measure(doc)

	if !aggressive && toMB(size) > c.cfg.TargetSizeMB {
		aggressive = true
		c.apply(doc, c.profile(true), stats)
		size = c.measure(doc)
	}

	stats.FinalBytes = size
	stats.Aggressive = aggressive
	if finalMB := toMB(size); finalMB > c.cfg.WarnAboveMB {
		c.logger.Warn("payload still oversized after compression",
			zap.Float64("size_mb", finalMB),
			zap.Float64("warn_mb", c.cfg.WarnAboveMB))
	}
	c.logger.Info("compression finished",
		zap.Int("original_bytes", stats.OriginalBytes),
		zap.Int("final_bytes", stats.FinalBytes),
		zap.Bool("aggressive", aggressive))
	return stats
}

func toMB(n int) float64 {
	return float64(n) / (1024 * 1024)
}

func (c *Compressor) profile(aggressive bool) Options {
	if aggressive {
		return Aggressive(c.cfg)
	}
	return Standard(c.cfg)
}

func (c *Compressor) measure(doc map[string]any) int {
	data, err := json.Marshal(doc)
	if err != nil {
		return 0
	}
	return len(data)
}

// apply runs one profile over the document.
func (c *Compressor) apply(doc map[string]any, opts Options, stats *Stats) {
	if opts.DropHeavySections {
		for _, key := range heavySections {
			if _, found := doc[key]; found {
				delete(doc, key)
				stats.SectionsDropped++
			}
		}
	}
	if tokens, ok := doc["designTokens"].(map[string]any); ok {
		trimTokens(tokens, opts)
	}
	stripValues(doc, opts, stats, 0)
}

// stripValues walks the whole document removing oversized embedded assets
// and, inside node trees, metadata keys and over-deep children.
func stripValues(v any, opts Options, stats *Stats, depth int) {
	switch val := v.(type) {
	case map[string]any:
		for _, key := range metadataKeys {
			delete(val, key)
		}
		for k, field := range val {
			s, isString := field.(string)
			if !isString {
				stripValues(field, opts, stats, depth)
				continue
			}
			switch {
			case isEmbeddedImage(k, s):
				if estimatedKB(s) > opts.ImageLimitKB {
					val[k] = fmt.Sprintf("[image removed: %.0fKB]", estimatedKB(s))
					stats.ImagesRemoved++
				}
			case isEmbeddedSVG(k, s):
				if float64(len(s))/1024 > opts.SVGLimitKB {
					val[k] = fmt.Sprintf("[svg removed: %.0fKB]", float64(len(s))/1024)
					stats.SVGsRemoved++
				}
			}
		}
		if children, ok := val["children"].([]any); ok {
			if depth >= opts.MaxDepth {
				delete(val, "children")
				stats.SubtreesTrimmed++
				return
			}
			for _, child := range children {
				stripValues(child, opts, stats, depth+1)
			}
		}
	case []any:
		for _, item := range val {
			stripValues(item, opts, stats, depth)
		}
	}
}

func isEmbeddedImage(key, value string) bool {
	if strings.HasPrefix(value, "data:image/") {
		return true
	}
	switch key {
	case "imageData", "base64Data", "imageHash":
		return true
	}
	return false
}

func isEmbeddedSVG(key, value string) bool {
	return key == "svgContent" || strings.HasPrefix(strings.TrimSpace(value), "<svg")
}

// estimatedKB approximates the decoded size of a base64 payload.
func estimatedKB(s string) float64 {
	if idx := strings.IndexByte(s, ','); idx >= 0 && strings.HasPrefix(s, "data:") {
		s = s[idx+1:]
	}
	return float64(len(s)) * 0.75 / 1024
}

// trimTokens bounds each design-token inventory. Colors keep the most used;
// other inventories keep a prefix.
func trimTokens(tokens map[string]any, opts Options) {
	if colors, ok := tokens["colors"].(map[string]any); ok {
		tokens["colors"] = topColors(colors, opts.MaxColors)
	}
	if typ, ok := tokens["typography"].([]any); ok && len(typ) > opts.MaxTypography {
		tokens["typography"] = typ[:opts.MaxTypography]
	}
	if spacing, ok := tokens["spacing"].([]any); ok && len(spacing) > opts.MaxSpacing {
		tokens["spacing"] = spacing[:opts.MaxSpacing]
	}
}

// topColors keeps the n most used colors. Ordering is usage descending, key
// ascending, so repeated runs trim identically.
func topColors(colors map[string]any, n int) map[string]any {
	if len(colors) <= n {
		return colors
	}
	type entry struct {
		key   string
		usage float64
	}
	entries := make([]entry, 0, len(colors))
	for k, v := range colors {
		e := entry{key: k}
		if usage, ok := v.(float64); ok {
			e.usage = usage
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].usage != entries[j].usage {
			return entries[i].usage > entries[j].usage
		}
		return entries[i].key < entries[j].key
	})
	out := make(map[string]any, n)
	for _, e := range entries[:n] {
		out[e.key] = colors[e.key]
	}
	return out
}
