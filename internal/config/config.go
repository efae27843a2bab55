// File: internal/config/config.go
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
	Compress CompressConfig `mapstructure:"compress" yaml:"compress"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// EngineConfig carries every tunable of the containment and stacking engine.
// The exact numeric weights were never observable constants of the source
// pipeline; they are configuration so they can be validated empirically
// against the quality targets instead of hard-coded.
type EngineConfig struct {
	// MaxNodes bounds preprocessing and therefore total engine work.
	// Partial results are returned when the cap is hit.
	MaxNodes int `mapstructure:"max_nodes" yaml:"max_nodes"`

	Weights    ScoreWeights `mapstructure:"weights" yaml:"weights"`
	Thresholds Thresholds   `mapstructure:"thresholds" yaml:"thresholds"`
}

// ScoreWeights are the multipliers applied to each containment-score term.
type ScoreWeights struct {
	Tightness     float64 `mapstructure:"tightness" yaml:"tightness"`
	AreaRatio     float64 `mapstructure:"area_ratio" yaml:"area_ratio"`
	Style         float64 `mapstructure:"style" yaml:"style"`
	Layout        float64 `mapstructure:"layout" yaml:"layout"`
	Clip          float64 `mapstructure:"clip" yaml:"clip"`
	Decoration    float64 `mapstructure:"decoration" yaml:"decoration"`
	Overlay       float64 `mapstructure:"overlay" yaml:"overlay"`
	CrossStacking float64 `mapstructure:"cross_stacking" yaml:"cross_stacking"`
}

// Thresholds are the cutoffs used by classification, wrapper elimination and
// synthetic grouping.
type Thresholds struct {
	// ContainSlackPx is the per-edge tolerance for "fully inside".
	ContainSlackPx float64 `mapstructure:"contain_slack_px" yaml:"contain_slack_px"`
	// WrapperAreaRatio is the near-1:1 cutoff for wrapper elimination.
	WrapperAreaRatio float64 `mapstructure:"wrapper_area_ratio" yaml:"wrapper_area_ratio"`
	// GapTolerancePx / GapToleranceRatio define gap uniformity: a run of
	// gaps is uniform when max-min <= max(GapTolerancePx, mean*ratio).
	GapTolerancePx    float64 `mapstructure:"gap_tolerance_px" yaml:"gap_tolerance_px"`
	GapToleranceRatio float64 `mapstructure:"gap_tolerance_ratio" yaml:"gap_tolerance_ratio"`
	// CrossAlignTolerancePx is the slack for shared cross-axis alignment.
	CrossAlignTolerancePx float64 `mapstructure:"cross_align_tolerance_px" yaml:"cross_align_tolerance_px"`
	// SpaceBetweenSlackRatio switches uniform-gap stacks to SPACE_BETWEEN
	// when free space on the main axis exceeds this share of the parent.
	SpaceBetweenSlackRatio float64 `mapstructure:"space_between_slack_ratio" yaml:"space_between_slack_ratio"`
	// MinStackChildren is the minimum run length for stack classification.
	MinStackChildren int `mapstructure:"min_stack_children" yaml:"min_stack_children"`
	// SyntheticMaxCoverage: a sibling run only gets a synthetic frame when
	// its bounding box covers at most this share of the parent area.
	SyntheticMaxCoverage float64 `mapstructure:"synthetic_max_coverage" yaml:"synthetic_max_coverage"`
	// SectionMinWidthRatio: a top-level node at least this wide relative
	// to the root is classified as a section.
	SectionMinWidthRatio float64 `mapstructure:"section_min_width_ratio" yaml:"section_min_width_ratio"`
	// GridCellToleranceRatio is the allowed spread of cell size and pitch
	// for grid classification, relative to the mean.
	GridCellToleranceRatio float64 `mapstructure:"grid_cell_tolerance_ratio" yaml:"grid_cell_tolerance_ratio"`
	// TopCandidates caps the wrapper-candidate list kept for diagnostics.
	TopCandidates int `mapstructure:"top_candidates" yaml:"top_candidates"`
}

// ReportConfig holds the advisory quality targets. Breaching a target only
// changes the generated recommendation text, never the result.
type ReportConfig struct {
	MaxOrphanRate         float64 `mapstructure:"max_orphan_rate" yaml:"max_orphan_rate"`
	MinAutoLayoutCoverage float64 `mapstructure:"min_auto_layout_coverage" yaml:"min_auto_layout_coverage"`
	MaxDepth              int     `mapstructure:"max_depth" yaml:"max_depth"`
}

// CompressConfig holds the payload-compression limits.
type CompressConfig struct {
	TargetSizeMB      float64 `mapstructure:"target_size_mb" yaml:"target_size_mb"`
	AggressiveAboveMB float64 `mapstructure:"aggressive_above_mb" yaml:"aggressive_above_mb"`
	WarnAboveMB       float64 `mapstructure:"warn_above_mb" yaml:"warn_above_mb"`
	ImageLimitKB      float64 `mapstructure:"image_limit_kb" yaml:"image_limit_kb"`
	SVGLimitKB        float64 `mapstructure:"svg_limit_kb" yaml:"svg_limit_kb"`
	MaxDepth          int     `mapstructure:"max_depth" yaml:"max_depth"`
	MaxColors         int     `mapstructure:"max_colors" yaml:"max_colors"`
	MaxTypography     int     `mapstructure:"max_typography" yaml:"max_typography"`
	MaxSpacing        int     `mapstructure:"max_spacing" yaml:"max_spacing"`
	AggrImageLimitKB  float64 `mapstructure:"aggr_image_limit_kb" yaml:"aggr_image_limit_kb"`
	AggrSVGLimitKB    float64 `mapstructure:"aggr_svg_limit_kb" yaml:"aggr_svg_limit_kb"`
	AggrMaxDepth      int     `mapstructure:"aggr_max_depth" yaml:"aggr_max_depth"`
	AggrMaxColors     int     `mapstructure:"aggr_max_colors" yaml:"aggr_max_colors"`
	AggrMaxTypography int     `mapstructure:"aggr_max_typography" yaml:"aggr_max_typography"`
	AggrMaxSpacing    int     `mapstructure:"aggr_max_spacing" yaml:"aggr_max_spacing"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "reflow-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Engine --
	v.SetDefault("engine.max_nodes", 50000)

	v.SetDefault("engine.weights.tightness", 1.0)
	v.SetDefault("engine.weights.area_ratio", 0.6)
	v.SetDefault("engine.weights.style", 0.3)
	v.SetDefault("engine.weights.layout", 0.4)
	v.SetDefault("engine.weights.clip", 0.5)
	v.SetDefault("engine.weights.decoration", 0.4)
	v.SetDefault("engine.weights.overlay", 0.8)
	v.SetDefault("engine.weights.cross_stacking", 0.5)

	v.SetDefault("engine.thresholds.contain_slack_px", 2.0)
	v.SetDefault("engine.thresholds.wrapper_area_ratio", 0.92)
	v.SetDefault("engine.thresholds.gap_tolerance_px", 1.5)
	v.SetDefault("engine.thresholds.gap_tolerance_ratio", 0.08)
	v.SetDefault("engine.thresholds.cross_align_tolerance_px", 2.0)
	v.SetDefault("engine.thresholds.space_between_slack_ratio", 0.25)
	v.SetDefault("engine.thresholds.min_stack_children", 2)
	v.SetDefault("engine.thresholds.synthetic_max_coverage", 0.7)
	v.SetDefault("engine.thresholds.section_min_width_ratio", 0.9)
	v.SetDefault("engine.thresholds.grid_cell_tolerance_ratio", 0.1)
	v.SetDefault("engine.thresholds.top_candidates", 10)

	// -- Report targets --
	v.SetDefault("report.max_orphan_rate", 0.35)
	v.SetDefault("report.min_auto_layout_coverage", 0.25)
	v.SetDefault("report.max_depth", 15)

	// -- Compress --
	v.SetDefault("compress.target_size_mb", 150.0)
	v.SetDefault("compress.aggressive_above_mb", 250.0)
	v.SetDefault("compress.warn_above_mb", 200.0)
	v.SetDefault("compress.image_limit_kb", 75.0)
	v.SetDefault("compress.svg_limit_kb", 30.0)
	v.SetDefault("compress.max_depth", 10)
	v.SetDefault("compress.max_colors", 30)
	v.SetDefault("compress.max_typography", 20)
	v.SetDefault("compress.max_spacing", 25)
	v.SetDefault("compress.aggr_image_limit_kb", 25.0)
	v.SetDefault("compress.aggr_svg_limit_kb", 10.0)
	v.SetDefault("compress.aggr_max_depth", 6)
	v.SetDefault("compress.aggr_max_colors", 15)
	v.SetDefault("compress.aggr_max_typography", 10)
	v.SetDefault("compress.aggr_max_spacing", 10)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only, but fail loudly if it does.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Engine.MaxNodes <= 0 {
		return fmt.Errorf("engine.max_nodes must be a positive integer")
	}
	t := c.Engine.Thresholds
	if t.WrapperAreaRatio <= 0 || t.WrapperAreaRatio > 1 {
		return fmt.Errorf("engine.thresholds.wrapper_area_ratio must be in (0, 1]")
	}
	if t.MinStackChildren < 2 {
		return fmt.Errorf("engine.thresholds.min_stack_children must be at least 2")
	}
	if t.SyntheticMaxCoverage <= 0 || t.SyntheticMaxCoverage > 1 {
		return fmt.Errorf("engine.thresholds.synthetic_max_coverage must be in (0, 1]")
	}
	if c.Report.MaxOrphanRate < 0 || c.Report.MaxOrphanRate > 1 {
		return fmt.Errorf("report.max_orphan_rate must be in [0, 1]")
	}
	if c.Report.MinAutoLayoutCoverage < 0 || c.Report.MinAutoLayoutCoverage > 1 {
		return fmt.Errorf("report.min_auto_layout_coverage must be in [0, 1]")
	}
	if c.Compress.TargetSizeMB <= 0 {
		return fmt.Errorf("compress.target_size_mb must be positive")
	}
	return nil
}
