// Package config loads pagemap's YAML configuration and its environment
// overrides.
package config

import (
	"fmt"
	"time"

	"github.com/entrhq/pagemap/pkg/domtree"
)

// Config represents the configuration of a pagemap run
type Config struct {
	// Browser that renders the page
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// Options passed to the tree builder
	Tree TreeConfig `yaml:"tree" json:"tree"`

	// Interactivity rule tables
	Rules RulesConfig `yaml:"rules" json:"rules"`

	// How the map is written out
	Output OutputConfig `yaml:"output" json:"output"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// Driver names the browser automation backend.
type Driver string

const (
	// DriverPlaywright drives Chromium through Playwright
	DriverPlaywright Driver = "playwright"
	// DriverRod drives Chromium through rod
	DriverRod Driver = "rod"
)

// Format names an output rendering.
type Format string

const (
	// FormatJSON writes the node map as JSON
	FormatJSON Format = "json"
	// FormatTree writes an indented tree of the retained nodes
	FormatTree Format = "tree"
)

// BrowserConfig defines how the browser is started
type BrowserConfig struct {
	Driver   Driver        `yaml:"driver" json:"driver"`
	Headless bool          `yaml:"headless" json:"headless"`
	Stealth  bool          `yaml:"stealth" json:"stealth"` // rod only
	Width    int           `yaml:"width" json:"width"`
	Height   int           `yaml:"height" json:"height"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout"`

	// ControlURL connects rod to a running browser instead of launching one
	ControlURL string `yaml:"control_url" json:"control_url"`
	// Bin is the browser executable rod launches
	Bin string `yaml:"bin" json:"bin"`

	// WaitUntil is the Playwright load state navigation waits for
	WaitUntil string `yaml:"wait_until" json:"wait_until"`
}

// TreeConfig mirrors domtree.Options
type TreeConfig struct {
	Highlight         bool `yaml:"highlight" json:"highlight"`
	FocusIndex        int  `yaml:"focus_index" json:"focus_index"`
	ViewportExpansion int  `yaml:"viewport_expansion" json:"viewport_expansion"`
	Debug             bool `yaml:"debug" json:"debug"`
}

// RulesConfig defines the interactivity rules
type RulesConfig struct {
	// File replaces the built-in rule tables when set
	File string `yaml:"file" json:"file"`

	// Extend is merged into the base rules for every page
	Extend domtree.RuleSet `yaml:"extend" json:"extend"`

	// Domains extend the rules for matching hosts, first match wins
	Domains []DomainConfig `yaml:"domains" json:"domains"`

	// Palette overrides the highlight colors
	Palette []string `yaml:"palette" json:"palette"`
}

// DomainConfig is one host pattern with its rule extension
type DomainConfig struct {
	Pattern string          `yaml:"pattern" json:"pattern"`
	Rules   domtree.RuleSet `yaml:"rules" json:"rules"`
}

// OutputConfig defines where and how the map is written
type OutputConfig struct {
	Format Format `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
	Color  bool   `yaml:"color" json:"color"`
	Copy   bool   `yaml:"copy" json:"copy"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
}

// Options converts the tree section into builder options.
func (t TreeConfig) Options() domtree.Options {
	return domtree.Options{
		DoHighlightElements: t.Highlight,
		FocusHighlightIndex: t.FocusIndex,
		ViewportExpansion:   t.ViewportExpansion,
		DebugMode:           t.Debug,
	}
}

// BaseRules returns the built-in or file rules with Extend merged in.
func (r RulesConfig) BaseRules() (*domtree.Rules, error) {
	base := domtree.DefaultRules()
	if r.File != "" {
		var err error
		if base, err = domtree.LoadRules(r.File); err != nil {
			return nil, err
		}
	}
	return base.Extend(r.Extend)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Browser.Driver {
	case DriverPlaywright, DriverRod:
	default:
		return fmt.Errorf("invalid driver: %s (must be 'playwright' or 'rod')", c.Browser.Driver)
	}

	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", c.Browser.Width, c.Browser.Height)
	}

	if c.Browser.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	switch c.Browser.WaitUntil {
	case "", "load", "domcontentloaded", "networkidle", "commit":
	default:
		return fmt.Errorf("invalid wait_until: %s", c.Browser.WaitUntil)
	}

	if c.Tree.ViewportExpansion < -1 {
		return fmt.Errorf("viewport_expansion must be -1 or greater")
	}

	if c.Tree.FocusIndex < -1 {
		return fmt.Errorf("focus_index must be -1 or greater")
	}

	for i, d := range c.Rules.Domains {
		if d.Pattern == "" {
			return fmt.Errorf("domain rule %d has no pattern", i)
		}
	}

	switch c.Output.Format {
	case FormatJSON, FormatTree:
	default:
		return fmt.Errorf("invalid output format: %s (must be 'json' or 'tree')", c.Output.Format)
	}

	// Set default verbosity if not specified
	if c.Logging.Verbosity == "" {
		c.Logging.Verbosity = "normal"
	}

	validLevels := map[string]bool{
		"quiet":   true,
		"normal":  true,
		"verbose": true,
		"debug":   true,
	}
	if !validLevels[c.Logging.Verbosity] {
		return fmt.Errorf("invalid logging verbosity: %s (must be 'quiet', 'normal', 'verbose', or 'debug')", c.Logging.Verbosity)
	}

	return nil
}

// DefaultConfig returns a default configuration suitable for most use cases
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			Driver:    DriverPlaywright,
			Headless:  true,
			Width:     1280,
			Height:    720,
			Timeout:   30 * time.Second,
			WaitUntil: "load",
		},
		Tree: TreeConfig{
			FocusIndex: -1,
		},
		Output: OutputConfig{
			Format: FormatJSON,
			Color:  true,
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}
