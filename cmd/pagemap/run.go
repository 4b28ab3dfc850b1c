package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"

	"github.com/entrhq/pagemap/pkg/browser"
	"github.com/entrhq/pagemap/pkg/config"
	"github.com/entrhq/pagemap/pkg/dom"
	"github.com/entrhq/pagemap/pkg/dom/memdom"
	"github.com/entrhq/pagemap/pkg/domtree"
	"github.com/entrhq/pagemap/pkg/logging"
	"github.com/entrhq/pagemap/pkg/overlay"
)

// run maps one page and writes the result
func run(ctx context.Context, cli *CLIConfig, stdout io.Writer) error {
	cfg, err := loadConfig(cli)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cli.SaveConfig != "" {
		return config.Save(cli.SaveConfig, cfg)
	}

	logger := newLogger(cfg)
	defer logger.Close()

	if cli.File == "" && cli.URL == "" {
		return fmt.Errorf("one of -url or -file is required")
	}

	domains, err := domainRules(cfg)
	if err != nil {
		return err
	}

	opts := cfg.Tree.Options()
	if logger.Level() >= logging.LevelDebug {
		opts.Logger = logger.With("domtree")
	}

	var res *domtree.Result
	start := time.Now()
	if cli.File != "" {
		res, err = mapFile(cli.File, cfg, opts, domains)
	} else {
		res, err = mapURL(ctx, cli.URL, cfg, opts, domains, logger)
	}
	if err != nil {
		return err
	}
	logger.Infof("mapped %d records, %d addressable, in %s", len(res.Map), len(res.Highlighted()), time.Since(start))
	if m := res.PerfMetrics; m != nil {
		logger.Infof("build took %.2fms, cache hit rate %.2f", m.BuildDuration, m.Cache.OverallHitRate)
	}

	return output(res, cfg.Output, stdout)
}

// loadConfig layers the config file, .env and PAGEMAP_* variables, then
// flags given explicitly
func loadConfig(cli *CLIConfig) (*config.Config, error) {
	if err := config.LoadEnv(); err != nil {
		return nil, err
	}
	cfg, err := config.Load(cli.ConfigFile)
	if err != nil {
		return nil, err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	applyFlags(cli, cfg)
	return cfg, nil
}

func applyFlags(cli *CLIConfig, cfg *config.Config) {
	if cli.set["driver"] {
		cfg.Browser.Driver = config.Driver(cli.Driver)
	}
	if cli.set["headless"] {
		cfg.Browser.Headless = cli.Headless
	}
	if cli.set["highlight"] {
		cfg.Tree.Highlight = cli.Highlight
	}
	if cli.set["focus"] {
		cfg.Tree.FocusIndex = cli.Focus
	}
	if cli.set["expansion"] {
		cfg.Tree.ViewportExpansion = cli.Expansion
	}
	if cli.set["debug"] {
		cfg.Tree.Debug = cli.Debug
	}
	if cli.set["format"] {
		cfg.Output.Format = config.Format(cli.Format)
	}
	if cli.set["out"] {
		cfg.Output.File = cli.OutputFile
	}
	if cli.set["copy"] {
		cfg.Output.Copy = cli.Copy
	}
}

// newLogger opens the session log file at the configured verbosity. Errors
// fall back to stderr inside logging.
func newLogger(cfg *config.Config) *logging.Logger {
	logger, _ := logging.NewLogger("pagemap")
	level, err := logging.ParseLevel(cfg.Logging.Verbosity)
	if err != nil {
		logger.Warnf("%v, using normal", err)
	}
	logger.SetLevel(level)
	return logger
}

func domainRules(cfg *config.Config) (*browser.DomainRules, error) {
	base, err := cfg.Rules.BaseRules()
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	domains := browser.NewDomainRules(base)
	for _, d := range cfg.Rules.Domains {
		if err := domains.Register(d.Pattern, d.Rules); err != nil {
			return nil, err
		}
	}
	return domains, nil
}

// mapFile maps a local HTML file laid out in memory at the configured
// viewport size
func mapFile(path string, cfg *config.Config, opts domtree.Options, domains *browser.DomainRules) (*domtree.Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	vp := dom.Viewport{Width: float64(cfg.Browser.Width), Height: float64(cfg.Browser.Height)}
	doc, err := memdom.ParseHTML(string(src), vp)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if abs, err := filepath.Abs(path); err == nil {
		doc.URL = "file://" + filepath.ToSlash(abs)
	}

	if opts.Rules, err = domains.For(doc.URL); err != nil {
		return nil, err
	}
	if opts.DoHighlightElements {
		opts.Highlighter = overlay.New(overlay.NewDOMSurface(doc), overlay.WithPalette(cfg.Rules.Palette))
	}
	return domtree.Build(doc.Page(), opts), nil
}

// mapURL opens url with the configured driver and maps it. With highlighting
// in a visible browser it keeps the page open until ctx is cancelled.
func mapURL(ctx context.Context, url string, cfg *config.Config, opts domtree.Options, domains *browser.DomainRules, logger *logging.Logger) (*domtree.Result, error) {
	bc := cfg.Browser
	viewport := &browser.Viewport{Width: bc.Width, Height: bc.Height}

	var driver browser.Driver
	switch bc.Driver {
	case config.DriverRod:
		s, err := browser.StartRod(ctx, browser.RodOptions{
			ControlURL: bc.ControlURL,
			Bin:        bc.Bin,
			Headless:   bc.Headless,
			Stealth:    bc.Stealth,
			Viewport:   viewport,
			Timeout:    bc.Timeout,
		})
		if err != nil {
			return nil, err
		}
		defer s.Close()
		if err := s.Navigate(ctx, url); err != nil {
			return nil, err
		}
		driver = s

	default:
		manager := browser.NewSessionManager()
		if err := manager.Initialize(); err != nil {
			return nil, err
		}
		defer manager.Shutdown()

		s, err := manager.StartSession("pagemap", browser.SessionOptions{
			Headless: bc.Headless,
			Viewport: viewport,
			Timeout:  float64(bc.Timeout.Milliseconds()),
		})
		if err != nil {
			return nil, err
		}
		err = s.Navigate(url, browser.NavigateOptions{
			WaitUntil: bc.WaitUntil,
			Timeout:   float64(bc.Timeout.Milliseconds()),
		})
		if err != nil {
			return nil, err
		}
		driver = s
	}
	logger.Infof("loaded %s with %s", driver.URL(), bc.Driver)

	res, err := browser.BuildMap(ctx, driver, browser.MapOptions{
		Tree:    opts,
		Domains: domains,
		Palette: cfg.Rules.Palette,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", url, err)
	}

	if opts.DoHighlightElements && !bc.Headless {
		fmt.Fprintln(os.Stderr, "Highlights drawn; press Ctrl+C to close the browser.")
		<-ctx.Done()
	}
	return res, nil
}

// output renders res and writes it to the configured file or stdout, and
// the clipboard when asked
func output(res *domtree.Result, oc config.OutputConfig, stdout io.Writer) error {
	plain, err := render(res, oc.Format, false)
	if err != nil {
		return err
	}

	if oc.Copy {
		if err := clipboard.WriteAll(plain); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
	}

	if oc.File != "" {
		if err := os.WriteFile(oc.File, []byte(plain), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		return nil
	}

	if !oc.Color {
		_, err := io.WriteString(stdout, plain)
		return err
	}
	colored, err := render(res, oc.Format, true)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, colored)
	return err
}
