package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "PAGEMAP_"

// LoadEnv loads .env files into the process environment without overriding
// variables already set. With no files it loads ./.env. Missing files are
// skipped.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overrides c with PAGEMAP_* variables from the environment.
func ApplyEnv(c *Config) error {
	return applyEnv(c, os.LookupEnv)
}

type override struct {
	name  string
	apply func(v string) error
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	overrides := []override{
		{"DRIVER", func(v string) error { c.Browser.Driver = Driver(v); return nil }},
		{"HEADLESS", boolVar(&c.Browser.Headless)},
		{"STEALTH", boolVar(&c.Browser.Stealth)},
		{"WIDTH", intVar(&c.Browser.Width)},
		{"HEIGHT", intVar(&c.Browser.Height)},
		{"TIMEOUT", durationVar(&c.Browser.Timeout)},
		{"CONTROL_URL", stringVar(&c.Browser.ControlURL)},
		{"BROWSER_BIN", stringVar(&c.Browser.Bin)},
		{"HIGHLIGHT", boolVar(&c.Tree.Highlight)},
		{"FOCUS_INDEX", intVar(&c.Tree.FocusIndex)},
		{"VIEWPORT_EXPANSION", intVar(&c.Tree.ViewportExpansion)},
		{"DEBUG", boolVar(&c.Tree.Debug)},
		{"RULES_FILE", stringVar(&c.Rules.File)},
		{"FORMAT", func(v string) error { c.Output.Format = Format(v); return nil }},
		{"OUTPUT", stringVar(&c.Output.File)},
		{"COLOR", boolVar(&c.Output.Color)},
		{"VERBOSITY", stringVar(&c.Logging.Verbosity)},
	}

	var errs []error
	for _, o := range overrides {
		v, ok := lookup(EnvPrefix + o.name)
		if !ok {
			continue
		}
		if err := o.apply(v); err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, o.name, err))
		}
	}
	return errors.Join(errs...)
}

func stringVar(p *string) func(string) error {
	return func(v string) error {
		*p = v
		return nil
	}
}

func boolVar(p *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*p = b
		return nil
	}
}

func intVar(p *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*p = n
		return nil
	}
}

func durationVar(p *time.Duration) func(string) error {
	return func(v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		*p = d
		return nil
	}
}
