// Package main provides the pagemap command, which renders a page and prints
// the addressable node map an agent would act on.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigFile  string
	URL         string
	File        string
	Driver      string
	Headless    bool
	Highlight   bool
	Focus       int
	Expansion   int
	Debug       bool
	Format      string
	OutputFile  string
	Copy        bool
	SaveConfig  string
	ShowVersion bool

	// set records which flags were given explicitly
	set map[string]bool
}

func main() {
	cli := parseFlags(os.Args[1:])

	if cli.ShowVersion {
		fmt.Printf("pagemap v%s\n", version)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	if err := run(ctx, cli, os.Stdout); err != nil {
		cancel()
		log.Printf("pagemap failed: %v", err)
		os.Exit(1)
	}
	cancel()
}

// parseFlags parses command line flags
func parseFlags(args []string) *CLIConfig {
	cli := &CLIConfig{set: make(map[string]bool)}
	fs := flag.NewFlagSet("pagemap", flag.ExitOnError)

	fs.StringVar(&cli.ConfigFile, "config", "", "Path to configuration file (YAML, default ~/.pagemap/config.yaml)")
	fs.StringVar(&cli.URL, "url", "", "Page to map")
	fs.StringVar(&cli.File, "file", "", "Local HTML file to map without a browser")
	fs.StringVar(&cli.Driver, "driver", "playwright", "Browser driver: playwright or rod")
	fs.BoolVar(&cli.Headless, "headless", true, "Run the browser without a window")
	fs.BoolVar(&cli.Highlight, "highlight", false, "Draw numbered markers over addressable elements")
	fs.IntVar(&cli.Focus, "focus", -1, "Only highlight this index (-1 highlights all)")
	fs.IntVar(&cli.Expansion, "expansion", 0, "Viewport expansion in pixels (-1 maps the whole page)")
	fs.BoolVar(&cli.Debug, "debug", false, "Collect performance metrics")
	fs.StringVar(&cli.Format, "format", "json", "Output format: json or tree")
	fs.StringVar(&cli.OutputFile, "out", "", "Write the map to this file instead of stdout")
	fs.BoolVar(&cli.Copy, "copy", false, "Copy the map to the clipboard")
	fs.StringVar(&cli.SaveConfig, "save-config", "", "Write the effective configuration to this path and exit")
	fs.BoolVar(&cli.ShowVersion, "version", false, "Show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "pagemap - addressable DOM maps for browser agents\n\n")
		fmt.Fprintf(os.Stderr, "Usage: pagemap [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Map a live page\n")
		fmt.Fprintf(os.Stderr, "  pagemap -url https://example.com -format tree\n\n")
		fmt.Fprintf(os.Stderr, "  # Highlight in a visible browser with rod\n")
		fmt.Fprintf(os.Stderr, "  pagemap -url https://example.com -driver rod -headless=false -highlight\n\n")
		fmt.Fprintf(os.Stderr, "  # Map a saved page offline\n")
		fmt.Fprintf(os.Stderr, "  pagemap -file page.html -expansion -1\n\n")
	}

	_ = fs.Parse(args)
	fs.Visit(func(f *flag.Flag) { cli.set[f.Name] = true })
	return cli
}
