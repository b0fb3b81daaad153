// Package cli implements the bubblechart command-line interface.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/bubblechart/pkg/buildinfo"
	"github.com/matzehuels/bubblechart/pkg/cache"
	"github.com/matzehuels/bubblechart/pkg/config"
	"github.com/matzehuels/bubblechart/pkg/pipeline"
	"github.com/matzehuels/bubblechart/pkg/source"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "bubblechart"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config config.Config

	configPath string
	out        io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Config: config.Default(),
		out:    os.Stdout,
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The configuration file is loaded before any subcommand runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Bubblechart lays out weighted, grouped data as bubble charts",
		Long: `Bubblechart computes bubble chart layouts for weighted intents grouped by
domain, using flat or nested circle packing, a grid of packed domain clusters,
or a clustered force simulation, and renders them to SVG, PNG, PDF or JSON.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.loadConfig()
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/bubblechart/config.toml)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.visualizeCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	for _, cmd := range root.Commands() {
		registerCompletions(cmd)
	}

	return root
}

func (c *CLI) loadConfig() error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	c.Config = cfg
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path)
	}
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. When the configuration
// enables it, computed layouts are also persisted in MongoDB.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cc, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(cc, nil, c.Logger)

	if m := c.Config.Mongo; m.StoreLayouts && !noCache {
		store, err := source.OpenLayoutStore(ctx, m.URI, m.Database, m.LayoutCollection)
		if err != nil {
			cc.Close()
			return nil, fmt.Errorf("connect layout store: %w", err)
		}
		runner.Store = store
		c.Logger.Debug("layout store enabled", "database", m.Database)
	}
	return runner, nil
}

// newCache builds the cache selected by the configuration.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == config.BackendNone {
		return cache.NewNullCache(), nil
	}
	if cfg.Backend == config.BackendRedis {
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			c.Logger.Warn("redis cache unavailable, caching disabled", "addr", cfg.RedisAddr, "err", err)
			return cache.NewNullCache(), nil
		}
		return rc, nil
	}
	dir, err := c.cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the configured cache directory, falling back to the XDG
// standard (~/.cache/bubblechart/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// layoutFlags binds the layout flags shared by render, layout and simulate.
func layoutFlags(fs *pflag.FlagSet, opts *pipeline.Options) {
	fs.StringVarP(&opts.VizType, "type", "t", opts.VizType, "visualization type: bubble (default), nodelink")
	fs.StringVarP(&opts.Policy, "policy", "p", opts.Policy, "layout policy: grid (default), flat, nested, force")
	fs.Float64Var(&opts.Width, "width", opts.Width, "canvas width")
	fs.Float64Var(&opts.Height, "height", opts.Height, "canvas height")
	fs.Float64Var(&opts.Padding, "padding", opts.Padding, "gap between bubbles (0 = policy default)")
	fs.Float64Var(&opts.GridShift, "grid-shift", opts.GridShift, "vertical offset of alternating grid columns (0 = default)")
	fs.BoolVar(&opts.NoLastRowShift, "no-last-row-shift", opts.NoLastRowShift, "do not centre a partial last grid row")
	fs.Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed for the force simulation and hand-drawn style")
	fs.BoolVar(&opts.Detailed, "detailed", opts.Detailed, "show values in nodelink labels")
}

// sourceFlags binds the flags that select a MongoDB collection.
func sourceFlags(fs *pflag.FlagSet, opts *pipeline.Options) {
	fs.StringVar(&opts.Format, "input-format", "", "intents document format: json, yaml (default: from extension)")
	fs.StringVar(&opts.Database, "database", "", "MongoDB database (default: "+source.DefaultDatabase+")")
	fs.StringVar(&opts.Collection, "collection", "", "MongoDB collection (default: "+source.DefaultCollection+")")
	fs.StringVar(&opts.Domain, "domain", "", "only load intents of this domain (MongoDB)")
	fs.BoolVar(&opts.Refresh, "refresh", false, "bypass the cached MongoDB read")
}

// renderFlags binds the artifact flags shared by render and visualize.
func renderFlags(fs *pflag.FlagSet, opts *pipeline.Options, formats *string) {
	fs.StringVarP(formats, "format", "f", "", "output format(s): svg (default), png, pdf, json (comma-separated)")
	fs.StringVar(&opts.Style, "style", opts.Style, "visual style: simple (default), handdrawn")
	fs.BoolVar(&opts.NoGrid, "no-grid", opts.NoGrid, "omit the background grid")
	fs.Float64Var(&opts.Scale, "scale", opts.Scale, "PNG scale factor")
}

// applyConfig fills options the user did not set on the command line from
// the configuration file.
func (c *CLI) applyConfig(fs *pflag.FlagSet, opts *pipeline.Options, formats *string) {
	rc := c.Config.Render
	unset := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && !f.Changed
	}
	if unset("type") && rc.VizType != "" {
		opts.VizType = rc.VizType
	}
	if unset("policy") && rc.Policy != "" {
		opts.Policy = rc.Policy
	}
	if unset("width") && rc.Width > 0 {
		opts.Width = rc.Width
	}
	if unset("height") && rc.Height > 0 {
		opts.Height = rc.Height
	}
	if unset("padding") && rc.Padding > 0 {
		opts.Padding = rc.Padding
	}
	if unset("seed") && rc.Seed > 0 {
		opts.Seed = rc.Seed
	}
	if unset("style") && rc.Style != "" {
		opts.Style = rc.Style
	}
	if unset("no-grid") && rc.NoGrid {
		opts.NoGrid = true
	}
	if unset("scale") && rc.Scale > 0 {
		opts.Scale = rc.Scale
	}
	if formats != nil && unset("format") && len(rc.Formats) > 0 {
		*formats = strings.Join(rc.Formats, ",")
	}
	if opts.Database == "" {
		opts.Database = c.Config.Mongo.Database
	}
	if opts.Collection == "" {
		opts.Collection = c.Config.Mongo.Collection
	}
}

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
