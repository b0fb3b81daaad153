package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bubblechart/pkg/pipeline"
	"github.com/matzehuels/bubblechart/pkg/source"
	"github.com/matzehuels/bubblechart/pkg/surface"
)

// watchDebounce coalesces the bursts of events editors produce on save.
const watchDebounce = 150 * time.Millisecond

// renderCommand creates the render command: intents in, artifacts out.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		formatsStr string
		output     string
		noCache    bool
		watch      bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "render [intents.json | intents.yaml | - | mongodb://...]",
		Short: "Render intents to a bubble chart",
		Long: `Render intents to a bubble chart.

The input is a JSON or YAML intent document, "-" for stdin, or a MongoDB URI
whose collection holds intent documents. Without an argument the MongoDB URI
from the config file is used.

The render command runs the whole pipeline (load, layout, render). Use
'layout' and 'visualize' to run the two halves separately.

With --watch the file is rendered again whenever it changes; each render gets
a fresh surface, cancelling the previous one if it is still running.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd.Flags(), &opts, &formatsStr)
			input, err := c.inputArg(args)
			if err != nil {
				return err
			}
			opts.Source = input
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			if err := pipeline.ValidateStyle(opts.Style); err != nil {
				return err
			}
			if watch {
				return c.watchRender(cmd.Context(), opts, output, noCache)
			}
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-render when the input file changes")
	layoutFlags(cmd.Flags(), &opts)
	renderFlags(cmd.Flags(), &opts, &formatsStr)
	sourceFlags(cmd.Flags(), &opts)

	return cmd
}

// inputArg returns the input argument, or the configured MongoDB URI.
func (c *CLI) inputArg(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	if c.Config.Mongo.URI != "" {
		return c.Config.Mongo.URI, nil
	}
	return "", fmt.Errorf("no input: pass a file, - or a MongoDB URI, or set mongo.uri in the config file")
}

// runRender executes the full pipeline and writes the artifacts.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	prog := newProgress(c.Logger)

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", displaySource(opts.Source)))
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}
	spinner.Stop()

	if err := ctx.Err(); err != nil {
		return err
	}

	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     opts.Source,
		output:    output,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d bubbles", result.Stats.BubbleCount))

	printSuccess("Render complete")
	for _, p := range paths {
		printFile(p)
	}
	printStats(result.Stats, result.CacheInfo.LayoutHit)
	if !result.Layout.IsNodelink() {
		printLegend(result.Layout.Bubble)
	}
	return nil
}

// watchRender renders once, then again on every change of the input file
// until ctx is cancelled.
func (c *CLI) watchRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	input := opts.Source
	if input == "-" || source.IsMongoURI(input) {
		return fmt.Errorf("--watch needs a file input")
	}
	abs, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()
	// Watch the directory: editors often replace the file on save.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	var renders renderQueue
	defer renders.wait()
	surfaces := surface.NewManager(c.Logger)
	defer surfaces.Close()
	target := basePath(output, input)

	render := func() {
		sf, err := surfaces.Acquire(target, opts.Width, opts.Height)
		if err != nil {
			printError("%v", err)
			return
		}
		rctx, cancel := context.WithCancel(ctx)
		stop := context.AfterFunc(sf.Context(), cancel)
		renders.run(rctx, func(rctx context.Context) {
			defer cancel()
			defer stop()
			if err := c.runRender(rctx, opts, output, noCache); err != nil && rctx.Err() == nil {
				printError("%v", err)
			}
		})
	}

	printInfo("Watching %s (Ctrl-C to stop)", input)
	render()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			c.Logger.Debug("input changed", "op", ev.Op.String())
			debounce = time.After(watchDebounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.Logger.Warn("watch error", "err", err)
		case <-debounce:
			debounce = nil
			render()
		}
	}
}

// =============================================================================
// Artifact Output
// =============================================================================

type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes one file per format and returns the paths written.
// A single format goes to output verbatim when given; otherwise files are
// named <base>.<format>.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	base := basePath(p.output, p.input)
	paths := make([]string, 0, len(p.formats))
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := base + "." + format
		if len(p.formats) == 1 && p.output != "" {
			path = p.output
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return paths, fmt.Errorf("create output directory: %w", err)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// basePath derives the base output path from the output and input paths.
// Known format extensions are stripped from output; without output the
// input's extension is stripped. Stdin and MongoDB inputs default to the
// application name.
func basePath(output, input string) string {
	if output != "" {
		ext := filepath.Ext(output)
		if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
			return strings.TrimSuffix(output, ext)
		}
		return output
	}
	if input == "" || input == "-" || source.IsMongoURI(input) {
		return appName
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return strings.TrimSuffix(base, ".layout")
}

// displaySource shortens MongoDB URIs so credentials never reach the terminal.
func displaySource(input string) string {
	if source.IsMongoURI(input) {
		return "MongoDB collection"
	}
	if input == "-" {
		return "stdin"
	}
	return input
}

// setCLIDefaults applies pipeline defaults so flag help shows real values.
func setCLIDefaults(opts *pipeline.Options) {
	opts.SetLayoutDefaults()
	opts.SetRenderDefaults()
	opts.Logger = nil
	opts.Formats = nil
}

// renderQueue runs watch renders one at a time. A new render starts only
// once the one before it has exited, so a cancelled render never writes
// after its replacement. run must be called from a single goroutine.
type renderQueue struct {
	wg   sync.WaitGroup
	prev chan struct{}
}

// run starts fn with ctx once the previous render has returned.
func (q *renderQueue) run(ctx context.Context, fn func(context.Context)) {
	done := make(chan struct{})
	prev := q.prev
	q.prev = done
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		defer close(done)
		if prev != nil {
			<-prev
		}
		fn(ctx)
	}()
}

// wait blocks until every started render has returned.
func (q *renderQueue) wait() {
	q.wg.Wait()
}
