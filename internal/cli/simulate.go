package cli

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/bubblechart/pkg/force"
	"github.com/matzehuels/bubblechart/pkg/intent"
	"github.com/matzehuels/bubblechart/pkg/pipeline"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
	"github.com/matzehuels/bubblechart/pkg/surface"
)

// simulateOpts holds the flags of the simulate command.
type simulateOpts struct {
	output   string
	formats  string
	interval time.Duration
	noTUI    bool
	noCache  bool
}

// simulateCommand runs the force policy live, showing its progress.
func (c *CLI) simulateCommand() *cobra.Command {
	so := simulateOpts{interval: force.DefaultInterval}
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "simulate [intents.json | intents.yaml | - | mongodb://...]",
		Short: "Run the force layout live",
		Long: `Run the force layout live.

The simulate command steps the clustered force simulation on its own
goroutine and shows tick, alpha and kinetic energy as it cools. Press q to
cancel. Once the simulation converges the settled layout is rendered like
'render --policy force' would.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd.Flags(), &opts, &so.formats)
			input, err := c.inputArg(args)
			if err != nil {
				return err
			}
			opts.Source = input
			opts.Policy = string(layout.PolicyForce)
			opts.VizType = pipeline.VizTypeBubble
			opts.Formats = parseFormats(so.formats)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runSimulate(cmd.Context(), opts, so)
		},
	}

	cmd.Flags().StringVarP(&so.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().DurationVar(&so.interval, "interval", so.interval, "delay between ticks")
	cmd.Flags().BoolVar(&so.noTUI, "no-tui", false, "log progress instead of the interactive view")
	cmd.Flags().BoolVar(&so.noCache, "no-cache", false, "disable caching")
	cmd.Flags().Float64Var(&opts.Width, "width", opts.Width, "canvas width")
	cmd.Flags().Float64Var(&opts.Height, "height", opts.Height, "canvas height")
	cmd.Flags().Float64Var(&opts.Padding, "padding", opts.Padding, "collision padding (0 = from aspect ratio)")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", opts.Seed, "random seed")
	renderFlags(cmd.Flags(), &opts, &so.formats)
	sourceFlags(cmd.Flags(), &opts)

	return cmd
}

// runSimulate loads intents, attaches a scheduler to a fresh surface and
// follows it until it converges or is cancelled.
func (c *CLI) runSimulate(ctx context.Context, opts pipeline.Options, so simulateOpts) error {
	runner, err := c.newRunner(ctx, so.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	if err := opts.ValidateForRender(); err != nil {
		return err
	}
	intents, _, err := runner.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return fmt.Errorf("load %s: %w", displaySource(opts.Source), err)
	}
	nodes := len(intent.Filter(intents))
	if nodes == 0 {
		printWarning("No intents with a positive value")
		return nil
	}

	surfaces := surface.NewManager(c.Logger)
	defer surfaces.Close()
	sf, err := surfaces.Acquire(basePath(so.output, opts.Source), opts.Width, opts.Height)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, sf.Release)
	defer stop()

	model := layout.NewForceModel(intents, opts.Width, opts.Height, opts.LayoutOptions())
	sched := force.NewScheduler(model.Sim, force.WithInterval(so.interval))
	frames := sf.Attach(sched)

	cancelled, err := c.follow(frames, nodes, model.Sim.AlphaMin, sf.Release, so.noTUI)
	if err != nil {
		sf.Release()
		return err
	}
	<-sched.Done()

	if err := ctx.Err(); err != nil {
		return err
	}
	if cancelled || sched.Err() != nil {
		printWarning("Simulation cancelled after %d ticks", model.Sim.Ticks())
		return nil
	}

	if !model.Settle() {
		c.Logger.Warn("relaxation left overlaps, spread layout", "nodes", len(model.Sim.Nodes()))
	}
	l := pipeline.Layout{VizType: pipeline.VizTypeBubble, Bubble: model.Layout()}
	l.Bubble.Style = opts.Style
	artifacts, err := runner.Render(ctx, l, opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}
	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: artifacts,
		formats:   opts.Formats,
		input:     opts.Source,
		output:    so.output,
	})
	if err != nil {
		return err
	}

	printSuccess("Simulation converged in %d ticks", l.Bubble.Ticks)
	for _, p := range paths {
		printFile(p)
	}
	printStats(pipeline.Stats{
		IntentCount: len(intents),
		BubbleCount: l.Size(),
		DomainCount: l.DomainCount(),
	}, false)
	printLegend(l.Bubble)
	return nil
}

// follow consumes frames until the channel closes. It reports whether the
// user cancelled from the interactive view.
func (c *CLI) follow(frames <-chan force.Frame, nodes int, alphaMin float64, cancel func(), noTUI bool) (bool, error) {
	if noTUI {
		prog := newProgress(c.Logger)
		var last force.Frame
		for f := range frames {
			last = f
			if f.Tick%50 == 0 {
				c.Logger.Debug("tick", "n", f.Tick, "alpha", f.Alpha, "energy", f.Energy)
			}
		}
		prog.done(fmt.Sprintf("Simulated %d ticks", last.Tick))
		return false, nil
	}

	final, err := tea.NewProgram(NewSimulationModel(frames, nodes, alphaMin, cancel)).Run()
	if err != nil {
		return false, fmt.Errorf("simulation view: %w", err)
	}
	m := final.(SimulationModel)
	if m.Cancelled {
		// Drain so the scheduler can exit.
		for range frames {
		}
	}
	return m.Cancelled, nil
}
