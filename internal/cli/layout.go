package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/bubblechart/pkg/pipeline"
)

// layoutCommand creates the layout command for computing bubble layouts.
func (c *CLI) layoutCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}
	setCLIDefaults(&opts)

	cmd := &cobra.Command{
		Use:   "layout [intents.json | intents.yaml | - | mongodb://...]",
		Short: "Compute a bubble layout from intents",
		Long: `Compute a bubble layout from intents.

The layout command loads intents and computes bubble positions and radii with
the selected policy. The output is a layout.json file (same format as
'render -f json') that can be rendered to SVG/PNG/PDF using the 'visualize'
command.

Supports both bubble (-t bubble) and nodelink (-t nodelink) visualization
types. Results are cached for faster subsequent runs.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c.applyConfig(cmd.Flags(), &opts, nil)
			input, err := c.inputArg(args)
			if err != nil {
				return err
			}
			opts.Source = input
			return c.runLayout(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <input>.layout.json)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&opts.Style, "style", opts.Style, "visual style recorded in the layout: simple (default), handdrawn")
	layoutFlags(cmd.Flags(), &opts)
	sourceFlags(cmd.Flags(), &opts)

	return cmd
}

// runLayout loads the intents, computes the layout, and writes output.
func (c *CLI) runLayout(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	intents, _, err := runner.LoadWithCacheInfo(ctx, opts)
	if err != nil {
		return fmt.Errorf("load %s: %w", displaySource(opts.Source), err)
	}

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Computing %s layout...", opts.Policy))
	spinner.Start()

	l, cacheHit, err := runner.GenerateLayoutWithCacheInfo(ctx, intents, opts)
	if err != nil {
		spinner.StopWithError("Layout failed")
		return fmt.Errorf("compute layout: %w", err)
	}
	spinner.Stop()

	if ctx.Err() != nil {
		return ctx.Err()
	}

	data, err := pipeline.MarshalLayout(l)
	if err != nil {
		return err
	}
	outputPath := output
	if outputPath == "" {
		outputPath = basePath("", opts.Source) + ".layout.json"
	}
	if err := os.WriteFile(outputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output %s: %w", outputPath, err)
	}

	printSuccess("Layout complete")
	printFile(outputPath)
	printStats(pipeline.Stats{
		IntentCount: len(intents),
		BubbleCount: l.Size(),
		DomainCount: l.DomainCount(),
	}, cacheHit)
	printNewline()
	printNextStep("Render", appName+" visualize "+outputPath)

	return nil
}
