package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockfmt/pkg/pipeline"
)

// dumpCommand creates the dump command for inspecting wrapper trees.
func (c *CLI) dumpCommand() *cobra.Command {
	var (
		settings settingsFlags
		dopts    pipeline.DumpOptions
		affected string
		output   string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "dump [file.blk|-]",
		Short: "Print the wrapper tree of a fixture",
		Long: `Print the wrapper tree of a fixture with every block's indent,
alignment and wrap, and the whitespace and spacing constraint before every
token.

With --solved the layout is solved first, so the whitespace shows the
formatted result. SVG output is rendered with Graphviz.

Examples:
  blockfmt dump call.blk
  blockfmt dump call.blk --solved -f json
  blockfmt dump call.blk -f svg --detailed -o call.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := pipeline.ValidateFormat(dopts.Format); err != nil {
				return err
			}
			s, err := settings.resolve(cmd)
			if err != nil {
				return err
			}
			rng, err := parseRange(affected)
			if err != nil {
				return err
			}
			src, err := readFixture(args[0])
			if err != nil {
				return err
			}

			runner, err := c.newRunner(noCache)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			var data []byte
			dump := func() (err error) {
				data, err = runner.Dump(cmd.Context(), pipeline.Options{
					Name:     args[0],
					Fixture:  src,
					Settings: s,
					Affected: rng,
					Logger:   c.Logger,
				}, dopts)
				return err
			}
			if dopts.Format == pipeline.FormatSVG {
				var stages []stageTiming
				stages, err = withStageSpinner(cmd.Context(), cmd.ErrOrStderr(), "Rendering SVG...", dump)
				logStages(c.Logger, args[0], stages)
			} else {
				err = dump()
			}
			if err != nil {
				return err
			}

			if err := writeOutput(cmd.OutOrStdout(), output, data); err != nil {
				return err
			}
			if output != "" {
				printSuccess("Dumped %s", args[0])
				printFile(output)
			}
			return nil
		},
	}

	settings.register(cmd)
	cmd.Flags().StringVarP(&dopts.Format, "format", "f", pipeline.FormatText, "output format: text, json, dot, svg")
	cmd.Flags().BoolVar(&dopts.Solved, "solved", false, "solve the layout before dumping")
	cmd.Flags().BoolVar(&dopts.Detailed, "detailed", false, "include constraints in DOT and SVG labels")
	cmd.Flags().StringVar(&affected, "range", "", "only solve whitespace touching start:end")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
