package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/pipeline"
)

// formatOpts holds the command-line flags for the format command.
type formatOpts struct {
	settings settingsFlags
	affected string // "start:end" range whose whitespace may change
	output   string // output file path (stdout if empty)
	asJSON   bool   // print the full result as JSON
	edits    bool   // print the edit table
	noCache  bool
	refresh  bool
	watch    bool
}

// formatCommand creates the format command.
func (c *CLI) formatCommand() *cobra.Command {
	var opts formatOpts

	cmd := &cobra.Command{
		Use:   "format [file.blk|-]",
		Short: "Lay out the whitespace of a fixture",
		Long: `Lay out the whitespace of a fixture and print the formatted source.

The fixture's block tree decides spacing, line breaks, indentation,
alignment and wrapping. With --range only whitespace touching the range
may change. With --watch the fixture is reformatted whenever it is saved.

Examples:
  blockfmt format call.blk
  blockfmt format call.blk --right-margin 40 --edits
  blockfmt format call.blk --range 10:42 -o call.txt
  blockfmt format call.blk --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFormat(cmd, args[0], opts)
		},
	}

	opts.settings.register(cmd)
	cmd.Flags().StringVar(&opts.affected, "range", "", "only change whitespace touching start:end")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().BoolVar(&opts.edits, "edits", false, "print a table of the whitespace edits")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "bypass cached results")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "reformat whenever the file changes")

	return cmd
}

func (c *CLI) runFormat(cmd *cobra.Command, path string, opts formatOpts) error {
	ctx := cmd.Context()
	settings, err := opts.settings.resolve(cmd)
	if err != nil {
		return err
	}
	affected, err := parseRange(opts.affected)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	once := func() error {
		prog := newProgress(c.Logger)
		var res *pipeline.Result
		run := func() (err error) {
			res, err = formatFile(ctx, runner, path, pipeline.Options{
				Settings: settings,
				Affected: affected,
				Refresh:  opts.refresh,
				Logger:   c.Logger,
			})
			return err
		}

		// Output to a file leaves the terminal free for a status line.
		var err error
		if opts.output != "" {
			var stages []stageTiming
			stages, err = withStageSpinner(ctx, cmd.ErrOrStderr(), "Formatting "+path+"...", run)
			logStages(c.Logger, path, stages)
		} else {
			err = run()
		}
		if err != nil {
			return err
		}
		if opts.watch {
			prog.done(res)
		}
		return writeFormatResult(cmd.OutOrStdout(), res, opts)
	}

	if !opts.watch {
		return once()
	}
	if path == "-" {
		return errors.New(errors.ErrCodeInvalidInput, "--watch needs a file, not stdin")
	}

	if err := once(); err != nil {
		printError("%s", errors.UserMessage(err))
	}
	printInfo("Watching %s %s", StyleValue.Render(path), StyleDim.Render("(ctrl+c to stop)"))
	return watchFile(ctx, path, watchDebounce, func() {
		if err := once(); err != nil {
			printError("%s", errors.UserMessage(err))
		}
	})
}

// writeFormatResult prints or writes a format result according to opts.
func writeFormatResult(w io.Writer, res *pipeline.Result, opts formatOpts) error {
	if opts.asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "encode result")
		}
		return writeOutput(w, opts.output, append(data, '\n'))
	}

	if err := writeOutput(w, opts.output, []byte(res.Formatted)); err != nil {
		return err
	}
	if opts.output != "" {
		printSuccess("Formatted %s", res.Name)
		printFile(opts.output)
		printStats(res.Solver.Leaves, res.Solver.Passes, len(res.Edits), res.CacheHit)
	} else if opts.edits && !endsWithNewline(res.Formatted) {
		fmt.Fprintln(w)
	}
	if opts.edits && res.Changed() {
		fmt.Fprintln(w, editTable(res.Edits))
	}
	return nil
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "write %s", path)
	}
	return nil
}

func endsWithNewline(s string) bool {
	return len(s) > 0 && s[len(s)-1] == '\n'
}

// formatFile reads the fixture at path and formats it.
func formatFile(ctx context.Context, runner *pipeline.Runner, path string, opts pipeline.Options) (*pipeline.Result, error) {
	src, err := readFixture(path)
	if err != nil {
		return nil, err
	}
	opts.Name, opts.Fixture = path, src
	return runner.Format(ctx, opts)
}
