package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/pipeline"
)

// indentCommand creates the indent command.
func (c *CLI) indentCommand() *cobra.Command {
	var (
		settings settingsFlags
		asJSON   bool
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "indent [file.blk|-] [offset]",
		Short: "Report the indentation of a new line at an offset",
		Long: `Report the indentation a line break inserted at offset would receive.

The existing layout is measured, never changed: only the tokens before the
offset are solved. The result is the base indent, any extra spaces and the
alignment column that applies.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.New(errors.ErrCodeInvalidInput, "offset %q is not a number", args[1])
			}
			s, err := settings.resolve(cmd)
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

			res, err := runner.IndentAt(cmd.Context(), pipeline.Options{
				Name:     args[0],
				Fixture:  src,
				Settings: s,
				Logger:   c.Logger,
			}, offset)
			if err != nil {
				return err
			}

			if asJSON {
				data, err := json.MarshalIndent(res, "", "  ")
				if err != nil {
					return errors.Wrap(errors.ErrCodeInternal, err, "encode result")
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			printIndent(res)
			return nil
		},
	}

	settings.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// printIndent prints an indent query result as key/value lines.
func printIndent(res *pipeline.IndentResult) {
	printKeyValue("Offset", StyleNumber.Render(strconv.Itoa(res.Offset)))
	printKeyValue("Column", StyleNumber.Render(strconv.Itoa(res.Column)))
	printKeyValue("Base", strconv.Itoa(res.Indent.BaseIndent))
	printKeyValue("Additional", strconv.Itoa(res.Indent.AdditionalIndent))
	align := "none"
	if res.Indent.AlignmentOffset >= 0 {
		align = strconv.Itoa(res.Indent.AlignmentOffset)
	}
	printKeyValue("Alignment", align)
	printKeyValue("Text", fmt.Sprintf("%q", res.Text))
}
