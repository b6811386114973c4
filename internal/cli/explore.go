package cli

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/fixture"
	"github.com/matzehuels/blockfmt/pkg/pipeline"
)

// Explorer styles
var (
	exploreCaretStyle  = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	exploreSourceStyle = lipgloss.NewStyle().Foreground(colorWhite)
	exploreIndentStyle = lipgloss.NewStyle().Foreground(colorDim)
	explorePanelStyle  = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(colorDim).
				Padding(0, 1)
)

// exploreCommand creates the explore command.
func (c *CLI) exploreCommand() *cobra.Command {
	var settings settingsFlags

	cmd := &cobra.Command{
		Use:   "explore [file.blk]",
		Short: "Browse indent queries interactively",
		Long: `Move a caret through the fixture source and see where a new line
inserted at the caret would be indented.

Keys: ←/→ move by character, ↑/↓ move by line, home/end jump to the line
ends, q quits.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.resolve(cmd)
			if err != nil {
				return err
			}
			src, err := readFixture(args[0])
			if err != nil {
				return err
			}
			fx, err := fixture.ParseString(args[0], src)
			if err != nil {
				return err
			}

			runner, err := c.newRunner(true)
			if err != nil {
				return fmt.Errorf("initialize runner: %w", err)
			}
			defer runner.Close()

			m := NewExploreModel(cmd.Context(), runner, pipeline.Options{
				Name:     args[0],
				Fixture:  src,
				Settings: s,
				Logger:   c.Logger,
			}, fx.Source)
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			if ctxErr := cmd.Context().Err(); ctxErr != nil {
				return ctxErr
			}
			return err
		},
	}

	settings.register(cmd)
	return cmd
}

// =============================================================================
// ExploreModel - Interactive indent explorer
// =============================================================================

// indentMsg carries the answer of an indent query.
type indentMsg struct {
	offset int
	res    *pipeline.IndentResult
	err    error
}

// ExploreModel is the bubbletea model for the indent explorer.
type ExploreModel struct {
	ctx    context.Context
	runner *pipeline.Runner
	opts   pipeline.Options
	source string

	Offset int
	Result *pipeline.IndentResult
	Err    error
}

// NewExploreModel creates an explorer over source with the caret at the
// start of the text.
func NewExploreModel(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options, source string) ExploreModel {
	return ExploreModel{ctx: ctx, runner: runner, opts: opts, source: source}
}

func (m ExploreModel) Init() tea.Cmd {
	return m.query()
}

// query runs the indent query for the current offset.
func (m ExploreModel) query() tea.Cmd {
	offset := m.Offset
	return func() tea.Msg {
		res, err := m.runner.IndentAt(m.ctx, m.opts, offset)
		return indentMsg{offset: offset, res: res, err: err}
	}
}

func (m ExploreModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case indentMsg:
		if msg.offset == m.Offset {
			m.Result, m.Err = msg.res, msg.err
		}
		return m, nil
	case tea.KeyMsg:
		prev := m.Offset
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.Offset > 0 {
				_, size := utf8.DecodeLastRuneInString(m.source[:m.Offset])
				m.Offset -= size
			}
		case "right", "l":
			if m.Offset < len(m.source) {
				_, size := utf8.DecodeRuneInString(m.source[m.Offset:])
				m.Offset += size
			}
		case "up", "k":
			m.Offset = m.lineMove(-1)
		case "down", "j":
			m.Offset = m.lineMove(1)
		case "home", "0":
			m.Offset = lineStart(m.source, m.Offset)
		case "end", "$":
			m.Offset = lineEnd(m.source, m.Offset)
		}
		if m.Offset != prev {
			return m, m.query()
		}
	}
	return m, nil
}

// lineMove returns the offset at the same column on the line dir lines
// away, clamped to that line's length.
func (m ExploreModel) lineMove(dir int) int {
	start := lineStart(m.source, m.Offset)
	col := m.Offset - start
	var target int
	if dir < 0 {
		if start == 0 {
			return m.Offset
		}
		target = lineStart(m.source, start-1)
	} else {
		end := lineEnd(m.source, m.Offset)
		if end == len(m.source) {
			return m.Offset
		}
		target = end + 1
	}
	if end := lineEnd(m.source, target); target+col > end {
		return end
	}
	return target + col
}

func lineStart(s string, offset int) int {
	return strings.LastIndexByte(s[:offset], '\n') + 1
}

func lineEnd(s string, offset int) int {
	if i := strings.IndexByte(s[offset:], '\n'); i >= 0 {
		return offset + i
	}
	return len(s)
}

func (m ExploreModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Indent Explorer"))
	b.WriteString("  ")
	b.WriteString(StyleDim.Render(m.opts.Name))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("←/→ move  ↑/↓ line  q quit"))
	b.WriteString("\n\n")

	// Source with the caret, followed by a preview of the new line.
	preview := exploreSourceStyle.Render(m.source[:m.Offset]) +
		exploreCaretStyle.Render("│") +
		exploreSourceStyle.Render(m.source[m.Offset:])
	b.WriteString(explorePanelStyle.Render(preview))
	b.WriteString("\n\n")

	switch {
	case m.Err != nil:
		b.WriteString(StyleWarning.Render(errors.UserMessage(m.Err)))
	case m.Result == nil:
		b.WriteString(StyleDim.Render("measuring..."))
	default:
		r := m.Result
		line := m.source[lineStart(m.source, m.Offset):m.Offset]
		newLine := exploreIndentStyle.Render(showWhiteSpace(r.Text)) + exploreCaretStyle.Render("│")
		if r.Text == "" {
			newLine = exploreCaretStyle.Render("│")
		}
		b.WriteString(explorePanelStyle.Render(exploreSourceStyle.Render(line) + "\n" + newLine))
		b.WriteString("\n")

		align := "none"
		if r.Indent.AlignmentOffset >= 0 {
			align = fmt.Sprintf("column %d", r.Indent.AlignmentOffset)
		}
		b.WriteString(fmt.Sprintf("%s %s  %s %s  %s %s  %s %s",
			StyleDim.Render("offset"), StyleNumber.Render(fmt.Sprint(m.Offset)),
			StyleDim.Render("column"), StyleNumber.Render(fmt.Sprint(r.Column)),
			StyleDim.Render("base"), StyleValue.Render(fmt.Sprint(r.Indent.BaseIndent)),
			StyleDim.Render("align"), StyleValue.Render(align)))
	}
	b.WriteString("\n")
	return b.String()
}
