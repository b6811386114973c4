package cli

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/buildinfo"
	"github.com/matzehuels/blockfmt/pkg/cache"
	"github.com/matzehuels/blockfmt/pkg/config"
	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "blockfmt"
)

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
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "blockfmt",
		Short: "blockfmt lays out whitespace over a block tree",
		Long: `blockfmt computes the whitespace between the tokens of a block tree:
spaces, line breaks, indentation, alignment and line wrapping. Block trees
are described in .blk fixture files that pair a source text with its blocks.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.formatCommand())
	root.AddCommand(c.indentCommand())
	root.AddCommand(c.dumpCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/blockfmt/).
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
// Settings Flags
// =============================================================================

// settingsFlags are the indentation flags shared by every command that
// runs the solver. Flags override values from the config file.
type settingsFlags struct {
	configPath   string
	indentSize   int
	continuation int
	tabSize      int
	useTabs      bool
	rightMargin  int
	maxPasses    int
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	d := config.Default()
	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "config file (TOML or YAML, default $XDG_CONFIG_HOME/blockfmt/config.toml)")
	fs.IntVar(&f.indentSize, "indent-size", d.Indent.IndentSize, "columns per indent level")
	fs.IntVar(&f.continuation, "continuation-indent", d.Indent.ContinuationIndentSize, "columns per continuation indent")
	fs.IntVar(&f.tabSize, "tab-size", d.Indent.TabSize, "width of a tab stop")
	fs.BoolVar(&f.useTabs, "use-tabs", d.Indent.UseTabs, "indent with tabs")
	fs.IntVar(&f.rightMargin, "right-margin", d.Indent.RightMargin, "column past which as-needed wraps break")
	fs.IntVar(&f.maxPasses, "max-passes", d.MaxPasses, "maximum solver passes before giving up")
}

// resolve loads the config file and applies every flag the user set.
func (f *settingsFlags) resolve(cmd *cobra.Command) (config.Settings, error) {
	var (
		s   config.Settings
		err error
	)
	if f.configPath != "" {
		s, err = config.Load(f.configPath)
	} else {
		path, perr := config.DefaultPath()
		if perr != nil {
			path = ""
		}
		s, err = config.LoadOrDefault(path)
	}
	if err != nil {
		return config.Settings{}, err
	}

	fs := cmd.Flags()
	if fs.Changed("indent-size") {
		s.Indent.IndentSize = f.indentSize
	}
	if fs.Changed("continuation-indent") {
		s.Indent.ContinuationIndentSize = f.continuation
	}
	if fs.Changed("tab-size") {
		s.Indent.TabSize = f.tabSize
	}
	if fs.Changed("use-tabs") {
		s.Indent.UseTabs = f.useTabs
	}
	if fs.Changed("right-margin") {
		s.Indent.RightMargin = f.rightMargin
	}
	if fs.Changed("max-passes") {
		s.MaxPasses = f.maxPasses
	}
	return s, s.Validate()
}

// =============================================================================
// Input Helpers
// =============================================================================

// readFixture reads a fixture file, or stdin when path is "-".
func readFixture(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return string(data), nil
	}
	if err := errors.ValidatePath(path); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return string(data), nil
}

// parseRange parses a "start:end" text range. The empty string means no
// range.
func parseRange(s string) (*block.TextRange, error) {
	if s == "" {
		return nil, nil
	}
	lo, hi, ok := strings.Cut(s, ":")
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidRange, "range %q: want start:end", s)
	}
	start, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidRange, "range %q: bad start", s)
	}
	end, err := strconv.Atoi(strings.TrimSpace(hi))
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidRange, "range %q: bad end", s)
	}
	if start < 0 || end < start {
		return nil, errors.New(errors.ErrCodeInvalidRange, "range %q ends before it starts", s)
	}
	return &block.TextRange{Start: start, End: end}, nil
}
