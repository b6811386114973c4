// Package cli implements the blockfmt command-line interface.
//
// The commands wrap the pipeline runner: they read a .blk fixture, resolve
// indentation settings from the config file and flags, and print results
// with lipgloss styling. The CLI is built using cobra and logs with
// charmbracelet/log.
//
// # Commands
//
//   - format: Lay out the whitespace of a fixture and print or write the result
//   - indent: Report the indentation a new line at an offset would receive
//   - dump: Print the wrapper tree as text, JSON, DOT or SVG
//   - explore: Browse indent queries interactively
//   - serve: Run the HTTP API
//   - cache: Manage the result cache
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Runs log
// under the first eight characters of their run ID, and with --verbose the
// parse, layout and apply stages are logged with their durations. While a
// result is written to a file, a status line on stderr names the current
// stage.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blockfmt/pkg/pipeline"
)

// newLogger creates a logger writing to w at level, with timestamps
// formatted as "15:04:05.00".
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// shortRunID trims a run ID to the prefix the runner logs with.
func shortRunID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// progress times one format run, as seen from the command line, so watch
// mode can report each rerun.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs the outcome of the run. Cached results carry no stage timings.
func (p *progress) done(res *pipeline.Result) {
	kv := []any{
		"file", res.Name,
		"run", shortRunID(res.RunID),
		"edits", len(res.Edits),
		"elapsed", time.Since(p.start).Round(time.Millisecond),
	}
	if res.CacheHit {
		kv = append(kv, "cached", true)
	} else {
		kv = append(kv,
			"parse", res.Stats.ParseTime.Round(time.Microsecond),
			"layout", res.Stats.LayoutTime.Round(time.Microsecond),
			"apply", res.Stats.ApplyTime.Round(time.Microsecond))
	}
	p.logger.Info("reformatted", kv...)
}

// logStages logs the stages a spinner saw at debug level, one line each.
func logStages(l *log.Logger, file string, stages []stageTiming) {
	for _, st := range stages {
		if st.Err != nil {
			l.Debug("stage failed", "file", file, "stage", st.Stage, "duration", st.Duration, "err", st.Err)
			continue
		}
		l.Debug("stage done", "file", file, "stage", st.Stage, "duration", st.Duration)
	}
}

type ctxKey int

const loggerKey ctxKey = 0

// withLogger attaches l to ctx for helpers that only receive a context,
// such as the file watcher.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext returns the logger attached by withLogger, or
// log.Default().
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
