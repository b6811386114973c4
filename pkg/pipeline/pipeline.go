// Package pipeline runs the formatting stages shared by the CLI and the
// HTTP server.
//
// # Architecture
//
// A run consists of three stages:
//
//  1. Parse: build the block tree from a fixture and wrap it ([Parse])
//  2. Layout: solve the whitespace of every token ([Layout])
//  3. Apply: write the changed whitespace into a document ([Apply])
//
// The incremental indent query and the tree dump reuse the first stage and
// skip the edits.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Format(ctx, pipeline.Options{
//	    Name:    "call.blk",
//	    Fixture: src,
//	})
//	if err != nil {
//	    return err
//	}
//	fmt.Print(result.Formatted)
//
// Results are cached under a hash of the fixture text and every option that
// can change them.
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/cache"
	"github.com/matzehuels/blockfmt/pkg/config"
	"github.com/matzehuels/blockfmt/pkg/edit"
	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/solver"
)

// =============================================================================
// Dump Formats
// =============================================================================

// Dump formats.
const (
	FormatJSON = "json"
	FormatText = "text"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
)

// ValidFormats is the set of supported dump formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatText: true,
	FormatDOT:  true,
	FormatSVG:  true,
}

// ValidateFormat checks that a dump format is supported.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid format: %q (must be one of: json, text, dot, svg)", format)
	}
	return nil
}

// =============================================================================
// Options
// =============================================================================

// Options configures a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Name identifies the fixture in errors and logs, usually its path.
	Name string `json:"name,omitempty"`

	// Fixture is the fixture text.
	Fixture string `json:"fixture"`

	// Settings are the indentation settings. Zero fields take defaults.
	Settings config.Settings `json:"settings"`

	// Affected restricts which whitespace may change. Nil formats the
	// whole text.
	Affected *block.TextRange `json:"affected,omitempty"`

	// Refresh bypasses cached results.
	Refresh bool `json:"refresh,omitempty"`

	// Logger receives stage logs. Not serialized.
	Logger *log.Logger `json:"-"`

	validated bool
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Fixture == "" {
		return errors.New(errors.ErrCodeInvalidInput, "fixture is required")
	}
	if o.Name == "" {
		o.Name = "<input>"
	}
	o.Settings.SetDefaults()
	if err := o.Settings.Validate(); err != nil {
		return err
	}
	if o.Affected != nil && o.Affected.End < o.Affected.Start {
		return errors.New(errors.ErrCodeInvalidRange, "affected range %s ends before it starts", *o.Affected)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// FormatKeyOpts returns cache key options for a format run.
func (o *Options) FormatKeyOpts() cache.FormatKeyOpts {
	return cache.FormatKeyOpts{Settings: o.Settings, Affected: o.Affected}
}

// =============================================================================
// Results
// =============================================================================

// Result is the outcome of a format run.
type Result struct {
	RunID     string       `json:"run_id"`
	Name      string       `json:"name"`
	Source    string       `json:"source"`
	Formatted string       `json:"formatted"`
	Edits     []edit.Edit  `json:"edits"`
	Stats     Stats        `json:"stats"`
	Solver    solver.Stats `json:"solver"`
	CacheHit  bool         `json:"cache_hit"`
}

// Stats contains stage timings.
type Stats struct {
	ParseTime  time.Duration `json:"parse_ns"`
	LayoutTime time.Duration `json:"layout_ns"`
	ApplyTime  time.Duration `json:"apply_ns"`
}

// Changed reports whether the run edited the text.
func (r *Result) Changed() bool { return len(r.Edits) > 0 }

// IndentResult is the outcome of an indent query.
type IndentResult struct {
	RunID    string            `json:"run_id"`
	Offset   int               `json:"offset"`
	Indent   solver.IndentInfo `json:"indent"`
	Column   int               `json:"column"`
	Text     string            `json:"text"`
	CacheHit bool              `json:"cache_hit"`
}

// DumpOptions selects the dump rendering.
type DumpOptions struct {
	Format   string `json:"format"`
	Solved   bool   `json:"solved,omitempty"`
	Detailed bool   `json:"detailed,omitempty"`
}

// SetDefaults fills unset fields.
func (d *DumpOptions) SetDefaults() {
	if d.Format == "" {
		d.Format = FormatText
	}
}
