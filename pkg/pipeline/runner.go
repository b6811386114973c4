package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/blockfmt/pkg/cache"
	"github.com/matzehuels/blockfmt/pkg/edit"
	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/observability"
	"github.com/matzehuels/blockfmt/pkg/solver"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and server use it so caching and logging behave the same.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Format runs parse, layout and apply over the fixture and returns the
// formatted source. A MODEL_MUTATION error comes with the partial result.
func (r *Runner) Format(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	logger := r.Logger.With("run", runID[:8])
	key := r.Keyer.FormatKey(cache.FixtureHash(opts.Fixture), opts.FormatKeyOpts())

	var cached Result
	if r.lookup(ctx, "format", key, opts.Refresh, &cached) {
		cached.RunID, cached.CacheHit = runID, true
		logger.Debug("format cache hit", "name", opts.Name)
		return &cached, nil
	}

	result, err := r.format(ctx, opts, logger, runID, nil)
	if err != nil {
		return result, err
	}
	r.store(ctx, "format", key, result, cache.FormatTTL)
	return result, nil
}

// FormatModel formats the fixture like [Runner.Format] but writes the edits
// into model, which must hold the fixture's source text. Results are not
// cached. When the model rejects an edit the error has code MODEL_MUTATION
// and the returned result holds the edits applied before the failure.
func (r *Runner) FormatModel(ctx context.Context, opts Options, model edit.Model) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	return r.format(ctx, opts, r.Logger.With("run", runID[:8]), runID, model)
}

// format runs the stages. A nil model formats into a fresh document.
func (r *Runner) format(ctx context.Context, opts Options, logger *log.Logger, runID string, model edit.Model) (*Result, error) {
	result := &Result{RunID: runID, Name: opts.Name}

	start := time.Now()
	fx, tree, err := Parse(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Source = fx.Source
	result.Stats.ParseTime = time.Since(start)
	logger.Debug("parsed fixture",
		"name", opts.Name,
		"leaves", tree.NumLeaves(),
		"duration", result.Stats.ParseTime)

	if model == nil {
		model = edit.NewDocument(fx.Source)
	} else if model.Text() != fx.Source {
		return nil, errors.New(errors.ErrCodeInvalidInput, "model text does not match the source of %s", opts.Name)
	}

	start = time.Now()
	stats, err := Layout(ctx, tree, opts)
	if err != nil {
		return nil, err
	}
	result.Solver = stats
	result.Stats.LayoutTime = time.Since(start)
	logger.Debug("solved layout",
		"passes", stats.Passes,
		"steps", stats.Steps,
		"jumps", stats.Jumps,
		"duration", result.Stats.LayoutTime)

	start = time.Now()
	edits, err := Apply(ctx, tree, model, opts)
	result.Edits = edits
	result.Formatted = model.Text()
	result.Stats.ApplyTime = time.Since(start)
	if err != nil {
		if errors.Is(err, errors.ErrCodeModelMutation) {
			logger.Warn("model rejected an edit", "name", opts.Name, "applied", len(edits), "err", err)
			return result, err
		}
		return nil, err
	}

	logger.Info("formatted",
		"name", opts.Name,
		"leaves", tree.NumLeaves(),
		"passes", stats.Passes,
		"edits", len(edits),
		"duration", result.Stats.ParseTime+result.Stats.LayoutTime+result.Stats.ApplyTime)
	return result, nil
}

// IndentAt answers where a new line inserted at offset would be indented.
// The fixture text is never edited.
func (r *Runner) IndentAt(ctx context.Context, opts Options, offset int) (*IndentResult, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	key := r.Keyer.IndentKey(cache.FixtureHash(opts.Fixture), cache.IndentKeyOpts{
		Settings: opts.Settings,
		Offset:   offset,
	})

	var cached IndentResult
	if r.lookup(ctx, "indent", key, opts.Refresh, &cached) {
		cached.RunID, cached.CacheHit = runID, true
		return &cached, nil
	}

	_, tree, err := Parse(ctx, opts)
	if err != nil {
		return nil, err
	}
	p := solver.New(tree, opts.Settings)
	p.SetAllWhiteSpacesReadOnly()
	info, err := p.IndentAt(ctx, offset)
	if err != nil {
		return nil, err
	}

	result := &IndentResult{
		RunID:  runID,
		Offset: offset,
		Indent: info,
		Column: info.Column(),
		Text:   info.Text(opts.Settings.Indent),
	}
	r.Logger.Debug("indent query",
		"run", runID[:8],
		"offset", offset,
		"column", result.Column,
		"steps", p.Stats().Steps)

	r.store(ctx, "indent", key, result, cache.IndentTTL)
	return result, nil
}

// Dump renders the wrapper tree of the fixture, optionally after solving.
func (r *Runner) Dump(ctx context.Context, opts Options, dopts DumpOptions) ([]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	dopts.SetDefaults()
	if err := ValidateFormat(dopts.Format); err != nil {
		return nil, err
	}

	key := r.Keyer.DumpKey(cache.FixtureHash(opts.Fixture), cache.DumpKeyOpts{
		Format:   dopts.Format,
		Solved:   dopts.Solved,
		Detailed: dopts.Detailed,
		Settings: opts.Settings,
		Affected: opts.Affected,
	})
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "dump")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "dump")
	}

	_, tree, err := Parse(ctx, opts)
	if err != nil {
		return nil, err
	}
	if dopts.Solved {
		if _, err := Layout(ctx, tree, opts); err != nil {
			return nil, err
		}
	}
	data, err := Render(ctx, tree, opts, dopts)
	if err != nil {
		return nil, err
	}

	if err := r.Cache.Set(ctx, key, data, cache.DumpTTL); err != nil {
		r.Logger.Warn("cache write failed", "key", "dump", "err", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "dump", len(data))
	}
	return data, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// lookup decodes a cached JSON result into v. Read and decode failures
// count as misses.
func (r *Runner) lookup(ctx context.Context, keyType, key string, refresh bool, v any) bool {
	if refresh {
		return false
	}
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", keyType, "err", err)
	}
	if err != nil || !hit || json.Unmarshal(data, v) != nil {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return true
}

// store caches v as JSON. Failures are logged and otherwise ignored.
func (r *Runner) store(ctx context.Context, keyType, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ttl); err != nil {
		r.Logger.Warn("cache write failed", "key", keyType, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
}
