package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/blockfmt/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// stageTiming is one finished pipeline stage as seen by a stageSpinner.
type stageTiming struct {
	Stage    string
	Duration time.Duration
	Err      error
}

// stageSpinner animates a status line while a pipeline run is in flight.
// It receives the runner's pipeline events, so the label follows the stage
// being worked on: parse, layout, apply.
type stageSpinner struct {
	w       io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once

	mu     sync.Mutex
	label  string
	width  int
	stages []stageTiming
}

var _ observability.PipelineHooks = (*stageSpinner)(nil)

// newStageSpinner creates a spinner writing to w. It stops on its own when
// ctx is cancelled.
func newStageSpinner(ctx context.Context, w io.Writer, label string) *stageSpinner {
	sctx, cancel := context.WithCancel(ctx)
	return &stageSpinner{
		w:       w,
		ctx:     sctx,
		cancel:  cancel,
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		label:   label,
	}
}

// withStageSpinner runs fn with a spinner installed as the pipeline hooks.
// The previous hooks are restored when fn returns.
func withStageSpinner(ctx context.Context, w io.Writer, label string, fn func() error) ([]stageTiming, error) {
	s := newStageSpinner(ctx, w, label)
	prev := observability.Pipeline()
	observability.SetPipelineHooks(s)
	defer observability.SetPipelineHooks(prev)

	s.Start()
	err := fn()
	s.Stop()
	return s.Stages(), err
}

// Start begins the animation.
func (s *stageSpinner) Start() {
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clearLine()
				return
			case <-s.done:
				return
			case <-ticker.C:
				s.draw(i)
			}
		}
	}()
}

// Stop ends the animation and clears the line. It is safe to call more
// than once.
func (s *stageSpinner) Stop() {
	s.cancel()
	s.once.Do(func() { close(s.done) })
	<-s.stopped
	s.clearLine()
}

// Cancelled reports whether the spinner stopped because its context ended.
func (s *stageSpinner) Cancelled() bool {
	return s.ctx.Err() != nil
}

// Label returns the current status text.
func (s *stageSpinner) Label() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.label
}

// Stages returns the stages finished so far, in order.
func (s *stageSpinner) Stages() []stageTiming {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stageTiming(nil), s.stages...)
}

func (s *stageSpinner) draw(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	frame := spinnerFrames[i%len(spinnerFrames)]
	s.width = max(s.width, len(s.label)+2)
	fmt.Fprintf(s.w, "\r%s %s", styleIconSpinner.Render(frame), StyleDim.Render(s.label))
}

func (s *stageSpinner) clearLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width == 0 {
		return
	}
	fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	s.width = 0
}

func (s *stageSpinner) setLabel(label string) {
	s.mu.Lock()
	s.label = label
	s.mu.Unlock()
}

func (s *stageSpinner) finish(stage string, d time.Duration, err error) {
	s.mu.Lock()
	s.stages = append(s.stages, stageTiming{Stage: stage, Duration: d, Err: err})
	s.mu.Unlock()
}

// OnParseStart implements observability.PipelineHooks.
func (s *stageSpinner) OnParseStart(_ context.Context, source string) {
	s.setLabel("Parsing " + source + "...")
}

// OnParseComplete implements observability.PipelineHooks.
func (s *stageSpinner) OnParseComplete(_ context.Context, _ string, _ int, d time.Duration, err error) {
	s.finish("parse", d, err)
}

// OnSolveStart implements observability.PipelineHooks.
func (s *stageSpinner) OnSolveStart(_ context.Context, leaves int) {
	s.setLabel(fmt.Sprintf("Laying out %d leaves...", leaves))
}

// OnSolveComplete implements observability.PipelineHooks.
func (s *stageSpinner) OnSolveComplete(_ context.Context, _ int, d time.Duration, err error) {
	s.finish("layout", d, err)
}

// OnApplyStart implements observability.PipelineHooks.
func (s *stageSpinner) OnApplyStart(_ context.Context, changed int) {
	s.setLabel(fmt.Sprintf("Applying %d edits...", changed))
}

// OnApplyComplete implements observability.PipelineHooks.
func (s *stageSpinner) OnApplyComplete(_ context.Context, _ int, d time.Duration, err error) {
	s.finish("apply", d, err)
}
