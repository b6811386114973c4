package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Solver hooks
	s := NoopSolverHooks{}
	s.OnPassComplete(ctx, 1, 10, false)
	s.OnJump(ctx, 5, 2, "wrap candidate")

	// Pipeline hooks
	p := NoopPipelineHooks{}
	p.OnParseStart(ctx, "input.bf")
	p.OnParseComplete(ctx, "input.bf", 12, time.Second, nil)
	p.OnSolveStart(ctx, 12)
	p.OnSolveComplete(ctx, 2, time.Second, nil)
	p.OnApplyStart(ctx, 3)
	p.OnApplyComplete(ctx, 3, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "format")
	c.OnCacheMiss(ctx, "indent")
	c.OnCacheSet(ctx, "format", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/format")
	h.OnResponse(ctx, "POST", "/v1/format", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Solver().(NoopSolverHooks); !ok {
		t.Error("Solver() should return NoopSolverHooks by default")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	// Set custom hooks
	customSolver := &testSolverHooks{}
	SetSolverHooks(customSolver)
	if Solver() != customSolver {
		t.Error("SetSolverHooks should set custom hooks")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Solver().(NoopSolverHooks); !ok {
		t.Error("Reset() should restore NoopSolverHooks")
	}
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testSolverHooks{}
	SetSolverHooks(custom)

	// Setting nil should be ignored
	SetSolverHooks(nil)

	if Solver() != custom {
		t.Error("SetSolverHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testSolverHooks struct{ NoopSolverHooks }
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
