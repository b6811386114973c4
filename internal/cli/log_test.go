package cli

import (
	"bytes"
	"context"
	stderrors "errors"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/blockfmt/pkg/edit"
	"github.com/matzehuels/blockfmt/pkg/pipeline"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("formatted") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("stage done") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("stage done") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if gotLog := buf.Len() > 0; gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

func TestProgressDone(t *testing.T) {
	res := &pipeline.Result{
		RunID: "0f8fad5b-d9cb-469f-a165-70867728950e",
		Name:  "call.blk",
		Edits: []edit.Edit{{New: "\n    "}},
		Stats: pipeline.Stats{ParseTime: time.Millisecond, LayoutTime: 2 * time.Millisecond},
	}

	tests := []struct {
		name     string
		cacheHit bool
		want     []string
		wantNot  []string
	}{
		{
			name:    "fresh run",
			want:    []string{"reformatted", "file=call.blk", "run=0f8fad5b", "edits=1", "layout=2ms"},
			wantNot: []string{"cached", "d9cb"},
		},
		{
			name:     "cache hit",
			cacheHit: true,
			want:     []string{"run=0f8fad5b", "cached=true"},
			wantNot:  []string{"layout="},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			r := *res
			r.CacheHit = tt.cacheHit
			newProgress(newLogger(&buf, log.InfoLevel)).done(&r)

			out := buf.String()
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("output %q is missing %q", out, s)
				}
			}
			for _, s := range tt.wantNot {
				if strings.Contains(out, s) {
					t.Errorf("output %q should not contain %q", out, s)
				}
			}
		})
	}
}

func TestLogStages(t *testing.T) {
	stages := []stageTiming{
		{Stage: "parse", Duration: time.Millisecond},
		{Stage: "layout", Duration: 3 * time.Millisecond},
		{Stage: "apply", Err: stderrors.New("model rejected")},
	}

	var buf bytes.Buffer
	logStages(newLogger(&buf, log.DebugLevel), "call.blk", stages)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3:\n%s", len(lines), buf.String())
	}
	for i, want := range []string{"stage=parse", "stage=layout", "stage=apply"} {
		if !strings.Contains(lines[i], want) || !strings.Contains(lines[i], "file=call.blk") {
			t.Errorf("line %d = %q, want %s", i, lines[i], want)
		}
	}
	if !strings.Contains(lines[2], "stage failed") {
		t.Errorf("failed stage logged as %q", lines[2])
	}

	buf.Reset()
	logStages(newLogger(&buf, log.InfoLevel), "call.blk", stages)
	if buf.Len() != 0 {
		t.Errorf("stage timings should only log at debug level: %q", buf.String())
	}
}

func TestShortRunID(t *testing.T) {
	tests := []struct{ in, want string }{
		{"0f8fad5b-d9cb-469f-a165-70867728950e", "0f8fad5b"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shortRunID(tt.in); got != tt.want {
			t.Errorf("shortRunID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoggerFromContext(t *testing.T) {
	if loggerFromContext(context.Background()) != log.Default() {
		t.Error("without an attached logger the default logger is used")
	}

	var buf bytes.Buffer
	l := newLogger(&buf, log.DebugLevel)
	ctx := withLogger(context.Background(), l)
	if loggerFromContext(ctx) != l {
		t.Fatal("loggerFromContext should return the attached logger")
	}
	loggerFromContext(ctx).Debug("change detected", "file", "call.blk")
	if !strings.Contains(buf.String(), "file=call.blk") {
		t.Errorf("output = %q", buf.String())
	}
}
