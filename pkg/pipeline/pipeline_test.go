package pipeline

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/cache"
	"github.com/matzehuels/blockfmt/pkg/config"
	"github.com/matzehuels/blockfmt/pkg/edit"
	"github.com/matzehuels/blockfmt/pkg/errors"
)

// callFixture breaks before the second argument and aligns it with the
// first one.
const callFixture = `
align args

source "foo(a, b)"

block {
  "foo"
  block {
    "("
    "a" align args
    ","
    "b" align args
    ")"
    space 0 0
    space [2] 1 1 lf 1
  }
  space [0] 0 0
}
`

const bodyFixture = `
source "f {\n    a\n}"

block {
  "f"
  block {
    "{"
    "a" indent normal
    "}"
    hint indent normal
  }
}
`

func invalidSettings() config.Settings {
	s := config.Default()
	s.Indent.IndentSize = -1
	return s
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"json", false},
		{"text", false},
		{"dot", false},
		{"svg", false},
		{"png", true},
		{"JSON", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ValidateFormat(%q) code = %s", tt.format, errors.GetCode(err))
		}
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{Fixture: callFixture}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
	if opts.Name != "<input>" {
		t.Errorf("Name = %q", opts.Name)
	}
	if opts.Settings.Indent.IndentSize != 4 || opts.Settings.MaxPasses == 0 {
		t.Errorf("Settings = %+v", opts.Settings)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}

	// Idempotent: a second call keeps the values.
	opts.Name = "renamed"
	if err := opts.ValidateAndSetDefaults(); err != nil || opts.Name != "renamed" {
		t.Errorf("second call: err=%v name=%q", err, opts.Name)
	}
}

func TestOptionsErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"missing fixture", Options{}, errors.ErrCodeInvalidInput},
		{"inverted range", Options{Fixture: callFixture, Affected: &block.TextRange{Start: 5, End: 2}}, errors.ErrCodeInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Format(context.Background(), Options{Name: "call.blk", Fixture: callFixture})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if want := "foo(a,\n    b)"; res.Formatted != want {
		t.Errorf("Formatted = %q, want %q", res.Formatted, want)
	}
	if res.Source != "foo(a, b)" || res.Name != "call.blk" {
		t.Errorf("Source = %q Name = %q", res.Source, res.Name)
	}
	if !res.Changed() || len(res.Edits) != 1 {
		t.Fatalf("Edits = %+v, want one", res.Edits)
	}
	if e := res.Edits[0]; e.Range != (block.TextRange{Start: 6, End: 7}) || e.Old != " " || e.New != "\n    " {
		t.Errorf("edit = %+v", e)
	}
	if res.Solver.Leaves != 6 || res.Solver.Passes == 0 {
		t.Errorf("Solver = %+v", res.Solver)
	}
	if res.RunID == "" || res.CacheHit {
		t.Errorf("RunID = %q CacheHit = %v", res.RunID, res.CacheHit)
	}
}

func TestFormatReadOnlyOutsideAffected(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	res, err := r.Format(context.Background(), Options{
		Fixture:  callFixture,
		Affected: &block.TextRange{Start: 0, End: 3},
	})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if res.Changed() || res.Formatted != res.Source {
		t.Errorf("whitespace outside the affected range changed: %q", res.Formatted)
	}
}

func TestFormatCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	defer r.Close()
	ctx := context.Background()

	first, err := r.Format(ctx, Options{Fixture: callFixture})
	if err != nil {
		t.Fatal(err)
	}
	second, err := r.Format(ctx, Options{Fixture: callFixture})
	if err != nil {
		t.Fatal(err)
	}
	if !second.CacheHit {
		t.Error("second run should hit the cache")
	}
	if second.Formatted != first.Formatted || len(second.Edits) != len(first.Edits) {
		t.Errorf("cached result differs: %+v vs %+v", second, first)
	}
	if second.RunID == first.RunID {
		t.Error("cache hits should get a fresh run ID")
	}

	refreshed, err := r.Format(ctx, Options{Fixture: callFixture, Refresh: true})
	if err != nil {
		t.Fatal(err)
	}
	if refreshed.CacheHit {
		t.Error("Refresh should bypass the cache")
	}

	// Different settings are a different key.
	opts := Options{Fixture: callFixture}
	opts.Settings.Indent.IndentSize = 2
	other, err := r.Format(ctx, opts)
	if err != nil {
		t.Fatal(err)
	}
	if other.CacheHit {
		t.Error("changed settings should miss the cache")
	}
}

func TestFormatErrors(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"invalid fixture", Options{Fixture: "block {"}, errors.ErrCodeInvalidFixture},
		{"range past end", Options{Fixture: callFixture, Affected: &block.TextRange{Start: 0, End: 100}}, errors.ErrCodeInvalidRange},
		{"invalid settings", Options{Fixture: callFixture, Settings: invalidSettings()}, errors.ErrCodeInvalidConfig},
	}

	r := NewRunner(nil, nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Format(context.Background(), tt.opts)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

const gapsFixture = `
source "a    b  c"
block {
  "a" "b" "c"
  space 1 1
}
`

// refusingModel is a document that refuses its second replacement.
type refusingModel struct {
	*edit.Document
	calls int
}

func (m *refusingModel) ReplaceWhiteSpace(r block.TextRange, text string) error {
	if m.calls++; m.calls == 2 {
		return edit.ErrReadOnly
	}
	return m.Document.ReplaceWhiteSpace(r, text)
}

func TestFormatModel(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	doc := edit.NewDocument("a    b  c")
	res, err := r.FormatModel(ctx, Options{Fixture: gapsFixture}, doc)
	if err != nil {
		t.Fatalf("FormatModel: %v", err)
	}
	if doc.Text() != "a b c" || res.Formatted != "a b c" || len(res.Edits) != 2 {
		t.Errorf("text = %q, result = %+v", doc.Text(), res)
	}

	// Edits applied before the rejection stay and are reported.
	model := &refusingModel{Document: edit.NewDocument("a    b  c")}
	res, err = r.FormatModel(ctx, Options{Fixture: gapsFixture}, model)
	if !errors.Is(err, errors.ErrCodeModelMutation) {
		t.Fatalf("err = %v, want %s", err, errors.ErrCodeModelMutation)
	}
	if res == nil {
		t.Fatal("partial result missing")
	}
	if len(res.Edits) != 1 || res.Formatted != "a b  c" || model.Text() != "a b  c" {
		t.Errorf("partial result = %+v, text %q", res, model.Text())
	}

	_, err = r.FormatModel(ctx, Options{Fixture: gapsFixture}, edit.NewDocument("other"))
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("mismatched model: err = %v", err)
	}
}

func TestFormatCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRunner(nil, nil, nil).Format(ctx, Options{Fixture: callFixture})
	if !errors.Is(err, errors.ErrCodeCanceled) {
		t.Fatalf("err = %v, want %s", err, errors.ErrCodeCanceled)
	}
}

func TestIndentAt(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := NewRunner(fc, nil, nil)
	ctx := context.Background()

	res, err := r.IndentAt(ctx, Options{Fixture: bodyFixture}, 9)
	if err != nil {
		t.Fatalf("IndentAt: %v", err)
	}
	if res.Column != 4 || res.Text != "    " || res.Offset != 9 {
		t.Errorf("IndentAt(9) = %+v", res)
	}

	again, err := r.IndentAt(ctx, Options{Fixture: bodyFixture}, 9)
	if err != nil {
		t.Fatal(err)
	}
	if !again.CacheHit || again.Column != res.Column {
		t.Errorf("second query = %+v, want a cache hit", again)
	}

	if _, err := r.IndentAt(ctx, Options{Fixture: bodyFixture}, 500); !errors.Is(err, errors.ErrCodeInvalidRange) {
		t.Errorf("offset past end: err = %v", err)
	}
}

func TestDump(t *testing.T) {
	r := NewRunner(nil, nil, nil)
	ctx := context.Background()

	t.Run("text", func(t *testing.T) {
		data, err := r.Dump(ctx, Options{Fixture: callFixture}, DumpOptions{})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `"foo"`) {
			t.Errorf("text dump missing leaf:\n%s", data)
		}
	})

	t.Run("json", func(t *testing.T) {
		data, err := r.Dump(ctx, Options{Fixture: callFixture}, DumpOptions{Format: FormatJSON, Solved: true})
		if err != nil {
			t.Fatal(err)
		}
		var v map[string]any
		if err := json.Unmarshal(data, &v); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if !strings.Contains(string(data), `"line_feeds": 1`) {
			t.Errorf("solved dump should record the break:\n%s", data)
		}
	})

	t.Run("dot", func(t *testing.T) {
		data, err := r.Dump(ctx, Options{Fixture: callFixture}, DumpOptions{Format: FormatDOT})
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(data), "digraph Blocks {") {
			t.Errorf("dot dump = %q", data)
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		_, err := r.Dump(ctx, Options{Fixture: callFixture}, DumpOptions{Format: "png"})
		if !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("err = %v", err)
		}
	})
}
