package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/blockfmt/pkg/block"
	"github.com/matzehuels/blockfmt/pkg/errors"
	"github.com/matzehuels/blockfmt/pkg/pipeline"
)

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

// writeFixture writes callFixture to a temp file and isolates the cache
// and config directories.
func writeFixture(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "call.blk")
	if err := os.WriteFile(path, []byte(callFixture), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := New(io.Discard, log.InfoLevel).RootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()
	want := []string{"format", "indent", "dump", "explore", "serve", "cache", "completion"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestFormatCommand(t *testing.T) {
	path := writeFixture(t)

	out, err := execute(t, "format", path)
	if err != nil {
		t.Fatalf("format: %v", err)
	}
	if want := "foo(a,\n    b)"; out != want {
		t.Errorf("output = %q, want %q", out, want)
	}

	out, err = execute(t, "format", path, "--indent-size", "2", "--json", "--no-cache")
	if err != nil {
		t.Fatalf("format --json: %v", err)
	}
	var res pipeline.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	// Alignment wins over the indent size.
	if res.Formatted != "foo(a,\n    b)" || len(res.Edits) != 1 {
		t.Errorf("Formatted = %q, edits = %d", res.Formatted, len(res.Edits))
	}
}

func TestFormatCommandOutput(t *testing.T) {
	path := writeFixture(t)
	dst := filepath.Join(t.TempDir(), "out.txt")

	if _, err := execute(t, "format", path, "-o", dst, "--no-cache"); err != nil {
		t.Fatalf("format -o: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "foo(a,\n    b)" {
		t.Errorf("written = %q", data)
	}
}

func TestFormatCommandErrors(t *testing.T) {
	path := writeFixture(t)
	tests := []struct {
		name string
		args []string
		code errors.Code
	}{
		{"missing file", []string{"format", filepath.Join(t.TempDir(), "nope.blk")}, errors.ErrCodeFileNotFound},
		{"bad range", []string{"format", path, "--range", "5"}, errors.ErrCodeInvalidRange},
		{"bad setting", []string{"format", path, "--tab-size", "0"}, errors.ErrCodeInvalidConfig},
		{"missing config", []string{"format", path, "--config", filepath.Join(t.TempDir(), "x.toml")}, errors.ErrCodeFileNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestSettingsFromConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := filepath.Join(t.TempDir(), "blockfmt.yaml")
	if err := os.WriteFile(cfg, []byte("indent:\n  continuation_indent_size: 2\n  indent_size: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var got, flagged settingsFlags
	cmd := &cobra.Command{Use: "x", RunE: func(*cobra.Command, []string) error { return nil }}
	got.register(cmd)
	if err := cmd.ParseFlags([]string{"--config", cfg}); err != nil {
		t.Fatal(err)
	}
	s, err := got.resolve(cmd)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if s.Indent.IndentSize != 3 || s.Indent.ContinuationIndentSize != 2 || s.Indent.TabSize != 4 {
		t.Errorf("settings = %+v", s.Indent)
	}

	// Flags win over the file.
	cmd2 := &cobra.Command{Use: "y"}
	flagged.register(cmd2)
	if err := cmd2.ParseFlags([]string{"--config", cfg, "--indent-size", "6", "--use-tabs"}); err != nil {
		t.Fatal(err)
	}
	s, err = flagged.resolve(cmd2)
	if err != nil {
		t.Fatal(err)
	}
	if s.Indent.IndentSize != 6 || !s.Indent.UseTabs || s.Indent.ContinuationIndentSize != 2 {
		t.Errorf("settings = %+v", s.Indent)
	}
}

func TestIndentCommand(t *testing.T) {
	path := writeFixture(t)

	out, err := execute(t, "indent", path, "6", "--json")
	if err != nil {
		t.Fatalf("indent: %v", err)
	}
	var res pipeline.IndentResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if res.Offset != 6 {
		t.Errorf("Offset = %d", res.Offset)
	}

	if _, err := execute(t, "indent", path, "six"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("non-numeric offset: err = %v", err)
	}
}

func TestDumpCommand(t *testing.T) {
	path := writeFixture(t)

	tests := []struct {
		args   []string
		prefix string
	}{
		{[]string{"dump", path}, "block [0,9)"},
		{[]string{"dump", path, "-f", "dot"}, "digraph Blocks {"},
		{[]string{"dump", path, "-f", "json", "--solved"}, "{"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args[2:], " "), func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if err != nil {
				t.Fatalf("dump: %v", err)
			}
			if !strings.HasPrefix(out, tt.prefix) {
				t.Errorf("output = %q", out)
			}
		})
	}

	if _, err := execute(t, "dump", path, "-f", "png"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("png: err = %v", err)
	}
}

func TestCompletionCommand(t *testing.T) {
	out, err := execute(t, "completion", "bash")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "blockfmt") {
		t.Error("bash completion should mention the program name")
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    *block.TextRange
		wantErr bool
	}{
		{"", nil, false},
		{"3:9", &block.TextRange{Start: 3, End: 9}, false},
		{" 4 : 4 ", &block.TextRange{Start: 4, End: 4}, false},
		{"9:3", nil, true},
		{"-1:3", nil, true},
		{"3", nil, true},
		{"a:b", nil, true},
	}
	for _, tt := range tests {
		got, err := parseRange(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseRange(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Errorf("parseRange(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestShowWhiteSpace(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "∅"},
		{" ", "·"},
		{"\n\t  ", "↵→··"},
	}
	for _, tt := range tests {
		if got := showWhiteSpace(tt.in); got != tt.want {
			t.Errorf("showWhiteSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
