package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/blockfmt/pkg/errors"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestDefault(t *testing.T) {
	s := Default()
	if err := s.Validate(); err != nil {
		t.Fatalf("Default() should validate: %v", err)
	}
	if s.Indent.IndentSize != DefaultIndentSize || s.Indent.RightMargin != DefaultRightMargin {
		t.Errorf("unexpected defaults: %+v", s)
	}
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
max_passes = 5

[indent]
indent_size = 2
use_tabs = true
right_margin = 80
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MaxPasses != 5 || s.Indent.IndentSize != 2 || !s.Indent.UseTabs || s.Indent.RightMargin != 80 {
		t.Errorf("unexpected settings: %+v", s)
	}
	// Unset fields take defaults
	if s.Indent.TabSize != DefaultTabSize {
		t.Errorf("TabSize = %d, want default %d", s.Indent.TabSize, DefaultTabSize)
	}
	if s.Indent.ContinuationIndentSize != DefaultContinuationIndentSize {
		t.Errorf("ContinuationIndentSize = %d, want default", s.Indent.ContinuationIndentSize)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
indent:
  indent_size: 3
  tab_size: 8
max_passes: 7
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Indent.IndentSize != 3 || s.Indent.TabSize != 8 || s.MaxPasses != 7 {
		t.Errorf("unexpected settings: %+v", s)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		content  string
		wantCode errors.Code
	}{
		{"unknown toml key", "c.toml", "indent_sise = 2\n", errors.ErrCodeInvalidConfig},
		{"unknown yaml key", "c.yml", "indent:\n  indent_sise: 2\n", errors.ErrCodeInvalidConfig},
		{"invalid toml", "c.toml", "indent = [", errors.ErrCodeInvalidConfig},
		{"invalid value", "c.toml", "[indent]\ntab_size = -1\n", errors.ErrCodeInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := Load(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.wantCode {
				t.Errorf("code = %v, want %v (%v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("expected FILE_NOT_FOUND, got %v", err)
	}

	s, err := LoadOrDefault(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if s != Default() {
		t.Errorf("LoadOrDefault should return defaults, got %+v", s)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"zero indent allowed", func(s *Settings) { s.Indent.IndentSize = 0 }, false},
		{"negative indent", func(s *Settings) { s.Indent.IndentSize = -1 }, true},
		{"zero tab", func(s *Settings) { s.Indent.TabSize = 0 }, true},
		{"zero margin", func(s *Settings) { s.Indent.RightMargin = 0 }, true},
		{"zero passes", func(s *Settings) { s.MaxPasses = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			if err := s.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	path, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if path != "/tmp/xdg/blockfmt/config.toml" {
		t.Errorf("DefaultPath() = %q", path)
	}
}
