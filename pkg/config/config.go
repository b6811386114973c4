// Package config holds the indentation settings consumed by the solver and
// the edit applier, and loads them from TOML or YAML files.
//
// A settings file looks like:
//
//	max_passes = 32
//
//	[indent]
//	indent_size = 4
//	continuation_indent_size = 8
//	tab_size = 4
//	use_tabs = false
//	right_margin = 120
//
// Unknown keys are rejected so that typos do not silently fall back to
// defaults.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/blockfmt/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultIndentSize is the width of one indent unit.
	DefaultIndentSize = 4

	// DefaultContinuationIndentSize is the width of one continuation unit.
	DefaultContinuationIndentSize = 8

	// DefaultTabSize is the width of a tab stop.
	DefaultTabSize = 4

	// DefaultRightMargin is the column past which as-needed wraps break.
	DefaultRightMargin = 120

	// DefaultMaxPasses bounds the solver's convergence loop.
	DefaultMaxPasses = 32
)

// =============================================================================
// Types
// =============================================================================

// IndentOptions controls how indentation is measured and rendered.
type IndentOptions struct {
	IndentSize             int  `toml:"indent_size" yaml:"indent_size" json:"indent_size"`
	ContinuationIndentSize int  `toml:"continuation_indent_size" yaml:"continuation_indent_size" json:"continuation_indent_size"`
	TabSize                int  `toml:"tab_size" yaml:"tab_size" json:"tab_size"`
	UseTabs                bool `toml:"use_tabs" yaml:"use_tabs" json:"use_tabs"`
	RightMargin            int  `toml:"right_margin" yaml:"right_margin" json:"right_margin"`
}

// Settings is the complete configuration of a formatting call.
type Settings struct {
	Indent IndentOptions `toml:"indent" yaml:"indent" json:"indent"`

	// MaxPasses is the safety valve of the convergence loop. A solver that
	// needs more passes fails with FORMATTING_DIVERGED. Trees with more
	// dependency ranges get one pass per range plus one.
	MaxPasses int `toml:"max_passes" yaml:"max_passes" json:"max_passes"`
}

// Default returns settings with every field set to its default.
func Default() Settings {
	return Settings{
		Indent: IndentOptions{
			IndentSize:             DefaultIndentSize,
			ContinuationIndentSize: DefaultContinuationIndentSize,
			TabSize:                DefaultTabSize,
			RightMargin:            DefaultRightMargin,
		},
		MaxPasses: DefaultMaxPasses,
	}
}

// SetDefaults fills zero-valued fields with defaults.
func (s *Settings) SetDefaults() {
	d := Default()
	if s.Indent.IndentSize == 0 {
		s.Indent.IndentSize = d.Indent.IndentSize
	}
	if s.Indent.ContinuationIndentSize == 0 {
		s.Indent.ContinuationIndentSize = d.Indent.ContinuationIndentSize
	}
	if s.Indent.TabSize == 0 {
		s.Indent.TabSize = d.Indent.TabSize
	}
	if s.Indent.RightMargin == 0 {
		s.Indent.RightMargin = d.Indent.RightMargin
	}
	if s.MaxPasses == 0 {
		s.MaxPasses = d.MaxPasses
	}
}

// Validate checks that all values are usable.
func (s Settings) Validate() error {
	switch {
	case s.Indent.IndentSize < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "indent_size must not be negative, got %d", s.Indent.IndentSize)
	case s.Indent.ContinuationIndentSize < 0:
		return errors.New(errors.ErrCodeInvalidConfig, "continuation_indent_size must not be negative, got %d", s.Indent.ContinuationIndentSize)
	case s.Indent.TabSize <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "tab_size must be positive, got %d", s.Indent.TabSize)
	case s.Indent.RightMargin <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "right_margin must be positive, got %d", s.Indent.RightMargin)
	case s.MaxPasses <= 0:
		return errors.New(errors.ErrCodeInvalidConfig, "max_passes must be positive, got %d", s.MaxPasses)
	}
	return nil
}

// =============================================================================
// Loading
// =============================================================================

// Load reads settings from path. The format is chosen by extension: .yaml
// and .yml are YAML, everything else is TOML. Missing fields take their
// defaults and the result is validated.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Settings{}, errors.New(errors.ErrCodeFileNotFound, "config %s does not exist", path)
		}
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	var s Settings
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, &s)
	default:
		err = decodeTOML(data, &s)
	}
	if err != nil {
		return Settings{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}

	s.SetDefaults()
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadOrDefault loads path if it exists and returns defaults otherwise.
func LoadOrDefault(path string) (Settings, error) {
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

func decodeTOML(data []byte, s *Settings) error {
	md, err := toml.Decode(string(data), s)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return errors.New(errors.ErrCodeInvalidConfig, "unknown keys: %s", strings.Join(keys, ", "))
	}
	return nil
}

func decodeYAML(data []byte, s *Settings) error {
	// We want to use only fields we defined so we cannot use yaml.Unmarshal
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil {
		// An empty document decodes to io.EOF; treat it as all defaults.
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return err
	}
	return nil
}

// DefaultPath returns the settings file location following the XDG
// standard (~/.config/blockfmt/config.toml).
func DefaultPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "blockfmt", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "blockfmt", "config.toml"), nil
}
