// Package config implements CodexPotter's persisted notice/update-check
// configuration file and the CLI-flag layer over it. Grounded on the
// original Rust ConfigStore (cli/src/config.rs) for semantics and on the
// teacher's viper/cobra wiring in cmd/root.go for the Go ambient shape.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// NoticeConfig holds the "[notice]" table.
type NoticeConfig struct {
	HideGitignorePrompt bool `toml:"hide_gitignore_prompt"`
}

// FileConfig is the strict shape of config.toml that the core reads.
type FileConfig struct {
	Notice                  NoticeConfig `toml:"notice"`
	CheckForUpdateOnStartup bool         `toml:"check_for_update_on_startup"`
}

// Store wraps a single config.toml path and mediates every read/write of it.
type Store struct {
	Path string
}

// NewDefaultStore resolves the default config path:
// ${XDG_CONFIG_HOME:-$HOME/.config}/codexpotter/config.toml.
func NewDefaultStore() (*Store, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("config: cannot determine home directory: %w", err)
	}
	base := filepath.Join(home, ".config")
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		base = xdg
	}
	return &Store{Path: filepath.Join(base, "codexpotter", "config.toml")}, nil
}

// Load strictly decodes the config file. A missing file yields the zero
// FileConfig, whose CheckForUpdateOnStartup is false; the true default
// (the original's unwrap_or(true)) is applied only by the
// CheckForUpdateOnStartup method, so callers that care about that default
// should use it rather than Load directly.
func (s *Store) Load() (FileConfig, error) {
	contents, err := s.readDocument()
	if err != nil {
		return FileConfig{}, err
	}
	if contents == "" {
		return FileConfig{}, nil
	}

	var cfg FileConfig
	if err := toml.Unmarshal([]byte(contents), &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("config: decode %s: %w", s.Path, err)
	}
	return cfg, nil
}

// NoticeHideGitignorePrompt reads the "[notice] hide_gitignore_prompt" flag,
// falling back to the line-oriented parser when the file is not valid TOML,
// and to false when the file or the key is missing.
func (s *Store) NoticeHideGitignorePrompt() (bool, error) {
	contents, err := s.readDocument()
	if err != nil {
		return false, err
	}
	if contents == "" {
		return false, nil
	}

	var cfg FileConfig
	if err := toml.Unmarshal([]byte(contents), &cfg); err == nil {
		return cfg.Notice.HideGitignorePrompt, nil
	}

	value, _ := readBoolFallback(contents, "notice", "hide_gitignore_prompt")
	return value, nil
}

// CheckForUpdateOnStartup reads the top-level "check_for_update_on_startup"
// flag, defaulting to true when the file or the key is missing (matching
// main.rs's unwrap_or(true)).
func (s *Store) CheckForUpdateOnStartup() (bool, error) {
	contents, err := s.readDocument()
	if err != nil {
		return true, err
	}
	if contents == "" {
		return true, nil
	}

	var cfg FileConfig
	if err := toml.Unmarshal([]byte(contents), &cfg); err == nil {
		if _, present := readBoolFallback(contents, "", "check_for_update_on_startup"); !present {
			return true, nil
		}
		return cfg.CheckForUpdateOnStartup, nil
	}

	value, found := readBoolFallback(contents, "", "check_for_update_on_startup")
	if !found {
		return true, nil
	}
	return value, nil
}

// SetNoticeHideGitignorePrompt persists the "[notice] hide_gitignore_prompt"
// flag through the comment-preserving editor, never clobbering the rest of
// the file.
func (s *Store) SetNoticeHideGitignorePrompt(hide bool) error {
	contents, err := s.readDocument()
	if err != nil {
		return err
	}
	updated := setBoolInDocument(contents, "notice", "hide_gitignore_prompt", hide)
	return s.writeDocument(updated)
}

func (s *Store) readDocument() (string, error) {
	contents, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("config: read %s: %w", s.Path, err)
	}
	return string(contents), nil
}

func (s *Store) writeDocument(contents string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("config: create %s: %w", filepath.Dir(s.Path), err)
	}
	if err := os.WriteFile(s.Path, []byte(contents), 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", s.Path, err)
	}
	return nil
}
