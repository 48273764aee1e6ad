package project

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GlobalGitignoreStatus reports what CodexPotter found when checking the
// user's global gitignore for a ".codexpotter" entry.
type GlobalGitignoreStatus struct {
	// Path is the resolved global gitignore file path, empty if none is
	// configured.
	Path string
	// PathDisplay is Path rendered for display to the user (e.g. "~"-relative).
	PathDisplay string
	// HasCodexPotterIgnore reports whether the file already ignores
	// ".codexpotter".
	HasCodexPotterIgnore bool
}

// DetectGlobalGitignoreStatus resolves the user's configured global
// gitignore (via "git config --get core.excludesFile", falling back to
// "~/.config/git/ignore") and checks whether it already ignores
// ".codexpotter". Grounded on the original's global_gitignore module,
// simplified to the single check this core needs.
func DetectGlobalGitignoreStatus(workdir string) (GlobalGitignoreStatus, error) {
	path := resolveExcludesFile(workdir)
	display := displayPath(path)

	status := GlobalGitignoreStatus{Path: path, PathDisplay: display}
	if path == "" {
		return status, nil
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return status, nil
		}
		return status, err
	}

	for _, line := range strings.Split(string(contents), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == ".codexpotter" || trimmed == ".codexpotter/" || trimmed == "/.codexpotter" {
			status.HasCodexPotterIgnore = true
			break
		}
	}
	return status, nil
}

func resolveExcludesFile(workdir string) string {
	cmd := exec.Command("git", "-C", workdir, "config", "--get", "core.excludesFile")
	out, err := cmd.Output()
	if err == nil {
		if p := strings.TrimSpace(string(out)); p != "" {
			return expandHome(p)
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	fallback := filepath.Join(home, ".config", "git", "ignore")
	if _, statErr := os.Stat(fallback); statErr != nil {
		return ""
	}
	return fallback
}

func expandHome(p string) string {
	if !strings.HasPrefix(p, "~") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

func displayPath(path string) string {
	if path == "" {
		return ""
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if rel, err := filepath.Rel(home, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.Join("~", rel)
	}
	return path
}

// EnsureCodexPotterIgnored appends ".codexpotter" to the global gitignore at
// status.Path, creating the file (and its parent directory) if necessary.
func EnsureCodexPotterIgnored(status GlobalGitignoreStatus) error {
	if status.Path == "" {
		return nil
	}
	if status.HasCodexPotterIgnore {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(status.Path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(status.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	existing, _ := os.ReadFile(status.Path)
	prefix := ""
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		prefix = "\n"
	}
	_, err = f.WriteString(prefix + ".codexpotter\n")
	return err
}

// ShouldPromptGlobalGitignore is the pure decision function gating the
// global-gitignore prompt: the actual interactive prompt UI is out of
// scope, but whether to show it at all is decided here.
func ShouldPromptGlobalGitignore(hideGitignorePrompt bool, status GlobalGitignoreStatus) bool {
	if hideGitignorePrompt {
		return false
	}
	return !status.HasCodexPotterIgnore
}
