// Package project implements CodexPotter's on-disk project layout: creating
// ".codexpotter/projects/<date>_<n>/MAIN.md" progress files from an embedded
// template, resolving git metadata for their front matter, and reading the
// "finite_incantatem" flag back out of them. Grounded on the original Rust
// implementation's project.rs, re-expressed with Go's text/template and
// embed.FS in place of include_str!-and-replace templating.
package project

import (
	"embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/breezewish/codex-potter-sub000/internal/log"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	mainTemplate       = template.Must(template.ParseFS(templateFS, "templates/main.md.tmpl"))
	developerTemplate  = template.Must(template.ParseFS(templateFS, "templates/developer_prompt.md.tmpl"))
	fixedPromptContent = mustReadTemplate("templates/prompt.md.tmpl")
)

func mustReadTemplate(name string) string {
	b, err := templateFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// Init is the result of creating one project directory.
type Init struct {
	// ProgressFileRel is the progress file's path relative to workdir, e.g.
	// ".codexpotter/projects/20260131_1/MAIN.md".
	ProgressFileRel string
	// GitCommitStart is the HEAD commit sampled at project creation time, used
	// as the rollout journal's session_succeeded.git_commit_start field.
	GitCommitStart string
}

// InitProject creates ".codexpotter/projects/<date>_<n>/MAIN.md" and
// ".codexpotter/kb/" under workdir, numbering the project directory by
// incrementing suffix, and renders MAIN.md from the embedded template.
func InitProject(workdir, userPrompt string, now time.Time) (Init, error) {
	gitCommit, gitBranch := resolveGitMetadata(workdir)

	codexpotterDir := filepath.Join(workdir, ".codexpotter")
	projectsRoot := filepath.Join(codexpotterDir, "projects")
	kbDir := filepath.Join(codexpotterDir, "kb")

	if err := os.MkdirAll(projectsRoot, 0o755); err != nil {
		return Init{}, fmt.Errorf("project: create %s: %w", projectsRoot, err)
	}
	if err := os.MkdirAll(kbDir, 0o755); err != nil {
		return Init{}, fmt.Errorf("project: create %s: %w", kbDir, err)
	}

	date := now.Format("20060102")
	projectDir, progressFileRel, err := createNextProjectDir(projectsRoot, date)
	if err != nil {
		return Init{}, err
	}

	mainMD := filepath.Join(projectDir, "MAIN.md")
	contents, err := renderProjectMain(userPrompt, gitCommit, gitBranch)
	if err != nil {
		return Init{}, fmt.Errorf("project: render MAIN.md: %w", err)
	}
	if err := os.WriteFile(mainMD, []byte(contents), 0o644); err != nil {
		return Init{}, fmt.Errorf("project: write %s: %w", mainMD, err)
	}

	log.Info(log.CatProject, "project initialized", "dir", projectDir)
	return Init{ProgressFileRel: progressFileRel, GitCommitStart: gitCommit}, nil
}

type mainTemplateData struct {
	UserPrompt string
	GitCommit  string
	GitBranch  string
}

func renderProjectMain(userPrompt, gitCommit, gitBranch string) (string, error) {
	var sb strings.Builder
	data := mainTemplateData{
		UserPrompt: userPrompt,
		GitCommit:  yamlEscapeDoubleQuoted(gitCommit),
		GitBranch:  yamlEscapeDoubleQuoted(gitBranch),
	}
	if err := mainTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// RenderDeveloperPrompt renders the developer instructions handed to the
// backend driver's thread/start, pointing the assistant at its progress file.
func RenderDeveloperPrompt(progressFileRel string) (string, error) {
	var sb strings.Builder
	data := struct{ ProgressFile string }{ProgressFile: filepath.ToSlash(progressFileRel)}
	if err := developerTemplate.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// FixedPrompt returns the literal prompt text CodexPotter sends at the start
// of every fresh round.
func FixedPrompt() string {
	return strings.TrimRight(fixedPromptContent, "\n")
}

func createNextProjectDir(projectsRoot, date string) (projectDir, progressFileRel string, err error) {
	for idx := 1; ; idx++ {
		name := fmt.Sprintf("%s_%d", date, idx)
		dir := filepath.Join(projectsRoot, name)
		if _, statErr := os.Stat(dir); statErr == nil {
			continue
		}

		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return "", "", fmt.Errorf("project: create %s: %w", dir, mkErr)
		}
		rel := filepath.Join(".codexpotter", "projects", name, "MAIN.md")
		return dir, rel, nil
	}
}

func resolveGitMetadata(workdir string) (commit, branch string) {
	commit, _ = gitStdoutTrimmed(workdir, "rev-parse", "HEAD")
	branch, _ = gitStdoutTrimmed(workdir, "symbolic-ref", "-q", "--short", "HEAD")
	return commit, branch
}

// ResolveGitCommit resolves the current HEAD commit for workdir, empty string
// if it cannot be resolved (not a repo, detached with no commits, etc).
func ResolveGitCommit(workdir string) string {
	commit, _ := gitStdoutTrimmed(workdir, "rev-parse", "HEAD")
	return commit
}

func gitStdoutTrimmed(workdir string, args ...string) (string, bool) {
	fullArgs := append([]string{"-C", workdir}, args...)
	out, err := exec.Command("git", fullArgs...).Output()
	if err != nil {
		return "", false
	}
	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

func yamlEscapeDoubleQuoted(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, `"`, `\"`)
	return value
}
