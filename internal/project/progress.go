package project

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FiniteIncantatemKey is the progress file's YAML front-matter key spec.md
// authoritatively renames from the original's "potterflag".
const FiniteIncantatemKey = "finite_incantatem"

// HasFiniteIncantatemTrue reads progressFileRel (relative to workdir) and
// reports whether its YAML front matter sets finite_incantatem to true.
// Parsing follows the original's exact algorithm: first line must be "---",
// scan until a closing "---", skip blank/comment lines, split on the first
// ':', case-insensitive "true" match on the first whitespace-delimited,
// quote-trimmed token.
func HasFiniteIncantatemTrue(workdir, progressFileRel string) (bool, error) {
	path := filepath.Join(workdir, progressFileRel)
	contents, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("project: read %s: %w", path, err)
	}
	value, _ := frontMatterBool(string(contents), FiniteIncantatemKey)
	return value, nil
}

func frontMatterBool(contents, key string) (value bool, found bool) {
	lines := strings.Split(contents, "\n")
	if len(lines) == 0 || strings.TrimRight(lines[0], "\r") != "---" {
		return false, false
	}

	for _, line := range lines[1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "---" {
			break
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		k, v, ok := strings.Cut(trimmed, ":")
		if !ok || strings.TrimSpace(k) != key {
			continue
		}

		raw := strings.TrimSpace(v)
		firstToken := raw
		if idx := strings.IndexAny(raw, " \t"); idx >= 0 {
			firstToken = raw[:idx]
		}
		unquoted := strings.Trim(firstToken, `"'`)
		return strings.EqualFold(unquoted, "true"), true
	}
	return false, false
}

