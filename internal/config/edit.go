package config

import "strings"

// setBoolInDocument sets key to value inside table (empty table means a
// top-level key) by editing contents line-by-line, preserving every other
// line — including comments — verbatim. Mirrors the original's
// ensure_table_for_write/append_notice_fallback approach: if the table (or
// key, for top-level) does not exist yet, it is appended rather than
// requiring a full rewrite.
//
// This hand-rolled editor exists because go-toml/v2 (the library this repo
// otherwise uses for decoding) has no mutable, comment-preserving document
// AST comparable to the original's toml_edit; see DESIGN.md.
func setBoolInDocument(contents, table, key string, value bool) string {
	lines := splitKeepingTrailingNewline(contents)
	boolText := "false"
	if value {
		boolText = "true"
	}

	if table == "" {
		if idx, ok := findTopLevelKeyLine(lines.body, key); ok {
			lines.body[idx] = key + " = " + boolText
			return lines.join()
		}
		lines.body = append(lines.body, key+" = "+boolText)
		return lines.join()
	}

	tableStart, tableEnd, found := findTableBounds(lines.body, table)
	if !found {
		if len(lines.body) > 0 && strings.TrimSpace(lines.body[len(lines.body)-1]) != "" {
			lines.body = append(lines.body, "")
		}
		lines.body = append(lines.body, "["+table+"]", key+" = "+boolText)
		return lines.join()
	}

	for i := tableStart + 1; i < tableEnd; i++ {
		if k, ok := parseTableHeaderKey(lines.body[i], key); ok {
			_ = k
			lines.body[i] = key + " = " + boolText
			return lines.join()
		}
	}

	inserted := make([]string, 0, len(lines.body)+1)
	inserted = append(inserted, lines.body[:tableEnd]...)
	inserted = append(inserted, key+" = "+boolText)
	inserted = append(inserted, lines.body[tableEnd:]...)
	lines.body = inserted
	return lines.join()
}

// readBoolFallback scans contents line-by-line for table.key (or a top-level
// key when table is empty) without requiring the document to parse as valid
// TOML, used when a hand-edited config.toml has drifted out of strict
// validity.
func readBoolFallback(contents, table, key string) (value bool, found bool) {
	lines := strings.Split(contents, "\n")

	inTarget := table == ""
	for _, raw := range lines {
		line := stripTOMLComment(raw)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if name, ok := parseTableHeaderName(trimmed); ok {
			inTarget = table != "" && name == table
			continue
		}

		if !inTarget {
			continue
		}

		k, v, ok := strings.Cut(trimmed, "=")
		if !ok || strings.TrimSpace(k) != key {
			continue
		}
		return strings.EqualFold(strings.TrimSpace(v), "true"), true
	}
	return false, false
}

// parseTableHeaderName extracts "notice" from a trimmed "[notice]" line.
func parseTableHeaderName(trimmed string) (string, bool) {
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return "", false
	}
	name := strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if name == "" || strings.Contains(name, "[") {
		return "", false
	}
	return name, true
}

func parseTableHeaderKey(line, key string) (string, bool) {
	trimmed := strings.TrimSpace(stripTOMLComment(line))
	k, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return "", false
	}
	if strings.TrimSpace(k) != key {
		return "", false
	}
	return key, true
}

func stripTOMLComment(line string) string {
	inQuote := false
	for i, r := range line {
		switch r {
		case '"':
			inQuote = !inQuote
		case '#':
			if !inQuote {
				return line[:i]
			}
		}
	}
	return line
}

func findTopLevelKeyLine(body []string, key string) (int, bool) {
	for i, line := range body {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") {
			return 0, false
		}
		if _, ok := parseTableHeaderKey(line, key); ok {
			return i, true
		}
	}
	return 0, false
}

// findTableBounds returns the [start, end) line range of table's body (the
// lines strictly after its "[table]" header up to the next header or EOF).
func findTableBounds(body []string, table string) (start, end int, found bool) {
	for i, line := range body {
		trimmed := strings.TrimSpace(stripTOMLComment(line))
		if name, ok := parseTableHeaderName(trimmed); ok && name == table {
			start = i
			end = len(body)
			for j := i + 1; j < len(body); j++ {
				if _, ok := parseTableHeaderName(strings.TrimSpace(stripTOMLComment(body[j]))); ok {
					end = j
					break
				}
			}
			return start, end, true
		}
	}
	return 0, 0, false
}

type documentLines struct {
	body               []string
	hadTrailingNewline bool
}

func splitKeepingTrailingNewline(contents string) documentLines {
	if contents == "" {
		return documentLines{body: nil, hadTrailingNewline: true}
	}
	trailing := strings.HasSuffix(contents, "\n")
	trimmed := strings.TrimSuffix(contents, "\n")
	return documentLines{body: strings.Split(trimmed, "\n"), hadTrailingNewline: trailing}
}

func (d documentLines) join() string {
	out := strings.Join(d.body, "\n")
	if d.hadTrailingNewline || out != "" {
		out += "\n"
	}
	return out
}
