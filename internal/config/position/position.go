// Package position resolves dotted key paths in raw YAML text to 1-indexed
// line/column spans. It is a line and indentation scanner, not a parser: it
// trades grammar coverage (anchors, flow mappings, multi-document streams)
// for the ability to point at a key or sequence element without keeping a
// positional AST around.
package position

import (
	"strings"
)

// Span is a 1-indexed location in the raw text. EndLine and EndColumn are
// zero for key matches, where only the start of the key is known.
type Span struct {
	Line      int
	Column    int
	EndLine   int
	EndColumn int
}

// FindKey locates the line on which the final element of path is declared.
// It returns nil when the path cannot be resolved; callers are expected to
// fall back to line 1, column 1 rather than treat that as an error.
func FindKey(raw string, path []string) *Span {
	return find(raw, path, "", false)
}

// FindValue locates the exact span of a sequence element under the final
// element of path. Both block sequences ("- item") and bracketed inline
// sequences ("[a, b]") are scanned, the latter starting on the key line
// itself. The scan ends when indentation returns to the key's level.
func FindValue(raw string, path []string, value string) *Span {
	return find(raw, path, value, true)
}

func find(raw string, path []string, value string, wantValue bool) *Span {
	if len(path) == 0 {
		return nil
	}

	lines := strings.Split(raw, "\n")
	cursor := 0
	contextIndent := -1

	for i := 0; i < len(lines); i++ {
		line := lines[i]

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := indentWidth(line)

		// Dedenting below the last matched key means the path was not
		// found in that block. Restart matching on this very line, so
		// repeated key names at different nesting levels resolve to
		// the right occurrence.
		if cursor > 0 && indent < contextIndent {
			cursor = 0
			contextIndent = -1
		}

		if !strings.HasPrefix(trimmed, path[cursor]+":") {
			continue
		}

		cursor++
		contextIndent = indent

		if cursor < len(path) {
			continue
		}

		if !wantValue {
			return &Span{Line: i + 1, Column: indent + 1}
		}

		return scanSequence(lines, i, indent, path[cursor-1], value)
	}

	return nil
}

// scanSequence looks for value among the sequence elements belonging to the
// key matched on lines[keyLine].
func scanSequence(lines []string, keyLine, keyIndent int, key, value string) *Span {
	// Inline sequence on the key line: "receivers: [otlp, jaeger]".
	rest := strings.Index(lines[keyLine], key+":") + len(key) + 1
	if span := matchInline(lines[keyLine], rest, keyLine, value); span != nil {
		return span
	}

	for i := keyLine + 1; i < len(lines); i++ {
		line := lines[i]

		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}

		indent := indentWidth(line)
		isItem := strings.HasPrefix(trimmed, "-")

		// A block sequence may sit at the key's own indentation; anything
		// else at or above that level ends the enclosing block.
		if indent < keyIndent || (indent == keyIndent && !isItem) {
			return nil
		}

		if isItem {
			if span := matchBlockItem(line, i, value); span != nil {
				return span
			}

			continue
		}

		if span := matchInline(line, 0, i, value); span != nil {
			return span
		}
	}

	return nil
}

func matchBlockItem(line string, lineIdx int, value string) *Span {
	hyphen := strings.Index(line, "-")
	start := hyphen + 1

	for start < len(line) && line[start] == ' ' {
		start++
	}

	token := line[start:]
	if idx := strings.Index(token, " #"); idx >= 0 {
		token = token[:idx]
	}

	token = strings.TrimRight(token, " \t\r")
	if unquote(token) != value || token == "" {
		return nil
	}

	return &Span{
		Line:      lineIdx + 1,
		Column:    start + 1,
		EndLine:   lineIdx + 1,
		EndColumn: start + len(token) + 1,
	}
}

// matchInline scans a bracketed inline sequence in line, starting the
// bracket search at offset from.
func matchInline(line string, from, lineIdx int, value string) *Span {
	if from < 0 || from > len(line) {
		return nil
	}

	open := strings.Index(line[from:], "[")
	if open < 0 {
		return nil
	}

	open += from
	seq := line[open+1:]

	if close := strings.Index(seq, "]"); close >= 0 {
		seq = seq[:close]
	}

	offset := open + 1

	for _, part := range strings.Split(seq, ",") {
		token := strings.TrimSpace(part)
		if token != "" && unquote(token) == value {
			start := offset + strings.Index(part, token)

			return &Span{
				Line:      lineIdx + 1,
				Column:    start + 1,
				EndLine:   lineIdx + 1,
				EndColumn: start + len(token) + 1,
			}
		}

		offset += len(part) + 1
	}

	return nil
}

func unquote(token string) string {
	if len(token) >= 2 {
		if (token[0] == '\'' && token[len(token)-1] == '\'') ||
			(token[0] == '"' && token[len(token)-1] == '"') {
			return token[1 : len(token)-1]
		}
	}

	return token
}

func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
