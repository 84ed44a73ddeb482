package shared

import (
	"fmt"
	"os"
	"strings"
)

const bom = "\ufeff"

// ReadLines reads a newline-separated text file. A leading UTF-8 BOM and carriage returns are
// removed; a trailing newline does not produce an empty last line. Blank lines are kept unless
// skipBlank is set, in which case surrounding whitespace is trimmed as well.
func ReadLines(path string, skipBlank bool) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFileAccess, path, err)
	}

	text := strings.TrimPrefix(string(data), bom)
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return []string{}, nil
	}

	lines := strings.Split(text, "\n")
	if !skipBlank {
		return lines, nil
	}

	kept := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return kept, nil
}

// WriteLines writes lines to path, one per line, each newline-terminated. An empty slice
// truncates the file.
func WriteLines(path string, lines []string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFileAccess, path, err)
	}
	return nil
}
