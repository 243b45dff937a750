package search

import (
	"bufio"
	"io"
	"regexp"
	"strings"
)

// maxMarkdownLine bounds a single knowledge base line.
const maxMarkdownLine = 4 * 1024 * 1024

var (
	listMarkerRE = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+`)
	tableSepRE   = regexp.MustCompile(`^\|?\s*:?-{3,}:?\s*(?:\|\s*:?-{3,}:?\s*)*\|?$`)
)

// flattenMarkdown rewrites a Markdown knowledge base so that every tip is one
// blank-line separated paragraph:
//
//   - headings stay on their own paragraph (tipsFromMarkdown turns them into topics)
//   - each list item is its own tip, marker removed
//   - each table data row is a tip "first cell: other cells"; header and
//     separator rows are dropped
//   - consecutive plain lines are joined into one paragraph
//   - HTML comment lines are skipped
func flattenMarkdown(r io.Reader) ([]byte, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxMarkdownLine)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	var (
		out  []string
		para []string
	)
	flush := func() {
		if len(para) > 0 {
			out = append(out, strings.Join(para, " "))
			para = para[:0]
		}
	}
	emit := func(s string) {
		flush()
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}

	for i, line := range lines {
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "<!--"):
		case strings.HasPrefix(line, "#"):
			emit(line)
		case isTableRow(line):
			if tableSepRE.MatchString(line) {
				continue
			}
			if i+1 < len(lines) && tableSepRE.MatchString(lines[i+1]) {
				continue // header row
			}
			emit(tableRowTip(line))
		case listMarkerRE.MatchString(line):
			emit(listMarkerRE.ReplaceAllString(line, ""))
		default:
			para = append(para, line)
		}
	}
	flush()

	if len(out) == 0 {
		return nil, nil
	}
	return []byte(strings.Join(out, "\n\n") + "\n"), nil
}

func isTableRow(line string) bool {
	return strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") && len(line) > 1
}

func tableRowTip(line string) string {
	var cells []string
	for _, c := range strings.Split(strings.Trim(line, "|"), "|") {
		if c = strings.TrimSpace(c); c != "" {
			cells = append(cells, c)
		}
	}
	switch len(cells) {
	case 0:
		return ""
	case 1:
		return cells[0]
	}
	return cells[0] + ": " + strings.Join(cells[1:], " ")
}
