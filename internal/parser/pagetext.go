// Package parser turns OCR text dumps of scanned documents into clean,
// page-attributed text and splits long pages into overlapping chunks.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Page is the text of a single document page.
type Page struct {
	DocName string
	PageNo  int
	Text    string
}

// pageMarker heads each page in the dump: --- [annual_report] Page 12 ---
var pageMarker = regexp.MustCompile(`^--- \[(.+)\] Page (\d+) ---$`)

// footerPatterns match OCR noise from scanned office documents: Windows file
// paths and page-footer fragments that leak into the text layer.
var footerPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)[A-Za-z]:\\.*Desktop.*`),
	regexp.MustCompile(`(?i)C:\\.*\.doc`),
	regexp.MustCompile(`(?i)Page\s+\\\s*\d+`),
}

// Options control the optional cleaning passes.
type Options struct {
	FilterFooters   bool
	NormalizeDigits bool
}

// DefaultOptions enables all cleaning passes.
func DefaultOptions() Options {
	return Options{FilterFooters: true, NormalizeDigits: true}
}

// ParsePages reads a page-marked text dump and returns one entry per page.
// Pages with no text after cleaning are dropped. Text before the first
// marker is an error, since it cannot be attributed to a document.
func ParsePages(r io.Reader, opts Options) ([]Page, error) {
	var (
		pages   []Page
		current *Page
		lines   []string
		lineNo  int
	)

	flush := func() {
		if current == nil {
			return
		}
		text := strings.TrimSpace(strings.Join(lines, "\n"))
		if opts.NormalizeDigits {
			text = NormalizeDigits(text)
		}
		if text != "" {
			current.Text = text
			pages = append(pages, *current)
		}
		lines = lines[:0]
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if m := pageMarker.FindStringSubmatch(line); m != nil {
			flush()
			pageNo, err := strconv.Atoi(m[2])
			if err != nil {
				return nil, fmt.Errorf("line %d: bad page number %q", lineNo, m[2])
			}
			current = &Page{DocName: m[1], PageNo: pageNo}
			continue
		}

		if current == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			return nil, fmt.Errorf("line %d: text before first page marker", lineNo)
		}
		if opts.FilterFooters && isFooterLine(line) {
			continue
		}
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dump: %w", err)
	}
	flush()

	return pages, nil
}

func isFooterLine(line string) bool {
	for _, p := range footerPatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// digit offsets of the Gujarati and Devanagari zero runes.
const (
	gujaratiZero   = '૦'
	devanagariZero = '०'
)

// NormalizeDigits maps Gujarati and Devanagari numerals to ASCII so year
// extraction and numeric lookups work on OCR output in either script.
func NormalizeDigits(text string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= gujaratiZero && r <= gujaratiZero+9:
			return '0' + (r - gujaratiZero)
		case r >= devanagariZero && r <= devanagariZero+9:
			return '0' + (r - devanagariZero)
		default:
			return r
		}
	}, text)
}
