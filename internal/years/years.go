// Package years extracts year mentions from queries and filters retrieved
// chunks by them. Pure functions, no I/O.
package years

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mehulvora/govqa-go/internal/models"
)

var (
	// Financial-year ranges: "2013-14" or "2013-2014" (hyphen or en dash).
	rangeRe = regexp.MustCompile(`(20\d{2})[-–](20\d{2}|\d{2})`)

	// Bare 4-digit years anywhere in the text.
	bareRe = regexp.MustCompile(`\b20\d{2}\b`)
)

// Extract returns the set of 4-digit years mentioned in the query, ascending
// and de-duplicated. Financial-year ranges contribute both endpoints, with a
// short-form end year expanded using the start year's century prefix:
// "2013-14" yields {"2013", "2014"}. Malformed patterns simply do not match.
func Extract(query string) []string {
	seen := make(map[string]struct{})

	for _, m := range rangeRe.FindAllStringSubmatch(query, -1) {
		start, end := m[1], m[2]
		seen[start] = struct{}{}
		if len(end) == 2 {
			end = start[:2] + end
		}
		seen[end] = struct{}{}
	}

	for _, y := range bareRe.FindAllString(query, -1) {
		seen[y] = struct{}{}
	}

	out := make([]string, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Strings(out)
	return out
}

// InText returns the years occurring in a chunk's text, ascending. Used for
// per-chunk context labels only; it does not affect filtering.
func InText(text string) []string {
	seen := make(map[string]struct{})
	for _, y := range bareRe.FindAllString(text, -1) {
		seen[y] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Strings(out)
	return out
}

// FilterChunks keeps only chunks whose text contains at least one of the
// requested years (plain substring match). An empty year set is a no-op.
// If filtering would empty a non-empty input, the original slice is returned
// unchanged so the model can explain which years the documents do cover
// instead of defaulting to "not found".
func FilterChunks(chunks []models.Chunk, yrs []string) []models.Chunk {
	if len(yrs) == 0 {
		return chunks
	}

	var filtered []models.Chunk
	for _, c := range chunks {
		for _, y := range yrs {
			if strings.Contains(c.Text, y) {
				filtered = append(filtered, c)
				break
			}
		}
	}

	if len(filtered) == 0 {
		return chunks
	}
	return filtered
}
