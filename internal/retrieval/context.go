package retrieval

import (
	"fmt"
	"strings"

	"github.com/mehulvora/govqa-go/internal/models"
	"github.com/mehulvora/govqa-go/internal/years"
)

// AssembleContext formats chunks into a labelled context block for the LLM
// and collects one citation string per chunk. Each chunk is headed with its
// source document, page, and the years its text mentions, so the model can
// attribute answers and respect year boundaries.
func AssembleContext(chunks []models.Chunk) (string, []string) {
	if len(chunks) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(chunks))
	citations := make([]string, 0, len(chunks))

	for i, chunk := range chunks {
		yearLabel := ""
		if yrs := years.InText(chunk.Text); len(yrs) > 0 {
			yearLabel = ", Years: " + strings.Join(yrs, ", ")
		}
		citation := chunk.Citation()
		citations = append(citations, citation)
		parts = append(parts, fmt.Sprintf("[Chunk %d | %s%s]\n%s\n", i+1, citation, yearLabel, chunk.Text))
	}

	return strings.Join(parts, "\n---\n"), citations
}
