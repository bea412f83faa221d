package parser

import (
	"strings"
	"unicode"
)

// ChunkConfig defines chunking parameters.
type ChunkConfig struct {
	// Threshold: only split if page text exceeds this length
	Threshold int
	// TargetSize: ideal chunk size when splitting at sentences
	TargetSize int
	// MaxSize: maximum chunk size (larger runs split at sentences)
	MaxSize int
	// Overlap: character overlap carried from the previous chunk
	Overlap int
}

// DefaultChunkConfig returns defaults tuned for OCR page text, where a table
// or dense paragraph easily exceeds a thousand characters.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		Threshold:  1800,
		TargetSize: 1200,
		MaxSize:    1800,
		Overlap:    300,
	}
}

// ChunkText splits page text into chunks at paragraph boundaries, falling
// back to sentence boundaries for oversized paragraphs. Adjacent chunks share
// an overlap so facts near a boundary stay retrievable from either side.
func ChunkText(text string, config ChunkConfig) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= config.Threshold {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if current.Len()+len(para) > config.MaxSize && current.Len() > 0 {
			flush()
		}

		// Oversized paragraph: split at sentence boundaries.
		if len(para) > config.MaxSize {
			flush()
			chunks = append(chunks, chunkBySentences(para, config)...)
			continue
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
	}
	flush()

	return applyOverlap(chunks, config.Overlap)
}

// chunkBySentences packs sentences up to the target size per chunk.
func chunkBySentences(text string, config ChunkConfig) []string {
	var chunks []string
	var current strings.Builder

	for _, sentence := range splitSentences(text) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		if current.Len()+len(sentence) > config.TargetSize && current.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(current.String()))
			current.Reset()
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sentence)
	}

	if current.Len() > 0 {
		chunks = append(chunks, strings.TrimSpace(current.String()))
	}

	return chunks
}

// splitSentences splits on terminal punctuation followed by whitespace.
// Danda (Devanagari sentence terminator) counts, since page text may be in
// Gujarati or Hindi.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)

		if r == '.' || r == '!' || r == '?' || r == '।' {
			if i+1 >= len(runes) || unicode.IsSpace(runes[i+1]) {
				// Titles and initials like "Dr.", "Smt." or "A." are not
				// sentence ends.
				if r == '.' && isAbbreviation(runes, i) {
					continue
				}
				sentences = append(sentences, current.String())
				current.Reset()
			}
		}
	}

	if current.Len() > 0 {
		sentences = append(sentences, current.String())
	}

	return sentences
}

// isAbbreviation reports whether the period at runes[i] follows a short
// capitalized token, which in this text is a title or an initial rather than
// a sentence end.
func isAbbreviation(runes []rune, i int) bool {
	start := i
	for start > 0 && unicode.IsLetter(runes[start-1]) {
		start--
	}
	n := i - start
	return n >= 1 && n <= 3 && unicode.IsUpper(runes[start])
}

// applyOverlap prefixes each chunk with the tail of its predecessor, cut at
// a rune then word boundary so multi-byte script text never splits mid-rune.
func applyOverlap(chunks []string, overlap int) []string {
	if overlap <= 0 || len(chunks) <= 1 {
		return chunks
	}

	result := make([]string, len(chunks))
	copy(result, chunks)

	for i := 1; i < len(result); i++ {
		prev := []rune(chunks[i-1])
		if len(prev) <= overlap {
			continue
		}
		tail := string(prev[len(prev)-overlap:])
		// Drop the partial leading word the rune cut may have produced.
		if idx := strings.Index(tail, " "); idx >= 0 {
			tail = strings.TrimSpace(tail[idx+1:])
		}
		if tail == "" {
			continue
		}
		result[i] = tail + " " + result[i]
	}

	return result
}
