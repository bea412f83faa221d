package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePages(t *testing.T) {
	dump := `--- [annual_report] Page 1 ---
Budget for the year ૨૦૧૪ was approved.
Road works: ૧૨ crore.

--- [annual_report] Page 2 ---
Continuation of schedule.
--- [district_stats] Page 1 ---
Population figures for २०१६.
`

	pages, err := ParsePages(strings.NewReader(dump), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, "annual_report", pages[0].DocName)
	assert.Equal(t, 1, pages[0].PageNo)
	assert.Contains(t, pages[0].Text, "Budget for the year 2014 was approved.")
	assert.Contains(t, pages[0].Text, "Road works: 12 crore.")

	assert.Equal(t, 2, pages[1].PageNo)
	assert.Equal(t, "district_stats", pages[2].DocName)
	assert.Contains(t, pages[2].Text, "2016")
}

func TestParsePagesFiltersFooters(t *testing.T) {
	dump := `--- [report] Page 1 ---
Real content line.
C:\Users\clerk\Desktop\report final.doc
Page \ 4
More real content.
`

	pages, err := ParsePages(strings.NewReader(dump), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, pages, 1)

	assert.NotContains(t, pages[0].Text, "Desktop")
	assert.NotContains(t, pages[0].Text, "Page \\")
	assert.Contains(t, pages[0].Text, "Real content line.")
	assert.Contains(t, pages[0].Text, "More real content.")
}

func TestParsePagesOptionsDisabled(t *testing.T) {
	dump := `--- [report] Page 1 ---
Year ૨૦૧૪.
C:\Users\clerk\Desktop\x.doc
`

	pages, err := ParsePages(strings.NewReader(dump), Options{})
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Contains(t, pages[0].Text, "૨૦૧૪")
	assert.Contains(t, pages[0].Text, "Desktop")
}

func TestParsePagesDropsEmptyPages(t *testing.T) {
	dump := `--- [report] Page 1 ---

--- [report] Page 2 ---
Content.
`

	pages, err := ParsePages(strings.NewReader(dump), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, 2, pages[0].PageNo)
}

func TestParsePagesTextBeforeMarker(t *testing.T) {
	_, err := ParsePages(strings.NewReader("stray text\n--- [r] Page 1 ---\nok\n"), DefaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before first page marker")
}

func TestNormalizeDigits(t *testing.T) {
	assert.Equal(t, "2014-15 and 2016", NormalizeDigits("૨૦૧૪-૧૫ and २०१६"))
	assert.Equal(t, "no digits here", NormalizeDigits("no digits here"))
}

func TestChunkTextShortPassesThrough(t *testing.T) {
	chunks := ChunkText("short page text", DefaultChunkConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, "short page text", chunks[0])
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Nil(t, ChunkText("   \n  ", DefaultChunkConfig()))
}

func TestChunkTextSplitsAtParagraphs(t *testing.T) {
	para := strings.Repeat("Allocation data for the district. ", 20) // ~680 chars
	text := para + "\n\n" + para + "\n\n" + para

	cfg := ChunkConfig{Threshold: 1000, TargetSize: 600, MaxSize: 1000, Overlap: 0}
	chunks := ChunkText(text, cfg)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), cfg.MaxSize+len(para))
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

func TestChunkTextOverlap(t *testing.T) {
	sentence := "The road budget for 2014 was approved by the district panchayat. "
	text := strings.Repeat(sentence, 60)

	cfg := ChunkConfig{Threshold: 500, TargetSize: 500, MaxSize: 500, Overlap: 100}
	chunks := ChunkText(text, cfg)
	require.Greater(t, len(chunks), 1)

	// Each chunk after the first starts with the tail of its predecessor.
	for i := 1; i < len(chunks); i++ {
		head := chunks[i][:20]
		assert.Contains(t, chunks[i-1]+" "+chunks[i], head)
		assert.True(t, len(chunks[i]) > 20)
	}
}

func TestApplyOverlapCarriesConfiguredLength(t *testing.T) {
	first := strings.TrimSpace(strings.Repeat("budget allocation figures ", 30)) // ~780 chars
	chunks := applyOverlap([]string{first, "next section"}, 300)

	carried := strings.TrimSuffix(chunks[1], "next section")
	carried = strings.TrimSpace(carried)

	// The carried tail loses at most one partial word off the front.
	assert.GreaterOrEqual(t, len(carried), 250)
	assert.LessOrEqual(t, len(carried), 300)
	assert.True(t, strings.HasSuffix(first, carried), "overlap must be a tail of the previous chunk")
	assert.Equal(t, first, chunks[0])
}

func TestChunkTextOverlapKeepsRunesIntact(t *testing.T) {
	sentence := "વર્ષ 2014 માટે માર્ગ બજેટ મંજૂર થયું હતું અને કામગીરી શરૂ થઈ. "
	text := strings.Repeat(sentence, 40)

	cfg := ChunkConfig{Threshold: 400, TargetSize: 400, MaxSize: 400, Overlap: 80}
	for _, c := range ChunkText(text, cfg) {
		assert.True(t, strings.ToValidUTF8(c, "") == c, "chunk contains split runes")
	}
}

func TestSplitSentencesDanda(t *testing.T) {
	sentences := splitSentences("પહેલું વાક્ય। બીજું વાક્ય। Third sentence.")
	require.Len(t, sentences, 3)
}

func TestSplitSentencesAbbreviations(t *testing.T) {
	sentences := splitSentences("Dr. Patel chaired the meeting. Smt. Mehta presented the report.")
	require.Len(t, sentences, 2)
	assert.Equal(t, "Dr. Patel chaired the meeting.", strings.TrimSpace(sentences[0]))
	assert.Equal(t, "Smt. Mehta presented the report.", strings.TrimSpace(sentences[1]))
}
