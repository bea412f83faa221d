package years

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mehulvora/govqa-go/internal/models"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"no years", "what is the education budget", []string{}},
		{"single bare year", "What was the budget in 2014?", []string{"2014"}},
		{"multiple bare years", "compare 2015 and 2017 spending", []string{"2015", "2017"}},
		{"short financial year", "2013-14 budget", []string{"2013", "2014"}},
		{"long financial year", "allocation for 2013-2014", []string{"2013", "2014"}},
		{"en dash range", "report 2019–20", []string{"2019", "2020"}},
		{"range plus bare year", "2013-14 vs 2016", []string{"2013", "2014", "2016"}},
		{"duplicates collapse", "2014 and again 2014", []string{"2014"}},
		{"century rollover short form", "winter 2099-00 session", []string{"2000", "2099"}},
		{"19xx ignored", "the 1998 act", []string{}},
		{"year inside longer number", "ref 92014537", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.query)
			assert.ElementsMatch(t, tt.want, got)
			assert.IsIncreasing(t, got)
		})
	}
}

func TestInText(t *testing.T) {
	got := InText("spent in 2014, carried to 2016; 2014 again")
	assert.Equal(t, []string{"2014", "2016"}, got)

	assert.Empty(t, InText("no years here"))
}

func TestFilterChunks(t *testing.T) {
	chunks := []models.Chunk{
		{Text: "budget 2013 allocation", DocName: "a.pdf", PageNo: 1},
		{Text: "budget 2014 allocation", DocName: "b.pdf", PageNo: 2},
		{Text: "general notes", DocName: "c.pdf", PageNo: 3},
	}

	t.Run("empty year set is identity", func(t *testing.T) {
		got := FilterChunks(chunks, nil)
		assert.Equal(t, chunks, got)
	})

	t.Run("keeps only matching chunks in order", func(t *testing.T) {
		got := FilterChunks(chunks, []string{"2014"})
		assert.Len(t, got, 1)
		assert.Equal(t, "b.pdf", got[0].DocName)
	})

	t.Run("multiple years keep union preserving order", func(t *testing.T) {
		got := FilterChunks(chunks, []string{"2013", "2014"})
		assert.Len(t, got, 2)
		assert.Equal(t, "a.pdf", got[0].DocName)
		assert.Equal(t, "b.pdf", got[1].DocName)
	})

	t.Run("no match falls back to full input", func(t *testing.T) {
		got := FilterChunks(chunks, []string{"2021"})
		assert.Equal(t, chunks, got)
	})

	t.Run("empty input stays empty", func(t *testing.T) {
		got := FilterChunks(nil, []string{"2014"})
		assert.Empty(t, got)
	})
}
