package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentimentPatch_Apply(t *testing.T) {
	score := 0.1
	rec := &SentimentRecord{
		Title:                 "old",
		Summary:               "keep",
		Authors:               []string{"A"},
		OverallSentimentScore: &score,
	}

	title := "new"
	authors := []string{"B", "C"}
	newScore := -0.5
	topics := []Topic{{Topic: "Tech", RelevanceScore: "0.9"}}
	SentimentPatch{
		Title:                 &title,
		Authors:               &authors,
		OverallSentimentScore: &newScore,
		Topics:                &topics,
	}.Apply(rec)

	assert.Equal(t, "new", rec.Title)
	assert.Equal(t, "keep", rec.Summary)
	assert.Equal(t, []string{"B", "C"}, rec.Authors)
	assert.Equal(t, topics, rec.Topics)
	assert.InDelta(t, -0.5, *rec.OverallSentimentScore, 1e-9)

	authors[0] = "mutated"
	assert.Equal(t, "B", rec.Authors[0])
}

func TestSentimentRecord_Clone(t *testing.T) {
	score := 0.3
	rec := &SentimentRecord{
		ID:                    "1",
		Authors:               []string{"A"},
		TickerSentiment:       []TickerSentiment{{Ticker: "AAPL"}},
		OverallSentimentScore: &score,
	}
	c := rec.Clone()
	c.Authors[0] = "Z"
	c.TickerSentiment[0].Ticker = "MSFT"
	*c.OverallSentimentScore = 9

	assert.Equal(t, "A", rec.Authors[0])
	assert.Equal(t, "AAPL", rec.TickerSentiment[0].Ticker)
	assert.InDelta(t, 0.3, *rec.OverallSentimentScore, 1e-9)
}

func TestSentimentRecord_MentionsTicker(t *testing.T) {
	rec := &SentimentRecord{TickerSentiment: []TickerSentiment{{Ticker: "AAPL"}, {Ticker: "MSFT"}}}
	assert.True(t, rec.MentionsTicker("MSFT"))
	assert.False(t, rec.MentionsTicker("msft"))
	assert.False(t, rec.MentionsTicker("GOOG"))
}
