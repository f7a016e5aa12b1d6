// Package normalize turns raw tabular rows into sentiment records.
//
// The topic and ticker grammars are lenient on purpose: entries that do not
// look like name(value) are dropped without a diagnostic, and the rest of
// the list is kept.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/sentivault/internal/server/models"
	"github.com/dmitrijs2005/sentivault/internal/server/tabular"
)

// Column names of the sentiment export.
const (
	ColTitle                 = "title"
	ColURL                   = "url"
	ColTimePublished         = "time_published"
	ColAuthors               = "authors"
	ColSummary               = "summary"
	ColBannerImage           = "banner_image"
	ColSource                = "source"
	ColCategoryWithinSource  = "category_within_source"
	ColSourceDomain          = "source_domain"
	ColTopics                = "topics"
	ColOverallSentimentScore = "overall_sentiment_score"
	ColOverallSentimentLabel = "overall_sentiment_label"
	ColTickerSentiment       = "ticker_sentiment"
)

// Greedy on both sides: "A(1)(2)" yields name "A(1)" and value "2".
var entryPattern = regexp.MustCompile(`(.+)\((.+)\)`)

// splitEntries yields (name, value) for every well-formed comma-separated entry.
func splitEntries(s string, fn func(name, value string)) {
	if s == "" {
		return
	}
	for _, item := range strings.Split(s, ",") {
		m := entryPattern.FindStringSubmatch(strings.TrimSpace(item))
		if m == nil {
			continue
		}
		fn(strings.TrimSpace(m[1]), strings.TrimSpace(m[2]))
	}
}

// ParseTopics parses "Crypto(0.9), Markets(0.5)". Scores keep their text.
func ParseTopics(s string) []models.Topic {
	topics := []models.Topic{}
	splitEntries(s, func(name, value string) {
		topics = append(topics, models.Topic{Topic: name, RelevanceScore: value})
	})
	return topics
}

// ParseTickerSentiment parses "BTC(Bullish), ETH(Neutral)". The parenthesized
// part is the label; scores cannot be derived from this form and stay empty.
func ParseTickerSentiment(s string) []models.TickerSentiment {
	tickers := []models.TickerSentiment{}
	splitEntries(s, func(name, value string) {
		tickers = append(tickers, models.TickerSentiment{
			Ticker:               name,
			TickerSentimentLabel: value,
		})
	})
	return tickers
}

// ParseAuthors splits a comma-separated author list, dropping blanks.
func ParseAuthors(s string) []string {
	authors := []string{}
	for _, a := range strings.Split(s, ",") {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	return authors
}

// ParseScore returns nil for blank, non-numeric or non-finite input.
func ParseScore(s string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Record maps one row onto a SentimentRecord owned by owner. Unknown columns
// are ignored. Identity and provenance fields are left for the caller.
func Record(row tabular.Row, owner string) *models.SentimentRecord {
	return &models.SentimentRecord{
		UploadedBy:            owner,
		Title:                 row[ColTitle],
		URL:                   row[ColURL],
		TimePublished:         row[ColTimePublished],
		Authors:               ParseAuthors(row[ColAuthors]),
		Summary:               row[ColSummary],
		BannerImage:           row[ColBannerImage],
		Source:                row[ColSource],
		CategoryWithinSource:  row[ColCategoryWithinSource],
		SourceDomain:          row[ColSourceDomain],
		Topics:                ParseTopics(row[ColTopics]),
		OverallSentimentScore: ParseScore(row[ColOverallSentimentScore]),
		OverallSentimentLabel: row[ColOverallSentimentLabel],
		TickerSentiment:       ParseTickerSentiment(row[ColTickerSentiment]),
	}
}
