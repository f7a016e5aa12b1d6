package models

import "time"

// Topic is a (name, relevance) pair. Scores keep the exact text of the source.
type Topic struct {
	Topic          string `json:"topic"`
	RelevanceScore string `json:"relevance_score"`
}

// TickerSentiment describes one ticker mentioned by an article.
type TickerSentiment struct {
	Ticker               string `json:"ticker"`
	RelevanceScore       string `json:"relevance_score"`
	TickerSentimentScore string `json:"ticker_sentiment_score"`
	TickerSentimentLabel string `json:"ticker_sentiment_label"`
}

// SentimentRecord is one normalized row of a market-sentiment upload. Topics
// and TickerSentiment belong to the record and are stored with it.
type SentimentRecord struct {
	ID           string    `json:"id"`
	UploadedBy   string    `json:"uploaded_by"`
	SourceFile   string    `json:"source_file"`
	OriginalName string    `json:"original_name"`
	SizeBytes    int64     `json:"size_bytes"`
	CreatedAt    time.Time `json:"created_at"`

	Title                 string            `json:"title"`
	URL                   string            `json:"url"`
	TimePublished         string            `json:"time_published"`
	Authors               []string          `json:"authors"`
	Summary               string            `json:"summary"`
	BannerImage           string            `json:"banner_image"`
	Source                string            `json:"source"`
	CategoryWithinSource  string            `json:"category_within_source"`
	SourceDomain          string            `json:"source_domain"`
	Topics                []Topic           `json:"topics"`
	OverallSentimentScore *float64          `json:"overall_sentiment_score"`
	OverallSentimentLabel string            `json:"overall_sentiment_label"`
	TickerSentiment       []TickerSentiment `json:"ticker_sentiment"`
}

func (r *SentimentRecord) FileID() string         { return r.ID }
func (r *SentimentRecord) OwnerID() string        { return r.UploadedBy }
func (r *SentimentRecord) CiphertextPath() string { return r.SourceFile }
func (r *SentimentRecord) Kind() FileKind         { return KindSentiment }
func (r *SentimentRecord) Name() string           { return r.OriginalName }

// SentimentPatch lists the fields an update may change; nil leaves a field alone.
type SentimentPatch struct {
	Title                 *string            `json:"title,omitempty"`
	URL                   *string            `json:"url,omitempty"`
	TimePublished         *string            `json:"time_published,omitempty"`
	Authors               *[]string          `json:"authors,omitempty"`
	Summary               *string            `json:"summary,omitempty"`
	BannerImage           *string            `json:"banner_image,omitempty"`
	Source                *string            `json:"source,omitempty"`
	CategoryWithinSource  *string            `json:"category_within_source,omitempty"`
	SourceDomain          *string            `json:"source_domain,omitempty"`
	Topics                *[]Topic           `json:"topics,omitempty"`
	OverallSentimentScore *float64           `json:"overall_sentiment_score,omitempty"`
	OverallSentimentLabel *string            `json:"overall_sentiment_label,omitempty"`
	TickerSentiment       *[]TickerSentiment `json:"ticker_sentiment,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p SentimentPatch) Empty() bool {
	return p == SentimentPatch{}
}

// SentimentFilter narrows a sentiment listing. Zero values do not filter.
type SentimentFilter struct {
	UploadedBy string
	Ticker     string
	Label      string
	Limit      int
	Offset     int
}

// Apply copies every set field of p onto r.
func (p SentimentPatch) Apply(r *SentimentRecord) {
	setString(&r.Title, p.Title)
	setString(&r.URL, p.URL)
	setString(&r.TimePublished, p.TimePublished)
	setString(&r.Summary, p.Summary)
	setString(&r.BannerImage, p.BannerImage)
	setString(&r.Source, p.Source)
	setString(&r.CategoryWithinSource, p.CategoryWithinSource)
	setString(&r.SourceDomain, p.SourceDomain)
	setString(&r.OverallSentimentLabel, p.OverallSentimentLabel)
	if p.Authors != nil {
		r.Authors = append([]string{}, (*p.Authors)...)
	}
	if p.Topics != nil {
		r.Topics = append([]Topic{}, (*p.Topics)...)
	}
	if p.TickerSentiment != nil {
		r.TickerSentiment = append([]TickerSentiment{}, (*p.TickerSentiment)...)
	}
	if p.OverallSentimentScore != nil {
		v := *p.OverallSentimentScore
		r.OverallSentimentScore = &v
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// Clone returns a deep copy of r.
func (r *SentimentRecord) Clone() *SentimentRecord {
	c := *r
	c.Authors = append([]string(nil), r.Authors...)
	c.Topics = append([]Topic(nil), r.Topics...)
	c.TickerSentiment = append([]TickerSentiment(nil), r.TickerSentiment...)
	if r.OverallSentimentScore != nil {
		v := *r.OverallSentimentScore
		c.OverallSentimentScore = &v
	}
	return &c
}

// MentionsTicker reports whether any ticker entry equals ticker exactly.
func (r *SentimentRecord) MentionsTicker(ticker string) bool {
	for _, ts := range r.TickerSentiment {
		if ts.Ticker == ticker {
			return true
		}
	}
	return false
}
