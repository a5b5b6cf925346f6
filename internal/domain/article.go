package domain

import "time"

// RawArticle is a feed entry that passed the store pre-filter and awaits classification.
type RawArticle struct {
	Title         string
	URL           string
	PublishedDate time.Time
	Content       string
	ImageURL      string
	Source        string
	CategoryHint  string
}

// Judgment is the structured classification of a single article.
type Judgment struct {
	Summary         string          `json:"summary"`
	Relevance       Relevance       `json:"relevance_score"`
	Usefulness      Usefulness      `json:"usefulness"`
	ImpactProximity ImpactProximity `json:"impact_proximity"`
	Category        string          `json:"category"`
	Tags            []string        `json:"tags"`
}

// Article is the persisted, classified record keyed by URL.
type Article struct {
	ID              int64           `json:"id"`
	Title           string          `json:"title"`
	URL             string          `json:"url"`
	PublishedDate   time.Time       `json:"published_date"`
	Content         string          `json:"content"`
	Summary         string          `json:"summary"`
	Tags            []string        `json:"tags"`
	Relevance       Relevance       `json:"relevance_score"`
	Usefulness      Usefulness      `json:"usefulness"`
	ImpactProximity ImpactProximity `json:"impact_proximity"`
	Category        string          `json:"category"`
	ImageURL        string          `json:"image_url,omitempty"`
	Source          string          `json:"source"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewArticle merges a fetched draft with its classification.
func NewArticle(raw RawArticle, j Judgment) Article {
	tags := make([]string, len(j.Tags))
	copy(tags, j.Tags)

	return Article{
		Title:           raw.Title,
		URL:             raw.URL,
		PublishedDate:   raw.PublishedDate,
		Content:         raw.Content,
		Summary:         j.Summary,
		Tags:            tags,
		Relevance:       j.Relevance,
		Usefulness:      j.Usefulness,
		ImpactProximity: j.ImpactProximity,
		Category:        j.Category,
		ImageURL:        raw.ImageURL,
		Source:          raw.Source,
	}
}

// ArticleFilter narrows Store listings; empty fields are ignored and set fields combine with AND.
type ArticleFilter struct {
	Limit     int
	Relevance Relevance
	Category  string
}
