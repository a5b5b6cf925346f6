package domain

import "time"

// IntentType enumerates the retrieval strategies a query can be routed to.
type IntentType string

const (
	IntentWebSearch   IntentType = "web_search"
	IntentLocalSearch IntentType = "local_search"
	IntentFilter      IntentType = "filter"
)

// Intent is the interpreted purpose of a free-text query. It is never persisted.
type Intent struct {
	Type      IntentType `json:"type"`
	Keywords  string     `json:"keywords,omitempty"`
	Category  string     `json:"category,omitempty"`
	Relevance Relevance  `json:"relevance,omitempty"`
}

// DefaultIntent is used whenever intent extraction is unavailable or fails.
func DefaultIntent(query string) Intent {
	return Intent{Type: IntentLocalSearch, Keywords: query}
}

const (
	webResultCategory = "Web Result"
	webResultDate     = "Just now"
)

// WebResult is an external search hit; it is never written to the store.
type WebResult struct {
	Title   string
	URL     string
	Summary string
}

// ResultItem is the uniform shape rendered for both stored articles and web results.
type ResultItem struct {
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	PublishedDate string    `json:"published_date"`
	Summary       string    `json:"summary"`
	Category      string    `json:"category"`
	Relevance     Relevance `json:"relevance_score"`
	Tags          []string  `json:"tags"`
	ImageURL      string    `json:"image_url,omitempty"`
	External      bool      `json:"external"`
}

// ResultFromArticle converts a stored article for display.
func ResultFromArticle(a Article) ResultItem {
	return ResultItem{
		Title:         a.Title,
		URL:           a.URL,
		PublishedDate: a.PublishedDate.Format(time.RFC3339),
		Summary:       a.Summary,
		Category:      a.Category,
		Relevance:     a.Relevance,
		Tags:          a.Tags,
		ImageURL:      a.ImageURL,
	}
}

// ResultFromWeb converts a web hit with its fixed relevance and category.
func ResultFromWeb(w WebResult) ResultItem {
	return ResultItem{
		Title:         w.Title,
		URL:           w.URL,
		PublishedDate: webResultDate,
		Summary:       w.Summary,
		Category:      webResultCategory,
		Relevance:     RelevanceExternal,
		Tags:          []string{"web"},
		External:      true,
	}
}
