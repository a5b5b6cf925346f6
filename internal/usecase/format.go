package usecase

import (
	"fmt"
	"strings"

	"NewsAgent/internal/domain"
)

// NoResultsMessage is rendered instead of an empty listing.
const NoResultsMessage = "No matching articles found."

var separator = strings.Repeat("-", 40)

// FormatResults renders items as fixed-field text blocks.
func FormatResults(items []domain.ResultItem) string {
	if len(items) == 0 {
		return NoResultsMessage
	}

	lines := make([]string, 0, len(items)*6)
	for _, item := range items {
		lines = append(lines,
			"Title: "+item.Title,
			"Date: "+item.PublishedDate,
			fmt.Sprintf("Category: %s | Relevance: %s", item.Category, item.Relevance),
			"Summary: "+item.Summary,
			"URL: "+item.URL,
			separator,
		)
	}
	return strings.Join(lines, "\n")
}

// FormatArticles renders stored articles the same way query results are rendered.
func FormatArticles(articles []domain.Article) string {
	return FormatResults(toResultItems(articles))
}
