package domain

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseEnums(t *testing.T) {
	t.Parallel()

	rel, ok := ParseRelevance(" medium ")
	assert.True(t, ok)
	assert.Equal(t, RelevanceMedium, rel)

	_, ok = ParseRelevance("External")
	assert.False(t, ok, "External is reserved for web results")

	use, ok := ParseUsefulness("ACTIONABLE")
	assert.True(t, ok)
	assert.Equal(t, UsefulnessActionable, use)

	for _, in := range []string{"Long-term", "long term", "LONG_TERM"} {
		impact, ok := ParseImpactProximity(in)
		assert.True(t, ok, in)
		assert.Equal(t, ImpactLongTerm, impact, in)
	}

	_, ok = ParseImpactProximity("someday")
	assert.False(t, ok)
}

func TestNewArticleCopiesTags(t *testing.T) {
	t.Parallel()

	tags := []string{"go"}
	raw := RawArticle{Title: "T", URL: "http://a", Source: "S", ImageURL: "http://x/a.jpg"}
	article := NewArticle(raw, Judgment{Summary: "s", Relevance: RelevanceHigh, Tags: tags})
	tags[0] = "mutated"

	assert.Equal(t, []string{"go"}, article.Tags)
	assert.Equal(t, "http://a", article.URL)
	assert.Equal(t, "S", article.Source)
	assert.Equal(t, "http://x/a.jpg", article.ImageURL)
	assert.True(t, article.CreatedAt.IsZero(), "set by the store")
}

func TestResultItems(t *testing.T) {
	t.Parallel()

	fromStore := ResultFromArticle(Article{
		Title:         "Stored",
		PublishedDate: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Relevance:     RelevanceLow,
		Category:      "Tech",
	})
	assert.Equal(t, "2025-01-02T03:04:05Z", fromStore.PublishedDate)
	assert.False(t, fromStore.External)

	fromWeb := ResultFromWeb(WebResult{Title: "Web", URL: "https://e.com", Summary: "s"})
	assert.Equal(t, ResultItem{
		Title:         "Web",
		URL:           "https://e.com",
		PublishedDate: "Just now",
		Summary:       "s",
		Category:      "Web Result",
		Relevance:     RelevanceExternal,
		Tags:          []string{"web"},
		External:      true,
	}, fromWeb)
}

func TestDefaultIntent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Intent{Type: IntentLocalSearch, Keywords: "latest on my project"}, DefaultIntent("latest on my project"))
}

func TestSourceFailureUnwraps(t *testing.T) {
	t.Parallel()

	failure := SourceFailure{Source: "A", Err: io.ErrUnexpectedEOF}
	assert.True(t, errors.Is(failure, io.ErrUnexpectedEOF))
	assert.Equal(t, "source A: unexpected EOF", failure.Error())
}
