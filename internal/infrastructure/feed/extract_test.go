package feed

import (
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"
	"github.com/stretchr/testify/assert"

	"NewsAgent/internal/config"
)

func mediaItem(kind, url string) *gofeed.Item {
	return &gofeed.Item{
		Extensions: ext.Extensions{
			"media": {
				kind: []ext.Extension{{Attrs: map[string]string{"url": url}}},
			},
		},
	}
}

func TestExtractImageURL_InlineImageOnly(t *testing.T) {
	t.Parallel()

	item := &gofeed.Item{}
	got := ExtractImageURL(item, `<p>intro</p><img src="http://x/a.jpg"><img src="http://x/b.jpg">`)
	assert.Equal(t, "http://x/a.jpg", got)
}

func TestExtractImageURL_MediaContentBeatsInline(t *testing.T) {
	t.Parallel()

	item := mediaItem("content", "http://cdn/media.png")
	item.Enclosures = []*gofeed.Enclosure{{URL: "http://cdn/enc.jpg", Type: "image/jpeg"}}

	got := ExtractImageURL(item, `<img src="http://x/inline.jpg">`)
	assert.Equal(t, "http://cdn/media.png", got)
}

func TestExtractImageURL_ThumbnailBeforeEnclosure(t *testing.T) {
	t.Parallel()

	item := mediaItem("thumbnail", "http://cdn/thumb.jpg")
	item.Enclosures = []*gofeed.Enclosure{{URL: "http://cdn/enc.jpg", Type: "image/jpeg"}}

	assert.Equal(t, "http://cdn/thumb.jpg", ExtractImageURL(item, ""))
}

func TestExtractImageURL_MediaGroup(t *testing.T) {
	t.Parallel()

	item := &gofeed.Item{
		Extensions: ext.Extensions{
			"media": {
				"group": []ext.Extension{{
					Children: map[string][]ext.Extension{
						"content": {{Attrs: map[string]string{"url": "http://cdn/grouped.jpg"}}},
					},
				}},
			},
		},
	}

	assert.Equal(t, "http://cdn/grouped.jpg", ExtractImageURL(item, ""))
}

func TestExtractImageURL_FirstImageEnclosure(t *testing.T) {
	t.Parallel()

	item := &gofeed.Item{
		Enclosures: []*gofeed.Enclosure{
			{URL: "http://cdn/episode.mp3", Type: "audio/mpeg"},
			{URL: "http://cdn/cover.png", Type: "image/png"},
			{URL: "http://cdn/other.jpg", Type: "image/jpeg"},
		},
	}

	assert.Equal(t, "http://cdn/cover.png", ExtractImageURL(item, `<img src="http://x/inline.jpg">`))
}

func TestExtractImageURL_NoImage(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ExtractImageURL(&gofeed.Item{}, ""))
	assert.Empty(t, ExtractImageURL(&gofeed.Item{}, "<p>no pictures</p>"))
	assert.Empty(t, ExtractImageURL(&gofeed.Item{}, `<img alt="missing src"><img src="http://x/second.jpg">`))
}

func TestEntryContentFallback(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "full", entryContent(&gofeed.Item{Content: "full", Description: "summary"}))
	assert.Equal(t, "summary", entryContent(&gofeed.Item{Description: "summary"}))
	assert.Equal(t, "", entryContent(&gofeed.Item{}))
}

func TestEntryURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "http://a/1", entryURL(&gofeed.Item{Link: " http://a/1 ", GUID: "http://a/guid"}))
	assert.Equal(t, "http://a/guid", entryURL(&gofeed.Item{GUID: "http://a/guid"}))
	assert.Empty(t, entryURL(&gofeed.Item{GUID: "tag:example.com,2025:1"}))
}

func TestBuildDraftDefaultsPublishedToNow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.May, 5, 8, 0, 0, 0, time.UTC)
	published := time.Date(2025, time.May, 1, 8, 0, 0, 0, time.UTC)
	source := config.FeedConfig{Name: "Go Blog", URL: "https://go.dev/blog/feed.atom", Category: "Tech"}

	withDate := buildDraft(&gofeed.Item{Title: " Title ", PublishedParsed: &published}, "http://a", source, now)
	assert.True(t, withDate.PublishedDate.Equal(published))
	assert.Equal(t, "Title", withDate.Title)
	assert.Equal(t, "Go Blog", withDate.Source)
	assert.Equal(t, "Tech", withDate.CategoryHint)

	withoutDate := buildDraft(&gofeed.Item{Title: "T"}, "http://b", source, now)
	assert.True(t, withoutDate.PublishedDate.Equal(now))
}
