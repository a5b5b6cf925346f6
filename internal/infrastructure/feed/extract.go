package feed

import (
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
)

func buildDraft(item *gofeed.Item, link string, source config.FeedConfig, now time.Time) domain.RawArticle {
	content := entryContent(item)

	return domain.RawArticle{
		Title:         strings.TrimSpace(item.Title),
		URL:           link,
		PublishedDate: entryPublished(item, now),
		Content:       content,
		ImageURL:      ExtractImageURL(item, content),
		Source:        source.Name,
		CategoryHint:  source.Category,
	}
}

// entryURL prefers the entry link and falls back to a GUID that is itself an absolute URL.
func entryURL(item *gofeed.Item) string {
	if link := strings.TrimSpace(item.Link); link != "" {
		return link
	}

	guid := strings.TrimSpace(item.GUID)
	if u, err := url.Parse(guid); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return guid
	}
	return ""
}

// entryContent: full content, else summary, else empty.
func entryContent(item *gofeed.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Description
}

func entryPublished(item *gofeed.Item, now time.Time) time.Time {
	if item.PublishedParsed != nil {
		return *item.PublishedParsed
	}
	return now
}

// ExtractImageURL picks the article image.
// Priority: media:content > media:thumbnail > enclosure (image/*) > first <img> in content.
func ExtractImageURL(item *gofeed.Item, content string) string {
	if u := firstMediaURL(item, "content"); u != "" {
		return u
	}

	if u := firstMediaURL(item, "thumbnail"); u != "" {
		return u
	}

	for _, enc := range item.Enclosures {
		if enc == nil {
			continue
		}
		if strings.HasPrefix(strings.ToLower(enc.Type), "image/") && enc.URL != "" {
			return enc.URL
		}
	}

	if content == "" {
		return ""
	}
	return firstInlineImage(content)
}

func firstMediaURL(item *gofeed.Item, name string) string {
	mediaExt, ok := item.Extensions["media"]
	if !ok {
		return ""
	}

	for _, entry := range mediaExt[name] {
		if u := strings.TrimSpace(entry.Attrs["url"]); u != "" {
			return u
		}
	}

	// media:group wraps the same elements in some feeds.
	for _, group := range mediaExt["group"] {
		for _, entry := range group.Children[name] {
			if u := strings.TrimSpace(entry.Attrs["url"]); u != "" {
				return u
			}
		}
	}

	return ""
}

// firstInlineImage only looks at the first <img>; an element without src yields nothing.
func firstInlineImage(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return ""
	}

	src, _ := doc.Find("img").First().Attr("src")
	return strings.TrimSpace(src)
}
