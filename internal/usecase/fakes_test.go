package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"NewsAgent/internal/domain"
)

type fakeCompletion struct {
	mu       sync.Mutex
	response string
	err      error
	prompts  []string
}

func (f *fakeCompletion) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeCompletion) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

// memoryRepository mimics the store's unique-URL semantics.
type memoryRepository struct {
	mu        sync.Mutex
	articles  []domain.Article
	addErr    error
	rejectURL string // when set, addErr applies to this URL only

	searched []string
	filters  []domain.ArticleFilter
}

func (m *memoryRepository) Add(_ context.Context, article domain.Article) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil && (m.rejectURL == "" || m.rejectURL == article.URL) {
		return false, m.addErr
	}
	for _, a := range m.articles {
		if a.URL == article.URL {
			return false, nil
		}
	}
	article.ID = int64(len(m.articles) + 1)
	m.articles = append(m.articles, article)
	return true, nil
}

func (m *memoryRepository) Exists(_ context.Context, url string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.articles {
		if a.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryRepository) List(_ context.Context, filter domain.ArticleFilter) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filters = append(m.filters, filter)

	var out []domain.Article
	for _, a := range m.articles {
		if filter.Relevance != "" && a.Relevance != filter.Relevance {
			continue
		}
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memoryRepository) Search(_ context.Context, text string) ([]domain.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searched = append(m.searched, text)

	needle := strings.ToLower(text)
	var out []domain.Article
	for _, a := range m.articles {
		if strings.Contains(strings.ToLower(a.Title+" "+a.Summary+" "+a.Content), needle) {
			out = append(out, a)
		}
	}
	return out, nil
}

type staticSource struct {
	batch domain.FetchBatch
}

func (s staticSource) FetchAll(context.Context) domain.FetchBatch {
	return s.batch
}

type fakeWeb struct {
	results []domain.WebResult
	err     error
	queries []string
	max     int
}

func (f *fakeWeb) Name() string { return "fake" }

func (f *fakeWeb) Search(_ context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	f.queries = append(f.queries, query)
	f.max = maxResults
	return f.results, f.err
}

type recordingNotifier struct {
	digests []string
	err     error
}

func (r *recordingNotifier) PublishDigest(_ context.Context, digest string) error {
	r.digests = append(r.digests, digest)
	return r.err
}

var errBoom = errors.New("boom")
