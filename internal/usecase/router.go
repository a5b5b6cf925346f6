package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/metrics"
	"NewsAgent/internal/ports"
)

// MaxWebResults caps external search hits per query.
const MaxWebResults = 5

// QueryResult is the dispatched intent together with the uniform result list.
type QueryResult struct {
	Query  string              `json:"query"`
	Intent domain.Intent       `json:"intent"`
	Items  []domain.ResultItem `json:"articles"`
}

// RouterDeps wires the query router; Engine and Web may be nil.
type RouterDeps struct {
	Engine     ports.CompletionClient
	Repository ports.ArticleRepository
	Web        ports.WebSearcher
	WebLimit   int // clamped to (0, MaxWebResults]
	Logger     *slog.Logger
}

// Router interprets free-text queries and dispatches them to the store or the web.
type Router struct {
	engine     ports.CompletionClient
	repository ports.ArticleRepository
	web        ports.WebSearcher
	webLimit   int
	logger     *slog.Logger
}

// NewRouter constructs the query component.
func NewRouter(deps RouterDeps) *Router {
	limit := deps.WebLimit
	if limit <= 0 || limit > MaxWebResults {
		limit = MaxWebResults
	}

	return &Router{
		engine:     deps.Engine,
		repository: deps.Repository,
		web:        deps.Web,
		webLimit:   limit,
		logger:     deps.Logger,
	}
}

// Handle performs one intent extraction followed by one dispatch.
// Only store failures are returned.
func (r *Router) Handle(ctx context.Context, query string) (QueryResult, error) {
	intent := r.ExtractIntent(ctx, query)
	metrics.Queries.WithLabelValues(string(intent.Type)).Inc()

	result := QueryResult{Query: query, Intent: intent, Items: []domain.ResultItem{}}

	switch intent.Type {
	case domain.IntentWebSearch:
		result.Items = r.searchWeb(ctx, intent.Keywords)
		return result, nil

	case domain.IntentFilter:
		// Zero limit selects the store default.
		articles, err := r.repository.List(ctx, domain.ArticleFilter{
			Relevance: intent.Relevance,
			Category:  intent.Category,
		})
		if err != nil {
			return result, fmt.Errorf("filter articles: %w", err)
		}
		result.Items = toResultItems(articles)
		return result, nil

	default:
		articles, err := r.repository.Search(ctx, intent.Keywords)
		if err != nil {
			return result, fmt.Errorf("search articles: %w", err)
		}
		result.Items = toResultItems(articles)
		return result, nil
	}
}

const intentPrompt = `Extract search intent from the user query.
Query: %q

Determine if the user wants to search the "web" (general knowledge, current events not in the saved articles),
"local" saved news articles by keyword, or a "filter" over saved articles by relevance or category.

Return a JSON object with:
- type: "web_search", "local_search" or "filter"
- keywords: (for searches) extracted keywords
- category: (optional) inferred category
- relevance: (optional) inferred relevance level (High/Medium/Low)`

// ExtractIntent asks the engine for an intent; any failure yields domain.DefaultIntent.
func (r *Router) ExtractIntent(ctx context.Context, query string) domain.Intent {
	if r.engine == nil {
		return domain.DefaultIntent(query)
	}

	text, err := r.engine.Complete(ctx, fmt.Sprintf(intentPrompt, query))
	if err != nil {
		r.intentFallback(query, err)
		return domain.DefaultIntent(query)
	}

	intent, err := parseIntent(text, query)
	if err != nil {
		r.intentFallback(query, err)
		return domain.DefaultIntent(query)
	}
	return intent
}

type rawIntent struct {
	Type      json.RawMessage `json:"type"`
	Keywords  json.RawMessage `json:"keywords"`
	Category  json.RawMessage `json:"category"`
	Relevance json.RawMessage `json:"relevance"`
}

func parseIntent(text, query string) (domain.Intent, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return domain.Intent{}, fmt.Errorf("response is not a JSON object")
	}

	var raw rawIntent
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return domain.Intent{}, fmt.Errorf("decode intent: %w", err)
	}

	intent := domain.Intent{
		Keywords: decodeString(raw.Keywords),
		Category: decodeString(raw.Category),
	}
	if rel, ok := domain.ParseRelevance(decodeString(raw.Relevance)); ok {
		intent.Relevance = rel
	}

	switch strings.ToLower(decodeString(raw.Type)) {
	case "web_search", "web":
		intent.Type = domain.IntentWebSearch
	case "local_search", "search", "local":
		intent.Type = domain.IntentLocalSearch
	case "filter":
		intent.Type = domain.IntentFilter
		intent.Keywords = ""
		return intent, nil
	default:
		return domain.Intent{}, fmt.Errorf("unknown intent type %s", string(raw.Type))
	}

	if intent.Keywords == "" {
		intent.Keywords = query
	}
	return intent, nil
}

func (r *Router) searchWeb(ctx context.Context, keywords string) []domain.ResultItem {
	items := []domain.ResultItem{}
	if r.web == nil {
		return items
	}

	hits, err := r.web.Search(ctx, keywords, r.webLimit)
	if err != nil {
		metrics.WebSearchFailures.Inc()
		if r.logger != nil {
			r.logger.Warn("web search failed", "provider", r.web.Name(), "query", keywords, "error", err)
		}
		return items
	}

	for i, hit := range hits {
		if i == r.webLimit {
			break
		}
		items = append(items, domain.ResultFromWeb(hit))
	}
	return items
}

func (r *Router) intentFallback(query string, err error) {
	metrics.ClassificationFallbacks.WithLabelValues(metrics.StageIntent).Inc()
	if r.logger != nil {
		r.logger.Warn("intent extraction failed", "query", query, "error", err)
	}
}

func toResultItems(articles []domain.Article) []domain.ResultItem {
	items := make([]domain.ResultItem, 0, len(articles))
	for _, article := range articles {
		items = append(items, domain.ResultFromArticle(article))
	}
	return items
}
