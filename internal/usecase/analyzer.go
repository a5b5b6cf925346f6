package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/metrics"
	"NewsAgent/internal/ports"
)

// MaxPromptContent bounds the article text submitted to the classification engine.
const MaxPromptContent = 5000

// Taxonomy is the interest and category list that guides classification.
type Taxonomy struct {
	Interests  []string
	Categories []string
}

// Analyzer turns a fetched draft into a Judgment. It never fails: any engine problem
// yields MockJudgment.
type Analyzer struct {
	engine    ports.CompletionClient
	taxonomy  Taxonomy
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// NewAnalyzer wires the engine; a nil engine means every article gets the mock judgment.
func NewAnalyzer(engine ports.CompletionClient, taxonomy Taxonomy, log *slog.Logger) *Analyzer {
	return &Analyzer{
		engine:    engine,
		taxonomy:  copyTaxonomy(taxonomy),
		sanitizer: bluemonday.StrictPolicy(),
		logger:    log,
	}
}

// Available reports whether a classification engine is configured.
func (a *Analyzer) Available() bool {
	return a != nil && a.engine != nil
}

// Analyze classifies a draft, falling back to MockJudgment on any engine failure.
func (a *Analyzer) Analyze(ctx context.Context, article domain.RawArticle) domain.Judgment {
	if !a.Available() {
		return MockJudgment(article.Title)
	}

	text, err := a.engine.Complete(ctx, a.buildPrompt(article))
	if err != nil {
		a.fallback("classification call failed", article, err)
		return MockJudgment(article.Title)
	}

	judgment, err := parseJudgment(text, a.taxonomy, article.Title)
	if err != nil {
		a.fallback("classification response unusable", article, err)
		return MockJudgment(article.Title)
	}

	return judgment
}

// MockJudgment is the deterministic judgment used when the engine is absent or misbehaves.
func MockJudgment(title string) domain.Judgment {
	return domain.Judgment{
		Summary:         "Mock summary: " + title,
		Relevance:       domain.RelevanceLow,
		Usefulness:      domain.UsefulnessBackground,
		ImpactProximity: domain.ImpactBackground,
		Category:        domain.UncategorizedCategory,
		Tags:            []string{"mock", "test"},
	}
}

const analyzePrompt = `You are a personal news intelligence assistant. Analyze the following article and provide a structured JSON response.

Article Details:
Title: %s
Source: %s
Feed category hint (advisory only): %s
Content: %s

Context:
User Interests: %s
Possible Categories: %s

CRITICAL INSTRUCTION:
Compare the article content rigorously against the User Interests.
- If the article is NOT related to any of the interests, set "relevance_score" to "Low".
- If it is tangentially related, set to "Medium".
- If it directly impacts or discusses a core interest, set to "High".

Required JSON Structure:
{
  "summary": "Concise 3-5 sentence summary. Focus on the 'So What?'",
  "relevance_score": "High, Medium, or Low",
  "usefulness": "Actionable, Informative, or Background",
  "impact_proximity": "Immediate, Short-term, Long-term, or Background",
  "category": "Select best fit from provided categories",
  "tags": ["tag1", "tag2", "tag3"]
}`

func (a *Analyzer) buildPrompt(article domain.RawArticle) string {
	hint := article.CategoryHint
	if hint == "" {
		hint = "none"
	}

	// The sanitizer escapes entities; the engine wants plain text.
	content := strings.TrimSpace(html.UnescapeString(a.sanitizer.Sanitize(article.Content)))
	content = truncateRunes(content, MaxPromptContent)

	return fmt.Sprintf(analyzePrompt,
		article.Title,
		article.Source,
		hint,
		content,
		strings.Join(a.taxonomy.Interests, ", "),
		strings.Join(a.taxonomy.Categories, ", "),
	)
}

type rawJudgment struct {
	Summary         json.RawMessage `json:"summary"`
	Relevance       json.RawMessage `json:"relevance_score"`
	Usefulness      json.RawMessage `json:"usefulness"`
	ImpactProximity json.RawMessage `json:"impact_proximity"`
	Category        json.RawMessage `json:"category"`
	Tags            json.RawMessage `json:"tags"`
}

// parseJudgment rejects anything that is not a JSON object. Inside an object, each missing
// or invalid field falls back to its MockJudgment value; the category must come from the taxonomy.
func parseJudgment(text string, taxonomy Taxonomy, title string) (domain.Judgment, error) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return domain.Judgment{}, fmt.Errorf("response is not a JSON object")
	}

	var raw rawJudgment
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return domain.Judgment{}, fmt.Errorf("decode judgment: %w", err)
	}

	mock := MockJudgment(title)
	judgment := domain.Judgment{
		Summary:         mock.Summary,
		Relevance:       mock.Relevance,
		Usefulness:      mock.Usefulness,
		ImpactProximity: mock.ImpactProximity,
		Category:        mock.Category,
		Tags:            mock.Tags,
	}

	if s := decodeString(raw.Summary); s != "" {
		judgment.Summary = s
	}
	if v, ok := domain.ParseRelevance(decodeString(raw.Relevance)); ok {
		judgment.Relevance = v
	}
	if v, ok := domain.ParseUsefulness(decodeString(raw.Usefulness)); ok {
		judgment.Usefulness = v
	}
	if v, ok := domain.ParseImpactProximity(decodeString(raw.ImpactProximity)); ok {
		judgment.ImpactProximity = v
	}
	if c, ok := matchCategory(decodeString(raw.Category), taxonomy.Categories); ok {
		judgment.Category = c
	}
	if tags := decodeTags(raw.Tags); len(tags) > 0 {
		judgment.Tags = tags
	}

	return judgment, nil
}

func decodeString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// decodeTags accepts a list of strings or a single comma separated string.
func decodeTags(raw json.RawMessage) []string {
	tags := []string{}
	if len(raw) == 0 {
		return tags
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				tags = append(tags, strings.TrimSpace(s))
			}
		}
		return tags
	}

	for _, part := range strings.Split(decodeString(raw), ",") {
		if part = strings.TrimSpace(part); part != "" {
			tags = append(tags, part)
		}
	}
	return tags
}

func matchCategory(value string, categories []string) (string, bool) {
	if value == "" {
		return "", false
	}
	for _, c := range categories {
		if strings.EqualFold(strings.TrimSpace(c), value) {
			return c, true
		}
	}
	return "", false
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "... (truncated)"
}

func copyTaxonomy(t Taxonomy) Taxonomy {
	return Taxonomy{
		Interests:  append([]string(nil), t.Interests...),
		Categories: append([]string(nil), t.Categories...),
	}
}

func (a *Analyzer) fallback(msg string, article domain.RawArticle, err error) {
	metrics.ClassificationFallbacks.WithLabelValues(metrics.StageAnalyze).Inc()
	if a.logger != nil {
		a.logger.Warn(msg, "url", article.URL, "title", article.Title, "error", err)
	}
}
