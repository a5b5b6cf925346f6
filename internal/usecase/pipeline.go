package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"NewsAgent/internal/domain"
	"NewsAgent/internal/metrics"
	"NewsAgent/internal/ports"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Source     ports.ArticleSource
	Analyzer   ports.Analyzer
	Repository ports.ArticleRepository
	Notifier   ports.Notifier
	Logger     *slog.Logger
}

// IngestReport summarises one ingestion run.
type IngestReport struct {
	Fetched       int                    `json:"fetched"`
	Stored        int                    `json:"stored"`
	Duplicates    int                    `json:"duplicates"`
	Failed        int                    `json:"failed"`
	FailedSources []domain.SourceFailure `json:"-"`
}

// Progress is called before each draft is classified.
type Progress func(index, total int, title string)

// Pipeline implements the fetch, classify, persist workflow.
type Pipeline struct {
	source     ports.ArticleSource
	analyzer   ports.Analyzer
	repository ports.ArticleRepository
	notifier   ports.Notifier
	logger     *slog.Logger
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	return &Pipeline{
		source:     deps.Source,
		analyzer:   deps.Analyzer,
		repository: deps.Repository,
		notifier:   deps.Notifier,
		logger:     deps.Logger,
	}
}

// Ingest fetches every source, then classifies and persists drafts one at a time.
// Source, classification and single-article write failures are absorbed; the run aborts
// only when the context ends or the store reports domain.ErrStoreUnavailable.
func (p *Pipeline) Ingest(ctx context.Context, progress Progress) (IngestReport, error) {
	var report IngestReport
	if p.source == nil || p.repository == nil {
		return report, nil
	}

	batch := p.source.FetchAll(ctx)
	report.Fetched = len(batch.Articles)
	report.FailedSources = batch.Failures

	var digest []domain.Article
	for i, raw := range batch.Articles {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if progress != nil {
			progress(i+1, len(batch.Articles), raw.Title)
		}

		judgment := MockJudgment(raw.Title)
		if p.analyzer != nil {
			judgment = p.analyzer.Analyze(ctx, raw)
		}

		article := domain.NewArticle(raw, judgment)
		inserted, err := p.repository.Add(ctx, article)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			if errors.Is(err, domain.ErrStoreUnavailable) {
				return report, fmt.Errorf("persist article %s: %w", raw.URL, err)
			}
			report.Failed++
			metrics.IngestedArticles.WithLabelValues(metrics.OutcomeFailed).Inc()
			p.warn("article not stored", "url", raw.URL, "error", err)
			continue
		}
		if !inserted {
			report.Duplicates++
			metrics.IngestedArticles.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			p.debug("duplicate skipped", "url", raw.URL)
			continue
		}

		report.Stored++
		metrics.IngestedArticles.WithLabelValues(metrics.OutcomeStored).Inc()
		if article.Relevance == domain.RelevanceHigh {
			digest = append(digest, article)
		}
	}

	p.info("ingestion finished",
		"fetched", report.Fetched,
		"stored", report.Stored,
		"duplicates", report.Duplicates,
		"failed", report.Failed,
		"failed_sources", len(report.FailedSources))

	p.notify(ctx, digest)
	return report, nil
}

func (p *Pipeline) notify(ctx context.Context, digest []domain.Article) {
	if p.notifier == nil || len(digest) == 0 {
		return
	}

	if err := p.notifier.PublishDigest(ctx, buildDigestMessage(digest)); err != nil && p.logger != nil {
		p.logger.Warn("digest not delivered", "articles", len(digest), "error", err)
	}
}

func buildDigestMessage(articles []domain.Article) string {
	if len(articles) == 0 {
		return ""
	}

	var b strings.Builder
	for _, article := range articles {
		fmt.Fprintf(&b, "- %s\n%s | %s\n%s\n%s\n\n",
			article.Title,
			article.Category,
			article.ImpactProximity,
			article.Summary,
			article.URL)
	}

	return strings.TrimRight(b.String(), "\n")
}

func (p *Pipeline) debug(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Debug(msg, args...)
	}
}

func (p *Pipeline) warn(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

func (p *Pipeline) info(msg string, args ...interface{}) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
