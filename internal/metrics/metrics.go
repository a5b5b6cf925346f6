// Package metrics declares the prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsagent"

var (
	// IngestedArticles counts persistence outcomes.
	// Labels: outcome (stored, duplicate, failed)
	IngestedArticles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "articles_total",
			Help:      "Articles passed to the store by outcome",
		},
		[]string{"outcome"},
	)

	// FeedSourceFailures counts feed sources skipped because they could not be fetched or parsed.
	FeedSourceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feed_source_failures_total",
			Help:      "Feed sources that failed during ingestion",
		},
	)

	// ClassificationFallbacks counts deterministic fallbacks.
	// Labels: stage (analyze, intent)
	ClassificationFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classification_fallbacks_total",
			Help:      "Classification engine calls replaced by the deterministic fallback",
		},
		[]string{"stage"},
	)

	// Queries counts routed queries.
	// Labels: intent (web_search, local_search, filter)
	Queries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "queries_total",
			Help:      "Queries by dispatched intent",
		},
		[]string{"intent"},
	)

	WebSearchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "web_search_failures_total",
			Help:      "External web searches that failed",
		},
	)
)

const (
	OutcomeStored    = "stored"
	OutcomeDuplicate = "duplicate"
	OutcomeFailed    = "failed"

	StageAnalyze = "analyze"
	StageIntent  = "intent"
)
