package domain

import "strings"

// UncategorizedCategory is assigned when no configured category fits.
const UncategorizedCategory = "Uncategorized"

// Relevance measures alignment with configured interests.
type Relevance string

const (
	RelevanceHigh   Relevance = "High"
	RelevanceMedium Relevance = "Medium"
	RelevanceLow    Relevance = "Low"
	// RelevanceExternal marks web results, which are never scored.
	RelevanceExternal Relevance = "External"
)

// ParseRelevance matches the stored tiers case-insensitively.
func ParseRelevance(value string) (Relevance, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "high":
		return RelevanceHigh, true
	case "medium":
		return RelevanceMedium, true
	case "low":
		return RelevanceLow, true
	default:
		return "", false
	}
}

// Usefulness describes how the reader can use an article.
type Usefulness string

const (
	UsefulnessActionable  Usefulness = "Actionable"
	UsefulnessInformative Usefulness = "Informative"
	UsefulnessBackground  Usefulness = "Background"
)

// ParseUsefulness matches known values case-insensitively.
func ParseUsefulness(value string) (Usefulness, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "actionable":
		return UsefulnessActionable, true
	case "informative":
		return UsefulnessInformative, true
	case "background":
		return UsefulnessBackground, true
	default:
		return "", false
	}
}

// ImpactProximity describes when an article's subject is expected to matter.
type ImpactProximity string

const (
	ImpactImmediate  ImpactProximity = "Immediate"
	ImpactShortTerm  ImpactProximity = "Short-term"
	ImpactLongTerm   ImpactProximity = "Long-term"
	ImpactBackground ImpactProximity = "Background"
)

// ParseImpactProximity accepts "Short-term", "short term" and "short_term" alike.
func ParseImpactProximity(value string) (ImpactProximity, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer(" ", "-", "_", "-").Replace(normalized)

	switch normalized {
	case "immediate":
		return ImpactImmediate, true
	case "short-term":
		return ImpactShortTerm, true
	case "long-term":
		return ImpactLongTerm, true
	case "background":
		return ImpactBackground, true
	default:
		return "", false
	}
}
