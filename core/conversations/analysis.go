package conversations

import (
	"strings"
	"unicode/utf8"
)

// The heuristics below are plain case-insensitive substring checks. There is
// no negation handling, so "not interested" also counts as "interested".

var (
	positiveKeywords = []string{
		"yes", "sure", "great", "sounds good", "interested", "definitely",
		"love", "perfect", "excellent", "absolutely", "looking forward",
		"want", "need", "help", "solution", "problem",
	}
	negativeKeywords = []string{
		"no", "not interested", "busy", "not now", "maybe later",
		"don't need", "already have", "can't", "won't", "never",
	}
)

type keywordTag struct {
	tag      string
	keywords []string
}

var interestKeywords = []keywordTag{
	{"ai", []string{"ai", "artificial intelligence", "machine learning", "ml", "predictive", "models"}},
	{"data", []string{"data quality", "data pipeline", "data warehouse", "big data", "analytics"}},
	{"blockchain", []string{"blockchain", "security", "transparency", "supply chain"}},
	{"cloud", []string{"cloud", "infrastructure", "deployment", "devops"}},
	{"legacy", []string{"legacy", "modernization", "outdated", "old system"}},
	{"scaling", []string{"scaling", "scale", "growth", "expand", "production"}},
}

var objectionKeywords = []keywordTag{
	{"cost", []string{"expensive", "cost", "budget", "price", "afford"}},
	{"timing", []string{"not now", "later", "timing", "not ready", "too soon"}},
	{"internal_team", []string{"internal team", "in-house", "already have"}},
	{"need_info", []string{"think about", "need to discuss", "get back to you"}},
	{"competitor", []string{"already working", "another vendor", "current partner"}},
}

func countMatches(text string, keywords []string) int {
	count := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			count++
		}
	}
	return count
}

func matchTags(text string, table []keywordTag) []string {
	text = strings.ToLower(text)
	tags := []string{}
	for _, entry := range table {
		if countMatches(text, entry.keywords) > 0 {
			tags = append(tags, entry.tag)
		}
	}
	return tags
}

// AnalyzeSentiment compares positive and negative keyword hits. Ties are
// neutral.
func AnalyzeSentiment(text string) Sentiment {
	text = strings.ToLower(text)
	positive := countMatches(text, positiveKeywords)
	negative := countMatches(text, negativeKeywords)

	switch {
	case positive > negative:
		return SentimentPositive
	case negative > positive:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// ExtractInterests returns interest tags in table order.
func ExtractInterests(text string) []string {
	return matchTags(text, interestKeywords)
}

// DetectObjections returns objection tags in table order.
func DetectObjections(text string) []string {
	return matchTags(text, objectionKeywords)
}

// DeriveEngagement rates a single utterance; it does not average across
// turns.
func DeriveEngagement(text string, sentiment Sentiment) Engagement {
	length := utf8.RuneCountInString(text)
	switch {
	case length > 100 && sentiment != SentimentNegative:
		return EngagementHigh
	case length < 20 || sentiment == SentimentNegative:
		return EngagementLow
	default:
		return EngagementMedium
	}
}
