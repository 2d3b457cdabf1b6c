package dispatch

import "github.com/maleon-core-poc/server/internal/textmatch"

// QueryPolicy flags messages that must not be answered from, or written to,
// the response cache.
type QueryPolicy interface {
	// IsDynamic reports time-sensitive messages (weather, time, dates).
	IsDynamic(text string) bool
	// IsContextual reports messages that refer back to the conversation.
	IsContextual(text string) bool
}

// KeywordPolicy flags messages by accent-insensitive substring match.
type KeywordPolicy struct {
	Dynamic    []string
	Contextual []string
}

func NewKeywordPolicy(cfg Config) KeywordPolicy {
	return KeywordPolicy{Dynamic: cfg.DynamicWords, Contextual: cfg.ContextualPhrases}
}

func (p KeywordPolicy) IsDynamic(text string) bool {
	return textmatch.ContainsAny(text, p.Dynamic)
}

func (p KeywordPolicy) IsContextual(text string) bool {
	return textmatch.ContainsAny(text, p.Contextual)
}
