// Package matcher routes a free-text query to the best cataloged topic through
// a four-stage cascade: exact name, keyword overlap, vector similarity and the
// fallback term table. Each stage runs only when the previous one found nothing.
package matcher

import (
	"fmt"
	"log/slog"
	"strings"

	"InterestBot/internal/catalog"
	"InterestBot/internal/domain"
	"InterestBot/internal/similarity"
	"InterestBot/internal/textnorm"
)

const (
	DefaultKeywordThreshold = 0.3
	DefaultVectorThreshold  = 0.15
	DefaultFallbackScore    = 0.4
)

// Options holds the acceptance thresholds. Zero values take the defaults.
type Options struct {
	KeywordThreshold float64
	VectorThreshold  float64
	FallbackScore    float64
}

func (o Options) withDefaults() Options {
	if o.KeywordThreshold <= 0 {
		o.KeywordThreshold = DefaultKeywordThreshold
	}
	if o.VectorThreshold <= 0 {
		o.VectorThreshold = DefaultVectorThreshold
	}
	if o.FallbackScore <= 0 {
		o.FallbackScore = DefaultFallbackScore
	}
	return o
}

// Engine is read-only after New and safe for concurrent use.
type Engine struct {
	catalog    *catalog.Catalog
	index      *similarity.Index
	normalizer *textnorm.Normalizer
	opts       Options
	logger     *slog.Logger

	topics   []domain.Topic
	keywords []map[string]struct{}
}

// New wires the engine. index may be nil, which disables the vector stage.
func New(cat *catalog.Catalog, index *similarity.Index, normalizer *textnorm.Normalizer, opts Options, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}

	e := &Engine{
		catalog:    cat,
		index:      index,
		normalizer: normalizer,
		opts:       opts.withDefaults(),
		logger:     logger,
		topics:     cat.All(),
	}

	e.keywords = make([]map[string]struct{}, len(e.topics))
	for i, t := range e.topics {
		set := make(map[string]struct{}, len(t.Keywords))
		for _, kw := range t.Keywords {
			for _, stem := range normalizer.Normalize(kw, cat.Language()).Tokens {
				set[stem] = struct{}{}
			}
		}
		e.keywords[i] = set
	}

	return e
}

// BuildIndex vectorizes every topic's name, keywords and description with the
// normalizer, in catalog order.
func BuildIndex(cat *catalog.Catalog, normalizer *textnorm.Normalizer, maxFeatures int) (*similarity.Index, error) {
	topics := cat.All()
	docs := make([]similarity.Document, 0, len(topics))
	for _, t := range topics {
		text := t.Name + " " + strings.Join(t.Keywords, " ") + " " + t.Description
		docs = append(docs, similarity.Document{
			Name:   t.Name,
			Tokens: normalizer.Normalize(text, cat.Language()).Tokens,
		})
	}

	index, err := similarity.Build(docs, similarity.Options{MaxFeatures: maxFeatures})
	if err != nil {
		return nil, fmt.Errorf("build topic index: %w", err)
	}
	return index, nil
}

// Match runs the cascade. It never panics; internal failures surface as a
// result with reason "error".
func (e *Engine) Match(query string) (result domain.MatchResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("match failed", "query", query, "panic", r)
			result = domain.NoMatch(domain.ReasonError)
		}
	}()

	if strings.TrimSpace(query) == "" {
		return domain.NoMatch(domain.ReasonNone)
	}

	if res, ok := e.exact(query); ok {
		return e.found("exact match", query, res)
	}

	tokens := e.normalizer.Normalize(query, textnorm.AutoDetect).Tokens

	if res, ok := e.keywordOverlap(tokens); ok {
		return e.found("keyword match", query, res)
	}
	if res, ok := e.vector(tokens); ok {
		return e.found("vector match", query, res)
	}
	if res, ok := e.fallback(query); ok {
		return e.found("fallback term match", query, res)
	}

	e.logger.Info("no topic matched", "query", query)
	return domain.NoMatch(domain.ReasonNone)
}

func (e *Engine) found(msg, query string, res domain.MatchResult) domain.MatchResult {
	e.logger.Info(msg, "query", query, "topic", res.Topic.Name, "score", res.Score, "reason", res.Reason, "term", res.Term)
	return res
}

func (e *Engine) exact(query string) (domain.MatchResult, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	for i := range e.topics {
		name := strings.ToLower(e.topics[i].Name)
		if strings.Contains(name, q) || strings.Contains(q, name) {
			return e.result(i, 1.0, domain.ReasonExact, ""), true
		}
	}
	return domain.MatchResult{}, false
}

func (e *Engine) keywordOverlap(tokens []string) (domain.MatchResult, bool) {
	best, bestScore := -1, 0.0
	for i := range e.topics {
		if score := OverlapScore(tokens, e.keywords[i]); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < e.opts.KeywordThreshold {
		return domain.MatchResult{}, false
	}
	return e.result(best, bestScore, domain.ReasonKeywordOverlap, ""), true
}

func (e *Engine) vector(tokens []string) (domain.MatchResult, bool) {
	if len(tokens) == 0 {
		return domain.MatchResult{}, false
	}
	best, ok := similarity.Best(e.index.Score(tokens))
	if !ok || best.Similarity <= e.opts.VectorThreshold {
		return domain.MatchResult{}, false
	}
	for i := range e.topics {
		if e.topics[i].Name == best.Name {
			return e.result(i, best.Similarity, domain.ReasonVectorSimilarity, ""), true
		}
	}
	return domain.MatchResult{}, false
}

func (e *Engine) fallback(query string) (domain.MatchResult, bool) {
	q := strings.ToLower(query)
	for _, fb := range e.catalog.Fallbacks() {
		if !strings.Contains(q, fb.Term) {
			continue
		}
		for i := range e.topics {
			if e.topics[i].Name == fb.Topic {
				return e.result(i, e.opts.FallbackScore, domain.ReasonFallbackTerm, fb.Term), true
			}
		}
	}
	return domain.MatchResult{}, false
}

func (e *Engine) result(i int, score float64, reason domain.Reason, term string) domain.MatchResult {
	topic := e.topics[i]
	return domain.MatchResult{Topic: &topic, Score: score, Reason: reason, Term: term}
}

// OverlapScore is the share of matched keyword stems, normalized by the
// smaller of the query token set and the keyword set.
func OverlapScore(tokens []string, keywords map[string]struct{}) float64 {
	if len(keywords) == 0 {
		return 0
	}

	query := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		query[tok] = struct{}{}
	}
	if len(query) == 0 {
		return 0
	}

	hits := 0
	for tok := range query {
		if _, ok := keywords[tok]; ok {
			hits++
		}
	}

	return float64(hits) / float64(min(len(query), len(keywords)))
}
