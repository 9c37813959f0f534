package domain

import "time"

// Topic is one cataloged discussion category backed by an external group.
type Topic struct {
	Name        string   `yaml:"name"`
	Keywords    []string `yaml:"keywords"`
	Description string   `yaml:"description"`
	Glyph       string   `yaml:"glyph"`
	GroupID     string   `yaml:"groupId"`
}

// Label is the glyph-prefixed button text used in topic listings.
func (t Topic) Label() string {
	if t.Glyph == "" {
		return t.Name
	}
	return t.Glyph + " " + t.Name
}

// FallbackTerm maps a single search term to a topic name.
type FallbackTerm struct {
	Term  string `yaml:"term"`
	Topic string `yaml:"topic"`
}

// Reason tags how a MatchResult was produced.
type Reason string

const (
	ReasonExact            Reason = "exact"
	ReasonKeywordOverlap   Reason = "keyword-overlap"
	ReasonVectorSimilarity Reason = "vector-similarity"
	ReasonFallbackTerm     Reason = "fallback-term"
	ReasonNone             Reason = "none"
	ReasonError            Reason = "error"
)

// MatchResult is the outcome of routing one query. Topic is nil when nothing matched.
type MatchResult struct {
	Topic  *Topic
	Score  float64
	Reason Reason
	// Term is the fallback table entry that fired, set only for ReasonFallbackTerm.
	Term string
}

// Found reports whether a topic was matched.
func (m MatchResult) Found() bool {
	return m.Topic != nil
}

// NoMatch builds the empty result for the given reason.
func NoMatch(reason Reason) MatchResult {
	return MatchResult{Reason: reason}
}

// NewInterestLabel is the topic label of interest records that matched nothing.
const NewInterestLabel = "новый интерес"

// InterestStatus of a logged interest query.
type InterestStatus string

const (
	InterestPending InterestStatus = "pending"
)

// InterestRecord is one logged search query. Append-only.
type InterestRecord struct {
	UserID     int64
	TopicLabel string
	QueryText  string
	CreatedAt  time.Time
	Status     InterestStatus
}

// SupportStatus of a support message.
type SupportStatus string

const (
	SupportNew SupportStatus = "new"
)

// SupportMessage is a persisted user request to the administrators.
type SupportMessage struct {
	ID        int64
	UserID    int64
	Text      string
	CreatedAt time.Time
	Status    SupportStatus
}
