// Package catalog holds the immutable topic catalog and the fallback term table.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"InterestBot/internal/domain"
)

// Catalog is built once at startup and never mutated.
type Catalog struct {
	language  string
	topics    []domain.Topic
	byName    map[string]int
	fallbacks []domain.FallbackTerm
}

// File is the YAML shape of an external catalog definition.
type File struct {
	Language  string                `yaml:"language"`
	Topics    []domain.Topic        `yaml:"topics"`
	Fallbacks []domain.FallbackTerm `yaml:"fallbacks"`
}

// New validates the topics and fallback table and returns an immutable catalog.
// Every topic needs a unique name, at least one keyword and a group id; every
// fallback entry must reference a cataloged topic.
func New(language string, topics []domain.Topic, fallbacks []domain.FallbackTerm) (*Catalog, error) {
	if len(topics) == 0 {
		return nil, fmt.Errorf("%w: no topics", domain.ErrInvalidCatalog)
	}

	c := &Catalog{
		language:  language,
		topics:    make([]domain.Topic, 0, len(topics)),
		byName:    make(map[string]int, len(topics)),
		fallbacks: make([]domain.FallbackTerm, 0, len(fallbacks)),
	}

	for i, t := range topics {
		t.Name = strings.TrimSpace(t.Name)
		if t.Name == "" {
			return nil, fmt.Errorf("%w: topic #%d has no name", domain.ErrInvalidCatalog, i)
		}
		if _, dup := c.byName[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate topic %q", domain.ErrInvalidCatalog, t.Name)
		}
		if strings.TrimSpace(t.GroupID) == "" {
			return nil, fmt.Errorf("%w: topic %q has no group id", domain.ErrInvalidCatalog, t.Name)
		}
		t.Keywords = keywordSet(t.Keywords)
		if len(t.Keywords) == 0 {
			return nil, fmt.Errorf("%w: topic %q has no keywords", domain.ErrInvalidCatalog, t.Name)
		}

		c.byName[t.Name] = len(c.topics)
		c.topics = append(c.topics, t)
	}

	for _, fb := range fallbacks {
		term := strings.ToLower(strings.TrimSpace(fb.Term))
		if term == "" {
			return nil, fmt.Errorf("%w: empty fallback term for %q", domain.ErrInvalidCatalog, fb.Topic)
		}
		if _, ok := c.byName[fb.Topic]; !ok {
			return nil, fmt.Errorf("%w: fallback term %q references unknown topic %q", domain.ErrInvalidCatalog, term, fb.Topic)
		}
		c.fallbacks = append(c.fallbacks, domain.FallbackTerm{Term: term, Topic: fb.Topic})
	}

	return c, nil
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return New("ru", DefaultTopics, DefaultFallbacks)
}

// Load reads a YAML catalog file; an empty path yields the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if file.Language == "" {
		file.Language = "ru"
	}

	return New(file.Language, file.Topics, file.Fallbacks)
}

// Language is the language topic texts are written in.
func (c *Catalog) Language() string {
	return c.language
}

// Lookup finds a topic by exact name.
func (c *Catalog) Lookup(name string) (domain.Topic, bool) {
	idx, ok := c.byName[name]
	if !ok {
		return domain.Topic{}, false
	}
	return c.topics[idx], true
}

// All returns the topics in catalog order. The slice is a copy.
func (c *Catalog) All() []domain.Topic {
	out := make([]domain.Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// Len is the number of topics.
func (c *Catalog) Len() int {
	return len(c.topics)
}

// Fallbacks returns the fallback term table in scan order.
func (c *Catalog) Fallbacks() []domain.FallbackTerm {
	out := make([]domain.FallbackTerm, len(c.fallbacks))
	copy(out, c.fallbacks)
	return out
}

// LookupLabel resolves a glyph-prefixed listing label ("📚 Name") or a bare name.
func (c *Catalog) LookupLabel(label string) (domain.Topic, bool) {
	label = strings.TrimSpace(label)
	if t, ok := c.Lookup(label); ok {
		return t, true
	}
	if _, rest, found := strings.Cut(label, " "); found {
		return c.Lookup(strings.TrimSpace(rest))
	}
	return domain.Topic{}, false
}

func keywordSet(words []string) []string {
	seen := make(map[string]struct{}, len(words))
	out := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	return out
}
