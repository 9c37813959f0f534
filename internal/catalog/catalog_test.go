package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"InterestBot/internal/domain"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if c.Len() != 10 {
		t.Fatalf("expected 10 topics, got %d", c.Len())
	}

	all := c.All()
	if all[0].Name != "Образование и Саморазвитие" || all[9].Name != "Иное" {
		t.Fatalf("catalog order not preserved: first=%s last=%s", all[0].Name, all[9].Name)
	}

	for _, topic := range all {
		got, ok := c.Lookup(topic.Name)
		if !ok {
			t.Fatalf("lookup %q failed", topic.Name)
		}
		if got.GroupID == "" {
			t.Fatalf("topic %q has no group id", topic.Name)
		}
	}

	if len(c.Fallbacks()) != len(DefaultFallbacks) {
		t.Fatalf("expected %d fallbacks, got %d", len(DefaultFallbacks), len(c.Fallbacks()))
	}
}

func TestKeywordsAreDeduplicated(t *testing.T) {
	t.Parallel()

	c, err := New("ru", []domain.Topic{
		{Name: "A", Keywords: []string{"Разное", "разное", " ", "другое"}, GroupID: "1"},
	}, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	topic, _ := c.Lookup("A")
	if len(topic.Keywords) != 2 || topic.Keywords[0] != "разное" {
		t.Fatalf("unexpected keywords: %v", topic.Keywords)
	}
}

func TestNewRejectsInvalidCatalogs(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		topics    []domain.Topic
		fallbacks []domain.FallbackTerm
	}{
		"empty":          {},
		"no name":        {topics: []domain.Topic{{Keywords: []string{"x"}, GroupID: "1"}}},
		"no group":       {topics: []domain.Topic{{Name: "A", Keywords: []string{"x"}}}},
		"no keywords":    {topics: []domain.Topic{{Name: "A", GroupID: "1"}}},
		"duplicate name": {topics: []domain.Topic{{Name: "A", Keywords: []string{"x"}, GroupID: "1"}, {Name: "A", Keywords: []string{"y"}, GroupID: "2"}}},
		"unknown fallback": {
			topics:    []domain.Topic{{Name: "A", Keywords: []string{"x"}, GroupID: "1"}},
			fallbacks: []domain.FallbackTerm{{Term: "y", Topic: "B"}},
		},
	}

	for name, tc := range cases {
		if _, err := New("ru", tc.topics, tc.fallbacks); !errors.Is(err, domain.ErrInvalidCatalog) {
			t.Fatalf("%s: expected ErrInvalidCatalog, got %v", name, err)
		}
	}
}

func TestLookupLabel(t *testing.T) {
	t.Parallel()

	c, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}

	for _, topic := range c.All() {
		got, ok := c.LookupLabel(topic.Label())
		if !ok || got.Name != topic.Name {
			t.Fatalf("label %q did not resolve to %q", topic.Label(), topic.Name)
		}
	}

	if _, ok := c.LookupLabel("🚀 Космос"); ok {
		t.Fatal("unknown label must not resolve")
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	body := `
language: en
topics:
  - name: Astronomy
    keywords: [telescope, planet]
    description: Observing distant galaxies.
    glyph: "🔭"
    groupId: "-100"
fallbacks:
  - term: Stargazing
    topic: Astronomy
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Language() != "en" || c.Len() != 1 {
		t.Fatalf("unexpected catalog: lang=%s len=%d", c.Language(), c.Len())
	}
	if fb := c.Fallbacks(); len(fb) != 1 || fb[0].Term != "stargazing" {
		t.Fatalf("unexpected fallbacks: %v", fb)
	}
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	t.Parallel()

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != len(DefaultTopics) {
		t.Fatalf("expected default catalog, got %d topics", c.Len())
	}
}
