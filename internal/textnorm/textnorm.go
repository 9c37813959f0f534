// Package textnorm turns free text into stemmed, stop-word-free tokens.
//
// Two languages are supported: Russian and English. Output is deterministic for
// a given input, language hint and primary language. A Normalizer is safe for
// concurrent use.
package textnorm

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/abadojack/whatlanggo"
	"github.com/kljensen/snowball"
	"golang.org/x/text/unicode/norm"
)

const (
	Russian = "ru"
	English = "en"

	// AutoDetect asks the normalizer to detect the language from the text.
	AutoDetect = "auto"

	minTokenRunes  = 3
	minDetectRunes = 4
)

var (
	nonWordExpr    = regexp.MustCompile(`[^\p{L}\p{M}\p{N}_\s]+`)
	digitsExpr     = regexp.MustCompile(`\p{Nd}+`)
	whitespaceExpr = regexp.MustCompile(`\s+`)

	detectOptions = whatlanggo.Options{
		Whitelist: map[whatlanggo.Lang]bool{
			whatlanggo.Rus: true,
			whatlanggo.Eng: true,
		},
	}

	snowballNames = map[string]string{
		Russian: "russian",
		English: "english",
	}
)

// Result is a normalized token sequence with the language it was processed in.
type Result struct {
	Tokens   []string
	Language string
}

// Text joins the tokens with single spaces.
func (r Result) Text() string {
	return strings.Join(r.Tokens, " ")
}

// Normalizer applies the cleaning, stop-word and stemming pipeline.
type Normalizer struct {
	primary string
}

// New builds a normalizer; unsupported primary languages fall back to Russian.
func New(primary string) *Normalizer {
	if !Supported(primary) {
		primary = Russian
	}
	return &Normalizer{primary: primary}
}

// Primary returns the language used when detection fails.
func (n *Normalizer) Primary() string {
	return n.primary
}

// Supported reports whether lang is one of the two pipeline languages.
func Supported(lang string) bool {
	_, ok := snowballNames[lang]
	return ok
}

// Normalize lowercases, strips punctuation and digits, drops stop words and
// short tokens, and stems what is left in the resolved language.
func (n *Normalizer) Normalize(text, hint string) Result {
	lang := n.Resolve(text, hint)

	cleaned := strings.ToLower(norm.NFC.String(text))
	cleaned = nonWordExpr.ReplaceAllString(cleaned, " ")
	cleaned = digitsExpr.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(whitespaceExpr.ReplaceAllString(cleaned, " "))

	stops := stopwordsRU
	if lang == English {
		stops = stopwordsEN
	}

	words := strings.Fields(cleaned)
	tokens := make([]string, 0, len(words))
	for _, w := range words {
		if _, stop := stops[w]; stop {
			continue
		}
		if utf8.RuneCountInString(w) < minTokenRunes {
			continue
		}
		tokens = append(tokens, stem(w, lang))
	}

	return Result{Tokens: tokens, Language: lang}
}

// Resolve maps a language hint to a supported language code. "auto" runs
// detection; region-tagged hints such as "en-US" resolve by prefix; anything
// else resolves to the primary language.
func (n *Normalizer) Resolve(text, hint string) string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == AutoDetect {
		return n.Detect(text)
	}
	for lang := range snowballNames {
		if strings.HasPrefix(hint, lang) {
			return lang
		}
	}
	return n.primary
}

// Detect identifies Russian or English text; short or unrecognized input
// yields the primary language.
func (n *Normalizer) Detect(text string) string {
	if utf8.RuneCountInString(strings.TrimSpace(text)) < minDetectRunes {
		return n.primary
	}
	info := whatlanggo.DetectWithOptions(text, detectOptions)
	switch info.Lang {
	case whatlanggo.Rus:
		return Russian
	case whatlanggo.Eng:
		return English
	default:
		return n.primary
	}
}

func stem(token, lang string) string {
	stemmed, err := snowball.Stem(token, snowballNames[lang], true)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}
