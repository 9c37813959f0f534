// Package similarity scores token sequences against a fixed set of documents
// using TF-IDF weighted unigram and bigram vectors and cosine similarity.
//
// An Index is immutable after Build and safe for concurrent use.
package similarity

import (
	"cmp"
	"errors"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
)

const defaultMaxFeatures = 1000

// ErrEmptyCorpus is returned when no document contributes a single term.
var ErrEmptyCorpus = errors.New("similarity: empty corpus")

// Document is one named token sequence to index.
type Document struct {
	Name   string
	Tokens []string
}

// Options tune vocabulary construction.
type Options struct {
	// MaxFeatures caps the vocabulary to the most frequent terms across the corpus.
	MaxFeatures int
}

// Score is the cosine similarity between a query and one document.
type Score struct {
	Name       string
	Similarity float64
}

// Index holds one L2-normalized weighted-term vector per document.
type Index struct {
	names   []string
	vocab   map[string]int
	idf     []float64
	vectors [][]float64
}

// Build fits the vocabulary and idf weights over docs and vectorizes each one.
func Build(docs []Document, opts Options) (*Index, error) {
	if opts.MaxFeatures <= 0 {
		opts.MaxFeatures = defaultMaxFeatures
	}

	termsPerDoc := make([][]string, len(docs))
	corpusFreq := map[string]int{}
	docFreq := map[string]int{}

	for i, doc := range docs {
		terms := ngrams(doc.Tokens)
		termsPerDoc[i] = terms

		seen := map[string]struct{}{}
		for _, term := range terms {
			corpusFreq[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
	}

	if len(corpusFreq) == 0 {
		return nil, ErrEmptyCorpus
	}

	kept := make([]string, 0, len(corpusFreq))
	for term := range corpusFreq {
		kept = append(kept, term)
	}
	slices.SortFunc(kept, func(a, b string) int {
		if c := cmp.Compare(corpusFreq[b], corpusFreq[a]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	if len(kept) > opts.MaxFeatures {
		kept = kept[:opts.MaxFeatures]
	}
	slices.Sort(kept)

	n := float64(len(docs))
	ix := &Index{
		names:   make([]string, len(docs)),
		vocab:   make(map[string]int, len(kept)),
		idf:     make([]float64, len(kept)),
		vectors: make([][]float64, len(docs)),
	}
	for i, term := range kept {
		ix.vocab[term] = i
		ix.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	for i, doc := range docs {
		ix.names[i] = doc.Name
		ix.vectors[i] = ix.vectorize(termsPerDoc[i])
	}

	return ix, nil
}

// Features is the vocabulary size.
func (ix *Index) Features() int {
	if ix == nil {
		return 0
	}
	return len(ix.idf)
}

// Score returns the cosine similarity of the query tokens against every
// document, in document order. A nil index yields no scores.
func (ix *Index) Score(tokens []string) []Score {
	if ix == nil || len(ix.vectors) == 0 {
		return nil
	}

	query := ix.vectorize(ngrams(tokens))
	out := make([]Score, len(ix.vectors))
	for i, vec := range ix.vectors {
		out[i] = Score{Name: ix.names[i], Similarity: cosine(query, vec)}
	}
	return out
}

// Best returns the first document reached at the maximum similarity.
func Best(scores []Score) (Score, bool) {
	if len(scores) == 0 {
		return Score{}, false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Similarity > best.Similarity {
			best = s
		}
	}
	return best, true
}

func (ix *Index) vectorize(terms []string) []float64 {
	vec := make([]float64, len(ix.idf))
	for _, term := range terms {
		if idx, ok := ix.vocab[term]; ok {
			vec[idx]++
		}
	}
	for i := range vec {
		vec[i] *= ix.idf[i]
	}
	if norm := floats.Norm(vec, 2); norm > 0 {
		floats.Scale(1/norm, vec)
	}
	return vec
}

func cosine(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	sim := floats.Dot(a, b) / (na * nb)
	return math.Max(0, math.Min(1, sim))
}

// ngrams expands tokens into unigrams followed by adjacent bigrams.
func ngrams(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	out := make([]string, 0, 2*len(tokens)-1)
	out = append(out, tokens...)
	for i := 0; i+1 < len(tokens); i++ {
		out = append(out, tokens[i]+" "+tokens[i+1])
	}
	return out
}
