// Package bm25 provides keyword scoring over the chunk corpus using the
// BM25 ranking function.
package bm25

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/lodeworks/quarry-cli/internal/core/ports/driven"
	"github.com/lodeworks/quarry-cli/internal/logger"
)

// Ensure Scorer implements the interface.
var _ driven.LexicalScorer = (*Scorer)(nil)

// Default BM25 parameters.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

var tokenRe = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Scorer scores chunks with BM25 over word tokens. The average document
// length is recomputed on every query rather than cached, so the scorer
// tolerates corpus growth without invalidation hooks.
type Scorer struct {
	chunks driven.ChunkStore
	k1     float64
	b      float64
}

// Option configures the scorer.
type Option func(*Scorer)

// WithK1 sets the term-frequency saturation parameter.
func WithK1(k1 float64) Option {
	return func(s *Scorer) {
		if k1 > 0 {
			s.k1 = k1
		}
	}
}

// WithB sets the length normalisation parameter.
func WithB(b float64) Option {
	return func(s *Scorer) {
		if b >= 0 && b <= 1 {
			s.b = b
		}
	}
}

// New creates a BM25 scorer over the given chunk store.
func New(chunks driven.ChunkStore, opts ...Option) *Scorer {
	s := &Scorer{
		chunks: chunks,
		k1:     DefaultK1,
		b:      DefaultB,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tokenize lowercases text and extracts word tokens.
func Tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// Search scores every chunk against the query. Chunks with no term
// overlap are excluded. Results are sorted descending by score with
// ties broken by ascending row (insertion) order.
func (s *Scorer) Search(ctx context.Context, query string, limit int) ([]driven.LexicalHit, error) {
	terms := Tokenize(query)
	if len(terms) == 0 {
		return []driven.LexicalHit{}, nil
	}

	records, err := s.chunks.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("bm25: load corpus: %w", err)
	}
	if len(records) == 0 {
		return []driven.LexicalHit{}, nil
	}

	// Tokenise once, then derive avgdl from the same pass.
	docTokens := make([][]string, len(records))
	var totalLen int
	for i, rec := range records {
		docTokens[i] = Tokenize(rec.Chunk.Text)
		totalLen += len(docTokens[i])
	}
	avgdl := float64(totalLen) / float64(len(records))

	hits := make([]driven.LexicalHit, 0, len(records))
	for i, rec := range records {
		score := s.score(terms, docTokens[i], avgdl)
		if score > 0 {
			hits = append(hits, driven.LexicalHit{
				RowID:   rec.RowID,
				ChunkID: rec.Chunk.ID,
				Score:   score,
			})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].RowID < hits[j].RowID
	})

	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	logger.Debug("BM25 search: %d terms, %d hits", len(terms), len(hits))
	return hits, nil
}

// score computes BM25 for one chunk's token list.
func (s *Scorer) score(queryTerms, docTokens []string, avgdl float64) float64 {
	if len(docTokens) == 0 || avgdl == 0 {
		return 0
	}

	tf := make(map[string]int, len(docTokens))
	for _, tok := range docTokens {
		tf[tok]++
	}

	docLen := float64(len(docTokens))
	var score float64
	for _, term := range queryTerms {
		freq, ok := tf[term]
		if !ok {
			continue
		}
		f := float64(freq)
		numerator := f * (s.k1 + 1)
		denominator := f + s.k1*(1-s.b+s.b*(docLen/avgdl))
		score += numerator / denominator
	}
	return score
}
