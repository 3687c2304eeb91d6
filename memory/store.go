package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/lawyrs/counsel/errors"
	"gonum.org/v1/gonum/mat"
)

type (
	// Store is one memory backend. Put is an upsert keyed by Entry.Identity.
	Store interface {
		Put(ctx context.Context, entry *Entry) error
		Get(ctx context.Context, identity string) (*Entry, error)

		// Search ranks entries for a case. queryEmbedding may be empty, in
		// which case backends fall back to keyword scoring.
		Search(ctx context.Context, caseID, query string, queryEmbedding []float32, limit int) ([]ScoredEntry, error)

		List(ctx context.Context, caseID string) ([]*Entry, error)
		Delete(ctx context.Context, identity string) error
		Close() error
	}

	// InMemoryStore backs tests and single-process runs.
	InMemoryStore struct {
		mu      sync.RWMutex
		entries map[string]*Entry
	}
)

var _ Store = (*InMemoryStore)(nil)

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]*Entry)}
}

func (s *InMemoryStore) Put(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[entry.Identity()] = entry
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, identity string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[identity]
	if !exists {
		return nil, errors.Wrapf(errors.ErrNotFound, "memory entry %q", identity)
	}
	return entry, nil
}

func (s *InMemoryStore) Search(ctx context.Context, caseID, query string, queryEmbedding []float32, limit int) ([]ScoredEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var candidates []*Entry
	for _, entry := range s.entries {
		if caseID != "" && entry.CaseID != caseID {
			continue
		}
		candidates = append(candidates, entry)
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	if len(queryEmbedding) > 0 {
		return scoreByEmbedding(candidates, queryEmbedding, limit), nil
	}
	return scoreByKeywords(candidates, query, limit), nil
}

func (s *InMemoryStore) List(ctx context.Context, caseID string) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []*Entry
	for _, entry := range s.entries {
		if caseID == "" || entry.CaseID == caseID {
			results = append(results, entry)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].Identity() < results[j].Identity()
	})
	return results, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, identity)
	return nil
}

func (s *InMemoryStore) Close() error {
	return nil
}

// scoreByEmbedding computes inner products with one matrix-vector multiply.
// Embeddings from the provider are normalized, so the product lies in [-1, 1]
// and maps to [0, 1] with (score+1)/2.
func scoreByEmbedding(candidates []*Entry, queryEmbedding []float32, limit int) []ScoredEntry {
	dim := len(queryEmbedding)

	var valid []*Entry
	for _, entry := range candidates {
		if len(entry.Embedding) == dim {
			valid = append(valid, entry)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	queryVec := make([]float64, dim)
	for i, v := range queryEmbedding {
		queryVec[i] = float64(v)
	}

	data := make([]float64, len(valid)*dim)
	for i, entry := range valid {
		for j, v := range entry.Embedding {
			data[i*dim+j] = float64(v)
		}
	}

	var scores mat.VecDense
	scores.MulVec(mat.NewDense(len(valid), dim, data), mat.NewVecDense(dim, queryVec))

	results := make([]ScoredEntry, 0, len(valid))
	for i, entry := range valid {
		results = append(results, ScoredEntry{
			Entry: entry,
			Score: (scores.AtVec(i) + 1.0) * 0.5,
		})
	}

	sortByScore(results)
	return limitTo(results, limit)
}

// scoreByKeywords is the degraded path when no embedding is available: the
// fraction of query terms present in the entry text.
func scoreByKeywords(candidates []*Entry, query string, limit int) []ScoredEntry {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil
	}

	var results []ScoredEntry
	for _, entry := range candidates {
		text := strings.ToLower(entry.SearchText())
		matched := 0
		for _, term := range terms {
			if strings.Contains(text, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, ScoredEntry{
			Entry: entry,
			Score: float64(matched) / float64(len(terms)),
		})
	}

	sortByScore(results)
	return limitTo(results, limit)
}

func sortByScore(results []ScoredEntry) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

func limitTo(results []ScoredEntry, limit int) []ScoredEntry {
	if limit > 0 && len(results) > limit {
		return results[:limit]
	}
	return results
}
