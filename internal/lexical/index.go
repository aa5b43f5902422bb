package lexical

import (
	"math"
	"sort"
	"sync"
)

// Scored is a chunk ID paired with its relevance score
type Scored struct {
	ChunkID string
	Score   float64
}

// posting records one document occurrence of a term
type posting struct {
	chunkID string
	tf      int
}

// Index is an inverted index with BM25 scoring. Safe for concurrent
// queries once building is complete; Add and Query must not race.
type Index struct {
	mu        sync.RWMutex
	tokenizer *Tokenizer
	k1        float64
	b         float64

	postings map[string][]posting // term -> occurrences
	docLen   map[string]int       // chunkID -> token count
	totalLen int
}

// NewIndex creates an empty BM25 index with the given parameters
func NewIndex(k1, b float64, stopWords []string) *Index {
	return &Index{
		tokenizer: NewTokenizer(stopWords),
		k1:        k1,
		b:         b,
		postings:  make(map[string][]posting),
		docLen:    make(map[string]int),
	}
}

// Add indexes a chunk's text under its ID. Re-adding an existing ID is
// not supported; callers assign unique chunk IDs per run.
func (idx *Index) Add(chunkID, text string) {
	tokens := idx.tokenizer.Tokenize(text)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}
	for term, tf := range counts {
		idx.postings[term] = append(idx.postings[term], posting{chunkID: chunkID, tf: tf})
	}

	idx.docLen[chunkID] = len(tokens)
	idx.totalLen += len(tokens)
}

// Len returns the number of indexed chunks
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docLen)
}

// Query scores all chunks matching any query term and returns the top k
// by BM25 score, descending. Ties are broken by chunk ID ascending so
// results are deterministic. An empty index or a query with no indexed
// terms yields an empty slice.
func (idx *Index) Query(text string, k int) []Scored {
	terms := idx.tokenizer.Tokenize(text)

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	n := len(idx.docLen)
	if n == 0 || len(terms) == 0 || k <= 0 {
		return nil
	}

	avgLen := float64(idx.totalLen) / float64(n)
	scores := make(map[string]float64)

	// Duplicate query terms contribute once per occurrence, matching the
	// standard BM25 query formulation.
	for _, term := range terms {
		plist, ok := idx.postings[term]
		if !ok {
			continue
		}

		df := float64(len(plist))
		idf := math.Log(1 + (float64(n)-df+0.5)/(df+0.5))

		for _, p := range plist {
			tf := float64(p.tf)
			dl := float64(idx.docLen[p.chunkID])
			denom := tf + idx.k1*(1-idx.b+idx.b*dl/avgLen)
			scores[p.chunkID] += idf * tf * (idx.k1 + 1) / denom
		}
	}

	results := make([]Scored, 0, len(scores))
	for id, score := range scores {
		results = append(results, Scored{ChunkID: id, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if len(results) > k {
		results = results[:k]
	}
	return results
}
