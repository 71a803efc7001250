package corpus

import (
	"errors"
	"sort"
	"strings"
	"sync"
)

// ErrArityMismatch is returned by Add when the number of fragments and the
// number of metadata entries differ.
var ErrArityMismatch = errors.New("fragments and metadata lengths do not match")

// Fragment is the unit of retrieval: a bounded piece of source text plus its
// classification metadata.
type Fragment struct {
	Text string
	Meta map[string]string
}

// Filter restricts a search to fragments whose metadata matches every key.
// A single allowed value means exact match, several mean set membership.
// A fragment missing a filtered key never matches.
type Filter map[string][]string

func (f Filter) matches(meta map[string]string) bool {
	for key, allowed := range f {
		value, ok := meta[key]
		if !ok {
			return false
		}

		found := false
		for _, candidate := range allowed {
			if candidate == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

// Store is an append-only in-memory collection of fragments answering
// filtered lexical-overlap queries. It is not a real vector database: scoring
// is a bag-of-words intersection, deliberately simple and deterministic.
// Safe for concurrent use; a search running concurrently with Add may miss
// the fragments being appended.
type Store struct {
	mu        sync.RWMutex
	fragments []Fragment
}

func NewStore() *Store {
	return &Store{}
}

// Add appends fragments with their per-fragment metadata. Fragments are
// immutable once added.
func (s *Store) Add(texts []string, metas []map[string]string) error {
	if len(texts) != len(metas) {
		return ErrArityMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, text := range texts {
		s.fragments = append(s.fragments, Fragment{Text: text, Meta: metas[i]})
	}

	return nil
}

// Len returns the number of stored fragments.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fragments)
}

// Search scores every fragment passing the filter by the size of the
// intersection between the tokenized query and the tokenized fragment, and
// returns the texts of the topK best. The sort is stable: fragments with
// equal scores keep their insertion order. An empty corpus or a filter
// matching nothing yields an empty result, never an error. A nil filter
// matches everything.
func (s *Store) Search(query string, topK int, filter Filter) []string {
	if topK <= 0 {
		return nil
	}

	queryTokens := tokenize(query)

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		score int
		text  string
	}

	candidates := make([]scored, 0, len(s.fragments))
	for _, fragment := range s.fragments {
		if filter != nil && !filter.matches(fragment.Meta) {
			continue
		}
		candidates = append(candidates, scored{
			score: overlap(queryTokens, tokenize(fragment.Text)),
			text:  fragment.Text,
		})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	results := make([]string, 0, len(candidates))
	for _, c := range candidates {
		results = append(results, c.text)
	}

	return results
}

func tokenize(text string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(text)) {
		tokens[token] = struct{}{}
	}
	return tokens
}

func overlap(a, b map[string]struct{}) int {
	if len(b) < len(a) {
		a, b = b, a
	}

	count := 0
	for token := range a {
		if _, ok := b[token]; ok {
			count++
		}
	}
	return count
}
