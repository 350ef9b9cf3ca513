// Package index provides the in-memory inverted index that backs notice
// search. It maps normalized word tokens to the set of notice IDs whose
// title, body, or tags contain them.
//
// The index is not safe for concurrent use on its own; the notice store
// serializes all access under its lock, the same single-writer discipline
// applied to the store's own maps.
package index

import "strings"

// Tokenize splits text into unique lowercase word tokens. Any non-letter,
// non-digit rune is a delimiter. Order of the returned tokens is the order
// of first occurrence; duplicates are dropped.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isWordRune(r)
	})

	seen := make(map[string]struct{}, len(fields))
	tokens := fields[:0]
	for _, f := range fields {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}

func isWordRune(r rune) bool {
	return r == '_' ||
		(r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') ||
		(r >= 'A' && r <= 'Z') || r > 127
}

// Index is the inverted mapping token → set of notice IDs.
type Index struct {
	postings map[string]map[int64]struct{}
}

func New() *Index {
	return &Index{postings: make(map[string]map[int64]struct{})}
}

// Add tokenizes text and records id under every resulting token.
func (ix *Index) Add(id int64, text string) {
	for _, tok := range Tokenize(text) {
		set, ok := ix.postings[tok]
		if !ok {
			set = make(map[int64]struct{})
			ix.postings[tok] = set
		}
		set[id] = struct{}{}
	}
}

// Remove deletes id from every posting list it appears in. Posting lists
// that become empty are pruned so no token maps to an empty set.
func (ix *Index) Remove(id int64) {
	for tok, set := range ix.postings {
		if _, ok := set[id]; !ok {
			continue
		}
		delete(set, id)
		if len(set) == 0 {
			delete(ix.postings, tok)
		}
	}
}

// Query tokenizes the query text and intersects the posting lists of all
// resulting terms (AND semantics). An empty query yields no results, as does
// any term with no posting list. Result order is arbitrary.
func (ix *Index) Query(text string) []int64 {
	terms := Tokenize(text)
	if len(terms) == 0 {
		return nil
	}

	// Intersect starting from the first term's postings; bail out the
	// moment the working set goes empty.
	first, ok := ix.postings[terms[0]]
	if !ok {
		return nil
	}
	result := make(map[int64]struct{}, len(first))
	for id := range first {
		result[id] = struct{}{}
	}

	for _, term := range terms[1:] {
		set, ok := ix.postings[term]
		if !ok {
			return nil
		}
		for id := range result {
			if _, ok := set[id]; !ok {
				delete(result, id)
			}
		}
		if len(result) == 0 {
			return nil
		}
	}

	ids := make([]int64, 0, len(result))
	for id := range result {
		ids = append(ids, id)
	}
	return ids
}
