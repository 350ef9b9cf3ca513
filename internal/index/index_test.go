package index

import (
	"sort"
	"testing"
)

func sorted(ids []int64) []int64 {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"lowercases", "Fire Drill", []string{"fire", "drill"}},
		{"delimits on punctuation", "fire-drill, NOW!", []string{"fire", "drill", "now"}},
		{"deduplicates", "fire fire FIRE", []string{"fire"}},
		{"empty input", "", nil},
		{"only delimiters", "--- ,,, !!!", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

// TestIndex_AddRemoveQuery walks the index-consistency property: both IDs
// visible under a shared token, then one removed, then the token entry gone
// entirely once its last member is removed.
func TestIndex_AddRemoveQuery(t *testing.T) {
	ix := New()
	ix.Add(1, "Fire Drill")
	ix.Add(2, "fire alarm")

	got := sorted(ix.Query("fire"))
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("expected [1 2], got %v", got)
	}

	ix.Remove(1)
	got = ix.Query("fire")
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("after removing 1: expected [2], got %v", got)
	}
	if _, present := ix.postings["drill"]; present {
		t.Fatal("token drill should have been pruned with its last member")
	}

	ix.Remove(2)
	if _, present := ix.postings["fire"]; present {
		t.Fatal("token fire should have no entry at all after its last member is removed")
	}
}

func TestIndex_QueryIntersection(t *testing.T) {
	ix := New()
	ix.Add(1, "fire drill on friday")
	ix.Add(2, "fire alarm test")
	ix.Add(3, "drill procedure")

	got := ix.Query("fire drill")
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("AND semantics: expected [1], got %v", got)
	}
}

func TestIndex_QueryAbsentTermEmptiesResult(t *testing.T) {
	ix := New()
	ix.Add(1, "fire drill")

	if got := ix.Query("fire unicorn"); len(got) != 0 {
		t.Fatalf("a term with no postings must empty the intersection, got %v", got)
	}
}

func TestIndex_EmptyQueryReturnsNothing(t *testing.T) {
	ix := New()
	ix.Add(1, "fire drill")

	if got := ix.Query(""); len(got) != 0 {
		t.Fatalf("empty query must not match all, got %v", got)
	}
	if got := ix.Query("   ,,, "); len(got) != 0 {
		t.Fatalf("delimiter-only query must not match all, got %v", got)
	}
}

// TestIndex_IdempotentRequery verifies the same query returns the same set
// when nothing has changed in between.
func TestIndex_IdempotentRequery(t *testing.T) {
	ix := New()
	ix.Add(1, "fire drill")
	ix.Add(2, "fire alarm")

	first := sorted(ix.Query("fire"))
	second := sorted(ix.Query("fire"))
	if len(first) != len(second) {
		t.Fatalf("result sets differ: %v vs %v", first, second)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("result sets differ: %v vs %v", first, second)
		}
	}
}

func TestIndex_RemoveUnknownIDIsNoop(t *testing.T) {
	ix := New()
	ix.Add(1, "fire")
	ix.Remove(999)

	if got := ix.Query("fire"); len(got) != 1 {
		t.Fatalf("removing an unknown id must not disturb postings, got %v", got)
	}
}
