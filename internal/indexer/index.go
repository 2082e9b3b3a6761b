package indexer

import (
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmerset"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/trie"
)

// Index kinds.
const (
	KindHashed = "hashed"
	KindTrie   = "trie"
)

// Placement is one reference occurrence of an indexed k-mer.
type Placement struct {
	RefSet   int
	SeqID    string
	ModelPos int
}

// Index is the read-only view of a built reference index. Lookup is safe
// for concurrent use.
type Index interface {
	Lookup(km kmer.Kmer) []Placement
	Size() int
	Kind() string
}

type hashedIndex struct {
	set *kmerset.Set[*kmerset.RefKmerSet]
}

func (h *hashedIndex) Lookup(km kmer.Kmer) []Placement {
	refs, ok := h.set.Get(km.Key())
	if !ok {
		return nil
	}
	items := refs.Items()
	out := make([]Placement, len(items))
	for i, r := range items {
		out[i] = Placement{RefSet: r.RefFile, SeqID: r.RefSeqID, ModelPos: r.ModelPos}
	}
	return out
}

func (h *hashedIndex) Size() int { return h.set.Size() }

func (h *hashedIndex) Kind() string { return KindHashed }

type trieIndex struct {
	t     *trie.Trie
	words int
}

// Lookup also bumps the leaf's query counter.
func (ti *trieIndex) Lookup(km kmer.Kmer) []Placement {
	leaf := ti.t.Contains(km)
	if leaf == nil {
		return nil
	}
	leaf.IncQueryCount()
	var out []Placement
	for _, refSet := range leaf.RefSets() {
		for _, p := range leaf.Placements(refSet) {
			out = append(out, Placement{RefSet: refSet, SeqID: p.SeqID, ModelPos: p.ModelPos})
		}
	}
	return out
}

func (ti *trieIndex) Size() int { return ti.words }

func (ti *trieIndex) Kind() string { return KindTrie }
