// Package trie is a per-symbol prefix tree over k-mers. Every leaf sits at
// depth k and carries the reference placements of its word. The tree is
// built single-threaded and is read-only afterwards, apart from the atomic
// per-leaf query counter.
package trie

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

// NoModelPos marks placements from unaligned reference sequences.
const NoModelPos = -1

// RefPos is one placement of a word inside a reference set.
type RefPos struct {
	ModelPos int
	SeqID    string
}

// Leaf aggregates every placement of one word.
type Leaf struct {
	count      int
	refs       map[int][]RefPos
	queryCount atomic.Int64
}

// Count is the number of times the word was inserted.
func (l *Leaf) Count() int { return l.count }

// RefSets returns the reference-set ids holding the word, ascending.
func (l *Leaf) RefSets() []int {
	ids := make([]int, 0, len(l.refs))
	for id := range l.refs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Placements returns the placements recorded for refSet in insertion order.
func (l *Leaf) Placements(refSet int) []RefPos {
	return l.refs[refSet]
}

func (l *Leaf) QueryCount() int64 { return l.queryCount.Load() }

// IncQueryCount records a query hit. Safe for concurrent use.
func (l *Leaf) IncQueryCount() { l.queryCount.Add(1) }

type node struct {
	children []*node
	leaf     *Leaf
}

// Trie indexes words of a fixed length k.
type Trie struct {
	alpha     *kmer.Alphabet
	k         int
	root      *node
	sequences int
}

func New(alpha *kmer.Alphabet, k int) (*Trie, error) {
	if k < 1 || k > alpha.MaxK() {
		return nil, apperrors.Newf(apperrors.ErrOversizeKmer, apperrors.ExitUsage,
			"k=%d outside 1..%d for %s", k, alpha.MaxK(), alpha.Name())
	}
	return &Trie{
		alpha: alpha,
		k:     k,
		root:  &node{children: make([]*node, alpha.Size())},
	}, nil
}

func (t *Trie) K() int { return t.k }

func (t *Trie) Alphabet() *kmer.Alphabet { return t.alpha }

// Sequences is the number of sequences added without error.
func (t *Trie) Sequences() int { return t.sequences }

// AddSequence inserts every k-mer of text with NoModelPos. Ambiguity
// symbols break the run they occur in. An unmappable symbol anywhere fails
// the whole sequence before the trie is touched.
func (t *Trie) AddSequence(seqID string, text []byte, refSet int) error {
	return t.addGenerated(seqID, text, refSet, false)
}

// AddModelSequence inserts the k-mers of an aligned sequence with their model
// positions. It fails like AddSequence.
func (t *Trie) AddModelSequence(seqID string, text []byte, refSet int) error {
	return t.addGenerated(seqID, text, refSet, true)
}

func (t *Trie) addGenerated(seqID string, text []byte, refSet int, model bool) error {
	var opts []kmer.Option
	if model {
		opts = append(opts, kmer.ModelPositions())
	}
	g, err := kmer.NewGenerator(t.alpha, text, t.k, opts...)
	if err != nil {
		return fmt.Errorf("%s: %w", seqID, err)
	}
	placed, err := g.Collect()
	if err != nil {
		return fmt.Errorf("%s: %w", seqID, err)
	}
	for _, p := range placed {
		pos := RefPos{ModelPos: NoModelPos, SeqID: seqID}
		if model {
			pos.ModelPos = p.Pos
		}
		t.Add(p.Kmer, refSet, pos)
	}
	t.sequences++
	return nil
}

// Add inserts a packed k-mer of this trie's alphabet and length.
func (t *Trie) Add(km kmer.Kmer, refSet int, pos RefPos) {
	t.insert(km.Code, refSet, pos)
}

func (t *Trie) insert(code func(int) uint8, refSet int, pos RefPos) {
	n := t.root
	for d := 0; d < t.k; d++ {
		c := code(d)
		child := n.children[c]
		if child == nil {
			if d == t.k-1 {
				child = &node{leaf: &Leaf{refs: make(map[int][]RefPos, 1)}}
			} else {
				child = &node{children: make([]*node, t.alpha.Size())}
			}
			n.children[c] = child
		}
		n = child
	}
	n.leaf.count++
	n.leaf.refs[refSet] = append(n.leaf.refs[refSet], pos)
}

// Contains returns the leaf of km, or nil.
func (t *Trie) Contains(km kmer.Kmer) *Leaf {
	if km.Len() != t.k || km.Alphabet() != t.alpha {
		return nil
	}
	return t.lookup(km.Code)
}

// ContainsWord looks up raw text. Unmappable symbols yield nil.
func (t *Trie) ContainsWord(word []byte) *Leaf {
	if len(word) != t.k {
		return nil
	}
	codes := make([]uint8, len(word))
	for i, b := range word {
		c := t.alpha.Encode(b)
		if c == kmer.NoCode {
			return nil
		}
		codes[i] = c
	}
	return t.lookup(func(d int) uint8 { return codes[d] })
}

func (t *Trie) lookup(code func(int) uint8) *Leaf {
	n := t.root
	for d := 0; d < t.k; d++ {
		n = n.children[code(d)]
		if n == nil {
			return nil
		}
	}
	return n.leaf
}

// Walk visits every word in symbol-code order until fn returns false.
func (t *Trie) Walk(fn func(word string, leaf *Leaf) bool) {
	buf := make([]byte, t.k)
	t.walk(t.root, 0, buf, fn)
}

func (t *Trie) walk(n *node, depth int, buf []byte, fn func(string, *Leaf) bool) bool {
	if n.leaf != nil {
		return fn(string(buf), n.leaf)
	}
	for c, child := range n.children {
		if child == nil {
			continue
		}
		buf[depth] = t.alpha.Decode(uint8(c))
		if !t.walk(child, depth+1, buf, fn) {
			return false
		}
	}
	return true
}

// UniqueWords counts leaves.
func (t *Trie) UniqueWords() int {
	n := 0
	t.Walk(func(string, *Leaf) bool {
		n++
		return true
	})
	return n
}

// CountNodes counts every node including the root and the leaves.
func (t *Trie) CountNodes() int {
	return countNodes(t.root)
}

func countNodes(n *node) int {
	total := 1
	for _, child := range n.children {
		if child != nil {
			total += countNodes(child)
		}
	}
	return total
}

// HistogramBin is the number of words inserted exactly Occurrences times.
type HistogramBin struct {
	Occurrences int
	Words       int
}

// WordHistogram groups words by insertion count, ascending.
func (t *Trie) WordHistogram() []HistogramBin {
	counts := make(map[int]int)
	t.Walk(func(_ string, l *Leaf) bool {
		counts[l.count]++
		return true
	})
	bins := make([]HistogramBin, 0, len(counts))
	for occ, words := range counts {
		bins = append(bins, HistogramBin{Occurrences: occ, Words: words})
	}
	sort.Slice(bins, func(i, j int) bool {
		return bins[i].Occurrences < bins[j].Occurrences
	})
	return bins
}
