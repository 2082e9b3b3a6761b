// Package benchmark measures the hot paths of the k-mer tools: packing and
// shifting k-mers, hashed and trie lookups, query probing and coverage
// accumulation.
package benchmark

import (
	"math/rand"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmer"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/kmerset"
	"github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/internal/indexer/trie"
)

func randomSeq(rng *rand.Rand, n int) []byte {
	const bases = "acgt"
	s := make([]byte, n)
	for i := range s {
		s[i] = bases[rng.Intn(4)]
	}
	return s
}

// BenchmarkGenerator measures k-mer extraction from a 10 kb sequence.
func BenchmarkGenerator(b *testing.B) {
	seq := randomSeq(rand.New(rand.NewSource(1)), 10000)
	b.ReportAllocs()
	b.SetBytes(int64(len(seq)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g, err := kmer.NewGenerator(kmer.Nucleotide, seq, 45)
		if err != nil {
			b.Fatal(err)
		}
		for range g.All() {
		}
	}
}

func BenchmarkShiftLeft(b *testing.B) {
	km := kmer.MustPack(kmer.Nucleotide, "acgtacgtacgtacgtacgtacgtacgtacgtacgtacgtacgta")
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		km = km.ShiftLeftCode(uint8(i & 3))
	}
	_ = km
}

func buildSet(seq []byte, k int) (*kmerset.Set[int], []kmerset.Key) {
	set := kmerset.New[int]()
	var keys []kmerset.Key
	g, _ := kmer.NewGenerator(kmer.Nucleotide, seq, k)
	for pos, km := range g.All() {
		set.Add(km.Key(), pos)
		keys = append(keys, km.Key())
	}
	return set, keys
}

// BenchmarkKmerSetGet measures hashed lookups over 100 000 stored k-mers.
func BenchmarkKmerSetGet(b *testing.B) {
	set, keys := buildSet(randomSeq(rand.New(rand.NewSource(2)), 100000), 30)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		set.Get(keys[i%len(keys)])
	}
}

func BenchmarkKmerSetGetParallel(b *testing.B) {
	set, keys := buildSet(randomSeq(rand.New(rand.NewSource(3)), 100000), 30)
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			set.Get(keys[i%len(keys)])
			i++
		}
	})
}

func BenchmarkTrieContains(b *testing.B) {
	seq := randomSeq(rand.New(rand.NewSource(4)), 50000)
	tr, err := trie.New(kmer.Nucleotide, 30)
	if err != nil {
		b.Fatal(err)
	}
	if err := tr.AddSequence("bench", seq, 0); err != nil {
		b.Fatal(err)
	}
	var kmers []kmer.Kmer
	g, _ := kmer.NewGenerator(kmer.Nucleotide, seq, 30)
	for _, km := range g.All() {
		kmers = append(kmers, km)
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if leaf := tr.Contains(kmers[i%len(kmers)]); leaf != nil {
				leaf.IncQueryCount()
			}
			i++
		}
	})
}
