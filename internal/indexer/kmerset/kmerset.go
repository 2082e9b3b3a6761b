// Package kmerset is a chained hash table keyed by packed k-mer words. The
// bucket array has a fixed prime size and is never resized.
package kmerset

// DefaultBuckets is the bucket count used by New.
const DefaultBuckets = 1299827

// Key is the packed word pair of a k-mer.
type Key = [2]uint64

type entry[V any] struct {
	key  Key
	val  V
	next *entry[V]
}

// Set maps packed k-mers to values. Add is not safe for concurrent use; Get
// is, once population is complete.
type Set[V any] struct {
	buckets []*entry[V]
	size    int
}

func New[V any]() *Set[V] {
	return NewWithBuckets[V](DefaultBuckets)
}

func NewWithBuckets[V any](n int) *Set[V] {
	if n < 1 {
		n = 1
	}
	return &Set[V]{buckets: make([]*entry[V], n)}
}

func (s *Set[V]) bucket(key Key) int {
	b := int64(key[0]) % int64(len(s.buckets))
	if b < 0 {
		b = -b
	}
	return int(b)
}

// Add stores val under key, replacing any previous value.
func (s *Set[V]) Add(key Key, val V) {
	b := s.bucket(key)
	var last *entry[V]
	for e := s.buckets[b]; e != nil; e = e.next {
		if e.key == key {
			e.val = val
			return
		}
		last = e
	}
	n := &entry[V]{key: key, val: val}
	if last == nil {
		s.buckets[b] = n
	} else {
		last.next = n
	}
	s.size++
}

// Get returns the value stored under key.
func (s *Set[V]) Get(key Key) (V, bool) {
	for e := s.buckets[s.bucket(key)]; e != nil; e = e.next {
		if e.key == key {
			return e.val, true
		}
	}
	var zero V
	return zero, false
}

func (s *Set[V]) Size() int {
	return s.size
}

// Load is the fraction of buckets holding at least one entry.
func (s *Set[V]) Load() float64 {
	used := 0
	for _, e := range s.buckets {
		if e != nil {
			used++
		}
	}
	return float64(used) / float64(len(s.buckets))
}

// Range calls fn for every entry in bucket order until fn returns false.
func (s *Set[V]) Range(fn func(key Key, val V) bool) {
	for _, head := range s.buckets {
		for e := head; e != nil; e = e.next {
			if !fn(e.key, e.val) {
				return
			}
		}
	}
}

// Stats describes bucket occupancy.
type Stats struct {
	Buckets     int     `json:"buckets"`
	UsedBuckets int     `json:"used_buckets"`
	Entries     int     `json:"entries"`
	Collisions  int     `json:"collisions"`
	LongestTail int     `json:"longest_tail"`
	AverageTail float64 `json:"average_tail"`
}

// Stats walks the table. Collisions counts entries beyond the first in each
// bucket; AverageTail is taken over buckets that have collisions.
func (s *Set[V]) Stats() Stats {
	st := Stats{Buckets: len(s.buckets), Entries: s.size}
	tailBuckets := 0
	for _, head := range s.buckets {
		if head == nil {
			continue
		}
		st.UsedBuckets++
		tail := 0
		for e := head.next; e != nil; e = e.next {
			tail++
		}
		if tail > 0 {
			st.Collisions += tail
			tailBuckets++
		}
		if tail > st.LongestTail {
			st.LongestTail = tail
		}
	}
	if tailBuckets > 0 {
		st.AverageTail = float64(st.Collisions) / float64(tailBuckets)
	}
	return st
}
