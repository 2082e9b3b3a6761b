package kmer

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

// layout describes how a k-mer of one length is split over the two words.
// When two words are used, words[0] holds the oldest PerWord symbols and
// words[1] the newest lastFill symbols.
type layout struct {
	alpha    *Alphabet
	k        int
	nwords   int
	lastFill int
	lastMask uint64
	fullMask uint64
	charMask uint64
}

func newLayout(a *Alphabet, k int) *layout {
	nwords := (k + a.perWord - 1) / a.perWord
	lastFill := k - a.perWord*(nwords-1)
	return &layout{
		alpha:    a,
		k:        k,
		nwords:   nwords,
		lastFill: lastFill,
		lastMask: lowMask(uint(lastFill) * a.bits),
		fullMask: lowMask(uint(a.perWord) * a.bits),
		charMask: lowMask(a.bits),
	}
}

func lowMask(n uint) uint64 {
	if n >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << n) - 1
}

// Kmer is an immutable packed k-mer. Two values built from the same symbols
// compare equal with ==.
type Kmer struct {
	lay   *layout
	words [2]uint64
}

// Pack encodes text as a single k-mer of length len(text).
func Pack(a *Alphabet, text []byte) (Kmer, error) {
	if err := checkK(a, len(text)); err != nil {
		return Kmer{}, err
	}
	km := Kmer{lay: a.layout(len(text))}
	for i, b := range text {
		code := a.Encode(b)
		if code == NoCode {
			return Kmer{}, &apperrors.SymbolError{Symbol: b, Offset: i}
		}
		km = km.ShiftLeftCode(code)
	}
	return km, nil
}

// MustPack is Pack for literals known to be valid.
func MustPack(a *Alphabet, text string) Kmer {
	km, err := Pack(a, []byte(text))
	if err != nil {
		panic(err)
	}
	return km
}

// ShiftLeft drops the oldest symbol and appends symbol as the newest.
func (km Kmer) ShiftLeft(symbol byte) (Kmer, error) {
	code := km.lay.alpha.Encode(symbol)
	if code == NoCode {
		return Kmer{}, &apperrors.SymbolError{Symbol: symbol, Offset: -1}
	}
	return km.ShiftLeftCode(code), nil
}

// ShiftLeftCode is ShiftLeft for an already encoded symbol.
func (km Kmer) ShiftLeftCode(code uint8) Kmer {
	l := km.lay
	bits := l.alpha.bits
	c := uint64(code)
	if l.nwords == 1 {
		km.words[0] = ((km.words[0] << bits) | c) & l.lastMask
		return km
	}
	carry := (km.words[1] >> (uint(l.lastFill-1) * bits)) & l.charMask
	km.words[1] = ((km.words[1] << bits) | c) & l.lastMask
	km.words[0] = ((km.words[0] << bits) | carry) & l.fullMask
	return km
}

// ShiftRight drops the newest symbol and prepends symbol as the oldest.
func (km Kmer) ShiftRight(symbol byte) (Kmer, error) {
	code := km.lay.alpha.Encode(symbol)
	if code == NoCode {
		return Kmer{}, &apperrors.SymbolError{Symbol: symbol, Offset: -1}
	}
	return km.ShiftRightCode(code), nil
}

// ShiftRightCode is ShiftRight for an already encoded symbol.
func (km Kmer) ShiftRightCode(code uint8) Kmer {
	l := km.lay
	bits := l.alpha.bits
	c := uint64(code)
	if l.nwords == 1 {
		km.words[0] = (km.words[0] >> bits) | c<<(uint(l.lastFill-1)*bits)
		return km
	}
	carry := km.words[0] & l.charMask
	km.words[0] = (km.words[0] >> bits) | c<<(uint(l.alpha.perWord-1)*bits)
	km.words[1] = (km.words[1] >> bits) | carry<<(uint(l.lastFill-1)*bits)
	return km
}

// Len returns k.
func (km Kmer) Len() int {
	if km.lay == nil {
		return 0
	}
	return km.lay.k
}

func (km Kmer) Alphabet() *Alphabet { return km.lay.alpha }

// Key returns the packed words. The second word is zero for single-word
// k-mers.
func (km Kmer) Key() [2]uint64 { return km.words }

// Words returns the used words, oldest first.
func (km Kmer) Words() []uint64 {
	return km.words[:km.lay.nwords]
}

// Code returns the code of the i-th symbol, 0 being the oldest.
func (km Kmer) Code(i int) uint8 {
	l := km.lay
	bits := l.alpha.bits
	if l.nwords == 1 {
		return uint8((km.words[0] >> (uint(l.k-1-i) * bits)) & l.charMask)
	}
	if i < l.alpha.perWord {
		return uint8((km.words[0] >> (uint(l.alpha.perWord-1-i) * bits)) & l.charMask)
	}
	return uint8((km.words[1] >> (uint(l.lastFill-1-(i-l.alpha.perWord)) * bits)) & l.charMask)
}

// ReverseComplement returns the reverse complement of a nucleotide k-mer.
func (km Kmer) ReverseComplement() Kmer {
	out := Kmer{lay: km.lay}
	for i := km.lay.k - 1; i >= 0; i-- {
		out = out.ShiftLeftCode(km.lay.alpha.Complement(km.Code(i)))
	}
	return out
}

func (km Kmer) String() string {
	if km.lay == nil {
		return ""
	}
	buf := make([]byte, km.lay.k)
	for i := range buf {
		buf[i] = km.lay.alpha.Decode(km.Code(i))
	}
	return string(buf)
}
