// Package kmer packs biological sequence text into fixed-length k-mers.
// A k-mer is stored as one or two 64-bit words with the newest symbol in the
// low bits, so a sliding window advances with a single shift per base.
package kmer

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

// NoCode is returned by Encode for symbols outside the alphabet.
const NoCode uint8 = 0xFF

// Alphabet maps sequence symbols to small integer codes.
type Alphabet struct {
	name      string
	symbols   string
	bits      uint
	perWord   int
	ambiguous byte
	encode    [256]uint8
	layouts   []*layout
}

var (
	// Nucleotide packs a, c, g, t (u reads as t) in 2 bits per symbol.
	Nucleotide = newAlphabet("nucleotide", "acgt", 2, 32, 'n', map[byte]byte{'u': 't'})

	// Protein packs the 20 standard amino acids, B, Z, U, O and the stop
	// symbol in 5 bits per symbol. Twelve symbols fill 60 bits of a word.
	Protein = newAlphabet("protein", "acdefghiklmnpqrstvwybzuo*", 5, 12, 'x', nil)
)

func newAlphabet(name, symbols string, bits uint, perWord int, ambiguous byte, aliases map[byte]byte) *Alphabet {
	a := &Alphabet{
		name:      name,
		symbols:   symbols,
		bits:      bits,
		perWord:   perWord,
		ambiguous: ambiguous,
	}
	for i := range a.encode {
		a.encode[i] = NoCode
	}
	for code := 0; code < len(symbols); code++ {
		lower := symbols[code]
		a.encode[lower] = uint8(code)
		a.encode[toUpper(lower)] = uint8(code)
	}
	for from, to := range aliases {
		code := a.encode[to]
		a.encode[from] = code
		a.encode[toUpper(from)] = code
	}
	a.layouts = make([]*layout, a.MaxK()+1)
	for k := 1; k <= a.MaxK(); k++ {
		a.layouts[k] = newLayout(a, k)
	}
	return a
}

func (a *Alphabet) layout(k int) *layout {
	return a.layouts[k]
}

func (a *Alphabet) Name() string { return a.name }

// Size is the number of distinct codes.
func (a *Alphabet) Size() int { return len(a.symbols) }

func (a *Alphabet) Bits() uint { return a.bits }

// PerWord is the number of symbols packed into one 64-bit word.
func (a *Alphabet) PerWord() int { return a.perWord }

// MaxK is the longest k-mer that fits in two words.
func (a *Alphabet) MaxK() int { return 2 * a.perWord }

func (a *Alphabet) String() string { return a.name }

// Encode returns the code of symbol, or NoCode.
func (a *Alphabet) Encode(symbol byte) uint8 {
	return a.encode[symbol]
}

// Decode returns the lowercase symbol for code.
func (a *Alphabet) Decode(code uint8) byte {
	return a.symbols[code]
}

// IsAmbiguous reports whether symbol is the alphabet's wildcard (N or X).
func (a *Alphabet) IsAmbiguous(symbol byte) bool {
	return toLower(symbol) == a.ambiguous
}

// Complement returns the Watson-Crick complement of a nucleotide code.
func (a *Alphabet) Complement(code uint8) uint8 {
	return 3 - code
}

// ParseAlphabet resolves an alphabet from a configuration value.
func ParseAlphabet(name string) (*Alphabet, error) {
	switch strings.ToLower(name) {
	case "nucleotide", "nucl", "dna", "rna":
		return Nucleotide, nil
	case "protein", "prot", "aa":
		return Protein, nil
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidConfig, apperrors.ExitUsage,
			"unknown alphabet %q", name)
	}
}

func checkK(a *Alphabet, k int) error {
	if k < 1 || k > a.MaxK() {
		return apperrors.Newf(apperrors.ErrOversizeKmer, apperrors.ExitUsage,
			"k=%d outside 1..%d for %s", k, a.MaxK(), a.name)
	}
	return nil
}

func tooShort(length, k int) error {
	return apperrors.Newf(apperrors.ErrSequenceTooShort, apperrors.ExitInput,
		"length %d < k=%d", length, k)
}

func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

func isLower(b byte) bool {
	return b >= 'a' && b <= 'z'
}
