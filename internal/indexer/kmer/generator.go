package kmer

import (
	"iter"

	apperrors "github.com/Adithya-Monish-Kumar-K/Kmer-Search-Platform/pkg/errors"
)

// Option configures a Generator.
type Option func(*Generator)

// ModelPositions makes the generator read text as an aligned sequence: '-'
// is a gap column, lowercase letters are insertion columns that do not count
// toward the model position, and '.' is filler.
func ModelPositions() Option {
	return func(g *Generator) { g.model = true }
}

// Generator turns sequence text into the stream of valid k-mers it
// contains. It is single-pass and not restartable.
type Generator struct {
	lay      *layout
	text     []byte
	model    bool
	cursor   int
	column   int
	run      int
	cur      Kmer
	position int
	invalid  int
	err      error
}

// NewGenerator prepares a generator of k-mers of length k over text.
func NewGenerator(a *Alphabet, text []byte, k int, opts ...Option) (*Generator, error) {
	if err := checkK(a, k); err != nil {
		return nil, err
	}
	if len(text) < k {
		return nil, tooShort(len(text), k)
	}
	g := &Generator{
		lay:    a.layout(k),
		text:   text,
		column: 1,
	}
	g.cur = Kmer{lay: g.lay}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Next returns the next k-mer, or false once the text is exhausted.
func (g *Generator) Next() (Kmer, bool) {
	a := g.lay.alpha
	for g.cursor < len(g.text) {
		b := g.text[g.cursor]
		g.cursor++

		if b == '.' {
			continue
		}
		if g.model {
			switch {
			case b == '-':
				g.run = 0
				g.column++
				continue
			case isLower(b):
				g.run = 0
				continue
			case b == '*' && a == Protein:
				continue
			}
		}
		if a.IsAmbiguous(b) {
			g.run = 0
			g.column++
			continue
		}
		code := a.Encode(b)
		if code == NoCode {
			g.invalid++
			if g.err == nil {
				g.err = &apperrors.SymbolError{Symbol: b, Offset: g.cursor - 1}
			}
			g.run = 0
			g.column++
			continue
		}

		g.cur = g.cur.ShiftLeftCode(code)
		g.run++
		g.column++
		if g.run >= g.lay.k {
			g.position = g.column - g.lay.k
			return g.cur, true
		}
	}
	return Kmer{}, false
}

// Position is the 1-based column of the first symbol of the k-mer most
// recently returned by Next.
func (g *Generator) Position() int {
	return g.position
}

// Err returns the first unmappable symbol seen, if any. Scanning continues
// past such symbols.
func (g *Generator) Err() error {
	return g.err
}

// InvalidSymbols counts the unmappable symbols skipped so far.
func (g *Generator) InvalidSymbols() int {
	return g.invalid
}

// All yields (position, k-mer) pairs until the text is exhausted.
func (g *Generator) All() iter.Seq2[int, Kmer] {
	return func(yield func(int, Kmer) bool) {
		for {
			km, ok := g.Next()
			if !ok {
				return
			}
			if !yield(g.position, km) {
				return
			}
		}
	}
}

// Windows returns every length-k slice of text, lowercased. Characters are
// not validated.
func Windows(text []byte, k int) []string {
	if k < 1 || len(text) < k {
		return nil
	}
	lower := make([]byte, len(text))
	for i, b := range text {
		lower[i] = toLower(b)
	}
	s := string(lower)
	out := make([]string, 0, len(s)-k+1)
	for i := 0; i+k <= len(s); i++ {
		out = append(out, s[i:i+k])
	}
	return out
}

// Placed is a k-mer with the position Next reported for it.
type Placed struct {
	Pos  int
	Kmer Kmer
}

// Collect drains the generator. Text holding an unmappable symbol yields
// no k-mers and the first symbol error.
func (g *Generator) Collect() ([]Placed, error) {
	var out []Placed
	for pos, km := range g.All() {
		out = append(out, Placed{Pos: pos, Kmer: km})
	}
	if g.err != nil {
		return nil, g.err
	}
	return out, nil
}
