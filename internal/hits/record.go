// Package hits defines the hit record emitted for every reference placement
// of a query k-mer, its tab-separated text form, and the sinks records are
// delivered to.
package hits

import (
	"strconv"
	"strings"
)

// Header is the first line of every hit file.
const Header = "#gene name\tquery id\trefid\tnucl kmer\tis prot?\tstarting_frame\tprot kmer\tmodel pos"

const fieldCount = 8

// placeholder fills starting_frame and prot kmer for untranslated queries.
const placeholder = "-"

// Record is one query k-mer matched against one reference placement.
// Frame is positive on the forward strand and negative on the reverse
// complement, magnitude 1..3.
type Record struct {
	GeneName string `json:"gene_name"`
	QueryID  string `json:"query_id"`
	RefID    string `json:"ref_id"`
	NuclKmer string `json:"nucl_kmer"`
	IsProt   bool   `json:"is_prot"`
	Frame    int    `json:"frame"`
	ProtKmer string `json:"prot_kmer,omitempty"`
	ModelPos int    `json:"model_pos"`
}

// Format renders r as a single line without the trailing newline.
func (r Record) Format() string {
	var b strings.Builder
	r.appendTo(&b)
	return b.String()
}

func (r Record) appendTo(b *strings.Builder) {
	b.WriteString(r.GeneName)
	b.WriteByte('\t')
	b.WriteString(r.QueryID)
	b.WriteByte('\t')
	b.WriteString(r.RefID)
	b.WriteByte('\t')
	b.WriteString(r.NuclKmer)
	b.WriteByte('\t')
	b.WriteString(strconv.FormatBool(r.IsProt))
	b.WriteByte('\t')
	if r.IsProt {
		b.WriteString(strconv.Itoa(r.Frame))
		b.WriteByte('\t')
		b.WriteString(r.ProtKmer)
	} else {
		b.WriteString(placeholder)
		b.WriteByte('\t')
		b.WriteString(placeholder)
	}
	b.WriteByte('\t')
	b.WriteString(strconv.Itoa(r.ModelPos))
}
