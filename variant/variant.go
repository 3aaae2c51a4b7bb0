// Package variant holds the core data model shared by the VCF reader, the
// frequency table builder, the ancestry scorer and the manual-entry adapter:
// a variant site, a diploid genotype call, and a confidence-weighted
// observation.
package variant

import (
	"fmt"
	"strconv"
	"strings"
)

// MissingAllele marks an uncalled allele within a Genotype.
const MissingAllele int8 = -1

// Genotype is a pair of allele indices at one site: 0 for the reference
// allele, 1..N for alternate alleles. Phasing is recorded but frequency
// computation treats the pair as unordered allele counts.
type Genotype struct {
	A1, A2 int8
	Phased bool
}

// Missing reports whether either allele is uncalled. Missing genotypes are
// excluded from frequency denominators, never treated as reference.
func (g Genotype) Missing() bool {
	return g.A1 == MissingAllele || g.A2 == MissingAllele
}

// AltCount returns how many of the two alleles are non-reference, counting
// the first alternate only. Higher-order alternates do not count toward the
// binary model.
func (g Genotype) AltCount() int {
	n := 0
	if g.A1 == 1 {
		n++
	}
	if g.A2 == 1 {
		n++
	}
	return n
}

func (g Genotype) String() string {
	sep := "/"
	if g.Phased {
		sep = "|"
	}
	return alleleString(g.A1) + sep + alleleString(g.A2)
}

func alleleString(a int8) string {
	if a == MissingAllele {
		return "."
	}
	return strconv.Itoa(int(a))
}

// ParseGenotype decodes a VCF genotype field into a Genotype. The field may
// carry FORMAT subfields after the call ("0|1:0.98:..."); only the leading
// call is read. nAlts bounds the allele indices: an index above it is a
// format violation, not a silent clamp.
func ParseGenotype(token string, nAlts int) (Genotype, error) {
	if i := strings.IndexByte(token, ':'); i >= 0 {
		token = token[:i]
	}
	if token == "" {
		return Genotype{}, fmt.Errorf("empty genotype token")
	}

	phased := true
	sep := strings.IndexByte(token, '|')
	if sep < 0 {
		phased = false
		sep = strings.IndexByte(token, '/')
	}
	if sep < 0 {
		// Haploid calls (chrX, chrY) carry a single allele.
		a, err := parseAllele(token, nAlts)
		if err != nil {
			return Genotype{}, err
		}
		return Genotype{A1: a, A2: a, Phased: true}, nil
	}

	a1, err := parseAllele(token[:sep], nAlts)
	if err != nil {
		return Genotype{}, err
	}
	a2, err := parseAllele(token[sep+1:], nAlts)
	if err != nil {
		return Genotype{}, err
	}
	return Genotype{A1: a1, A2: a2, Phased: phased}, nil
}

func parseAllele(s string, nAlts int) (int8, error) {
	if s == "." {
		return MissingAllele, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("bad allele index %q", s)
	}
	if n > nAlts {
		return 0, fmt.Errorf("allele index %d exceeds alternate count %d", n, nAlts)
	}
	return int8(n), nil
}

// Variant is a single site with its per-sample genotype calls. Calls is
// parallel to the sample header the reader (or adapter) established; the
// variant itself does not own sample names.
type Variant struct {
	Chrom string
	Pos   int
	ID    string
	Ref   string
	Alts  []string
	Qual  string
	Calls []Genotype
}

// Key identifies the variant for joins between query vectors and frequency
// tables: the rsID when one is present, otherwise a chrom:pos composite.
func (v *Variant) Key() string {
	if v.ID != "" && v.ID != "." {
		return v.ID
	}
	return v.Chrom + ":" + strconv.Itoa(v.Pos)
}

// Observation couples a genotype with a confidence weight in [0,1].
// File-derived calls carry confidence 1.0; manually entered calls carry the
// confidence stated at entry time, so both flow through the scorer unchanged.
type Observation struct {
	Genotype   Genotype
	Confidence float64
}
