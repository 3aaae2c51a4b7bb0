// Package freq builds per-population allele frequency tables from a variant
// stream and a population panel. A Table is produced by one build step and
// immutable afterward; concurrent readers need no synchronization.
package freq

import (
	"github.com/montanaflynn/stats"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Entry holds the observed allele counts for one (variant, population) pair:
// alternate alleles seen, and total genotyped alleles (2x diploid samples,
// minus missing calls). An entry with TotalCount zero is absent, never a
// frequency of zero.
type Entry struct {
	AltCount   int
	TotalCount int
}

// Frequency is the alternate allele frequency. Only meaningful when
// TotalCount > 0.
func (e Entry) Frequency() float64 {
	return float64(e.AltCount) / float64(e.TotalCount)
}

type site struct {
	chrom string
	pos   int
}

// Table is a completed frequency snapshot keyed by (variant, population).
type Table struct {
	pops      []string
	popIndex  map[string]int
	entries   map[string][]Entry // variant key -> per-population cells
	sites     map[string]site
	unmatched int
}

func newTable(pops []string) *Table {
	idx := make(map[string]int, len(pops))
	for i, p := range pops {
		idx[p] = i
	}
	return &Table{
		pops:     pops,
		popIndex: idx,
		entries:  make(map[string][]Entry),
		sites:    make(map[string]site),
	}
}

// Populations returns population codes in the table's fixed sorted order.
func (t *Table) Populations() []string { return t.pops }

// NumVariants returns the number of variants with at least one defined entry.
func (t *Table) NumVariants() int { return len(t.entries) }

// UnmatchedSamples is the diagnostic count of genotype columns that the
// panel did not cover during the build. Those samples contributed to no
// population's counts.
func (t *Table) UnmatchedSamples() int { return t.unmatched }

// Entry returns the counts for a variant key and population code. ok is
// false when the pair has no genotyped data.
func (t *Table) Entry(key, pop string) (Entry, bool) {
	i, ok := t.popIndex[pop]
	if !ok {
		return Entry{}, false
	}
	cells, ok := t.entries[key]
	if !ok || cells[i].TotalCount == 0 {
		return Entry{}, false
	}
	return cells[i], true
}

// Frequency returns the alternate allele frequency for a pair, defined only
// when the pair has a non-zero denominator.
func (t *Table) Frequency(key, pop string) (float64, bool) {
	e, ok := t.Entry(key, pop)
	if !ok {
		return 0, false
	}
	return e.Frequency(), true
}

// Row gives the scorer direct access to one variant's per-population cells,
// indexed like Populations(). ok is false for unknown variants.
func (t *Table) Row(key string) ([]Entry, bool) {
	cells, ok := t.entries[key]
	return cells, ok
}

// Keys returns all variant keys in sorted order.
func (t *Table) Keys() []string {
	keys := maps.Keys(t.entries)
	slices.Sort(keys)
	return keys
}

// Summary describes the distribution of defined alternate allele frequencies
// across the whole table.
type Summary struct {
	Entries int
	Mean    float64
	Min     float64
	Max     float64
}

// Summarize computes frequency summary statistics over all defined entries.
func (t *Table) Summarize() (Summary, error) {
	var freqs []float64
	for _, cells := range t.entries {
		for _, c := range cells {
			if c.TotalCount > 0 {
				freqs = append(freqs, c.Frequency())
			}
		}
	}
	if len(freqs) == 0 {
		return Summary{}, nil
	}
	mean, err := stats.Mean(freqs)
	if err != nil {
		return Summary{}, err
	}
	min, err := stats.Min(freqs)
	if err != nil {
		return Summary{}, err
	}
	max, err := stats.Max(freqs)
	if err != nil {
		return Summary{}, err
	}
	return Summary{Entries: len(freqs), Mean: mean, Min: min, Max: max}, nil
}
