// Package panel loads a sample-to-population assignment table, such as the
// 1000 Genomes integrated call sample panel.
package panel

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/LooneyRichie/Instant-DNA/variant"
)

// Unassigned is returned for samples the panel does not mention. Absence is
// a valid state, not an error.
const Unassigned = "unassigned"

// Panel maps sample identifiers to population codes. It is completed by Load
// and immutable afterward.
type Panel struct {
	pops      map[string]string   // sample -> population code
	superPops map[string]string   // population code -> superpopulation code
	members   map[string][]string // population code -> samples, insertion order
}

// Load reads a tab-delimited panel file: sample ID, population code, then
// optional superpopulation and sex columns, with one header line. A sample
// appearing twice with conflicting codes is a hard format failure; silently
// keeping either occurrence would corrupt downstream frequency attribution.
func Load(path string) (*Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &variant.IOError{Path: path, Err: err}
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads panel data from an open stream. path is error context only.
func Parse(in io.Reader, path string) (*Panel, error) {
	p := &Panel{
		pops:      make(map[string]string),
		superPops: make(map[string]string),
		members:   make(map[string][]string),
	}

	scanner := bufio.NewScanner(in)
	line := 0
	for scanner.Scan() {
		line++
		row := strings.TrimRight(scanner.Text(), "\r")
		if row == "" {
			continue
		}
		fields := strings.Split(row, "\t")
		if line == 1 && strings.EqualFold(fields[0], "sample") {
			continue
		}
		if len(fields) < 2 {
			return nil, variant.Formatf(path, line, "panel line has %d fields, need at least sample and population", len(fields))
		}
		sample, pop := fields[0], fields[1]
		if sample == "" || pop == "" {
			return nil, variant.Formatf(path, line, "empty sample or population field")
		}
		if prev, seen := p.pops[sample]; seen {
			if prev != pop {
				return nil, variant.Formatf(path, line, "sample %s assigned to both %s and %s", sample, prev, pop)
			}
			continue
		}
		p.pops[sample] = pop
		p.members[pop] = append(p.members[pop], sample)
		if len(fields) >= 3 && fields[2] != "" {
			p.superPops[pop] = fields[2]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &variant.IOError{Path: path, Err: err}
	}
	return p, nil
}

// Population returns the population code for a sample, or Unassigned with
// ok=false when the panel does not mention it.
func (p *Panel) Population(sample string) (string, bool) {
	pop, ok := p.pops[sample]
	if !ok {
		return Unassigned, false
	}
	return pop, true
}

// Superpopulation returns the superpopulation code for a population, if the
// panel carried one.
func (p *Panel) Superpopulation(pop string) (string, bool) {
	sp, ok := p.superPops[pop]
	return sp, ok
}

// Populations returns all population codes in sorted order.
func (p *Panel) Populations() []string {
	pops := maps.Keys(p.members)
	slices.Sort(pops)
	return pops
}

// Samples returns the samples assigned to a population, in panel order.
func (p *Panel) Samples(pop string) []string {
	return p.members[pop]
}

// Len returns the number of assigned samples.
func (p *Panel) Len() int { return len(p.pops) }
