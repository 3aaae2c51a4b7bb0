package freq

import (
	"context"
	"io"
	"sync"

	"github.com/LooneyRichie/Instant-DNA/panel"
	"github.com/LooneyRichie/Instant-DNA/variant"
	"github.com/LooneyRichie/Instant-DNA/vcf"
)

const defaultConcurrency = 8

// Builder constructs a frequency Table from a variant stream and a completed
// panel. The stream is consumed once; each data line is counted wholly by
// one worker, and per-pair counts are plain integer sums, so the resulting
// table is identical regardless of worker count.
type Builder struct {
	// Workers sets the parse/count worker pool size. Zero means the
	// default of 8.
	Workers int
}

type job struct {
	row  string
	line int
}

type partial struct {
	key   string
	chrom string
	pos   int
	cells []Entry
}

// Build consumes the reader to completion and publishes a complete Table, or
// no table at all: on error or cancellation nothing partial escapes.
func (b *Builder) Build(ctx context.Context, r *vcf.Reader, p *panel.Panel) (*Table, error) {
	workers := b.Workers
	if workers <= 0 {
		workers = defaultConcurrency
	}

	// A failing worker cancels the pipeline so the producer never blocks
	// feeding workers that have exited.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pops := p.Populations()
	t := newTable(pops)

	// Map each genotype column to a population index once, up front.
	// Columns the panel does not cover count toward the unmatched
	// diagnostic and are excluded from every population.
	samples := r.Samples()
	popCols := make([]int, len(samples))
	for i, s := range samples {
		pop, ok := p.Population(s)
		if !ok {
			popCols[i] = -1
			t.unmatched++
			continue
		}
		popCols[i] = t.popIndex[pop]
	}

	jobs := make(chan job, 4*workers)
	results := make(chan partial, 4*workers)
	errc := make(chan error, workers+1)

	// Producer: sequential reads off the (non-restartable) stream.
	go func() {
		defer close(jobs)
		for {
			row, line, err := r.ReadDataLine()
			if err == io.EOF {
				return
			}
			if err != nil {
				errc <- err
				return
			}
			select {
			case jobs <- job{row: row, line: line}:
			case <-ctx.Done():
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				v, err := r.ParseLine(j.row, j.line)
				if err != nil {
					errc <- err
					cancel()
					return
				}
				pt := countVariant(v, popCols, len(pops))
				if pt.cells == nil {
					continue
				}
				select {
				case results <- pt:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for pt := range results {
		if cells, ok := t.entries[pt.key]; ok {
			// Duplicate variant lines: counts add, order irrelevant.
			for i := range cells {
				cells[i].AltCount += pt.cells[i].AltCount
				cells[i].TotalCount += pt.cells[i].TotalCount
			}
			continue
		}
		t.entries[pt.key] = pt.cells
		t.sites[pt.key] = site{chrom: pt.chrom, pos: pt.pos}
	}

	// A parse error takes precedence over the cancellation it triggered.
	select {
	case err := <-errc:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// countVariant partitions one variant's calls by population and tallies
// alternate and total allele counts. Returns a partial with nil cells when
// no population has genotyped data at the site.
func countVariant(v *variant.Variant, popCols []int, nPops int) partial {
	cells := make([]Entry, nPops)
	any := false
	for i, gt := range v.Calls {
		col := popCols[i]
		if col < 0 || gt.Missing() {
			continue
		}
		cells[col].TotalCount += 2
		cells[col].AltCount += gt.AltCount()
		any = true
	}
	if !any {
		return partial{}
	}
	return partial{key: v.Key(), chrom: v.Chrom, pos: v.Pos, cells: cells}
}
