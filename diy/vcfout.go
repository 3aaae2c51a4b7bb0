package diy

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/exp/slices"
)

// WriteVCF renders accepted manual entries as a minimal single-sample VCF
// document, so DIY data can re-enter the standard variant pipeline. Entries
// whose genotype cannot be decoded against the marker reference are skipped;
// Batch already rejected those.
func (a *Adapter) WriteVCF(w io.Writer, sample string, entries []*Entry) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "##fileformat=VCFv4.3")
	fmt.Fprintln(bw, "##source=instantdna_manual_entry")
	fmt.Fprintln(bw, `##INFO=<ID=CONF,Number=1,Type=Float,Description="Manual entry confidence">`)
	fmt.Fprintln(bw, `##INFO=<ID=METHOD,Number=1,Type=String,Description="Manual genotyping method">`)
	fmt.Fprintln(bw, `##FORMAT=<ID=GT,Number=1,Type=String,Description="Genotype">`)
	fmt.Fprintf(bw, "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\t%s\n", sample)

	sorted := make([]*Entry, len(entries))
	copy(sorted, entries)
	slices.SortFunc(sorted, func(a, b *Entry) int {
		if a.Chrom != b.Chrom {
			if a.Chrom < b.Chrom {
				return -1
			}
			return 1
		}
		return a.Pos - b.Pos
	})

	for _, e := range sorted {
		obs, err := a.Observation(e)
		if err != nil {
			continue
		}
		m := a.markers[e.RsID]
		info := fmt.Sprintf("CONF=%.2f;METHOD=%s", e.Confidence, e.Method)
		fmt.Fprintf(bw, "%s\t%d\t%s\t%s\t%s\t%d\tPASS\t%s\tGT\t%s\n",
			e.Chrom, e.Pos, e.RsID, m.Ref, m.Alt, int(e.Confidence*100), info, obs.Genotype)
	}

	return bw.Flush()
}
