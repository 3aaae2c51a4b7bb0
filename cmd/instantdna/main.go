// Command instantdna wires the ancestry inference pipeline: build
// per-population frequency tables from a VCF and a population panel, score
// samples against them, and convert manually entered genotypes.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	kingpin "gopkg.in/alecthomas/kingpin.v2"

	"github.com/LooneyRichie/Instant-DNA/ancestry"
	"github.com/LooneyRichie/Instant-DNA/diy"
	"github.com/LooneyRichie/Instant-DNA/freq"
	"github.com/LooneyRichie/Instant-DNA/panel"
	"github.com/LooneyRichie/Instant-DNA/vcf"
)

var (
	app = kingpin.New("instantdna", "population-reference ancestry inference from variant call data")

	freqCmd     = app.Command("freq", "build a per-population allele frequency table")
	freqVCF     = freqCmd.Flag("vcf", "variant call file (.vcf, .vcf.gz or .vcf.zst)").Required().ExistingFile()
	freqPanel   = freqCmd.Flag("panel", "sample to population panel file").Required().ExistingFile()
	freqOut     = freqCmd.Flag("out", "output frequency table (arrow ipc)").Required().String()
	freqWorkers = freqCmd.Flag("workers", "parse worker count").Default("8").Int()

	scoreCmd     = app.Command("ancestry", "estimate ancestry proportions for a sample")
	scoreVCF     = scoreCmd.Flag("vcf", "variant call file with the query sample").Required().ExistingFile()
	scorePanel   = scoreCmd.Flag("panel", "sample to population panel file").ExistingFile()
	scoreTable   = scoreCmd.Flag("table", "previously built frequency table (arrow ipc)").ExistingFile()
	scoreSample  = scoreCmd.Flag("sample", "query sample identifier").Required().String()
	scoreWorkers = scoreCmd.Flag("workers", "parse worker count").Default("8").Int()

	diyCmd     = app.Command("diy", "score manually entered genotypes against a frequency table")
	diyEntries = diyCmd.Flag("entries", "manual entry file, one rsid,chrom,pos,genotype,confidence,method record per line").Required().ExistingFile()
	diyTable   = diyCmd.Flag("table", "frequency table (arrow ipc)").Required().ExistingFile()

	exportCmd     = app.Command("export", "render manual entries as a single-sample VCF")
	exportEntries = exportCmd.Flag("entries", "manual entry file").Required().ExistingFile()
	exportSample  = exportCmd.Flag("sample", "subject name for the VCF sample column").Default("DIY_SUBJECT").String()
	exportOut     = exportCmd.Flag("out", "output VCF path").Required().String()

	cyan = color.New(color.FgCyan).SprintFunc()
)

func init() {
	log.SetFlags(0)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch kingpin.MustParse(app.Parse(os.Args[1:])) {
	case freqCmd.FullCommand():
		err = runFreq(ctx)
	case scoreCmd.FullCommand():
		err = runAncestry(ctx)
	case diyCmd.FullCommand():
		err = runDiy()
	case exportCmd.FullCommand():
		err = runExport()
	}
	if err != nil {
		log.Fatal(err)
	}
}

func buildTable(ctx context.Context, vcfPath, panelPath string, workers int) (*freq.Table, error) {
	p, err := panel.Load(panelPath)
	if err != nil {
		return nil, err
	}
	r, err := vcf.Open(vcfPath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = fmt.Sprintf(" building frequency table from %s", vcfPath)
	s.Start()
	defer s.Stop()

	b := &freq.Builder{Workers: workers}
	return b.Build(ctx, r, p)
}

func runFreq(ctx context.Context) error {
	t, err := buildTable(ctx, *freqVCF, *freqPanel, *freqWorkers)
	if err != nil {
		return err
	}
	if err := t.WriteArrow(*freqOut); err != nil {
		return err
	}
	sum, err := t.Summarize()
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d variants, %d populations, %d entries (mean alt freq %.4f)\n",
		cyan(*freqOut), t.NumVariants(), len(t.Populations()), sum.Entries, sum.Mean)
	if n := t.UnmatchedSamples(); n > 0 {
		fmt.Printf("warning: %d genotype columns not covered by the panel\n", n)
	}
	return nil
}

func runAncestry(ctx context.Context) error {
	var t *freq.Table
	var err error
	switch {
	case *scoreTable != "":
		t, err = freq.LoadArrow(*scoreTable)
	case *scorePanel != "":
		t, err = buildTable(ctx, *scoreVCF, *scorePanel, *scoreWorkers)
	default:
		return fmt.Errorf("need either --table or --panel")
	}
	if err != nil {
		return err
	}

	r, err := vcf.Open(*scoreVCF)
	if err != nil {
		return err
	}
	defer r.Close()
	query, err := vcf.Observations(r, *scoreSample)
	if err != nil {
		return err
	}

	res, err := ancestry.NewScorer(t).Score(query)
	if err != nil {
		return err
	}
	printResult(*scoreSample, res)
	return nil
}

func runDiy() error {
	t, err := freq.LoadArrow(*diyTable)
	if err != nil {
		return err
	}
	lines, err := readEntryLines(*diyEntries)
	if err != nil {
		return err
	}

	adapter := diy.NewAdapter()
	query, report := adapter.Batch(lines)
	for _, verr := range report.Errors {
		fmt.Fprintln(os.Stderr, "rejected:", verr)
	}
	fmt.Printf("accepted %d of %d manual entries\n", len(report.Accepted), len(lines))

	res, err := ancestry.NewScorer(t).Score(query)
	if err != nil {
		return err
	}
	printResult("DIY subject", res)
	return nil
}

func runExport() error {
	lines, err := readEntryLines(*exportEntries)
	if err != nil {
		return err
	}
	adapter := diy.NewAdapter()
	_, report := adapter.Batch(lines)
	for _, verr := range report.Errors {
		fmt.Fprintln(os.Stderr, "rejected:", verr)
	}
	if len(report.Accepted) == 0 {
		return fmt.Errorf("no valid manual entries in %s", *exportEntries)
	}

	f, err := os.Create(*exportOut)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := adapter.WriteVCF(f, *exportSample, report.Accepted); err != nil {
		return err
	}
	fmt.Printf("wrote %d entries to %s\n", len(report.Accepted), cyan(*exportOut))
	return nil
}

func readEntryLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func printResult(subject string, res *ancestry.Result) {
	fmt.Printf("ancestry proportions for %s:\n", cyan(subject))
	// Result maps share the table's population set; print in sorted order.
	pops := maps.Keys(res.Proportions)
	slices.Sort(pops)
	for _, pop := range pops {
		bar := strings.Repeat("#", int(res.Proportions[pop]*40))
		fmt.Printf("  %-8s %6.2f%%  %-40s (%d variants)\n",
			pop, res.Proportions[pop]*100, bar, res.VariantsUsed[pop])
	}
	fmt.Printf("mean observation confidence: %.2f\n", res.MeanConfidence)
	if res.UnmatchedSamples > 0 {
		fmt.Printf("panel-unmatched samples during table build: %d\n", res.UnmatchedSamples)
	}
}
