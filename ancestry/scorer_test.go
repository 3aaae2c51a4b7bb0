package ancestry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LooneyRichie/Instant-DNA/freq"
	"github.com/LooneyRichie/Instant-DNA/panel"
	"github.com/LooneyRichie/Instant-DNA/variant"
	"github.com/LooneyRichie/Instant-DNA/vcf"
)

func buildTable(t *testing.T, panelData, vcfData string) *freq.Table {
	t.Helper()
	p, err := panel.Parse(strings.NewReader(panelData), "test.panel")
	require.NoError(t, err)
	r, err := vcf.New(strings.NewReader(vcfData), "test.vcf")
	require.NoError(t, err)
	table, err := (&freq.Builder{Workers: 2}).Build(context.Background(), r, p)
	require.NoError(t, err)
	return table
}

const scorerPanel = "sample\tpop\n" +
	"S1\tPOPX\nS2\tPOPX\n" +
	"S3\tPOPY\nS4\tPOPY\n"

// POPX carries the alternate allele at every site, POPY almost never.
const scorerVCF = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\tS2\tS3\tS4\n" +
	"1\t100\trsA\tA\tG\t100\tPASS\t.\tGT\t1|1\t1|1\t0|0\t0|1\n" +
	"1\t200\trsB\tC\tT\t100\tPASS\t.\tGT\t1|1\t0|1\t0|0\t0|0\n" +
	"1\t300\trsC\tG\tA\t100\tPASS\t.\tGT\t1|1\t1|1\t0|0\t0|0\n"

func hom(alt bool) variant.Genotype {
	if alt {
		return variant.Genotype{A1: 1, A2: 1}
	}
	return variant.Genotype{A1: 0, A2: 0}
}

func TestScoreProportionsSumToOne(t *testing.T) {
	table := buildTable(t, scorerPanel, scorerVCF)
	query := map[string]variant.Observation{
		"rsA": {Genotype: hom(true), Confidence: 1},
		"rsB": {Genotype: variant.Genotype{A1: 0, A2: 1}, Confidence: 1},
		"rsC": {Genotype: hom(false), Confidence: 1},
	}

	res, err := NewScorer(table).Score(query)
	require.NoError(t, err)

	total := 0.0
	for _, prop := range res.Proportions {
		assert.GreaterOrEqual(t, prop, 0.0)
		total += prop
	}
	assert.InDelta(t, 1.0, total, 1e-6)
	assert.Equal(t, 3, res.VariantsUsed["POPX"])
	assert.Equal(t, 3, res.VariantsUsed["POPY"])
	assert.Equal(t, 1.0, res.MeanConfidence)
}

func TestScoreFavorsMatchingPopulation(t *testing.T) {
	table := buildTable(t, scorerPanel, scorerVCF)
	// An all-alt query looks like POPX.
	query := map[string]variant.Observation{
		"rsA": {Genotype: hom(true), Confidence: 1},
		"rsB": {Genotype: hom(true), Confidence: 1},
		"rsC": {Genotype: hom(true), Confidence: 1},
	}

	res, err := NewScorer(table).Score(query)
	require.NoError(t, err)
	assert.Greater(t, res.Proportions["POPX"], res.Proportions["POPY"])
}

func TestScoreSingleSharedPopulation(t *testing.T) {
	// rsOnly is genotyped in POPX samples only; POPY is all-missing there.
	vcfData := "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tS1\tS2\tS3\tS4\n" +
		"1\t100\trsOnly\tA\tG\t100\tPASS\t.\tGT\t1|1\t0|1\t./.\t./.\n"
	table := buildTable(t, scorerPanel, vcfData)

	query := map[string]variant.Observation{
		"rsOnly": {Genotype: hom(true), Confidence: 1},
	}
	res, err := NewScorer(table).Score(query)
	require.NoError(t, err)

	assert.Equal(t, 1.0, res.Proportions["POPX"])
	assert.Equal(t, 0.0, res.Proportions["POPY"])
	assert.Equal(t, 0, res.VariantsUsed["POPY"])
}

func TestScoreInsufficientData(t *testing.T) {
	table := buildTable(t, scorerPanel, scorerVCF)
	query := map[string]variant.Observation{
		"rsUnknown": {Genotype: hom(true), Confidence: 1},
	}
	_, err := NewScorer(table).Score(query)
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestScoreEmptyQuery(t *testing.T) {
	table := buildTable(t, scorerPanel, scorerVCF)
	_, err := NewScorer(table).Score(map[string]variant.Observation{})
	require.ErrorIs(t, err, ErrInsufficientData)
}

func TestScoreBoundaryFrequencyClamped(t *testing.T) {
	table := buildTable(t, scorerPanel, scorerVCF)
	// rsC has POPY frequency exactly 0; a discordant hom-alt observation
	// must dent the score, not send it to -Inf.
	query := map[string]variant.Observation{
		"rsC": {Genotype: hom(true), Confidence: 1},
	}
	res, err := NewScorer(table).Score(query)
	require.NoError(t, err)
	assert.Greater(t, res.Proportions["POPY"], 0.0, "clamping keeps proportions strictly positive")
	assert.Greater(t, res.Proportions["POPX"], res.Proportions["POPY"])
}

func TestScoreConfidenceWeighting(t *testing.T) {
	table := buildTable(t, scorerPanel, scorerVCF)

	confident := map[string]variant.Observation{
		"rsA": {Genotype: hom(false), Confidence: 1.0},
	}
	hesitant := map[string]variant.Observation{
		"rsA": {Genotype: hom(false), Confidence: 0.2},
	}

	strong, err := NewScorer(table).Score(confident)
	require.NoError(t, err)
	weak, err := NewScorer(table).Score(hesitant)
	require.NoError(t, err)

	// A hom-ref call points at POPY. Down-weighting it should pull the
	// result back toward even.
	assert.Greater(t, strong.Proportions["POPY"], weak.Proportions["POPY"])
	assert.Greater(t, weak.Proportions["POPY"], 0.5)
	assert.InDelta(t, 0.2, weak.MeanConfidence, 1e-12)
}

func TestScoreConcurrentReads(t *testing.T) {
	table := buildTable(t, scorerPanel, scorerVCF)
	scorer := NewScorer(table)
	query := map[string]variant.Observation{
		"rsA": {Genotype: hom(true), Confidence: 1},
		"rsB": {Genotype: hom(false), Confidence: 0.5},
	}

	done := make(chan error, 8)
	for i := 0; i < 8; i++ {
		go func() {
			_, err := scorer.Score(query)
			done <- err
		}()
	}
	for i := 0; i < 8; i++ {
		require.NoError(t, <-done)
	}
}
