// Package ancestry scores a query sample's genotypes against per-population
// allele frequency tables and normalizes the result into ancestry
// proportions.
package ancestry

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/LooneyRichie/Instant-DNA/freq"
	"github.com/LooneyRichie/Instant-DNA/variant"
)

// ErrInsufficientData is returned when the query shares no usable variant
// with any population. It is a user-visible condition: the query simply has
// nothing in common with the reference set.
var ErrInsufficientData = errors.New("ancestry: no shared variants between query and any population")

// freqEpsilon keeps Hardy-Weinberg probabilities off the 0/1 boundary so a
// single discordant observation cannot drive a score to negative infinity.
const freqEpsilon = 1e-6

// Scorer evaluates query genotype vectors against one published frequency
// table. The table is read-only; concurrent Score calls are safe.
type Scorer struct {
	table *freq.Table
}

func NewScorer(t *freq.Table) *Scorer {
	return &Scorer{table: t}
}

// Result reports ancestry proportions over the table's populations.
type Result struct {
	// Proportions sum to 1 over the scored populations. Populations
	// sharing no variant with the query get exactly 0.
	Proportions map[string]float64
	// VariantsUsed counts the variants contributing to each population's
	// score.
	VariantsUsed map[string]int
	// UnmatchedSamples carries over the table's build diagnostic.
	UnmatchedSamples int
	// MeanConfidence averages the confidence of the observations that
	// contributed to at least one population score.
	MeanConfidence float64
}

// Score computes, per population, the confidence-weighted Hardy-Weinberg
// log-likelihood of the query genotypes, then converts the scores to the
// probability simplex with a max-subtracted softmax. The query vector may be
// sparse; only variants present in both the query and a population's table
// entries contribute.
func (s *Scorer) Score(query map[string]variant.Observation) (*Result, error) {
	pops := s.table.Populations()
	scores := make([]float64, len(pops))
	used := make([]int, len(pops))

	var confidences []float64
	for key, obs := range query {
		cells, ok := s.table.Row(key)
		if !ok {
			continue
		}
		if obs.Genotype.Missing() {
			continue
		}
		altCount := obs.Genotype.AltCount()
		counted := false
		for i := range pops {
			if cells[i].TotalCount == 0 {
				continue
			}
			p := clampFrequency(cells[i].Frequency())
			scores[i] += obs.Confidence * math.Log(hardyWeinberg(p, altCount))
			used[i]++
			counted = true
		}
		if counted {
			confidences = append(confidences, obs.Confidence)
		}
	}

	anyShared := false
	for i := range pops {
		if used[i] > 0 {
			anyShared = true
			break
		}
	}
	if !anyShared {
		return nil, ErrInsufficientData
	}

	res := &Result{
		Proportions:      softmax(pops, scores, used),
		VariantsUsed:     make(map[string]int, len(pops)),
		UnmatchedSamples: s.table.UnmatchedSamples(),
	}
	for i, pop := range pops {
		res.VariantsUsed[pop] = used[i]
	}
	if len(confidences) > 0 {
		mean, err := stats.Mean(confidences)
		if err != nil {
			return nil, err
		}
		res.MeanConfidence = mean
	}
	return res, nil
}

// hardyWeinberg is the genotype probability under random mating at alternate
// allele frequency p: (1-p)^2, 2p(1-p) or p^2 for 0, 1 or 2 alternate
// alleles.
func hardyWeinberg(p float64, altCount int) float64 {
	switch altCount {
	case 0:
		return (1 - p) * (1 - p)
	case 1:
		return 2 * p * (1 - p)
	default:
		return p * p
	}
}

func clampFrequency(p float64) float64 {
	if p < freqEpsilon {
		return freqEpsilon
	}
	if p > 1-freqEpsilon {
		return 1 - freqEpsilon
	}
	return p
}

// softmax exponentiates relative log-likelihoods over the populations that
// shared at least one variant; the rest stay at exactly zero. Subtracting
// the max score first keeps the exponentials in range.
func softmax(pops []string, scores []float64, used []int) map[string]float64 {
	maxScore := math.Inf(-1)
	for i := range pops {
		if used[i] > 0 && scores[i] > maxScore {
			maxScore = scores[i]
		}
	}

	total := 0.0
	weights := make([]float64, len(pops))
	for i := range pops {
		if used[i] == 0 {
			continue
		}
		weights[i] = math.Exp(scores[i] - maxScore)
		total += weights[i]
	}

	out := make(map[string]float64, len(pops))
	for i, pop := range pops {
		if used[i] == 0 {
			out[pop] = 0
			continue
		}
		out[pop] = weights[i] / total
	}
	return out
}
