// Package diy validates manually entered genotype records and converts them
// into the same observation shape the VCF reader produces, so DIY-entered
// data and file-derived data are interchangeable scorer inputs.
package diy

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/LooneyRichie/Instant-DNA/variant"
)

// Method labels how a manual genotype was estimated.
type Method string

const (
	MethodVisualTrait   Method = "visual_trait"
	MethodPhenotype     Method = "phenotype"
	MethodFamilyHistory Method = "family_history"
	MethodAncestry      Method = "ancestry"
	MethodLabTest       Method = "lab_test"
)

var validMethods = map[Method]bool{
	MethodVisualTrait:   true,
	MethodPhenotype:     true,
	MethodFamilyHistory: true,
	MethodAncestry:      true,
	MethodLabTest:       true,
}

// Entry is one validated manual genotype record.
type Entry struct {
	RsID       string
	Chrom      string
	Pos        int
	Genotype   string
	Confidence float64
	Method     Method
}

// ValidationError rejects a single manual entry without aborting its batch.
type ValidationError struct {
	Index int    // zero-based position within the batch
	Input string // the offending record, verbatim
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("manual entry %d (%q): %s", e.Index, e.Input, e.Msg)
}

// Marker is a known SNP the adapter can decode genotype letters against.
type Marker struct {
	RsID  string
	Chrom string
	Pos   int
	Ref   string
	Alt   string
	Trait string
}

// KitMarkers lists the SNPs the DIY workflow supports: traits observable at
// home plus a few continental ancestry informative markers. Genotype letters
// in a manual entry must decode against the ref/alt alleles declared here.
var KitMarkers = []Marker{
	{RsID: "rs12913832", Chrom: "15", Pos: 28365618, Ref: "A", Alt: "G", Trait: "Eye color (HERC2)"},
	{RsID: "rs1805007", Chrom: "16", Pos: 89986091, Ref: "C", Alt: "T", Trait: "Red hair (MC1R)"},
	{RsID: "rs4988235", Chrom: "2", Pos: 136608646, Ref: "G", Alt: "A", Trait: "Lactose tolerance"},
	{RsID: "rs17822931", Chrom: "16", Pos: 48258198, Ref: "C", Alt: "T", Trait: "Earwax type (ABCC11)"},
	{RsID: "rs6152", Chrom: "12", Pos: 56372758, Ref: "G", Alt: "A", Trait: "Hair texture"},
	{RsID: "rs3827760", Chrom: "7", Pos: 2723432, Ref: "A", Alt: "G", Trait: "EDAR hair thickness"},
	{RsID: "rs2814778", Chrom: "1", Pos: 202136319, Ref: "T", Alt: "C", Trait: "Duffy antigen"},
	{RsID: "rs671", Chrom: "12", Pos: 112241766, Ref: "G", Alt: "A", Trait: "ALDH2 alcohol flush"},
	{RsID: "rs1426654", Chrom: "15", Pos: 48426484, Ref: "A", Alt: "G", Trait: "Skin pigmentation (SLC24A5)"},
	{RsID: "rs16891982", Chrom: "5", Pos: 33951693, Ref: "C", Alt: "G", Trait: "Pigmentation (SLC45A2)"},
}

// Adapter converts manual entries into scorer observations using a
// known-marker reference it owns.
type Adapter struct {
	markers map[string]Marker
}

// NewAdapter builds an adapter over the standard kit markers.
func NewAdapter() *Adapter {
	return NewAdapterWithMarkers(KitMarkers)
}

// NewAdapterWithMarkers builds an adapter over a custom marker reference.
func NewAdapterWithMarkers(markers []Marker) *Adapter {
	m := make(map[string]Marker, len(markers))
	for _, mk := range markers {
		m[mk.RsID] = mk
	}
	return &Adapter{markers: m}
}

// Marker looks up a known marker by rsID.
func (a *Adapter) Marker(rsID string) (Marker, bool) {
	m, ok := a.markers[rsID]
	return m, ok
}

// ParseEntry decodes one comma-separated manual record:
//
//	rsid,chromosome,position,genotype,confidence,method
//
// for example "rs12913832,15,28365618,GG,0.9,visual_trait".
func (a *Adapter) ParseEntry(input string) (*Entry, error) {
	parts := strings.Split(input, ",")
	if len(parts) != 6 {
		return nil, fmt.Errorf("expected 6 comma-separated fields, got %d", len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	rsID := parts[0]
	if !strings.HasPrefix(rsID, "rs") {
		return nil, fmt.Errorf("rsID %q must start with \"rs\"", rsID)
	}
	chrom := parts[1]
	if chrom == "" {
		return nil, fmt.Errorf("empty chromosome")
	}
	pos, err := strconv.Atoi(parts[2])
	if err != nil || pos <= 0 {
		return nil, fmt.Errorf("invalid position %q", parts[2])
	}

	genotype := strings.ToUpper(parts[3])
	if len(genotype) != 2 || !isBases(genotype) {
		return nil, fmt.Errorf("genotype %q must be two bases from A, C, G, T", parts[3])
	}

	confidence, err := strconv.ParseFloat(parts[4], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid confidence %q", parts[4])
	}
	if confidence < 0 || confidence > 1 {
		return nil, fmt.Errorf("confidence %v out of range [0,1]", confidence)
	}

	method := Method(parts[5])
	if !validMethods[method] {
		return nil, fmt.Errorf("unknown method %q", parts[5])
	}

	return &Entry{
		RsID:       rsID,
		Chrom:      chrom,
		Pos:        pos,
		Genotype:   genotype,
		Confidence: confidence,
		Method:     method,
	}, nil
}

func isBases(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'A', 'C', 'G', 'T':
		default:
			return false
		}
	}
	return true
}

// Observation decodes a validated entry's genotype letters against the
// marker reference into allele indices.
func (a *Adapter) Observation(e *Entry) (variant.Observation, error) {
	m, ok := a.markers[e.RsID]
	if !ok {
		return variant.Observation{}, fmt.Errorf("unknown marker %s", e.RsID)
	}
	a1, err := alleleIndex(string(e.Genotype[0]), m)
	if err != nil {
		return variant.Observation{}, err
	}
	a2, err := alleleIndex(string(e.Genotype[1]), m)
	if err != nil {
		return variant.Observation{}, err
	}
	return variant.Observation{
		Genotype:   variant.Genotype{A1: a1, A2: a2},
		Confidence: e.Confidence,
	}, nil
}

func alleleIndex(base string, m Marker) (int8, error) {
	switch base {
	case m.Ref:
		return 0, nil
	case m.Alt:
		return 1, nil
	}
	return 0, fmt.Errorf("base %s is neither ref %s nor alt %s for %s", base, m.Ref, m.Alt, m.RsID)
}

// Report summarizes a batch conversion: which entries were accepted and
// which were rejected, one ValidationError per offender.
type Report struct {
	Accepted []*Entry
	Errors   []*ValidationError
}

// Batch converts raw manual records into a query vector keyed by rsID.
// Malformed entries are rejected individually; valid entries in the same
// batch are still accepted.
func (a *Adapter) Batch(inputs []string) (map[string]variant.Observation, *Report) {
	report := &Report{}
	query := make(map[string]variant.Observation, len(inputs))
	for i, input := range inputs {
		entry, err := a.ParseEntry(input)
		if err != nil {
			report.Errors = append(report.Errors, &ValidationError{Index: i, Input: input, Msg: err.Error()})
			continue
		}
		obs, err := a.Observation(entry)
		if err != nil {
			report.Errors = append(report.Errors, &ValidationError{Index: i, Input: input, Msg: err.Error()})
			continue
		}
		query[entry.RsID] = obs
		report.Accepted = append(report.Accepted, entry)
	}
	return query, report
}
