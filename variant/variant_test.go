package variant

import "testing"

func TestParseGenotype(t *testing.T) {
	gt, err := ParseGenotype("0|1", 1)
	if err != nil || gt.A1 != 0 || gt.A2 != 1 || !gt.Phased {
		t.Error("failed to parse phased het", gt, err)
	} else {
		t.Log("OK: phased het")
	}

	gt, err = ParseGenotype("1/1", 1)
	if err != nil || gt.A1 != 1 || gt.A2 != 1 || gt.Phased {
		t.Error("failed to parse unphased hom", gt, err)
	} else {
		t.Log("OK: unphased hom alt")
	}

	gt, err = ParseGenotype("0|1:0.98:-0.03,-1.12", 1)
	if err != nil || gt.A1 != 0 || gt.A2 != 1 {
		t.Error("failed to strip FORMAT subfields", gt, err)
	} else {
		t.Log("OK: FORMAT subfields stripped")
	}

	gt, err = ParseGenotype("./.", 1)
	if err != nil || !gt.Missing() {
		t.Error("failed to parse missing genotype", gt, err)
	} else {
		t.Log("OK: missing genotype")
	}

	gt, err = ParseGenotype(".|1", 1)
	if err != nil || !gt.Missing() {
		t.Error("half-missing genotype should be missing", gt, err)
	} else {
		t.Log("OK: half-missing genotype is missing")
	}

	gt, err = ParseGenotype("1", 1)
	if err != nil || gt.A1 != 1 || gt.A2 != 1 {
		t.Error("failed to parse haploid call", gt, err)
	} else {
		t.Log("OK: haploid call")
	}

	if _, err = ParseGenotype("0|2", 1); err == nil {
		t.Error("allele index above alternate count must fail")
	} else {
		t.Log("OK: allele index bound enforced")
	}

	if _, err = ParseGenotype("a|b", 1); err == nil {
		t.Error("garbage token must fail")
	} else {
		t.Log("OK: garbage token rejected")
	}

	if _, err = ParseGenotype("", 1); err == nil {
		t.Error("empty token must fail")
	} else {
		t.Log("OK: empty token rejected")
	}
}

func TestAltCount(t *testing.T) {
	cases := []struct {
		gt   Genotype
		want int
	}{
		{Genotype{A1: 0, A2: 0}, 0},
		{Genotype{A1: 0, A2: 1}, 1},
		{Genotype{A1: 1, A2: 0}, 1},
		{Genotype{A1: 1, A2: 1}, 2},
		// Higher-order alternates fold out of the binary model.
		{Genotype{A1: 2, A2: 1}, 1},
	}
	for _, c := range cases {
		if got := c.gt.AltCount(); got != c.want {
			t.Errorf("AltCount(%v) = %d, want %d", c.gt, got, c.want)
		}
	}
}

func TestVariantKey(t *testing.T) {
	v := &Variant{Chrom: "15", Pos: 28365618, ID: "rs12913832"}
	if v.Key() != "rs12913832" {
		t.Error("rsID should win when present, got", v.Key())
	}

	v = &Variant{Chrom: "15", Pos: 28365618, ID: "."}
	if v.Key() != "15:28365618" {
		t.Error("missing rsID should fall back to chrom:pos, got", v.Key())
	}
}

func TestFormatErrorContext(t *testing.T) {
	err := Formatf("chr21.vcf.gz", 1052, "bad position %q", "x")
	if err.Error() != `chr21.vcf.gz:1052: bad position "x"` {
		t.Error("format error must carry path and line:", err.Error())
	}
}
