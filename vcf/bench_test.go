package vcf

import (
	"fmt"
	"io"
	"strings"
	"testing"
)

func benchVCF(nVariants, nSamples int) string {
	var b strings.Builder
	b.WriteString("##fileformat=VCFv4.3\n#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT")
	for i := 0; i < nSamples; i++ {
		fmt.Fprintf(&b, "\tS%04d", i)
	}
	b.WriteString("\n")
	gts := []string{"0|0", "0|1", "1|1", "./."}
	for v := 0; v < nVariants; v++ {
		fmt.Fprintf(&b, "1\t%d\trs%d\tA\tG\t100\tPASS\t.\tGT", 10000+v, v)
		for s := 0; s < nSamples; s++ {
			b.WriteString("\t" + gts[(v+s)%len(gts)])
		}
		b.WriteString("\n")
	}
	return b.String()
}

func BenchmarkReaderNext(b *testing.B) {
	data := benchVCF(1000, 100)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		r, err := New(strings.NewReader(data), "bench.vcf")
		if err != nil {
			b.Fatal(err)
		}
		for {
			_, err := r.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				b.Fatal(err)
			}
		}
	}
}

func BenchmarkParseLine(b *testing.B) {
	data := benchVCF(1, 2504)
	r, err := New(strings.NewReader(data), "bench.vcf")
	if err != nil {
		b.Fatal(err)
	}
	row, ln, err := r.ReadDataLine()
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(row)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := r.ParseLine(row, ln); err != nil {
			b.Fatal(err)
		}
	}
}
