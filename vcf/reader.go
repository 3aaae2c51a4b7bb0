// Package vcf streams variant records out of a (possibly compressed) VCF
// file. The reader is lazy, forward-only and non-restartable: it holds one
// record's worth of genotype calls in memory at a time, never the file.
package vcf

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	filetype "gopkg.in/h2non/filetype.v1"
	"gopkg.in/h2non/filetype.v1/matchers"

	"github.com/LooneyRichie/Instant-DNA/variant"
)

const (
	chromIdx  = 0
	posIdx    = 1
	idIdx     = 2
	refIdx    = 3
	altIdx    = 4
	qualIdx   = 5
	filterIdx = 6
	infoIdx   = 7
	formatIdx = 8

	// First sample column in the header line.
	sampleIdx = 9
)

// sniffLen covers every magic number filetype knows about.
const sniffLen = 262

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Reader yields Variant records in file order. Construct with Open or New;
// call Next until io.EOF.
type Reader struct {
	path    string
	br      *bufio.Reader
	samples []string
	line    int

	closers []io.Closer
}

// Open opens a VCF file, transparently decompressing gzip (including BGZF
// blocks, which are valid gzip members) and zstd input. Compression is
// detected from content, not the file extension.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &variant.IOError{Path: path, Err: err}
	}
	r, err := New(f, path)
	if err != nil {
		f.Close()
		return nil, err
	}
	r.closers = append(r.closers, f)
	return r, nil
}

// New wraps an already-open stream. path is used for error context only.
func New(in io.Reader, path string) (*Reader, error) {
	br := bufio.NewReaderSize(in, 1<<16)

	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		return nil, &variant.IOError{Path: path, Err: err}
	}

	r := &Reader{path: path}
	switch {
	case filetype.IsType(head, matchers.TypeGz):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, &variant.IOError{Path: path, Err: err}
		}
		gz.Multistream(true)
		r.closers = append(r.closers, gz)
		r.br = bufio.NewReaderSize(gz, 1<<16)
	case len(head) >= len(zstdMagic) && string(head[:len(zstdMagic)]) == string(zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, &variant.IOError{Path: path, Err: err}
		}
		r.closers = append(r.closers, zr.IOReadCloser())
		r.br = bufio.NewReaderSize(zr, 1<<16)
	default:
		r.br = br
	}

	if err := r.readHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// Samples returns the sample column names, in header order. The slice is
// shared; callers must not modify it.
func (r *Reader) Samples() []string { return r.samples }

// SampleIndex returns the call index for a sample name, or -1.
func (r *Reader) SampleIndex(name string) int {
	for i, s := range r.samples {
		if s == name {
			return i
		}
	}
	return -1
}

func (r *Reader) Close() error {
	var first error
	// Decompressors were appended first; close them before the file.
	for _, c := range r.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// readHeader consumes meta lines until the #CHROM header line and locks in
// the sample column set. A header with zero genotype columns is a format
// failure, not an empty universe.
func (r *Reader) readHeader() error {
	for {
		row, err := r.readLine()
		if err == io.EOF {
			return variant.Formatf(r.path, r.line, "missing #CHROM header line")
		}
		if err != nil {
			return err
		}
		if row == "" || strings.HasPrefix(row, "##") {
			continue
		}
		if !strings.HasPrefix(row, "#CHROM") {
			return variant.Formatf(r.path, r.line, "expected #CHROM header line, got %q", truncate(row))
		}
		fields := strings.Split(row, "\t")
		if len(fields) < sampleIdx+1 {
			return variant.Formatf(r.path, r.line, "header declares no genotype columns")
		}
		r.samples = fields[sampleIdx:]
		return nil
	}
}

// Next returns the next variant record, io.EOF at end of input, a
// FormatError on malformed lines, or an IOError on read failures.
func (r *Reader) Next() (*variant.Variant, error) {
	row, ln, err := r.ReadDataLine()
	if err != nil {
		return nil, err
	}
	return r.ParseLine(row, ln)
}

// ReadDataLine returns the next raw data line and its line number, skipping
// blanks and stray comments. Callers that parse lines on worker goroutines
// (the frequency table builder) read here sequentially and hand lines to
// ParseLine concurrently.
func (r *Reader) ReadDataLine() (string, int, error) {
	for {
		row, err := r.readLine()
		if err != nil {
			return "", r.line, err
		}
		if row == "" || row[0] == '#' {
			continue
		}
		return row, r.line, nil
	}
}

// readLine uses bufio.Reader.ReadString rather than a Scanner: VCF data
// lines with thousands of samples routinely exceed Scanner's buffer.
func (r *Reader) readLine() (string, error) {
	row, err := r.br.ReadString('\n')
	if err == io.EOF {
		if row == "" {
			return "", io.EOF
		}
		// Final line without a trailing newline.
	} else if err != nil {
		return "", &variant.IOError{Path: r.path, Err: err}
	}
	r.line++
	return strings.TrimRight(row, "\r\n"), nil
}

// ParseLine parses one raw data line into a Variant. It reads only immutable
// reader state (path, sample header), so it is safe to call from multiple
// goroutines once the header is established.
func (r *Reader) ParseLine(row string, line int) (*variant.Variant, error) {
	fields := strings.Split(row, "\t")
	want := sampleIdx + len(r.samples)
	if len(fields) < want {
		return nil, variant.Formatf(r.path, line, "line has %d fields, header declares %d", len(fields), want)
	}

	pos, err := strconv.Atoi(fields[posIdx])
	if err != nil || pos <= 0 {
		return nil, variant.Formatf(r.path, line, "bad position %q", fields[posIdx])
	}
	ref := fields[refIdx]
	if ref == "" {
		return nil, variant.Formatf(r.path, line, "empty reference allele")
	}
	alts := strings.Split(fields[altIdx], ",")
	if len(alts) == 1 && alts[0] == "" {
		return nil, variant.Formatf(r.path, line, "empty alternate allele")
	}

	v := &variant.Variant{
		Chrom: fields[chromIdx],
		Pos:   pos,
		ID:    fields[idIdx],
		Ref:   ref,
		Alts:  alts,
		Qual:  fields[qualIdx],
		Calls: make([]variant.Genotype, len(r.samples)),
	}
	for i := range r.samples {
		gt, err := variant.ParseGenotype(fields[sampleIdx+i], len(alts))
		if err != nil {
			return nil, variant.Formatf(r.path, line, "sample %s: %v", r.samples[i], err)
		}
		v.Calls[i] = gt
	}
	return v, nil
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

// Observations drains the reader and collects one sample's genotype vector,
// keyed by variant.Key, with the implicit confidence of file-derived calls.
// Missing genotypes are dropped rather than recorded.
func Observations(r *Reader, sample string) (map[string]variant.Observation, error) {
	idx := r.SampleIndex(sample)
	if idx < 0 {
		return nil, variant.Formatf(r.path, 0, "sample %s not present in header", sample)
	}
	obs := make(map[string]variant.Observation)
	for {
		v, err := r.Next()
		if err == io.EOF {
			return obs, nil
		}
		if err != nil {
			return nil, err
		}
		gt := v.Calls[idx]
		if gt.Missing() {
			continue
		}
		obs[v.Key()] = variant.Observation{Genotype: gt, Confidence: 1.0}
	}
}
