package freq

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/LooneyRichie/Instant-DNA/arrowio"
)

// One row per (variant, population) pair with a defined denominator. The
// counts alone are enough to rebuild scoring without re-reading the source
// variant file; the frequency column is carried for downstream consumers
// that only want the derived value.
var tableFields = []arrowio.Field{
	{Name: "variant", Type: arrowio.String},
	{Name: "chrom", Type: arrowio.String},
	{Name: "pos", Type: arrowio.Int64},
	{Name: "population", Type: arrowio.String},
	{Name: "alt_count", Type: arrowio.Int64},
	{Name: "total_count", Type: arrowio.Int64},
	{Name: "frequency", Type: arrowio.Float64},
}

const tableChunkSize = 4096

// WriteArrow persists the table as an Arrow IPC file. Rows are emitted in
// sorted (variant, population) order so identical tables serialize to
// identical files.
func (t *Table) WriteArrow(path string) error {
	w, err := arrowio.NewWriter(path, tableFields, tableChunkSize)
	if err != nil {
		return errors.Wrapf(err, "creating frequency table %s", path)
	}
	for _, key := range t.Keys() {
		cells := t.entries[key]
		s := t.sites[key]
		for i, pop := range t.pops {
			if cells[i].TotalCount == 0 {
				continue
			}
			row := []interface{}{
				key,
				s.chrom,
				int64(s.pos),
				pop,
				int64(cells[i].AltCount),
				int64(cells[i].TotalCount),
				cells[i].Frequency(),
			}
			if err := w.Write(row); err != nil {
				w.Close()
				return err
			}
		}
	}
	return w.Close()
}

// LoadArrow rebuilds a Table from a persisted artifact. The unmatched-sample
// diagnostic is a property of the original build and is not carried by the
// artifact.
func LoadArrow(path string) (*Table, error) {
	rows, err := arrowio.ReadAll(path)
	if err != nil {
		return nil, err
	}

	popSet := make(map[string]bool)
	for _, row := range rows {
		if len(row) != len(tableFields) {
			return nil, errors.Errorf("frequency table %s: row has %d columns, want %d", path, len(row), len(tableFields))
		}
		pop, ok := row[3].(string)
		if !ok {
			return nil, errors.Errorf("frequency table %s: population column is not a string", path)
		}
		popSet[pop] = true
	}
	pops := make([]string, 0, len(popSet))
	for pop := range popSet {
		pops = append(pops, pop)
	}
	slices.Sort(pops)

	t := newTable(pops)
	for _, row := range rows {
		key := row[0].(string)
		chrom, _ := row[1].(string)
		pos, _ := row[2].(int64)
		pop := row[3].(string)
		alt, ok1 := row[4].(int64)
		total, ok2 := row[5].(int64)
		if !ok1 || !ok2 || total <= 0 {
			return nil, errors.Errorf("frequency table %s: bad counts for %s/%s", path, key, pop)
		}
		cells, ok := t.entries[key]
		if !ok {
			cells = make([]Entry, len(pops))
			t.entries[key] = cells
			t.sites[key] = site{chrom: chrom, pos: int(pos)}
		}
		cells[t.popIndex[pop]] = Entry{AltCount: int(alt), TotalCount: int(total)}
	}
	return t, nil
}
