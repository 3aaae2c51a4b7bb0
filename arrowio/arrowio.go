// Package arrowio writes and reads columnar tables in the Arrow IPC file
// format. Rows are buffered into record batches of a fixed chunk size so the
// writer never holds a full table in memory.
package arrowio

import (
	"os"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"
	"github.com/pkg/errors"
)

// Type enumerates the column types the writer supports.
type Type int

const (
	String Type = iota
	Int64
	Float64
)

// Field names and types one column.
type Field struct {
	Name string
	Type Type
}

type Writer struct {
	filePath       string
	fields         []Field
	schema         *arrow.Schema
	writer         *ipc.FileWriter
	builders       []array.Builder
	pool           *memory.GoAllocator
	chunkSize      int
	numRowsInChunk int
}

func NewWriter(filePath string, fields []Field, chunkSize int) (*Writer, error) {
	pool := memory.NewGoAllocator()
	arrowFields := make([]arrow.Field, len(fields))
	builders := make([]array.Builder, len(fields))

	for i, f := range fields {
		switch f.Type {
		case String:
			arrowFields[i] = arrow.Field{Name: f.Name, Type: arrow.BinaryTypes.String}
			builders[i] = array.NewStringBuilder(pool)
		case Int64:
			arrowFields[i] = arrow.Field{Name: f.Name, Type: arrow.PrimitiveTypes.Int64}
			builders[i] = array.NewInt64Builder(pool)
		case Float64:
			arrowFields[i] = arrow.Field{Name: f.Name, Type: arrow.PrimitiveTypes.Float64}
			builders[i] = array.NewFloat64Builder(pool)
		default:
			return nil, errors.Errorf("unsupported field type %d for %s", f.Type, f.Name)
		}
	}

	schema := arrow.NewSchema(arrowFields, nil)
	file, err := os.Create(filePath)
	if err != nil {
		return nil, err
	}

	writer, err := ipc.NewFileWriter(file, ipc.WithSchema(schema))
	if err != nil {
		return nil, err
	}

	return &Writer{
		filePath:  filePath,
		fields:    fields,
		schema:    schema,
		writer:    writer,
		builders:  builders,
		pool:      pool,
		chunkSize: chunkSize,
	}, nil
}

// Write appends one row. Values must match the declared field types:
// string, int64 or float64.
func (w *Writer) Write(row []interface{}) error {
	if len(row) != len(w.builders) {
		return errors.Errorf("mismatch in number of fields: expected %d, got %d", len(w.builders), len(row))
	}

	for i, val := range row {
		switch w.fields[i].Type {
		case String:
			s, ok := val.(string)
			if !ok {
				return errors.Errorf("field %s: expected string, got %T", w.fields[i].Name, val)
			}
			w.builders[i].(*array.StringBuilder).Append(s)
		case Int64:
			n, ok := val.(int64)
			if !ok {
				return errors.Errorf("field %s: expected int64, got %T", w.fields[i].Name, val)
			}
			w.builders[i].(*array.Int64Builder).Append(n)
		case Float64:
			f, ok := val.(float64)
			if !ok {
				return errors.Errorf("field %s: expected float64, got %T", w.fields[i].Name, val)
			}
			w.builders[i].(*array.Float64Builder).Append(f)
		}
	}

	w.numRowsInChunk++

	if w.numRowsInChunk == w.chunkSize {
		if err := w.writeChunk(); err != nil {
			return err
		}
	}

	return nil
}

func (w *Writer) writeChunk() error {
	var cols []arrow.Array
	for _, b := range w.builders {
		// NewArray resets the builder for the next chunk.
		cols = append(cols, b.NewArray())
	}

	record := array.NewRecord(w.schema, cols, int64(w.numRowsInChunk))
	defer record.Release()

	if err := w.writer.Write(record); err != nil {
		return err
	}

	w.numRowsInChunk = 0

	return nil
}

func (w *Writer) Close() error {
	if w.numRowsInChunk > 0 {
		if err := w.writeChunk(); err != nil {
			return err
		}
	}
	return w.writer.Close()
}

// ReadAll loads every row of an Arrow IPC file written by Writer. Column
// values come back as string, int64 or float64 per the file schema.
func ReadAll(filePath string) ([][]interface{}, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader, err := ipc.NewFileReader(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading arrow file %s", filePath)
	}
	defer reader.Close()

	var rows [][]interface{}
	for i := 0; i < reader.NumRecords(); i++ {
		record, err := reader.Record(i)
		if err != nil {
			return nil, err
		}
		n := int(record.NumRows())
		for rowIdx := 0; rowIdx < n; rowIdx++ {
			row := make([]interface{}, record.NumCols())
			for colIdx, col := range record.Columns() {
				switch arr := col.(type) {
				case *array.String:
					row[colIdx] = arr.Value(rowIdx)
				case *array.Int64:
					row[colIdx] = arr.Value(rowIdx)
				case *array.Float64:
					row[colIdx] = arr.Value(rowIdx)
				default:
					return nil, errors.Errorf("unsupported column type %T in %s", col, filePath)
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
