package trace

import (
	"strconv"
	"strings"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Table is a numeric feature table.
type Table struct {
	// Columns holds the header names, or nil when the file had no header.
	Columns []string
	Data    *mat.Dense
}

// ReadMatrix reads a numeric table from a .csv or .xlsx file. A first row
// that does not parse as numbers is taken as the header.
func ReadMatrix(path string, opts ...Option) (*Table, error) {
	rows, err := readRows(path, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	return matrixFromRows(rows)
}

func matrixFromRows(rows [][]string) (*Table, error) {
	const op = "trace.ReadMatrix"
	if len(rows) == 0 {
		return nil, errors.NewValueError(op, "empty table")
	}

	t := &Table{}
	if !numericRow(rows[0]) {
		t.Columns = make([]string, len(rows[0]))
		for i, h := range rows[0] {
			t.Columns[i] = strings.TrimSpace(h)
		}
		rows = rows[1:]
	}
	if len(rows) == 0 {
		return nil, errors.NewValueError(op, "table has a header but no rows")
	}

	cols := len(rows[0])
	if t.Columns != nil {
		cols = len(t.Columns)
	}
	if cols == 0 {
		return nil, errors.NewValueError(op, "table has no columns")
	}
	data := mat.NewDense(len(rows), cols, nil)
	for i, rec := range rows {
		if len(rec) != cols {
			return nil, errors.NewDimensionError(op+" row "+strconv.Itoa(i+1), cols, len(rec), 1)
		}
		for j, cell := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, errors.NewValueError(op, "cannot parse "+strconv.Quote(cell)+" at row "+strconv.Itoa(i+1))
			}
			data.Set(i, j, v)
		}
	}
	t.Data = data
	return t, nil
}

func numericRow(rec []string) bool {
	for _, cell := range rec {
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			return false
		}
	}
	return len(rec) > 0
}
