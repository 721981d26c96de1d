package trace

import (
	"strconv"
	"strings"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/posterior"
)

// column describes where one table column goes inside a Draw.
type column struct {
	variable string
	index    int
	vector   bool
}

// parseColumn splits a header cell into variable name and vector index.
func parseColumn(name string) (column, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return column{}, errors.NewValueError("trace.parseColumn", "empty column name")
	}

	// PyMC: betas[0]
	if open := strings.IndexByte(name, '['); open > 0 && strings.HasSuffix(name, "]") {
		idx, err := strconv.Atoi(name[open+1 : len(name)-1])
		if err != nil || idx < 0 {
			return column{}, errors.NewValueError("trace.parseColumn", "unsupported index in column "+name)
		}
		return column{variable: name[:open], index: idx, vector: true}, nil
	}

	// Stan: betas.1
	if dot := strings.LastIndexByte(name, '.'); dot > 0 {
		if idx, ok := digits(name[dot+1:]); ok {
			if idx < 1 {
				return column{}, errors.NewValueError("trace.parseColumn", "Stan indices start at 1: "+name)
			}
			return column{variable: name[:dot], index: idx - 1, vector: true}, nil
		}
	}

	// ArviZ: betas__0. lp__ has no digits after the separator and stays scalar.
	if sep := strings.LastIndex(name, "__"); sep > 0 {
		if idx, ok := digits(name[sep+2:]); ok {
			return column{variable: name[:sep], index: idx, vector: true}, nil
		}
	}

	return column{variable: name}, nil
}

func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// layout maps header columns onto draw variables.
type layout struct {
	cols []column
	dims map[string]int
}

func newLayout(header []string, aliases map[string]string) (*layout, error) {
	const op = "trace.newLayout"

	l := &layout{cols: make([]column, len(header)), dims: make(map[string]int)}
	seen := make(map[string]map[int]bool)
	vector := make(map[string]bool)

	for i, h := range header {
		c, err := parseColumn(h)
		if err != nil {
			return nil, err
		}
		if to, ok := aliases[c.variable]; ok {
			c.variable = to
		}
		if prev, ok := vector[c.variable]; ok && prev != c.vector {
			return nil, errors.NewValueError(op, "variable "+c.variable+" is both scalar and vector")
		}
		vector[c.variable] = c.vector
		if seen[c.variable] == nil {
			seen[c.variable] = make(map[int]bool)
		}
		if seen[c.variable][c.index] {
			return nil, errors.NewValueError(op, "duplicate column "+strings.TrimSpace(h))
		}
		seen[c.variable][c.index] = true
		l.cols[i] = c
	}

	for name, idx := range seen {
		for k := 0; k < len(idx); k++ {
			if !idx[k] {
				return nil, errors.NewValueError(op, "variable "+name+" is missing component "+strconv.Itoa(k))
			}
		}
		l.dims[name] = len(idx)
	}
	return l, nil
}

// draw converts one record. line is 1-based and only used in messages.
func (l *layout) draw(record []string, line int) (posterior.Draw, error) {
	if len(record) != len(l.cols) {
		return nil, errors.NewDimensionError("trace row "+strconv.Itoa(line), len(l.cols), len(record), 1)
	}
	d := make(posterior.Draw, len(l.dims))
	for name, dim := range l.dims {
		d[name] = make([]float64, dim)
	}
	for i, cell := range record {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, errors.NewValueError("trace row "+strconv.Itoa(line),
				"cannot parse "+strconv.Quote(cell)+" in column "+strconv.Itoa(i+1))
		}
		c := l.cols[i]
		d[c.variable][c.index] = v
	}
	return d, nil
}
