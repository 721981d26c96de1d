package posterior

import (
	"bytes"
	"encoding/gob"
	"sort"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// DefaultWarmup is the number of leading draws discarded as burn-in.
const DefaultWarmup = 100

// Chain is the suffix of a Trace left after discarding the warm-up draws.
// Each variable is stored as a draws×dim matrix. A Chain is immutable once
// built and always holds at least one draw.
type Chain struct {
	vars   map[string]*mat.Dense
	names  []string
	warmup int
	total  int
}

// NewChain drops the first warmup draws of trace and stores the remainder.
//
// Every retained draw must carry the same variables with the same lengths
// as the first retained draw, and all values must be finite. A trace with
// len(trace) <= warmup yields an InsufficientSamplesError rather than an
// empty chain.
func NewChain(trace Trace, warmup int) (*Chain, error) {
	const op = "posterior.NewChain"

	if warmup < 0 {
		return nil, errors.NewValidationError("warmup", "must be non-negative", warmup)
	}
	if len(trace) <= warmup {
		return nil, errors.NewInsufficientSamplesError(op, len(trace), warmup)
	}

	kept := trace[warmup:]
	first := kept[0]
	if len(first) == 0 {
		return nil, errors.NewValueError(op, "draws carry no variables")
	}

	names := make([]string, 0, len(first))
	for name := range first {
		names = append(names, name)
	}
	sort.Strings(names)

	c := &Chain{
		vars:   make(map[string]*mat.Dense, len(names)),
		names:  names,
		warmup: warmup,
		total:  len(trace),
	}

	for _, name := range names {
		dim := len(first[name])
		if dim == 0 {
			return nil, errors.NewValueError(op, "variable "+name+" is empty")
		}
		m := mat.NewDense(len(kept), dim, nil)
		for i, d := range kept {
			v, ok := d[name]
			if !ok {
				return nil, errors.NewValueError(op, "draw is missing variable "+name)
			}
			if len(v) != dim {
				return nil, errors.NewDimensionError(op+" ("+name+")", dim, len(v), 1)
			}
			if err := errors.CheckNumericalStability(name, v, warmup+i); err != nil {
				return nil, err
			}
			m.SetRow(i, v)
		}
		c.vars[name] = m
	}

	return c, nil
}

// Len returns the number of retained draws.
func (c *Chain) Len() int {
	r, _ := c.vars[c.names[0]].Dims()
	return r
}

// Warmup returns the number of discarded draws.
func (c *Chain) Warmup() int { return c.warmup }

// Total returns the number of draws the sampler produced.
func (c *Chain) Total() int { return c.total }

// Variables returns the sorted variable names.
func (c *Chain) Variables() []string {
	return append([]string(nil), c.names...)
}

// Has reports whether the chain carries name.
func (c *Chain) Has(name string) bool {
	_, ok := c.vars[name]
	return ok
}

// Dim returns the length of variable name, or 0 if it is absent.
func (c *Chain) Dim(name string) int {
	m, ok := c.vars[name]
	if !ok {
		return 0
	}
	_, dim := m.Dims()
	return dim
}

// Draws returns a read-only draws×dim view of variable name.
func (c *Chain) Draws(name string) (mat.Matrix, error) {
	m, ok := c.vars[name]
	if !ok {
		return nil, errors.NewValueError("Chain.Draws", "chain has no variable "+name)
	}
	return m, nil
}

// Column returns a copy of the draws of component j of variable name.
func (c *Chain) Column(name string, j int) ([]float64, error) {
	m, ok := c.vars[name]
	if !ok {
		return nil, errors.NewValueError("Chain.Column", "chain has no variable "+name)
	}
	_, dim := m.Dims()
	if j < 0 || j >= dim {
		return nil, errors.NewDimensionError("Chain.Column ("+name+")", dim, j, 1)
	}
	return mat.Col(nil, j, m), nil
}

// Mean returns the elementwise mean of variable name over the chain.
func (c *Chain) Mean(name string) ([]float64, error) {
	m, err := c.Draws(name)
	if err != nil {
		return nil, err
	}
	return MeanAxis0(m), nil
}

// Std returns the elementwise population standard deviation of variable name.
func (c *Chain) Std(name string) ([]float64, error) {
	m, err := c.Draws(name)
	if err != nil {
		return nil, err
	}
	return StdAxis0(m), nil
}

// Stacked returns the draws of the given variables side by side as one
// draws×(sum of dims) matrix, in argument order.
func (c *Chain) Stacked(names ...string) (*mat.Dense, error) {
	width := 0
	for _, name := range names {
		if !c.Has(name) {
			return nil, errors.NewValueError("Chain.Stacked", "chain has no variable "+name)
		}
		width += c.Dim(name)
	}

	n := c.Len()
	out := mat.NewDense(n, width, nil)
	offset := 0
	for _, name := range names {
		m := c.vars[name]
		_, dim := m.Dims()
		out.Slice(0, n, offset, offset+dim).(*mat.Dense).Copy(m)
		offset += dim
	}
	return out, nil
}

// Covariance returns the population covariance of the stacked variables.
func (c *Chain) Covariance(names ...string) (*mat.SymDense, error) {
	stacked, err := c.Stacked(names...)
	if err != nil {
		return nil, err
	}
	return PopCovariance(stacked), nil
}

// Summarize describes component j of variable name.
func (c *Chain) Summarize(name string, j int, level float64) (Summary, error) {
	col, err := c.Column(name, j)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(col, level)
}

type chainWire struct {
	Names  []string
	Dims   []int
	Data   [][]float64
	Warmup int
	Total  int
}

// MarshalBinary encodes the chain with gob so estimators embedding a Chain
// can be persisted with model.SaveModel.
func (c *Chain) MarshalBinary() ([]byte, error) {
	w := chainWire{Names: c.names, Warmup: c.warmup, Total: c.total}
	for _, name := range c.names {
		m := c.vars[name]
		_, dim := m.Dims()
		w.Dims = append(w.Dims, dim)
		w.Data = append(w.Data, append([]float64(nil), m.RawMatrix().Data...))
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, errors.Wrap(err, "encode chain")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a chain written by MarshalBinary.
func (c *Chain) UnmarshalBinary(data []byte) error {
	var w chainWire
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return errors.Wrap(err, "decode chain")
	}
	if len(w.Names) == 0 || len(w.Names) != len(w.Dims) || len(w.Names) != len(w.Data) {
		return errors.NewValueError("Chain.UnmarshalBinary", "corrupted chain")
	}

	vars := make(map[string]*mat.Dense, len(w.Names))
	rows := -1
	for i, name := range w.Names {
		dim := w.Dims[i]
		if dim <= 0 || len(w.Data[i]) == 0 || len(w.Data[i])%dim != 0 {
			return errors.NewValueError("Chain.UnmarshalBinary", "corrupted variable "+name)
		}
		r := len(w.Data[i]) / dim
		if rows >= 0 && r != rows {
			return errors.NewDimensionError("Chain.UnmarshalBinary ("+name+")", rows, r, 0)
		}
		rows = r
		vars[name] = mat.NewDense(r, dim, w.Data[i])
	}

	c.vars = vars
	c.names = w.Names
	c.warmup = w.Warmup
	c.total = w.Total
	return nil
}
