package trace

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/posterior"
	"github.com/xuri/excelize/v2"
	"gonum.org/v1/gonum/mat"
)

// Option configures how a trace table is read.
type Option func(*options)

type options struct {
	aliases map[string]string
	sheet   string
}

// WithAlias renames variable from to to while reading, e.g.
// WithAlias("beta", "betas") for a Stan model that names its coefficients beta.
func WithAlias(from, to string) Option {
	return func(o *options) {
		if o.aliases == nil {
			o.aliases = make(map[string]string)
		}
		o.aliases[from] = to
	}
}

// WithSheet selects the worksheet of an .xlsx file. The first sheet is used by default.
func WithSheet(name string) Option {
	return func(o *options) {
		o.sheet = name
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// ReadCSV reads a trace from CSV.
func ReadCSV(r io.Reader, opts ...Option) (posterior.Trace, error) {
	rows, err := readCSVRows(r)
	if err != nil {
		return nil, err
	}
	return traceFromRows(rows, buildOptions(opts))
}

// ReadFile reads a trace from a .csv or .xlsx file.
func ReadFile(path string, opts ...Option) (posterior.Trace, error) {
	o := buildOptions(opts)
	rows, err := readRows(path, o)
	if err != nil {
		return nil, err
	}
	return traceFromRows(rows, o)
}

// ReadPredictiveCSV reads posterior predictive draws, one draw per row and
// one column per input row (obs[0], obs[1], ...).
func ReadPredictiveCSV(r io.Reader, opts ...Option) (posterior.PredictiveSamples, error) {
	rows, err := readCSVRows(r)
	if err != nil {
		return nil, err
	}
	return predictiveFromRows(rows, buildOptions(opts))
}

// ReadPredictiveFile is ReadPredictiveCSV for a .csv or .xlsx file.
func ReadPredictiveFile(path string, opts ...Option) (posterior.PredictiveSamples, error) {
	o := buildOptions(opts)
	rows, err := readRows(path, o)
	if err != nil {
		return nil, err
	}
	return predictiveFromRows(rows, o)
}

func readRows(path string, o options) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readExcelRows(path, o.sheet)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "open trace %s", path)
		}
		defer f.Close()
		rows, err := readCSVRows(f)
		if err != nil {
			return nil, errors.Wrapf(err, "read trace %s", path)
		}
		return rows, nil
	}
}

func readCSVRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	return rows, nil
}

func readExcelRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open workbook %s", path)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.NewValueError("trace.readExcelRows", "workbook has no sheets")
		}
		sheet = sheets[0]
	}
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %s", sheet)
	}

	// excelize drops trailing empty cells; comment and blank rows are skipped
	// to match the CSV reader.
	rows := make([][]string, 0, len(raw))
	for _, row := range raw {
		if len(row) == 0 || strings.HasPrefix(strings.TrimSpace(row[0]), "#") {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func traceFromRows(rows [][]string, o options) (posterior.Trace, error) {
	if len(rows) == 0 {
		return nil, errors.NewValueError("trace.Read", "missing header row")
	}
	l, err := newLayout(rows[0], o.aliases)
	if err != nil {
		return nil, err
	}
	out := make(posterior.Trace, 0, len(rows)-1)
	for i, rec := range rows[1:] {
		d, err := l.draw(rec, i+2)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func predictiveFromRows(rows [][]string, o options) (posterior.PredictiveSamples, error) {
	draws, err := traceFromRows(rows, o)
	if err != nil {
		return nil, err
	}
	if len(draws) == 0 {
		return nil, errors.NewValueError("trace.ReadPredictive", "no draws")
	}

	out := make(posterior.PredictiveSamples)
	for _, name := range draws.Variables() {
		dim := len(draws[0][name])
		m := mat.NewDense(len(draws), dim, nil)
		for i, d := range draws {
			m.SetRow(i, d[name])
		}
		out[name] = m
	}
	return out, nil
}
