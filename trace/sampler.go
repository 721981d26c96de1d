package trace

import (
	"context"
	"time"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/pkg/log"
	"github.com/YuminosukeSato/bayesreg/posterior"
	"gonum.org/v1/gonum/mat"
)

// FileSampler replays parameter draws stored in a trace file. It satisfies
// bayesian.EstimationSampler; X and y are ignored because the draws were
// produced offline for that data.
type FileSampler struct {
	path   string
	opts   []Option
	logger log.Logger
}

// NewFileSampler returns a sampler reading path on every SampleParams call.
func NewFileSampler(path string, opts ...Option) *FileSampler {
	return &FileSampler{path: path, opts: opts, logger: log.GetLoggerWithName("trace")}
}

// SampleParams reads the trace file.
func (s *FileSampler) SampleParams(ctx context.Context, _, _ mat.Matrix) (posterior.Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "trace.FileSampler")
	}
	start := time.Now()
	tr, err := ReadFile(s.path, s.opts...)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Trace loaded",
		"path", s.path,
		log.DrawsKey, len(tr),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return tr, nil
}

// PredictiveFileSampler replays posterior predictive draws stored in a file.
// It satisfies bayesian.PredictiveSampler. The file must hold one column per
// row of the X passed to SamplePredictive.
type PredictiveFileSampler struct {
	path   string
	opts   []Option
	logger log.Logger
}

// NewPredictiveFileSampler returns a sampler reading path on every call.
func NewPredictiveFileSampler(path string, opts ...Option) *PredictiveFileSampler {
	return &PredictiveFileSampler{path: path, opts: opts, logger: log.GetLoggerWithName("trace")}
}

// SamplePredictive reads the predictive draws file.
func (s *PredictiveFileSampler) SamplePredictive(ctx context.Context, X mat.Matrix) (posterior.PredictiveSamples, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "trace.PredictiveFileSampler")
	}
	samples, err := ReadPredictiveFile(s.path, s.opts...)
	if err != nil {
		return nil, err
	}
	rows, _ := X.Dims()
	s.logger.Debug("Predictive draws loaded", "path", s.path, log.SamplesKey, rows)
	return samples, nil
}
