package bayesian

import (
	"io"

	"github.com/YuminosukeSato/bayesreg/core/model"
	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/posterior"
)

// estimationSnapshot は BayesianLinearEstimation の保存形式
// サンプラーは保存されない。
type estimationSnapshot struct {
	Warmup         int
	Propagation    string
	IncludeNoise   bool
	MinChainLength int
	NJobs          int
	NFeatures      int
	NSamples       int
	Chain          *posterior.Chain
}

// Save は学習済みのチェーンとハイパーパラメータを gob 形式でファイルに保存する
func (e *BayesianLinearEstimation) Save(filename string) error {
	snap, err := e.snapshotForSave()
	if err != nil {
		return err
	}
	return model.SaveModel(snap, filename)
}

// SaveTo は Save の io.Writer 版
func (e *BayesianLinearEstimation) SaveTo(w io.Writer) error {
	snap, err := e.snapshotForSave()
	if err != nil {
		return err
	}
	return model.SaveModelToWriter(snap, w)
}

// Load は Save で保存したチェーンを読み込み、学習済み状態に戻す
// サンプラーは現在の設定が維持される。
func (e *BayesianLinearEstimation) Load(filename string) error {
	var snap estimationSnapshot
	if err := model.LoadModel(&snap, filename); err != nil {
		return err
	}
	return e.restore(&snap)
}

// LoadFrom は Load の io.Reader 版
func (e *BayesianLinearEstimation) LoadFrom(r io.Reader) error {
	var snap estimationSnapshot
	if err := model.LoadModelFromReader(&snap, r); err != nil {
		return err
	}
	return e.restore(&snap)
}

func (e *BayesianLinearEstimation) snapshotForSave() (*estimationSnapshot, error) {
	est, nFeatures, err := e.snapshot("Save")
	if err != nil {
		return nil, err
	}
	_, nSamples := e.state.GetDimensions()
	return &estimationSnapshot{
		Warmup:         e.warmup,
		Propagation:    e.propagation.String(),
		IncludeNoise:   e.includeNoise,
		MinChainLength: e.minChainLength,
		NJobs:          e.nJobs,
		NFeatures:      nFeatures,
		NSamples:       nSamples,
		Chain:          est.chain,
	}, nil
}

func (e *BayesianLinearEstimation) restore(snap *estimationSnapshot) error {
	const op = "BayesianLinearEstimation.Load"
	if snap.Chain == nil {
		return errors.NewValueError(op, "snapshot has no chain")
	}
	propagation, err := ParsePropagation(snap.Propagation)
	if err != nil {
		return err
	}
	est, err := summarizeChain(op, snap.Chain, snap.NFeatures)
	if err != nil {
		return err
	}

	return e.state.Commit(snap.NFeatures, snap.NSamples, func() error {
		e.warmup = snap.Warmup
		e.propagation = propagation
		e.includeNoise = snap.IncludeNoise
		e.minChainLength = snap.MinChainLength
		e.nJobs = snap.NJobs
		e.fitted = est
		return nil
	})
}
