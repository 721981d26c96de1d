package main

import (
	"os"
	"strconv"

	"github.com/YuminosukeSato/bayesreg/pkg/errors"
	"github.com/YuminosukeSato/bayesreg/posterior"
	"github.com/YuminosukeSato/bayesreg/sklearn/bayesian"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the YAML run configuration.
type Config struct {
	// Trace is the CSV/XLSX file holding parameter draws (alpha, betas, sigma).
	Trace string `yaml:"trace"`
	// Features is the table of rows to predict.
	Features string `yaml:"features"`
	// Target optionally holds observed y for the feature rows; when set the
	// run also reports R², RMSE, Gaussian NLL and interval coverage.
	Target string `yaml:"target"`

	Warmup         *int              `yaml:"warmup"`
	Propagation    string            `yaml:"propagation"`
	ReturnStd      bool              `yaml:"return_std"`
	IncludeNoise   bool              `yaml:"include_noise"`
	IntervalLevel  float64           `yaml:"interval_level"`
	MinChainLength *int              `yaml:"min_chain_length"`
	NJobs          int               `yaml:"n_jobs"`
	Aliases        map[string]string `yaml:"aliases"`
	Sheet          string            `yaml:"sheet"`

	LogLevel  string `yaml:"log_level"`
	Plot      string `yaml:"plot"`
	TracePlot string `yaml:"trace_plot"`
	SaveChain string `yaml:"save_chain"`
	Listen    string `yaml:"listen"`
}

// Environment variables that override the file.
const (
	envLogLevel = "BAYESPREDICT_LOG_LEVEL"
	envTrace    = "BAYESPREDICT_TRACE"
	envListen   = "BAYESPREDICT_LISTEN"
	envNJobs    = "BAYESPREDICT_N_JOBS"
)

// LoadConfig reads path, applies .env and environment overrides and fills
// defaults. Callers run Validate after applying flag overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}

	// .env は任意。存在しなければ無視する
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env")
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseConfig decodes YAML and fills defaults. It does not validate.
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "parse config")
	}
	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	if c.Warmup == nil {
		w := posterior.DefaultWarmup
		c.Warmup = &w
	}
	if c.MinChainLength == nil {
		m := bayesian.DefaultMinChainLength
		c.MinChainLength = &m
	}
	if c.Propagation == "" {
		c.Propagation = bayesian.PropagationIndependent.String()
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.NJobs == 0 {
		c.NJobs = 1
	}
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(envLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(envTrace); v != "" {
		c.Trace = v
	}
	if v := os.Getenv(envListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(envNJobs); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return errors.NewValidationError(envNJobs, "must be an integer", v)
		}
		c.NJobs = n
	}
	return nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Trace == "" {
		return errors.NewValidationError("trace", "is required", c.Trace)
	}
	if c.Features == "" && c.Listen == "" {
		return errors.NewValidationError("features", "is required unless listen is set", c.Features)
	}
	if *c.Warmup < 0 {
		return errors.NewValidationError("warmup", "must be non-negative", *c.Warmup)
	}
	if _, err := bayesian.ParsePropagation(c.Propagation); err != nil {
		return err
	}
	if c.IntervalLevel < 0 || c.IntervalLevel >= 1 {
		return errors.NewValidationError("interval_level", "must be in (0, 1), or 0 to disable", c.IntervalLevel)
	}
	return nil
}

// estimatorOptions maps the config onto estimator options.
func (c *Config) estimatorOptions() []bayesian.EstimationOption {
	p, _ := bayesian.ParsePropagation(c.Propagation)
	return []bayesian.EstimationOption{
		bayesian.WithWarmup(*c.Warmup),
		bayesian.WithPropagation(p),
		bayesian.WithNoise(c.IncludeNoise),
		bayesian.WithMinChainLength(*c.MinChainLength),
		bayesian.WithNJobs(c.NJobs),
	}
}
