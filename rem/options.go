package rem

import (
	"github.com/YuminosukeSato/remgo/pkg/config"
	"github.com/YuminosukeSato/remgo/pkg/errors"
	"github.com/YuminosukeSato/remgo/pkg/log"
)

// Options configure a Driver.
type Options struct {
	Mode          Mode
	Threshold     Threshold
	CalcVariance  bool
	MaxIterations int
	Logger        log.Logger
}

// DefaultOptions returns the defaults used when no option is given.
func DefaultOptions() Options {
	return Options{
		Mode:          Reversible,
		Threshold:     Threshold{Epsilon: 0.001, Ratio: true},
		CalcVariance:  true,
		MaxIterations: 100,
	}
}

// Option is a function that configures a Driver.
type Option func(*Options)

// WithMode sets the imputation strategy.
func WithMode(mode Mode) Option {
	return func(o *Options) { o.Mode = mode }
}

// WithEpsilon sets the convergence tolerance.
func WithEpsilon(eps float64) Option {
	return func(o *Options) { o.Threshold.Epsilon = eps }
}

// WithRatioThreshold selects relative (true) or absolute (false) convergence.
func WithRatioThreshold(ratio bool) Option {
	return func(o *Options) { o.Threshold.Ratio = ratio }
}

// WithCalcVariance toggles residual variance estimation on unweighted fits.
func WithCalcVariance(calc bool) Option {
	return func(o *Options) { o.CalcVariance = calc }
}

// WithMaxIterations caps the number of EM iterations.
func WithMaxIterations(n int) Option {
	return func(o *Options) { o.MaxIterations = n }
}

// WithLogger sets the logger; the default comes from log.GetLoggerWithName.
func WithLogger(l log.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// OptionsFromConfig reads the rem_* keys of store.
func OptionsFromConfig(store config.Store) ([]Option, error) {
	def := DefaultOptions()
	mode, err := ParseMode(store.GetString(config.EstimateModeKey, def.Mode.String()))
	if err != nil {
		return nil, err
	}
	return []Option{
		WithMode(mode),
		WithEpsilon(store.GetReal(config.EpsilonKey, def.Threshold.Epsilon)),
		WithRatioThreshold(store.GetBool(config.RatioThresholdKey, def.Threshold.Ratio)),
		WithCalcVariance(store.GetBool(config.CalcVarianceKey, def.CalcVariance)),
		WithMaxIterations(store.GetInt(config.MaxIterationKey, def.MaxIterations)),
	}, nil
}

func (o Options) validate() error {
	if o.Threshold.Epsilon < 0 {
		return errors.NewValidationError(config.EpsilonKey, "must be non-negative", o.Threshold.Epsilon)
	}
	if o.MaxIterations < 1 {
		return errors.NewValidationError(config.MaxIterationKey, "must be at least 1", o.MaxIterations)
	}
	if o.Mode != Reversible && o.Mode != Gaussian {
		return errors.NewValidationError(config.EstimateModeKey, "unknown estimation mode", int(o.Mode))
	}
	return nil
}
