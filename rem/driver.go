package rem

import (
	"context"
	"sync"
	"time"

	"github.com/YuminosukeSato/remgo/core/model"
	"github.com/YuminosukeSato/remgo/core/parallel"
	"github.com/YuminosukeSato/remgo/dataset"
	"github.com/YuminosukeSato/remgo/metrics"
	"github.com/YuminosukeSato/remgo/pkg/errors"
	"github.com/YuminosukeSato/remgo/pkg/log"
)

// rows below this count are estimated on the calling goroutine
const expectThreshold = 2000

// Phase is the lifecycle state of a Driver.
type Phase int

const (
	PhaseUninitialized Phase = iota
	PhaseIterating
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseIterating:
		return "iterating"
	case PhaseTerminated:
		return "terminated"
	default:
		return "uninitialized"
	}
}

// Result is the outcome of a successful Learn.
type Result struct {
	Parameters *ParameterSet
	// Filled is the last expectation: data with every missing cell imputed.
	Filled     *dataset.Dataset
	Iterations int
	// Converged is false when the iteration cap was reached first.
	Converged bool
}

// Driver runs EM for one regression over a dataset that may contain
// missing values. Mutating methods are serialized; Predict and the getters
// may run concurrently with each other.
type Driver struct {
	mu    sync.RWMutex
	state *model.StateManager

	opts      Options
	maximizer Maximizer
	data      *dataset.Dataset

	history   ParameterHistory
	filled    *dataset.Dataset
	iteration int
	phase     Phase
	converged bool

	logger log.Logger
}

var _ model.Model[*Result] = (*Driver)(nil)

// NewDriver creates a Driver over data. It fails with a DataError when the
// data has fewer than two usable columns or no rows.
func NewDriver(data *dataset.Dataset, opts ...Option) (*Driver, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	if err := checkData("rem.NewDriver", data); err != nil {
		return nil, err
	}

	logger := o.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("rem")
	}
	logger = logger.With(log.ModelNameKey, "Driver", log.ModeKey, o.Mode.String())

	return &Driver{
		state:     model.NewStateManager(),
		opts:      o,
		maximizer: Maximizer{Mode: o.Mode, CalcVariance: o.CalcVariance, Logger: logger},
		data:      data,
		logger:    logger,
	}, nil
}

func checkData(op string, data *dataset.Dataset) error {
	if data == nil {
		return errors.NewDataError(op, 0, 0, "no dataset")
	}
	if data.Dim() < 2 {
		return errors.NewDataError(op, data.Dim(), data.Len(), "at least one regressor besides the intercept is required")
	}
	if data.Len() == 0 {
		return errors.NewDataError(op, data.Dim(), 0, "no usable rows")
	}
	return nil
}

// Learn runs initialize, then steps until the parameters terminate or the
// iteration cap is reached. ctx is checked between iterations only. A failed
// fit leaves the Driver unfitted.
func (d *Driver) Learn(ctx context.Context) (res *Result, err error) {
	defer errors.Recover(&err, "rem.Driver.Learn")

	d.mu.Lock()
	defer d.mu.Unlock()

	if err := checkData("rem.Driver.Learn", d.data); err != nil {
		return nil, err
	}

	start := time.Now()
	d.state.Reset()
	d.initialize()

	missingX, missingZ := d.data.MissingCount()
	d.logger.Info("learn started",
		log.OperationKey, log.OperationLearn,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, d.data.Len(),
		log.FeaturesKey, d.data.Dim()-1,
		log.MissingKey, missingX+missingZ,
	)

	for {
		if err := ctx.Err(); err != nil {
			d.phase = PhaseUninitialized
			return nil, errors.Wrap(err, "rem: learn interrupted")
		}
		done, err := d.step()
		if err != nil {
			d.phase = PhaseUninitialized
			d.logger.Error("learn failed", log.ErrAttrKey, err, log.IterationKey, d.iteration)
			return nil, errors.NewModelError("rem.Driver.Learn", "model could not be learned on this data", err)
		}
		if done || d.iteration >= d.opts.MaxIterations {
			break
		}
	}

	if !d.converged {
		errors.Warn(errors.NewConvergenceWarning("rem", d.iteration, ""))
	}

	d.state.SetFitted(d.data.Dim()-1, d.data.Len())
	current := d.history.Current
	d.logger.Info("learn finished",
		log.IterationKey, d.iteration,
		log.ConvergedKey, d.converged,
		log.VarianceKey, current.ZVariance.Or(0),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return &Result{
		Parameters: current.Clone(),
		Filled:     d.filled,
		Iterations: d.iteration,
		Converged:  d.converged,
	}, nil
}

// Initialize resets the run to the starting parameters: a maximization over
// the complete rows, or the all-zero set when there are none. It fails with
// a DataError once the data has been cleared.
func (d *Driver) Initialize() (*ParameterSet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkData("rem.Driver.Initialize", d.data); err != nil {
		return nil, err
	}
	d.state.Reset()
	d.initialize()
	return d.history.Current.Clone(), nil
}

func (d *Driver) initialize() {
	p := NewZeroParameter(d.opts.Mode, d.data.Dim())
	if complete := d.data.Complete(); complete.Len() > 0 {
		if fit := d.maximizer.Maximize(complete, nil, nil); fit.IsFinite() {
			p = fit
		}
	}
	d.reset(p)
	d.logger.Debug("initialized", log.OperationKey, log.OperationInitialize, "parameters", p.String())
}

func (d *Driver) reset(p *ParameterSet) {
	d.history = NewHistory(p)
	d.filled = nil
	d.iteration = 0
	d.converged = false
	d.phase = PhaseIterating
}

// Start begins a run from p instead of the default starting point. The
// mixture coordinator uses it to seed its components. Like Initialize it
// fails with a DataError once the data has been cleared.
func (d *Driver) Start(p *ParameterSet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := checkData("rem.Driver.Start", d.data); err != nil {
		return err
	}
	if p.Dim() != d.data.Dim() {
		return errors.NewDimensionError("rem.Driver.Start", d.data.Dim(), p.Dim())
	}
	d.state.Reset()
	d.reset(p.Clone())
	return nil
}

// Step runs one expectation and one maximization and reports whether the
// new parameters terminated.
func (d *Driver) Step() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.step()
}

func (d *Driver) step() (bool, error) {
	filled, err := d.expect()
	if err != nil {
		return false, err
	}
	return d.maximize(filled, nil), nil
}

// Expect imputes every missing cell of the raw data with the current
// parameters. It fails with a DegenerateRowError naming the first row the
// reversible estimator cannot solve.
func (d *Driver) Expect() (*dataset.Dataset, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.expect()
}

func (d *Driver) expect() (*dataset.Dataset, error) {
	if d.phase == PhaseUninitialized {
		return nil, errors.NewModelError("rem.Driver.Expect", "driver is not initialized", nil)
	}
	p := d.history.Current
	out := d.data.Clone()
	err := parallel.ForEach(out.Len(), expectThreshold, func(i int) error {
		row, err := Estimate(d.opts.Mode, d.data.Row(i), p)
		if err != nil {
			var degenerate *errors.DegenerateRowError
			if errors.As(err, &degenerate) {
				return errors.NewDegenerateRowError(i, degenerate.C)
			}
			return err
		}
		out.Set(i, row)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Maximize fits the next generation to filled, optionally weighting rows,
// advances the parameter history and reports whether the run terminated.
func (d *Driver) Maximize(filled *dataset.Dataset, weights []float64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.phase == PhaseUninitialized {
		return false, errors.NewModelError("rem.Driver.Maximize", "driver is not initialized", nil)
	}
	if filled.Dim() != d.data.Dim() {
		return false, errors.NewDimensionError("rem.Driver.Maximize", d.data.Dim(), filled.Dim())
	}
	if weights != nil && len(weights) != filled.Len() {
		return false, errors.NewDimensionError("rem.Driver.Maximize", filled.Len(), len(weights))
	}
	return d.maximize(filled, weights), nil
}

func (d *Driver) maximize(filled *dataset.Dataset, weights []float64) bool {
	estimated := d.maximizer.Maximize(filled, d.history.Current, weights)
	h := d.history.WithEstimate(estimated)
	done := h.Terminated(d.opts.Threshold)

	d.history = h.Advance()
	d.filled = filled
	d.iteration++
	d.converged = done
	if done {
		d.phase = PhaseTerminated
	}

	if d.logger.Enabled(context.Background(), log.LevelDebug) {
		d.logger.Debug("iteration",
			log.OperationKey, log.OperationMaximize,
			log.IterationKey, d.iteration,
			log.ConvergedKey, done,
			"parameters", estimated.String(),
		)
	}
	return done
}

// Terminated reports whether the last maximization passed the termination
// test.
func (d *Driver) Terminated() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.converged
}

// Parameters returns a copy of the current parameters, nil before
// initialization.
func (d *Driver) Parameters() *ParameterSet {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.history.Current.Clone()
}

// SetParameters installs p as the fitted model, for instance parameters
// restored from storage.
func (d *Driver) SetParameters(p *ParameterSet) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.data != nil && p.Dim() != d.data.Dim() {
		return errors.NewDimensionError("rem.Driver.SetParameters", d.data.Dim(), p.Dim())
	}
	d.reset(p.Clone())
	d.phase = PhaseTerminated
	d.converged = true
	d.state.SetFitted(p.Dim()-1, 0)
	return nil
}

// Filled returns the last expectation, nil before the first step.
func (d *Driver) Filled() *dataset.Dataset {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.filled
}

// Data returns the raw dataset the Driver was created with.
func (d *Driver) Data() *dataset.Dataset {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.data
}

// Iteration returns the number of steps taken in the current run.
func (d *Driver) Iteration() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.iteration
}

// Phase returns the lifecycle state.
func (d *Driver) Phase() Phase {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.phase
}

// Mode returns the imputation strategy.
func (d *Driver) Mode() Mode { return d.opts.Mode }

// Predict returns the response for regressors x, intercept excluded. Missing
// regressors are imputed with the fitted model.
func (d *Driver) Predict(x []dataset.Value) (float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.state.RequireFitted("Driver", "Predict"); err != nil {
		return 0, err
	}
	return PredictWith(d.opts.Mode, d.history.Current, x)
}

// Score returns R² of the fitted model over the rows of ds whose response is
// observed.
func (d *Driver) Score(ds *dataset.Dataset) (float64, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if err := d.state.RequireFitted("Driver", "Score"); err != nil {
		return 0, err
	}
	truth := make([]dataset.Value, ds.Len())
	preds := make([]float64, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		row := ds.Row(i)
		truth[i] = row.Z
		if row.Z.IsMissing() {
			continue
		}
		z, err := PredictWith(d.opts.Mode, d.history.Current, row.X[1:])
		if err != nil {
			return 0, errors.Wrapf(err, "row %d", i)
		}
		preds[i] = z
	}
	yTrue, yPred, err := metrics.Observed(truth, preds)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yTrue, yPred)
}

// Clear drops the data and the fitted state.
func (d *Driver) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.data = nil
	d.filled = nil
	d.history = ParameterHistory{}
	d.iteration = 0
	d.converged = false
	d.phase = PhaseUninitialized
	d.state.Reset()
}
