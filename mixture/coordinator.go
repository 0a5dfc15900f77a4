// Package mixture fits a mixture of K EM regressions sharing one response
// column. Each component is a rem.Driver; the Coordinator seeds them at
// distinct starting points, interleaves their E and M steps and assigns
// mixture weights from the component responsibilities once all of them
// have terminated.
package mixture

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/remgo/core/model"
	"github.com/YuminosukeSato/remgo/dataset"
	"github.com/YuminosukeSato/remgo/metrics"
	"github.com/YuminosukeSato/remgo/pkg/errors"
	"github.com/YuminosukeSato/remgo/pkg/log"
	"github.com/YuminosukeSato/remgo/rem"
)

// Result is the outcome of a successful Learn.
type Result struct {
	// Components holds the surviving components' parameters, Coeff set to
	// the final mixture weight.
	Components []*rem.ParameterSet
	Weights    []float64
	// Failed counts components dropped during the fit.
	Failed     int
	Iterations int
	Converged  bool
	// Filled is the consensus of the component imputations.
	Filled        *dataset.Dataset
	LogLikelihood float64
}

type component struct {
	index  int
	driver *rem.Driver
	filled *dataset.Dataset
	input  *dataset.Dataset
}

// Coordinator owns K component drivers. Mutating methods are serialized;
// Predict and the getters may run concurrently with each other.
type Coordinator struct {
	mu    sync.RWMutex
	state *model.StateManager

	opts          Options
	mode          rem.Mode
	maxIterations int
	data          *dataset.Dataset
	drivers       []*rem.Driver

	components    []*component
	params        []*rem.ParameterSet
	filled        *dataset.Dataset
	failed        int
	iteration     int
	converged     bool
	logLikelihood float64

	logger log.Logger
}

var _ model.Model[*Result] = (*Coordinator)(nil)

// NewCoordinator creates a Coordinator over data. It fails with a DataError
// under the same conditions as rem.NewDriver.
func NewCoordinator(data *dataset.Dataset, opts ...Option) (*Coordinator, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	driverOpts := rem.DefaultOptions()
	for _, opt := range o.Driver {
		opt(&driverOpts)
	}

	logger := o.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("mixture")
	}
	logger = logger.With(log.ModelNameKey, "Coordinator", log.ComponentsKey, o.Components)

	c := &Coordinator{
		state:         model.NewStateManager(),
		opts:          o,
		mode:          driverOpts.Mode,
		maxIterations: driverOpts.MaxIterations,
		data:          data,
		logger:        logger,
	}
	for k := 0; k < o.Components; k++ {
		d, err := rem.NewDriver(data, append(append([]rem.Option(nil), o.Driver...),
			rem.WithCalcVariance(true),
			rem.WithLogger(logger.With(log.MixtureComponentKey, k)),
		)...)
		if err != nil {
			return nil, err
		}
		c.drivers = append(c.drivers, d)
	}
	return c, nil
}

func (c *Coordinator) newRand() *rand.Rand {
	seed := c.opts.Seed
	if seed < 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
}

// Learn seeds the components, runs their EM loops in lockstep until all of
// them terminate or the iteration cap is reached, then assigns the mixture
// weights. Components whose expectation fails are dropped; Learn fails only
// when none survive.
func (c *Coordinator) Learn(ctx context.Context) (res *Result, err error) {
	defer errors.Recover(&err, "mixture.Coordinator.Learn")

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil {
		return nil, errors.NewDataError("mixture.Coordinator.Learn", 0, 0, "no dataset")
	}
	c.state.Reset()
	return c.run(ctx, c.initialize(c.newRand()))
}

// Initialize draws the K starting points without fitting. It fails with a
// DataError once the data has been cleared.
func (c *Coordinator) Initialize() ([]*rem.ParameterSet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.data == nil {
		return nil, errors.NewDataError("mixture.Coordinator.Initialize", 0, 0, "no dataset")
	}
	return c.initialize(c.newRand()), nil
}

// initialize draws one start per component, by maximizing a random
// contiguous run of complete rows or, once half the retries are spent, by
// perturbing the complete-data fit. A start whose alpha equals an earlier
// one is redrawn, up to MaxRetries times.
func (c *Coordinator) initialize(rng *rand.Rand) []*rem.ParameterSet {
	dim := c.data.Dim()
	complete := c.data.Complete()
	m := rem.Maximizer{Mode: c.mode, CalcVariance: true}

	base := rem.NewZeroParameter(c.mode, dim)
	if complete.Len() > 0 {
		if fit := m.Maximize(complete, nil, nil); fit.IsFinite() {
			base = fit
		}
	}

	k := c.opts.Components
	subsampleTries := c.opts.MaxRetries/2 + 1
	starts := make([]*rem.ParameterSet, 0, k)
	for i := 0; i < k; i++ {
		var p *rem.ParameterSet
		for attempt := 0; ; attempt++ {
			if attempt < subsampleTries && complete.Len() > 0 {
				p = m.Maximize(subsample(rng, complete), nil, nil)
			} else {
				p = perturb(rng, base)
			}
			if !duplicateAlpha(p, starts) {
				break
			}
			if attempt >= c.opts.MaxRetries {
				errors.Warn(errors.NewDuplicateStartWarning(i, attempt))
				break
			}
		}
		p = p.WithCoeff(1 / float64(k))
		if p.ZVariance.IsMissing() {
			p = p.WithZVariance(1)
		}
		starts = append(starts, p)
	}

	c.logger.Debug("components initialized", log.OperationKey, log.OperationInitialize)
	return starts
}

func subsample(rng *rand.Rand, complete *dataset.Dataset) *dataset.Dataset {
	n, dim := complete.Len(), complete.Dim()
	size := n
	if n > dim {
		size = dim + rng.IntN(n-dim+1)
	}
	start := rng.IntN(n - size + 1)
	return complete.Slice(start, start+size)
}

func perturb(rng *rand.Rand, base *rem.ParameterSet) *rem.ParameterSet {
	p := base.Clone()
	for j, a := range p.Alpha {
		p.Alpha[j] = a + rng.NormFloat64()*math.Max(1, math.Abs(a))
	}
	return p
}

func duplicateAlpha(p *rem.ParameterSet, starts []*rem.ParameterSet) bool {
	for _, s := range starts {
		if floats.Equal(p.Alpha, s.Alpha) {
			return true
		}
	}
	return false
}

func (c *Coordinator) run(ctx context.Context, starts []*rem.ParameterSet) (*Result, error) {
	begin := time.Now()

	c.components = c.components[:0]
	for k, p := range starts {
		if err := c.drivers[k].Start(p); err != nil {
			return nil, err
		}
		c.components = append(c.components, &component{index: k, driver: c.drivers[k]})
	}
	c.params = nil
	c.filled = nil
	c.failed = 0
	c.iteration = 0
	c.converged = false

	c.logger.Info("learn started",
		log.OperationKey, log.OperationLearn,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, c.data.Len(),
		log.FeaturesKey, c.data.Dim()-1,
	)

	for c.iteration < c.maxIterations {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, "mixture: learn interrupted")
		}
		if err := c.expect(); err != nil {
			c.logger.Error("learn failed", log.ErrAttrKey, err, log.IterationKey, c.iteration)
			return nil, err
		}
		done, err := c.maximize()
		if err != nil {
			return nil, errors.NewModelError("mixture.Coordinator.Learn", "maximization failed", err)
		}
		c.iteration++
		if done {
			c.converged = true
			break
		}
	}

	if !c.converged {
		errors.Warn(errors.NewConvergenceWarning("mixture", c.iteration, ""))
	}

	if err := c.adjustWeights(); err != nil {
		return nil, err
	}
	c.state.SetFitted(c.data.Dim()-1, c.data.Len())

	c.logger.Info("learn finished",
		log.IterationKey, c.iteration,
		log.ConvergedKey, c.converged,
		log.FailedComponentsKey, c.failed,
		log.LogLikelihoodKey, c.logLikelihood,
		log.DurationMsKey, time.Since(begin).Milliseconds(),
	)
	return c.result(), nil
}

// expect runs every component's expectation, drops the ones that fail and
// sets each survivor's maximization input.
func (c *Coordinator) expect() error {
	alive := c.components[:0]
	for _, comp := range c.components {
		filled, err := comp.driver.Expect()
		if err != nil {
			c.failed++
			c.logger.Warn("component dropped",
				log.MixtureComponentKey, comp.index,
				log.IterationKey, c.iteration,
				log.ErrAttrKey, err,
			)
			continue
		}
		comp.filled = filled
		alive = append(alive, comp)
	}
	c.components = alive
	if len(alive) == 0 {
		return errors.NewModelError("mixture.Coordinator.Learn", "no component could be fitted", errors.ErrAllComponentsFailed)
	}

	params := c.currentParameters()
	filled := make([]*dataset.Dataset, len(alive))
	for k, comp := range alive {
		filled[k] = comp.filled
	}
	c.filled = Merge(c.data, filled, priors(params))

	for _, comp := range alive {
		if c.opts.Variant == Shared {
			comp.input = c.filled
		} else {
			comp.input = comp.filled
		}
	}
	return nil
}

func (c *Coordinator) maximize() (bool, error) {
	var weights [][]float64
	if c.opts.Weighted {
		weights = c.responsibilityWeights(c.currentParameters())
	}

	all := true
	for k, comp := range c.components {
		var w []float64
		if weights != nil {
			w = weights[k]
		}
		done, err := comp.driver.Maximize(comp.input, w)
		if err != nil {
			return false, err
		}
		all = all && done
	}
	return all, nil
}

// responsibilityWeights returns one weight vector per component. Rows with a
// missing response get the normalized priors.
func (c *Coordinator) responsibilityWeights(params []*rem.ParameterSet) [][]float64 {
	inputs := c.inputs()
	prior, _ := normalize(priors(params), ones(len(params)))

	weights := make([][]float64, len(params))
	for k := range weights {
		weights[k] = make([]float64, c.data.Len())
	}
	for i := 0; i < c.data.Len(); i++ {
		resp := prior
		if !c.data.Row(i).Z.IsMissing() {
			var ok bool
			if resp, ok = rowResponsibilities(params, inputs, i); !ok {
				errors.Warn(errors.NewZeroResponsibilityWarning(i, len(params)))
			}
		}
		for k := range weights {
			weights[k][i] = resp[k]
		}
	}
	return weights
}

// adjustWeights sets each component's coeff to its mean responsibility over
// the rows with an observed response and records the log-likelihood.
func (c *Coordinator) adjustWeights() error {
	params := c.currentParameters()
	inputs := c.inputs()
	k := len(params)

	sums := make([]float64, k)
	rows := 0
	ll := 0.0
	for i := 0; i < c.data.Len(); i++ {
		if c.data.Row(i).Z.IsMissing() {
			continue
		}
		resp, ok := rowResponsibilities(params, inputs, i)
		if !ok {
			errors.Warn(errors.NewZeroResponsibilityWarning(i, k))
		}
		floats.Add(sums, resp)
		ll += rowLogLikelihood(params, inputs, i)
		rows++
	}

	weights := make([]float64, k)
	if rows == 0 {
		for j := range weights {
			weights[j] = 1 / float64(k)
		}
	} else {
		floats.ScaleTo(weights, 1/float64(rows), sums)
	}

	for j, comp := range c.components {
		params[j] = params[j].WithCoeff(weights[j])
		if err := comp.driver.SetParameters(params[j]); err != nil {
			return err
		}
	}
	c.params = params
	c.logLikelihood = ll
	return nil
}

func (c *Coordinator) currentParameters() []*rem.ParameterSet {
	params := make([]*rem.ParameterSet, len(c.components))
	for k, comp := range c.components {
		params[k] = comp.driver.Parameters()
	}
	return params
}

func (c *Coordinator) inputs() []*dataset.Dataset {
	inputs := make([]*dataset.Dataset, len(c.components))
	for k, comp := range c.components {
		inputs[k] = comp.input
	}
	return inputs
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func (c *Coordinator) result() *Result {
	res := &Result{
		Failed:        c.failed,
		Iterations:    c.iteration,
		Converged:     c.converged,
		Filled:        c.filled,
		LogLikelihood: c.logLikelihood,
	}
	for _, p := range c.params {
		res.Components = append(res.Components, p.Clone())
		res.Weights = append(res.Weights, p.Coeff.Or(0))
	}
	return res
}

// Predict returns Σ_k coeff_k·prediction_k for regressors x, intercept
// excluded. Missing regressors are imputed by each component.
func (c *Coordinator) Predict(x []dataset.Value) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.state.RequireFitted("Coordinator", "Predict"); err != nil {
		return 0, err
	}
	return c.predict(x)
}

func (c *Coordinator) predict(x []dataset.Value) (float64, error) {
	var sum float64
	for k, p := range c.params {
		z, err := rem.PredictWith(c.mode, p, x)
		if err != nil {
			return 0, errors.Wrapf(err, "component %d", k)
		}
		sum += p.Coeff.Or(0) * z
	}
	return sum, nil
}

// Score returns R² of the mixture prediction over the rows of ds whose
// response is observed.
func (c *Coordinator) Score(ds *dataset.Dataset) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if err := c.state.RequireFitted("Coordinator", "Score"); err != nil {
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
		z, err := c.predict(row.X[1:])
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

// Components returns copies of the fitted component parameters.
func (c *Coordinator) Components() []*rem.ParameterSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*rem.ParameterSet, len(c.params))
	for k, p := range c.params {
		out[k] = p.Clone()
	}
	return out
}

// Weights returns the fitted mixture weights.
func (c *Coordinator) Weights() []float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]float64, len(c.params))
	for k, p := range c.params {
		out[k] = p.Coeff.Or(0)
	}
	return out
}

// Failed returns the number of components dropped by the last fit.
func (c *Coordinator) Failed() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failed
}

// Filled returns the consensus imputation of the last fit.
func (c *Coordinator) Filled() *dataset.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filled
}

// Clear drops the data, the component drivers' state and the fit.
func (c *Coordinator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.drivers {
		d.Clear()
	}
	c.data = nil
	c.components = nil
	c.params = nil
	c.filled = nil
	c.failed = 0
	c.iteration = 0
	c.converged = false
	c.logLikelihood = 0
	c.state.Reset()
}
