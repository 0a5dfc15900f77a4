// Package remgo fits linear regressions on data with missing values using
// expectation-maximization.
//
// The rem package runs a single EM regression. Each iteration fills every
// missing regressor and response from the current parameters (expectation)
// and refits the intercept, slopes, regressor mean and covariance on the
// filled data (maximization). Iteration stops when the fresh estimate
// matches the current or the previous generation within the configured
// threshold, which also stops two-cycle oscillation.
//
// The mixture package coordinates several rem drivers as a mixture of
// regressions. Components share one consensus of the imputed data, or keep
// their own fills in the semi variant, and each is weighted by its mean
// responsibility.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/remgo/dataset"
//	    "github.com/YuminosukeSato/remgo/rem"
//	)
//
//	func main() {
//	    data, err := dataset.FromRows([]dataset.Row{
//	        dataset.NewRow(dataset.Observed(3), dataset.Observed(1)),
//	        dataset.NewRow(dataset.Observed(5), dataset.Observed(2)),
//	        dataset.NewRow(dataset.Missing(), dataset.Observed(3)),
//	        dataset.NewRow(dataset.Observed(9), dataset.Missing()),
//	        dataset.NewRow(dataset.Observed(11), dataset.Observed(5)),
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    d, err := rem.NewDriver(data, rem.WithMaxIterations(50))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    res, err := d.Learn(context.Background())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(res.Parameters.Alpha, res.Iterations, res.Converged)
//	}
//
// # Packages
//
//   - dataset: rows with explicitly missing values, and extraction from raw records
//   - linear: weighted least squares and linear solves on gonum
//   - rem: the EM driver, row estimators, maximizer and parameter snapshots
//   - mixture: the mixture-of-regressions coordinator
//   - metrics: regression scores
//   - pkg/config, pkg/log, pkg/errors: YAML options, structured logging and the error taxonomy
package remgo
