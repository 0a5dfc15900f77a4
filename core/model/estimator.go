package model

import (
	"context"

	"github.com/YuminosukeSato/remgo/dataset"
)

// Learner fits a model to the data it was set up with.
type Learner[R any] interface {
	Learn(ctx context.Context) (R, error)
}

// Predictor predicts the response for regressors that may contain missing
// values. x excludes the intercept.
type Predictor interface {
	Predict(x []dataset.Value) (float64, error)
}

// Scorer evaluates a fitted model against the observed responses of a
// dataset.
type Scorer interface {
	Score(ds *dataset.Dataset) (float64, error)
}

// Model is a Learner that can also predict, score and be cleared.
type Model[R any] interface {
	Learner[R]
	Predictor
	Scorer
	Clear()
}
