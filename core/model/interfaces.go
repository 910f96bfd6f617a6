// Package model provides additional interfaces and types for machine learning models.
// This file complements the core interfaces in estimator.go and transformer.go.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction.
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Model
	Scorer
}

// ProbabilisticClassifier is a binary classifier that exposes scores in [0, 1].
//
// Targets passed to Fit are n×1 columns of {0, 1} labels. One-vs-all wrappers
// depend only on this interface, so any binary model satisfying it can be
// plugged in.
type ProbabilisticClassifier interface {
	Model

	// PredictProba returns an n×1 column of positive-class scores.
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// ThresholdClassifier is a classifier whose decision cutoff can be chosen per call.
type ThresholdClassifier interface {
	ProbabilisticClassifier

	// PredictWithThreshold labels rows whose score is strictly above threshold as positive.
	PredictWithThreshold(X mat.Matrix, threshold float64) (mat.Matrix, error)
}

// HistoryRecorder is implemented by iterative models that record a loss per iteration.
type HistoryRecorder interface {
	History() History
}

// Clusterer is the interface for unsupervised clustering models.
type Clusterer interface {
	// Fit groups the rows of X.
	Fit(X mat.Matrix) error

	// Labels returns the cluster index assigned to each training row.
	Labels() []int
}
