// Package goml is a small machine learning library for Go built on gonum.
//
// Every estimator works on gonum matrices (mat.Matrix), is configured with
// functional options and reports failures as typed errors from pkg/errors.
// Training is synchronous and deterministic: a seed passed with WithRandomState
// fully determines weight initialization, mini-batch sampling and k-means++
// seeding.
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/goml/linear"
//	    "gonum.org/v1/gonum/mat"
//	)
//
//	func main() {
//	    X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
//	    y := mat.NewDense(4, 1, []float64{1, 3, 5, 7})
//
//	    model, err := linear.NewLinearRegression()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := model.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    pred, err := model.Predict(mat.NewDense(1, 1, []float64{5}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(pred.At(0, 0)) // 9
//	}
//
// # Packages
//
//   - linear: LinearRegression (pinv, gradient descent, SGD) and regularized
//     gradient descent (Lasso, Ridge, ElasticNet)
//   - sklearn/linear_model: LogisticRegression and Perceptron
//   - sklearn/svm: LinearSVC trained on the hinge loss
//   - sklearn/multiclass: one-vs-all wrapper for binary classifiers
//   - sklearn/neighbors: k-nearest-neighbour classifier and regressor
//   - sklearn/cluster: KMeans with k-means++ seeding and an elbow-based KChooser
//   - sklearn/decomposition: PCA by covariance eigendecomposition
//   - preprocessing: StandardScaler, MinMaxScaler and CategoricalEncoder
//   - metrics: regression, classification and pairwise distance metrics
//   - datasets: synthetic regression and blob generators
//   - viz: loss and elbow plots with gonum/plot
//   - core/model, core/matutil: shared interfaces and matrix helpers
//   - pkg/errors, pkg/log: error types and zerolog-backed structured logging
//
// Estimators are not safe for concurrent use.
package goml
