package probit

import (
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

// sigmoid64 is the logistic sigmoid, evaluated so that neither branch
// exponentiates a positive argument.
func sigmoid64(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// softmaxRows replaces each row of the (rows, cols) matrix data with its
// softmax, using the usual max subtraction for stability.
func softmaxRows(data []float64, rows, cols int) {
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]

		max := math.Inf(-1)
		for _, v := range row {
			if v > max {
				max = v
			}
		}

		var sum float64
		for c, v := range row {
			row[c] = math.Exp(v - max)
			sum += row[c]
		}

		for c := range row {
			row[c] /= sum
		}
	}
}

// normalizeRows divides each row of the (rows, cols) matrix data by its sum.
func normalizeRows(data []float64, rows, cols int) {
	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]

		var sum float64
		for _, v := range row {
			sum += v
		}

		for c := range row {
			row[c] /= sum
		}
	}
}

// checkMatrix returns an error if t is not a rank-2 float64 tensor.
func checkMatrix(t *tensor.Dense, name string) error {
	if t == nil {
		return fmt.Errorf("nil %v tensor", name)
	}

	if t.Dtype() != tensor.Float64 {
		return fmt.Errorf("expected %v to have dtype %v but got %v", name,
			tensor.Float64, t.Dtype())
	}

	if len(t.Shape()) != 2 {
		return fmt.Errorf("expected %v to be a matrix but got shape %v",
			name, t.Shape())
	}

	return nil
}

// checkLogitStatistics validates a (mean, variance) pair of Gaussian logit
// statistics: two float64 matrices of identical shape.
func checkLogitStatistics(mean, variance *tensor.Dense) error {
	if err := checkMatrix(mean, "mean"); err != nil {
		return err
	}

	if err := checkMatrix(variance, "variance"); err != nil {
		return err
	}

	if !mean.Shape().Eq(variance.Shape()) {
		return fmt.Errorf("expected mean and variance to have the same "+
			"shape but got %v and %v", mean.Shape(), variance.Shape())
	}

	return nil
}

// checkTarget validates a class label vector against a (rows, cols) batch.
func checkTarget(target []int, rows, cols int) error {
	if len(target) != rows {
		return fmt.Errorf("expected %v targets but got %v", rows,
			len(target))
	}

	for i, t := range target {
		if t < 0 || t >= cols {
			return fmt.Errorf("target %v at index %v out of range [0, %v)",
				t, i, cols)
		}
	}

	return nil
}
