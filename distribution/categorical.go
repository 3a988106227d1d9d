package distribution

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"
)

// Categorical is a batch of categorical distributions, one per row of a
// (rows, classes) probability matrix. Rows need not be normalized but must
// be non-negative with a positive sum.
//
// Categorical supports the following data types:
// - tensor.Float64
type Categorical struct {
	probs *tensor.Dense
	dists []distuv.Categorical
}

// NewCategorical returns a new Categorical. All rows share the given random
// source.
func NewCategorical(probs *tensor.Dense, src rand.Source) (*Categorical,
	error) {
	if probs == nil {
		return nil, fmt.Errorf("newCategorical: nil probs tensor")
	}

	if probs.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("newCategorical: data type %v unsupported",
			probs.Dtype())
	}

	if len(probs.Shape()) != 2 {
		return nil, fmt.Errorf("newCategorical: expected probs to be a "+
			"matrix but got shape %v", probs.Shape())
	}

	data := probs.Data().([]float64)
	rows := probs.Shape()[0]
	cols := probs.Shape()[1]
	dists := make([]distuv.Categorical, rows)

	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]

		var sum float64
		for c, w := range row {
			if w < 0 {
				return nil, fmt.Errorf("newCategorical: negative weight "+
					"%v at row %v class %v", w, r, c)
			}
			sum += w
		}
		if sum <= 0 {
			return nil, fmt.Errorf("newCategorical: row %v has no "+
				"positive weight", r)
		}

		dists[r] = distuv.NewCategorical(row, src)
	}

	return &Categorical{
		probs: probs,
		dists: dists,
	}, nil
}

// Probs returns the probability matrix of the receiver
func (c *Categorical) Probs() *tensor.Dense {
	return c.probs
}

// Sample draws samples class labels from every row distribution. The
// returned tensor has shape (samples, rows) and dtype tensor.Int.
func (c *Categorical) Sample(samples int) (*tensor.Dense, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("sample: expected a positive sample count "+
			"but got %v", samples)
	}

	rows := len(c.dists)
	out := make([]int, samples*rows)

	for s := 0; s < samples; s++ {
		for r := range c.dists {
			out[s*rows+r] = int(c.dists[r].Rand())
		}
	}

	return tensor.New(
		tensor.WithShape(samples, rows),
		tensor.WithBacking(out),
	), nil
}
