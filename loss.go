package probit

import (
	"fmt"
	"math"

	"github.com/bmucsanyi/probit/distribution"
	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"
)

// NormedSigmoidNLL is the negative log-likelihood of the renormalized
// sigmoid categorical likelihood p = sigmoid(z) / Σ sigmoid(z). Only
// rank-2 (batch, classes) inputs are supported.
type NormedSigmoidNLL struct{}

// CheckInput rejects inputs whose rank is not 2.
func (NormedSigmoidNLL) CheckInput(logit *tensor.Dense) error {
	if logit == nil {
		return fmt.Errorf("checkInput: nil logit tensor")
	}

	if len(logit.Shape()) != 2 {
		return fmt.Errorf("checkInput: only 2D inputs are currently "+
			"supported, got shape %v", logit.Shape())
	}

	return nil
}

// Loss returns -mean over the batch of log p[target].
func (n NormedSigmoidNLL) Loss(logit *tensor.Dense,
	target []int) (float64, error) {
	if err := checkMatrix(logit, "logit"); err != nil {
		return 0, fmt.Errorf("loss: %v", err)
	}

	rows := logit.Shape()[0]
	cols := logit.Shape()[1]
	if err := checkTarget(target, rows, cols); err != nil {
		return 0, fmt.Errorf("loss: %v", err)
	}

	data := logit.Data().([]float64)
	var total float64

	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]

		var sum float64
		for _, x := range row {
			sum += sigmoid64(x)
		}

		// log sigmoid(x) = -softplus(-x)
		logQ := -softplus64(-row[target[r]])
		total += logQ - math.Log(sum)
	}

	return -total / float64(rows), nil
}

// MeanNormalization returns the divisor of the mean reduction over a batch
// of logits: the number of examples, i.e. the element count divided by the
// class dimension.
func (NormedSigmoidNLL) MeanNormalization(logit *tensor.Dense) int {
	return logit.Shape().TotalSize() / logit.Shape()[1]
}

// SampledGrads returns mcSamples Monte-Carlo gradient samples of the loss,
// shaped (mcSamples, batch, classes). Labels are drawn from the
// renormalized sigmoid probabilities themselves, making each sample
//
//	(1 - q) · (p - onehot(label))
//
// an unbiased stochastic estimate of the loss gradient, usable by a
// second-order extension for variance-reduced Hessian approximations.
func (n NormedSigmoidNLL) SampledGrads(logit *tensor.Dense, mcSamples int,
	src rand.Source) (*tensor.Dense, error) {
	if err := n.CheckInput(logit); err != nil {
		return nil, fmt.Errorf("sampledGrads: %v", err)
	}

	if err := checkMatrix(logit, "logit"); err != nil {
		return nil, fmt.Errorf("sampledGrads: %v", err)
	}

	if mcSamples <= 0 {
		return nil, fmt.Errorf("sampledGrads: expected a positive sample "+
			"count but got %v", mcSamples)
	}

	data := logit.Data().([]float64)
	rows := logit.Shape()[0]
	cols := logit.Shape()[1]

	q := make([]float64, len(data))
	p := make([]float64, len(data))
	for i, x := range data {
		q[i] = sigmoid64(x)
		p[i] = q[i]
	}
	normalizeRows(p, rows, cols)

	probs := tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(p),
	)
	cat, err := distribution.NewCategorical(probs, src)
	if err != nil {
		return nil, fmt.Errorf("sampledGrads: %v", err)
	}

	labels, err := cat.Sample(mcSamples)
	if err != nil {
		return nil, fmt.Errorf("sampledGrads: %v", err)
	}

	labelData := labels.Data().([]int)
	out := make([]float64, mcSamples*rows*cols)

	for v := 0; v < mcSamples; v++ {
		for r := 0; r < rows; r++ {
			label := labelData[v*rows+r]
			for c := 0; c < cols; c++ {
				i := r*cols + c

				var onehot float64
				if c == label {
					onehot = 1
				}

				out[v*rows*cols+i] = (1 - q[i]) * (p[i] - onehot)
			}
		}
	}

	return tensor.New(
		tensor.WithShape(mcSamples, rows, cols),
		tensor.WithBacking(out),
	), nil
}

// softplus64 is log(1 + exp(x)) without overflow for large x.
func softplus64(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}
