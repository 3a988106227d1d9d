package probit

import (
	"fmt"
	"math"

	"github.com/bmucsanyi/probit/distribution"
	"github.com/bmucsanyi/probit/special"
	"golang.org/x/exp/rand"
	"gorgonia.org/tensor"
)

// SoftmaxLaplaceBridge approximates the softmax-Gaussian pushforward by
// mapping the logit statistics to Dirichlet concentration parameters via the
// Laplace bridge and returning the Dirichlet predictive mean.
func SoftmaxLaplaceBridge(mean, variance *tensor.Dense,
	useCorrection bool) (*tensor.Dense, error) {
	params, err := LaplaceBridge(mean, variance, useCorrection)
	if err != nil {
		return nil, fmt.Errorf("softmaxLaplaceBridge: %v", err)
	}

	pred, err := DirichletPredictive(params)
	if err != nil {
		return nil, fmt.Errorf("softmaxLaplaceBridge: %v", err)
	}

	return pred, nil
}

// SoftmaxLaplaceBridgeLogits returns the floored log of the Laplace bridge
// predictive, for callers that want raw scores instead of probabilities.
func SoftmaxLaplaceBridgeLogits(mean, variance *tensor.Dense,
	useCorrection bool) (*tensor.Dense, error) {
	pred, err := SoftmaxLaplaceBridge(mean, variance, useCorrection)
	if err != nil {
		return nil, fmt.Errorf("softmaxLaplaceBridgeLogits: %v", err)
	}

	data := pred.Data().([]float64)
	for i, v := range data {
		data[i] = math.Log(v + predictiveFloor)
	}

	return pred, nil
}

// SoftmaxMeanFieldLogits returns the mean-field-scaled logits
// mean/√(1+λ₀·var) without the final softmax.
func SoftmaxMeanFieldLogits(mean, variance *tensor.Dense) (*tensor.Dense,
	error) {
	if err := checkLogitStatistics(mean, variance); err != nil {
		return nil, fmt.Errorf("softmaxMeanFieldLogits: %v", err)
	}

	m := mean.Data().([]float64)
	v := variance.Data().([]float64)
	out := make([]float64, len(m))
	for i := range m {
		out[i] = m[i] / math.Sqrt(1+Lambda0*v[i])
	}

	return tensor.New(
		tensor.WithShape(mean.Shape()...),
		tensor.WithBacking(out),
	), nil
}

// SoftmaxMeanField is the mean-field softmax predictive: the softmax of the
// variance-scaled logits.
func SoftmaxMeanField(mean, variance *tensor.Dense) (*tensor.Dense, error) {
	logits, err := SoftmaxMeanFieldLogits(mean, variance)
	if err != nil {
		return nil, fmt.Errorf("softmaxMeanField: %v", err)
	}

	softmaxRows(logits.Data().([]float64), logits.Shape()[0],
		logits.Shape()[1])

	return logits, nil
}

// SoftmaxMC is the Monte-Carlo softmax predictive: logits are sampled from
// the Gaussian belief, pushed through the softmax, and averaged. This is the
// ground-truth reference the closed-form softmax approximations are checked
// against.
func SoftmaxMC(mean, variance *tensor.Dense, numMCSamples int,
	src rand.Source) (*tensor.Dense, error) {
	return mcPredictive(mean, variance, numMCSamples, src, softmaxRows)
}

// LogitLinkMC is the Monte-Carlo predictive for the logit link: sampled
// logits are pushed through the sigmoid and renormalized across classes
// before averaging.
func LogitLinkMC(mean, variance *tensor.Dense, numMCSamples int,
	src rand.Source) (*tensor.Dense, error) {
	return mcPredictive(mean, variance, numMCSamples, src,
		func(data []float64, rows, cols int) {
			for i, x := range data {
				data[i] = sigmoid64(x)
			}
			normalizeRows(data, rows, cols)
		})
}

// ProbitLinkMC is the Monte-Carlo predictive for the probit link: sampled
// logits are pushed through the standard normal CDF and renormalized across
// classes before averaging.
func ProbitLinkMC(mean, variance *tensor.Dense, numMCSamples int,
	src rand.Source) (*tensor.Dense, error) {
	return mcPredictive(mean, variance, numMCSamples, src,
		func(data []float64, rows, cols int) {
			for i, x := range data {
				data[i] = special.Ndtr(x)
			}
			normalizeRows(data, rows, cols)
		})
}

// mcPredictive draws numMCSamples logit samples per example per class,
// applies activate to each sampled (rows, cols) logit matrix in place, and
// averages the activations over the samples.
func mcPredictive(mean, variance *tensor.Dense, numMCSamples int,
	src rand.Source, activate func(data []float64, rows,
		cols int)) (*tensor.Dense, error) {
	if err := checkLogitStatistics(mean, variance); err != nil {
		return nil, fmt.Errorf("mcPredictive: %v", err)
	}

	if numMCSamples <= 0 {
		return nil, fmt.Errorf("mcPredictive: expected a positive sample "+
			"count but got %v", numMCSamples)
	}

	v := variance.Data().([]float64)
	stddev := make([]float64, len(v))
	for i := range v {
		stddev[i] = math.Sqrt(v[i])
	}
	stddevT := tensor.New(
		tensor.WithShape(variance.Shape()...),
		tensor.WithBacking(stddev),
	)

	normal, err := distribution.NewNormal(mean, stddevT, src)
	if err != nil {
		return nil, fmt.Errorf("mcPredictive: %v", err)
	}

	samples, err := normal.Sample(numMCSamples)
	if err != nil {
		return nil, fmt.Errorf("mcPredictive: %v", err)
	}

	rows := mean.Shape()[0]
	cols := mean.Shape()[1]
	size := rows * cols
	sampleData := samples.Data().([]float64)
	out := make([]float64, size)

	for s := 0; s < numMCSamples; s++ {
		slice := sampleData[s*size : (s+1)*size]
		activate(slice, rows, cols)
		for i, p := range slice {
			out[i] += p
		}
	}

	for i := range out {
		out[i] /= float64(numMCSamples)
	}

	return tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(out),
	), nil
}
