// Package distribution provides batched probability distributions over
// dense tensors, used for Monte-Carlo predictive strategies and sampled
// gradient estimation.
package distribution

import (
	"fmt"
	"math"

	"github.com/bmucsanyi/probit/special"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"
)

// Normal is a batch of univariate normal distributions. Each element of the
// mean and standard deviation tensors defines a distribution element-wise,
// so a Normal with (rows, cols) statistics holds rows*cols independent
// distributions. The shape of the mean tensor is the shape of the Normal.
//
// Inputs to Prob, LogProb, and Cdf must either have the shape of the Normal
// or carry one extra leading batch dimension, in which case the method is
// applied to every sample in the batch.
//
// Normal supports the following data types:
// - tensor.Float64
type Normal struct {
	mean   *tensor.Dense
	stddev *tensor.Dense
	dist   distuv.Normal
}

// NewNormal returns a new Normal. The source seeds every subsequent Sample
// call, so repeated sampling continues a single stream.
func NewNormal(mean, stddev *tensor.Dense, src rand.Source) (*Normal, error) {
	if mean == nil || stddev == nil {
		return nil, fmt.Errorf("newNormal: nil mean or stddev")
	}

	if !mean.Shape().Eq(stddev.Shape()) {
		return nil, fmt.Errorf("newNormal: expected mean and stddev to "+
			"have the same shape but got %v and %v", mean.Shape(),
			stddev.Shape())
	}

	if mean.Dtype() != stddev.Dtype() {
		return nil, fmt.Errorf("newNormal: expected mean and stddev to "+
			"have the same data type but got %v and %v", mean.Dtype(),
			stddev.Dtype())
	} else if mean.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("newNormal: data type %v unsupported",
			mean.Dtype())
	}

	return &Normal{
		mean:   mean,
		stddev: stddev,
		dist: distuv.Normal{
			Mu:    0.0,
			Sigma: 1.0,
			Src:   src,
		},
	}, nil
}

// Shape returns the shape of the distributions stored by the receiver
func (n *Normal) Shape() tensor.Shape {
	return n.mean.Shape()
}

// Mean returns the mean of the distribution(s) stored by the receiver
func (n *Normal) Mean() *tensor.Dense {
	return n.mean
}

// StdDev returns the standard deviation of the distribution(s) stored by
// the receiver
func (n *Normal) StdDev() *tensor.Dense {
	return n.stddev
}

// Sample draws samples independent draws from every distribution in the
// batch. The returned tensor has shape (samples, shape...), with the sample
// index as the leading dimension.
func (n *Normal) Sample(samples int) (*tensor.Dense, error) {
	if samples <= 0 {
		return nil, fmt.Errorf("sample: expected a positive sample count "+
			"but got %v", samples)
	}

	mean := n.mean.Data().([]float64)
	stddev := n.stddev.Data().([]float64)
	size := len(mean)
	out := make([]float64, samples*size)

	for s := 0; s < samples; s++ {
		for i := 0; i < size; i++ {
			out[s*size+i] = mean[i] + stddev[i]*n.dist.Rand()
		}
	}

	return tensor.New(
		tensor.WithShape(append([]int{samples}, n.mean.Shape()...)...),
		tensor.WithBacking(out),
	), nil
}

// LogProb calculates the element-wise log probability density of x.
func (n *Normal) LogProb(x *tensor.Dense) (*tensor.Dense, error) {
	return n.apply(x, "logProb", func(z, stddev float64) float64 {
		return special.LogProb(z) - math.Log(stddev)
	})
}

// Prob calculates the element-wise probability density of x.
func (n *Normal) Prob(x *tensor.Dense) (*tensor.Dense, error) {
	return n.apply(x, "prob", func(z, stddev float64) float64 {
		return special.Pdf(z) / stddev
	})
}

// Cdf calculates the element-wise cumulative distribution function of x.
func (n *Normal) Cdf(x *tensor.Dense) (*tensor.Dense, error) {
	return n.apply(x, "cdf", func(z, _ float64) float64 {
		return special.Ndtr(z)
	})
}

// apply standardizes x against the batch statistics and evaluates f on each
// (z-score, stddev) pair, broadcasting over a leading batch dimension when
// present.
func (n *Normal) apply(x *tensor.Dense, method string,
	f func(z, stddev float64) float64) (*tensor.Dense, error) {
	if x == nil {
		return nil, fmt.Errorf("%v: nil input", method)
	}

	if x.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("%v: data type %v unsupported", method,
			x.Dtype())
	}

	size := len(n.mean.Data().([]float64))
	batches := 1
	if x.Shape().Eq(n.mean.Shape()) {
		// Single sample
	} else if len(x.Shape()) == len(n.mean.Shape())+1 &&
		tensor.Shape(x.Shape()[1:]).Eq(n.mean.Shape()) {
		batches = x.Shape()[0]
	} else {
		return nil, fmt.Errorf("%v: expected shape to match distribution "+
			"shape %v at all dimensions except batch (dim 0) but got %v",
			method, n.mean.Shape(), x.Shape())
	}

	mean := n.mean.Data().([]float64)
	stddev := n.stddev.Data().([]float64)
	data := x.Data().([]float64)
	out := make([]float64, len(data))

	for b := 0; b < batches; b++ {
		for i := 0; i < size; i++ {
			z := (data[b*size+i] - mean[i]) / stddev[i]
			out[b*size+i] = f(z, stddev[i])
		}
	}

	return tensor.New(
		tensor.WithShape(x.Shape()...),
		tensor.WithBacking(out),
	), nil
}
