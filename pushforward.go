package probit

import (
	"fmt"
	"math"

	"github.com/bmucsanyi/probit/special"
	"gorgonia.org/tensor"
)

// predictiveFloor is the lower clamp applied to final predictives so that
// an exact zero never reaches a downstream logarithm.
const predictiveFloor = 1e-10

// PushforwardLogits returns the scaled pre-activation scores of the Gaussian
// pushforward without applying the final nonlinearity. This is the
// return-logits mode of the pushforward, used when raw scores are wanted for
// a downstream log-probability computation.
func PushforwardLogits(mean, variance *tensor.Dense, link LinkFunction,
	output OutputFunction) (*tensor.Dense, error) {
	if err := checkLogitStatistics(mean, variance); err != nil {
		return nil, fmt.Errorf("pushforwardLogits: %v", err)
	}

	scale, err := link.Scale()
	if err != nil {
		return nil, fmt.Errorf("pushforwardLogits: %v", err)
	}

	m := mean.Data().([]float64)
	v := variance.Data().([]float64)
	out := make([]float64, len(m))

	switch output {
	case NormCDF:
		for i := range m {
			out[i] = m[i] / math.Sqrt(1/scale+v[i])
		}

	case Sigmoid, SigmoidProduct:
		for i := range m {
			out[i] = m[i] / math.Sqrt(1+scale*v[i])
		}

	default:
		return nil, fmt.Errorf("pushforwardLogits: invalid output "+
			"function %v", output)
	}

	return tensor.New(
		tensor.WithShape(mean.Shape()...),
		tensor.WithBacking(out),
	), nil
}

// PushforwardMean returns the first moment of the per-class probability
// obtained by pushing the Gaussian logits through the link and output
// function.
func PushforwardMean(mean, variance *tensor.Dense, link LinkFunction,
	output OutputFunction) (*tensor.Dense, error) {
	logits, err := PushforwardLogits(mean, variance, link, output)
	if err != nil {
		return nil, fmt.Errorf("pushforwardMean: %v", err)
	}

	data := logits.Data().([]float64)
	switch output {
	case NormCDF:
		for i, x := range data {
			data[i] = special.Ndtr(x)
		}

	case Sigmoid, SigmoidProduct:
		for i, x := range data {
			data[i] = sigmoid64(x)
		}
	}

	return logits, nil
}

// PushforwardSecondMoment returns the second moment of the pushed-forward
// per-class probability. For the normcdf and sigmoid outputs this is the
// exact bivariate-normal result
//
//	M2 = M1 - 2 T(mean/√(1/scale+var), 1/√(1+2·scale·var)),
//
// with T Owen's T function, which has no accelerator-native implementation:
// the inputs are staged to host slices and the whole batch is evaluated in
// one call. The sigmoid_product output uses its closed product form instead
// and is only defined for the logit link.
func PushforwardSecondMoment(mean, variance *tensor.Dense, link LinkFunction,
	output OutputFunction) (*tensor.Dense, error) {
	if err := checkLogitStatistics(mean, variance); err != nil {
		return nil, fmt.Errorf("pushforwardSecondMoment: %v", err)
	}

	scale, err := link.Scale()
	if err != nil {
		return nil, fmt.Errorf("pushforwardSecondMoment: %v", err)
	}

	if output == SigmoidProduct {
		if link != Logit {
			return nil, fmt.Errorf("pushforwardSecondMoment: invalid link "+
				"function %v for output function %v", link, output)
		}

		s, err := PushforwardMean(mean, variance, Logit, Sigmoid)
		if err != nil {
			return nil, fmt.Errorf("pushforwardSecondMoment: %v", err)
		}

		sd := s.Data().([]float64)
		v := variance.Data().([]float64)
		for i, si := range sd {
			sd[i] = si - si*(1-si)/math.Sqrt(1+scale*v[i])
		}

		return s, nil
	}

	m1, err := PushforwardMean(mean, variance, link, output)
	if err != nil {
		return nil, fmt.Errorf("pushforwardSecondMoment: %v", err)
	}

	// Stage both Owen's T arguments to host slices and evaluate the full
	// batch at once.
	m := mean.Data().([]float64)
	v := variance.Data().([]float64)
	h := make([]float64, len(m))
	a := make([]float64, len(m))
	for i := range m {
		h[i] = m[i] / math.Sqrt(1/scale+v[i])
		a[i] = 1 / math.Sqrt(1+2*scale*v[i])
	}

	t, err := special.OwensTEach(h, a)
	if err != nil {
		return nil, fmt.Errorf("pushforwardSecondMoment: %v", err)
	}

	out := m1.Data().([]float64)
	for i := range out {
		out[i] -= 2 * t[i]
	}

	return m1, nil
}

// ProbitPredictive is the simplest predictive strategy: the pushforward mean
// of each class, row-normalized across classes and floored at 1e-10.
func ProbitPredictive(mean, variance *tensor.Dense, link LinkFunction,
	output OutputFunction) (*tensor.Dense, error) {
	m1, err := PushforwardMean(mean, variance, link, output)
	if err != nil {
		return nil, fmt.Errorf("probitPredictive: %v", err)
	}

	data := m1.Data().([]float64)
	rows := m1.Shape()[0]
	cols := m1.Shape()[1]
	normalizeRows(data, rows, cols)

	for i, v := range data {
		if v < predictiveFloor {
			data[i] = predictiveFloor
		}
	}

	return m1, nil
}
