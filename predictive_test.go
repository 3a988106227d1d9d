package probit_test

import (
	"math"
	"testing"

	"github.com/bmucsanyi/probit"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
	"gorgonia.org/tensor"
)

// rowSums returns the per-row sums of a (rows, cols) tensor.
func rowSums(t *tensor.Dense) []float64 {
	data := t.Data().([]float64)
	rows := t.Shape()[0]
	cols := t.Shape()[1]

	sums := make([]float64, rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			sums[r] += data[r*cols+c]
		}
	}

	return sums
}

func TestSoftmaxMeanField(t *testing.T) {
	const threshold float64 = 1e-12

	mean := matrix(1, 3, []float64{1.0, 0.0, -1.0})
	variance := matrix(1, 3, []float64{0.5, 1.0, 2.0})

	pred, err := probit.SoftmaxMeanField(mean, variance)
	if err != nil {
		t.Error(err)
	}

	// Recompute the mean-field softmax by hand
	logits := make([]float64, 3)
	m := mean.Data().([]float64)
	v := variance.Data().([]float64)
	var sum float64
	for i := range logits {
		logits[i] = math.Exp(m[i] / math.Sqrt(1+math.Pi/8*v[i]))
		sum += logits[i]
	}

	data := pred.Data().([]float64)
	for i := range logits {
		if math.Abs(data[i]-logits[i]/sum) > threshold {
			t.Errorf("expected: %v \nreceived: %v", logits[i]/sum, data[i])
		}
	}
}

func TestZeroVarianceCollapse(t *testing.T) {
	const threshold float64 = 1e-9

	mean := matrix(2, 3, []float64{1.0, 0.5, -1.5, -0.2, 0.0, 2.0})
	variance := matrix(2, 3, make([]float64, 6))
	m := mean.Data().([]float64)

	// Mean field collapses to the plain softmax of the mean
	pred, err := probit.SoftmaxMeanField(mean, variance)
	if err != nil {
		t.Error(err)
	}
	data := pred.Data().([]float64)
	for r := 0; r < 2; r++ {
		var sum float64
		expected := make([]float64, 3)
		for c := 0; c < 3; c++ {
			expected[c] = math.Exp(m[r*3+c])
			sum += expected[c]
		}
		for c := 0; c < 3; c++ {
			if math.Abs(data[r*3+c]-expected[c]/sum) > threshold {
				t.Errorf("expected: %v \nreceived: %v", expected[c]/sum,
					data[r*3+c])
			}
		}
	}

	// The probit-link normcdf predictive collapses to the renormalized
	// normal CDF of the mean
	pred, err = probit.ProbitPredictive(mean, variance, probit.Probit,
		probit.NormCDF)
	if err != nil {
		t.Error(err)
	}
	data = pred.Data().([]float64)
	for r := 0; r < 2; r++ {
		var sum float64
		expected := make([]float64, 3)
		for c := 0; c < 3; c++ {
			expected[c] = distuv.UnitNormal.CDF(m[r*3+c])
			sum += expected[c]
		}
		for c := 0; c < 3; c++ {
			if math.Abs(data[r*3+c]-expected[c]/sum) > threshold {
				t.Errorf("expected: %v \nreceived: %v", expected[c]/sum,
					data[r*3+c])
			}
		}
	}

	// The logit-link sigmoid predictive collapses to the renormalized
	// sigmoid of the mean
	pred, err = probit.ProbitPredictive(mean, variance, probit.Logit,
		probit.Sigmoid)
	if err != nil {
		t.Error(err)
	}
	data = pred.Data().([]float64)
	for r := 0; r < 2; r++ {
		var sum float64
		expected := make([]float64, 3)
		for c := 0; c < 3; c++ {
			expected[c] = 1 / (1 + math.Exp(-m[r*3+c]))
			sum += expected[c]
		}
		for c := 0; c < 3; c++ {
			if math.Abs(data[r*3+c]-expected[c]/sum) > threshold {
				t.Errorf("expected: %v \nreceived: %v", expected[c]/sum,
					data[r*3+c])
			}
		}
	}
}

func TestMCMatchesClosedForm(t *testing.T) {
	// With small variances the averaging order barely matters, so the
	// Monte-Carlo strategies must agree with their closed-form
	// counterparts.
	const threshold float64 = 0.02
	const numMCSamples int = 20000

	mean := matrix(2, 3, []float64{0.8, -0.3, 0.1, -1.0, 0.4, 0.6})
	variance := matrix(2, 3, []float64{0.05, 0.03, 0.02, 0.04, 0.05, 0.01})

	cases := []struct {
		name string
		mc   func() (*tensor.Dense, error)
		ref  func() (*tensor.Dense, error)
	}{
		{
			"softmax",
			func() (*tensor.Dense, error) {
				return probit.SoftmaxMC(mean, variance, numMCSamples,
					rand.NewSource(11))
			},
			func() (*tensor.Dense, error) {
				return probit.SoftmaxMeanField(mean, variance)
			},
		},
		{
			"probit",
			func() (*tensor.Dense, error) {
				return probit.ProbitLinkMC(mean, variance, numMCSamples,
					rand.NewSource(11))
			},
			func() (*tensor.Dense, error) {
				return probit.ProbitPredictive(mean, variance, probit.Probit,
					probit.NormCDF)
			},
		},
		{
			"logit",
			func() (*tensor.Dense, error) {
				return probit.LogitLinkMC(mean, variance, numMCSamples,
					rand.NewSource(11))
			},
			func() (*tensor.Dense, error) {
				return probit.ProbitPredictive(mean, variance, probit.Logit,
					probit.Sigmoid)
			},
		},
	}

	for _, c := range cases {
		mc, err := c.mc()
		if err != nil {
			t.Error(err)
		}

		ref, err := c.ref()
		if err != nil {
			t.Error(err)
		}

		mcData := mc.Data().([]float64)
		refData := ref.Data().([]float64)
		for i := range mcData {
			if math.Abs(mcData[i]-refData[i]) > threshold {
				t.Errorf("%v: expected: %v \nreceived: %v \nat index %v",
					c.name, refData[i], mcData[i], i)
			}
		}
	}
}

func TestPredictiveRowSumInvariant(t *testing.T) {
	const threshold float64 = 1e-6

	mean, variance := randomStatistics(4, 5, 2, 1)

	strategies := []probit.Predictive{
		probit.SoftmaxLaplaceBridgePredictive,
		probit.SoftmaxMeanFieldPredictive,
		probit.SoftmaxMCPredictive,
		probit.LogitLinkNormCDFOutputPredictive,
		probit.LogitLinkSigmoidOutputPredictive,
		probit.LogitLinkSigmoidProductOutputPredictive,
		probit.LogitLinkMCPredictive,
		probit.ProbitLinkNormCDFOutputPredictive,
		probit.ProbitLinkSigmoidOutputPredictive,
		probit.ProbitLinkMCPredictive,
	}

	conf := probit.PredictiveConfig{
		NumMCSamples:  256,
		UseCorrection: true,
		Seed:          11,
	}

	for _, strategy := range strategies {
		fn, err := probit.GetPredictive(strategy, conf)
		if err != nil {
			t.Error(err)
		}

		pred, err := fn(mean, variance)
		if err != nil {
			t.Error(err)
		}

		for r, sum := range rowSums(pred) {
			if math.Abs(sum-1) > threshold {
				t.Errorf("%v: expected row %v to sum to 1 but got %v",
					strategy, r, sum)
			}
		}
	}
}
