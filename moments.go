package probit

import (
	"fmt"
	"math"

	"gorgonia.org/tensor"
)

// MoMDirichlet fits a joint Dirichlet distribution to the pushforward
// moments by the method of moments and returns its predictive mean. A single
// concentration scale shared across classes is extracted by averaging the
// per-class log pseudo-count ratios, which is robust to per-class numerical
// noise.
//
// When the implied variance M2 - M1² of a class is zero or negative the
// ratio is undefined; the resulting NaN is deliberately propagated to the
// output rather than masked, since silently repairing it would corrupt the
// uncertainty estimate.
func MoMDirichlet(mean, variance *tensor.Dense, link LinkFunction,
	output OutputFunction) (*tensor.Dense, error) {
	m1, err := PushforwardMean(mean, variance, link, output)
	if err != nil {
		return nil, fmt.Errorf("moMDirichlet: %v", err)
	}

	m2, err := PushforwardSecondMoment(mean, variance, link, output)
	if err != nil {
		return nil, fmt.Errorf("moMDirichlet: %v", err)
	}

	m1Data := m1.Data().([]float64)
	m2Data := m2.Data().([]float64)
	rows := m1.Shape()[0]
	cols := m1.Shape()[1]
	out := make([]float64, len(m1Data))

	for r := 0; r < rows; r++ {
		m1Row := m1Data[r*cols : (r+1)*cols]
		m2Row := m2Data[r*cols : (r+1)*cols]

		var s1 float64
		for _, v := range m1Row {
			s1 += v
		}
		// Row sums below one would put a non-positive quantity under the
		// log below.
		s := math.Max(s1, 1)

		var lp float64
		for c := range m1Row {
			lp += math.Log((m1Row[c]*s - m2Row[c]) /
				(m2Row[c] - m1Row[c]*m1Row[c]))
		}
		p := math.Exp(lp / float64(cols))

		for c := range m1Row {
			out[r*cols+c] = p * m1Row[c] / s
		}
	}

	return tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(out),
	), nil
}

// MoMBeta fits an independent Beta distribution per class by the method of
// moments and returns the (rows, cols, 2) parameter tensor. Degenerate
// moments yield NaN or non-positive parameters, which callers must handle.
func MoMBeta(mean, variance *tensor.Dense, link LinkFunction,
	output OutputFunction) (*tensor.Dense, error) {
	m1, err := PushforwardMean(mean, variance, link, output)
	if err != nil {
		return nil, fmt.Errorf("moMBeta: %v", err)
	}

	m2, err := PushforwardSecondMoment(mean, variance, link, output)
	if err != nil {
		return nil, fmt.Errorf("moMBeta: %v", err)
	}

	m1Data := m1.Data().([]float64)
	m2Data := m2.Data().([]float64)
	out := make([]float64, 2*len(m1Data))

	for i := range m1Data {
		l := (m1Data[i] - m2Data[i]) / (m2Data[i] - m1Data[i]*m1Data[i])
		out[2*i] = m1Data[i] * l
		out[2*i+1] = (1 - m1Data[i]) * l
	}

	return tensor.New(
		tensor.WithShape(m1.Shape()[0], m1.Shape()[1], 2),
		tensor.WithBacking(out),
	), nil
}

// DirichletPredictive returns the predictive mean of a batch of Dirichlet
// distributions given their (rows, cols) concentration parameters.
//
// Rows containing infinite parameters produce NaN under the division; in
// such rows the infinite classes are tied for the entire probability mass,
// so every NaN entry is replaced by 1/k, with k the number of NaN entries in
// the row, and every finite entry by zero.
func DirichletPredictive(params *tensor.Dense) (*tensor.Dense, error) {
	if err := checkMatrix(params, "params"); err != nil {
		return nil, fmt.Errorf("dirichletPredictive: %v", err)
	}

	data := params.Data().([]float64)
	rows := params.Shape()[0]
	cols := params.Shape()[1]
	out := make([]float64, len(data))

	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]

		var sum float64
		for _, v := range row {
			sum += v
		}

		nanCount := 0
		for c, v := range row {
			out[r*cols+c] = v / sum
			if math.IsNaN(out[r*cols+c]) {
				nanCount++
			}
		}

		if nanCount > 0 {
			for c := range row {
				if math.IsNaN(out[r*cols+c]) {
					out[r*cols+c] = 1 / float64(nanCount)
				} else {
					out[r*cols+c] = 0
				}
			}
		}
	}

	return tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(out),
	), nil
}

// BetaPredictive returns the predictive mean of a batch of per-class Beta
// distributions given their (rows, cols, 2) parameters, renormalized across
// classes.
func BetaPredictive(params *tensor.Dense) (*tensor.Dense, error) {
	if params == nil {
		return nil, fmt.Errorf("betaPredictive: nil params tensor")
	}

	if params.Dtype() != tensor.Float64 {
		return nil, fmt.Errorf("betaPredictive: expected dtype %v but "+
			"got %v", tensor.Float64, params.Dtype())
	}

	shape := params.Shape()
	if len(shape) != 3 || shape[2] != 2 {
		return nil, fmt.Errorf("betaPredictive: expected shape "+
			"(batch, classes, 2) but got %v", shape)
	}

	data := params.Data().([]float64)
	rows := shape[0]
	cols := shape[1]
	out := make([]float64, rows*cols)

	for i := 0; i < rows*cols; i++ {
		out[i] = data[2*i] / (data[2*i] + data[2*i+1])
	}
	normalizeRows(out, rows, cols)

	return tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(out),
	), nil
}

// LaplaceBridge maps Gaussian logit statistics to Dirichlet concentration
// parameters via the Laplace bridge. With useCorrection the statistics are
// first rescaled by c = Σvar/√(C/2) to correct the finite-dimension bias of
// the bridge.
func LaplaceBridge(mean, variance *tensor.Dense,
	useCorrection bool) (*tensor.Dense, error) {
	if err := checkLogitStatistics(mean, variance); err != nil {
		return nil, fmt.Errorf("laplaceBridge: %v", err)
	}

	m := mean.Data().([]float64)
	v := variance.Data().([]float64)
	rows := mean.Shape()[0]
	cols := mean.Shape()[1]
	numClasses := float64(cols)
	out := make([]float64, len(m))

	meanP := make([]float64, cols)
	varP := make([]float64, cols)
	for r := 0; r < rows; r++ {
		mRow := m[r*cols : (r+1)*cols]
		vRow := v[r*cols : (r+1)*cols]

		if useCorrection {
			var c float64
			for _, vc := range vRow {
				c += vc
			}
			c /= math.Sqrt(numClasses / 2)

			for i := range mRow {
				meanP[i] = mRow[i] / math.Sqrt(c)
				varP[i] = vRow[i] / c
			}
		} else {
			copy(meanP, mRow)
			copy(varP, vRow)
		}

		var sumExpNeg float64
		for _, mc := range meanP {
			sumExpNeg += math.Exp(-mc)
		}

		for i := range meanP {
			out[r*cols+i] = (1 - 2/numClasses +
				math.Exp(meanP[i])*sumExpNeg/(numClasses*numClasses)) /
				varP[i]
		}
	}

	return tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(out),
	), nil
}
