package probit

import (
	"fmt"

	"github.com/bmucsanyi/probit/special"
	"gorgonia.org/tensor"
)

// LossDerivatives supplies closed-form second-order information for the
// negative log-likelihood of a discrete likelihood family. It is the
// payload a second-order backpropagation extension invokes at its loss hook:
// given the forward-pass logits and the target labels it returns the
// diagonal Hessian of the NLL, shaped like the logits, plus a declaration
// of positive semi-definiteness that lets the extension pick a compatible
// backward recursion.
//
// The formulas are exact closed forms, independent of any differentiation
// engine; they exist to avoid the cost and noise of automatic second-order
// differentiation through the renormalization.
type LossDerivatives interface {
	// DiagHessian returns the diagonal of the Hessian of the NLL with
	// respect to each logit of the (batch, classes) input.
	DiagHessian(logit *tensor.Dense, target []int) (*tensor.Dense, error)

	// HessianIsPSD returns whether the Hessian is positive semi-definite
	HessianIsPSD() bool
}

// DerivativesFor returns the LossDerivatives of the given likelihood family.
func DerivativesFor(l Likelihood) (LossDerivatives, error) {
	switch l {
	case SoftmaxLikelihood:
		return SoftmaxNLLDerivatives{}, nil
	case SigmoidLikelihood:
		return NormedSigmoidNLLDerivatives{}, nil
	case NormCDFLikelihood:
		return NormedNormCDFNLLDerivatives{}, nil
	default:
		return nil, fmt.Errorf("derivativesFor: unknown likelihood %v", l)
	}
}

// SoftmaxNLLDerivatives is the second-order payload of the softmax
// cross-entropy loss.
type SoftmaxNLLDerivatives struct{}

// DiagHessian returns the classic softmax result p*(1-p). The target does
// not enter the softmax diagonal Hessian but is validated for consistency
// with the other likelihoods.
func (SoftmaxNLLDerivatives) DiagHessian(logit *tensor.Dense,
	target []int) (*tensor.Dense, error) {
	rows, cols, err := checkHessianInputs(logit, target, "diagHessian")
	if err != nil {
		return nil, err
	}

	out := make([]float64, rows*cols)
	copy(out, logit.Data().([]float64))
	softmaxRows(out, rows, cols)

	for i, p := range out {
		out[i] = p * (1 - p)
	}

	return tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(out),
	), nil
}

func (SoftmaxNLLDerivatives) HessianIsPSD() bool { return true }

// NormedSigmoidNLLDerivatives is the second-order payload of the
// normalized-sigmoid NLL loss, where the class probabilities are
// p = sigmoid(z) / Σ sigmoid(z).
type NormedSigmoidNLLDerivatives struct{}

// DiagHessian returns the exact second derivative of -log p[target] with
// respect to each logit:
//
//	y·q·(1-q) + p·(1 - 3q + 2q²) - (p·(1-q))²
//
// with q the element-wise sigmoid, p the renormalized probabilities, and y
// the one-hot target.
func (NormedSigmoidNLLDerivatives) DiagHessian(logit *tensor.Dense,
	target []int) (*tensor.Dense, error) {
	rows, cols, err := checkHessianInputs(logit, target, "diagHessian")
	if err != nil {
		return nil, err
	}

	data := logit.Data().([]float64)
	out := make([]float64, rows*cols)

	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]

		q := make([]float64, cols)
		var sum float64
		for c, x := range row {
			q[c] = sigmoid64(x)
			sum += q[c]
		}

		for c := range row {
			p := q[c] / sum
			h := p*(1-3*q[c]+2*q[c]*q[c]) - p*(1-q[c])*p*(1-q[c])
			if c == target[r] {
				h += q[c] * (1 - q[c])
			}
			out[r*cols+c] = h
		}
	}

	return tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(out),
	), nil
}

func (NormedSigmoidNLLDerivatives) HessianIsPSD() bool { return true }

// NormedNormCDFNLLDerivatives is the second-order payload of the
// normalized-normCDF NLL loss, where the class probabilities are
// p = Φ(z) / Σ Φ(z).
type NormedNormCDFNLLDerivatives struct{}

// DiagHessian returns the exact second derivative of -log p[target] with
// respect to each logit:
//
//	θ·(1/s - y/q) + φ²·(y/q² - 1/s²)
//
// with q = Φ(z), s the row sum of q, φ the standard normal density, and
// θ = -z·φ its derivative.
func (NormedNormCDFNLLDerivatives) DiagHessian(logit *tensor.Dense,
	target []int) (*tensor.Dense, error) {
	rows, cols, err := checkHessianInputs(logit, target, "diagHessian")
	if err != nil {
		return nil, err
	}

	data := logit.Data().([]float64)
	out := make([]float64, rows*cols)

	for r := 0; r < rows; r++ {
		row := data[r*cols : (r+1)*cols]

		q := make([]float64, cols)
		var s float64
		for c, x := range row {
			q[c] = special.Ndtr(x)
			s += q[c]
		}

		for c, x := range row {
			phi := special.Pdf(x)
			theta := -x * phi

			var y float64
			if c == target[r] {
				y = 1
			}

			out[r*cols+c] = theta*(1/s-y/q[c]) +
				phi*phi*(y/(q[c]*q[c])-1/(s*s))
		}
	}

	return tensor.New(
		tensor.WithShape(rows, cols),
		tensor.WithBacking(out),
	), nil
}

func (NormedNormCDFNLLDerivatives) HessianIsPSD() bool { return true }

// checkHessianInputs validates the (logit, target) pair of a DiagHessian
// call and returns the batch dimensions.
func checkHessianInputs(logit *tensor.Dense, target []int,
	method string) (rows, cols int, err error) {
	if err := checkMatrix(logit, "logit"); err != nil {
		return 0, 0, fmt.Errorf("%v: %v", method, err)
	}

	rows = logit.Shape()[0]
	cols = logit.Shape()[1]
	if err := checkTarget(target, rows, cols); err != nil {
		return 0, 0, fmt.Errorf("%v: %v", method, err)
	}

	return rows, cols, nil
}
