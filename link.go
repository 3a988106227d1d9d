// Package probit provides approximate Bayesian predictive distributions for
// classifiers whose final layer outputs a Gaussian belief (mean, variance)
// over each class logit. The package pushes these Gaussians through probit-
// or logit-style output functions in closed form, fits Dirichlet and Beta
// distributions to the resulting moments, and supplies exact diagonal
// Hessians of the matching likelihoods for second-order backpropagation.
package probit

import (
	"fmt"
	"math"
)

// Lambda0 is the variance scale pi/8 of the logit link: the Laplace-derived
// constant under which the logistic sigmoid best mimics the normal CDF.
const Lambda0 = math.Pi / 8

// LinkFunction is the transform assumed to relate a latent Gaussian score to
// a class membership probability.
type LinkFunction int

const (
	// Probit is the normal-CDF-based link.
	Probit LinkFunction = iota

	// Logit is the sigmoid-based link.
	Logit
)

// ParseLinkFunction converts a link function name to a LinkFunction.
func ParseLinkFunction(name string) (LinkFunction, error) {
	switch name {
	case "probit":
		return Probit, nil
	case "logit":
		return Logit, nil
	default:
		return 0, fmt.Errorf("parseLinkFunction: invalid link function %q",
			name)
	}
}

// String implements the fmt.Stringer interface
func (l LinkFunction) String() string {
	switch l {
	case Probit:
		return "probit"
	case Logit:
		return "logit"
	default:
		return fmt.Sprintf("LinkFunction(%d)", int(l))
	}
}

// Scale returns the variance scaling constant of the link: 1 for the probit
// link and Lambda0 for the logit link.
func (l LinkFunction) Scale() (float64, error) {
	switch l {
	case Probit:
		return 1.0, nil
	case Logit:
		return Lambda0, nil
	default:
		return 0, fmt.Errorf("scale: invalid link function %v", l)
	}
}

// OutputFunction is the nonlinearity applied to the scaled logits and
// determines the exact form of the pushforward integral.
type OutputFunction int

const (
	// NormCDF pushes the Gaussian through the standard normal CDF.
	NormCDF OutputFunction = iota

	// Sigmoid pushes the Gaussian through the logistic sigmoid.
	Sigmoid

	// SigmoidProduct uses the sigmoid pushforward mean together with a
	// product-form second moment. Only defined for the logit link.
	SigmoidProduct
)

// ParseOutputFunction converts an output function name to an OutputFunction.
func ParseOutputFunction(name string) (OutputFunction, error) {
	switch name {
	case "normcdf":
		return NormCDF, nil
	case "sigmoid":
		return Sigmoid, nil
	case "sigmoid_product":
		return SigmoidProduct, nil
	default:
		return 0, fmt.Errorf("parseOutputFunction: invalid output "+
			"function %q", name)
	}
}

// String implements the fmt.Stringer interface
func (o OutputFunction) String() string {
	switch o {
	case NormCDF:
		return "normcdf"
	case Sigmoid:
		return "sigmoid"
	case SigmoidProduct:
		return "sigmoid_product"
	default:
		return fmt.Sprintf("OutputFunction(%d)", int(o))
	}
}
