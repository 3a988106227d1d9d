package probit

import (
	"fmt"
	"strings"

	"golang.org/x/exp/rand"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Predictive identifies a named predictive-distribution strategy.
type Predictive int

const (
	SoftmaxLaplaceBridgePredictive Predictive = iota
	SoftmaxMeanFieldPredictive
	SoftmaxMCPredictive
	LogitLinkNormCDFOutputPredictive
	LogitLinkSigmoidOutputPredictive
	LogitLinkSigmoidProductOutputPredictive
	LogitLinkMCPredictive
	ProbitLinkNormCDFOutputPredictive
	ProbitLinkSigmoidOutputPredictive
	ProbitLinkMCPredictive
)

// predictiveNames maps each Predictive to its configuration-string name.
// The table is built once at load time and never mutated.
var predictiveNames = map[Predictive]string{
	SoftmaxLaplaceBridgePredictive:          "softmax_laplace_bridge",
	SoftmaxMeanFieldPredictive:              "softmax_mean_field",
	SoftmaxMCPredictive:                     "softmax_mc",
	LogitLinkNormCDFOutputPredictive:        "logit_link_normcdf_output",
	LogitLinkSigmoidOutputPredictive:        "logit_link_sigmoid_output",
	LogitLinkSigmoidProductOutputPredictive: "logit_link_sigmoid_product_output",
	LogitLinkMCPredictive:                   "logit_link_mc",
	ProbitLinkNormCDFOutputPredictive:       "probit_link_normcdf_output",
	ProbitLinkSigmoidOutputPredictive:       "probit_link_sigmoid_output",
	ProbitLinkMCPredictive:                  "probit_link_mc",
}

// ParsePredictive converts a strategy name to a Predictive. Unknown names
// are a configuration error.
func ParsePredictive(name string) (Predictive, error) {
	for p, n := range predictiveNames {
		if n == name {
			return p, nil
		}
	}

	return 0, fmt.Errorf("parsePredictive: unknown predictive %q", name)
}

// String implements the fmt.Stringer interface
func (p Predictive) String() string {
	if name, ok := predictiveNames[p]; ok {
		return name
	}

	return fmt.Sprintf("Predictive(%d)", int(p))
}

// PredictiveFn maps per-class Gaussian logit statistics to class
// probabilities.
type PredictiveFn func(mean, variance *tensor.Dense) (*tensor.Dense, error)

// PredictiveConfig carries the strategy-specific parameters that the Python
// reference curried onto the dispatched function: the Monte-Carlo sample
// count, the Laplace bridge correction flag, and the sampling seed.
type PredictiveConfig struct {
	NumMCSamples  int
	UseCorrection bool
	Seed          uint64
}

// GetPredictive returns the configured predictive strategy as a closure
// with the uniform (mean, variance) signature. Monte-Carlo strategies
// capture a random source seeded once here, so repeated calls continue a
// single sample stream.
func GetPredictive(p Predictive, conf PredictiveConfig) (PredictiveFn,
	error) {
	switch p {
	case SoftmaxLaplaceBridgePredictive:
		useCorrection := conf.UseCorrection
		return func(mean, variance *tensor.Dense) (*tensor.Dense, error) {
			return SoftmaxLaplaceBridge(mean, variance, useCorrection)
		}, nil

	case SoftmaxMeanFieldPredictive:
		return SoftmaxMeanField, nil

	case SoftmaxMCPredictive:
		return mcClosure(p, conf, SoftmaxMC)

	case LogitLinkNormCDFOutputPredictive:
		return linkOutputClosure(Logit, NormCDF), nil

	case LogitLinkSigmoidOutputPredictive,
		LogitLinkSigmoidProductOutputPredictive:
		// The sigmoid-product strategy shares the plain sigmoid predictive;
		// it differs only in its Dirichlet approximation.
		return linkOutputClosure(Logit, Sigmoid), nil

	case LogitLinkMCPredictive:
		return mcClosure(p, conf, LogitLinkMC)

	case ProbitLinkNormCDFOutputPredictive:
		return linkOutputClosure(Probit, NormCDF), nil

	case ProbitLinkSigmoidOutputPredictive:
		return linkOutputClosure(Probit, Sigmoid), nil

	case ProbitLinkMCPredictive:
		return mcClosure(p, conf, ProbitLinkMC)

	default:
		return nil, fmt.Errorf("getPredictive: unknown predictive %v", p)
	}
}

func linkOutputClosure(link LinkFunction, output OutputFunction) PredictiveFn {
	return func(mean, variance *tensor.Dense) (*tensor.Dense, error) {
		return ProbitPredictive(mean, variance, link, output)
	}
}

func mcClosure(p Predictive, conf PredictiveConfig,
	strategy func(mean, variance *tensor.Dense, numMCSamples int,
		src rand.Source) (*tensor.Dense, error)) (PredictiveFn, error) {
	if conf.NumMCSamples <= 0 {
		return nil, fmt.Errorf("getPredictive: %v requires a positive "+
			"NumMCSamples but got %v", p, conf.NumMCSamples)
	}

	numMCSamples := conf.NumMCSamples
	src := rand.NewSource(conf.Seed)
	return func(mean, variance *tensor.Dense) (*tensor.Dense, error) {
		return strategy(mean, variance, numMCSamples, src)
	}, nil
}

// GetDirichlet returns the method-of-moments Dirichlet approximation
// matching the given link/output strategy. Strategies without a Dirichlet
// counterpart (softmax and Monte-Carlo variants) are a configuration error.
func GetDirichlet(p Predictive) (PredictiveFn, error) {
	var link LinkFunction
	var output OutputFunction

	switch p {
	case LogitLinkNormCDFOutputPredictive:
		link, output = Logit, NormCDF
	case LogitLinkSigmoidOutputPredictive:
		link, output = Logit, Sigmoid
	case LogitLinkSigmoidProductOutputPredictive:
		link, output = Logit, SigmoidProduct
	case ProbitLinkNormCDFOutputPredictive:
		link, output = Probit, NormCDF
	case ProbitLinkSigmoidOutputPredictive:
		link, output = Probit, Sigmoid
	default:
		return nil, fmt.Errorf("getDirichlet: no Dirichlet approximation "+
			"for predictive %v", p)
	}

	return func(mean, variance *tensor.Dense) (*tensor.Dense, error) {
		return MoMDirichlet(mean, variance, link, output)
	}, nil
}

// Likelihood identifies the discrete likelihood family matching a
// predictive strategy.
type Likelihood int

const (
	SoftmaxLikelihood Likelihood = iota
	NormCDFLikelihood
	SigmoidLikelihood
)

// String implements the fmt.Stringer interface
func (l Likelihood) String() string {
	switch l {
	case SoftmaxLikelihood:
		return "softmax"
	case NormCDFLikelihood:
		return "normcdf"
	case SigmoidLikelihood:
		return "sigmoid"
	default:
		return fmt.Sprintf("Likelihood(%d)", int(l))
	}
}

// Likelihood returns the discrete likelihood family matching the predictive
// strategy, routed on the strategy-name prefix. The Activation and
// LogActivation accessors route identically, which keeps all three mutually
// consistent: downstream loss computation depends on the activation
// matching the predictive used at inference time.
func (p Predictive) Likelihood() (Likelihood, error) {
	name, ok := predictiveNames[p]
	if !ok {
		return 0, fmt.Errorf("likelihood: unknown predictive %v", p)
	}

	switch {
	case strings.HasPrefix(name, "softmax"):
		return SoftmaxLikelihood, nil
	case strings.HasPrefix(name, "probit"):
		return NormCDFLikelihood, nil
	case strings.HasPrefix(name, "logit"):
		return SigmoidLikelihood, nil
	default:
		return 0, fmt.Errorf("likelihood: invalid predictive %v", p)
	}
}

// Activation is a graph-level activation function applied to logit nodes.
type Activation func(*G.Node) (*G.Node, error)

// Activation returns the graph-level activation matching the predictive
// strategy.
func (p Predictive) Activation() (Activation, error) {
	likelihood, err := p.Likelihood()
	if err != nil {
		return nil, fmt.Errorf("activation: %v", err)
	}

	switch likelihood {
	case SoftmaxLikelihood:
		return func(x *G.Node) (*G.Node, error) {
			return G.SoftMax(x, 1)
		}, nil
	case NormCDFLikelihood:
		return Ndtr, nil
	default:
		return G.Sigmoid, nil
	}
}

// LogActivation returns the graph-level log activation matching the
// predictive strategy.
func (p Predictive) LogActivation() (Activation, error) {
	likelihood, err := p.Likelihood()
	if err != nil {
		return nil, fmt.Errorf("logActivation: %v", err)
	}

	switch likelihood {
	case SoftmaxLikelihood:
		return LogSoftmax, nil
	case NormCDFLikelihood:
		return LogNdtr, nil
	default:
		return LogSigmoid, nil
	}
}
