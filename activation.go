package probit

import (
	"fmt"

	G "gorgonia.org/gorgonia"
)

// Ndtr computes the element-wise standard normal CDF of a node
func Ndtr(x *G.Node) (*G.Node, error) {
	return G.ApplyOp(NewNdtrOp(), x)
}

// LogNdtr computes the element-wise log of the standard normal CDF of a
// node, stable in the lower tail.
func LogNdtr(x *G.Node) (*G.Node, error) {
	return G.ApplyOp(NewLogNdtrOp(), x)
}

// LogSigmoid computes the element-wise log of the logistic sigmoid as
// -softplus(-x), which never exponentiates a large positive argument.
func LogSigmoid(x *G.Node) (*G.Node, error) {
	neg, err := G.Neg(x)
	if err != nil {
		return nil, fmt.Errorf("logSigmoid: %v", err)
	}

	sp, err := G.Softplus(neg)
	if err != nil {
		return nil, fmt.Errorf("logSigmoid: %v", err)
	}

	return G.Neg(sp)
}

// LogSumExp calculates the log of the summation of exponentials of
// all logits along the given axis.
func LogSumExp(logits *G.Node, along int) *G.Node {
	max := G.Must(G.Max(logits, along))

	exponent := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))
	exponent = G.Must(G.Exp(exponent))

	sum := G.Must(G.Sum(exponent, along))
	log := G.Must(G.Log(sum))

	return G.Must(G.Add(max, log))
}

// LogSoftmax computes the row-wise log softmax of a matrix of logits.
func LogSoftmax(logits *G.Node) (*G.Node, error) {
	lse := LogSumExp(logits, 1)

	return G.BroadcastSub(logits, lse, nil, []byte{1})
}

// NormedSigmoid computes the renormalized sigmoid activation: the
// element-wise sigmoid of a matrix of logits divided by its row sums. This
// is the activation of the normalized-sigmoid categorical likelihood.
func NormedSigmoid(logits *G.Node) (*G.Node, error) {
	s, err := G.Sigmoid(logits)
	if err != nil {
		return nil, fmt.Errorf("normedSigmoid: %v", err)
	}

	sum, err := G.Sum(s, 1)
	if err != nil {
		return nil, fmt.Errorf("normedSigmoid: %v", err)
	}

	return G.BroadcastHadamardDiv(s, sum, nil, []byte{1})
}

// LogNormedSigmoid computes the log of the renormalized sigmoid activation
// as logsigmoid(x) - log Σ sigmoid(x).
func LogNormedSigmoid(logits *G.Node) (*G.Node, error) {
	ls, err := LogSigmoid(logits)
	if err != nil {
		return nil, fmt.Errorf("logNormedSigmoid: %v", err)
	}

	s, err := G.Sigmoid(logits)
	if err != nil {
		return nil, fmt.Errorf("logNormedSigmoid: %v", err)
	}

	sum, err := G.Sum(s, 1)
	if err != nil {
		return nil, fmt.Errorf("logNormedSigmoid: %v", err)
	}

	logSum, err := G.Log(sum)
	if err != nil {
		return nil, fmt.Errorf("logNormedSigmoid: %v", err)
	}

	return G.BroadcastSub(ls, logSum, nil, []byte{1})
}
