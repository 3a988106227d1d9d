package probit

import (
	"fmt"
	"hash"
	"math"

	"github.com/bmucsanyi/probit/special"
	"github.com/chewxy/hm"
	"github.com/chewxy/math32"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NdtrOp is the element-wise standard normal CDF operation
type NdtrOp struct{}

func NewNdtrOp() G.Op {
	return &NdtrOp{}
}

func (n *NdtrOp) Arity() int {
	return 1
}

func (n *NdtrOp) Type() hm.Type {
	// All pointwise unary operations have this type:
	// op :: (Arithable a) => a -> a
	a := hm.TypeVariable('a')
	return hm.NewFnType(a, a)
}

func (n *NdtrOp) Do(values ...G.Value) (G.Value, error) {
	err := checkUnaryInputs(n, values...)
	if err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	// Compute ndtr based on type, overwriting the input
	return computeUnary(values[0], special.Ndtr)
}

func (n *NdtrOp) ReturnsPtr() bool { return true }

func (n *NdtrOp) CallsExtern() bool { return false }

func (n *NdtrOp) OverwritesInput() int { return 0 }

// String returns the string representation of the struct
func (n *NdtrOp) String() string {
	return "Ndtr"
}

// InferShape returns the output shape as a function of the inputs
func (n *NdtrOp) InferShape(inputs ...G.DimSizer) (tensor.Shape, error) {
	err := CheckArity(n, len(inputs))
	if err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}
	if inputs[0] == nil {
		return nil, fmt.Errorf("inferShape: nil input")
	}

	return inputs[0].(tensor.Shape), nil
}

// WriteHash writes the hash of the receiver to a hash struct
func (n *NdtrOp) WriteHash(h hash.Hash) { fmt.Fprintf(h, "Ndtr()") }

// Hashcode returns the hash code of the receiver
func (n *NdtrOp) Hashcode() uint32 { return SimpleHash(n) }

func (n *NdtrOp) SymDiff(inputs G.Nodes, output,
	grad *G.Node) (G.Nodes, error) {
	err := CheckArity(n, len(inputs))
	if err != nil {
		return nil, fmt.Errorf("symDiff: %v", err)
	}

	diffOp := &NdtrDiffOp{}
	nodes := make(G.Nodes, 1)

	nodes[0], err = G.ApplyOp(diffOp, inputs[0], grad)

	return nodes, err
}

func (n *NdtrOp) DiffWRT(inputs int) []bool {
	if inputs != 1 {
		panic(fmt.Sprintf("ndtr operator only supports one input, got %d "+
			"instead", inputs))
	}
	return []bool{true}
}

// NdtrDiffOp is the gradient of NdtrOp: the incoming gradient scaled by the
// standard normal density φ(x).
type NdtrDiffOp struct{}

func (n *NdtrDiffOp) Arity() int { return 2 }

func (n *NdtrDiffOp) ReturnsPtr() bool { return true }

func (n *NdtrDiffOp) CallsExtern() bool { return false }

func (n *NdtrDiffOp) WriteHash(h hash.Hash) { fmt.Fprint(h, n.String()) }

func (n *NdtrDiffOp) Hashcode() uint32 { return SimpleHash(n) }

func (n *NdtrDiffOp) String() string { return "NdtrDiff()" }

func (n *NdtrDiffOp) InferShape(inputs ...G.DimSizer) (tensor.Shape, error) {
	err := CheckArity(n, len(inputs))
	if err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}
	if inputs[0] == nil {
		return nil, fmt.Errorf("inferShape: nil input")
	}

	return inputs[0].(tensor.Shape), nil
}

func (n *NdtrDiffOp) Type() hm.Type {
	// Pointwise binary (value, gradient) operations have this type:
	// op :: (Arithable a) => a -> a -> a
	a := hm.TypeVariable('a')
	return hm.NewFnType(a, a, a)
}

func (n *NdtrDiffOp) OverwritesInput() int { return -1 }

func (n *NdtrDiffOp) Do(inputs ...G.Value) (G.Value, error) {
	return diffKernel(n, func(x, grad float64) float64 {
		return grad * special.Pdf(x)
	}, func(x, grad float32) float32 {
		return grad * float32(1/math.Sqrt(2*math.Pi)) *
			math32.Exp(-0.5*x*x)
	}, inputs...)
}

// LogNdtrOp is the element-wise log of the standard normal CDF, stable deep
// into the lower tail.
type LogNdtrOp struct{}

func NewLogNdtrOp() G.Op {
	return &LogNdtrOp{}
}

func (l *LogNdtrOp) Arity() int {
	return 1
}

func (l *LogNdtrOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	return hm.NewFnType(a, a)
}

func (l *LogNdtrOp) Do(values ...G.Value) (G.Value, error) {
	err := checkUnaryInputs(l, values...)
	if err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	return computeUnary(values[0], special.LogNdtr)
}

func (l *LogNdtrOp) ReturnsPtr() bool { return true }

func (l *LogNdtrOp) CallsExtern() bool { return false }

func (l *LogNdtrOp) OverwritesInput() int { return 0 }

func (l *LogNdtrOp) String() string {
	return "LogNdtr"
}

func (l *LogNdtrOp) InferShape(inputs ...G.DimSizer) (tensor.Shape, error) {
	err := CheckArity(l, len(inputs))
	if err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}
	if inputs[0] == nil {
		return nil, fmt.Errorf("inferShape: nil input")
	}

	return inputs[0].(tensor.Shape), nil
}

func (l *LogNdtrOp) WriteHash(h hash.Hash) { fmt.Fprintf(h, "LogNdtr()") }

func (l *LogNdtrOp) Hashcode() uint32 { return SimpleHash(l) }

func (l *LogNdtrOp) SymDiff(inputs G.Nodes, output,
	grad *G.Node) (G.Nodes, error) {
	err := CheckArity(l, len(inputs))
	if err != nil {
		return nil, fmt.Errorf("symDiff: %v", err)
	}

	diffOp := &LogNdtrDiffOp{}
	nodes := make(G.Nodes, 1)

	nodes[0], err = G.ApplyOp(diffOp, inputs[0], grad)

	return nodes, err
}

func (l *LogNdtrOp) DiffWRT(inputs int) []bool {
	if inputs != 1 {
		panic(fmt.Sprintf("logNdtr operator only supports one input, got "+
			"%d instead", inputs))
	}
	return []bool{true}
}

// LogNdtrDiffOp is the gradient of LogNdtrOp: the incoming gradient scaled
// by the hazard ratio φ(x)/Φ(x), computed in log space so the lower tail
// does not overflow.
type LogNdtrDiffOp struct{}

func (l *LogNdtrDiffOp) Arity() int { return 2 }

func (l *LogNdtrDiffOp) ReturnsPtr() bool { return true }

func (l *LogNdtrDiffOp) CallsExtern() bool { return false }

func (l *LogNdtrDiffOp) WriteHash(h hash.Hash) { fmt.Fprint(h, l.String()) }

func (l *LogNdtrDiffOp) Hashcode() uint32 { return SimpleHash(l) }

func (l *LogNdtrDiffOp) String() string { return "LogNdtrDiff()" }

func (l *LogNdtrDiffOp) InferShape(inputs ...G.DimSizer) (tensor.Shape,
	error) {
	err := CheckArity(l, len(inputs))
	if err != nil {
		return nil, fmt.Errorf("inferShape: %v", err)
	}
	if inputs[0] == nil {
		return nil, fmt.Errorf("inferShape: nil input")
	}

	return inputs[0].(tensor.Shape), nil
}

func (l *LogNdtrDiffOp) Type() hm.Type {
	a := hm.TypeVariable('a')
	return hm.NewFnType(a, a, a)
}

func (l *LogNdtrDiffOp) OverwritesInput() int { return -1 }

func (l *LogNdtrDiffOp) Do(inputs ...G.Value) (G.Value, error) {
	hazard := func(x float64) float64 {
		return math.Exp(special.LogProb(x) - special.LogNdtr(x))
	}

	return diffKernel(l, func(x, grad float64) float64 {
		return grad * hazard(x)
	}, func(x, grad float32) float32 {
		return grad * float32(hazard(float64(x)))
	}, inputs...)
}

// checkUnaryInputs returns an error if the input to a pointwise unary Op is
// invalid
func checkUnaryInputs(op G.Op, inputs ...G.Value) error {
	if err := CheckArity(op, len(inputs)); err != nil {
		return err
	}

	if inputs[0] == nil {
		return fmt.Errorf("no input")
	}

	_, okF64 := inputs[0].(*G.F64)
	_, okF32 := inputs[0].(*G.F32)
	_, okTensor := inputs[0].(tensor.Tensor)

	if !(okF64 || okF32 || okTensor) {
		return fmt.Errorf("expected input to be a tensor, got %T", inputs[0])
	}

	return nil
}

// computeUnary applies f element-wise to a value, overwriting the input.
func computeUnary(value G.Value, f func(float64) float64) (G.Value, error) {
	switch v := value.(type) {
	case *G.F64:
		*v = *G.NewF64(f(float64(*v)))
		return v, nil

	case *G.F32:
		val := float32(f(float64(*v)))
		*v = *G.NewF32(val)
		return v, nil

	case tensor.Tensor:
		if len(v.Shape()) == 0 {
			return nil, fmt.Errorf("do: cannot compute on empty tensor")
		}

		iter := v.Iterator()
		_, err := iter.Start()
		if err != nil {
			return nil, fmt.Errorf("do: could not start iterator on tensor")
		}

		// Go through each element of the tensor and transform it in place
		for !iter.Done() {
			coords := iter.Coord()

			err := applyTensorAt(v, coords, f)
			if err != nil {
				return nil, fmt.Errorf("do: %v", err)
			}

			_, _, err = iter.NextValid()
			if err != nil {
				return nil, fmt.Errorf("do: could not step iterator")
			}
		}
		// Transform the last element of the tensor
		coords := iter.Coord()
		applyTensorAt(v, coords, f)

	default:
		return nil, fmt.Errorf("do: unable to compute on type %T", v)
	}

	return value, nil
}

// applyTensorAt transforms in-place the element of tensor v at coords
func applyTensorAt(v tensor.Tensor, coords []int,
	f func(float64) float64) error {
	val, err := v.At(coords...)
	if err != nil {
		return fmt.Errorf("applyTensorAt: could not access element "+
			"at %v", coords)
	}

	if v.Dtype() == tensor.Float64 {
		val = f(val.(float64))
	} else if v.Dtype() == tensor.Float32 {
		val = float32(f(float64(val.(float32))))
	}

	err = v.SetAt(val, coords...)
	if err != nil {
		return fmt.Errorf("applyTensorAt: could not set element "+
			"at %v", coords)
	}
	return nil
}

// diffKernel runs a two-input (value, gradient) element-wise kernel for a
// DiffOp in the appropriate floating point type.
func diffKernel(op G.Op, f64 func(x, grad float64) float64,
	f32 func(x, grad float32) float32, inputs ...G.Value) (G.Value, error) {
	if err := CheckArity(op, len(inputs)); err != nil {
		return nil, fmt.Errorf("do: %v", err)
	}

	x, okX := inputs[0].(tensor.Tensor)
	grad, okGrad := inputs[1].(tensor.Tensor)
	if !okX || !okGrad {
		return nil, fmt.Errorf("do: expected input to be a tensor, "+
			"got %T", inputs[0])
	}

	ret := tensor.New(
		tensor.WithShape(x.Shape().Clone()...),
		tensor.Of(x.Dtype()),
	)

	switch x.Dtype() {
	case tensor.Float64:
		xData := x.Data().([]float64)
		gradData := grad.Data().([]float64)
		for i, elem := range xData {
			ret.Set(i, f64(elem, gradData[i]))
		}

	case tensor.Float32:
		xData := x.Data().([]float32)
		gradData := grad.Data().([]float32)
		for i, elem := range xData {
			ret.Set(i, f32(elem, gradData[i]))
		}

	default:
		return nil, fmt.Errorf("do: dtype %v unsupported", x.Dtype())
	}

	return ret, nil
}
