package probit_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/bmucsanyi/probit"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestNdtr_graph(t *testing.T) {
	const tolerance float64 = 0.0001
	const maxDims int = 5
	const minDims int = 2
	const maxDimSize int = 10

	shape := make([]int, minDims+rand.Intn(maxDims-minDims))
	for i := range shape {
		shape[i] = 1 + rand.Intn(maxDimSize-1) // Avoid dimension size 0
	}

	backing := make([]float64, tensor.ProdInts(shape))
	out := make([]float64, tensor.ProdInts(shape))
	grad := make([]float64, tensor.ProdInts(shape))
	for i := range backing {
		z := (rand.Float64() - 0.5) * 4.0
		backing[i] = z
		out[i] = distuv.UnitNormal.CDF(z)
		grad[i] = distuv.UnitNormal.Prob(z) / float64(tensor.ProdInts(shape))
	}

	g := G.NewGraph()
	inTensor := tensor.NewDense(
		tensor.Float64,
		shape,
		tensor.WithBacking(backing),
	)

	in := G.NewTensor(
		g,
		tensor.Float64,
		len(shape),
		G.WithValue(inTensor),
	)
	computedNode, err := probit.Ndtr(in)
	if err != nil {
		t.Error(err)
	}
	var computed G.Value
	G.Read(computedNode, &computed)

	// Ensure gradient can be computed
	mean := G.Must(G.Mean(computedNode))
	diff, err := G.Grad(mean, in)
	if err != nil {
		t.Error(err)
	}
	if len(diff) != 1 {
		t.Errorf("derivative should be a single node but got %v", len(diff))
	}
	var computedDiff G.Value
	G.Read(diff[0], &computedDiff)

	vm := G.NewTapeMachine(g)
	vm.RunAll()
	vm.Reset()

	// Check the output
	output := computed.Data().([]float64)
	for i := 0; i < len(out); i++ {
		if math.Abs(out[i]-output[i]) > tolerance {
			t.Errorf("incorrect value\nexpected: %v \nreceived:%v",
				out[i], output[i])
		}
	}

	// Check the gradient
	outGrad := computedDiff.Data().([]float64)
	for i := 0; i < len(out); i++ {
		if math.Abs(outGrad[i]-grad[i]) > tolerance {
			t.Errorf("incorrect gradient value\nexpected: %v \nreceived:%v",
				grad[i], outGrad[i])
		}
	}
}

func TestLogNdtr_graph(t *testing.T) {
	const tolerance float64 = 0.0001
	const maxDims int = 5
	const minDims int = 2
	const maxDimSize int = 10

	shape := make([]int, minDims+rand.Intn(maxDims-minDims))
	for i := range shape {
		shape[i] = 1 + rand.Intn(maxDimSize-1) // Avoid dimension size 0
	}

	backing := make([]float64, tensor.ProdInts(shape))
	out := make([]float64, tensor.ProdInts(shape))
	grad := make([]float64, tensor.ProdInts(shape))
	for i := range backing {
		z := (rand.Float64() - 0.5) * 4.0
		backing[i] = z
		out[i] = math.Log(distuv.UnitNormal.CDF(z))
		grad[i] = distuv.UnitNormal.Prob(z) / distuv.UnitNormal.CDF(z) /
			float64(tensor.ProdInts(shape))
	}

	g := G.NewGraph()
	inTensor := tensor.NewDense(
		tensor.Float64,
		shape,
		tensor.WithBacking(backing),
	)

	in := G.NewTensor(
		g,
		tensor.Float64,
		len(shape),
		G.WithValue(inTensor),
	)
	computedNode, err := probit.LogNdtr(in)
	if err != nil {
		t.Error(err)
	}
	var computed G.Value
	G.Read(computedNode, &computed)

	mean := G.Must(G.Mean(computedNode))
	diff, err := G.Grad(mean, in)
	if err != nil {
		t.Error(err)
	}
	if len(diff) != 1 {
		t.Errorf("derivative should be a single node but got %v", len(diff))
	}
	var computedDiff G.Value
	G.Read(diff[0], &computedDiff)

	vm := G.NewTapeMachine(g)
	vm.RunAll()
	vm.Reset()

	output := computed.Data().([]float64)
	for i := 0; i < len(out); i++ {
		if math.Abs(out[i]-output[i]) > tolerance {
			t.Errorf("incorrect value\nexpected: %v \nreceived:%v",
				out[i], output[i])
		}
	}

	outGrad := computedDiff.Data().([]float64)
	for i := 0; i < len(out); i++ {
		if math.Abs(outGrad[i]-grad[i]) > tolerance {
			t.Errorf("incorrect gradient value\nexpected: %v \nreceived:%v",
				grad[i], outGrad[i])
		}
	}
}

func TestNdtrOpDo(t *testing.T) {
	const tolerance float64 = 1e-12

	backing := []float64{-2.5, -1.0, 0.0, 0.5, 3.0}
	expected := make([]float64, len(backing))
	for i, z := range backing {
		expected[i] = distuv.UnitNormal.CDF(z)
	}

	in := tensor.New(
		tensor.WithShape(len(backing)),
		tensor.WithBacking(backing),
	)

	op := probit.NewNdtrOp()
	val, err := op.Do(in)
	if err != nil {
		t.Error(err)
	}

	data := val.Data().([]float64)
	for i := range expected {
		if math.Abs(data[i]-expected[i]) > tolerance {
			t.Errorf("expected: %v \nreceived: %v", expected[i], data[i])
		}
	}

	if _, err := op.Do(in, in); err == nil {
		t.Error("accepted two inputs")
	}
	if _, err := op.Do(); err == nil {
		t.Error("accepted no inputs")
	}
}

func TestLogNdtrOpDoTail(t *testing.T) {
	// The op must stay finite where a naive log(Ndtr(x)) underflows to
	// log(0)
	backing := []float64{-40, -30, -20}

	in := tensor.New(
		tensor.WithShape(len(backing)),
		tensor.WithBacking(backing),
	)

	val, err := probit.NewLogNdtrOp().Do(in)
	if err != nil {
		t.Error(err)
	}

	data := val.Data().([]float64)
	for i, x := range data {
		if math.IsInf(x, 0) || math.IsNaN(x) {
			t.Errorf("expected a finite value at index %v but got %v", i, x)
		}
		if i > 0 && data[i] <= data[i-1] {
			t.Errorf("expected log Ndtr to increase but got %v then %v",
				data[i-1], data[i])
		}
	}
}
