package probit_test

import (
	"testing"

	"github.com/bmucsanyi/probit"
	"gorgonia.org/tensor"
)

func view(backing []uint8, shape ...int) *tensor.Dense {
	return tensor.New(
		tensor.WithShape(shape...),
		tensor.WithBacking(backing),
	)
}

func TestCollateSingleView(t *testing.T) {
	batch := []probit.Sample{
		{Inputs: []*tensor.Dense{view([]uint8{1, 2, 3, 4}, 2, 2)}, Target: 7},
		{Inputs: []*tensor.Dense{view([]uint8{5, 6, 7, 8}, 2, 2)}, Target: 3},
	}

	inputs, targets, err := probit.Collate(batch)
	if err != nil {
		t.Error(err)
	}

	if !inputs.Shape().Eq(tensor.Shape{2, 2, 2}) {
		t.Errorf("expected shape (2, 2, 2) but got %v", inputs.Shape())
	}

	expected := []uint8{1, 2, 3, 4, 5, 6, 7, 8}
	data := inputs.Data().([]uint8)
	for i := range expected {
		if data[i] != expected[i] {
			t.Errorf("expected: %v \nreceived: %v", expected, data)
		}
	}

	expectedTargets := []int64{7, 3}
	targetData := targets.Data().([]int64)
	for i := range expectedTargets {
		if targetData[i] != expectedTargets[i] {
			t.Errorf("expected: %v \nreceived: %v", expectedTargets,
				targetData)
		}
	}
}

func TestCollateMultiView(t *testing.T) {
	// Two examples with two views each: view j of example i must land at
	// row i + j*batch, so chunking the rows by batch recovers one full
	// batch per view position.
	batch := []probit.Sample{
		{
			Inputs: []*tensor.Dense{
				view([]uint8{10, 11}, 2),
				view([]uint8{20, 21}, 2),
			},
			Target: 0,
		},
		{
			Inputs: []*tensor.Dense{
				view([]uint8{30, 31}, 2),
				view([]uint8{40, 41}, 2),
			},
			Target: 1,
		},
	}

	inputs, targets, err := probit.Collate(batch)
	if err != nil {
		t.Error(err)
	}

	if !inputs.Shape().Eq(tensor.Shape{4, 2}) {
		t.Errorf("expected shape (4, 2) but got %v", inputs.Shape())
	}

	expected := []uint8{10, 11, 30, 31, 20, 21, 40, 41}
	data := inputs.Data().([]uint8)
	for i := range expected {
		if data[i] != expected[i] {
			t.Errorf("expected: %v \nreceived: %v", expected, data)
		}
	}

	expectedTargets := []int64{0, 1, 0, 1}
	targetData := targets.Data().([]int64)
	for i := range expectedTargets {
		if targetData[i] != expectedTargets[i] {
			t.Errorf("expected: %v \nreceived: %v", expectedTargets,
				targetData)
		}
	}
}

func TestCollateErrors(t *testing.T) {
	if _, _, err := probit.Collate(nil); err == nil {
		t.Error("accepted an empty batch")
	}

	if _, _, err := probit.Collate([]probit.Sample{{}}); err == nil {
		t.Error("accepted a sample without inputs")
	}

	// Mismatched view counts
	_, _, err := probit.Collate([]probit.Sample{
		{Inputs: []*tensor.Dense{view([]uint8{1}, 1)}},
		{Inputs: []*tensor.Dense{view([]uint8{1}, 1), view([]uint8{2}, 1)}},
	})
	if err == nil {
		t.Error("accepted samples with differing view counts")
	}

	// Mismatched shapes
	_, _, err = probit.Collate([]probit.Sample{
		{Inputs: []*tensor.Dense{view([]uint8{1, 2}, 2)}},
		{Inputs: []*tensor.Dense{view([]uint8{1, 2, 3}, 3)}},
	})
	if err == nil {
		t.Error("accepted samples with differing shapes")
	}

	// Wrong dtype
	float := tensor.New(
		tensor.WithShape(2),
		tensor.WithBacking([]float64{1, 2}),
	)
	_, _, err = probit.Collate([]probit.Sample{
		{Inputs: []*tensor.Dense{float}},
	})
	if err == nil {
		t.Error("accepted a non-uint8 input")
	}
}
