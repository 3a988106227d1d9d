package probit

import (
	"fmt"

	"gorgonia.org/tensor"
)

// Sample pairs one or more uint8-valued input views of an example with an
// integer class label. Multiple views arise from multi-crop augmentation,
// where each example contributes several transformed copies.
type Sample struct {
	Inputs []*tensor.Dense
	Target int64
}

// Collate stacks a batch of samples into one uint8 input tensor of shape
// (batch*views, sample shape...) and an int64 target tensor of matching
// order.
//
// With a single view per sample the rows simply follow input order. With
// multiple views the batch is deinterleaved so that view j of example i
// lands at row i + j*batch: splitting the result into view-count chunks
// then yields one full batch per view position.
func Collate(batch []Sample) (*tensor.Dense, *tensor.Dense, error) {
	if len(batch) == 0 {
		return nil, nil, fmt.Errorf("collate: empty batch")
	}

	views := len(batch[0].Inputs)
	if views == 0 {
		return nil, nil, fmt.Errorf("collate: sample 0 has no inputs")
	}

	first := batch[0].Inputs[0]
	if first == nil {
		return nil, nil, fmt.Errorf("collate: nil input tensor at "+
			"sample 0 view 0")
	}
	if first.Dtype() != tensor.Uint8 {
		return nil, nil, fmt.Errorf("collate: expected dtype %v but "+
			"got %v", tensor.Uint8, first.Dtype())
	}

	sampleShape := first.Shape()
	sampleSize := sampleShape.TotalSize()
	batchSize := len(batch)

	inputs := make([]uint8, batchSize*views*sampleSize)
	targets := make([]int64, batchSize*views)

	for i, sample := range batch {
		if len(sample.Inputs) != views {
			return nil, nil, fmt.Errorf("collate: all samples must have "+
				"the same number of input views, sample 0 has %v but "+
				"sample %v has %v", views, i, len(sample.Inputs))
		}

		for j, in := range sample.Inputs {
			if in == nil {
				return nil, nil, fmt.Errorf("collate: nil input tensor "+
					"at sample %v view %v", i, j)
			}
			if in.Dtype() != tensor.Uint8 {
				return nil, nil, fmt.Errorf("collate: expected dtype %v "+
					"at sample %v view %v but got %v", tensor.Uint8, i, j,
					in.Dtype())
			}
			if !in.Shape().Eq(sampleShape) {
				return nil, nil, fmt.Errorf("collate: expected shape %v "+
					"at sample %v view %v but got %v", sampleShape, i, j,
					in.Shape())
			}

			row := i + j*batchSize
			copy(inputs[row*sampleSize:(row+1)*sampleSize],
				in.Data().([]uint8))
			targets[row] = sample.Target
		}
	}

	inputT := tensor.New(
		tensor.WithShape(append([]int{batchSize * views},
			sampleShape...)...),
		tensor.WithBacking(inputs),
	)
	targetT := tensor.New(
		tensor.WithShape(batchSize*views),
		tensor.WithBacking(targets),
	)

	return inputT, targetT, nil
}
