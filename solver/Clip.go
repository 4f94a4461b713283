package solver

import (
	"fmt"
	"math"

	G "gorgonia.org/gorgonia"
)

// ClipGlobalNorm rescales the gradients of model in place so that the
// L2 norm over all gradients combined is at most maxNorm. Gradients
// are left untouched when their global norm is already within bounds.
//
// Gorgonia's solvers only offer per-value clipping, so joint clipping
// across a network's parameters is done here, between the backward
// pass and the solver step.
func ClipGlobalNorm(model []G.ValueGrad, maxNorm float64) error {
	if maxNorm <= 0 {
		return fmt.Errorf("clipglobalnorm: max norm must be > 0 but got %v",
			maxNorm)
	}

	var sumSquares float64
	grads := make([][]float64, 0, len(model))
	for _, vg := range model {
		grad, err := vg.Grad()
		if err != nil {
			return fmt.Errorf("clipglobalnorm: could not get gradient: %v",
				err)
		}

		data, ok := grad.Data().([]float64)
		if !ok {
			return fmt.Errorf("clipglobalnorm: expected []float64 "+
				"gradients but got %T", grad.Data())
		}

		for _, g := range data {
			sumSquares += g * g
		}
		grads = append(grads, data)
	}

	norm := math.Sqrt(sumSquares)
	if norm <= maxNorm {
		return nil
	}

	scale := maxNorm / norm
	for _, data := range grads {
		for i := range data {
			data[i] *= scale
		}
	}
	return nil
}
