package skipq

import (
	"encoding/gob"
	"fmt"
	"os"
)

// checkpoint holds the learned weights of both learners. Weights are
// stored as the flattened backing data of each learnable, in the order
// the networks declare their learnables.
type checkpoint struct {
	Policy [][]float64
	Bandit [][]float64
}

// Save writes the current weights of the action-value learner and the
// repeat-duration learner to the file at filename, gob-encoded. Save
// makes a SkipQ usable with an experiment/checkpointer.Checkpointer.
func (d *SkipQ) Save(filename string) error {
	var check checkpoint
	for _, learnable := range d.qTrain.Learnables() {
		weights := learnable.Value().Data().([]float64)
		check.Policy = append(check.Policy,
			append([]float64(nil), weights...))
	}
	for _, learnable := range d.skipTrain.Learnables() {
		weights := learnable.Value().Data().([]float64)
		check.Bandit = append(check.Bandit,
			append([]float64(nil), weights...))
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("save: could not create file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err := en.Encode(check); err != nil {
		return fmt.Errorf("save: could not encode weights: %v", err)
	}

	return nil
}
