package checkpointer

import ts "github.com/samuelfneumann/goskip/timestep"

// nStep implements checkpointing every n environmental frames
type nStep struct {
	interval int
	elapsed  int
	object   Serializable // Object to save

	// filename returns the string filename of the file to save the
	// object in.
	//
	// If each serialized object should be saved in a separate file
	// with each file having an incremented number as a suffix (e.g.
	// file1.bin, file2.bin, ..., fileK.bin), use the function
	// FilenameEnumerator, which will return a function that will
	// enumerate filenames.
	//
	// Otherwise, if each serialized object should be saved in a
	// separate file, but the filename does not matter, use the
	// function FileTimer to generate the required naming function.
	// For example:
	//
	//	n := NewNStep(10, object, FileTimer("filename", ".bin"))
	filename func() string
}

// NewNStep returns a Checkpointer that checkpoints an object every n
// environmental frames. Frames are counted across episode boundaries,
// and environments which repeat an action over multiple frames count
// every executed frame, so checkpoints land on the first timestep at
// which at least n frames have elapsed since the last checkpoint.
func NewNStep(n int, object Serializable,
	filename func() string) Checkpointer {
	return &nStep{
		interval: n,
		object:   object,
		filename: filename,
	}
}

// Checkpoint checkpoints the Checkpointer's tracked object by calling
// its Save() method
func (n *nStep) Checkpoint(t ts.TimeStep) error {
	if t.First() {
		return nil
	}

	n.elapsed += t.Frames
	if n.elapsed < n.interval {
		return nil
	}
	n.elapsed = 0

	return n.object.Save(n.filename())
}
