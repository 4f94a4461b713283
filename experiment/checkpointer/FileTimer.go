package checkpointer

import (
	"fmt"
	"time"
)

// FileTimer returns a function which will append to a filename the
// number of nanoseconds since January 1, 1970, so that consecutive
// checkpoints land in separate files without any bookkeeping.
func FileTimer(filename, extension string) func() string {
	return func() string {
		return fmt.Sprintf("%v-%v%v", filename, time.Now().UnixNano(),
			extension)
	}
}
