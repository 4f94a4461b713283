// Package skips implements the catalog of action-repeat durations that
// an agent may choose between. A skip is the number of consecutive
// environmental frames that a single chosen action is held for before
// the agent selects again.
package skips

import (
	"fmt"
)

// durations is the fixed ordered list that catalogs are drawn from.
// A catalog of size N uses the first N entries.
var durations [5]int = [5]int{1, 2, 4, 8, 16}

// MaxOptions is the largest number of repeat durations a Catalog can
// hold.
const MaxOptions int = len(durations)

// Catalog is a fixed, ordered list of allowed action-repeat durations.
// Indices into the Catalog form the action space of whichever component
// selects durations, and are what gets recorded alongside transitions.
// A Catalog is immutable after construction.
type Catalog struct {
	values []int
}

// New returns a Catalog holding the first n repeat durations of
// {1, 2, 4, 8, 16}.
func New(n int) (*Catalog, error) {
	if n < 1 || n > MaxOptions {
		return nil, fmt.Errorf("new: number of durations must be in [1, %v] "+
			"but got %v", MaxOptions, n)
	}

	values := make([]int, n)
	copy(values, durations[:n])
	return &Catalog{values}, nil
}

// Len returns the number of durations in the Catalog.
func (c *Catalog) Len() int {
	return len(c.values)
}

// Value returns the repeat duration at index i. Value panics if i is
// out of range, since indices originate from selectors whose action
// spaces are sized by the Catalog itself.
func (c *Catalog) Value(i int) int {
	if i < 0 || i >= len(c.values) {
		panic(fmt.Sprintf("value: index %v out of range [0, %v)", i,
			len(c.values)))
	}
	return c.values[i]
}

// Index returns the catalog index of the repeat duration value. The
// lookup is total: a value not in the Catalog results in an error, so
// that a malformed duration can never be recorded silently.
func (c *Catalog) Index(value int) (int, error) {
	for i, v := range c.values {
		if v == value {
			return i, nil
		}
	}
	return -1, fmt.Errorf("index: no duration %v in catalog %v", value,
		c.values)
}

// Values returns a copy of the durations in the Catalog in order.
func (c *Catalog) Values() []int {
	values := make([]int, len(c.values))
	copy(values, c.values)
	return values
}

// String implements the fmt.Stringer interface
func (c *Catalog) String() string {
	return fmt.Sprintf("Skips%v", c.values)
}
