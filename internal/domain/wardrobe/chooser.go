package wardrobe

import (
	"math/rand/v2"
	"time"
)

// Chooser draws uniformly from candidate lists.
type Chooser interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
}

type randChooser struct {
	rng *rand.Rand
}

// NewChooser returns a PCG backed chooser. A zero seed draws a fresh one.
func NewChooser(seed uint64) Chooser {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &randChooser{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (c *randChooser) IntN(n int) int {
	return c.rng.IntN(n)
}

func pick(c Chooser, items []string) string {
	return items[c.IntN(len(items))]
}
