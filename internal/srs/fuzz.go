package srs

import (
	"encoding/binary"
	"hash/fnv"
	"io"
	"math"
)

// fuzzRange is the half-width of the interval spread: intervals are
// scaled by a factor in [1-fuzzRange, 1+fuzzRange] to keep a batch of
// cards scheduled at the same moment from all landing on the same day.
const fuzzRange = 0.05

// fuzzFactor derives a deterministic scale factor for the given interval.
// The hash input is the scheduler seed when configured, otherwise the
// card's identity, mixed with the pre-fuzz interval so successive reviews
// of one card do not repeat the same offset.
func (s *Scheduler) fuzzFactor(cardID string, interval float64) float64 {
	h := fnv.New64a()
	if s.seed != nil {
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], uint64(*s.seed))
		h.Write(buf[:])
	} else {
		io.WriteString(h, cardID)
	}
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(interval))
	h.Write(buf[:])

	// Map the hash onto [-fuzzRange, +fuzzRange].
	unit := float64(h.Sum64()%(1<<20)) / float64(1<<20-1)
	return 1 + (unit*2-1)*fuzzRange
}
