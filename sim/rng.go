package sim

import (
	"hash/fnv"
	"math"
	"strconv"
)

// Seed is a 128-bit deterministic seed for a Stream.
type Seed struct {
	Hi, Lo uint64
}

// NewSeed builds a 128-bit Seed from a single int64, for the common case of
// a user-supplied scalar seed (e.g. from a CLI --seed flag).
func NewSeed(seed int64) Seed {
	return Seed{Hi: 0, Lo: uint64(seed)}
}

// Stream is a seedable, counter-based deterministic stream over U(0,1).
// Every draw is a pure function of (seed, counter): two Streams built from
// the same Seed and advanced to the same counter produce bit-identical
// draws, on any platform, independent of call history. This is what lets a
// caller replay from an explicit index.
//
// Thread-safety: NOT thread-safe. Each worker/photon owns its own Stream.
type Stream struct {
	seed    Seed
	counter uint64
}

// NewStream builds a Stream at counter 0.
func NewStream(seed Seed) *Stream {
	return &Stream{seed: seed}
}

// Seed returns the Stream's seed.
func (s *Stream) Seed() Seed { return s.seed }

// Index returns the number of draws made so far (the replay index).
func (s *Stream) Index() uint64 { return s.counter }

// SetIndex jumps the stream to a given draw count, for replay.
func (s *Stream) SetIndex(i uint64) { s.counter = i }

// splitmix64 advances x one step and returns the mixed output. This is the
// well-known SplitMix64 finalizer: a pure function of its input, which is
// exactly what makes counter-based draws reproducible and order-invariant.
func splitmix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	z := x
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return z
}

// draw64 computes the counter-based raw 64-bit output for draw index i,
// combining both seed words so the full 128 bits of seed participate.
func (s *Stream) draw64(i uint64) uint64 {
	mixed := s.seed.Hi ^ splitmix64(s.seed.Lo+i)
	return splitmix64(mixed ^ (i * 0xD1B54A32D192ED03))
}

// Float64 draws the next uniform variate in [0, 1).
func (s *Stream) Float64() float64 {
	raw := s.draw64(s.counter)
	s.counter++
	// 53 significant bits, matching float64 mantissa precision.
	return float64(raw>>11) * (1.0 / (1 << 53))
}

// FloatOpen01 draws a uniform variate in (0, 1), suitable for -ln(U)/Sigma
// free-flight sampling where U=0 must be excluded.
func (s *Stream) FloatOpen01() float64 {
	u := s.Float64()
	for u <= 0 {
		u = s.Float64()
	}
	return u
}

// Azimuth draws a uniform angle in [0, 2*pi).
func (s *Stream) Azimuth() float64 {
	return s.Float64() * 2 * math.Pi
}

// Substream derives an independent, deterministic Stream for state index
// idx from a batch-level seed. The substream depends only on (batchSeed,
// idx), so it does not depend on which worker runs the state; the engine
// passes a state's position in the batch as idx, so moving a state to
// another position gives it a different substream.
func Substream(batchSeed Seed, idx uint64) *Stream {
	h := fnv.New64a()
	h.Write([]byte(strconv.FormatUint(batchSeed.Hi, 16)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatUint(batchSeed.Lo, 16)))
	h.Write([]byte{0})
	h.Write([]byte(strconv.FormatUint(idx, 16)))
	mix := h.Sum64()
	return NewStream(Seed{
		Hi: splitmix64(batchSeed.Hi ^ mix),
		Lo: splitmix64(batchSeed.Lo ^ idx ^ mix),
	})
}
