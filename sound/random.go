package sound

// javaRandom reproduces the 48-bit linear congruential generator of
// java.util.Random, so tables seeded from it match the ones stores were
// authored against.
type javaRandom struct {
	seed uint64
}

const (
	randMultiplier = 0x5DEECE66D
	randAddend     = 0xB
	randMask       = 1<<48 - 1
)

func newJavaRandom(seed int64) *javaRandom {
	return &javaRandom{seed: (uint64(seed) ^ randMultiplier) & randMask} //nolint:gosec // seed bits are scrambled, sign is irrelevant
}

func (r *javaRandom) next(bits uint) int32 {
	r.seed = (r.seed*randMultiplier + randAddend) & randMask
	return int32(r.seed >> (48 - bits)) //nolint:gosec // truncation matches the reference generator
}

// nextInt returns the next 32 random bits as a signed integer.
func (r *javaRandom) nextInt() int32 {
	return r.next(32)
}
