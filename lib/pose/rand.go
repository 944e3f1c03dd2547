package pose

// xorshift128 is the generator behind every draw. The state is expanded from
// the 32 bit seed with the same multiplier the engine uses, so a seed never
// produces the all-zero state.
type xorshift128 struct {
	x, y, z, w uint32
}

const seedMultiplier uint32 = 1812433253

// newXorshift128 seeds a new generator from the given index
func newXorshift128(seed int32) *xorshift128 {
	r := &xorshift128{x: uint32(seed)}
	r.y = r.x*seedMultiplier + 1
	r.z = r.y*seedMultiplier + 1
	r.w = r.z*seedMultiplier + 1
	return r
}

// next advances the generator and returns the next 32 bit output
func (r *xorshift128) next() uint32 {
	t := r.x ^ (r.x << 11)
	r.x, r.y, r.z = r.y, r.z, r.w
	r.w = r.w ^ (r.w >> 19) ^ t ^ (t >> 8)
	return r.w
}

// value returns a float32 in [0, 1). Only the upper 24 bits are used so the
// conversion to float32 is exact.
func (r *xorshift128) value() float32 {
	return float32(r.next()>>8) / (1 << 24)
}
