// Package pose derives a scene pose (position, scale and Euler rotation of the
// target object) deterministically from an integer index.
//
// Every call re-seeds a private xorshift128 generator from the index, so the
// result depends only on the index, the per-axis configuration and the
// sampling mode. Nothing is shared between calls and no global random state
// is consulted.
//
// Draw order:
//
//	position.x, position.y, position.z,
//	scale.x,    scale.y,    scale.z,
//	rotation.x, rotation.y, rotation.z
//
// Disabled axes keep the current value of the transform and consume no draws,
// which means enabling an axis shifts the draws of every later axis. Clients
// that record datasets must keep the axis configuration fixed.
//
// Sampling modes:
//
//   - Uniform: min + (max-min)*u with u in [0, 1). Values lie in [min, max).
//
//   - Gaussian: a single sine branch of the Box-Muller transform, rescaled to
//     the unit interval with z/2 + 0.5, clamped to [0, 1] and mapped onto
//     [min, max]. This is not a true normal distribution: values with |z| > 1
//     are clipped, so roughly a third of all values sit exactly on one of the
//     bounds.
//
// All arithmetic is carried out in float32 with explicit conversions between
// steps, so the produced bits do not depend on whether the target architecture
// fuses multiply-add instructions.
package pose
