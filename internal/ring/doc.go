// Package ring implements arithmetic in R_q = Z_q[X]/(X²⁵⁶+1) with q = 3329.
//
// Coefficients are stored as uint16 values in canonical range [0, q).
// Reductions use Barrett quotient estimates and sign-bit masks, so no
// operation branches on a coefficient value and every intermediate product
// stays below 2q² < 2³². Inputs outside the canonical range are not checked
// here; the encoding layer rejects or reduces them before they arrive.
package ring
