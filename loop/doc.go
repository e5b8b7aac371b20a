// Package loop provides loop representation and detection for ir functions.
//
// Loops are natural loops: a back edge is an edge b → h where h dominates b,
// and the loop of header h is h plus every block that reaches one of its back
// edge sources without passing through h. Loops sharing a header are merged.
// The loops of a function form a nest, which is walked innermost first.
//
// Induction variables are recognised at the header as phis with two incoming
// values, an initial value from outside the loop and an increment (or
// decrement) by a constant step arriving along the back edge.
package loop
