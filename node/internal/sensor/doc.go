// Package sensor produces synthetic readings for the node's sensor channels.
//
// A Model owns a single *rand.Rand that is seeded once and advanced on every
// Sample call; nothing reseeds it during a run. Two generator modes exist:
// uniform draws over [min, max] and a bounded random walk that starts at the
// midpoint of the bounds. Either way every returned value lies inside the
// configured Bounds; a raw draw that escapes them is clamped and logged.
package sensor
