// Package schedule turns per-sensor sampling intervals into one ordered
// stream of ticks.
//
// Kind K is due at 0, interval_K, 2*interval_K, ... measured from run start.
// Ticks come out in non-decreasing offset order; kinds due at the same
// offset come out in enumeration order. A bounded run includes a tick whose
// offset equals the run duration. Wait is the only place the run suspends.
package schedule
