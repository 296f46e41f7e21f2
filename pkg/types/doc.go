// Package types defines the sensor value types shared by the node core and
// its sinks. These are the canonical in-memory representations of one
// sensor channel, one reading and one alert.
package types
