// Package alerts decides when a reading raises an alert.
//
// Evaluate is the stateless rule: a reading alerts iff its value is strictly
// greater than the threshold for its kind. Monitor wraps it with per-kind
// normal/alerting state so raise and clear transitions can be logged, and
// optionally suppresses repeat alerts while a kind stays above threshold.
package alerts
