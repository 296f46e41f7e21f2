// Package config loads, validates, edits and saves the node's config file.
//
// The file may be TOML (the format the node has always shipped with) or
// YAML; the decoder is chosen by extension. Missing fields take the values
// from defaults(). Config.Settings resolves the file into the read-only
// pipeline.Settings a run uses. Watch reports edits made while a run is in
// progress; they take effect on the next run.
package config
