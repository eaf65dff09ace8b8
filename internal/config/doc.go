// Package config holds the YAML-backed configuration for gridstore
// datasets: the naming template, cell layout, and monitoring settings.
// Values load from a file, can be overlaid with GRIDSTORE_* environment
// variables, and convert into the runtime types consumed by pkg/naming and
// pkg/gridded.
package config
