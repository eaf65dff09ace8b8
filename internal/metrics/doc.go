// Package metrics provides Prometheus instrumentation for dataset I/O:
// handle opens, read outcomes, writes, cell switches, batch skips, and read
// latency. Collectors use a private registry so embedding applications can
// mount the handler without global-registry collisions.
package metrics
