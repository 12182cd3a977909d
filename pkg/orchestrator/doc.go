// Package orchestrator coordinates the block lifecycle: binding stored
// values, rendering forms through pluggable renderers, cleaning submissions,
// and preparing values for storage.
package orchestrator
