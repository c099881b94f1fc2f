// Package cli provides the shared plumbing for the sentient command-line
// tool: context-based configuration (similar to kubectl), directory
// layout under ~/.sentient, output formatting, and styled terminal
// rendering of recall results.
package cli
