// Package main is the entry point for the sentient CLI, a terminal
// front-end for the tiered memory engine.
//
// Usage:
//
//	sentient [flags] <command> [args]
//
// Commands:
//
//	store        - Record a conversational exchange
//	recall       - Semantic search over remembered exchanges
//	context      - Show the working tier (recent exchanges)
//	clear        - Clear the working tier
//	core         - Manage durable core facts (set, get, delete, list)
//	consolidate  - Run the read-only consolidation sweep
//	stats        - Show per-tier counts and cache state
//	snapshot     - Export/import the durable tiers
//	config       - Manage contexts (credentials, data directory)
package main

import (
	"fmt"
	"os"

	"github.com/thotsl4yer69/sentient-core/cmd/sentient/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
