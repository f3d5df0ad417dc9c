// Package engine orchestrates games end to end. A Runner owns one game:
// it drives the phase machine, opens collection windows, runs the
// resolvers, and is the single writer of the game's event journal. The
// Registry tracks the live runners of a process.
package engine
