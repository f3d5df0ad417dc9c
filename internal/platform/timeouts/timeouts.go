// Package timeouts defines shared timeout constants used across the engine.
// Centralizing these values prevents drift between components and makes the
// durations discoverable.
package timeouts

import "time"

// AgentDecision caps the wait time for a single agent decision request.
const AgentDecision = 30 * time.Second

// PhaseWindow caps how long an action window stays open before every
// outstanding obligation is resolved by default substitution.
const PhaseWindow = 2 * time.Minute

// BroadcastSend caps the time spent delivering one event to one subscriber
// before that subscriber is skipped.
const BroadcastSend = 1 * time.Second

// Shutdown limits how long the engine waits for in-flight games during
// graceful shutdown.
const Shutdown = 5 * time.Second
