// Package constants defines shared default values used across lens.
package constants

import "time"

const (
	// DefaultAPIPort is the default port for the HTTP API server
	DefaultAPIPort = 8391

	// DefaultAPIHost is the default host for the HTTP API server
	DefaultAPIHost = "127.0.0.1"

	// MaxLinesPerRun caps how many source lines a pipeline stage processes
	// in a single scheduler tick. Bounds lock hold times, not inflow.
	MaxLinesPerRun = 10000

	// DefaultListenerMaxWait is the default maximum latency before a
	// coalesced read notification is delivered to a listener
	DefaultListenerMaxWait = 250 * time.Millisecond

	// DefaultListenerBatchSize is the default number of pending lines at
	// which a coalesced read notification is delivered without waiting
	DefaultListenerBatchSize = 1000

	// DefaultPollInterval is how often the file source checks for changes
	DefaultPollInterval = 500 * time.Millisecond

	// MaxPatternLength is the maximum allowed length for filter patterns
	// to prevent potential DoS from excessively complex patterns
	MaxPatternLength = 256

	// DefaultStreamBuffer is the channel depth for SSE subscribers
	DefaultStreamBuffer = 100
)
