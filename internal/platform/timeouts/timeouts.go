// Package timeouts defines shared timeout constants used across commands.
// Centralizing these values prevents drift between the client and server
// sides of the grade-system feed and makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// RemoteRequest caps a single grade-system write or delete against the
// remote feed. Local writes never wait on it.
const RemoteRequest = 5 * time.Second

// FeedHandshake caps the WebSocket upgrade when subscribing to the feed.
const FeedHandshake = 5 * time.Second

// FeedPing is how often the feed server pings idle subscribers.
const FeedPing = 30 * time.Second

// FeedReconnectMax caps the backoff between feed reconnect attempts.
const FeedReconnectMax = 30 * time.Second
