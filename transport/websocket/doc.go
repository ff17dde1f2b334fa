// Package websocket provides WebSocket transport for the RoboTiles
// simulator.
//
// The websocket package implements:
//   - Real-time board state streaming
//   - Run-aware WebSocket connections
//   - Automatic state broadcasting on changes
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a dedicated
// pair of goroutines that manage reading, writing, and cleanup.
//
// Message Protocol:
//
// Outgoing messages are JSON-encoded Message values carrying the run ID,
// an event name ("state_update" after every mutation), and either a full
// service.BoardState snapshot or event data. Incoming client messages are
// ignored; the connection is a one-way state feed and mutations go through
// the REST API.
//
// Run Integration:
//
// Clients specify the run they want to watch via query parameter
// (?runId=ab12) when establishing the connection. State updates are
// broadcast only to clients watching the same run.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run()
//
//	// After a mutation:
//	hub.BroadcastToRun(runID, state)
//
// Concurrency:
//
// All hub bookkeeping happens on the Run goroutine; registration,
// unregistration, and broadcasts arrive over channels, so multiple clients
// can connect, disconnect, and receive updates simultaneously without
// locking.
package websocket
