// Package session provides run management for the RoboTiles simulator.
//
// The session package implements:
//   - Thread-safe run storage and retrieval
//   - Unique run ID generation
//   - Run lifecycle management
//   - JSON file persistence for runs
//   - Run cleanup and expiration
//
// Core Types:
//
// Manager is the main run manager that handles all run operations. It
// implements service.RunManager. RunPersistence abstracts durable storage;
// FilePersistence stores each run as a JSON file holding the serialized
// board source, the robot's position, and the run's program spec, so a run
// survives a restart with its obstacle edits intact.
//
// Run Identifiers:
//
// Runs use 4-character hex IDs for easy reference. The manager ensures IDs
// are unique and generates them with cryptographic randomness. Lookups are
// case-insensitive.
//
// Concurrency:
//
// The run manager is thread-safe and supports concurrent operations.
// Multiple goroutines can safely create, retrieve, and modify different
// runs simultaneously. Internal locking ensures data consistency.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions")
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//
//	// Restore runs from a previous process
//	if err := manager.LoadPersistedRuns(); err != nil {
//		log.Fatal(err)
//	}
//
// Cleanup:
//
// Runs can be explicitly deleted or expire based on inactivity. The manager
// provides CleanupExpiredRuns for removing stale in-memory runs; persisted
// files are kept so an expired run can still be reloaded by ID.
package session
