// Package service provides the business logic layer for the RoboTiles
// simulator.
//
// The service package implements:
//   - Multi-run simulation management
//   - Board library access and validation
//   - Robot stepping, bulk stepping, and manual commands
//   - Program (oracle) loading, replacement, and hot reload
//   - Obstacle editing on live runs
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level simulation
// operations. RunManager handles run creation, retrieval, and lifecycle.
// BoardLibrary loads named boards from disk and stores edited ones.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the board package, providing run isolation, board management, and business
// logic orchestration. Each run maintains its own board instance with
// independent robot state and an independent robot program.
//
// Usage:
//
//	runMgr := session.NewManager(persistence)
//	boardLib := library.NewManager("boards")
//	gameService := service.NewGameService(runMgr, boardLib)
//
//	// Create a new run
//	info, err := gameService.CreateRun(ctx, "classic", "wallfollower")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Advance the simulation
//	result, err := gameService.Step(ctx, info.ID)
//
// Run Management:
//
// Runs are identified by unique 4-character IDs and maintain independent
// board state. Multiple runs can execute concurrently on different boards
// with different robot programs. Runs track creation time, last access time,
// step counts, and the last program error for debugging.
package service
