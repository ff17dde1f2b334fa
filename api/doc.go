// Package api provides HTTP REST API handlers for the RoboTiles simulator.
//
// The api package implements:
//   - RESTful endpoints for simulation operations
//   - Run management endpoints
//   - Board library listing and editing
//   - Robot program management
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Run Management:
//   - POST /api/runs - Create new run (body: {board, program})
//   - GET /api/runs - List all runs (sort, order, limit query params)
//   - GET /api/runs/{id} - Get specific run
//   - DELETE /api/runs/{id} - Delete run
//
// Simulation Operations:
//   - GET /api/runs/{id}/state - Get board state snapshot
//   - POST /api/runs/{id}/step - Execute one program-driven step
//   - POST /api/runs/{id}/steps - Execute up to {count} steps
//   - POST /api/runs/{id}/command - Apply explicit move (body: {direction})
//   - POST /api/runs/{id}/reset - Reset robot, counters, and program
//
// Robot Program:
//   - PUT /api/runs/{id}/program - Replace the run's program
//   - POST /api/runs/{id}/program/reload - Re-read a script program from disk
//
// Obstacles:
//   - PUT /api/runs/{id}/obstacles - Place obstacle (body: {x, y})
//   - DELETE /api/runs/{id}/obstacles - Clear obstacle (body: {x, y})
//
// Board Library:
//   - GET /api/boards - List available boards
//   - GET /api/boards/{name} - Get board source text
//   - PUT /api/boards/{name} - Save board source text
//
// Request/Response Format:
//
// All endpoints accept and return JSON. Errors are returned as JSON with
// appropriate HTTP status codes:
//
//	{
//	  "error": "error message"
//	}
//
// Editing a protected start or end cell returns 409 Conflict; coordinates
// off the grid return 400 Bad Request.
//
// WebSocket:
//
// GET /ws?run={id} upgrades to a WebSocket that streams board state
// updates for the named run after every mutation.
package api
