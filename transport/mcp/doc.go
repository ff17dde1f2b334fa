// Package mcp provides a Model Context Protocol server for the RoboTiles
// simulator.
//
// The mcp package implements:
//   - MCP server for AI agent integration
//   - Tool definitions for simulation operations
//   - Run-aware command execution
//   - Thin proxying to the REST API
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - create_run / get_run / list_runs: run lifecycle
//   - run_state: board state with an ASCII grid rendering
//   - step / run_steps: program-driven simulation stepping
//   - command: manual robot movement bypassing the program
//   - reset_run: robot back to start, program reloaded
//   - set_program / reload_program: robot program management
//   - set_obstacle / clear_obstacle: live board editing
//   - list_boards / get_board / save_board: board library access
//   - instructions: complete board format and program reference
//
// Architecture:
//
// The Client is a thin proxy: every tool handler issues a plain HTTP call
// against the REST API and formats the JSON response as readable text. The
// MCP process therefore needs no access to simulator state and can run on
// a different host than the API server.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
//
// AI Integration:
//
// The MCP interface enables AI agents to create runs, watch a robot
// program navigate, intervene with manual commands or obstacle edits, and
// iterate on Starlark robot scripts with hot reload.
package mcp
