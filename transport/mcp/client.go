package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/BrendanBurkhart/RoboTiles/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"RoboTiles Simulator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`RoboTiles Simulator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

SIMULATION OBJECTIVE:
A robot starts on the board's start cell and must reach the end cell. On
each step the robot's program sees only its four neighboring cells and
picks a direction; the board applies the move if the target is open.

AVAILABLE TOOLS:
- create_run: Create a new simulation run on a named board
- list_runs: List all active runs
- get_run: Get run details
- run_state: Get the current board state with an ASCII rendering
- step: Execute one program-driven step
- run_steps: Execute up to N steps, stopping at the end cell
- command: Move the robot manually, bypassing its program
- reset_run: Put the robot back at start and reload its program
- set_program: Replace the run's robot program
- reload_program: Re-read a script program from disk
- set_obstacle / clear_obstacle: Edit the board under the running robot
- list_boards / get_board / save_board: Manage the board library
- instructions: Get the complete board format and program reference

PROGRAMS:
"wallfollower" is the built-in wall-hugging program. "script:<path>"
loads a Starlark script that must define get_move(env) returning
"forward", "right", "backward", or "left".`),
	)

	// Register all tools
	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	runIDProp := map[string]interface{}{
		"type":        "string",
		"description": "Run ID",
	}

	// Run management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_run",
		Description: "Create a new simulation run with optional board and program selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"board": map[string]interface{}{
					"type":        "string",
					"description": "Name of the board to use (optional, defaults to the library default)",
				},
				"program": map[string]interface{}{
					"type":        "string",
					"description": "Robot program: 'wallfollower' or 'script:<path>' (optional)",
				},
			},
		},
	}, c.handleCreateRun)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_runs",
		Description: "List all active simulation runs",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListRuns)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_run",
		Description: "Get details of a specific run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProp,
			},
			Required: []string{"run_id"},
		},
	}, c.handleGetRun)

	// Simulation operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_state",
		Description: "Get the current board state of a run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProp,
			},
			Required: []string{"run_id"},
		},
	}, c.handleRunState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "step",
		Description: "Execute one program-driven simulation step",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProp,
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why you are stepping (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"run_id"},
		},
	}, c.handleStep)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_steps",
		Description: "Execute up to N program-driven steps, stopping early at the end cell or on a program error",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProp,
				"count": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of steps to execute",
				},
			},
			Required: []string{"run_id", "count"},
		},
	}, c.handleRunSteps)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "command",
		Description: "Move the robot manually in a direction, bypassing its program",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProp,
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"forward", "right", "backward", "left"},
					"description": "Direction to move (forward is +y, right is +x)",
				},
			},
			Required: []string{"run_id", "direction"},
		},
	}, c.handleCommand)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_run",
		Description: "Reset the run: robot back to start, counters cleared, program reloaded",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProp,
			},
			Required: []string{"run_id"},
		},
	}, c.handleReset)

	// Robot program
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_program",
		Description: "Replace the run's robot program ('wallfollower' or 'script:<path>')",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProp,
				"program": map[string]interface{}{
					"type":        "string",
					"description": "Program spec",
				},
			},
			Required: []string{"run_id", "program"},
		},
	}, c.handleSetProgram)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "reload_program",
		Description: "Re-read the run's script program from disk, picking up edits",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": runIDProp,
			},
			Required: []string{"run_id"},
		},
	}, c.handleReloadProgram)

	// Obstacle editing
	coordProps := map[string]interface{}{
		"run_id": runIDProp,
		"x": map[string]interface{}{
			"type":        "integer",
			"description": "X coordinate (column, 0-based)",
		},
		"y": map[string]interface{}{
			"type":        "integer",
			"description": "Y coordinate (row, 0-based)",
		},
	}

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "set_obstacle",
		Description: "Place an obstacle on the run's board. The start and end cells are protected.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: coordProps,
			Required:   []string{"run_id", "x", "y"},
		},
	}, c.handleSetObstacle)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "clear_obstacle",
		Description: "Remove an obstacle from the run's board. The start and end cells are protected.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: coordProps,
			Required:   []string{"run_id", "x", "y"},
		},
	}, c.handleClearObstacle)

	// Board library
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_boards",
		Description: "List available boards in the library",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListBoards)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_board",
		Description: "Get the source text of a library board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Board name",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleGetBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "save_board",
		Description: "Validate and save board source text to the library",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Board name",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Board source text (rows of space-separated fields)",
				},
			},
			Required: []string{"name", "source"},
		},
	}, c.handleSaveBoard)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "instructions",
		Description: "Get the complete board format and robot program reference",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleCreateRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	boardName, _ := args["board"].(string)
	program, _ := args["program"].(string)

	body := map[string]string{}
	if boardName != "" {
		body["board"] = boardName
	}
	if program != "" {
		body["program"] = program
	}

	var run service.RunInfo
	err := c.apiCall("POST", "/api/runs", body, &run)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created run: %s\nBoard: %s\nProgram: %s\n\n%s",
		run.ID, run.BoardName, run.Program, formatBoardState(run.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int               `json:"count"`
		Runs  []service.RunInfo `json:"runs"`
	}

	err := c.apiCall("GET", "/api/runs", nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Runs (%d):\n\n", response.Count)
	for _, r := range response.Runs {
		result += fmt.Sprintf("- %s (Board: %s, Program: %s, Created: %s)\n",
			r.ID, r.BoardName, r.Program, r.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	runID, _ := args["run_id"].(string)

	var run service.RunInfo
	err := c.apiCall("GET", fmt.Sprintf("/api/runs/%s", runID), nil, &run)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatRunInfo(&run)), nil
}

func (c *Client) handleRunState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	runID, _ := args["run_id"].(string)

	var state service.BoardState
	err := c.apiCall("GET", fmt.Sprintf("/api/runs/%s/state", runID), nil, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoardState(&state)), nil
}

func (c *Client) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	runID, _ := args["run_id"].(string)
	intent, _ := args["intent"].(string)

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = intent

	var result service.StepResult
	err := c.apiCall("POST", fmt.Sprintf("/api/runs/%s/step", runID), nil, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatStepResult(&result)), nil
}

func (c *Client) handleRunSteps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	runID, _ := args["run_id"].(string)
	count := 0
	if n, ok := args["count"].(float64); ok {
		count = int(n)
	}

	var result service.BulkStepResult
	err := c.apiCall("POST", fmt.Sprintf("/api/runs/%s/steps", runID), map[string]int{"count": count}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBulkStepResult(runID, &result)), nil
}

func (c *Client) handleCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	runID, _ := args["run_id"].(string)
	direction, _ := args["direction"].(string)

	var result service.StepResult
	err := c.apiCall("POST", fmt.Sprintf("/api/runs/%s/command", runID),
		map[string]string{"direction": direction}, &result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatStepResult(&result)), nil
}

func (c *Client) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	runID, _ := args["run_id"].(string)

	var response struct {
		Message string              `json:"message"`
		State   *service.BoardState `json:"state"`
	}

	err := c.apiCall("POST", fmt.Sprintf("/api/runs/%s/reset", runID), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("%s\n\n%s", response.Message, formatBoardState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSetProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	runID, _ := args["run_id"].(string)
	program, _ := args["program"].(string)

	err := c.apiCall("PUT", fmt.Sprintf("/api/runs/%s/program", runID),
		map[string]string{"program": program}, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Program set to %q", program)), nil
}

func (c *Client) handleReloadProgram(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	runID, _ := args["run_id"].(string)

	err := c.apiCall("POST", fmt.Sprintf("/api/runs/%s/program/reload", runID), nil, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("Program reloaded"), nil
}

func (c *Client) handleSetObstacle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.handleObstacle(request, "PUT")
}

func (c *Client) handleClearObstacle(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.handleObstacle(request, "DELETE")
}

func (c *Client) handleObstacle(request mcp.CallToolRequest, method string) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	runID, _ := args["run_id"].(string)
	x := 0
	y := 0
	if v, ok := args["x"].(float64); ok {
		x = int(v)
	}
	if v, ok := args["y"].(float64); ok {
		y = int(v)
	}

	var state service.BoardState
	err := c.apiCall(method, fmt.Sprintf("/api/runs/%s/obstacles", runID),
		map[string]int{"x": x, "y": y}, &state)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoardState(&state)), nil
}

func (c *Client) handleListBoards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var boards []service.BoardInfo
	err := c.apiCall("GET", "/api/boards", nil, &boards)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Boards:\n\n"
	for _, b := range boards {
		result += fmt.Sprintf("• %s\n  Grid: %dx%d, Obstacles: %d\n\n",
			b.Name, b.Size, b.Size, b.Obstacles)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGetBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	name, _ := args["name"].(string)

	var response map[string]string
	err := c.apiCall("GET", fmt.Sprintf("/api/boards/%s", name), nil, &response)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Board %q:\n\n%s", name, response["source"])
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleSaveBoard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.Params.Arguments.(map[string]interface{})
	name, _ := args["name"].(string)
	source, _ := args["source"].(string)

	err := c.apiCall("PUT", fmt.Sprintf("/api/boards/%s", name),
		map[string]string{"source": source}, nil)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Board %q saved", name)), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `RoboTiles Simulator - Complete Reference

SIMULATION MODEL:
A square board of cells holds exactly one START cell, one END cell, and
any number of obstacles. A robot begins on START and is driven by a
program toward END. Forward is +y (down the rendered grid), right is +x.

BOARD FILE FORMAT:
Plain text, one row per line, fields separated by spaces or tabs:
• 0      - empty cell
• START  - the robot's starting cell (exactly one)
• END    - the goal cell (exactly one)
• 1      - obstacle (any other word also reads as an obstacle)
Keywords are case-insensitive. The grid size is the first row's field
count; rows beyond the square are ignored, missing cells are an error.

Example 3x3 board:
START 0 0
0 1 0
0 0 END

STEP SEMANTICS:
On each step the program receives the robot's environment: four booleans
(front, right, back, left), true where the adjacent cell is inside the
board and not an obstacle. The program returns one direction. The board
clamps the target to the grid and moves the robot only when the target
cell is open; a blocked move leaves the robot in place but still counts
as a step.

ROBOT PROGRAMS:
• wallfollower - built-in; hugs walls by preferring the direction one
  turn counter-clockwise of its last heading
• script:<path> - a Starlark script defining get_move(env); env is a
  dict with "front", "right", "back", "left" booleans, and the function
  must return "forward", "right", "backward", or "left". Module-level
  state persists between calls; reset_run and reload_program re-execute
  the script from disk.

RENDERED GRID LEGEND:
• S - start cell    • E - end cell
• . - empty cell    • # - obstacle
• R - robot's current position

EDITING:
Obstacles can be placed and cleared while a run is live, but the START
and END cells are protected and reject edits.

RUN MANAGEMENT:
Multiple runs execute independently, each with its own board copy and
program. Runs have unique 4-character IDs and persist across server
restarts.`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatRunInfo(run *service.RunInfo) string {
	return fmt.Sprintf("Run: %s\nBoard: %s\nProgram: %s\nCreated: %s\n\n%s",
		run.ID, run.BoardName, run.Program,
		run.CreatedAt.Format("2006-01-02 15:04:05"),
		formatBoardState(run.State))
}

func formatBoardState(state *service.BoardState) string {
	if state == nil {
		return "No board state available"
	}

	var result strings.Builder

	result.WriteString(fmt.Sprintf("Robot: (%d,%d) | Steps: %d | Program: %s\n",
		state.Robot.X, state.Robot.Y, state.Steps, state.Program))

	if state.LastError != "" {
		result.WriteString(fmt.Sprintf("Last program error: %s\n", state.LastError))
	}
	result.WriteString("\n")

	// Grid
	for y, row := range state.Rows {
		for x, field := range strings.Fields(row) {
			if x == state.Robot.X && y == state.Robot.Y {
				result.WriteString("R")
				continue
			}
			switch field {
			case "start":
				result.WriteString("S")
			case "end":
				result.WriteString("E")
			case "0":
				result.WriteString(".")
			default:
				result.WriteString("#")
			}
		}
		result.WriteString("\n")
	}

	result.WriteString(fmt.Sprintf("\nOpen neighbors: front=%v right=%v back=%v left=%v",
		state.Env.Front, state.Env.Right, state.Env.Back, state.Env.Left))

	if state.AtEnd {
		result.WriteString("\n\nRobot has reached the end cell!")
	}

	return result.String()
}

func formatStepResult(result *service.StepResult) string {
	var b strings.Builder

	if result.ProgramError != "" {
		b.WriteString(fmt.Sprintf("Program error: %s\n", result.ProgramError))
	} else {
		status := "blocked"
		if result.Moved {
			status = "ok"
		}
		b.WriteString(fmt.Sprintf("Step: %s (%d,%d)->(%d,%d) %s\n",
			result.Move, result.From.X, result.From.Y, result.To.X, result.To.Y, status))
	}

	b.WriteString("\n")
	b.WriteString(formatBoardState(result.State))
	return b.String()
}

func formatBulkStepResult(runID string, result *service.BulkStepResult) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Run: %s\n", runID))
	b.WriteString(fmt.Sprintf("Executed %d/%d steps\n", result.Executed, result.Requested))
	b.WriteString(fmt.Sprintf("Stopped: %s\n", result.StoppedReason))

	if len(result.Steps) > 0 {
		b.WriteString("\nSteps:\n")
		for i, s := range result.Steps {
			if s.ProgramError != "" {
				b.WriteString(fmt.Sprintf("%d. program error: %s\n", i+1, s.ProgramError))
				continue
			}
			status := "blocked"
			if s.Moved {
				status = "ok"
			}
			b.WriteString(fmt.Sprintf("%d. %s (%d,%d)->(%d,%d) %s\n",
				i+1, s.Move, s.From.X, s.From.Y, s.To.X, s.To.Y, status))
		}
	}

	b.WriteString("\n")
	b.WriteString(formatBoardState(result.State))
	return b.String()
}
