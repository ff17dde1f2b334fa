package service

import (
	"strings"
	"time"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
	"github.com/BrendanBurkhart/RoboTiles/game/robot"
)

// RunInfo provides information about a simulation run.
type RunInfo struct {
	ID             string      `json:"id"`
	BoardName      string      `json:"board_name"`
	Program        string      `json:"program"`
	CreatedAt      time.Time   `json:"created_at"`
	LastAccessedAt time.Time   `json:"last_accessed_at"`
	State          *BoardState `json:"state"`
}

// BoardState is the renderable snapshot of a run's board: the serialized
// rows plus the positions a display surface needs to redraw. It carries
// values only, never references into the board.
type BoardState struct {
	Size      int               `json:"size"`
	Rows      []string          `json:"rows"`
	Start     board.Position    `json:"start"`
	End       board.Position    `json:"end"`
	Robot     board.Position    `json:"robot"`
	AtEnd     bool              `json:"at_end"`
	Steps     int               `json:"steps"`
	Program   string            `json:"program"`
	LastError string            `json:"last_error,omitempty"`
	Env       robot.Environment `json:"environment"`
}

// StepResult describes one simulation turn or explicit command.
type StepResult struct {
	Move         string            `json:"move,omitempty"`
	From         board.Position    `json:"from"`
	To           board.Position    `json:"to"`
	Moved        bool              `json:"moved"`
	AtEnd        bool              `json:"at_end"`
	Environment  robot.Environment `json:"environment"`
	ProgramError string            `json:"program_error,omitempty"`
	State        *BoardState       `json:"state"`
}

// BulkStepResult describes a bounded batch of simulation turns.
type BulkStepResult struct {
	Requested     int          `json:"requested"`
	Executed      int          `json:"executed"`
	StoppedReason string       `json:"stopped_reason,omitempty"` // "at_end" | "program_error" | "limit"
	Steps         []StepResult `json:"steps,omitempty"`
	State         *BoardState  `json:"state"`
}

// BoardInfo provides information about a board in the library.
type BoardInfo struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	Size      int    `json:"size"`
	Obstacles int    `json:"obstacles"`
}

// NewBoardState snapshots a run's board for rendering.
func NewBoardState(run *Run) *BoardState {
	rows := strings.Split(strings.TrimRight(run.Board.Serialize(), "\n"), "\n")
	for i, row := range rows {
		rows[i] = strings.TrimRight(row, " ")
	}
	return &BoardState{
		Size:      run.Board.Size(),
		Rows:      rows,
		Start:     run.Board.Start(),
		End:       run.Board.End(),
		Robot:     run.Board.RobotPosition(),
		AtEnd:     run.Board.AtEnd(),
		Steps:     run.Steps,
		Program:   run.Program,
		LastError: run.LastError,
		Env:       run.Board.RobotEnvironment(),
	}
}
