package service

import (
	"context"
	"time"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
	"github.com/BrendanBurkhart/RoboTiles/game/robot"
)

// GameService defines all simulation operations exposed to transports.
type GameService interface {
	// Run management
	CreateRun(ctx context.Context, boardName, program string) (*RunInfo, error)
	GetRun(ctx context.Context, runID string) (*RunInfo, error)
	ListRuns(ctx context.Context) ([]*RunInfo, error)
	DeleteRun(ctx context.Context, runID string) error

	// Simulation
	Step(ctx context.Context, runID string) (*StepResult, error)
	StepMany(ctx context.Context, runID string, maxSteps int) (*BulkStepResult, error)
	Command(ctx context.Context, runID, direction string) (*StepResult, error)
	ResetRun(ctx context.Context, runID string) (*BoardState, error)

	// Board state and editing
	GetBoardState(ctx context.Context, runID string) (*BoardState, error)
	SetObstacle(ctx context.Context, runID string, x, y int) (*BoardState, error)
	ClearObstacle(ctx context.Context, runID string, x, y int) (*BoardState, error)

	// Robot programs
	SetProgram(ctx context.Context, runID, program string) error
	ReloadProgram(ctx context.Context, runID string) error

	// Board library
	ListBoards(ctx context.Context) ([]*BoardInfo, error)
	GetBoardSource(ctx context.Context, name string) (string, error)
	SaveBoard(ctx context.Context, name, source string) error
}

// RunManager defines run storage operations.
type RunManager interface {
	Create(id string, b *board.Board, boardName, program string, oracle robot.Oracle) (*Run, error)
	Get(id string) (*Run, error)
	List() []*Run
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// BoardLibrary hands out boards from the board file library. Load returns a
// fresh board on every call: each run owns and mutates its own copy, so no
// grid state is ever shared between runs.
type BoardLibrary interface {
	Load(name string) (*board.Board, error)
	Source(name string) (string, error)
	List() ([]*BoardInfo, error)
	Save(name, source string) error
	DefaultName() string
}

// Run is one active simulation: a board, the robot program driving it, and
// bookkeeping. The service serializes all access to runs, so exactly one
// logical turn (query environment, decide move, apply move) executes at a
// time. LastError holds the most recent robot-program failure; a non-empty
// value means the step cycle is paused until a reset or program reload.
type Run struct {
	ID             string
	Board          *board.Board
	BoardName      string
	Program        string
	Oracle         robot.Oracle
	Steps          int
	LastError      string
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
