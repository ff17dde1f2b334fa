package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
	"github.com/BrendanBurkhart/RoboTiles/game/robot"
)

// MaxBulkSteps caps a single StepMany call.
const MaxBulkSteps = 500

// gameServiceImpl implements the GameService interface.
type gameServiceImpl struct {
	runs   RunManager
	boards BoardLibrary
	mu     sync.RWMutex
}

// NewGameService creates a new game service instance.
func NewGameService(runs RunManager, boards BoardLibrary) GameService {
	return &gameServiceImpl{
		runs:   runs,
		boards: boards,
	}
}

// CreateRun creates a new simulation run on the named board.
func (s *gameServiceImpl) CreateRun(ctx context.Context, boardName, program string) (*RunInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if boardName == "" {
		boardName = s.boards.DefaultName()
	}

	b, err := s.boards.Load(boardName)
	if err != nil {
		// Provide a helpful error with the available options.
		if available, listErr := s.boards.List(); listErr == nil && len(available) > 0 {
			var names []string
			for _, info := range available {
				names = append(names, info.Name)
			}
			return nil, fmt.Errorf("board %q not found, available boards: %v", boardName, names)
		}
		return nil, fmt.Errorf("failed to load board %q: %w", boardName, err)
	}

	if program == "" {
		program = robot.DefaultProgram
	}
	oracle, err := robot.NewOracle(program)
	if err != nil {
		return nil, fmt.Errorf("failed to load robot program: %w", err)
	}

	// Let the run manager generate an ID.
	run, err := s.runs.Create("", b, boardName, program, oracle)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return s.runInfo(run), nil
}

// GetRun retrieves run information.
func (s *gameServiceImpl) GetRun(ctx context.Context, runID string) (*RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run not found: %w", err)
	}
	s.runs.UpdateLastAccessed(runID)

	return s.runInfo(run), nil
}

// ListRuns returns all active runs.
func (s *gameServiceImpl) ListRuns(ctx context.Context) ([]*RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := s.runs.List()
	result := make([]*RunInfo, 0, len(runs))
	for _, run := range runs {
		result = append(result, s.runInfo(run))
	}
	return result, nil
}

// DeleteRun removes a run.
func (s *gameServiceImpl) DeleteRun(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.runs.Delete(runID)
}

// Step executes one simulation turn: query the robot's environment, ask the
// run's program for a move, and apply it. A program failure is recorded on
// the run and returned in the result, never propagated as a crash. A run
// already at the end cell does not consult the program.
func (s *gameServiceImpl) Step(ctx context.Context, runID string) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run not found: %w", err)
	}
	s.runs.UpdateLastAccessed(runID)

	result := s.step(run)
	s.persist(run)
	return result, nil
}

// step performs one turn against an already-fetched run. Callers hold the
// service lock.
func (s *gameServiceImpl) step(run *Run) *StepResult {
	from := run.Board.RobotPosition()
	env := run.Board.RobotEnvironment()

	result := &StepResult{
		From:        from,
		To:          from,
		Environment: env,
	}

	if run.Board.AtEnd() {
		result.AtEnd = true
		result.State = NewBoardState(run)
		return result
	}

	move, err := robot.Decide(run.Oracle, env)
	if err != nil {
		run.LastError = err.Error()
		result.ProgramError = run.LastError
		result.State = NewBoardState(run)
		return result
	}
	run.LastError = ""

	to := run.Board.Apply(move)
	run.Steps++

	result.Move = move.String()
	result.To = to
	result.Moved = to != from
	result.AtEnd = run.Board.AtEnd()
	result.State = NewBoardState(run)
	return result
}

// StepMany executes up to maxSteps turns, stopping early when the robot
// reaches the end cell or the program faults.
func (s *gameServiceImpl) StepMany(ctx context.Context, runID string, maxSteps int) (*BulkStepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run not found: %w", err)
	}
	s.runs.UpdateLastAccessed(runID)

	if maxSteps <= 0 || maxSteps > MaxBulkSteps {
		maxSteps = MaxBulkSteps
	}

	result := &BulkStepResult{Requested: maxSteps}
	for i := 0; i < maxSteps; i++ {
		step := s.step(run)
		if step.AtEnd && step.Move == "" {
			// Already at the end before this turn.
			result.StoppedReason = "at_end"
			break
		}

		result.Steps = append(result.Steps, *step)
		result.Executed++

		if step.ProgramError != "" {
			result.StoppedReason = "program_error"
			break
		}
		if step.AtEnd {
			result.StoppedReason = "at_end"
			break
		}
	}
	if result.StoppedReason == "" {
		result.StoppedReason = "limit"
	}

	result.State = NewBoardState(run)
	s.persist(run)
	return result, nil
}

// Command applies an explicit move to a run, bypassing its program.
func (s *gameServiceImpl) Command(ctx context.Context, runID, direction string) (*StepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run not found: %w", err)
	}
	s.runs.UpdateLastAccessed(runID)

	move, err := robot.ParseMove(direction)
	if err != nil {
		return nil, err
	}

	from := run.Board.RobotPosition()
	to := run.Board.Apply(move)
	run.Steps++

	result := &StepResult{
		Move:        move.String(),
		From:        from,
		To:          to,
		Moved:       to != from,
		AtEnd:       run.Board.AtEnd(),
		Environment: run.Board.RobotEnvironment(),
		State:       NewBoardState(run),
	}
	s.persist(run)
	return result, nil
}

// ResetRun puts the robot back on the start cell, clears the step counter
// and any recorded program error, and reloads the robot program so edited
// scripts take effect, mirroring the original demo's reset cycle.
func (s *gameServiceImpl) ResetRun(ctx context.Context, runID string) (*BoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run not found: %w", err)
	}
	s.runs.UpdateLastAccessed(runID)

	run.Board.ResetRobot()
	run.Steps = 0
	run.LastError = ""

	if err := s.reloadOracle(run); err != nil {
		run.LastError = err.Error()
	}

	s.persist(run)
	return NewBoardState(run), nil
}

// GetBoardState returns the renderable snapshot of a run's board.
func (s *gameServiceImpl) GetBoardState(ctx context.Context, runID string) (*BoardState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run not found: %w", err)
	}
	return NewBoardState(run), nil
}

// SetObstacle places an obstacle on a run's board.
func (s *gameServiceImpl) SetObstacle(ctx context.Context, runID string, x, y int) (*BoardState, error) {
	return s.editCell(runID, x, y, true)
}

// ClearObstacle removes an obstacle from a run's board.
func (s *gameServiceImpl) ClearObstacle(ctx context.Context, runID string, x, y int) (*BoardState, error) {
	return s.editCell(runID, x, y, false)
}

func (s *gameServiceImpl) editCell(runID string, x, y int, obstacle bool) (*BoardState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return nil, fmt.Errorf("run not found: %w", err)
	}
	s.runs.UpdateLastAccessed(runID)

	if obstacle {
		err = run.Board.SetObstacle(x, y)
	} else {
		err = run.Board.ClearObstacle(x, y)
	}
	if err != nil {
		return nil, err
	}

	s.persist(run)
	return NewBoardState(run), nil
}

// SetProgram replaces a run's robot program.
func (s *gameServiceImpl) SetProgram(ctx context.Context, runID, program string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return fmt.Errorf("run not found: %w", err)
	}
	s.runs.UpdateLastAccessed(runID)

	oracle, err := robot.NewOracle(program)
	if err != nil {
		return err
	}

	run.Program = program
	run.Oracle = oracle
	run.LastError = ""
	s.persist(run)
	return nil
}

// ReloadProgram re-creates a run's oracle; for script programs this re-reads
// the script from disk, picking up user edits.
func (s *gameServiceImpl) ReloadProgram(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, err := s.runs.Get(runID)
	if err != nil {
		return fmt.Errorf("run not found: %w", err)
	}
	s.runs.UpdateLastAccessed(runID)

	if err := s.reloadOracle(run); err != nil {
		run.LastError = err.Error()
		return err
	}
	run.LastError = ""
	return nil
}

// reloadOracle refreshes a run's oracle in place. Script oracles re-execute
// from disk; built-in oracles are rebuilt so their internal state resets.
func (s *gameServiceImpl) reloadOracle(run *Run) error {
	if script, ok := run.Oracle.(*robot.ScriptOracle); ok {
		if err := script.Reload(); err != nil {
			return err
		}
		return nil
	}

	oracle, err := robot.NewOracle(run.Program)
	if err != nil {
		return err
	}
	run.Oracle = oracle
	return nil
}

// ListBoards returns information about all library boards.
func (s *gameServiceImpl) ListBoards(ctx context.Context) ([]*BoardInfo, error) {
	return s.boards.List()
}

// GetBoardSource returns the raw source text of a library board.
func (s *gameServiceImpl) GetBoardSource(ctx context.Context, name string) (string, error) {
	return s.boards.Source(name)
}

// SaveBoard validates and stores board source text in the library.
func (s *gameServiceImpl) SaveBoard(ctx context.Context, name, source string) error {
	if err := s.boards.Save(name, source); err != nil {
		if errors.Is(err, board.ErrMalformed) {
			return fmt.Errorf("invalid board source: %w", err)
		}
		return err
	}
	return nil
}

func (s *gameServiceImpl) runInfo(run *Run) *RunInfo {
	return &RunInfo{
		ID:             run.ID,
		BoardName:      run.BoardName,
		Program:        run.Program,
		CreatedAt:      run.CreatedAt,
		LastAccessedAt: run.LastAccessedAt,
		State:          NewBoardState(run),
	}
}

// persist saves a run after a mutation; persistence failures are logged,
// not fatal.
func (s *gameServiceImpl) persist(run *Run) {
	if err := s.runs.Save(run.ID); err != nil {
		log.Printf("Warning: failed to persist run %s: %v", run.ID, err)
	}
}
