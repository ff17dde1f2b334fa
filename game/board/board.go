// Package board implements the square grid a robot navigates: cells that
// are empty or obstacles, one start and one end cell, and the robot's
// current position. Boards are built from whitespace-delimited source text
// via the tokenizer and expose the movement and local-environment queries a
// robot program's driver needs.
package board

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"strings"

	"github.com/BrendanBurkhart/RoboTiles/game/robot"
	"github.com/BrendanBurkhart/RoboTiles/game/tokenizer"
)

// Source keyword values. Any keyword other than "0", "START", and "END"
// populates an obstacle cell; that literal rule is part of the format.
const (
	tokenEmpty    = "0"
	tokenObstacle = "1"
	tokenStart    = "START"
	tokenEnd      = "END"
)

var (
	// ErrNotFound reports an unreadable board source.
	ErrNotFound = tokenizer.ErrNotFound

	// ErrMalformed reports a source that tokenized but does not describe a
	// valid board: illegal tokens, too few tokens for the grid, or a missing
	// start or end cell.
	ErrMalformed = errors.New("malformed board source")

	// ErrOutOfBounds reports cell coordinates outside the grid.
	ErrOutOfBounds = errors.New("cell coordinates out of bounds")
)

// ProtectedCellError reports an attempt to edit the obstacle state of the
// start or end cell.
type ProtectedCellError struct {
	Which string // "start" or "end"
}

func (e *ProtectedCellError) Error() string {
	return fmt.Sprintf("cannot place obstacle at %s cell", e.Which)
}

// CellState is the binary state of one grid cell.
type CellState int

const (
	Empty CellState = iota
	Obstacle
)

// Position is an (x, y) grid coordinate. (0,0) is the top-left corner; y
// increases downward.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Cell pairs a cell's state with its coordinates, for iteration.
type Cell struct {
	State CellState
	X, Y  int
}

// Board is a size×size grid with distinguished start and end cells and a
// robot position. The board owns all of this state: every mutation goes
// through its methods, and queries return values, never internal slices.
type Board struct {
	size  int
	cells [][]CellState
	start Position
	end   Position
	robot Position
}

// New builds a board from in-memory source text. The source must contain at
// least size*size whitespace-delimited tokens from the set {0, 1, START,
// END} (case-insensitive), read row-major, with START and END each
// appearing among the first size*size tokens. Tokens beyond size*size are
// ignored. The robot starts on the start cell.
func New(size int, source string) (*Board, error) {
	b := &Board{}
	if err := b.load(size, source); err != nil {
		return nil, err
	}
	return b, nil
}

// Open builds a board from the file at path. An unreadable file is reported
// as ErrNotFound.
func Open(size int, path string) (*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return New(size, string(data))
}

// Reload replaces the board's entire state from new source text, keeping
// the same size. On failure the previous state is untouched.
func (b *Board) Reload(source string) error {
	return b.load(b.size, source)
}

// ReloadFile replaces the board's entire state from the file at path.
func (b *Board) ReloadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return b.Reload(string(data))
}

// load tokenizes and populates into local state, committing only on success
// so a failed construction or reload never leaves a partial board.
func (b *Board) load(size int, source string) error {
	if size <= 0 {
		return fmt.Errorf("%w: size must be positive, got %d", ErrMalformed, size)
	}

	keywords := tokenizer.NewKeywordSet(tokenEmpty, tokenObstacle, tokenStart, tokenEnd)
	tokens, err := tokenizer.Tokenize(source, keywords, false)
	if err != nil {
		var tokErr *tokenizer.TokenError
		if errors.As(err, &tokErr) {
			return fmt.Errorf("%w: %w", ErrMalformed, tokErr)
		}
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	cells, start, end, err := populate(size, tokens)
	if err != nil {
		return err
	}

	b.size = size
	b.cells = cells
	b.start = start
	b.end = end
	b.robot = start
	return nil
}

// populate consumes one token per grid position in row-major order. "0"
// yields an empty cell; START and END yield empty cells and record their
// positions; every other keyword yields an obstacle. Tokens past size*size
// are ignored.
func populate(size int, tokens []tokenizer.Token) ([][]CellState, Position, Position, error) {
	cells := make([][]CellState, size)
	var start, end Position
	foundStart, foundEnd := false, false

	for y := 0; y < size; y++ {
		cells[y] = make([]CellState, size)
		for x := 0; x < size; x++ {
			index := y*size + x
			if index >= len(tokens) {
				return nil, Position{}, Position{}, fmt.Errorf(
					"%w: source has %d tokens, need %d for a %dx%d board",
					ErrMalformed, len(tokens), size*size, size, size)
			}

			switch tokens[index].Value {
			case tokenStart:
				start = Position{X: x, Y: y}
				foundStart = true
			case tokenEnd:
				end = Position{X: x, Y: y}
				foundEnd = true
			case tokenEmpty:
				// Already Empty.
			default:
				cells[y][x] = Obstacle
			}
		}
	}

	if !foundStart || !foundEnd {
		return nil, Position{}, Position{}, fmt.Errorf(
			"%w: source must specify both a start and an end position", ErrMalformed)
	}
	return cells, start, end, nil
}

// Size returns the board's linear dimension.
func (b *Board) Size() int {
	return b.size
}

// Cells returns a restartable row-major iterator over every cell. Renderers
// call this once per redraw.
func (b *Board) Cells() iter.Seq[Cell] {
	return func(yield func(Cell) bool) {
		for y := 0; y < b.size; y++ {
			for x := 0; x < b.size; x++ {
				if !yield(Cell{State: b.cells[y][x], X: x, Y: y}) {
					return
				}
			}
		}
	}
}

// Start returns the position of the start cell.
func (b *Board) Start() Position {
	return b.start
}

// End returns the position of the end cell.
func (b *Board) End() Position {
	return b.end
}

// RobotPosition returns the robot's current position.
func (b *Board) RobotPosition() Position {
	return b.robot
}

// AtEnd reports whether the robot is on the end cell.
func (b *Board) AtEnd() bool {
	return b.robot == b.end
}

// RobotEnvironment snapshots the robot's immediate surroundings: each
// direction is true iff the adjacent cell is inside the grid and not an
// obstacle.
func (b *Board) RobotEnvironment() robot.Environment {
	return robot.Environment{
		Front: b.passable(b.robot.X, b.robot.Y+1),
		Right: b.passable(b.robot.X+1, b.robot.Y),
		Back:  b.passable(b.robot.X, b.robot.Y-1),
		Left:  b.passable(b.robot.X-1, b.robot.Y),
	}
}

func (b *Board) passable(x, y int) bool {
	return b.inBounds(x, y) && b.cells[y][x] != Obstacle
}

func (b *Board) inBounds(x, y int) bool {
	return x >= 0 && x < b.size && y >= 0 && y < b.size
}

// Apply executes a move command. The candidate position is the unit vector
// of the move added to the robot's position, with each axis clamped into
// the grid; the robot only advances if the resulting cell is not an
// obstacle. Apply never fails: blocked moves leave the robot in place. The
// resulting position is returned either way.
func (b *Board) Apply(m robot.Move) Position {
	dx, dy := m.Vector()
	x := clamp(b.robot.X+dx, b.size)
	y := clamp(b.robot.Y+dy, b.size)

	if b.cells[y][x] != Obstacle {
		b.robot = Position{X: x, Y: y}
	}
	return b.robot
}

func clamp(v, size int) int {
	if v < 0 {
		return 0
	}
	if v >= size {
		return size - 1
	}
	return v
}

// ResetRobot puts the robot back on the start cell.
func (b *Board) ResetRobot() {
	b.robot = b.start
}

// PlaceRobot moves the robot directly to (x, y), used when restoring a
// persisted run. The target must be on the grid and not an obstacle.
func (b *Board) PlaceRobot(x, y int) error {
	if !b.inBounds(x, y) {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}
	if b.cells[y][x] == Obstacle {
		return fmt.Errorf("cannot place robot on obstacle at (%d, %d)", x, y)
	}
	b.robot = Position{X: x, Y: y}
	return nil
}

// SetObstacle marks the cell at (x, y) as an obstacle. The start and end
// cells are protected and yield a *ProtectedCellError naming which one was
// hit; coordinates off the grid yield ErrOutOfBounds.
func (b *Board) SetObstacle(x, y int) error {
	return b.setCell(x, y, Obstacle)
}

// ClearObstacle marks the cell at (x, y) as empty, with the same protection
// rules as SetObstacle.
func (b *Board) ClearObstacle(x, y int) error {
	return b.setCell(x, y, Empty)
}

func (b *Board) setCell(x, y int, state CellState) error {
	if !b.inBounds(x, y) {
		return fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}
	pos := Position{X: x, Y: y}
	if pos == b.start {
		return &ProtectedCellError{Which: "start"}
	}
	if pos == b.end {
		return &ProtectedCellError{Which: "end"}
	}
	b.cells[y][x] = state
	return nil
}

// IsObstacle reports whether the cell at (x, y) holds an obstacle. The
// coordinates must be valid grid indices.
func (b *Board) IsObstacle(x, y int) bool {
	return b.cells[y][x] == Obstacle
}

// Serialize renders the board as source text: size lines of size
// space-separated fields, each "start", "end", "0", or "1". The output
// reloads cleanly because loading folds case, turning the lowercase start
// and end markers back into keywords.
func (b *Board) Serialize() string {
	var sb strings.Builder
	for y := 0; y < b.size; y++ {
		for x := 0; x < b.size; x++ {
			pos := Position{X: x, Y: y}
			switch {
			case pos == b.start:
				sb.WriteString("start ")
			case pos == b.end:
				sb.WriteString("end ")
			case b.cells[y][x] == Obstacle:
				sb.WriteString("1 ")
			default:
				sb.WriteString("0 ")
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Save writes the serialized board to path.
func (b *Board) Save(path string) error {
	if err := os.WriteFile(path, []byte(b.Serialize()), 0644); err != nil {
		return fmt.Errorf("save board: %w", err)
	}
	return nil
}
