package library

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
	"github.com/BrendanBurkhart/RoboTiles/game/service"
)

var (
	ErrBoardNotFound = errors.New("board not found")
	ErrInvalidBoard  = errors.New("invalid board")
)

const boardExtension = ".board"

// defaultBoardName is preferred as the default when it exists; otherwise the
// first board in the directory wins.
const defaultBoardName = "classic"

// Manager loads named boards from a directory of .board files. Because each
// run mutates its board, Load builds a fresh Board from cached source text
// on every call rather than sharing instances.
type Manager struct {
	boardsDir string
	sources   map[string]string
	mu        sync.RWMutex
}

// NewManager creates a new board library manager
func NewManager(boardsDir string) (*Manager, error) {
	if _, err := os.Stat(boardsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("boards directory does not exist: %s", boardsDir)
	}

	return &Manager{
		boardsDir: boardsDir,
		sources:   make(map[string]string),
	}, nil
}

// Load builds a fresh board from the named source file
func (m *Manager) Load(name string) (*board.Board, error) {
	source, err := m.Source(name)
	if err != nil {
		return nil, err
	}

	size, err := inferSize(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}

	b, err := board.New(size, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	return b, nil
}

// Source returns the raw source text of the named board
func (m *Manager) Source(name string) (string, error) {
	m.mu.RLock()
	if source, exists := m.sources[name]; exists {
		m.mu.RUnlock()
		return source, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if source, exists := m.sources[name]; exists {
		return source, nil
	}

	data, err := os.ReadFile(m.boardPath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrBoardNotFound
		}
		return "", fmt.Errorf("failed to read board file: %w", err)
	}

	source := string(data)
	m.sources[name] = source
	return source, nil
}

// List returns information about all available boards
func (m *Manager) List() ([]*service.BoardInfo, error) {
	entries, err := os.ReadDir(m.boardsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read boards directory: %w", err)
	}

	var boards []*service.BoardInfo

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), boardExtension) {
			continue
		}

		name := strings.TrimSuffix(entry.Name(), boardExtension)

		// Build the board to validate it and count obstacles; skip files
		// that don't parse.
		b, err := m.Load(name)
		if err != nil {
			continue
		}

		obstacles := 0
		for cell := range b.Cells() {
			if cell.State == board.Obstacle {
				obstacles++
			}
		}

		boards = append(boards, &service.BoardInfo{
			Name:      name,
			Filename:  entry.Name(),
			Size:      b.Size(),
			Obstacles: obstacles,
		})
	}

	return boards, nil
}

// Save validates board source text and writes it to the library. Validation
// constructs a board, so malformed text never reaches disk.
func (m *Manager) Save(name, source string) error {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: bad board name %q", ErrInvalidBoard, name)
	}

	size, err := inferSize(source)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}
	if _, err := board.New(size, source); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidBoard, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.WriteFile(m.boardPath(name), []byte(source), 0644); err != nil {
		return fmt.Errorf("failed to write board file: %w", err)
	}

	m.sources[name] = source
	return nil
}

// DefaultName returns the name of the default board: "classic" if present,
// otherwise the first available board, otherwise "classic" so callers get a
// not-found error naming it.
func (m *Manager) DefaultName() string {
	if _, err := os.Stat(m.boardPath(defaultBoardName)); err == nil {
		return defaultBoardName
	}

	boards, err := m.List()
	if err != nil || len(boards) == 0 {
		return defaultBoardName
	}
	return boards[0].Name
}

func (m *Manager) boardPath(name string) string {
	filename := name
	if !strings.HasSuffix(filename, boardExtension) {
		filename = name + boardExtension
	}
	return filepath.Join(m.boardsDir, filename)
}

// inferSize derives the grid size from the first non-blank line's field
// count. Board files are square, so the width is the size.
func inferSize(source string) (int, error) {
	for _, line := range strings.Split(source, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return len(fields), nil
		}
	}
	return 0, fmt.Errorf("no board data found")
}
