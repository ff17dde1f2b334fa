// Command boardcheck prints quick, human-readable heuristics about board
// files. It summarizes dimensions, start/end positions, obstacle counts, and
// highlights boards where the end cell cannot be reached from the start.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BrendanBurkhart/RoboTiles/game/board"
)

func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		matches, err := filepath.Glob(filepath.Join("boards", "*.board"))
		if err != nil || len(matches) == 0 {
			fmt.Println("Usage: boardcheck <file.board> [...]")
			fmt.Println("With no arguments, checks all .board files under boards/")
			os.Exit(1)
		}
		paths = matches
	}

	failed := 0
	for _, path := range paths {
		fmt.Printf("\n=== Checking %s ===\n", path)
		if !checkBoard(path) {
			failed++
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d of %d boards failed\n", failed, len(paths))
		os.Exit(1)
	}
	fmt.Printf("\nAll %d boards OK\n", len(paths))
}

func checkBoard(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		return false
	}
	source := string(data)

	size := inferSize(source)
	if size == 0 {
		fmt.Println("Error: file is empty")
		return false
	}

	b, err := board.New(size, source)
	if err != nil {
		fmt.Printf("Error: invalid board: %v\n", err)
		return false
	}

	fmt.Printf("Grid Size: %d x %d\n", size, size)
	fmt.Printf("Start: (%d, %d)\n", b.Start().X, b.Start().Y)
	fmt.Printf("End: (%d, %d)\n", b.End().X, b.End().Y)

	obstacles := 0
	for cell := range b.Cells() {
		if cell.State == board.Obstacle {
			obstacles++
		}
	}
	total := size * size
	fmt.Printf("Obstacles: %d / %d cells (%.0f%%)\n", obstacles, total, float64(obstacles)/float64(total)*100)

	if extra := len(strings.Fields(source)) - total; extra > 0 {
		fmt.Printf("Warning: %d trailing tokens beyond the %dx%d grid are ignored\n", extra, size, size)
	}

	if !reachable(b) {
		fmt.Println("WARNING: the end cell is not reachable from the start")
		return false
	}
	fmt.Println("End reachable from start")
	return true
}

// inferSize counts the tokens on the first non-blank line.
func inferSize(source string) int {
	for _, line := range strings.Split(source, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			return len(fields)
		}
	}
	return 0
}

// reachable runs a breadth-first search over non-obstacle cells from start
// to end, moving in the four cardinal directions.
func reachable(b *board.Board) bool {
	size := b.Size()
	start := b.Start()
	end := b.End()

	visited := make([]bool, size*size)
	queue := []board.Position{start}
	visited[start.Y*size+start.X] = true

	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]

		if pos == end {
			return true
		}

		for _, d := range []board.Position{{X: 0, Y: 1}, {X: 0, Y: -1}, {X: 1, Y: 0}, {X: -1, Y: 0}} {
			nx, ny := pos.X+d.X, pos.Y+d.Y
			if nx < 0 || nx >= size || ny < 0 || ny >= size {
				continue
			}
			if visited[ny*size+nx] || b.IsObstacle(nx, ny) {
				continue
			}
			visited[ny*size+nx] = true
			queue = append(queue, board.Position{X: nx, Y: ny})
		}
	}
	return false
}
