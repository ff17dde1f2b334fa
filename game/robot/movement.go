package robot

import "fmt"

// Move is a single directional command for the robot. Directions are
// absolute board directions: forward is +y (down the grid), backward is -y,
// right is +x, left is -x.
type Move int

const (
	Forward Move = iota
	Right
	Backward
	Left
)

var moveNames = map[Move]string{
	Forward:  "forward",
	Right:    "right",
	Backward: "backward",
	Left:     "left",
}

func (m Move) String() string {
	if name, ok := moveNames[m]; ok {
		return name
	}
	return fmt.Sprintf("move(%d)", int(m))
}

// Valid reports whether m is one of the four directional commands.
func (m Move) Valid() bool {
	_, ok := moveNames[m]
	return ok
}

// Vector returns the unit vector for m in board coordinates. Any value
// outside the four named commands maps to the backward vector, matching the
// board's historical catch-all.
func (m Move) Vector() (dx, dy int) {
	switch m {
	case Forward:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	default:
		return 0, -1
	}
}

// ParseMove converts a direction name ("forward", "right", "backward",
// "left") into a Move.
func ParseMove(name string) (Move, error) {
	for m, n := range moveNames {
		if n == name {
			return m, nil
		}
	}
	return Forward, fmt.Errorf("unknown move %q", name)
}

// Environment is a snapshot of the robot's immediate surroundings. Each
// field is true iff the adjacent cell in that absolute direction is inside
// the grid and not an obstacle. It is a pure query result and is never
// retained by the board.
type Environment struct {
	Front bool `json:"front"`
	Right bool `json:"right"`
	Back  bool `json:"back"`
	Left  bool `json:"left"`
}
