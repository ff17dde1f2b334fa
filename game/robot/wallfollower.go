package robot

import "errors"

// ErrBoxedIn is returned by WallFollower when no adjacent cell is passable.
var ErrBoxedIn = errors.New("robot is boxed in")

// WallFollower is the built-in example robot program. It remembers the last
// heading it committed to and, on each step, first tries the direction one
// turn counter-clockwise of that heading, then rotates clockwise until it
// finds an open cell. Hugging the wall this way walks the robot around
// simple obstacle courses without any global knowledge of the board.
//
// The heading is oracle-local state: a fresh WallFollower starts out biased
// toward moving forward.
type WallFollower struct {
	heading Move
}

// NewWallFollower returns a wall-following oracle with a forward bias.
func NewWallFollower() *WallFollower {
	return &WallFollower{heading: Forward}
}

// NextMove picks the next open direction, preferring to turn toward the
// wall it is following.
func (w *WallFollower) NextMove(env Environment) (Move, error) {
	open := map[Move]bool{
		Forward:  env.Front,
		Right:    env.Right,
		Backward: env.Back,
		Left:     env.Left,
	}

	direction := (w.heading + 3) % 4
	for i := 0; i < 4; i++ {
		if open[direction] {
			w.heading = direction
			return direction, nil
		}
		direction = (direction + 1) % 4
	}
	return 0, ErrBoxedIn
}
