package robot

import (
	"fmt"
	"strings"
)

// DefaultProgram names the built-in wall-following oracle.
const DefaultProgram = "wallfollower"

// scriptPrefix marks a program spec that loads a Starlark file.
const scriptPrefix = "script:"

// NewOracle builds an oracle from a program spec: "" or "wallfollower" for
// the built-in wall follower, or "script:<path>" for a Starlark robot
// program on disk.
func NewOracle(program string) (Oracle, error) {
	switch {
	case program == "" || program == DefaultProgram:
		return NewWallFollower(), nil
	case strings.HasPrefix(program, scriptPrefix):
		return LoadScript(strings.TrimPrefix(program, scriptPrefix))
	default:
		return nil, fmt.Errorf("unknown robot program %q", program)
	}
}
