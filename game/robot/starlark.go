package robot

import (
	"fmt"
	"sync"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// scriptFileOptions mirrors the dialect options we allow user scripts:
// assignment statements, while loops, and top-level control flow, so robot
// programs can keep mutable state in module-level dicts.
var scriptFileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

// ScriptOracle runs a user-authored Starlark robot program. The script must
// define a function
//
//	def get_move(env):
//	    ...
//
// where env is a dict with boolean entries "front", "right", "back", and
// "left", and the return value is one of the direction names accepted by
// ParseMove. Module-level state in the script survives across steps, so
// programs can remember a heading the way the built-in WallFollower does.
//
// Reload re-executes the script from disk, which is how user edits are
// hot-swapped into a running driver. Script failures of any kind surface as
// ordinary errors and are absorbed by Decide's fault boundary.
type ScriptOracle struct {
	path string

	mu     sync.Mutex
	getter starlark.Callable
}

// LoadScript parses and executes the Starlark program at path and wires up
// its get_move function.
func LoadScript(path string) (*ScriptOracle, error) {
	o := &ScriptOracle{path: path}
	if err := o.Reload(); err != nil {
		return nil, err
	}
	return o, nil
}

// Path returns the script's file path.
func (o *ScriptOracle) Path() string {
	return o.path
}

// Reload re-executes the script from disk, replacing the previous program
// and resetting any module-level state it kept. On failure the previous
// program stays in place.
func (o *ScriptOracle) Reload() error {
	// Init without freezing the module globals, so programs can mutate
	// module-level state (a remembered heading, a step counter) across calls.
	_, prog, err := starlark.SourceProgramOptions(scriptFileOptions, o.path, nil, func(string) bool { return false })
	if err != nil {
		return fmt.Errorf("load robot script %s: %w", o.path, err)
	}
	thread := &starlark.Thread{Name: "robot-program"}
	globals, err := prog.Init(thread, nil)
	if err != nil {
		return fmt.Errorf("load robot script %s: %w", o.path, err)
	}

	getter, ok := globals["get_move"].(starlark.Callable)
	if !ok {
		return fmt.Errorf("robot script %s does not define get_move(env)", o.path)
	}

	o.mu.Lock()
	o.getter = getter
	o.mu.Unlock()
	return nil
}

// NextMove calls the script's get_move with the current environment.
func (o *ScriptOracle) NextMove(env Environment) (Move, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	envDict := starlark.NewDict(4)
	envDict.SetKey(starlark.String("front"), starlark.Bool(env.Front))
	envDict.SetKey(starlark.String("right"), starlark.Bool(env.Right))
	envDict.SetKey(starlark.String("back"), starlark.Bool(env.Back))
	envDict.SetKey(starlark.String("left"), starlark.Bool(env.Left))

	thread := &starlark.Thread{Name: "robot-step"}
	result, err := starlark.Call(thread, o.getter, starlark.Tuple{envDict}, nil)
	if err != nil {
		return 0, fmt.Errorf("get_move: %w", err)
	}

	name, ok := starlark.AsString(result)
	if !ok {
		return 0, fmt.Errorf("get_move returned %s, want a direction string", result.Type())
	}
	return ParseMove(name)
}
