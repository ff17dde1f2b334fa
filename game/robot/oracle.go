// Package robot defines the movement vocabulary shared by the board and its
// drivers, and the Oracle boundary around user-supplied robot programs.
//
// An Oracle is the "robot program": given the robot's local environment it
// decides the next move. Oracles are untrusted. Drivers must call them
// through Decide, which converts panics, bad results, and returned errors
// into a *ProgramError instead of letting them take the process down.
package robot

import (
	"errors"
	"fmt"
)

// Oracle decides the robot's next move from its local environment.
// Implementations may keep their own state between calls (for example a
// remembered heading), but must not touch the board directly.
type Oracle interface {
	NextMove(env Environment) (Move, error)
}

// OracleFunc adapts a plain function to the Oracle interface.
type OracleFunc func(env Environment) (Move, error)

func (f OracleFunc) NextMove(env Environment) (Move, error) {
	return f(env)
}

// ProgramError reports a failure inside a robot program. It is always
// recoverable: the driver reports it and pauses the step cycle.
type ProgramError struct {
	Reason string
	Err    error
}

func (e *ProgramError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("robot program failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("robot program failed: %s", e.Reason)
}

func (e *ProgramError) Unwrap() error {
	return e.Err
}

// Decide invokes oracle with env inside a fault boundary. A nil oracle, a
// returned error, a panic, or a move outside the four directional commands
// all come back as a *ProgramError; a crash never escapes to the caller.
func Decide(oracle Oracle, env Environment) (move Move, err error) {
	if oracle == nil {
		return 0, &ProgramError{Reason: "no program loaded"}
	}

	defer func() {
		if r := recover(); r != nil {
			move = 0
			err = &ProgramError{Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()

	move, oErr := oracle.NextMove(env)
	if oErr != nil {
		var pErr *ProgramError
		if errors.As(oErr, &pErr) {
			return 0, pErr
		}
		return 0, &ProgramError{Reason: "program error", Err: oErr}
	}
	if !move.Valid() {
		return 0, &ProgramError{Reason: fmt.Sprintf("invalid move %d", int(move))}
	}
	return move, nil
}
