// Package script implements the deployment script: a small textual DSL
// that builds a graph incrementally.
//
// A script is a sequence of commands separated by ';':
//
//	ADD(0); ADD($x);          # comments run to the end of the line
//	BIND(0, $x, foo);
//	PUT($x, 68-65-6c-6c-6f);
//
// Vertex references are either decimal literals or variables ($name).
// A variable is allocated once per run from the target's NextID and reused
// on every later occurrence. The literal 0 is replaced by the script root
// (see [Script.SetRoot]), so one script can be deployed under different
// anchors.
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"maps"
)

// Sigil prefixes variable references.
const Sigil = "$"

// Sentinel errors.
var (
	// ErrParse is returned when a command, a vertex reference or a hex
	// literal is malformed.
	ErrParse = errors.New("script: parse error")

	// ErrUnknownCommand is returned for a well-formed command whose name
	// is not ADD, BIND or PUT.
	ErrUnknownCommand = errors.New("script: unknown command")
)

// CommandError reports the first command that failed during Deploy or
// Parse. Pos is 1-based.
type CommandError struct {
	Pos  int
	Text string
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("script: failure at command no.%d '%s': %v", e.Pos, e.Text, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Target is the part of a graph store that a script writes to.
// *sodg.Graph satisfies it.
type Target interface {
	Add(v uint32) error
	Bind(v1, v2 uint32, label string) error
	Put(v uint32, data []byte) error
	NextID() uint32
}

// Script is a deployment script. The zero root is 0.
type Script struct {
	text string
	root uint32
	vars map[string]uint32
}

// New creates a script from its text.
func New(text string) *Script {
	return &Script{text: text}
}

// SetRoot sets the vertex id that replaces the literal 0.
func (s *Script) SetRoot(v uint32) {
	s.root = v
}

// Root returns the configured root.
func (s *Script) Root() uint32 {
	return s.root
}

// Text returns the script source.
func (s *Script) Text() string {
	return s.text
}

// Commands parses every command without deploying anything.
func (s *Script) Commands() ([]Command, error) {
	texts := split(s.text)
	cmds := make([]Command, 0, len(texts))
	for i, text := range texts {
		c, err := ParseCommand(text)
		if err != nil {
			return nil, &CommandError{Pos: i + 1, Text: text, Err: err}
		}
		cmds = append(cmds, c)
	}
	return cmds, nil
}

// Vars returns the variable table of the most recent Deploy.
func (s *Script) Vars() map[string]uint32 {
	return maps.Clone(s.vars)
}

// Deploy applies the commands to g in order and returns how many were
// applied. It stops at the first failing command and returns a
// *CommandError; commands before it stay applied.
//
// Every call starts with a fresh variable table.
func (s *Script) Deploy(g Target) (int, error) {
	s.vars = make(map[string]uint32)
	texts := split(s.text)
	for i, text := range texts {
		slog.Debug("script: deploying", "pos", i+1, "cmd", text)
		c, err := ParseCommand(text)
		if err == nil {
			err = s.apply(c, g)
		}
		if err != nil {
			return i, &CommandError{Pos: i + 1, Text: text, Err: err}
		}
	}
	return len(texts), nil
}

func (s *Script) apply(c Command, g Target) error {
	switch c := c.(type) {
	case Add:
		if err := g.Add(s.resolve(c.V, g)); err != nil {
			return fmt.Errorf("failed to ADD(%s): %w", c.V, err)
		}
	case Bind:
		from := s.resolve(c.From, g)
		to := s.resolve(c.To, g)
		if err := g.Bind(from, to, c.Label); err != nil {
			return fmt.Errorf("failed to BIND(%s, %s, %s): %w", c.From, c.To, c.Label, err)
		}
	case Put:
		if err := g.Put(s.resolve(c.V, g), c.Data); err != nil {
			return fmt.Errorf("failed to PUT(%s): %w", c.V, err)
		}
	default:
		return fmt.Errorf("%w: %T", ErrUnknownCommand, c)
	}
	return nil
}

func (s *Script) resolve(r Ref, g Target) uint32 {
	if r.IsVar() {
		if v, ok := s.vars[r.Name]; ok {
			return v
		}
		v := g.NextID()
		s.vars[r.Name] = v
		return v
	}
	if r.ID == 0 {
		return s.root
	}
	return r.ID
}
