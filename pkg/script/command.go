package script

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/haivivi/sodg/pkg/encoding"
)

// Ref is a vertex reference inside a command: either a variable ($name)
// or a decimal literal.
type Ref struct {
	// Name is the variable name without the sigil. Empty for literals.
	Name string

	// ID is the literal vertex id. Ignored for variables.
	ID uint32
}

// Var returns a variable reference.
func Var(name string) Ref { return Ref{Name: name} }

// Lit returns a literal reference.
func Lit(id uint32) Ref { return Ref{ID: id} }

// IsVar reports whether r is a variable reference.
func (r Ref) IsVar() bool { return r.Name != "" }

func (r Ref) String() string {
	if r.IsVar() {
		return Sigil + r.Name
	}
	return strconv.FormatUint(uint64(r.ID), 10)
}

// Command is one parsed script command. The set of implementations is
// closed: Add, Bind and Put.
type Command interface {
	fmt.Stringer
	isCommand()
}

// Add creates a vertex.
type Add struct {
	V Ref
}

// Bind creates an edge From → To under Label.
type Bind struct {
	From, To Ref
	Label    string
}

// Put attaches Data to a vertex.
type Put struct {
	V    Ref
	Data []byte
}

func (Add) isCommand()  {}
func (Bind) isCommand() {}
func (Put) isCommand()  {}

func (c Add) String() string { return fmt.Sprintf("ADD(%s)", c.V) }

func (c Bind) String() string { return fmt.Sprintf("BIND(%s, %s, %s)", c.From, c.To, c.Label) }

func (c Put) String() string {
	return fmt.Sprintf("PUT(%s, %s)", c.V, encoding.HexData(c.Data))
}

var (
	lineRe     = regexp.MustCompile(`^([A-Z]+) *\(([^)]*)\)$`)
	dataStrip  = regexp.MustCompile(`[\s-]`)
	dataRe     = regexp.MustCompile(`^(?:[0-9A-Fa-f]{2})+$`)
	commentsRe = regexp.MustCompile(`#[^\n]*`)
)

// ParseCommand parses a single trimmed command such as "BIND(0, $x, foo)".
func ParseCommand(text string) (Command, error) {
	m := lineRe.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("%w: can't parse %q", ErrParse, text)
	}
	var args []string
	for _, a := range strings.Split(m[2], ",") {
		if a = strings.TrimSpace(a); a != "" {
			args = append(args, a)
		}
	}
	switch name := m[1]; name {
	case "ADD":
		if err := arity(name, args, 1); err != nil {
			return nil, err
		}
		v, err := parseRef(args[0])
		if err != nil {
			return nil, err
		}
		return Add{V: v}, nil
	case "BIND":
		if err := arity(name, args, 3); err != nil {
			return nil, err
		}
		from, err := parseRef(args[0])
		if err != nil {
			return nil, err
		}
		to, err := parseRef(args[1])
		if err != nil {
			return nil, err
		}
		return Bind{From: from, To: to, Label: args[2]}, nil
	case "PUT":
		if err := arity(name, args, 2); err != nil {
			return nil, err
		}
		v, err := parseRef(args[0])
		if err != nil {
			return nil, err
		}
		data, err := ParseData(args[1])
		if err != nil {
			return nil, err
		}
		return Put{V: v, Data: data}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
}

func arity(name string, args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("%w: %s expects %d arguments, got %d", ErrParse, name, n, len(args))
	}
	return nil
}

// parseRef parses "$ν1" into a variable and "42" into a literal.
func parseRef(s string) (Ref, error) {
	if name, ok := strings.CutPrefix(s, Sigil); ok {
		if name == "" {
			return Ref{}, fmt.Errorf("%w: empty variable name", ErrParse)
		}
		return Var(name), nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return Ref{}, fmt.Errorf("%w: vertex reference %q: %v", ErrParse, s, err)
	}
	return Lit(uint32(v)), nil
}

// ParseData decodes a hex literal such as "68-65-6C-6C-6F" or "68 65 6c".
// Whitespace and hyphens are ignored; at least one byte is required.
func ParseData(s string) ([]byte, error) {
	d := dataStrip.ReplaceAllString(s, "")
	if !dataRe.MatchString(d) {
		return nil, fmt.Errorf("%w: can't parse data %q", ErrParse, s)
	}
	out, err := hex.DecodeString(d)
	if err != nil {
		return nil, fmt.Errorf("%w: can't parse data %q: %v", ErrParse, s, err)
	}
	return out, nil
}

// split strips comments and returns the trimmed, non-empty commands.
func split(text string) []string {
	clean := commentsRe.ReplaceAllString(text, "")
	var cmds []string
	for _, c := range strings.Split(clean, ";") {
		if c = strings.TrimSpace(c); c != "" {
			cmds = append(cmds, c)
		}
	}
	return cmds
}
