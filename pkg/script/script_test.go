package script_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/haivivi/sodg/pkg/script"
	"github.com/haivivi/sodg/pkg/sodg"
)

func TestSimpleCommand(t *testing.T) {
	g := sodg.Empty()
	s := script.New(`
		ADD(0);  ADD($ν1); # adding two vertices
		BIND(0, $ν1, foo  );
		PUT($ν1  , d0-bf-D1-80-d0-B8-d0-b2-d0-b5-d1-82);
	`)
	total, err := s.Deploy(g)
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if total != 4 {
		t.Fatalf("Deploy = %d, want 4", total)
	}
	got, err := g.Data(1)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "привет" {
		t.Fatalf("Data(1) = %q, want привет", got)
	}
	if to, _ := g.Kid(0, "foo"); to != 1 {
		t.Fatalf("Kid(0, foo) = %d, want 1", to)
	}
}

func TestDeployHello(t *testing.T) {
	g := sodg.Empty()
	s := script.New("ADD(0); ADD($x); BIND(0, $x, foo); PUT($x, 68-65-6c-6c-6f)")
	n, err := s.Deploy(g)
	if err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if n != 4 {
		t.Fatalf("Deploy = %d, want 4", n)
	}
	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}
	x, ok := g.Kid(0, "foo")
	if !ok {
		t.Fatal("expected edge 0 → $x labeled foo")
	}
	if x != s.Vars()["x"] {
		t.Fatalf("Kid(0, foo) = %d, but $x = %d", x, s.Vars()["x"])
	}
	got, err := g.Data(x)
	if err != nil || string(got) != "hello" {
		t.Fatalf("Data(%d) = %q, %v; want hello", x, got, err)
	}
}

func TestDeployToAnotherRoot(t *testing.T) {
	g := sodg.Empty()
	if err := g.Add(42); err != nil {
		t.Fatal(err)
	}
	s := script.New(`
		ADD($ν1);
		BIND(0, $ν1, foo);
	`)
	s.SetRoot(42)
	if _, err := s.Deploy(g); err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	if to, _ := g.Kid(42, "foo"); to != 43 {
		t.Fatalf("Kid(42, foo) = %d, want 43", to)
	}
	if g.Has(0) {
		t.Fatal("literal 0 must resolve to the root, not vertex 0")
	}
}

func TestVariableReuse(t *testing.T) {
	g := sodg.Empty()
	s := script.New("ADD(0); ADD($a); ADD($b); BIND(0, $a, x); BIND($a, $b, y); BIND($b, $a, z)")
	if _, err := s.Deploy(g); err != nil {
		t.Fatalf("Deploy: %v", err)
	}
	a, _ := g.Kid(0, "x")
	b, _ := g.Kid(a, "y")
	if back, _ := g.Kid(b, "z"); back != a {
		t.Fatalf("$a resolved to %d and %d", a, back)
	}
	if a == b {
		t.Fatalf("$a and $b share id %d", a)
	}
}

func TestFreshVariablesPerRun(t *testing.T) {
	s := script.New("ADD(0); ADD($x); BIND(0, $x, foo)")
	g1 := sodg.Empty()
	if _, err := s.Deploy(g1); err != nil {
		t.Fatal(err)
	}
	g2 := sodg.Empty()
	if err := g2.Add(10); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Deploy(g2); err != nil {
		t.Fatalf("second Deploy: %v", err)
	}
	if to, _ := g2.Kid(0, "foo"); to != 11 {
		t.Fatalf("Kid(0, foo) = %d, want 11", to)
	}
}

func TestFailFast(t *testing.T) {
	g := sodg.Empty()
	s := script.New("ADD(0); BIND(0 1 foo; ADD(5)")
	n, err := s.Deploy(g)
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 1 {
		t.Fatalf("Deploy applied %d commands, want 1", n)
	}
	var ce *script.CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CommandError, got %T", err)
	}
	if ce.Pos != 2 {
		t.Fatalf("Pos = %d, want 2", ce.Pos)
	}
	if ce.Text != "BIND(0 1 foo" {
		t.Fatalf("Text = %q", ce.Text)
	}
	if !strings.Contains(err.Error(), "no.2") || !strings.Contains(err.Error(), "BIND(0 1 foo") {
		t.Fatalf("error %q does not name the command", err)
	}
	if !errors.Is(err, script.ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
	if !g.Has(0) {
		t.Fatal("first command must stay applied")
	}
	if g.Has(5) {
		t.Fatal("commands after the failure must not run")
	}
}

func TestDeployErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{"unknown command", "ADD(0); DROP(0)", script.ErrUnknownCommand},
		{"lowercase name", "add(0)", script.ErrParse},
		{"bad reference", "ADD(x1)", script.ErrParse},
		{"negative reference", "ADD(-1)", script.ErrParse},
		{"empty variable", "ADD($)", script.ErrParse},
		{"odd hex", "ADD(0); PUT(0, ABC)", script.ErrParse},
		{"non-hex", "ADD(0); PUT(0, ZZ)", script.ErrParse},
		{"missing args", "BIND(0, 1)", script.ErrParse},
		{"too many args", "ADD(0, 1)", script.ErrParse},
		{"duplicate vertex", "ADD(0); ADD(0)", sodg.ErrVertexExists},
		{"bind to missing", "ADD(0); BIND(0, 7, foo)", sodg.ErrVertexNotFound},
		{"put to missing", "PUT(3, FF)", sodg.ErrVertexNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := script.New(tt.text).Deploy(sodg.Empty())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Deploy(%q) = %v, want %v", tt.text, err, tt.want)
			}
		})
	}
}

func TestCommands(t *testing.T) {
	s := script.New(`
		# header comment
		ADD(0); ADD($x);
		BIND(0, $x, foo);
		PUT($x, de ad-BE EF); # trailing`)
	cmds, err := s.Commands()
	if err != nil {
		t.Fatalf("Commands: %v", err)
	}
	want := []string{
		"ADD(0)",
		"ADD($x)",
		"BIND(0, $x, foo)",
		"PUT($x, DE-AD-BE-EF)",
	}
	if len(cmds) != len(want) {
		t.Fatalf("got %d commands, want %d", len(cmds), len(want))
	}
	for i, c := range cmds {
		if c.String() != want[i] {
			t.Errorf("cmds[%d] = %s, want %s", i, c, want[i])
		}
	}
	put, ok := cmds[3].(script.Put)
	if !ok {
		t.Fatalf("cmds[3] is %T, want script.Put", cmds[3])
	}
	if string(put.Data) != "\xde\xad\xbe\xef" {
		t.Fatalf("Put.Data = %x", put.Data)
	}
}

func TestCommandsReportsPosition(t *testing.T) {
	_, err := script.New("ADD(0);;ADD(1); NOPE(2)").Commands()
	var ce *script.CommandError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *CommandError, got %v", err)
	}
	if ce.Pos != 3 || ce.Text != "NOPE(2)" {
		t.Fatalf("CommandError = %d %q, want 3 NOPE(2)", ce.Pos, ce.Text)
	}
	if !errors.Is(err, script.ErrUnknownCommand) {
		t.Fatalf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestParseData(t *testing.T) {
	got, err := script.ParseData("68-65 6C\t6c-6F")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("ParseData = %q, want hello", got)
	}
	if _, err := script.ParseData("--"); !errors.Is(err, script.ErrParse) {
		t.Fatalf("expected ErrParse for empty data, got %v", err)
	}
}

func TestEmptyScript(t *testing.T) {
	n, err := script.New("  ; # nothing here\n ;").Deploy(sodg.Empty())
	if err != nil || n != 0 {
		t.Fatalf("Deploy = %d, %v; want 0, nil", n, err)
	}
}
