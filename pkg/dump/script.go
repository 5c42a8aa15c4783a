package dump

import (
	"strings"

	"github.com/haivivi/sodg/pkg/script"
	"github.com/haivivi/sodg/pkg/sodg"
)

// Commands renders g as deployment script commands with literal ids:
// every ADD first, then each vertex's BINDs in binding order and its PUT.
// Deploying them with the default root rebuilds g, allocator aside.
// Empty payloads have no script form and are left out; see EmptyPayloads.
func Commands(g *sodg.Graph) []script.Command {
	ids := g.Vertices()
	cmds := make([]script.Command, 0, len(ids)*2)
	for _, id := range ids {
		cmds = append(cmds, script.Add{V: script.Lit(id)})
	}
	for _, id := range ids {
		kids, _ := g.Kids(id)
		for _, e := range kids {
			cmds = append(cmds, script.Bind{From: script.Lit(id), To: script.Lit(e.To), Label: e.Label})
		}
		if data, err := g.Data(id); err == nil && len(data) > 0 {
			cmds = append(cmds, script.Put{V: script.Lit(id), Data: data})
		}
	}
	return cmds
}

// EmptyPayloads returns the vertices holding a zero-length payload, in
// ascending order. Commands cannot express them, so a graph with any of
// these does not survive a trip through Script unchanged.
func EmptyPayloads(g *sodg.Graph) []uint32 {
	var ids []uint32
	for _, id := range g.Vertices() {
		if data, err := g.Data(id); err == nil && len(data) == 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

// Script is Commands joined into one command per line.
func Script(g *sodg.Graph) string {
	var b strings.Builder
	for _, c := range Commands(g) {
		b.WriteString(c.String())
		b.WriteString(";\n")
	}
	return b.String()
}
