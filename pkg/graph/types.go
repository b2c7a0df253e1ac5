package graph

import (
	"fmt"

	"github.com/matzehuels/spellchain/pkg/chain"
	"github.com/matzehuels/spellchain/pkg/stage"
)

// =============================================================================
// Graph - Chain Snapshot
// =============================================================================

// Graph is the canonical serialization format for a spell chain.
// Used for API responses, the render command and cross-tool compatibility.
//
// A Graph is a read-only snapshot: node selections are the resolved values a
// renderer should display, not the raw node state.
type Graph struct {
	ID      string         `json:"id,omitempty"`
	Nodes   []Node         `json:"nodes"`
	Edges   []Edge         `json:"edges"`
	Summary []SummaryEntry `json:"summary,omitempty"`
	Spell   *Spell         `json:"spell,omitempty"`
}

// =============================================================================
// Node, Edge
// =============================================================================

// Node is one block in the snapshot.
type Node struct {
	ID       string        `json:"id"`
	Stage    stage.Kind    `json:"stage"`
	Title    string        `json:"title"`
	X        float64       `json:"x"`
	Y        float64       `json:"y"`
	Selected *stage.Option `json:"selected,omitempty"`
	Deleting bool          `json:"deleting,omitempty"`
	First    bool          `json:"first,omitempty"`
}

// DisplayLabel returns the stage title, followed by the selected option when
// there is one.
func (n *Node) DisplayLabel() string {
	if n.Selected == nil {
		return n.Title
	}
	return n.Title + ": " + n.Selected.String()
}

// Edge is a directed connection between consecutive blocks.
type Edge struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// SummaryEntry is one configured stage.
type SummaryEntry struct {
	Node   string       `json:"node"`
	Stage  stage.Kind   `json:"stage"`
	Option stage.Option `json:"option"`
}

// Spell is the completed spell with its display name.
type Spell struct {
	Name string `json:"name"`
	chain.Spell
}

// =============================================================================
// Builder → Graph Conversion
// =============================================================================

// FromBuilder snapshots the builder. Nodes appear in stage order with their
// resolved selections.
func FromBuilder(b *chain.Builder) Graph {
	views := b.Project()
	edges := b.Edges()

	out := Graph{
		ID:    b.ID().String(),
		Nodes: make([]Node, len(views)),
		Edges: make([]Edge, len(edges)),
	}
	for i, v := range views {
		out.Nodes[i] = Node{
			ID:       v.ID,
			Stage:    v.Stage,
			Title:    v.Stage.Title(),
			X:        v.Position.X,
			Y:        v.Position.Y,
			Selected: v.Selected,
			Deleting: v.Deleting,
			First:    v.First,
		}
	}
	for i, e := range edges {
		out.Edges[i] = Edge{ID: e.ID, From: e.From, To: e.To}
	}
	for _, s := range b.Summary() {
		out.Summary = append(out.Summary, SummaryEntry{Node: s.NodeID, Stage: s.Stage, Option: s.Option})
	}
	if sp, ok := b.Spell(); ok {
		out.Spell = &Spell{Name: sp.Name(), Spell: sp}
	}
	return out
}

// Validate checks a decoded snapshot: every node must belong to a known stage
// with at most one node per stage, and every edge must join consecutive
// stages present in the snapshot.
func (g Graph) Validate() error {
	byID := make(map[string]stage.Kind, len(g.Nodes))
	seen := make(map[stage.Kind]bool, len(g.Nodes))
	for _, n := range g.Nodes {
		k, ok := stage.StageOf(n.ID)
		if !ok || (!n.Stage.IsZero() && n.Stage != k) {
			return fmt.Errorf("node %q: %w", n.ID, chain.ErrInvalidNodeID)
		}
		if seen[k] {
			return fmt.Errorf("node %q: %w", n.ID, chain.ErrDuplicateStage)
		}
		seen[k] = true
		byID[n.ID] = k
	}
	for _, e := range g.Edges {
		from, okF := byID[e.From]
		to, okT := byID[e.To]
		if !okF || !okT {
			return fmt.Errorf("edge %s→%s: %w", e.From, e.To, chain.ErrInvalidEdgeEndpoint)
		}
		if !stage.Consecutive(from, to) {
			return fmt.Errorf("edge %s→%s: %w", e.From, e.To, chain.ErrNonConsecutiveStages)
		}
	}
	return nil
}
