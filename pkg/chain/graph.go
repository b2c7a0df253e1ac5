package chain

import (
	"errors"
	"slices"

	"github.com/matzehuels/spellchain/pkg/stage"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the node ID is empty
	// or does not encode a known stage.
	ErrInvalidNodeID = errors.New("node ID must name a known stage")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when a node with the
	// same ID already exists.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrDuplicateStage is returned by [Graph.AddNode] and [Graph.Validate] when
	// a second node for the same stage would exist.
	ErrDuplicateStage = errors.New("stage already has a node")

	// ErrUnknownSourceNode is returned by [Graph.AddEdge] when the From node
	// does not exist.
	ErrUnknownSourceNode = errors.New("unknown source node")

	// ErrUnknownTargetNode is returned by [Graph.AddEdge] when the To node
	// does not exist.
	ErrUnknownTargetNode = errors.New("unknown target node")

	// ErrInvalidEdgeEndpoint is returned by [Graph.Validate] when an edge
	// references a node that doesn't exist.
	ErrInvalidEdgeEndpoint = errors.New("invalid edge endpoint")

	// ErrNonConsecutiveStages is returned by [Graph.AddEdge] and [Graph.Validate]
	// when an edge would join nodes whose stage orders are not consecutive.
	ErrNonConsecutiveStages = errors.New("edges must connect consecutive stages")
)

// Position is a node's location on the canvas. It is cosmetic.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one block instance in the chain.
type Node struct {
	ID       string        `json:"id"`
	Stage    stage.Kind    `json:"stage"`
	Position Position      `json:"position"`
	// Selection is nil until an option is chosen.
	Selection *stage.Option `json:"selection,omitempty"`
	// Deleting is set while a deferred deletion for the node is outstanding.
	Deleting bool `json:"deleting,omitempty"`
}

// Selected reports whether the node has a selection.
func (n Node) Selected() bool { return n.Selection != nil }

func (n Node) clone() Node {
	if n.Selection != nil {
		sel := *n.Selection
		n.Selection = &sel
	}
	return n
}

// Edge is a directed connection between two nodes of consecutive stages.
type Edge struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// EdgeID returns the deterministic id of the edge from→to.
func EdgeID(from, to string) string {
	return "edge-" + from + "-" + to
}

// Graph stores the chain's nodes and edges.
//
// The zero value is not usable - use NewGraph. Graph is not safe for
// concurrent use.
type Graph struct {
	nodes   map[string]*Node
	byStage map[stage.Kind]string
	edges   []Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		byStage: make(map[stage.Kind]string),
	}
}

// AddNode adds a node. The node's stage is derived from its ID when unset.
// Returns ErrInvalidNodeID, ErrDuplicateNodeID or ErrDuplicateStage.
func (g *Graph) AddNode(n Node) error {
	k, ok := stage.StageOf(n.ID)
	if n.ID == "" || !ok {
		return ErrInvalidNodeID
	}
	if n.Stage.IsZero() {
		n.Stage = k
	}
	if n.Stage != k {
		return ErrInvalidNodeID
	}
	if _, exists := g.nodes[n.ID]; exists {
		return ErrDuplicateNodeID
	}
	if _, exists := g.byStage[n.Stage]; exists {
		return ErrDuplicateStage
	}
	node := n.clone()
	g.nodes[node.ID] = &node
	g.byStage[node.Stage] = node.ID
	return nil
}

// RemoveNode removes the node and every edge touching it. It reports whether
// the node existed.
func (g *Graph) RemoveNode(id string) bool {
	n, ok := g.nodes[id]
	if !ok {
		return false
	}
	delete(g.nodes, id)
	delete(g.byStage, n.Stage)
	g.RemoveEdgesTouching(id)
	return true
}

// AddEdge adds the edge from→to. Adding an existing edge is a no-op.
// Returns ErrUnknownSourceNode, ErrUnknownTargetNode or
// ErrNonConsecutiveStages.
func (g *Graph) AddEdge(from, to string) error {
	src, ok := g.nodes[from]
	if !ok {
		return ErrUnknownSourceNode
	}
	dst, ok := g.nodes[to]
	if !ok {
		return ErrUnknownTargetNode
	}
	if !stage.Consecutive(src.Stage, dst.Stage) {
		return ErrNonConsecutiveStages
	}
	if g.HasEdge(from, to) {
		return nil
	}
	g.edges = append(g.edges, Edge{ID: EdgeID(from, to), From: from, To: to})
	return nil
}

// HasEdge reports whether the edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	return slices.ContainsFunc(g.edges, func(e Edge) bool { return e.From == from && e.To == to })
}

// RemoveEdgesTouching removes every edge with an endpoint in ids.
func (g *Graph) RemoveEdgesTouching(ids ...string) {
	g.edges = slices.DeleteFunc(g.edges, func(e Edge) bool {
		return slices.Contains(ids, e.From) || slices.Contains(ids, e.To)
	})
}

// Reconnect rebuilds the edge set from scratch. Nodes are sorted by stage
// order and each adjacent pair is joined only when their orders differ by
// exactly one; pairs separated by a gap stay disconnected.
func (g *Graph) Reconnect() {
	sorted := g.sorted()
	g.edges = g.edges[:0]
	for i := 0; i+1 < len(sorted); i++ {
		a, b := sorted[i], sorted[i+1]
		if stage.Consecutive(a.Stage, b.Stage) {
			g.edges = append(g.edges, Edge{ID: EdgeID(a.ID, b.ID), From: a.ID, To: b.ID})
		}
	}
}

// Node returns the node with the given ID. The returned pointer refers to the
// stored node, so modifications affect the graph.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// NodeForStage returns the node of the given stage, if any.
func (g *Graph) NodeForStage(k stage.Kind) (*Node, bool) {
	id, ok := g.byStage[k]
	if !ok {
		return nil, false
	}
	return g.Node(id)
}

// Nodes returns copies of all nodes sorted by stage order.
func (g *Graph) Nodes() []Node {
	sorted := g.sorted()
	out := make([]Node, len(sorted))
	for i, n := range sorted {
		out[i] = n.clone()
	}
	return out
}

// Edges returns a copy of all edges in insertion order.
func (g *Graph) Edges() []Edge { return slices.Clone(g.edges) }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

func (g *Graph) sorted() []*Node {
	nodes := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, n)
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return a.Stage.Order() - b.Stage.Order() })
	return nodes
}

// Validate checks graph integrity and returns nil if valid:
//
//  1. At most one node exists per stage
//  2. Every edge joins two existing nodes whose stage orders are consecutive
func (g *Graph) Validate() error {
	seen := make(map[stage.Kind]bool, len(g.nodes))
	for _, n := range g.nodes {
		if seen[n.Stage] {
			return ErrDuplicateStage
		}
		seen[n.Stage] = true
	}
	for _, e := range g.edges {
		src, okS := g.nodes[e.From]
		dst, okD := g.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
		if !stage.Consecutive(src.Stage, dst.Stage) {
			return ErrNonConsecutiveStages
		}
	}
	return nil
}
