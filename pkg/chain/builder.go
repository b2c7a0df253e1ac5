package chain

import (
	"context"
	"io"
	"maps"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	errs "github.com/matzehuels/spellchain/pkg/errors"
	"github.com/matzehuels/spellchain/pkg/observability"
	"github.com/matzehuels/spellchain/pkg/stage"
)

// Default timing and layout values.
const (
	DefaultDeleteDelay = 400 * time.Millisecond
	DefaultStaggerStep = 100 * time.Millisecond
	DefaultNodeOffset  = 300.0
)

// DefaultOrigin is where the permanent first node is placed.
var DefaultOrigin = Position{X: 50, Y: 200}

// Delete modes reported to hooks and logs.
const (
	ModeSingle  = "single"
	ModeCascade = "cascade"
)

// Options configures a Builder. Zero values select the defaults.
type Options struct {
	// Scheduler runs deferred deletions. Defaults to a new Timeline.
	Scheduler Scheduler
	// Logger receives debug and info output. Defaults to a discarding logger.
	Logger *log.Logger
	// Context is passed to observability hooks.
	Context context.Context

	DeleteDelay time.Duration
	StaggerStep time.Duration
	// NodeOffset is the horizontal distance between a node and its successor.
	NodeOffset float64
	// Origin is the position of the permanent first node.
	Origin *Position
}

// Builder is the chain reconciler. It owns the graph and the completion map
// and is their only mutator.
type Builder struct {
	id        uuid.UUID
	graph     *Graph
	completed map[string]stage.Option

	sched       Scheduler
	logger      *log.Logger
	ctx         context.Context
	deleteDelay time.Duration
	staggerStep time.Duration
	nodeOffset  float64
}

// New creates a builder holding only the permanent first node.
func New(opts Options) *Builder {
	b := &Builder{
		id:          uuid.New(),
		graph:       NewGraph(),
		completed:   make(map[string]stage.Option),
		sched:       opts.Scheduler,
		logger:      opts.Logger,
		ctx:         opts.Context,
		deleteDelay: opts.DeleteDelay,
		staggerStep: opts.StaggerStep,
		nodeOffset:  opts.NodeOffset,
	}
	if b.sched == nil {
		b.sched = NewTimeline()
	}
	if b.logger == nil {
		b.logger = log.New(io.Discard)
	}
	if b.ctx == nil {
		b.ctx = context.Background()
	}
	if b.deleteDelay <= 0 {
		b.deleteDelay = DefaultDeleteDelay
	}
	if b.staggerStep <= 0 {
		b.staggerStep = DefaultStaggerStep
	}
	if b.nodeOffset == 0 {
		b.nodeOffset = DefaultNodeOffset
	}
	origin := DefaultOrigin
	if opts.Origin != nil {
		origin = *opts.Origin
	}
	b.logger = b.logger.With("chain", b.id.String()[:8])

	first := stage.First()
	_ = b.graph.AddNode(Node{ID: first.NodeID(), Stage: first, Position: origin})
	return b
}

// ID returns the builder's session id.
func (b *Builder) ID() uuid.UUID { return b.id }

// FirstID returns the id of the permanent first node.
func (b *Builder) FirstID() string { return stage.First().NodeID() }

// Nodes returns copies of the live nodes in stage order.
func (b *Builder) Nodes() []Node { return b.graph.Nodes() }

// Edges returns a copy of the current edges.
func (b *Builder) Edges() []Edge { return b.graph.Edges() }

// Node returns a copy of the node with the given id.
func (b *Builder) Node(id string) (Node, bool) {
	n, ok := b.graph.Node(id)
	if !ok {
		return Node{}, false
	}
	return n.clone(), true
}

// Completed returns a copy of the completion map.
func (b *Builder) Completed() map[string]stage.Option { return maps.Clone(b.completed) }

// Validate checks the graph and the completion map against each other.
func (b *Builder) Validate() error {
	if err := b.graph.Validate(); err != nil {
		return err
	}
	for id := range b.completed {
		if _, ok := b.graph.Node(id); !ok {
			return errs.New(errs.ErrCodeInternal, "completion entry for missing node %s", id)
		}
	}
	return nil
}

// =============================================================================
// Select
// =============================================================================

// SelectByID resolves optionID within the node's stage and selects it.
func (b *Builder) SelectByID(nodeID, optionID string) error {
	n, ok := b.graph.Node(nodeID)
	if !ok {
		return b.reject("select", nodeID, errs.New(errs.ErrCodeNodeNotFound, "node %s does not exist", nodeID))
	}
	opt, ok := n.Stage.Option(optionID)
	if !ok {
		return b.reject("select", nodeID, errs.New(errs.ErrCodeInvalidOption, "%s is not a %s option", optionID, n.Stage.Title()))
	}
	return b.Select(nodeID, opt)
}

// Select records opt as the node's selection. If the next stage has no node
// yet, one is created beside the current node; the connecting edge is added
// whenever the next node exists and the edge does not. Existing downstream
// nodes and their selections are never touched.
func (b *Builder) Select(nodeID string, opt stage.Option) error {
	n, ok := b.graph.Node(nodeID)
	if !ok {
		return b.reject("select", nodeID, errs.New(errs.ErrCodeNodeNotFound, "node %s does not exist", nodeID))
	}
	if !n.Stage.HasOption(opt) {
		return b.reject("select", nodeID, errs.New(errs.ErrCodeInvalidOption, "%s is not a %s option", opt.ID, n.Stage.Title()))
	}
	if n.Deleting {
		return b.reject("select", nodeID, errs.New(errs.ErrCodeInvalidOperation, "node %s is being deleted", nodeID))
	}

	sel := opt
	n.Selection = &sel
	b.completed[nodeID] = opt

	grew := false
	if next, ok := stage.Next(n.Stage); ok {
		nextID := next.NodeID()
		if _, exists := b.graph.Node(nextID); !exists {
			pos := Position{X: n.Position.X + b.nodeOffset, Y: n.Position.Y}
			if err := b.graph.AddNode(Node{ID: nextID, Stage: next, Position: pos}); err != nil {
				return errs.Wrap(errs.ErrCodeInternal, err, "add %s", nextID)
			}
			grew = true
		}
		if err := b.graph.AddEdge(nodeID, nextID); err != nil {
			return errs.Wrap(errs.ErrCodeInternal, err, "connect %s to %s", nodeID, nextID)
		}
	}

	b.logger.Debug("selected", "node", nodeID, "option", opt.ID, "grew", grew)
	observability.Chain().OnSelect(b.ctx, nodeID, opt.ID, grew)
	return nil
}

// =============================================================================
// Delete
// =============================================================================

// DeleteSingle marks the node as deleting and, after the delete delay, removes
// it together with its completion entry and edges, then rebuilds the edge set.
// Lower-stage nodes survive and stay disconnected if a gap remains.
func (b *Builder) DeleteSingle(nodeID string) error {
	n, err := b.deletable(ModeSingle, nodeID)
	if err != nil {
		return err
	}
	n.Deleting = true

	b.logger.Debug("delete scheduled", "node", nodeID, "mode", ModeSingle, "delay", b.deleteDelay)
	observability.Chain().OnDeleteStart(b.ctx, nodeID, ModeSingle, 1)
	b.sched.Schedule(deleteKey(nodeID), b.deleteDelay, func() { b.finishSingle(nodeID) })
	return nil
}

func (b *Builder) finishSingle(nodeID string) {
	if _, ok := b.graph.Node(nodeID); !ok {
		b.logger.Debug("deferred delete skipped, node already gone", "node", nodeID)
		return
	}
	delete(b.completed, nodeID)
	b.graph.RemoveNode(nodeID)
	b.graph.Reconnect()

	b.logger.Info("block removed", "node", nodeID, "nodes", b.graph.NodeCount(), "edges", b.graph.EdgeCount())
	observability.Chain().OnDeleteComplete(b.ctx, ModeSingle, []string{nodeID}, b.graph.EdgeCount())
}

// DeleteCascade removes the node and every node at an equal or later stage.
// All of them are marked deleting at once; their completion entries are
// cleared one stagger step apart, and after the last step plus the delete
// delay the nodes and every edge touching them are removed.
func (b *Builder) DeleteCascade(nodeID string) error {
	root, err := b.deletable(ModeCascade, nodeID)
	if err != nil {
		return err
	}

	var toDelete []string
	for _, n := range b.graph.sorted() {
		if n.Stage.Order() >= root.Stage.Order() {
			n.Deleting = true
			toDelete = append(toDelete, n.ID)
		}
	}

	for i, id := range toDelete {
		b.sched.Schedule(clearKey(id), time.Duration(i)*b.staggerStep, func() {
			delete(b.completed, id)
		})
	}
	total := time.Duration(len(toDelete))*b.staggerStep + b.deleteDelay

	b.logger.Debug("cascade scheduled", "node", nodeID, "blocks", toDelete, "delay", total)
	observability.Chain().OnDeleteStart(b.ctx, nodeID, ModeCascade, len(toDelete))
	b.sched.Schedule(cascadeKey(nodeID), total, func() { b.finishCascade(toDelete) })
	return nil
}

func (b *Builder) finishCascade(toDelete []string) {
	b.graph.RemoveEdgesTouching(toDelete...)

	var removed []string
	for _, id := range toDelete {
		delete(b.completed, id)
		if b.graph.RemoveNode(id) {
			removed = append(removed, id)
		}
	}

	b.logger.Info("blocks removed", "nodes", removed, "remaining", b.graph.NodeCount())
	observability.Chain().OnDeleteComplete(b.ctx, ModeCascade, removed, b.graph.EdgeCount())
}

func (b *Builder) deletable(mode, nodeID string) (*Node, error) {
	n, ok := b.graph.Node(nodeID)
	if !ok {
		return nil, b.reject(mode, nodeID, errs.New(errs.ErrCodeNodeNotFound, "node %s does not exist", nodeID))
	}
	if n.Stage == stage.First() {
		return nil, b.reject(mode, nodeID, errs.New(errs.ErrCodeInvalidOperation, "node %s is permanent", nodeID))
	}
	if n.Deleting {
		return nil, b.reject(mode, nodeID, errs.New(errs.ErrCodeInvalidOperation, "node %s is already being deleted", nodeID))
	}
	return n, nil
}

func (b *Builder) reject(op, nodeID string, err *errs.Error) error {
	b.logger.Debug("rejected", "op", op, "node", nodeID, "err", err.Message)
	observability.Chain().OnRejected(b.ctx, op, nodeID, err)
	return err
}

func deleteKey(id string) string  { return "delete/" + id }
func clearKey(id string) string   { return "clear/" + id }
func cascadeKey(id string) string { return "cascade/" + id }
