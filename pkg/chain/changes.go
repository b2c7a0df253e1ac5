package chain

// ChangeType identifies a generic structural edit reported by a canvas.
type ChangeType string

const (
	ChangeAdd    ChangeType = "add"
	ChangeMove   ChangeType = "move"
	ChangeRemove ChangeType = "remove"
	ChangeSelect ChangeType = "select"
)

// NodeChange is one edit from the canvas's node change stream.
type NodeChange struct {
	Type     ChangeType `json:"type"`
	ID       string     `json:"id"`
	Position *Position  `json:"position,omitempty"`
}

// EdgeChange is one edit from the canvas's edge change stream.
type EdgeChange struct {
	Type ChangeType `json:"type"`
	ID   string     `json:"id"`
}

// ApplyNodeChanges merges canvas edits into the authoritative node list.
// Moves of live nodes update their position. Structural adds and removes are
// ignored because nodes are created and destroyed only by the reconciler.
// It returns the number of changes applied.
func (b *Builder) ApplyNodeChanges(changes []NodeChange) int {
	applied := 0
	for _, c := range changes {
		switch c.Type {
		case ChangeMove:
			n, ok := b.graph.Node(c.ID)
			if !ok || c.Position == nil {
				b.logger.Debug("move ignored", "node", c.ID)
				continue
			}
			n.Position = *c.Position
			applied++
		case ChangeSelect:
		default:
			b.logger.Debug("canvas node change ignored", "type", c.Type, "node", c.ID)
		}
	}
	return applied
}

// ApplyEdgeChanges accepts the canvas's edge change stream. Edges are derived
// from which consecutive nodes co-exist, so every structural edit is ignored.
// It returns the number of changes applied, which is always zero.
func (b *Builder) ApplyEdgeChanges(changes []EdgeChange) int {
	for _, c := range changes {
		if c.Type != ChangeSelect {
			b.logger.Debug("canvas edge change ignored", "type", c.Type, "edge", c.ID)
		}
	}
	return 0
}
