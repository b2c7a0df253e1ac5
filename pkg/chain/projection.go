package chain

import (
	"github.com/matzehuels/spellchain/pkg/stage"
)

// View is the render-ready projection of one live node.
//
// Handlers are bound to the builder state at the time Project was called.
// A nil handler means the affordance must not be offered: DeleteSingle and
// DeleteCascade are nil for the first node and for nodes already deleting,
// and Select is nil for nodes already deleting.
type View struct {
	ID       string
	Stage    stage.Kind
	Position Position
	// Selected is the value to display, resolved from the completion map.
	Selected *stage.Option
	Deleting bool
	First    bool

	Select        func(optionID string) error
	DeleteSingle  func() error
	DeleteCascade func() error
}

// Project derives a View for every live node in stage order. It does not
// mutate any state.
func (b *Builder) Project() []View {
	nodes := b.graph.Nodes()
	views := make([]View, len(nodes))
	for i, n := range nodes {
		views[i] = b.view(n)
	}
	return views
}

func (b *Builder) view(n Node) View {
	v := View{
		ID:       n.ID,
		Stage:    n.Stage,
		Position: n.Position,
		Selected: b.resolveSelection(n),
		Deleting: n.Deleting,
		First:    n.Stage == stage.First(),
	}
	if n.Deleting {
		return v
	}

	id := n.ID
	v.Select = func(optionID string) error { return b.SelectByID(id, optionID) }
	if !v.First {
		v.DeleteSingle = func() error { return b.DeleteSingle(id) }
		v.DeleteCascade = func() error { return b.DeleteCascade(id) }
	}
	return v
}

// resolveSelection prefers the completion map. A deleting node whose entry has
// already been cleared shows no selection even though the node still carries
// its old value.
func (b *Builder) resolveSelection(n Node) *stage.Option {
	if opt, ok := b.completed[n.ID]; ok {
		return &opt
	}
	if n.Deleting {
		return nil
	}
	return n.Selection
}
