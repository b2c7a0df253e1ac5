package chain

import (
	"github.com/matzehuels/spellchain/pkg/stage"
)

// SummaryEntry is one line of the spell configuration summary.
type SummaryEntry struct {
	NodeID string       `json:"node_id"`
	Stage  stage.Kind   `json:"stage"`
	Option stage.Option `json:"option"`
}

// Summary lists the completion map in stage order.
func (b *Builder) Summary() []SummaryEntry {
	var out []SummaryEntry
	for _, k := range stage.All() {
		id := k.NodeID()
		if opt, ok := b.completed[id]; ok {
			out = append(out, SummaryEntry{NodeID: id, Stage: k, Option: opt})
		}
	}
	return out
}

// Spell is a fully configured chain.
type Spell struct {
	Target         stage.Option `json:"target"`
	MagicSchool    stage.Option `json:"magic_school"`
	ProjectileForm stage.Option `json:"projectile_form"`
}

// Name returns a default display name, e.g. "Fire School Sphere".
func (s Spell) Name() string {
	return s.MagicSchool.Label + " " + s.ProjectileForm.Label
}

// Spell returns the configured spell once every stage has a selection.
func (b *Builder) Spell() (Spell, bool) {
	t, ok1 := b.completed[stage.Target.NodeID()]
	m, ok2 := b.completed[stage.MagicSchool.NodeID()]
	p, ok3 := b.completed[stage.ProjectileForm.NodeID()]
	if !ok1 || !ok2 || !ok3 {
		return Spell{}, false
	}
	return Spell{Target: t, MagicSchool: m, ProjectileForm: p}, true
}
