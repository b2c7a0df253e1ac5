package stage

import (
	"fmt"
	"strings"
)

// Option is one selectable choice within a stage.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Icon  string `json:"icon"`
}

// String returns the icon and label, e.g. "🔥 Fire School".
func (o Option) String() string {
	return o.Icon + " " + o.Label
}

// Kind identifies one of the fixed stages. The zero value is not a valid
// stage; use the package-level kinds.
type Kind struct {
	tag   string
	order int
}

// Stage kinds in sequence order.
var (
	Target         = Kind{tag: "target", order: 0}
	MagicSchool    = Kind{tag: "magicSchool", order: 1}
	ProjectileForm = Kind{tag: "projectileForm", order: 2}
)

// InstanceSuffix is appended to the stage tag to build node ids. Only one
// instance per stage exists, so it is always "1".
const InstanceSuffix = "1"

type descriptor struct {
	kind    Kind
	title   string
	icon    string
	options []Option
}

var catalog = []descriptor{
	{
		kind:  Target,
		title: "Target",
		icon:  "🎯",
		options: []Option{
			{ID: "enemy", Label: "Enemy Target", Icon: "⚔️"},
			{ID: "spot", Label: "Ground Spot", Icon: "🎯"},
			{ID: "caster", Label: "Self (Caster)", Icon: "🧙"},
		},
	},
	{
		kind:  MagicSchool,
		title: "Magic School",
		icon:  "📚",
		options: []Option{
			{ID: "fire_school", Label: "Fire School", Icon: "🔥"},
			{ID: "water_school", Label: "Water School", Icon: "💧"},
			{ID: "air_school", Label: "Air School", Icon: "💨"},
		},
	},
	{
		kind:  ProjectileForm,
		title: "Projectile Form",
		icon:  "💫",
		options: []Option{
			{ID: "sphere", Label: "Sphere", Icon: "🔮"},
			{ID: "pellets", Label: "Pellets", Icon: "✨"},
		},
	},
}

// Tag returns the stable type tag ("target", "magicSchool", "projectileForm").
func (k Kind) Tag() string { return k.tag }

// Order returns the stage's position in the sequence, starting at 0.
func (k Kind) Order() int { return k.order }

// Equal reports whether k and o are the same stage.
func (k Kind) Equal(o Kind) bool { return k == o }

// IsZero reports whether k is the zero Kind.
func (k Kind) IsZero() bool { return k.tag == "" }

// String returns the type tag.
func (k Kind) String() string { return k.tag }

// Title returns the display name of the stage.
func (k Kind) Title() string {
	if d, ok := lookup(k); ok {
		return d.title
	}
	return ""
}

// Icon returns the stage's header icon.
func (k Kind) Icon() string {
	if d, ok := lookup(k); ok {
		return d.icon
	}
	return ""
}

// Options returns a copy of the stage's ordered option set.
func (k Kind) Options() []Option {
	d, ok := lookup(k)
	if !ok {
		return nil
	}
	out := make([]Option, len(d.options))
	copy(out, d.options)
	return out
}

// Option returns the option with the given id.
func (k Kind) Option(id string) (Option, bool) {
	d, ok := lookup(k)
	if !ok {
		return Option{}, false
	}
	for _, o := range d.options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// HasOption reports whether o is exactly one of the stage's options.
func (k Kind) HasOption(o Option) bool {
	got, ok := k.Option(o.ID)
	return ok && got == o
}

// NodeID returns the deterministic node id for the stage's single instance.
func (k Kind) NodeID() string {
	return k.tag + "-" + InstanceSuffix
}

// MarshalText encodes the kind as its tag.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.tag), nil
}

// UnmarshalText decodes a tag produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	got, ok := Parse(string(b))
	if !ok {
		return fmt.Errorf("unknown stage %q", string(b))
	}
	*k = got
	return nil
}

func lookup(k Kind) (descriptor, bool) {
	if k.order < 0 || k.order >= len(catalog) || catalog[k.order].kind != k {
		return descriptor{}, false
	}
	return catalog[k.order], true
}

// All returns every stage kind in sequence order.
func All() []Kind {
	kinds := make([]Kind, len(catalog))
	for i, d := range catalog {
		kinds[i] = d.kind
	}
	return kinds
}

// First returns the stage whose node is permanent.
func First() Kind { return catalog[0].kind }

// Parse returns the stage with the given tag.
func Parse(tag string) (Kind, bool) {
	for _, d := range catalog {
		if d.kind.tag == tag {
			return d.kind, true
		}
	}
	return Kind{}, false
}

// StageOf returns the stage encoded in a node id by tag prefix.
func StageOf(nodeID string) (Kind, bool) {
	for _, d := range catalog {
		if strings.HasPrefix(nodeID, d.kind.tag) {
			return d.kind, true
		}
	}
	return Kind{}, false
}

// OrderOf returns the order of the stage encoded in nodeID, or -1 when no
// stage matches.
func OrderOf(nodeID string) int {
	k, ok := StageOf(nodeID)
	if !ok {
		return -1
	}
	return k.order
}

// Next returns the stage whose order is exactly one greater than k's.
func Next(k Kind) (Kind, bool) {
	if _, ok := lookup(k); !ok {
		return Kind{}, false
	}
	i := k.order + 1
	if i >= len(catalog) {
		return Kind{}, false
	}
	return catalog[i].kind, true
}

// Consecutive reports whether b directly follows a in the sequence.
func Consecutive(a, b Kind) bool {
	return b.order == a.order+1
}
