package chain

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	errs "github.com/matzehuels/spellchain/pkg/errors"
	"github.com/matzehuels/spellchain/pkg/stage"
)

func newTestBuilder(t *testing.T) (*Builder, *Timeline) {
	t.Helper()
	tl := NewTimeline()
	return New(Options{Scheduler: tl}), tl
}

func option(t *testing.T, k stage.Kind, id string) stage.Option {
	t.Helper()
	o, ok := k.Option(id)
	if !ok {
		t.Fatalf("%v has no option %q", k, id)
	}
	return o
}

// fullChain selects every stage: enemy → fire → sphere.
func fullChain(t *testing.T) (*Builder, *Timeline) {
	t.Helper()
	b, tl := newTestBuilder(t)
	mustSelect(t, b, "target-1", "enemy")
	mustSelect(t, b, "magicSchool-1", "fire_school")
	mustSelect(t, b, "projectileForm-1", "sphere")
	return b, tl
}

func mustSelect(t *testing.T, b *Builder, nodeID, optionID string) {
	t.Helper()
	if err := b.SelectByID(nodeID, optionID); err != nil {
		t.Fatalf("SelectByID(%s, %s) error = %v", nodeID, optionID, err)
	}
}

func nodeIDs(nodes []Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func edgePairs(edges []Edge) [][2]string {
	out := make([][2]string, len(edges))
	for i, e := range edges {
		out[i] = [2]string{e.From, e.To}
	}
	return out
}

func assertValid(t *testing.T, b *Builder) {
	t.Helper()
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestNewBuilder(t *testing.T) {
	b, _ := newTestBuilder(t)

	nodes := b.Nodes()
	if len(nodes) != 1 {
		t.Fatalf("len(Nodes()) = %d, want 1", len(nodes))
	}
	n := nodes[0]
	if n.ID != "target-1" || n.Stage != stage.Target {
		t.Errorf("first node = %s (%v), want target-1 (target)", n.ID, n.Stage)
	}
	if n.Selected() || n.Deleting {
		t.Errorf("first node should start unselected and active, got %+v", n)
	}
	if n.Position != DefaultOrigin {
		t.Errorf("Position = %+v, want %+v", n.Position, DefaultOrigin)
	}
	if len(b.Edges()) != 0 {
		t.Errorf("len(Edges()) = %d, want 0", len(b.Edges()))
	}
	if b.FirstID() != "target-1" {
		t.Errorf("FirstID() = %q", b.FirstID())
	}
}

func TestSelectProgression(t *testing.T) {
	b, _ := newTestBuilder(t)
	mustSelect(t, b, "target-1", "enemy")

	if diff := cmp.Diff([]string{"target-1", "magicSchool-1"}, nodeIDs(b.Nodes())); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([][2]string{{"target-1", "magicSchool-1"}}, edgePairs(b.Edges())); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	if got := b.Edges()[0].ID; got != "edge-target-1-magicSchool-1" {
		t.Errorf("edge id = %q", got)
	}

	target, _ := b.Node("target-1")
	if target.Selection == nil || target.Selection.ID != "enemy" {
		t.Errorf("target-1 selection = %v, want enemy", target.Selection)
	}
	ms, _ := b.Node("magicSchool-1")
	if ms.Selected() {
		t.Errorf("magicSchool-1 should be unselected, got %v", ms.Selection)
	}
	want := Position{X: DefaultOrigin.X + DefaultNodeOffset, Y: DefaultOrigin.Y}
	if ms.Position != want {
		t.Errorf("magicSchool-1 position = %+v, want %+v", ms.Position, want)
	}
	if got := b.Completed(); len(got) != 1 || got["target-1"].ID != "enemy" {
		t.Errorf("Completed() = %v", got)
	}
	assertValid(t, b)
}

func TestSelectLastStageDoesNotGrow(t *testing.T) {
	b, _ := fullChain(t)
	if got := len(b.Nodes()); got != 3 {
		t.Errorf("len(Nodes()) = %d, want 3", got)
	}
	if got := len(b.Edges()); got != 2 {
		t.Errorf("len(Edges()) = %d, want 2", got)
	}
	assertValid(t, b)
}

func TestSelectIdempotent(t *testing.T) {
	once, _ := newTestBuilder(t)
	mustSelect(t, once, "target-1", "enemy")

	twice, _ := newTestBuilder(t)
	mustSelect(t, twice, "target-1", "enemy")
	mustSelect(t, twice, "target-1", "enemy")

	if diff := cmp.Diff(once.Nodes(), twice.Nodes()); diff != "" {
		t.Errorf("nodes mismatch (-once +twice):\n%s", diff)
	}
	if diff := cmp.Diff(once.Edges(), twice.Edges()); diff != "" {
		t.Errorf("edges mismatch (-once +twice):\n%s", diff)
	}
}

func TestReselectPreservesDownstream(t *testing.T) {
	b, _ := fullChain(t)
	beforeNodes := b.Nodes()
	beforeEdges := b.Edges()

	mustSelect(t, b, "target-1", "spot")

	after := b.Nodes()
	if after[0].Selection.ID != "spot" {
		t.Errorf("target-1 selection = %s, want spot", after[0].Selection.ID)
	}
	if diff := cmp.Diff(beforeNodes[1:], after[1:]); diff != "" {
		t.Errorf("downstream nodes changed (-before +after):\n%s", diff)
	}
	if diff := cmp.Diff(beforeEdges, b.Edges()); diff != "" {
		t.Errorf("edges changed (-before +after):\n%s", diff)
	}
	if got := b.Completed()["target-1"].ID; got != "spot" {
		t.Errorf("completion for target-1 = %s, want spot", got)
	}
}

func TestSelectErrors(t *testing.T) {
	fire := option(t, stage.MagicSchool, "fire_school")

	tests := []struct {
		name     string
		setup    func(b *Builder)
		run      func(b *Builder) error
		wantCode errs.Code
	}{
		{
			name:     "missing node",
			run:      func(b *Builder) error { return b.SelectByID("magicSchool-1", "fire_school") },
			wantCode: errs.ErrCodeNodeNotFound,
		},
		{
			name:     "unknown option id",
			run:      func(b *Builder) error { return b.SelectByID("target-1", "fire_school") },
			wantCode: errs.ErrCodeInvalidOption,
		},
		{
			name:     "option of another stage",
			run:      func(b *Builder) error { return b.Select("target-1", fire) },
			wantCode: errs.ErrCodeInvalidOption,
		},
		{
			name: "node being deleted",
			setup: func(b *Builder) {
				_ = b.SelectByID("target-1", "enemy")
				_ = b.DeleteSingle("magicSchool-1")
			},
			run:      func(b *Builder) error { return b.SelectByID("magicSchool-1", "fire_school") },
			wantCode: errs.ErrCodeInvalidOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := newTestBuilder(t)
			if tt.setup != nil {
				tt.setup(b)
			}
			beforeNodes, beforeEdges := b.Nodes(), b.Edges()

			err := tt.run(b)
			if !errs.Is(err, tt.wantCode) {
				t.Fatalf("error = %v, want code %s", err, tt.wantCode)
			}
			if diff := cmp.Diff(beforeNodes, b.Nodes()); diff != "" {
				t.Errorf("rejected select mutated nodes (-before +after):\n%s", diff)
			}
			if diff := cmp.Diff(beforeEdges, b.Edges()); diff != "" {
				t.Errorf("rejected select mutated edges (-before +after):\n%s", diff)
			}
			assertValid(t, b)
		})
	}
}

func TestDeleteSingleReconnect(t *testing.T) {
	b, tl := fullChain(t)

	if err := b.DeleteSingle("magicSchool-1"); err != nil {
		t.Fatalf("DeleteSingle() error = %v", err)
	}

	ms, ok := b.Node("magicSchool-1")
	if !ok || !ms.Deleting {
		t.Fatalf("magicSchool-1 should still exist and be deleting, got %+v (ok=%v)", ms, ok)
	}

	tl.Advance(DefaultDeleteDelay - time.Millisecond)
	if _, ok := b.Node("magicSchool-1"); !ok {
		t.Fatal("magicSchool-1 removed before the delete delay elapsed")
	}

	tl.Advance(time.Millisecond)
	if diff := cmp.Diff([]string{"target-1", "projectileForm-1"}, nodeIDs(b.Nodes())); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if got := len(b.Edges()); got != 0 {
		t.Errorf("len(Edges()) = %d, want 0 (gap of two stages is not bridged)", got)
	}
	if _, ok := b.Completed()["magicSchool-1"]; ok {
		t.Error("magicSchool-1 still in completion map")
	}
	pf, _ := b.Node("projectileForm-1")
	if pf.Selection == nil || pf.Selection.ID != "sphere" {
		t.Errorf("projectileForm-1 lost its selection: %v", pf.Selection)
	}
	assertValid(t, b)
}

func TestDeleteSingleLastKeepsPrefixConnected(t *testing.T) {
	b, tl := fullChain(t)
	if err := b.DeleteSingle("projectileForm-1"); err != nil {
		t.Fatal(err)
	}
	tl.Flush()

	if diff := cmp.Diff([][2]string{{"target-1", "magicSchool-1"}}, edgePairs(b.Edges())); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	assertValid(t, b)
}

func TestDeleteCascade(t *testing.T) {
	b, tl := fullChain(t)

	if err := b.DeleteCascade("magicSchool-1"); err != nil {
		t.Fatalf("DeleteCascade() error = %v", err)
	}
	for _, id := range []string{"magicSchool-1", "projectileForm-1"} {
		if n, _ := b.Node(id); !n.Deleting {
			t.Errorf("%s should be marked deleting", id)
		}
	}
	if n, _ := b.Node("target-1"); n.Deleting {
		t.Error("target-1 should not be marked deleting")
	}

	// First completion entry clears immediately, the next one a step later.
	tl.Advance(0)
	if _, ok := b.Completed()["magicSchool-1"]; ok {
		t.Error("magicSchool-1 completion should clear at the first stagger step")
	}
	if _, ok := b.Completed()["projectileForm-1"]; !ok {
		t.Error("projectileForm-1 completion cleared too early")
	}
	tl.Advance(DefaultStaggerStep)
	if _, ok := b.Completed()["projectileForm-1"]; ok {
		t.Error("projectileForm-1 completion should clear at the second stagger step")
	}

	total := 2*DefaultStaggerStep + DefaultDeleteDelay
	tl.Advance(total - DefaultStaggerStep - time.Millisecond)
	if got := len(b.Nodes()); got != 3 {
		t.Fatalf("nodes removed early: %d left", got)
	}

	tl.Advance(time.Millisecond)
	if diff := cmp.Diff([]string{"target-1"}, nodeIDs(b.Nodes())); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if got := len(b.Edges()); got != 0 {
		t.Errorf("len(Edges()) = %d, want 0", got)
	}
	completed := b.Completed()
	if _, ok := completed["magicSchool-1"]; ok {
		t.Error("magicSchool-1 still in completion map")
	}
	if _, ok := completed["projectileForm-1"]; ok {
		t.Error("projectileForm-1 still in completion map")
	}
	if completed["target-1"].ID != "enemy" {
		t.Errorf("target-1 completion = %v, want enemy", completed["target-1"])
	}
	if n, _ := b.Node("target-1"); n.Deleting {
		t.Error("target-1 deleting flag should be clear")
	}
	if tl.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", tl.Pending())
	}
	assertValid(t, b)
}

func TestDeleteCascadeFromLastStage(t *testing.T) {
	b, tl := fullChain(t)
	if err := b.DeleteCascade("projectileForm-1"); err != nil {
		t.Fatal(err)
	}
	tl.Flush()
	if diff := cmp.Diff([]string{"target-1", "magicSchool-1"}, nodeIDs(b.Nodes())); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	if got := len(b.Edges()); got != 1 {
		t.Errorf("len(Edges()) = %d, want 1", got)
	}
	assertValid(t, b)
}

func TestDeleteRejections(t *testing.T) {
	tests := []struct {
		name     string
		nodeID   string
		prepare  func(b *Builder)
		wantCode errs.Code
	}{
		{"permanent first node", "target-1", nil, errs.ErrCodeInvalidOperation},
		{"missing node", "projectileForm-1", nil, errs.ErrCodeNodeNotFound},
		{"unknown id", "bogus-1", nil, errs.ErrCodeNodeNotFound},
		{
			name:     "already deleting",
			nodeID:   "magicSchool-1",
			prepare:  func(b *Builder) { _ = b.DeleteSingle("magicSchool-1") },
			wantCode: errs.ErrCodeInvalidOperation,
		},
	}

	for _, tt := range tests {
		for _, mode := range []string{ModeSingle, ModeCascade} {
			t.Run(tt.name+"/"+mode, func(t *testing.T) {
				b, tl := newTestBuilder(t)
				mustSelect(t, b, "target-1", "enemy")
				if tt.prepare != nil {
					tt.prepare(b)
				}
				pending := tl.Pending()

				var err error
				if mode == ModeSingle {
					err = b.DeleteSingle(tt.nodeID)
				} else {
					err = b.DeleteCascade(tt.nodeID)
				}
				if !errs.Is(err, tt.wantCode) {
					t.Fatalf("error = %v, want code %s", err, tt.wantCode)
				}
				if tl.Pending() != pending {
					t.Errorf("rejected delete scheduled work: pending %d → %d", pending, tl.Pending())
				}
			})
		}
	}
}

func TestDeferredDeleteAfterCascadeIsNoop(t *testing.T) {
	b, tl := fullChain(t)

	if err := b.DeleteCascade("magicSchool-1"); err != nil {
		t.Fatal(err)
	}
	// projectileForm-1 is already deleting, so it cannot be deleted again.
	if err := b.DeleteSingle("projectileForm-1"); !errs.Is(err, errs.ErrCodeInvalidOperation) {
		t.Fatalf("DeleteSingle on deleting node error = %v", err)
	}
	tl.Flush()
	assertValid(t, b)
	if got := len(b.Nodes()); got != 1 {
		t.Errorf("len(Nodes()) = %d, want 1", got)
	}
}

func TestSingleDeleteRacingCascade(t *testing.T) {
	b, tl := fullChain(t)

	// The single delete fires before the cascade finishes and removes its
	// node; the cascade must then skip it.
	if err := b.DeleteSingle("projectileForm-1"); err != nil {
		t.Fatal(err)
	}
	tl.Advance(50 * time.Millisecond)
	if err := b.DeleteCascade("magicSchool-1"); err != nil {
		t.Fatal(err)
	}
	tl.Advance(DefaultDeleteDelay)
	if _, ok := b.Node("projectileForm-1"); ok {
		t.Fatal("single delete should have removed projectileForm-1")
	}
	assertValid(t, b)

	tl.Flush()
	if diff := cmp.Diff([]string{"target-1"}, nodeIDs(b.Nodes())); diff != "" {
		t.Errorf("nodes mismatch (-want +got):\n%s", diff)
	}
	assertValid(t, b)
}

func TestRegrowAfterCascadeStartsFresh(t *testing.T) {
	b, tl := fullChain(t)
	if err := b.DeleteCascade("magicSchool-1"); err != nil {
		t.Fatal(err)
	}
	tl.Flush()

	mustSelect(t, b, "target-1", "caster")
	ms, ok := b.Node("magicSchool-1")
	if !ok {
		t.Fatal("magicSchool-1 should be recreated")
	}
	if ms.Selected() || ms.Deleting {
		t.Errorf("recreated node should be fresh, got %+v", ms)
	}
	if _, ok := b.Node("projectileForm-1"); ok {
		t.Error("projectileForm-1 should not be recreated")
	}
	assertValid(t, b)
}

func TestRefillGapReconnects(t *testing.T) {
	b, tl := fullChain(t)
	if err := b.DeleteSingle("magicSchool-1"); err != nil {
		t.Fatal(err)
	}
	tl.Flush()

	mustSelect(t, b, "target-1", "enemy")
	mustSelect(t, b, "magicSchool-1", "air_school")

	want := [][2]string{{"target-1", "magicSchool-1"}, {"magicSchool-1", "projectileForm-1"}}
	if diff := cmp.Diff(want, edgePairs(b.Edges())); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	pf, _ := b.Node("projectileForm-1")
	if pf.Selection == nil || pf.Selection.ID != "sphere" {
		t.Errorf("projectileForm-1 selection = %v, want sphere", pf.Selection)
	}
	assertValid(t, b)
}

func TestBuilderOptions(t *testing.T) {
	tl := NewTimeline()
	b := New(Options{
		Scheduler:   tl,
		DeleteDelay: 10 * time.Millisecond,
		NodeOffset:  50,
		Origin:      &Position{X: 1, Y: 2},
	})
	mustSelect(t, b, "target-1", "enemy")
	ms, _ := b.Node("magicSchool-1")
	if ms.Position != (Position{X: 51, Y: 2}) {
		t.Errorf("position = %+v, want {51 2}", ms.Position)
	}
	if err := b.DeleteSingle("magicSchool-1"); err != nil {
		t.Fatal(err)
	}
	tl.Advance(10 * time.Millisecond)
	if _, ok := b.Node("magicSchool-1"); ok {
		t.Error("custom delete delay not honored")
	}
}

// TestInvariantsUnderRandomOperations drives the builder with a seeded
// sequence of operations and checks the structural invariants after each.
func TestInvariantsUnderRandomOperations(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	b, tl := newTestBuilder(t)
	ids := []string{"target-1", "magicSchool-1", "projectileForm-1"}

	for step := 0; step < 2000; step++ {
		id := ids[rng.IntN(len(ids))]
		switch rng.IntN(4) {
		case 0:
			if k, ok := stage.StageOf(id); ok {
				opts := k.Options()
				_ = b.SelectByID(id, opts[rng.IntN(len(opts))].ID)
			}
		case 1:
			_ = b.DeleteSingle(id)
		case 2:
			_ = b.DeleteCascade(id)
		case 3:
			tl.Advance(time.Duration(rng.IntN(300)) * time.Millisecond)
		}

		if err := b.graph.Validate(); err != nil {
			t.Fatalf("step %d: %v", step, err)
		}
		seen := map[stage.Kind]bool{}
		for _, n := range b.Nodes() {
			if seen[n.Stage] {
				t.Fatalf("step %d: two nodes for stage %v", step, n.Stage)
			}
			seen[n.Stage] = true
		}
		if _, ok := b.Node("target-1"); !ok {
			t.Fatalf("step %d: permanent node removed", step)
		}
		for id := range b.Completed() {
			if _, ok := b.Node(id); !ok {
				t.Fatalf("step %d: completion entry for missing node %s", step, id)
			}
		}
	}

	tl.Flush()
	assertValid(t, b)
	for _, n := range b.Nodes() {
		if n.Deleting {
			t.Errorf("%s still deleting after flush", n.ID)
		}
	}
}
