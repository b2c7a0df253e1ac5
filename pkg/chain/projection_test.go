package chain

import (
	"testing"

	errs "github.com/matzehuels/spellchain/pkg/errors"
)

func viewByID(t *testing.T, views []View, id string) View {
	t.Helper()
	for _, v := range views {
		if v.ID == id {
			return v
		}
	}
	t.Fatalf("no view for %s", id)
	return View{}
}

func TestProjectFirstNode(t *testing.T) {
	b, _ := newTestBuilder(t)
	views := b.Project()
	if len(views) != 1 {
		t.Fatalf("len(Project()) = %d, want 1", len(views))
	}
	v := views[0]
	if !v.First {
		t.Error("target-1 view should be First")
	}
	if v.DeleteSingle != nil || v.DeleteCascade != nil {
		t.Error("first node must not expose delete handlers")
	}
	if v.Select == nil {
		t.Fatal("first node should expose Select")
	}
	if v.Selected != nil {
		t.Errorf("Selected = %v, want nil", v.Selected)
	}
}

func TestProjectHandlersMutateBuilder(t *testing.T) {
	b, tl := newTestBuilder(t)

	if err := b.Project()[0].Select("caster"); err != nil {
		t.Fatalf("Select handler error = %v", err)
	}
	views := b.Project()
	if len(views) != 2 {
		t.Fatalf("len(Project()) = %d, want 2", len(views))
	}
	if got := viewByID(t, views, "target-1").Selected; got == nil || got.ID != "caster" {
		t.Errorf("target-1 Selected = %v, want caster", got)
	}

	ms := viewByID(t, views, "magicSchool-1")
	if ms.First {
		t.Error("magicSchool-1 should not be First")
	}
	if err := ms.Select("nope"); !errs.Is(err, errs.ErrCodeInvalidOption) {
		t.Errorf("Select(nope) error = %v, want INVALID_OPTION", err)
	}
	if err := ms.DeleteSingle(); err != nil {
		t.Fatalf("DeleteSingle handler error = %v", err)
	}

	deleting := viewByID(t, b.Project(), "magicSchool-1")
	if !deleting.Deleting {
		t.Error("view should report Deleting")
	}
	if deleting.DeleteSingle != nil || deleting.DeleteCascade != nil || deleting.Select != nil {
		t.Error("deleting node must not expose handlers")
	}

	tl.Flush()
	if got := len(b.Project()); got != 1 {
		t.Errorf("len(Project()) after delete = %d, want 1", got)
	}
}

func TestProjectResolvesClearedCompletion(t *testing.T) {
	b, tl := fullChain(t)
	if err := b.DeleteCascade("magicSchool-1"); err != nil {
		t.Fatal(err)
	}

	// Before the first stagger step the old values are still shown.
	if got := viewByID(t, b.Project(), "magicSchool-1").Selected; got == nil || got.ID != "fire_school" {
		t.Errorf("Selected before clear = %v, want fire_school", got)
	}

	tl.Advance(0)
	views := b.Project()
	if got := viewByID(t, views, "magicSchool-1").Selected; got != nil {
		t.Errorf("Selected after clear = %v, want nil", got)
	}
	if got := viewByID(t, views, "projectileForm-1").Selected; got == nil || got.ID != "sphere" {
		t.Errorf("projectileForm-1 Selected = %v, want sphere until its step", got)
	}
	// The node itself still carries the stale value.
	if n, _ := b.Node("magicSchool-1"); n.Selection == nil {
		t.Error("node selection should persist until removal")
	}
}

func TestProjectIsPure(t *testing.T) {
	b, tl := fullChain(t)
	before := b.Nodes()
	_ = b.Project()
	_ = b.Project()
	if tl.Pending() != 0 {
		t.Errorf("Project scheduled work: %d pending", tl.Pending())
	}
	after := b.Nodes()
	for i := range before {
		if before[i].Deleting != after[i].Deleting || before[i].Selection.ID != after[i].Selection.ID {
			t.Errorf("Project mutated %s", before[i].ID)
		}
	}
}
