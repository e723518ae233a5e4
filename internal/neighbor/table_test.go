package neighbor

import (
	"testing"

	"github.com/hwipl/thread-core/internal/corerr"
	"github.com/hwipl/thread-core/internal/mac"
)

func TestAddFindRemove(t *testing.T) {
	tbl := NewTable(2)
	ext := [8]byte{1, 2, 3, 4, 5, 6, 7, 8}
	e, kind := tbl.Add(0x1001, ext)
	if kind.Fail() {
		t.Fatalf("Add: %s", kind)
	}
	if e.State != StateParentRequest {
		t.Fatalf("new entry state = %s, want Parent-Request", e.State)
	}

	got, ok := tbl.FindExt(ext)
	if !ok || got != e {
		t.Fatal("FindExt did not return the added entry")
	}

	if kind := tbl.Remove(ext); kind.Fail() {
		t.Fatalf("Remove: %s", kind)
	}
	if _, ok := tbl.FindExt(ext); ok {
		t.Fatal("entry still present after Remove")
	}
}

func TestAddFailsWhenFull(t *testing.T) {
	tbl := NewTable(1)
	if _, kind := tbl.Add(1, [8]byte{1}); kind.Fail() {
		t.Fatalf("first Add: %s", kind)
	}
	if _, kind := tbl.Add(2, [8]byte{2}); kind != corerr.NoBufs {
		t.Fatalf("second Add kind = %s, want NoBufs", kind)
	}
}

func TestEntryImplementsMacNeighborSecurity(t *testing.T) {
	var _ mac.NeighborSecurity = &Entry{}
}

func TestValidFiltersByState(t *testing.T) {
	tbl := NewTable(2)
	a, _ := tbl.Add(1, [8]byte{1})
	_, _ = tbl.Add(2, [8]byte{2})
	a.State = StateValid

	valid := tbl.Valid()
	if len(valid) != 1 || valid[0] != a {
		t.Fatalf("Valid() = %+v, want just entry a", valid)
	}
}
