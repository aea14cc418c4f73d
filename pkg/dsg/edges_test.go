package dsg

import (
	"slices"
	"testing"
)

func TestEdgeKeyCanonical(t *testing.T) {
	a, b := NewNodeID('p', 1), NewNodeID('p', 2)
	if NewEdgeKey(a, b) != NewEdgeKey(b, a) {
		t.Error("edge keys should not depend on orientation")
	}
	if k := NewEdgeKey(b, a); k.K1 != a || k.K2 != b {
		t.Errorf("NewEdgeKey() = %v, want smaller id first", k)
	}
}

func TestEdgeContainerInsertRemove(t *testing.T) {
	a, b := NewNodeID('p', 1), NewNodeID('p', 2)
	c := NewEdgeContainer()

	c.Insert(a, b, nil)
	if !c.Contains(b, a) {
		t.Fatal("Contains() = false after Insert")
	}
	if _, ok := c.Find(a, b).Info.(*EdgeAttrs); !ok {
		t.Error("nil payload should default to *EdgeAttrs")
	}
	if got := c.Status(a, b); got != EdgeStatusNew {
		t.Errorf("Status() = %v, want new", got)
	}

	c.Remove(b, a)
	if c.Contains(a, b) {
		t.Error("Contains() = true after Remove")
	}
	if got := c.Status(a, b); got != EdgeStatusDeleted {
		t.Errorf("Status() = %v, want deleted", got)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestEdgeContainerRemoveAbsent(t *testing.T) {
	c := NewEdgeContainer()
	c.Remove(NewNodeID('p', 1), NewNodeID('p', 2))
	if got := c.GetRemoved(nil, false); len(got) != 0 {
		t.Errorf("GetRemoved() = %v, want none", got)
	}
}

func TestEdgeContainerRewire(t *testing.T) {
	a, b, d := NewNodeID('p', 1), NewNodeID('p', 2), NewNodeID('p', 3)
	c := NewEdgeContainer()
	c.Insert(a, b, &EdgeAttrs{Weighted: true, Weight: 2.5})

	if !c.Rewire(a, b, d, b) {
		t.Fatal("Rewire() = false")
	}
	if c.Contains(a, b) {
		t.Error("old edge still present")
	}
	e := c.Find(d, b)
	if e == nil {
		t.Fatal("rewired edge missing")
	}
	if w := e.Info.(*EdgeAttrs).Weight; w != 2.5 {
		t.Errorf("Weight = %v, want 2.5", w)
	}
	if got := c.Status(a, b); got != EdgeStatusMerged {
		t.Errorf("old Status() = %v, want merged", got)
	}
	if got := c.GetRemoved(nil, false); len(got) != 0 {
		t.Errorf("merged edges should not be reported removed, got %v", got)
	}
	if c.Rewire(a, b, d, b) {
		t.Error("Rewire() of a missing edge should fail")
	}
}

func TestEdgeContainerLedgerDrain(t *testing.T) {
	a, b, d := NewNodeID('p', 1), NewNodeID('p', 2), NewNodeID('p', 3)
	c := NewEdgeContainer()
	c.Insert(a, b, nil)
	c.Insert(b, d, nil)

	want := []EdgeKey{NewEdgeKey(a, b), NewEdgeKey(b, d)}
	if got := c.GetNew(nil, false); !slices.Equal(got, want) {
		t.Errorf("GetNew() = %v, want %v", got, want)
	}
	if got := c.GetNew(nil, true); !slices.Equal(got, want) {
		t.Errorf("GetNew(clear) = %v, want %v", got, want)
	}
	if got := c.GetNew(nil, true); len(got) != 0 {
		t.Errorf("GetNew() after drain = %v, want none", got)
	}
	if got := c.Status(a, b); got != EdgeStatusVisible {
		t.Errorf("Status() = %v, want visible", got)
	}

	c.Remove(a, b)
	prev := []EdgeKey{NewEdgeKey(b, d)}
	got := c.GetRemoved(prev, true)
	if !slices.Equal(got, []EdgeKey{NewEdgeKey(b, d), NewEdgeKey(a, b)}) {
		t.Errorf("GetRemoved() should append, got %v", got)
	}
	if got := c.Status(a, b); got != EdgeStatusNonexistent {
		t.Errorf("Status() after drain = %v, want nonexistent", got)
	}
}

func TestEdgeContainerStaleness(t *testing.T) {
	a, b, d := NewNodeID('p', 1), NewNodeID('p', 2), NewNodeID('p', 3)
	c := NewEdgeContainer()
	c.Insert(a, b, nil)
	c.Insert(b, d, nil)

	c.SetStale()
	if !c.IsStale(a, b) || !c.IsStale(b, d) {
		t.Fatal("all edges should be stale after SetStale")
	}

	c.Find(b, a)
	if c.IsStale(a, b) {
		t.Error("Find() should reaffirm the edge")
	}
	if got := c.StaleEdges(); !slices.Equal(got, []EdgeKey{NewEdgeKey(b, d)}) {
		t.Errorf("StaleEdges() = %v", got)
	}

	c.Insert(a, d, nil)
	if c.IsStale(a, d) {
		t.Error("new edges should not be stale")
	}

	c.Remove(b, d)
	if len(c.StaleEdges()) != 0 {
		t.Error("removed edges should not be reported stale")
	}
}
