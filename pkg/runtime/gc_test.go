package runtime

import (
	"testing"
)

func TestCollectorReclaimsUnreachable(t *testing.T) {
	c := NewCollector()

	root := NewNumber(c, 1)
	orphan := NewNumber(c, 2)
	_ = orphan

	c.MarkRoot(root)
	collected := c.Collect()

	if collected != 1 {
		t.Errorf("Collect() = %d, want 1", collected)
	}
	if c.Live() != 1 {
		t.Errorf("Live() = %d, want 1", c.Live())
	}
}

func TestCollectorKeepsReferencedChain(t *testing.T) {
	c := NewCollector()

	a := NewNumber(c, 1)
	b := NewNumber(c, 2)
	d := NewNumber(c, 3)
	c.AddReference(a, b)
	c.AddReference(b, d)

	c.MarkRoot(a)
	collected := c.Collect()

	if collected != 0 {
		t.Errorf("Collect() = %d, want 0", collected)
	}
	if c.Live() != 3 {
		t.Errorf("Live() = %d, want 3", c.Live())
	}
}

func TestCollectorRootsAreNeverCollected(t *testing.T) {
	c := NewCollector()

	v := NewNumber(c, 42)
	c.MarkRoot(v)

	for i := 0; i < 3; i++ {
		if n := c.Collect(); n != 0 {
			t.Errorf("Collect() pass %d = %d, want 0", i, n)
		}
	}
	if c.Live() != 1 {
		t.Errorf("Live() = %d, want 1", c.Live())
	}
}

func TestCollectorClearRoots(t *testing.T) {
	c := NewCollector()

	v := NewNumber(c, 1)
	c.MarkRoot(v)
	c.ClearRoots()

	if collected := c.Collect(); collected != 1 {
		t.Errorf("Collect() after ClearRoots = %d, want 1", collected)
	}
}

func TestCollectorUnregisterScrubsIncomingEdges(t *testing.T) {
	c := NewCollector()

	holder := NewArray(c)
	elem := NewNumber(c, 1)
	c.AddReference(holder, elem)

	c.Unregister(elem)

	c.MarkRoot(holder)
	c.Collect()
	if c.Live() != 1 {
		t.Errorf("Live() = %d, want 1", c.Live())
	}
}

func TestCollectorRemoveReference(t *testing.T) {
	c := NewCollector()

	holder := NewNumber(c, 0)
	held := NewNumber(c, 1)
	c.AddReference(holder, held)
	c.RemoveReference(holder, held)

	c.MarkRoot(holder)
	if collected := c.Collect(); collected != 1 {
		t.Errorf("Collect() = %d, want 1", collected)
	}
}

func TestCollectorRecursiveEdgePropagation(t *testing.T) {
	c := NewCollector()

	// inner is only reachable through a nested container. Storing the outer
	// array into a variable-like holder must keep inner alive.
	inner := NewNumber(c, 99)
	nested := NewArray(c)
	nested.Append(inner)
	outer := NewArray(c)
	outer.Append(nested)

	holder := NewNil(c)
	c.AddReference(holder, outer)

	c.MarkRoot(holder)
	collected := c.Collect()

	if collected != 0 {
		t.Errorf("Collect() = %d, want 0", collected)
	}
	if c.Live() != 4 {
		t.Errorf("Live() = %d, want 4", c.Live())
	}
}

func TestCollectorCycleIsReclaimedWhenUnrooted(t *testing.T) {
	c := NewCollector()

	a := NewNumber(c, 1)
	b := NewNumber(c, 2)
	c.AddReference(a, b)
	c.AddReference(b, a)

	if collected := c.Collect(); collected != 2 {
		t.Errorf("Collect() = %d, want 2", collected)
	}
}
