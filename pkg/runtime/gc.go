package runtime

import (
	"github.com/tliron/commonlog"
)

var gcLog = commonlog.GetLogger("slime.gc")

// Collector tracks registered values and the reference edges between them,
// and reclaims values unreachable from the root set. Each execution engine
// owns its own Collector; there is no process-wide instance.
//
// A Collector is not safe for concurrent use.
type Collector struct {
	objects map[*Value]struct{}
	roots   map[*Value]struct{}
	refs    map[*Value]map[*Value]struct{}
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		objects: make(map[*Value]struct{}),
		roots:   make(map[*Value]struct{}),
		refs:    make(map[*Value]map[*Value]struct{}),
	}
}

// Register starts tracking a value. Registering the same value twice is a
// no-op.
func (c *Collector) Register(v *Value) {
	if v == nil {
		return
	}
	c.objects[v] = struct{}{}
}

// Unregister stops tracking a value and scrubs every edge that points at it.
func (c *Collector) Unregister(v *Value) {
	if v == nil {
		return
	}
	delete(c.objects, v)
	delete(c.roots, v)
	delete(c.refs, v)
	for _, targets := range c.refs {
		delete(targets, v)
	}
}

// MarkRoot pins a value as a collection root.
func (c *Collector) MarkRoot(v *Value) {
	if v == nil {
		return
	}
	c.roots[v] = struct{}{}
}

// ClearRoots empties the root set.
func (c *Collector) ClearRoots() {
	c.roots = make(map[*Value]struct{})
}

// AddReference records that from holds a reference to to, and to everything
// to transitively contains.
func (c *Collector) AddReference(from, to *Value) {
	if from == nil || to == nil {
		return
	}
	c.addEdge(from, to)
	// A container keeps its contents alive through the value that holds it,
	// so edges follow nesting all the way down.
	seen := map[*Value]struct{}{to: {}}
	c.addContainedEdges(from, to, seen)
}

func (c *Collector) addEdge(from, to *Value) {
	targets, ok := c.refs[from]
	if !ok {
		targets = make(map[*Value]struct{})
		c.refs[from] = targets
	}
	targets[to] = struct{}{}
}

func (c *Collector) addContainedEdges(from, container *Value, seen map[*Value]struct{}) {
	for _, elem := range container.contained() {
		if elem == nil {
			continue
		}
		if _, ok := seen[elem]; ok {
			continue
		}
		seen[elem] = struct{}{}
		c.addEdge(from, elem)
		c.addContainedEdges(from, elem, seen)
	}
}

// RemoveReference deletes a single edge.
func (c *Collector) RemoveReference(from, to *Value) {
	if targets, ok := c.refs[from]; ok {
		delete(targets, to)
	}
}

// ClearReferences drops every outgoing edge of a value.
func (c *Collector) ClearReferences(from *Value) {
	delete(c.refs, from)
}

// Live returns the number of registered values.
func (c *Collector) Live() int {
	return len(c.objects)
}

// Collect reclaims every registered value not reachable from a root and
// returns the number reclaimed. Reachability is the transitive closure of
// the recorded reference edges.
func (c *Collector) Collect() int {
	reachable := make(map[*Value]struct{}, len(c.roots))
	queue := make([]*Value, 0, len(c.roots))

	for root := range c.roots {
		if _, ok := reachable[root]; !ok {
			reachable[root] = struct{}{}
			queue = append(queue, root)
		}
	}

	for len(queue) > 0 {
		v := queue[0]
		queue = queue[1:]
		for target := range c.refs[v] {
			if _, ok := reachable[target]; !ok {
				reachable[target] = struct{}{}
				queue = append(queue, target)
			}
		}
	}

	collected := 0
	for v := range c.objects {
		if _, ok := reachable[v]; ok {
			continue
		}
		delete(c.objects, v)
		delete(c.refs, v)
		for _, targets := range c.refs {
			delete(targets, v)
		}
		collected++
	}

	if collected > 0 {
		gcLog.Debugf("collected %d values, %d live", collected, len(c.objects))
	}
	return collected
}
