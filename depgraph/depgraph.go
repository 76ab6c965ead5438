// Package depgraph tracks which cells a formula reads (its precedents)
// and which cells read it (its dependents), and answers the two questions
// the recalculation engine needs: is there a cycle, and in what order
// should a set of dirty cells be recomputed.
package depgraph

import (
	"errors"
	"sort"

	"github.com/mvogt/gridcalc/address"
)

// ErrCycle is wrapped by TopoSort when the requested cells cannot be
// ordered because they form a circular reference.
var ErrCycle = errors.New("depgraph: cycle detected")

// Graph holds the forward (deps) and reverse (dependents) adjacency maps.
// The zero value is not usable; use New.
type Graph struct {
	deps       map[address.Addr]map[address.Addr]struct{} // cell -> its precedents
	dependents map[address.Addr]map[address.Addr]struct{} // cell -> cells that read it
}

// New returns an empty dependency graph.
func New() *Graph {
	return &Graph{
		deps:       make(map[address.Addr]map[address.Addr]struct{}),
		dependents: make(map[address.Addr]map[address.Addr]struct{}),
	}
}

// ClearDependencies removes every edge where cell is the dependent,
// keeping deps and dependents mutually consistent. Call this before
// re-parsing a cell's formula so stale precedent edges don't linger.
func (g *Graph) ClearDependencies(cell address.Addr) {
	for precedent := range g.deps[cell] {
		if set := g.dependents[precedent]; set != nil {
			delete(set, cell)
			if len(set) == 0 {
				delete(g.dependents, precedent)
			}
		}
	}
	delete(g.deps, cell)
}

// AddDependency records that cell's formula reads on.
func (g *Graph) AddDependency(cell, on address.Addr) {
	if g.deps[cell] == nil {
		g.deps[cell] = make(map[address.Addr]struct{})
	}
	g.deps[cell][on] = struct{}{}
	if g.dependents[on] == nil {
		g.dependents[on] = make(map[address.Addr]struct{})
	}
	g.dependents[on][cell] = struct{}{}
}

// Precedents returns the cells cell directly reads, in no particular order.
func (g *Graph) Precedents(cell address.Addr) []address.Addr {
	return keys(g.deps[cell])
}

// Dependents returns the cells that directly read cell.
func (g *Graph) Dependents(cell address.Addr) []address.Addr {
	return keys(g.dependents[cell])
}

func keys(m map[address.Addr]struct{}) []address.Addr {
	out := make([]address.Addr, 0, len(m))
	for a := range m {
		out = append(out, a)
	}
	return out
}

// AllDependents returns the full transitive closure of cells that would be
// affected if cell's value changed, via breadth-first traversal of the
// dependents graph. cell itself is not included.
func (g *Graph) AllDependents(cell address.Addr) []address.Addr {
	visited := map[address.Addr]struct{}{cell: {}}
	queue := []address.Addr{cell}
	var out []address.Addr
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range g.Dependents(cur) {
			if _, ok := visited[dep]; ok {
				continue
			}
			visited[dep] = struct{}{}
			out = append(out, dep)
			queue = append(queue, dep)
		}
	}
	return out
}

// FindCycle runs a depth-first search from start following dependent edges
// (cells that read cur, not cells cur reads) and returns the first cycle it
// encounters as the ordered slice of cells that compose it (start is
// included if the cycle loops back through it). It returns nil if no cycle
// is reachable from start along dependent edges; a cycle that start only
// feeds into is returned even though start is not one of its members.
// Walking the dependent direction means an unrelated pre-existing cycle
// elsewhere in the graph, reachable only through start's precedents, is
// never returned.
func (g *Graph) FindCycle(start address.Addr) []address.Addr {
	var path []address.Addr
	onPath := make(map[address.Addr]int) // cell -> index in path

	var visit func(address.Addr) []address.Addr
	visit = func(cur address.Addr) []address.Addr {
		if idx, ok := onPath[cur]; ok {
			return append([]address.Addr(nil), path[idx:]...)
		}
		onPath[cur] = len(path)
		path = append(path, cur)
		for _, dependent := range g.Dependents(cur) {
			if cycle := visit(dependent); cycle != nil {
				return cycle
			}
		}
		path = path[:len(path)-1]
		delete(onPath, cur)
		return nil
	}
	return visit(start)
}

// TopoSort orders the given set of dirty cells so that every cell appears
// after all of its precedents that are also in the set (precedents outside
// the set are assumed already up to date). Ties — cells with no ordering
// constraint between them — break in row-major address order, making the
// result deterministic. It fails with ErrCycle if dirty cannot be fully
// ordered, which happens exactly when it contains a circular reference.
func (g *Graph) TopoSort(dirty map[address.Addr]struct{}) ([]address.Addr, error) {
	inDegree := make(map[address.Addr]int, len(dirty))
	for cell := range dirty {
		n := 0
		for precedent := range g.deps[cell] {
			if _, ok := dirty[precedent]; ok {
				n++
			}
		}
		inDegree[cell] = n
	}

	ready := make([]address.Addr, 0, len(dirty))
	for cell, n := range inDegree {
		if n == 0 {
			ready = append(ready, cell)
		}
	}

	var order []address.Addr
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i].Less(ready[j]) })
		cell := ready[0]
		ready = ready[1:]
		order = append(order, cell)
		for _, dep := range g.Dependents(cell) {
			if _, ok := dirty[dep]; !ok {
				continue
			}
			inDegree[dep]--
			if inDegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(order) != len(dirty) {
		return nil, ErrCycle
	}
	return order, nil
}
