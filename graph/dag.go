package graph

import (
	"fmt"
	"slices"

	"github.com/syssam/erdgen"
)

// DAG is the dependency graph of a model. Nodes are table positions in
// declaration order; an edge runs from a dependent table to a table it
// references.
type DAG struct {
	names []string
	index map[string]int
	deps  [][]int // node -> referenced nodes
	rdeps [][]int // node -> dependent nodes
}

// NewDAG returns a graph with one node per name, in the given order.
func NewDAG(names []string) *DAG {
	d := &DAG{
		names: slices.Clone(names),
		index: make(map[string]int, len(names)),
		deps:  make([][]int, len(names)),
		rdeps: make([][]int, len(names)),
	}
	for i, name := range names {
		d.index[name] = i
	}
	return d
}

// Len returns the number of nodes.
func (d *DAG) Len() int {
	return len(d.names)
}

// AddEdge records that from references to. Duplicate edges and
// self-references are ignored: a table may always be created before the
// rows that point back to it.
func (d *DAG) AddEdge(from, to string) error {
	f, ok := d.index[from]
	if !ok {
		return fmt.Errorf("dependent table %q does not exist", from)
	}
	t, ok := d.index[to]
	if !ok {
		return fmt.Errorf("referenced table %q does not exist", to)
	}
	if f == t || slices.Contains(d.deps[f], t) {
		return nil
	}
	d.deps[f] = append(d.deps[f], t)
	d.rdeps[t] = append(d.rdeps[t], f)
	return nil
}

// References returns the tables name references directly, in declaration
// order.
func (d *DAG) References(name string) []string {
	i, ok := d.index[name]
	if !ok {
		return nil
	}
	return d.namesOf(d.deps[i])
}

// Dependents returns every table that depends on name, directly or
// transitively, in declaration order.
func (d *DAG) Dependents(name string) []string {
	i, ok := d.index[name]
	if !ok {
		return nil
	}
	seen := make([]bool, len(d.names))
	stack := []int{i}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, dep := range d.rdeps[n] {
			if !seen[dep] {
				seen[dep] = true
				stack = append(stack, dep)
			}
		}
	}
	seen[i] = false
	var out []int
	for n, ok := range seen {
		if ok {
			out = append(out, n)
		}
	}
	return d.namesOf(out)
}

// Sort returns the table names with every referenced table before the
// tables that reference it. Among tables that are ready at the same time,
// the earlier declared one comes first. A cycle fails with a CycleError
// naming the tables that take part in it.
func (d *DAG) Sort() ([]string, error) {
	order, _, err := d.sort()
	if err != nil {
		return nil, err
	}
	return d.namesOf(order), nil
}

// Levels groups the tables by depth: level 0 references nothing and level
// N only references tables of lower levels.
func (d *DAG) Levels() ([][]string, error) {
	order, level, err := d.sort()
	if err != nil {
		return nil, err
	}
	var levels [][]string
	for _, n := range order {
		for len(levels) <= level[n] {
			levels = append(levels, nil)
		}
		levels[level[n]] = append(levels[level[n]], d.names[n])
	}
	return levels, nil
}

// sort runs Kahn's algorithm, always removing the ready node with the
// lowest declaration position.
func (d *DAG) sort() (order, level []int, err error) {
	var (
		n       = len(d.names)
		pending = make([]int, n)
		ready   []int
	)
	level = make([]int, n)
	for i := range n {
		pending[i] = len(d.deps[i])
		if pending[i] == 0 {
			ready = append(ready, i)
		}
	}
	order = make([]int, 0, n)
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)
		for _, dep := range d.rdeps[next] {
			level[dep] = max(level[dep], level[next]+1)
			if pending[dep]--; pending[dep] == 0 {
				pos, _ := slices.BinarySearch(ready, dep)
				ready = slices.Insert(ready, pos, dep)
			}
		}
	}
	if len(order) < n {
		return nil, nil, erdgen.NewCycleError(d.namesOf(d.cycles(pending)))
	}
	return order, level, nil
}

// cycles returns the nodes that lie on a cycle among the nodes left with
// unresolved references, found as the strongly connected components of
// more than one node (Tarjan).
func (d *DAG) cycles(pending []int) []int {
	var (
		counter int
		stack   []int
		index   = make([]int, len(d.names))
		low     = make([]int, len(d.names))
		onStack = make([]bool, len(d.names))
		member  = make([]bool, len(d.names))
	)
	for i := range index {
		index[i] = -1
	}
	var connect func(v int)
	connect = func(v int) {
		index[v], low[v] = counter, counter
		counter++
		stack = append(stack, v)
		onStack[v] = true
		for _, w := range d.deps[v] {
			switch {
			case pending[w] == 0:
			case index[w] < 0:
				connect(w)
				low[v] = min(low[v], low[w])
			case onStack[w]:
				low[v] = min(low[v], index[w])
			}
		}
		if low[v] != index[v] {
			return
		}
		var scc []int
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		if len(scc) > 1 {
			for _, w := range scc {
				member[w] = true
			}
		}
	}
	for v := range d.names {
		if pending[v] > 0 && index[v] < 0 {
			connect(v)
		}
	}
	var out []int
	for v, ok := range member {
		if ok {
			out = append(out, v)
		}
	}
	return out
}

func (d *DAG) namesOf(nodes []int) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = d.names[n]
	}
	return names
}
