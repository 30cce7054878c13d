package domain

import "container/heap"

// DeletionPlan orders kinds so that every kind is emptied only after all
// kinds referencing or protecting it are empty. Independent kinds keep their
// declaration order.
func DeletionPlan(g *EntityGraph) ([]string, error) {
	if !g.validated {
		return nil, &GraphNotValidatedError{}
	}
	return g.topoSort(g.requires, g.dependents), nil
}

// CreationPlan orders kinds so that every referenced kind is created before
// the kinds that reference it. Independent kinds keep their declaration
// order.
func CreationPlan(g *EntityGraph) ([]string, error) {
	if !g.validated {
		return nil, &GraphNotValidatedError{}
	}
	return g.topoSort(g.dependents, g.requires), nil
}

// topoSort is Kahn's algorithm: a kind is ready once all of its blockers
// have been emitted; release maps an emitted kind to the kinds it unblocks.
func (g *EntityGraph) topoSort(release, blockers map[string][]string) []string {
	pending := make(map[string]int, len(g.kinds))
	ready := &kindQueue{}
	for _, k := range g.kinds {
		pending[k.Name] = len(blockers[k.Name])
		if pending[k.Name] == 0 {
			heap.Push(ready, k)
		}
	}

	order := make([]string, 0, len(g.kinds))
	for ready.Len() > 0 {
		k := heap.Pop(ready).(*EntityKind)
		order = append(order, k.Name)
		for _, next := range release[k.Name] {
			pending[next]--
			if pending[next] == 0 {
				heap.Push(ready, g.byName[next])
			}
		}
	}
	return order
}

type kindQueue []*EntityKind

func (q kindQueue) Len() int           { return len(q) }
func (q kindQueue) Less(i, j int) bool { return q[i].index < q[j].index }
func (q kindQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }

func (q *kindQueue) Push(x any) { *q = append(*q, x.(*EntityKind)) }

func (q *kindQueue) Pop() any {
	old := *q
	n := len(old)
	k := old[n-1]
	*q = old[:n-1]
	return k
}
