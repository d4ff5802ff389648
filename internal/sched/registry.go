package sched

import (
	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/trees/redblacktree"
)

// registry owns every live task record.
//
// Records are indexed by id in a red-black tree. Ids only ever increase, so
// tree order is insertion order modulo removals, which is the round-robin
// order. Groups are kept in a second index, group name -> set of ids.
type registry struct {
	tasks  *redblacktree.Tree // TaskID -> *task
	groups *treemap.Map       // string -> *treeset.Set of TaskID
	ids    idAllocator
}

func newRegistry(idLimit uint64) *registry {
	return &registry{
		tasks:  redblacktree.NewWith(taskIDComparator),
		groups: treemap.NewWithStringComparator(),
		ids:    newIDAllocator(idLimit),
	}
}

// insert assigns an id to t and stores it. On ErrExhausted nothing changes.
func (r *registry) insert(t *task) (TaskID, error) {
	id, err := r.ids.next()
	if err != nil {
		return 0, err
	}

	t.id = id
	r.tasks.Put(id, t)

	members, ok := r.groups.Get(t.group)
	if !ok {
		members = treeset.NewWith(taskIDComparator)
		r.groups.Put(t.group, members)
	}

	members.(*treeset.Set).Add(id)

	return id, nil
}

func (r *registry) remove(id TaskID) (*task, bool) {
	t, ok := r.get(id)
	if !ok {
		return nil, false
	}

	r.tasks.Remove(id)

	if members, ok := r.groups.Get(t.group); ok {
		set := members.(*treeset.Set)
		set.Remove(id)

		if set.Empty() {
			r.groups.Remove(t.group)
		}
	}

	return t, true
}

func (r *registry) get(id TaskID) (*task, bool) {
	v, ok := r.tasks.Get(id)
	if !ok {
		return nil, false
	}

	return v.(*task), true
}

func (r *registry) lookupState(id TaskID) (State, bool) {
	t, ok := r.get(id)
	if !ok {
		return Completed, false
	}

	return t.state, true
}

// setState moves a task to next if the state machine allows it.
func (r *registry) setState(id TaskID, next State) error {
	t, ok := r.get(id)
	if !ok {
		return notFound(id)
	}

	if !t.state.CanTransition(next) {
		return invalidTransition(id, t.state, next)
	}

	t.state = next

	return nil
}

// runnable captures the ids of every Runnable task in round-robin order.
// The slice is a snapshot: tasks spawned or woken after this call are not in it.
func (r *registry) runnable() []TaskID {
	var ids []TaskID

	it := r.tasks.Iterator()
	for it.Next() {
		if t := it.Value().(*task); t.state == Runnable {
			ids = append(ids, t.id)
		}
	}

	return ids
}

// inState returns the ids of every task in state s, in registry order.
func (r *registry) inState(s State) []TaskID {
	var ids []TaskID

	it := r.tasks.Iterator()
	for it.Next() {
		if t := it.Value().(*task); t.state == s {
			ids = append(ids, t.id)
		}
	}

	return ids
}

// members returns the ids of group in registry order.
func (r *registry) members(group string) []TaskID {
	v, ok := r.groups.Get(group)
	if !ok {
		return nil
	}

	values := v.(*treeset.Set).Values()
	ids := make([]TaskID, len(values))

	for i, v := range values {
		ids[i] = v.(TaskID)
	}

	return ids
}

// groupSizes returns the number of live tasks per group, in group name order.
func (r *registry) groupSizes() map[string]int {
	sizes := make(map[string]int, r.groups.Size())

	it := r.groups.Iterator()
	for it.Next() {
		sizes[it.Key().(string)] = it.Value().(*treeset.Set).Size()
	}

	return sizes
}

func (r *registry) count(s State) int {
	n := 0

	it := r.tasks.Iterator()
	for it.Next() {
		if it.Value().(*task).state == s {
			n++
		}
	}

	return n
}

func (r *registry) len() int { return r.tasks.Size() }

// each calls f for every task in registry order until f returns false.
func (r *registry) each(f func(t *task) bool) {
	it := r.tasks.Iterator()
	for it.Next() {
		if !f(it.Value().(*task)) {
			return
		}
	}
}
