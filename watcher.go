package solvers

import "fmt"

//Watcher pairs a clause reference with a blocker, a second literal of the
//clause checked before touching the allocator region at all.
type Watcher struct {
	claRef  ClauseReference
	blocker Lit
}

//Watches keeps, for every literal, the watchers of clauses that must be
//inspected when that literal becomes true. Two instances exist per solver:
//one for binary clauses and one for clauses of size >= 3. Detaching can be
//lazy: a smudged list is purged of watchers of deleted clauses on the next
//CleanAll.
type Watches struct {
	ca      *ClauseAllocator
	occs    [][]Watcher
	dirty   []bool
	dirties []Lit
}

func NewWatches(ca *ClauseAllocator) *Watches {
	return &Watches{ca: ca}
}

//Init grows the lists to cover both polarities of v.
func (w *Watches) Init(v Var) {
	size := 2*int(v) + 1
	for len(w.occs) <= size {
		w.occs = append(w.occs, nil)
		w.dirty = append(w.dirty, false)
	}
}

//Lookup returns the watcher list of x.
func (w *Watches) Lookup(x Lit) *[]Watcher {
	return &w.occs[x.Index()]
}

func (w *Watches) Append(x Lit, watcher Watcher) {
	w.occs[x.Index()] = append(w.occs[x.Index()], watcher)
}

//Remove strictly deletes the watcher of claRef from the list of x.
func (w *Watches) Remove(x Lit, claRef ClauseReference) {
	ws := w.occs[x.Index()]
	foundIdx := -1
	for i := range ws {
		if ws[i].claRef == claRef {
			foundIdx = i
			break
		}
	}
	if foundIdx == -1 {
		panic(fmt.Errorf("watcher is not found: clause %d literal %d", claRef, x))
	}
	copy(ws[foundIdx:], ws[foundIdx+1:])
	w.occs[x.Index()] = ws[:len(ws)-1]
}

//Smudge marks the list of x dirty so CleanAll purges it later.
func (w *Watches) Smudge(x Lit) {
	if !w.dirty[x.Index()] {
		w.dirty[x.Index()] = true
		w.dirties = append(w.dirties, x)
	}
}

//CleanAll drops watchers of deleted clauses from every smudged list.
func (w *Watches) CleanAll() {
	for _, x := range w.dirties {
		if !w.dirty[x.Index()] {
			continue
		}
		ws := w.occs[x.Index()]
		copiedIdx := 0
		for i := range ws {
			if !w.ca.GetClause(ws[i].claRef).Deleted() {
				ws[copiedIdx] = ws[i]
				copiedIdx++
			}
		}
		w.occs[x.Index()] = ws[:copiedIdx]
		w.dirty[x.Index()] = false
	}
	w.dirties = w.dirties[:0]
}
