package solvers

import (
	"fmt"
	"math"
)

//Clause is a view over one clause inside a ClauseAllocator region. It is only
//valid until the next allocation or compaction.
type Clause struct {
	data []uint32
}

func (c Clause) Size() int {
	return int(c.data[0] >> sizeShift)
}

func (c Clause) Learnt() bool {
	return c.data[0]&flagLearnt != 0
}

func (c Clause) Deleted() bool {
	return c.data[0]&flagDeleted != 0
}

func (c Clause) SetDeleted() {
	c.data[0] |= flagDeleted
}

func (c Clause) CanBeDel() bool {
	return c.data[0]&flagCanBeDel != 0
}

func (c Clause) SetCanBeDel(b bool) {
	if b {
		c.data[0] |= flagCanBeDel
	} else {
		c.data[0] &^= flagCanBeDel
	}
}

func (c Clause) Reloced() bool {
	return c.data[0]&flagReloced != 0
}

func (c Clause) Relocation() ClauseReference {
	return ClauseReference(c.data[1])
}

func (c Clause) relocate(to ClauseReference) {
	c.data[0] |= flagReloced
	c.data[1] = uint32(to)
}

//LBD returns the literal block distance recorded for a learnt clause.
func (c Clause) LBD() int {
	return int(c.data[1])
}

func (c Clause) SetLBD(lbd int) {
	c.data[1] = uint32(lbd)
}

func (c Clause) Activity() float32 {
	return math.Float32frombits(c.data[2])
}

func (c Clause) SetActivity(act float32) {
	c.data[2] = math.Float32bits(act)
}

func (c Clause) At(i int) Lit {
	return Lit(c.data[headerWords+i])
}

func (c Clause) SetAt(i int, l Lit) {
	c.data[headerWords+i] = uint32(l)
}

func (c Clause) Swap(i, j int) {
	c.data[headerWords+i], c.data[headerWords+j] = c.data[headerWords+j], c.data[headerWords+i]
}

//Lits copies the literal sequence out of the arena.
func (c Clause) Lits() []Lit {
	lits := make([]Lit, c.Size())
	for i := range lits {
		lits[i] = c.At(i)
	}
	return lits
}

func (s *Solver) attachClause(claRef ClauseReference) {
	c := s.ca.GetClause(claRef)
	if c.Size() < 2 {
		panic(fmt.Errorf("the size of clause is less than 2: %d", c.Size()))
	}
	firstLit := c.At(0)
	secondLit := c.At(1)
	if c.Size() == 2 {
		s.watchesBin.Append(firstLit.Flip(), Watcher{claRef, secondLit})
		s.watchesBin.Append(secondLit.Flip(), Watcher{claRef, firstLit})
	} else {
		s.watches.Append(firstLit.Flip(), Watcher{claRef, secondLit})
		s.watches.Append(secondLit.Flip(), Watcher{claRef, firstLit})
	}
	if c.Learnt() {
		s.stats.NumLearnts++
		s.stats.LearntsLiterals += uint64(c.Size())
	} else {
		s.stats.NumClauses++
		s.stats.ClausesLiterals += uint64(c.Size())
	}
}

//detachClause removes the two watchers of the clause. A strict detach edits
//the watch lists immediately and is required when the clause stays alive
//(freezing); the lazy path smudges the lists and lets cleanAll purge entries
//pointing at deleted clauses.
func (s *Solver) detachClause(claRef ClauseReference, strict bool) {
	c := s.ca.GetClause(claRef)
	if c.Size() < 2 {
		panic(fmt.Errorf("the size of clause is less than 2: %d", c.Size()))
	}
	firstLit := c.At(0)
	secondLit := c.At(1)
	ws := s.watches
	if c.Size() == 2 {
		ws = s.watchesBin
	}
	if strict {
		ws.Remove(firstLit.Flip(), claRef)
		ws.Remove(secondLit.Flip(), claRef)
	} else {
		ws.Smudge(firstLit.Flip())
		ws.Smudge(secondLit.Flip())
	}
	if c.Learnt() {
		s.stats.NumLearnts--
		s.stats.LearntsLiterals -= uint64(c.Size())
	} else {
		s.stats.NumClauses--
		s.stats.ClausesLiterals -= uint64(c.Size())
	}
}

//locked reports whether the clause is the reason of a current assignment.
//freezeAnalyse never removes or freezes a locked clause; only simplify, at
//level 0, removes one (removeClause then clears the reason).
func (s *Solver) locked(claRef ClauseReference) bool {
	c := s.ca.GetClause(claRef)
	firstLit := c.At(0)
	return s.ValueLit(firstLit) == LitBoolTrue && s.Reason(firstLit.Var()) == claRef
}

func (s *Solver) satisfied(c Clause) bool {
	for i := 0; i < c.Size(); i++ {
		if s.ValueLit(c.At(i)) == LitBoolTrue {
			return true
		}
	}
	return false
}

//removeClause deletes an attached clause: lazy detach, drop a stale reason
//pointer, mark and free.
func (s *Solver) removeClause(claRef ClauseReference) {
	c := s.ca.GetClause(claRef)
	s.detachClause(claRef, false)
	if s.locked(claRef) {
		s.vardata[c.At(0).Var()].Reason = ClaRefUndef
	}
	c.SetDeleted()
	s.ca.FreeClause(claRef)
}
