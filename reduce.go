package solvers

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

//Reductions a learnt clause may sit idle before deletion.
const maxIdleReductions = 3

//psmCalc computes the polarity-saving measure of a clause: one point off per
//literal whose variable currently sits at its saved phase.
func (s *Solver) psmCalc(c Clause) int {
	psm := 0
	for i := 0; i < c.Size(); i++ {
		x := c.At(i).Var()
		pol := 0
		if s.polarity[x] {
			pol = 1
		}
		if pol == int(s.assigns[x]) {
			psm--
		}
	}
	return psm
}

//toFreeze decides whether a learnt clause should sit out the next rounds of
//propagation, and feeds the reduction diagnostics.
func (s *Solver) toFreeze(claRef ClauseReference) bool {
	c := s.ca.GetClause(claRef)
	psm := s.psmCalc(c)
	s.avgPSM += float64(psm)
	s.avgAct += float64(c.Activity())
	return psm <= s.conf.PSMCutoff
}

//freezeAnalyse walks the learnt database once: clauses crossing the PSM
//cutoff are detached (frozen) or re-attached (thawed), and clauses that sat
//idle for maxIdleReductions rounds with a poor LBD are deleted. The handle
//and its freeze state travel together through the in-place compaction.
func (s *Solver) freezeAnalyse() {
	j := 0
	for i := range s.learnts {
		e := s.learnts[i]
		c := s.ca.GetClause(e.claRef)

		before := e.frozen
		after := s.toFreeze(e.claRef)
		if after && !before && s.locked(e.claRef) {
			// A reason clause stays attached no matter its measure.
			after = false
		}
		e.frozen = after
		if before != after {
			if after {
				s.detachClause(e.claRef, true)
				s.stats.FrozenCount++
			} else {
				s.attachClause(e.claRef)
				e.idleReductions = 0
				s.stats.ThawedCount++
			}
		}

		if c.Activity() >= 100000 && !e.frozen {
			e.idleReductions = 0
		}

		e.idleReductions++
		if e.idleReductions >= maxIdleReductions && c.LBD() >= 3 && c.CanBeDel() && !s.locked(e.claRef) {
			s.removeLearnt(e)
			s.stats.RemovedClauseCount++
			continue
		}
		c.SetCanBeDel(true)
		s.learnts[j] = e
		j++
	}
	s.learnts = s.learnts[:j]
	s.checkGarbage()
}

//removeLearnt deletes a learnt clause, frozen or not. A frozen clause is
//already out of the watch lists, so only the live one detaches.
func (s *Solver) removeLearnt(e learntEntry) {
	if !e.frozen {
		s.removeClause(e.claRef)
		return
	}
	c := s.ca.GetClause(e.claRef)
	c.SetDeleted()
	s.ca.FreeClause(e.claRef)
}

func (s *Solver) reduceDB() {
	s.stats.ReduceDBCount++
	s.avgPSM = 0
	s.avgAct = 0
	s.freezeAnalyse()

	// Lots of good clauses are hard to tell apart; reduce less often then.
	good := 0
	for i := range s.learnts {
		if s.ca.GetClause(s.learnts[i].claRef).LBD() <= 3 {
			good++
		}
	}
	if len(s.learnts) > 0 && 2*good >= len(s.learnts) {
		s.nbClausesBeforeReduce += s.conf.SpecialIncReduceDB
	}

	if s.conf.Verbosity >= 2 {
		s.log.WithFields(logrus.Fields{
			"avg_psm": -s.avgPSM,
			"avg_act": s.avgAct,
			"learnts": len(s.learnts),
		}).Debug("reduce")
	}
}

func (s *Solver) removeSatisfied(refs []ClauseReference) []ClauseReference {
	j := 0
	for _, claRef := range refs {
		c := s.ca.GetClause(claRef)
		if c.Size() >= 2 && s.satisfied(c) {
			s.removeClause(claRef)
		} else {
			refs[j] = claRef
			j++
		}
	}
	return refs[:j]
}

func (s *Solver) removeSatisfiedLearnts() {
	j := 0
	for _, e := range s.learnts {
		if s.satisfied(s.ca.GetClause(e.claRef)) {
			s.removeLearnt(e)
		} else {
			s.learnts[j] = e
			j++
		}
	}
	s.learnts = s.learnts[:j]
}

//simplify prunes the clause database against the top-level assignment.
func (s *Solver) simplify() bool {
	if s.decisionLevel() != 0 {
		panic(fmt.Errorf("simplify above decision level 0: %d", s.decisionLevel()))
	}
	if !s.OK || s.propagate() != ClaRefUndef {
		s.OK = false
		return false
	}
	if s.NumAssigns() == s.simpDBAssigns || s.simpDBProps > 0 {
		return true
	}

	s.removeSatisfiedLearnts()
	s.clauses = s.removeSatisfied(s.clauses)
	s.checkGarbage()
	s.rebuildOrderHeap()

	s.simpDBAssigns = s.NumAssigns()
	s.simpDBProps = int64(s.stats.ClausesLiterals + s.stats.LearntsLiterals)
	return true
}

func (s *Solver) rebuildOrderHeap() {
	vs := make([]Var, 0, s.NumVars())
	for v := Var(0); v < s.nextVar; v++ {
		if s.decision[v] && s.ValueVar(v) == LitBoolUndef {
			vs = append(vs, v)
		}
	}
	s.varOrder.Build(vs)
}

func (s *Solver) checkGarbage() {
	if float64(s.ca.Wasted()) > float64(s.ca.Size())*s.conf.GarbageFrac {
		s.garbageCollect()
	}
}

//garbageCollect compacts the arena into a region sized to the live clauses
//and rewrites every root handle.
func (s *Solver) garbageCollect() {
	to := NewClauseAllocator(s.ca.Size() - s.ca.Wasted())
	s.relocAll(to)
	if s.conf.Verbosity >= 2 {
		s.log.WithFields(logrus.Fields{
			"before_words": s.ca.Size(),
			"after_words":  to.Size(),
		}).Debug("garbage collection")
	}
	s.ca = to
	s.watches.ca = to
	s.watchesBin.ca = to
}

//relocAll walks every root holding a clause handle: watch lists, reasons on
//the trail, learnt entries, original clauses.
func (s *Solver) relocAll(to *ClauseAllocator) {
	s.watches.CleanAll()
	s.watchesBin.CleanAll()
	for v := Var(0); v < s.nextVar; v++ {
		for sgn := 0; sgn < 2; sgn++ {
			p := NewLit(v, sgn == 1)
			ws := s.watches.Lookup(p)
			for i := range *ws {
				s.ca.Reloc(&(*ws)[i].claRef, to)
			}
			wsBin := s.watchesBin.Lookup(p)
			for i := range *wsBin {
				s.ca.Reloc(&(*wsBin)[i].claRef, to)
			}
		}
	}
	for _, l := range s.trail {
		v := l.Var()
		r := s.vardata[v].Reason
		if r != ClaRefUndef && (s.ca.GetClause(r).Reloced() || s.locked(r)) {
			s.ca.Reloc(&s.vardata[v].Reason, to)
		}
	}
	for i := range s.learnts {
		s.ca.Reloc(&s.learnts[i].claRef, to)
	}
	for i := range s.clauses {
		s.ca.Reloc(&s.clauses[i], to)
	}
}
