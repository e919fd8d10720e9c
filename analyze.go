package solvers

import (
	"github.com/k0kubun/pp"
)

//analyze resolves the conflict clause bottom-up along the trail until the
//first UIP, then minimizes the result. It returns the learnt clause (the
//asserting literal at position 0, a literal of the backtrack level at
//position 1), the backtrack level, and the clause LBD.
func (s *Solver) analyze(confl ClauseReference) (outLearnt []Lit, outBtLevel, outLBD int) {
	pathC := 0
	p := LitUndef

	outLearnt = append(outLearnt, LitUndef) // (leave room for the asserting literal)
	index := len(s.trail) - 1

	for {
		if confl == ClaRefUndef {
			pp.Println(p, s.decisionLevel(), pathC)
			panic("conflict resolution ran out of reasons before the UIP")
		}
		c := s.ca.GetClause(confl)

		// Binary reasons keep their satisfied literal at position 0.
		if p != LitUndef && c.Size() == 2 && s.ValueLit(c.At(0)) == LitBoolFalse {
			c.Swap(0, 1)
		}

		if c.Learnt() {
			s.clauseBumpActivity(c)
		}

		startIdx := 0
		if p != LitUndef {
			startIdx = 1
		}
		for j := startIdx; j < c.Size(); j++ {
			q := c.At(j)
			if s.seen[q.Var()] || s.Level(q.Var()) == 0 {
				continue
			}
			s.varBumpActivity(q.Var())
			s.seen[q.Var()] = true
			if s.Level(q.Var()) >= s.decisionLevel() {
				pathC++
				if r := s.Reason(q.Var()); r != ClaRefUndef && s.ca.GetClause(r).Learnt() {
					s.lastDecisionLevel = append(s.lastDecisionLevel, q)
				}
			} else {
				outLearnt = append(outLearnt, q)
			}
		}

		// Select next literal to look at.
		for !s.seen[s.trail[index].Var()] {
			index--
		}
		p = s.trail[index]
		index--
		confl = s.Reason(p.Var())
		s.seen[p.Var()] = false
		pathC--
		if pathC <= 0 {
			break
		}
	}
	outLearnt[0] = p.Flip()

	// Simplify conflict clause.
	s.analyzeToClear = append(s.analyzeToClear[:0], outLearnt...)
	s.stats.MaxLiterals += uint64(len(outLearnt))
	switch s.conf.CcminMode {
	case 2:
		abstractLevels := uint32(0)
		for i := 1; i < len(outLearnt); i++ {
			abstractLevels |= s.abstractLevel(outLearnt[i].Var())
		}
		j := 1
		for i := 1; i < len(outLearnt); i++ {
			if s.Reason(outLearnt[i].Var()) == ClaRefUndef || !s.litRedundant(outLearnt[i], abstractLevels) {
				outLearnt[j] = outLearnt[i]
				j++
			}
		}
		outLearnt = outLearnt[:j]
	case 1:
		j := 1
		for i := 1; i < len(outLearnt); i++ {
			x := outLearnt[i].Var()
			if s.Reason(x) == ClaRefUndef {
				outLearnt[j] = outLearnt[i]
				j++
				continue
			}
			c := s.ca.GetClause(s.Reason(x))
			for k := 1; k < c.Size(); k++ {
				if !s.seen[c.At(k).Var()] && s.Level(c.At(k).Var()) > 0 {
					outLearnt[j] = outLearnt[i]
					j++
					break
				}
			}
		}
		outLearnt = outLearnt[:j]
	}
	s.stats.TotLiterals += uint64(len(outLearnt))

	// Minimization with the binary clauses of the asserting literal: a
	// literal already implied by out[0] through a true binary clause is
	// redundant. Only worth it on small clauses with a small LBD.
	if len(outLearnt) <= s.conf.SizeMinimizingClause {
		lbd := s.computeLBD(outLearnt)
		if lbd <= s.conf.LBDMinimizingClause {
			s.flag++
			for i := 1; i < len(outLearnt); i++ {
				s.permDiff[outLearnt[i].Var()] = s.flag
			}
			wbin := *s.watchesBin.Lookup(p)
			nb := 0
			for k := range wbin {
				imp := wbin[k].blocker
				if s.permDiff[imp.Var()] == s.flag && s.ValueLit(imp) == LitBoolTrue {
					nb++
					s.permDiff[imp.Var()] = s.flag - 1
				}
			}
			if nb > 0 {
				s.stats.NbReducedClauses++
				l := len(outLearnt) - 1
				for i := 1; i < len(outLearnt)-nb; i++ {
					if s.permDiff[outLearnt[i].Var()] != s.flag {
						outLearnt[l], outLearnt[i] = outLearnt[i], outLearnt[l]
						l--
						i--
					}
				}
				outLearnt = outLearnt[:len(outLearnt)-nb]
			}
		}
	}

	// Find the correct backtrack level.
	if len(outLearnt) == 1 {
		outBtLevel = 0
	} else {
		maxIdx := 1
		// Find the first literal assigned at the next-highest level.
		for i := 2; i < len(outLearnt); i++ {
			if s.Level(outLearnt[i].Var()) > s.Level(outLearnt[maxIdx].Var()) {
				maxIdx = i
			}
		}
		// Swap-in this literal at index 1.
		outLearnt[maxIdx], outLearnt[1] = outLearnt[1], outLearnt[maxIdx]
		outBtLevel = s.Level(outLearnt[1].Var())
	}

	outLBD = s.computeLBD(outLearnt)

	// Literals of the conflict level implied by a learnt clause that beats
	// the new clause's LBD get a second bump.
	for _, q := range s.lastDecisionLevel {
		if s.ca.GetClause(s.Reason(q.Var())).LBD() < outLBD {
			s.varBumpActivity(q.Var())
		}
	}
	s.lastDecisionLevel = s.lastDecisionLevel[:0]

	for _, l := range s.analyzeToClear {
		s.seen[l.Var()] = false // ('seen[]' is now cleared)
	}
	return outLearnt, outBtLevel, outLBD
}

func (s *Solver) abstractLevel(x Var) uint32 {
	return 1 << (uint32(s.Level(x)) & 31)
}

//litRedundant checks whether p is implied by literals already in the learnt
//clause, walking reasons depth-first. abstractLevels aborts walks that reach
//a level absent from the clause.
func (s *Solver) litRedundant(p Lit, abstractLevels uint32) bool {
	s.analyzeStack = append(s.analyzeStack[:0], p)
	top := len(s.analyzeToClear)
	for len(s.analyzeStack) > 0 {
		last := s.analyzeStack[len(s.analyzeStack)-1]
		s.analyzeStack = s.analyzeStack[:len(s.analyzeStack)-1]
		c := s.ca.GetClause(s.Reason(last.Var()))
		if c.Size() == 2 && s.ValueLit(c.At(0)) == LitBoolFalse {
			c.Swap(0, 1)
		}
		for i := 1; i < c.Size(); i++ {
			q := c.At(i)
			if s.seen[q.Var()] || s.Level(q.Var()) == 0 {
				continue
			}
			if s.Reason(q.Var()) != ClaRefUndef && s.abstractLevel(q.Var())&abstractLevels != 0 {
				s.seen[q.Var()] = true
				s.analyzeStack = append(s.analyzeStack, q)
				s.analyzeToClear = append(s.analyzeToClear, q)
			} else {
				for j := top; j < len(s.analyzeToClear); j++ {
					s.seen[s.analyzeToClear[j].Var()] = false
				}
				s.analyzeToClear = s.analyzeToClear[:top]
				return false
			}
		}
	}
	return true
}

//analyzeFinal expresses the conflict on p in terms of assumptions: the
//returned set holds p and the negations of the assumptions that forced p.
func (s *Solver) analyzeFinal(p Lit) []Lit {
	outConflict := []Lit{p}
	if s.decisionLevel() == 0 {
		return outConflict
	}
	s.seen[p.Var()] = true

	for i := len(s.trail) - 1; i >= s.trailLim[0]; i-- {
		x := s.trail[i].Var()
		if !s.seen[x] {
			continue
		}
		if s.Reason(x) == ClaRefUndef {
			outConflict = append(outConflict, s.trail[i].Flip())
		} else {
			c := s.ca.GetClause(s.Reason(x))
			// Binary reasons may hold the implied literal at position 1.
			startIdx := 1
			if c.Size() == 2 {
				startIdx = 0
			}
			for j := startIdx; j < c.Size(); j++ {
				if s.Level(c.At(j).Var()) > 0 {
					s.seen[c.At(j).Var()] = true
				}
			}
		}
		s.seen[x] = false
	}
	s.seen[p.Var()] = false
	return outConflict
}
