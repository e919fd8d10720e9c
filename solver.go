package solvers

import (
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/k0kubun/pp"
	"github.com/sirupsen/logrus"
)

//Conflicts below this bound never block a restart.
const lowerBoundForBlockingRestart = 10000

//learntEntry pairs a learnt clause handle with its freeze state. The two are
//kept in one vector so compaction can never let them drift apart.
type learntEntry struct {
	claRef         ClauseReference
	frozen         bool
	idleReductions uint32
}

type Solver struct {
	conf Config
	log  *logrus.Entry

	// Parallel identity; nil shared means a standalone solver.
	id     int
	shared *SharedBase

	ca         *ClauseAllocator
	clauses    []ClauseReference
	learnts    []learntEntry
	watches    *Watches // clauses of size >= 3
	watchesBin *Watches // binary clauses

	assigns  []LitBool
	polarity []bool // saved phase, true = negative branch
	decision []bool
	vardata  []VarData
	seen     []bool
	permDiff []uint64 // stamp array shared by LBD and binary minimization
	flag     uint64
	trail    []Lit
	trailLim []int
	qhead    int
	nextVar  Var

	varOrder  *Heap
	varInc    float64
	clauseInc float64

	randSeed float64

	OK          bool
	assumptions []Lit
	Conflict    []Lit
	Model       []LitBool

	lbdQueue   *boundedQueue
	trailQueue *boundedQueue
	sumLBD     uint64
	curRestart uint64

	nbClausesBeforeReduce int

	conflictBudget    int64
	propagationBudget int64
	asynchInterrupt   atomic.Bool

	analyzeStack      []Lit
	analyzeToClear    []Lit
	lastDecisionLevel []Lit

	simpDBAssigns int
	simpDBProps   int64
	progress      float64

	// freeze diagnostics, reset by every reduceDB
	avgPSM float64
	avgAct float64

	stats *Statistics
}

func NewSolver(conf Config) *Solver {
	ca := NewClauseAllocator(1024 * 1024)
	s := &Solver{
		conf:                  conf,
		log:                   logrus.NewEntry(logrus.StandardLogger()),
		ca:                    ca,
		varOrder:              NewHeap(),
		varInc:                1,
		clauseInc:             1,
		randSeed:              conf.RandomSeed,
		OK:                    true,
		permDiff:              []uint64{0}, // one extra slot: decision levels run up to NumVars
		lbdQueue:              newBoundedQueue(conf.SizeLBDQueue),
		trailQueue:            newBoundedQueue(conf.SizeTrailQueue),
		curRestart:            1,
		nbClausesBeforeReduce: conf.FirstReduceDB,
		conflictBudget:        -1,
		propagationBudget:     -1,
		simpDBAssigns:         -1,
		stats:                 NewStatistics(),
	}
	s.watches = NewWatches(ca)
	s.watchesBin = NewWatches(ca)
	return s
}

//bind attaches the solver to a shared exchange as worker id.
func (s *Solver) bind(id int, shared *SharedBase, log *logrus.Entry) {
	s.id = id
	s.shared = shared
	if log != nil {
		s.log = log
	}
}

//NewVar creates a fresh variable. sign is the initial saved phase, dvar makes
//the variable eligible for branching.
func (s *Solver) NewVar(sign, dvar bool) Var {
	v := s.nextVar
	s.nextVar++
	s.watches.Init(v)
	s.watchesBin.Init(v)
	s.assigns = append(s.assigns, LitBoolUndef)
	s.vardata = append(s.vardata, VarData{Reason: ClaRefUndef, Level: 0})
	s.seen = append(s.seen, false)
	s.permDiff = append(s.permDiff, 0)
	s.polarity = append(s.polarity, sign)
	s.decision = append(s.decision, false)
	s.varOrder.Grow(v)
	if s.conf.RndInitAct {
		s.varOrder.activity[v] = drand(&s.randSeed) * 0.00001
	}
	s.SetDecisionVar(v, dvar)
	return v
}

func (s *Solver) SetDecisionVar(x Var, dvar bool) {
	s.decision[x] = dvar
	s.insertVarOrder(x)
}

func (s *Solver) insertVarOrder(x Var) {
	if !s.varOrder.InHeap(x) && s.decision[x] {
		s.varOrder.PushBack(x)
	}
}

func (s *Solver) NumVars() int {
	return int(s.nextVar)
}

func (s *Solver) NumAssigns() int {
	return len(s.trail)
}

func (s *Solver) NumClauses() uint64 {
	return s.stats.NumClauses
}

func (s *Solver) NumLearnts() uint64 {
	return s.stats.NumLearnts
}

func (s *Solver) Statistics() *Statistics {
	return s.stats
}

//AddClause adds an original clause. Only legal at decision level 0. Returns
//false when the clause set became unsatisfiable.
func (s *Solver) AddClause(lits []Lit) bool {
	if s.decisionLevel() != 0 {
		panic(fmt.Errorf("the decision level is not zero: %d", s.decisionLevel()))
	}
	if !s.OK {
		return false
	}
	ps := append([]Lit(nil), lits...)
	sort.Slice(ps, func(i, j int) bool { return ps[i] < ps[j] })

	// Drop satisfied clauses, false literals, duplicates and tautologies.
	p := LitUndef
	copiedIdx := 0
	for i := 0; i < len(ps); i++ {
		switch {
		case s.ValueLit(ps[i]) == LitBoolTrue || ps[i] == p.Flip():
			return true
		case s.ValueLit(ps[i]) != LitBoolFalse && ps[i] != p:
			p = ps[i]
			ps[copiedIdx] = p
			copiedIdx++
		}
	}
	ps = ps[:copiedIdx]

	switch len(ps) {
	case 0:
		s.OK = false
	case 1:
		s.uncheckedEnqueue(ps[0], ClaRefUndef)
		s.OK = s.propagate() == ClaRefUndef
	default:
		claRef := s.ca.NewAllocate(ps, false)
		s.clauses = append(s.clauses, claRef)
		s.attachClause(claRef)
	}
	return s.OK
}

func (s *Solver) uncheckedEnqueue(p Lit, from ClauseReference) {
	if s.ValueLit(p) != LitBoolUndef {
		pp.Println(p, s.assigns[p.Var()], s.vardata[p.Var()])
		panic(fmt.Errorf("enqueue of an assigned literal: %d", p))
	}
	if p.Sign() {
		s.assigns[p.Var()] = LitBoolFalse
	} else {
		s.assigns[p.Var()] = LitBoolTrue
	}
	s.vardata[p.Var()] = VarData{Reason: from, Level: s.decisionLevel()}
	s.trail = append(s.trail, p)
}

//propagate performs BCP over all enqueued facts. It returns the conflicting
//clause, or ClaRefUndef once the trail is saturated.
func (s *Solver) propagate() ClauseReference {
	confl := ClaRefUndef
	numProps := 0
	s.watches.CleanAll()
	s.watchesBin.CleanAll()

	for s.qhead < len(s.trail) {
		p := s.trail[s.qhead]
		s.qhead++
		numProps++

		// Binary clauses first: the blocker is the whole story.
		wbin := *s.watchesBin.Lookup(p)
		for k := range wbin {
			imp := wbin[k].blocker
			if s.ValueLit(imp) == LitBoolFalse {
				s.stats.PropagationCount += uint64(numProps)
				s.simpDBProps -= int64(numProps)
				return wbin[k].claRef
			}
			if s.ValueLit(imp) == LitBoolUndef {
				s.uncheckedEnqueue(imp, wbin[k].claRef)
			}
		}

		ws := s.watches.Lookup(p)
		lastIdx, copiedIdx := 0, 0
	nextClause:
		for lastIdx < len(*ws) {
			w := (*ws)[lastIdx]
			// Try to avoid inspecting the clause.
			if s.ValueLit(w.blocker) == LitBoolTrue {
				(*ws)[copiedIdx] = w
				copiedIdx++
				lastIdx++
				continue
			}

			// Make sure the false literal is at position 1.
			claRef := w.claRef
			c := s.ca.GetClause(claRef)
			falseLit := p.Flip()
			if c.At(0) == falseLit {
				c.SetAt(0, c.At(1))
				c.SetAt(1, falseLit)
			}
			if c.At(1) != falseLit {
				panic(fmt.Errorf("the 1th literal is not the false literal: %d %d", c.At(1), falseLit))
			}
			lastIdx++

			// If the 0th watch is true, the clause is already satisfied.
			first := c.At(0)
			nw := Watcher{claRef, first}
			if first != w.blocker && s.ValueLit(first) == LitBoolTrue {
				(*ws)[copiedIdx] = nw
				copiedIdx++
				continue
			}

			// Look for a new watch.
			for k := 2; k < c.Size(); k++ {
				if s.ValueLit(c.At(k)) != LitBoolFalse {
					c.SetAt(1, c.At(k))
					c.SetAt(k, falseLit)
					s.watches.Append(c.At(1).Flip(), nw)
					continue nextClause
				}
			}

			// Did not find a watch: clause is unit under assignment.
			(*ws)[copiedIdx] = nw
			copiedIdx++
			if s.ValueLit(first) == LitBoolFalse {
				confl = claRef
				s.qhead = len(s.trail)
				// Copy the remaining watches.
				for lastIdx < len(*ws) {
					(*ws)[copiedIdx] = (*ws)[lastIdx]
					copiedIdx++
					lastIdx++
				}
			} else {
				s.uncheckedEnqueue(first, claRef)

				// A learnt clause that just became unit may deserve a better
				// LBD; an improved one at most LBDFrozenClause is protected
				// for one round.
				if c.Learnt() && c.LBD() > 2 {
					nblevels := s.computeLBDClause(c)
					if nblevels < c.LBD() {
						if nblevels <= s.conf.LBDFrozenClause {
							c.SetCanBeDel(false)
						}
						c.SetLBD(nblevels)
					}
				}
			}
		}
		*ws = (*ws)[:copiedIdx]
	}
	s.stats.PropagationCount += uint64(numProps)
	s.simpDBProps -= int64(numProps)

	return confl
}

//cancelUntil reverts to the state at the given decision level, keeping all
//assignments at level but not beyond.
func (s *Solver) cancelUntil(level int) {
	if s.decisionLevel() <= level {
		return
	}
	for c := len(s.trail) - 1; c >= s.trailLim[level]; c-- {
		x := s.trail[c].Var()
		s.assigns[x] = LitBoolUndef
		if s.conf.PhaseSaving > 1 || (s.conf.PhaseSaving == 1 && c > s.trailLim[len(s.trailLim)-1]) {
			s.polarity[x] = s.trail[c].Sign()
		}
		s.insertVarOrder(x)
	}
	s.qhead = s.trailLim[level]
	s.trail = s.trail[:s.trailLim[level]]
	s.trailLim = s.trailLim[:level]
}

func (s *Solver) pickBranchLit() Lit {
	next := VarUndef

	// Random decision.
	if drand(&s.randSeed) < s.conf.RandomVarFreq && !s.varOrder.Empty() {
		next = s.varOrder.At(irand(&s.randSeed, s.varOrder.Size()))
		if s.ValueVar(next) == LitBoolUndef && s.decision[next] {
			s.stats.RndDecisionCount++
		}
	}

	// Activity based decision.
	for next == VarUndef || s.ValueVar(next) != LitBoolUndef || !s.decision[next] {
		if s.varOrder.Empty() {
			next = VarUndef
			break
		}
		next = s.varOrder.RemoveMin()
	}
	if next == VarUndef {
		return LitUndef
	}
	if s.conf.RndPol {
		return NewLit(next, drand(&s.randSeed) < 0.5)
	}
	return NewLit(next, s.polarity[next])
}

func (s *Solver) newDecisionLevel() {
	s.trailLim = append(s.trailLim, len(s.trail))
}

func (s *Solver) decisionLevel() int {
	return len(s.trailLim)
}

func (s *Solver) varDecayActivity() {
	s.varInc *= 1 / s.conf.VarDecay
}

func (s *Solver) varBumpActivity(v Var) {
	s.varBumpActivityInc(v, s.varInc)
}

func (s *Solver) varBumpActivityInc(v Var, inc float64) {
	s.varOrder.activity[v] += inc
	if s.varOrder.activity[v] > 1e100 {
		for i := 0; i < s.NumVars(); i++ {
			s.varOrder.activity[i] *= 1e-100
		}
		s.varInc *= 1e-100
	}
	if s.varOrder.InHeap(v) {
		s.varOrder.Decrease(v)
	}
}

func (s *Solver) clauseDecayActivity() {
	s.clauseInc *= 1 / s.conf.ClauseDecay
}

func (s *Solver) clauseBumpActivity(c Clause) {
	c.SetActivity(c.Activity() + float32(s.clauseInc))
	if c.Activity() > 1e20 {
		for i := range s.learnts {
			lc := s.ca.GetClause(s.learnts[i].claRef)
			lc.SetActivity(lc.Activity() * 1e-20)
		}
		s.clauseInc *= 1e-20
	}
}

//search runs CDCL until a result or a forced restart.
func (s *Solver) search() LitBool {
	if !s.OK {
		panic("search on an unusable solver")
	}
	blocked := false
	s.stats.RestartCount++

	for {
		confl := s.propagate()
		if confl != ClaRefUndef {
			// CONFLICT
			s.stats.ConflictCount++
			if s.conf.Verbosity >= 1 && s.conf.VerbEveryConflicts > 0 &&
				s.stats.ConflictCount%uint64(s.conf.VerbEveryConflicts) == 0 {
				s.logSearchProgress()
			}
			if s.decisionLevel() == 0 {
				return LitBoolFalse
			}

			s.trailQueue.Push(int64(len(s.trail)))
			// Block the next forced restart when the trail grew well past
			// its recent average: the solver seems close to something.
			if s.stats.ConflictCount > lowerBoundForBlockingRestart && s.lbdQueue.Valid() &&
				float64(len(s.trail)) > s.conf.R*s.trailQueue.Avg() {
				s.lbdQueue.FastClear()
				s.stats.BlockedRestartCount++
				if !blocked {
					s.stats.LastBlockAtRestart = s.stats.RestartCount
					s.stats.BlockedRestartSameCount++
					blocked = true
				}
			}

			learntClause, backtrackLevel, lbd := s.analyze(confl)
			s.lbdQueue.Push(int64(lbd))
			s.sumLBD += uint64(lbd)
			s.cancelUntil(backtrackLevel)

			if len(learntClause) == 1 {
				s.uncheckedEnqueue(learntClause[0], ClaRefUndef)
				s.stats.NbUn++
			} else {
				claRef := s.ca.NewAllocate(learntClause, true)
				c := s.ca.GetClause(claRef)
				c.SetLBD(lbd)
				if lbd <= 2 {
					s.stats.NbDL2++
				}
				if c.Size() == 2 {
					s.stats.NbBin++
				}
				s.learnts = append(s.learnts, learntEntry{claRef: claRef})
				s.attachClause(claRef)
				s.clauseBumpActivity(c)
				s.uncheckedEnqueue(learntClause[0], claRef)
			}
			if s.shared != nil {
				s.shared.Push(learntClause, lbd, s)
				s.stats.ExportedClauseCount++
			}
			s.varDecayActivity()
			s.clauseDecayActivity()
		} else {
			// NO CONFLICT

			// Forced restart on a degrading LBD average, or a spent budget.
			if !s.withinBudget() ||
				(s.lbdQueue.Valid() && s.lbdQueue.Avg()*s.conf.K > float64(s.sumLBD)/float64(s.stats.ConflictCount)) {
				s.lbdQueue.FastClear()
				s.progress = s.progressEstimate()
				s.cancelUntil(0)
				return LitBoolUndef
			}

			// Simplify the set of problem clauses.
			if s.decisionLevel() == 0 && !s.simplify() {
				return LitBoolFalse
			}

			if s.stats.ConflictCount >= s.curRestart*uint64(s.nbClausesBeforeReduce) {
				s.curRestart = s.stats.ConflictCount/uint64(s.nbClausesBeforeReduce) + 1
				s.reduceDB()
				s.nbClausesBeforeReduce += s.conf.IncReduceDB
			}

			next := LitUndef
			for s.decisionLevel() < len(s.assumptions) {
				// Perform user provided assumption.
				p := s.assumptions[s.decisionLevel()]
				if s.ValueLit(p) == LitBoolTrue {
					// Dummy decision level.
					s.newDecisionLevel()
				} else if s.ValueLit(p) == LitBoolFalse {
					s.Conflict = s.analyzeFinal(p.Flip())
					return LitBoolFalse
				} else {
					next = p
					break
				}
			}

			if next == LitUndef {
				s.stats.DecisionCount++
				next = s.pickBranchLit()
				if next == LitUndef {
					// Model found.
					return LitBoolTrue
				}
			}
			s.newDecisionLevel()
			s.uncheckedEnqueue(next, ClaRefUndef)
		}
	}
}

//Solve searches for a model under the given assumptions. It returns
//LitBoolTrue with Model filled, LitBoolFalse with Conflict holding the failed
//assumption subset (empty when the problem itself is unsatisfiable), or
//LitBoolUndef when a budget ran out or the solver was interrupted.
func (s *Solver) Solve(assumptions ...Lit) LitBool {
	s.Model = nil
	s.Conflict = nil
	if !s.OK {
		return LitBoolFalse
	}
	s.assumptions = append(s.assumptions[:0], assumptions...)

	s.lbdQueue.FastClear()
	s.trailQueue.FastClear()
	s.sumLBD = 0
	s.nbClausesBeforeReduce = s.conf.FirstReduceDB

	status := LitBoolUndef
	for status == LitBoolUndef {
		status = s.search()
		if status == LitBoolUndef {
			if !s.withinBudget() {
				break
			}
			// Between restarts, pull in what the other workers learnt.
			if s.shared != nil {
				s.shared.Update(s)
			}
		}
	}

	if status == LitBoolTrue {
		s.Model = make([]LitBool, s.NumVars())
		for i := range s.Model {
			s.Model[i] = s.ValueVar(Var(i))
		}
	} else if status == LitBoolFalse && len(s.Conflict) == 0 {
		s.OK = false
	}
	s.cancelUntil(0)
	return status
}

//Interrupt asks a running Solve to stop at the next restart boundary.
func (s *Solver) Interrupt() {
	s.asynchInterrupt.Store(true)
}

func (s *Solver) ClearInterrupt() {
	s.asynchInterrupt.Store(false)
}

//SetConflictBudget bounds the total number of conflicts; negative is
//unlimited.
func (s *Solver) SetConflictBudget(x int64) {
	s.conflictBudget = x
}

func (s *Solver) SetPropagationBudget(x int64) {
	s.propagationBudget = x
}

func (s *Solver) withinBudget() bool {
	return !s.asynchInterrupt.Load() &&
		(s.conflictBudget < 0 || int64(s.stats.ConflictCount) < s.conflictBudget) &&
		(s.propagationBudget < 0 || int64(s.stats.PropagationCount) < s.propagationBudget)
}

func (s *Solver) progressEstimate() float64 {
	progress := 0.0
	f := 1.0 / float64(s.NumVars())
	for i := 0; i <= s.decisionLevel(); i++ {
		beg := 0
		if i > 0 {
			beg = s.trailLim[i-1]
		}
		end := len(s.trail)
		if i < s.decisionLevel() {
			end = s.trailLim[i]
		}
		progress += math.Pow(f, float64(i)) * float64(end-beg)
	}
	return progress / float64(s.NumVars())
}

func (s *Solver) logSearchProgress() {
	s.log.WithFields(logrus.Fields{
		"restarts":  s.stats.RestartCount,
		"blocked":   s.stats.BlockedRestartCount,
		"conflicts": s.stats.ConflictCount,
		"clauses":   s.stats.NumClauses,
		"learnts":   s.stats.NumLearnts,
		"lbd2":      s.stats.NbDL2,
		"removed":   s.stats.RemovedClauseCount,
		"progress":  fmt.Sprintf("%.3f%%", s.progress*100),
	}).Info("search")
}
