package solvers

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

//lits builds a clause from DIMACS-style 1-based signed integers.
func lits(xs ...int) []Lit {
	ls := make([]Lit, len(xs))
	for i, x := range xs {
		if x > 0 {
			ls[i] = NewLit(Var(x-1), false)
		} else {
			ls[i] = NewLit(Var(-x-1), true)
		}
	}
	return ls
}

func newTestSolver(nVars int) *Solver {
	s := NewSolver(DefaultConfig())
	for i := 0; i < nVars; i++ {
		s.NewVar(true, true)
	}
	return s
}

func loadClauses(s *Solver, clauses [][]int) {
	for _, c := range clauses {
		s.AddClause(lits(c...))
	}
}

func TestSolveEmptyProblem(t *testing.T) {
	s := newTestSolver(0)
	require.Equal(t, LitBoolTrue, s.Solve())
	require.Empty(t, s.Model)
}

func TestSolveSingleUnit(t *testing.T) {
	s := newTestSolver(1)
	require.True(t, s.AddClause(lits(1)))
	require.Equal(t, LitBoolTrue, s.Solve())
	require.Equal(t, LitBoolTrue, s.Model[0])
}

func TestAddClauseContradiction(t *testing.T) {
	s := newTestSolver(1)
	require.True(t, s.AddClause(lits(1)))
	require.False(t, s.AddClause(lits(-1)))
	require.False(t, s.OK)
	require.Equal(t, LitBoolFalse, s.Solve())
}

func TestAddClauseTautologyAndDuplicates(t *testing.T) {
	s := newTestSolver(2)
	require.True(t, s.AddClause(lits(1, -1)))
	require.Zero(t, s.NumClauses())
	require.True(t, s.AddClause(lits(1, 1, 2)))
	c := s.ca.GetClause(s.clauses[0])
	require.Equal(t, 2, c.Size())
}

//pigeonClauses encodes n+1 pigeons into n holes; always unsatisfiable.
func pigeonClauses(holes int) [][]int {
	pigeons := holes + 1
	v := func(p, h int) int { return p*holes + h + 1 }
	var cs [][]int
	for p := 0; p < pigeons; p++ {
		hole := make([]int, holes)
		for h := 0; h < holes; h++ {
			hole[h] = v(p, h)
		}
		cs = append(cs, hole)
	}
	for h := 0; h < holes; h++ {
		for p := 0; p < pigeons; p++ {
			for q := p + 1; q < pigeons; q++ {
				cs = append(cs, []int{-v(p, h), -v(q, h)})
			}
		}
	}
	return cs
}

func TestSolvePigeonhole(t *testing.T) {
	s := newTestSolver(12)
	loadClauses(s, pigeonClauses(3))
	require.Equal(t, LitBoolFalse, s.Solve())
	require.False(t, s.OK)
}

func TestSolveAssumptionConflict(t *testing.T) {
	s := newTestSolver(2)
	require.True(t, s.AddClause(lits(1, 2)))
	require.Equal(t, LitBoolFalse, s.Solve(lits(-1, -2)...))
	require.ElementsMatch(t, lits(1, 2), s.Conflict)
	// The failure is about the assumptions, not the problem.
	require.True(t, s.OK)
	require.Equal(t, LitBoolTrue, s.Solve())
}

func TestSolveSatisfiedAssumptions(t *testing.T) {
	s := newTestSolver(2)
	require.True(t, s.AddClause(lits(1, 2)))
	require.Equal(t, LitBoolTrue, s.Solve(lits(1)...))
	require.Equal(t, LitBoolTrue, s.Model[0])
}

func TestConflictBudget(t *testing.T) {
	s := newTestSolver(12)
	loadClauses(s, pigeonClauses(3))
	s.SetConflictBudget(1)
	require.Equal(t, LitBoolUndef, s.Solve())
	// The solver stays usable once the budget is lifted.
	s.SetConflictBudget(-1)
	require.Equal(t, LitBoolFalse, s.Solve())
}

//refSatisfiable enumerates all assignments; the ground truth for small
//instances.
func refSatisfiable(nVars int, clauses [][]int) bool {
	for mask := 0; mask < 1<<uint(nVars); mask++ {
		sat := true
		for _, c := range clauses {
			cSat := false
			for _, l := range c {
				v := l
				if v < 0 {
					v = -v
				}
				if (l > 0) == (mask>>uint(v-1)&1 == 1) {
					cSat = true
					break
				}
			}
			if !cSat {
				sat = false
				break
			}
		}
		if sat {
			return true
		}
	}
	return false
}

func modelSatisfies(model []LitBool, clauses [][]int) bool {
	for _, c := range clauses {
		sat := false
		for _, l := range c {
			v := l
			if v < 0 {
				v = -v
			}
			if (l > 0) == (model[v-1] == LitBoolTrue) {
				sat = true
				break
			}
		}
		if !sat {
			return false
		}
	}
	return true
}

func randomThreeSat(rng *rand.Rand, nVars, nClauses int) [][]int {
	clauses := make([][]int, nClauses)
	for i := range clauses {
		c := make([]int, 3)
		for j := range c {
			c[j] = rng.Intn(nVars) + 1
			if rng.Intn(2) == 0 {
				c[j] = -c[j]
			}
		}
		clauses[i] = c
	}
	return clauses
}

//Cross-check against exhaustive enumeration on random 3-SAT around the
//phase transition.
func TestSolveRandomThreeSat(t *testing.T) {
	rng := rand.New(rand.NewSource(91648253))
	for round := 0; round < 200; round++ {
		nVars := 5 + rng.Intn(6)
		nClauses := int(4.3 * float64(nVars))
		clauses := randomThreeSat(rng, nVars, nClauses)

		s := newTestSolver(nVars)
		loadClauses(s, clauses)
		status := s.Solve()
		want := refSatisfiable(nVars, clauses)
		if want {
			require.Equal(t, LitBoolTrue, status, "round %d", round)
			require.True(t, modelSatisfies(s.Model, clauses), "round %d: model does not satisfy", round)
		} else {
			require.Equal(t, LitBoolFalse, status, "round %d", round)
		}
	}
}

//The same seed on the same input must replay the identical search.
func TestSolveDeterministicReplay(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	clauses := randomThreeSat(rng, 30, 120)

	run := func() (LitBool, Statistics) {
		conf := DefaultConfig()
		conf.RandomVarFreq = 0.1
		s := NewSolver(conf)
		for i := 0; i < 30; i++ {
			s.NewVar(true, true)
		}
		loadClauses(s, clauses)
		status := s.Solve()
		return status, *s.Statistics()
	}
	st1, stats1 := run()
	st2, stats2 := run()
	require.Equal(t, st1, st2)
	require.Equal(t, stats1, stats2)
}

func TestCancelUntilRestoresState(t *testing.T) {
	s := newTestSolver(4)
	require.True(t, s.AddClause(lits(1, 2, 3)))
	require.True(t, s.AddClause(lits(-1, 4)))

	s.newDecisionLevel()
	s.uncheckedEnqueue(lits(1)[0], ClaRefUndef)
	require.Equal(t, ClaRefUndef, s.propagate())
	s.newDecisionLevel()
	s.uncheckedEnqueue(lits(2)[0], ClaRefUndef)
	require.Equal(t, ClaRefUndef, s.propagate())
	require.Equal(t, 2, s.decisionLevel())

	s.cancelUntil(1)
	require.Equal(t, 1, s.decisionLevel())
	require.Len(t, s.trailLim, 1)
	for _, x := range []Var{1} {
		require.Equal(t, LitBoolUndef, s.ValueVar(x))
	}
	for _, l := range s.trail {
		require.LessOrEqual(t, s.Level(l.Var()), 1)
	}

	s.cancelUntil(0)
	require.Zero(t, s.decisionLevel())
	require.Empty(t, s.trailLim)
	for v := Var(0); v < 4; v++ {
		require.Equal(t, LitBoolUndef, s.ValueVar(v))
	}
}

//After a saturated propagation no clause may be unit.
func TestPropagateSaturates(t *testing.T) {
	s := newTestSolver(5)
	loadClauses(s, [][]int{{1, 2, 3}, {-1, 2, 4}, {-2, 5}, {-3, -4, 5}})

	s.newDecisionLevel()
	s.uncheckedEnqueue(lits(-2)[0], ClaRefUndef)
	s.newDecisionLevel()
	s.uncheckedEnqueue(lits(-3)[0], ClaRefUndef)
	require.Equal(t, ClaRefUndef, s.propagate())
	require.Equal(t, len(s.trail), s.qhead)

	for _, cr := range s.clauses {
		c := s.ca.GetClause(cr)
		if s.satisfied(c) {
			continue
		}
		free := 0
		for i := 0; i < c.Size(); i++ {
			if s.ValueLit(c.At(i)) == LitBoolUndef {
				free++
			}
		}
		require.Greater(t, free, 1, "clause %d is unit after propagate", cr)
	}
}

//countWatchers returns how many times claRef is watched under literal x.
func countWatchers(w *Watches, x Lit, claRef ClauseReference) int {
	n := 0
	for _, watcher := range *w.Lookup(x) {
		if watcher.claRef == claRef {
			n++
		}
	}
	return n
}

//Every attached clause is watched exactly once through each of its first two
//literals.
func TestWatchInvariant(t *testing.T) {
	s := newTestSolver(6)
	loadClauses(s, [][]int{{1, 2, 3}, {-1, 4}, {2, -3, 5, 6}, {-4, -5}})

	for _, cr := range s.clauses {
		c := s.ca.GetClause(cr)
		ws := s.watches
		if c.Size() == 2 {
			ws = s.watchesBin
		}
		require.Equal(t, 1, countWatchers(ws, c.At(0).Flip(), cr))
		require.Equal(t, 1, countWatchers(ws, c.At(1).Flip(), cr))
	}
}

//LBD never exceeds clause size on learnt clauses produced by a real search.
func TestLearntLBDBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	clauses := randomThreeSat(rng, 40, 170)
	s := newTestSolver(40)
	loadClauses(s, clauses)
	s.Solve()
	for _, e := range s.learnts {
		c := s.ca.GetClause(e.claRef)
		require.LessOrEqual(t, c.LBD(), c.Size())
	}
}
