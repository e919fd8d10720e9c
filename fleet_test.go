package solvers

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFleet(n, nVars int, clauses [][]int) *Fleet {
	f := NewFleet(n, DefaultConfig())
	for i := 0; i < nVars; i++ {
		f.NewVar(true, true)
	}
	for _, c := range clauses {
		f.AddClause(lits(c...))
	}
	return f
}

func TestFleetSolveSat(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	var clauses [][]int
	for {
		clauses = randomThreeSat(rng, 10, 40)
		if refSatisfiable(10, clauses) {
			break
		}
	}
	f := newTestFleet(4, 10, clauses)
	require.Equal(t, LitBoolTrue, f.Solve(context.Background()))
	require.GreaterOrEqual(t, f.Winner(), 0)
	require.True(t, modelSatisfies(f.Model(), clauses))
}

func TestFleetSolveUnsat(t *testing.T) {
	f := newTestFleet(4, 12, pigeonClauses(3))
	require.Equal(t, LitBoolFalse, f.Solve(context.Background()))
	require.Empty(t, f.FailedAssumptions())
}

func TestFleetAssumptionConflict(t *testing.T) {
	f := newTestFleet(2, 2, [][]int{{1, 2}})
	require.Equal(t, LitBoolFalse, f.Solve(context.Background(), lits(-1, -2)...))
	require.ElementsMatch(t, lits(1, 2), f.FailedAssumptions())
}

func TestFleetCancelledContext(t *testing.T) {
	f := newTestFleet(2, 2, [][]int{{1, 2}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A dead-on-arrival context still lets trivial searches finish; the
	// fleet must come back either way, without hanging.
	status := f.Solve(ctx)
	require.Contains(t, []LitBool{LitBoolTrue, LitBoolUndef}, status)
}
