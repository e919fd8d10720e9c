package solvers

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func randomLits(rng *rand.Rand, size int) []Lit {
	lits := make([]Lit, size)
	for i := range lits {
		lits[i] = NewLit(Var(rng.Intn(100)), rng.Intn(2) == 0)
	}
	return lits
}

func TestAllocateRoundTrip(t *testing.T) {
	ca := NewClauseAllocator(0)
	lits := []Lit{NewLit(0, false), NewLit(1, true), NewLit(2, false)}
	cr := ca.NewAllocate(lits, true)

	c := ca.GetClause(cr)
	require.Equal(t, 3, c.Size())
	require.True(t, c.Learnt())
	require.True(t, c.CanBeDel())
	require.False(t, c.Deleted())
	require.Equal(t, lits, c.Lits())

	c.SetLBD(2)
	c.SetActivity(1.5)
	require.Equal(t, 2, c.LBD())
	require.Equal(t, float32(1.5), c.Activity())
}

func TestFreeTracksWaste(t *testing.T) {
	ca := NewClauseAllocator(0)
	cr := ca.NewAllocate([]Lit{NewLit(0, false), NewLit(1, false)}, false)
	ca.NewAllocate([]Lit{NewLit(2, false), NewLit(3, false)}, false)

	require.Zero(t, ca.Wasted())
	ca.GetClause(cr).SetDeleted()
	ca.FreeClause(cr)
	require.Equal(t, headerWords+2, ca.Wasted())
	// The words stay readable so lazy watcher purging can see the mark.
	require.True(t, ca.GetClause(cr).Deleted())
}

//Relocation must preserve contents and map every live handle exactly once.
func TestRelocPreservesClauses(t *testing.T) {
	rng := rand.New(rand.NewSource(114514))
	ca := NewClauseAllocator(0)

	crefs := make([]ClauseReference, 0, 50)
	contents := make([][]Lit, 0, 50)
	for i := 0; i < 50; i++ {
		lits := randomLits(rng, 2+rng.Intn(8))
		crefs = append(crefs, ca.NewAllocate(lits, i%2 == 0))
		contents = append(contents, lits)
	}

	to := NewClauseAllocator(ca.Size())
	for i := range crefs {
		old := crefs[i]
		ca.Reloc(&crefs[i], to)
		// A second reloc of the same handle follows the forward.
		again := old
		ca.Reloc(&again, to)
		require.Equal(t, crefs[i], again)
	}
	for i := range crefs {
		require.Equal(t, contents[i], to.GetClause(crefs[i]).Lits())
	}
}

func BenchmarkNewAllocate(b *testing.B) {
	rng := rand.New(rand.NewSource(114514))
	ca := NewClauseAllocator(0)
	lits := randomLits(rng, 100)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ca.NewAllocate(lits, i%2 == 0)
	}
}
