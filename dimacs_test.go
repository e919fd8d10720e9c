package solvers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleCNF = `c a tiny satisfiable instance
p cnf 3 3
1 -2 0
2 3 0
-1 3 0
`

func TestParseDimacs(t *testing.T) {
	s := NewSolver(DefaultConfig())
	require.NoError(t, ParseDimacs(strings.NewReader(sampleCNF), s))
	require.Equal(t, 3, s.NumVars())
	require.Equal(t, uint64(3), s.NumClauses())
	require.Equal(t, LitBoolTrue, s.Solve())
}

func TestParseDimacsGrowsBeyondHeader(t *testing.T) {
	s := NewSolver(DefaultConfig())
	in := "p cnf 1 1\n1 4 0\n"
	require.NoError(t, ParseDimacs(strings.NewReader(in), s))
	require.Equal(t, 4, s.NumVars())
}

func TestParseDimacsErrors(t *testing.T) {
	for _, in := range []string{
		"p cnf 2\n",      // malformed problem line
		"p cnf 2 1\n1\n", // clause not terminated by 0
		"1 x 0\n",        // junk literal
		"1 0 2 0\n",      // zero inside a clause
	} {
		s := NewSolver(DefaultConfig())
		require.Error(t, ParseDimacs(strings.NewReader(in), s), "input %q", in)
	}
}
