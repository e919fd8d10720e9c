package solvers

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

//ClauseAdder is the surface the DIMACS parser needs; *Solver and *Fleet both
//provide it.
type ClauseAdder interface {
	NumVars() int
	NewVar(sign, dvar bool) Var
	AddClause(lits []Lit) bool
}

func readClause(fields []string, s ClauseAdder) ([]Lit, error) {
	if fields[len(fields)-1] != "0" {
		return nil, errors.Errorf("the end of clause is not 0: %s", strings.Join(fields, " "))
	}
	lits := make([]Lit, 0, len(fields)-1)
	for _, f := range fields[:len(fields)-1] {
		parsed, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Wrapf(err, "bad literal %q", f)
		}
		if parsed == 0 {
			return nil, errors.New("literal 0 inside a clause")
		}
		neg := parsed < 0
		if neg {
			parsed = -parsed
		}
		for parsed > s.NumVars() {
			s.NewVar(true, true)
		}
		lits = append(lits, NewLit(Var(parsed-1), neg))
	}
	return lits, nil
}

//ParseDimacs reads a CNF in DIMACS format into s. Variables referenced
//beyond the declared count are created on the fly, the way headers lie in
//the wild.
func ParseDimacs(r io.Reader, s ClauseAdder) error {
	in := bufio.NewScanner(r)
	in.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
	for in.Scan() {
		line := strings.TrimSpace(in.Text())
		if line == "" || strings.HasPrefix(line, "c") {
			continue
		}
		if strings.HasPrefix(line, "p") {
			fields := strings.Fields(line)
			if len(fields) != 4 || fields[1] != "cnf" {
				return errors.Errorf("malformed problem line: %s", line)
			}
			declaredVars, err := strconv.Atoi(fields[2])
			if err != nil {
				return errors.Wrapf(err, "bad variable count in %q", line)
			}
			for s.NumVars() < declaredVars {
				s.NewVar(true, true)
			}
			continue
		}
		lits, err := readClause(strings.Fields(line), s)
		if err != nil {
			return err
		}
		s.AddClause(lits)
	}
	return errors.Wrap(in.Err(), "reading cnf")
}
