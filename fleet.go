package solvers

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

//Fleet is a portfolio of workers over one SharedBase. The problem is loaded
//into every worker; the first worker to answer wins and the rest are
//interrupted. Workers differ only by their random seed.
type Fleet struct {
	conf    Config
	log     *logrus.Entry
	shared  *SharedBase
	workers []*Solver
	winner  int
}

func NewFleet(n int, conf Config) *Fleet {
	if n < 1 {
		n = 1
	}
	f := &Fleet{
		conf:   conf,
		log:    logrus.NewEntry(logrus.StandardLogger()),
		shared: NewSharedBase(n),
		winner: -1,
	}
	for i := 0; i < n; i++ {
		wconf := conf
		wconf.RandomSeed = conf.RandomSeed + float64(i)*9973
		w := NewSolver(wconf)
		w.bind(i, f.shared, f.log.WithField("worker", i))
		f.workers = append(f.workers, w)
	}
	return f
}

func (f *Fleet) Workers() []*Solver {
	return f.workers
}

//Winner is the index of the worker that produced the last answer, -1 before
//the first Solve and after a Solve that ended without an answer.
func (f *Fleet) Winner() int {
	return f.winner
}

func (f *Fleet) NumVars() int {
	return f.workers[0].NumVars()
}

//NewVar creates the variable in every worker.
func (f *Fleet) NewVar(sign, dvar bool) Var {
	v := VarUndef
	for _, w := range f.workers {
		v = w.NewVar(sign, dvar)
	}
	return v
}

//AddClause loads the clause into every worker. All workers see the same
//input, so they agree on the result.
func (f *Fleet) AddClause(lits []Lit) bool {
	ok := true
	for _, w := range f.workers {
		ok = w.AddClause(lits)
	}
	return ok
}

//Interrupt stops every worker at its next restart boundary.
func (f *Fleet) Interrupt() {
	for _, w := range f.workers {
		w.Interrupt()
	}
}

type fleetResult struct {
	id     int
	status LitBool
}

//Solve runs all workers until the first answers or ctx is done. It returns
//LitBoolUndef only when every worker was interrupted or ran out of budget.
func (f *Fleet) Solve(ctx context.Context, assumptions ...Lit) LitBool {
	f.winner = -1
	results := make(chan fleetResult, len(f.workers))
	stop := context.AfterFunc(ctx, f.Interrupt)
	defer stop()

	var g errgroup.Group
	for i := range f.workers {
		i := i
		w := f.workers[i]
		g.Go(func() error {
			status := w.Solve(assumptions...)
			if status != LitBoolUndef {
				results <- fleetResult{id: i, status: status}
				f.Interrupt()
			}
			return nil
		})
	}
	g.Wait()
	close(results)

	status := LitBoolUndef
	for r := range results {
		if f.winner == -1 {
			f.winner = r.id
			status = r.status
			f.log.WithFields(logrus.Fields{"worker": r.id, "status": r.status}).Debug("first answer")
		}
	}
	for _, w := range f.workers {
		w.ClearInterrupt()
	}
	return status
}

//Model returns the winning worker's model after a satisfiable Solve.
func (f *Fleet) Model() []LitBool {
	if f.winner < 0 {
		return nil
	}
	return f.workers[f.winner].Model
}

//FailedAssumptions returns the winning worker's conflict subset after an
//unsatisfiable Solve under assumptions.
func (f *Fleet) FailedAssumptions() []Lit {
	if f.winner < 0 {
		return nil
	}
	return f.workers[f.winner].Conflict
}
