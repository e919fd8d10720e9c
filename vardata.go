package solvers

type VarData struct {
	Reason ClauseReference
	Level  int
}

//Reason returns the clause that implied the current value of x, or
//ClaRefUndef for decisions and top-level facts.
func (s *Solver) Reason(x Var) ClauseReference {
	return s.vardata[x].Reason
}

//Level returns the decision level x was assigned at.
func (s *Solver) Level(x Var) int {
	return s.vardata[x].Level
}
