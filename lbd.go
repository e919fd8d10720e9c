package solvers

//The literal block distance of a clause is the number of distinct decision
//levels among its literals. Distinctness is tracked by stamping permDiff with
//a monotonically increasing flag, so no clearing pass is ever needed.

func (s *Solver) computeLBD(lits []Lit) int {
	lbd := 0
	s.flag++
	for _, l := range lits {
		lv := s.Level(l.Var())
		if s.permDiff[lv] != s.flag {
			s.permDiff[lv] = s.flag
			lbd++
		}
	}
	return lbd
}

func (s *Solver) computeLBDClause(c Clause) int {
	lbd := 0
	s.flag++
	for i := 0; i < c.Size(); i++ {
		lv := s.Level(c.At(i).Var())
		if s.permDiff[lv] != s.flag {
			s.permDiff[lv] = s.flag
			lbd++
		}
	}
	return lbd
}
