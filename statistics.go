package solvers

type Statistics struct {
	RestartCount     uint64
	DecisionCount    uint64
	RndDecisionCount uint64
	PropagationCount uint64
	ConflictCount    uint64

	NumLearnts      uint64
	NumClauses      uint64
	ClausesLiterals uint64
	LearntsLiterals uint64
	MaxLiterals     uint64
	TotLiterals     uint64

	ReduceDBCount      uint64
	RemovedClauseCount uint64
	FrozenCount        uint64
	ThawedCount        uint64
	NbDL2              uint64 // learnt clauses with LBD <= 2
	NbBin              uint64 // learnt binary clauses
	NbUn               uint64 // learnt unit clauses
	NbReducedClauses   uint64 // clauses shrunk by binary minimization

	BlockedRestartCount     uint64
	BlockedRestartSameCount uint64
	LastBlockAtRestart      uint64

	ExportedClauseCount uint64
	ImportedClauseCount uint64
	ImportedUnitCount   uint64
}

func NewStatistics() *Statistics {
	return &Statistics{}
}
