package solvers

import "sync/atomic"

//exchangeNode carries one published learnt clause. The literal sequence is
//immutable after publication; cref counts the consumers that have not yet
//moved past this node.
type exchangeNode struct {
	lits []Lit
	lbd  int
	next atomic.Pointer[exchangeNode]
	cref atomic.Int32
}

//exchangeCursor is the private read position of one consumer in one list:
//the last node that consumer has taken. Padded so neighbouring consumers
//never share a cache line.
type exchangeCursor struct {
	ptr *exchangeNode
	_   [56]byte
}

//exchangeList is the append-only list of clauses one producer published.
//head is shared (consumers start there, the producer unlinks from there);
//tail and the counters belong to the producer alone.
type exchangeList struct {
	head     atomic.Pointer[exchangeNode]
	tail     *exchangeNode
	cursors  []exchangeCursor
	nbAdded  uint64
	nbPurged uint64
}

//SharedBase is the learnt-clause exchange between workers. Worker p owns
//Lists[p] structurally; every other worker walks it through its own cursor.
//The only mutation shared between threads is the atomic cref decrement, so
//no step of the exchange ever blocks.
type SharedBase struct {
	threads int
	lists   []exchangeList
}

func NewSharedBase(threads int) *SharedBase {
	sb := &SharedBase{
		threads: threads,
		lists:   make([]exchangeList, threads),
	}
	for i := range sb.lists {
		sb.lists[i].cursors = make([]exchangeCursor, threads)
	}
	return sb
}

func (sb *SharedBase) Threads() int {
	return sb.threads
}

//Push publishes a learnt clause on the producer's own list. Every worker
//except the producer consumes a node, so cref starts at threads-1. The
//producer reuses its reduce-DB cadence to clean its own head.
func (sb *SharedBase) Push(lits []Lit, lbd int, s *Solver) {
	l := &sb.lists[s.id]
	e := &exchangeNode{lits: append([]Lit(nil), lits...), lbd: lbd}
	e.cref.Store(int32(sb.threads - 1))
	if l.tail != nil {
		l.tail.next.Store(e)
	} else {
		l.head.Store(e)
	}
	l.tail = e
	l.nbAdded++

	if s.stats.ConflictCount >= s.curRestart*uint64(s.nbClausesBeforeReduce) {
		sb.clean(l)
	}
}

//clean unlinks fully consumed nodes from the head of the producer's own
//list. Readers never mutate structural links, so unlinking a node whose
//cref reached zero is safe: nobody can reach it again.
func (sb *SharedBase) clean(l *exchangeList) {
	cur := l.head.Load()
	for cur != nil && cur.cref.Load() == 0 {
		l.nbPurged++
		cur = cur.next.Load()
	}
	if cur == nil {
		l.tail = nil
	}
	l.head.Store(cur)
}

//Update walks every other worker's list from this worker's cursor and
//imports the clauses found. A unit clause is enqueued directly; anything
//longer is re-allocated in this worker's own arena, so no handle ever
//crosses a thread. The node behind the cursor is released (cref decrement)
//only when the cursor moves past it.
func (sb *SharedBase) Update(s *Solver) {
	for i := range sb.lists {
		if i == s.id {
			continue
		}
		l := &sb.lists[i]
		cursor := &l.cursors[s.id]

		var j *exchangeNode
		if cursor.ptr == nil {
			j = l.head.Load()
			cursor.ptr = j
		} else {
			j = cursor.ptr.next.Load()
			if j != nil {
				cursor.ptr.cref.Add(-1)
			}
		}

		for j != nil {
			if len(j.lits) == 1 {
				if s.ValueLit(j.lits[0]) == LitBoolUndef {
					s.uncheckedEnqueue(j.lits[0], ClaRefUndef)
				}
				s.stats.ImportedUnitCount++
			} else {
				claRef := s.ca.NewAllocate(j.lits, true)
				c := s.ca.GetClause(claRef)
				c.SetLBD(j.lbd)
				s.learnts = append(s.learnts, learntEntry{claRef: claRef})
				s.attachClause(claRef)
				s.clauseBumpActivity(c)
				s.stats.ImportedClauseCount++
			}
			s.varDecayActivity()
			s.clauseDecayActivity()

			cursor.ptr = j
			nxt := j.next.Load()
			if nxt != nil {
				j.cref.Add(-1)
			}
			j = nxt
		}
	}
}
