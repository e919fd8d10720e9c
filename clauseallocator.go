package solvers

import (
	"fmt"
	"math"
)

//ClauseReference is a compact handle into the allocator region.
type ClauseReference uint32

const ClaRefUndef ClauseReference = math.MaxUint32

//Clause header layout. Word 0 packs the size and the flag bits, word 1 holds
//the LBD (or the forwarding reference once the clause has been relocated),
//word 2 holds the activity as float32 bits. Literals follow.
const (
	flagLearnt   uint32 = 1 << 0
	flagDeleted  uint32 = 1 << 1
	flagCanBeDel uint32 = 1 << 2
	flagReloced  uint32 = 1 << 3

	sizeShift   = 4
	headerWords = 3
)

//ClauseAllocator is a bump allocator for clauses. Freeing only marks space as
//wasted; the solver triggers a compacting relocation into a fresh allocator
//once the wasted fraction passes Config.GarbageFrac.
type ClauseAllocator struct {
	region []uint32
	wasted uint32
}

func NewClauseAllocator(capa int) *ClauseAllocator {
	if capa < headerWords {
		capa = 1024
	}
	return &ClauseAllocator{region: make([]uint32, 0, capa)}
}

//Size returns the number of allocated words, wasted ones included.
func (ca *ClauseAllocator) Size() int {
	return len(ca.region)
}

//Wasted returns the number of words occupied by freed clauses.
func (ca *ClauseAllocator) Wasted() int {
	return int(ca.wasted)
}

//NewAllocate stores the literals with a fresh header and returns the handle.
//Unit clauses are never stored; they go straight onto the trail.
func (ca *ClauseAllocator) NewAllocate(lits []Lit, learnt bool) ClauseReference {
	if len(lits) < 2 {
		panic(fmt.Errorf("allocating a clause of size %d", len(lits)))
	}
	cref := ClauseReference(len(ca.region))
	hdr := uint32(len(lits))<<sizeShift | flagCanBeDel
	if learnt {
		hdr |= flagLearnt
	}
	ca.region = append(ca.region, hdr, 0, 0)
	for _, l := range lits {
		ca.region = append(ca.region, uint32(l))
	}
	return cref
}

//GetClause returns a view over the clause stored at claRef.
func (ca *ClauseAllocator) GetClause(claRef ClauseReference) Clause {
	if int(claRef)+headerWords > len(ca.region) {
		panic(fmt.Errorf("the clause is not allocated: %d", claRef))
	}
	size := int(ca.region[claRef] >> sizeShift)
	return Clause{data: ca.region[claRef : int(claRef)+headerWords+size]}
}

//FreeClause retires the handle. The words stay readable until the next
//compaction so that lazily detached watchers can still inspect the mark.
func (ca *ClauseAllocator) FreeClause(claRef ClauseReference) {
	c := ca.GetClause(claRef)
	ca.wasted += headerWords + uint32(c.Size())
}

//Reloc moves the clause behind *claRef into to and updates the handle. The
//first call on a clause copies it and leaves a forwarding reference in the
//old header; later calls just follow the forward.
func (ca *ClauseAllocator) Reloc(claRef *ClauseReference, to *ClauseAllocator) {
	c := ca.GetClause(*claRef)
	if c.Reloced() {
		*claRef = c.Relocation()
		return
	}
	nr := ClauseReference(len(to.region))
	to.region = append(to.region, c.data...)
	c.relocate(nr)
	*claRef = nr
}
