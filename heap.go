package solvers

import "fmt"

//Heap is a binary max-heap over variable activity, used to pick the next
//decision variable.
type Heap struct {
	data     []Var
	indices  []int
	activity []float64
}

func NewHeap() *Heap {
	return &Heap{}
}

func (h *Heap) less(x, y Var) bool {
	return h.activity[x] > h.activity[y]
}

func (h *Heap) Size() int {
	return len(h.data)
}

func (h *Heap) Empty() bool {
	return len(h.data) == 0
}

func (h *Heap) InHeap(x Var) bool {
	return int(x) < len(h.indices) && h.indices[x] >= 0
}

func (h *Heap) At(i int) Var {
	return h.data[i]
}

func (h *Heap) Activity(x Var) float64 {
	return h.activity[x]
}

func (h *Heap) Decrease(x Var) {
	if !h.InHeap(x) {
		panic(fmt.Errorf("the var is not in heap: %d", x))
	}
	h.percolateUp(h.indices[x])
}

func (h *Heap) Grow(x Var) {
	for int(x) >= len(h.indices) {
		h.indices = append(h.indices, -1)
		h.activity = append(h.activity, 0.0)
	}
}

func (h *Heap) PushBack(x Var) {
	if h.InHeap(x) {
		panic(fmt.Errorf("this var is already inserted: %v", x))
	}
	h.Grow(x)
	h.data = append(h.data, x)
	h.indices[x] = len(h.data) - 1
	h.percolateUp(h.indices[x])
}

func (h *Heap) RemoveMin() Var {
	x := h.data[0]
	h.data[0] = h.data[len(h.data)-1]
	h.indices[h.data[0]] = 0
	h.indices[x] = -1
	h.data = h.data[:len(h.data)-1]
	if len(h.data) > 1 {
		h.percolateDown(0)
	}
	return x
}

//Build rebuilds the heap from scratch out of vs.
func (h *Heap) Build(vs []Var) {
	for _, x := range h.data {
		h.indices[x] = -1
	}
	h.data = h.data[:0]
	for i, x := range vs {
		h.indices[x] = i
		h.data = append(h.data, x)
	}
	for i := len(h.data)/2 - 1; i >= 0; i-- {
		h.percolateDown(i)
	}
}

func (h *Heap) percolateUp(i int) {
	x := h.data[i]
	p := parentIndex(i)
	for i != 0 && h.less(x, h.data[p]) {
		h.data[i] = h.data[p]
		h.indices[h.data[p]] = i
		i = p
		p = parentIndex(i)
	}
	h.data[i] = x
	h.indices[x] = i
}

func (h *Heap) percolateDown(i int) {
	x := h.data[i]
	for leftIndex(i) < len(h.data) {
		childIndex := leftIndex(i)
		if rightIndex(i) < len(h.data) && h.less(h.data[rightIndex(i)], h.data[leftIndex(i)]) {
			childIndex = rightIndex(i)
		}
		if !h.less(h.data[childIndex], x) {
			break
		}
		h.data[i] = h.data[childIndex]
		h.indices[h.data[childIndex]] = i
		i = childIndex
	}
	h.data[i] = x
	h.indices[x] = i
}

func leftIndex(i int) int {
	return 2*i + 1
}

func rightIndex(i int) int {
	return 2*i + 2
}

func parentIndex(i int) int {
	return (i - 1) >> 1
}
