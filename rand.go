package solvers

//drand is the multiplicative congruential generator MiniSat ships. It is kept instead
//of math/rand so that a run with a given seed replays bit-identically.
func drand(seed *float64) float64 {
	*seed *= 1389796
	q := int64(*seed / 2147483647)
	*seed -= float64(q) * 2147483647
	return *seed / 2147483647
}

//irand returns a pseudo-random integer in [0, size).
func irand(seed *float64, size int) int {
	return int(drand(seed) * float64(size))
}
