package junction

// ConnectionCounts solves the pairwise connection counts of a junction:
// given incident rings in cyclic order with around counts a[0..k-1], it
// returns c[0..k-1] where c[i] is the number of boundary elements shared
// between ring i and ring i+1, satisfying c[i-1] + c[i] = a[i] for every
// ring. For three rings this is the classic ab+ca=a, ab+bc=b, bc+ca=c
// system. Every count must be at least 1; otherwise the junction is
// incompatible and the caller is expected to nudge the around counts.
//
// Odd k has a unique solution. Even k has one degree of freedom (and
// requires the alternating sum of the around counts to vanish); the
// solution maximising the smallest connection count is returned so the
// saddle stays as evenly divided as possible.
func ConnectionCounts(around []int) ([]int, error) {
	k := len(around)
	if k < 2 {
		return nil, ErrTooFewRings
	}
	total := 0
	for _, a := range around {
		total += a
	}
	if total%2 != 0 {
		return nil, ErrOddConnectionSum
	}

	solve := func(c0 int) []int {
		c := make([]int, k)
		c[0] = c0
		for i := 1; i < k; i++ {
			c[i] = around[i] - c[i-1]
		}
		return c
	}
	valid := func(c []int) bool {
		if c[k-1]+c[0] != around[0] {
			return false
		}
		for _, v := range c {
			if v < 1 {
				return false
			}
		}
		return true
	}

	if k%2 == 1 {
		// unique: a[0] = c[k-1] + c[0] pins c[0]
		alt := 0
		sign := 1
		for t := k - 1; t >= 1; t-- {
			alt += sign * around[t]
			sign = -sign
		}
		if (around[0]-alt)%2 != 0 {
			return nil, ErrNoDecomposition
		}
		c := solve((around[0] - alt) / 2)
		if !valid(c) {
			return nil, ErrNoDecomposition
		}
		return c, nil
	}

	var best []int
	bestMin := 0
	for c0 := 1; c0 < around[1]; c0++ {
		c := solve(c0)
		if !valid(c) {
			continue
		}
		m := c[0]
		for _, v := range c {
			if v < m {
				m = v
			}
		}
		if m > bestMin {
			bestMin = m
			best = c
		}
	}
	if best == nil {
		return nil, ErrNoDecomposition
	}
	return best, nil
}
