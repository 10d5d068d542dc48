package nn

// scratchPool recycles []float64 buffers. Forward and backward passes churn
// through a handful of activation vectors per game turn; reusing their
// backing arrays keeps the steady-state allocation rate near zero.
//
// The zero value is ready to use. A nil pool falls back to plain make.
type scratchPool struct {
	bufs [][]float64
}

// alloc returns a zeroed buffer of length n.
func (p *scratchPool) alloc(n int) []float64 {
	if p == nil || len(p.bufs) == 0 {
		return make([]float64, n)
	}

	last := len(p.bufs) - 1
	next := p.bufs[last]
	p.bufs = p.bufs[:last]
	// next has length zero; appending n zeros reuses its backing array
	// whenever the capacity suffices.
	return append(next, make([]float64, n)...)
}

func (p *scratchPool) free(s []float64) {
	if p == nil || cap(s) == 0 {
		return
	}
	p.bufs = append(p.bufs, s[:0])
}
