package reinforce

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"
)

// Sampler draws categorical actions from slices of a logit vector and
// accumulates the weighted log-probability of every draw it makes, together
// with the gradient of that total with respect to the logits. One Sampler
// serves a whole run; Begin resets it for each new turn.
//
// With probability Explore a draw is replaced by a uniform one over the same
// outcomes. The override changes only which action is taken: the recorded
// log-probability and its gradient always come from the true logits.
type Sampler struct {
	// Explore is the probability that any single draw ignores the logits
	// and samples uniformly instead.
	Explore float64

	src rand.Source
	rng *rand.Rand

	logits  []float64
	logProb float64
	grad    []float64
	probs   []float64
}

// NewSampler returns a Sampler drawing from src. Samplers built on
// identically seeded sources reproduce identical draws.
func NewSampler(explore float64, src rand.Source) *Sampler {
	return &Sampler{Explore: explore, src: src, rng: rand.New(src)}
}

// Begin starts a new turn over the given logit vector. The slice is read on
// every Sample call and must not change until the turn is finished.
func (s *Sampler) Begin(logits []float64) {
	s.logits = logits
	s.logProb = 0
	if cap(s.grad) < len(logits) {
		s.grad = make([]float64, len(logits))
	} else {
		s.grad = s.grad[:len(logits)]
		for i := range s.grad {
			s.grad[i] = 0
		}
	}
}

// Sample draws one outcome from the categorical distribution over
// logits[lo:hi] and accumulates weight * logSoftmax(logits[lo:hi])[i] into
// the turn's log-probability total. The returned index is relative to lo.
func (s *Sampler) Sample(lo, hi int, weight float64) int {
	logits := s.logits[lo:hi]
	n := hi - lo

	if cap(s.probs) < n {
		s.probs = make([]float64, n)
	}
	probs := s.probs[:n]
	softmax(probs, logits)

	var i int
	if s.rng.Float64() < s.Explore {
		i = s.rng.Intn(n)
	} else {
		i = int(distuv.NewCategorical(probs, s.src).Rand())
	}

	s.logProb += weight * (logits[i] - floats.LogSumExp(logits))
	for j, p := range probs {
		g := -p
		if j == i {
			g++
		}
		s.grad[lo+j] += weight * g
	}

	return i
}

// LogProb returns the turn's accumulated weighted log-probability.
func (s *Sampler) LogProb() float64 { return s.logProb }

// Grad returns the gradient of LogProb with respect to the full logit
// vector. The slice is reused by the next Begin; callers must copy what
// they keep.
func (s *Sampler) Grad() []float64 { return s.grad }

// softmax writes the softmax of x into dst. dst and x must have equal
// length.
func softmax(dst, x []float64) {
	max := floats.Max(x)
	var sum float64
	for i, v := range x {
		dst[i] = math.Exp(v - max)
		sum += dst[i]
	}
	for i := range dst {
		dst[i] /= sum
	}
}
