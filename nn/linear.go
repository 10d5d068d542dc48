package nn

import (
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// Linear is a single affine layer y = W*x + b with gradient accumulators.
type Linear struct {
	W *mat.Dense    // out x in
	B *mat.VecDense // out

	GradW *mat.Dense
	GradB *mat.VecDense
}

// NewLinear returns an affine layer with orthogonally initialized weights
// (gain 1) and zero biases.
func NewLinear(in, out int, rng *rand.Rand) (*Linear, error) {
	w := mat.NewDense(out, in, nil)
	if err := Orthogonal(w, 1, rng); err != nil {
		return nil, err
	}
	return &Linear{
		W:     w,
		B:     mat.NewVecDense(out, nil),
		GradW: mat.NewDense(out, in, nil),
		GradB: mat.NewVecDense(out, nil),
	}, nil
}

// In and Out report the layer dimensions.
func (l *Linear) In() int  { _, c := l.W.Dims(); return c }
func (l *Linear) Out() int { r, _ := l.W.Dims(); return r }

// Forward computes dst = W*x + b.
func (l *Linear) Forward(dst, x *mat.VecDense) {
	dst.MulVec(l.W, x)
	dst.AddVec(dst, l.B)
}

// Backward accumulates parameter gradients for one upstream gradient g
// observed at input x, and writes the gradient with respect to x into dx.
// dx may be nil when the input gradient is not needed (the first layer).
func (l *Linear) Backward(dx *mat.VecDense, x, g *mat.VecDense) {
	l.GradW.RankOne(l.GradW, 1, g, x)
	l.GradB.AddVec(l.GradB, g)
	if dx != nil {
		dx.MulVec(l.W.T(), g)
	}
}

// ZeroGrad resets the gradient accumulators.
func (l *Linear) ZeroGrad() {
	l.GradW.Zero()
	l.GradB.Zero()
}
