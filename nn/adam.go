package nn

import "math"

// Adam default hyperparameters. Only the learning rate is tuned in
// practice; the moment decays and epsilon are the standard values.
const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// Adam applies bias-corrected Adam updates to a network's parameters,
// consuming the gradients accumulated by Backward. Moment estimates live
// in the optimizer: they are not part of a checkpoint, so a restored run
// warms them up again from zero.
type Adam struct {
	LR float64

	layers []*Linear
	steps  int
	m, v   [][]float64
}

// NewAdam creates an optimizer over all layers of net.
func NewAdam(net *Network, lr float64) *Adam {
	a := &Adam{LR: lr, layers: net.Layers()}
	for _, l := range a.layers {
		nW := len(l.W.RawMatrix().Data)
		nB := l.B.Len()
		a.m = append(a.m, make([]float64, nW), make([]float64, nB))
		a.v = append(a.v, make([]float64, nW), make([]float64, nB))
	}
	return a
}

// Step performs one update using the gradients currently held by the
// layers. It does not clear them; call Network.ZeroGrad before
// accumulating the next batch.
func (a *Adam) Step() {
	a.steps++
	c1 := 1 - math.Pow(adamBeta1, float64(a.steps))
	c2 := 1 - math.Pow(adamBeta2, float64(a.steps))

	i := 0
	for _, l := range a.layers {
		a.update(i, c1, c2, l.W.RawMatrix().Data, l.GradW.RawMatrix().Data)
		i++
		a.update(i, c1, c2, l.B.RawVector().Data, l.GradB.RawVector().Data)
		i++
	}
}

func (a *Adam) update(i int, c1, c2 float64, p, g []float64) {
	m, v := a.m[i], a.v[i]
	for j, gj := range g {
		m[j] = adamBeta1*m[j] + (1-adamBeta1)*gj
		v[j] = adamBeta2*v[j] + (1-adamBeta2)*gj*gj
		mHat := m[j] / c1
		vHat := v[j] / c2
		p[j] -= a.LR * mHat / (math.Sqrt(vHat) + adamEps)
	}
}
