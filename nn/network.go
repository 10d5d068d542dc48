package nn

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// hiddenLayers is the number of hidden affine layers in a policy network.
const hiddenLayers = 4

// Network is a feed-forward policy network: an input layer into
// hiddenLayers equally wide hidden layers, each followed by Swish, and an
// affine output layer producing a logit vector. It is a pure function of
// its parameters: Forward has no side effects other than recording the
// Tape needed for a later Backward.
type Network struct {
	hidden []*Linear
	out    *Linear

	pool scratchPool
}

// NewNetwork builds a network with the given input width, hidden width and
// output logit count. All weights are orthogonally initialized with gain 1;
// all biases start at zero.
func NewNetwork(in, hidden, out int, rng *rand.Rand) (*Network, error) {
	if in < 1 || hidden < 1 || out < 1 {
		return nil, errors.Wrapf(ErrInvalidShape, "network dimensions %d/%d/%d", in, hidden, out)
	}

	n := &Network{}
	width := in
	for i := 0; i < hiddenLayers; i++ {
		l, err := NewLinear(width, hidden, rng)
		if err != nil {
			return nil, err
		}
		n.hidden = append(n.hidden, l)
		width = hidden
	}

	l, err := NewLinear(width, out, rng)
	if err != nil {
		return nil, err
	}
	n.out = l
	return n, nil
}

// In returns the expected input width.
func (n *Network) In() int { return n.hidden[0].In() }

// Out returns the number of output logits.
func (n *Network) Out() int { return n.out.Out() }

// Layers returns all affine layers in forward order. The slice is shared
// with the network; it is intended for optimizers.
func (n *Network) Layers() []*Linear {
	return append(append([]*Linear(nil), n.hidden...), n.out)
}

// Tape records the forward state of one network invocation: the input,
// each hidden layer's pre- and post-activation, and the output logits.
// Only the pre-activations are needed to recompute the Swish gradient;
// no sigmoid values are cached.
type Tape struct {
	in  *mat.VecDense
	zs  []*mat.VecDense
	as  []*mat.VecDense
	Out *mat.VecDense
}

// Logits returns the raw output vector recorded on the tape.
func (t *Tape) Logits() []float64 { return t.Out.RawVector().Data }

// Forward runs the network on x and returns the tape of the invocation.
// x is copied; the caller may reuse it.
func (n *Network) Forward(x []float64) *Tape {
	t := &Tape{in: n.vec(len(x))}
	copy(t.in.RawVector().Data, x)

	cur := t.in
	for _, l := range n.hidden {
		z := n.vec(l.Out())
		l.Forward(z, cur)
		a := n.vec(l.Out())
		Swish(a.RawVector().Data, z.RawVector().Data)
		t.zs = append(t.zs, z)
		t.as = append(t.as, a)
		cur = a
	}

	t.Out = n.vec(n.out.Out())
	n.out.Forward(t.Out, cur)
	return t
}

// Backward accumulates parameter gradients for the invocation recorded on
// t, given the gradient of the loss with respect to the output logits.
// It may be called any number of times per tape with different upstream
// gradients; gradients add up until ZeroGrad.
func (n *Network) Backward(t *Tape, dOut []float64) {
	g := n.vec(len(dOut))
	copy(g.RawVector().Data, dOut)

	last := t.as[len(t.as)-1]
	dx := n.vec(last.Len())
	n.out.Backward(dx, last, g)
	n.freeVec(g)
	g = dx

	for i := len(n.hidden) - 1; i >= 0; i-- {
		SwishBackward(g.RawVector().Data, t.zs[i].RawVector().Data, g.RawVector().Data)

		in := t.in
		if i > 0 {
			in = t.as[i-1]
		}
		var dx *mat.VecDense
		if i > 0 {
			dx = n.vec(n.hidden[i].In())
		}
		n.hidden[i].Backward(dx, in, g)
		n.freeVec(g)
		g = dx
	}
}

// ZeroGrad resets every layer's gradient accumulators.
func (n *Network) ZeroGrad() {
	for _, l := range n.hidden {
		l.ZeroGrad()
	}
	n.out.ZeroGrad()
}

// FreeTape releases the tape's buffers back to the network's scratch pool.
// The tape must not be used afterwards.
func (n *Network) FreeTape(t *Tape) {
	if t == nil {
		return
	}
	n.freeVec(t.in)
	for _, z := range t.zs {
		n.freeVec(z)
	}
	for _, a := range t.as {
		n.freeVec(a)
	}
	n.freeVec(t.Out)
	t.in, t.zs, t.as, t.Out = nil, nil, nil, nil
}

func (n *Network) vec(size int) *mat.VecDense {
	return mat.NewVecDense(size, n.pool.alloc(size))
}

func (n *Network) freeVec(v *mat.VecDense) {
	n.pool.free(v.RawVector().Data)
}

// Snapshot is a value copy of all network parameters, suitable for gob
// encoding in a checkpoint.
type Snapshot struct {
	Layers []LayerSnapshot
}

// LayerSnapshot holds one affine layer's parameters.
type LayerSnapshot struct {
	In, Out int
	W, B    []float64
}

// Snapshot copies the current parameters.
func (n *Network) Snapshot() *Snapshot {
	s := &Snapshot{}
	for _, l := range n.Layers() {
		s.Layers = append(s.Layers, LayerSnapshot{
			In:  l.In(),
			Out: l.Out(),
			W:   append([]float64(nil), l.W.RawMatrix().Data...),
			B:   append([]float64(nil), l.B.RawVector().Data...),
		})
	}
	return s
}

// Restore copies parameters from a snapshot taken from a network of the
// same architecture. Shape mismatches are rejected.
func (n *Network) Restore(s *Snapshot) error {
	layers := n.Layers()
	if len(s.Layers) != len(layers) {
		return errors.Errorf("nn: snapshot has %d layers, network has %d", len(s.Layers), len(layers))
	}
	for i, ls := range s.Layers {
		l := layers[i]
		if ls.In != l.In() || ls.Out != l.Out() {
			return errors.Errorf("nn: layer %d is %dx%d in snapshot, %dx%d in network",
				i, ls.Out, ls.In, l.Out(), l.In())
		}
		if len(ls.W) != ls.In*ls.Out || len(ls.B) != ls.Out {
			return errors.Errorf("nn: layer %d snapshot has %d weights and %d biases for shape %dx%d",
				i, len(ls.W), len(ls.B), ls.Out, ls.In)
		}
	}
	for i, ls := range s.Layers {
		copy(layers[i].W.RawMatrix().Data, ls.W)
		copy(layers[i].B.RawVector().Data, ls.B)
	}
	return nil
}
