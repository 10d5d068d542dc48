package nn

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// ErrInvalidShape is returned when a weight tensor cannot be orthogonally
// initialized because it is not a 2-D matrix with positive dimensions.
var ErrInvalidShape = errors.New("nn: orthogonal init requires a 2-D matrix with positive dimensions")

// Orthogonal fills w with a (semi-)orthogonal matrix scaled by gain.
//
// The rows of w are partitioned into consecutive blocks of up to cols rows.
// Each block is drawn i.i.d. standard normal, replaced by the orthogonal
// factor of a QR decomposition of its transpose, and sign-corrected by the
// diagonal of the triangular factor so that the result is uniformly
// distributed over the orthogonal group rather than biased by the
// factorization's sign convention. Finally the whole matrix is multiplied
// by gain.
//
// Within each block the rows are mutually orthonormal (up to gain).
func Orthogonal(w *mat.Dense, gain float64, rng *rand.Rand) error {
	if w == nil {
		return errors.Wrap(ErrInvalidShape, "nil matrix")
	}
	rows, cols := w.Dims()
	if rows < 1 || cols < 1 {
		return errors.Wrapf(ErrInvalidShape, "shape %dx%d", rows, cols)
	}

	flat := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			flat.Set(i, j, rng.NormFloat64())
		}
	}

	for i := 0; i < rows; i += cols {
		k := cols
		if rows-i < k {
			k = rows - i
		}

		// QR of the block's transpose. gonum requires m >= n for
		// Factorize; cols >= k always holds here.
		blockT := mat.NewDense(cols, k, nil)
		for u := 0; u < cols; u++ {
			for v := 0; v < k; v++ {
				blockT.Set(u, v, flat.At(i+v, u))
			}
		}

		var qr mat.QR
		qr.Factorize(blockT)
		var q, r mat.Dense
		qr.QTo(&q)
		qr.RTo(&r)

		// Column j of Q is scaled by the sign of R[j][j]; transposed,
		// that scales row j of the block.
		for v := 0; v < k; v++ {
			s := 1.0
			if r.At(v, v) < 0 {
				s = -1.0
			}
			for u := 0; u < cols; u++ {
				w.Set(i+v, u, s*q.At(u, v))
			}
		}
	}

	if gain != 1 {
		w.Scale(gain, w)
	}
	return nil
}
