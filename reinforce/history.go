package reinforce

import "gonum.org/v1/gonum/stat"

// ScoreHistory is the append-only record of every kept episode's final
// score over the lifetime of a run, in completion order. It is restored
// from a checkpoint at startup, extended once per batch, and never pruned.
type ScoreHistory struct {
	scores []int
}

// Extend appends one batch of final scores in completion order.
func (h *ScoreHistory) Extend(scores []int) {
	h.scores = append(h.scores, scores...)
}

// Len returns the number of recorded episodes.
func (h *ScoreHistory) Len() int { return len(h.scores) }

// Scores returns a copy of the full history.
func (h *ScoreHistory) Scores() []int {
	return append([]int(nil), h.scores...)
}

// Last returns a copy of the most recent n scores, fewer if the history is
// shorter.
func (h *ScoreHistory) Last(n int) []int {
	if n > len(h.scores) {
		n = len(h.scores)
	}
	return append([]int(nil), h.scores[len(h.scores)-n:]...)
}

// Mean returns the mean of the most recent window scores. An empty history
// has mean 0.
func (h *ScoreHistory) Mean(window int) float64 {
	last := h.scores
	if window < len(last) {
		last = last[len(last)-window:]
	}
	if len(last) == 0 {
		return 0
	}

	xs := make([]float64, len(last))
	for i, s := range last {
		xs[i] = float64(s)
	}
	return stat.Mean(xs, nil)
}

// Restore replaces the history with scores read from a checkpoint.
func (h *ScoreHistory) Restore(scores []int) {
	h.scores = append([]int(nil), scores...)
}
