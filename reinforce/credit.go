package reinforce

import "gonum.org/v1/gonum/stat"

const (
	// NormalizeEpsilon keeps return normalization finite on near-constant
	// return sequences.
	NormalizeEpsilon = 1e-5
	// PerfectScore is the maximum game score: all five piles complete.
	PerfectScore = 25
)

// CreditAssigner converts a finished trajectory into per-turn loss weights.
// The batch loss is the sum over all kept turns of Weights[i]*LogProb[i],
// divided by the total number of kept turns in the batch.
type CreditAssigner interface {
	// Keep reports whether the episode participates in the batch at all.
	// A dropped episode contributes no loss, no turn count and no score.
	Keep(t *Trajectory) bool
	// Weights returns one loss weight per turn of the trajectory.
	Weights(t *Trajectory) []float64
	// FinalReward is the reward of an episode's last turn. illegal is true
	// when the episode ended on a rejected move; score is the final game
	// score and delta the last turn's score change.
	FinalReward(illegal bool, score, delta int) float64
}

// DiscountedReturns weighs each turn by its discounted future return,
// normalized across the episode to zero mean and unit standard deviation.
type DiscountedReturns struct {
	Gamma    float64 // discount factor
	MinTurns int     // drop episodes shorter than this many turns
}

// Keep drops episodes too short to normalize a return sequence over.
func (d *DiscountedReturns) Keep(t *Trajectory) bool {
	return len(t.Turns) >= d.MinTurns
}

// Weights computes the discounted returns of the episode, normalizes them,
// and negates: gradient descent on the result ascends the expected return.
func (d *DiscountedReturns) Weights(t *Trajectory) []float64 {
	returns := make([]float64, len(t.Turns))
	discount(returns, t, d.Gamma)

	mean, std := stat.MeanStdDev(returns, nil)
	for i, r := range returns {
		returns[i] = -(r - mean) / (std + NormalizeEpsilon)
	}
	return returns
}

// FinalReward rewards only a perfect game: the last turn of a
// PerfectScore-point game earns its score delta, every other ending is a -1
// penalty.
func (d *DiscountedReturns) FinalReward(illegal bool, score, delta int) float64 {
	if !illegal && score == PerfectScore {
		return float64(delta)
	}
	return -1
}

// discount fills dst with each turn's discounted future return,
// dst[i] = reward[i] + gamma*dst[i+1]. dst must have one slot per turn.
func discount(dst []float64, t *Trajectory, gamma float64) {
	acc := 0.0
	for i := len(t.Turns) - 1; i >= 0; i-- {
		acc = t.Turns[i].Reward + gamma*acc
		dst[i] = acc
	}
}

// RunningBaseline weighs a whole episode by how much its final score beat
// the running average of recent scores. Every turn carries the same weight,
// so the episode's loss is -(score-baseline) times its total
// log-probability.
type RunningBaseline struct {
	Window  int           // how many recent scores the baseline averages
	History *ScoreHistory // scores of previous batches' episodes
}

// Keep keeps every episode.
func (b *RunningBaseline) Keep(*Trajectory) bool { return true }

// Weights returns -(finalScore - baseline) for every turn.
func (b *RunningBaseline) Weights(t *Trajectory) []float64 {
	w := -(float64(t.Score) - b.History.Mean(b.Window))
	weights := make([]float64, len(t.Turns))
	for i := range weights {
		weights[i] = w
	}
	return weights
}

// FinalReward is the plain score delta on game over, -1 on a rejected move.
func (b *RunningBaseline) FinalReward(illegal bool, score, delta int) float64 {
	if illegal {
		return -1
	}
	return float64(delta)
}
