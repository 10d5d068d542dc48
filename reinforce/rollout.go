package reinforce

import (
	"github.com/mariogeiger/hanabi/internal/timing"
	"github.com/mariogeiger/hanabi/nn"
)

// Logit layout of the policy head: one slice per decision the agent can be
// asked to make in a single turn.
const (
	actionLogits   = 3  // play, discard, clue
	positionLogits = 5  // hand position for play and discard
	targetLogits   = 5  // player a clue is aimed at
	infoLogits     = 10 // clue content: the five card values, then the five colors

	positionOffset = actionLogits
	targetOffset   = positionOffset + positionLogits
	infoOffset     = targetOffset + targetLogits

	// LogitCount is the width of the policy network's output.
	LogitCount = infoOffset + infoLogits
)

// Top-level actions, in logit order.
const (
	actionPlay = iota
	actionDiscard
	actionClue
)

// ClueSampleWeight down-weights each of the two samples a clue action makes
// (target and info), keeping a clue's aggregate log-probability step
// comparable to the single-sample actions.
const ClueSampleWeight = 0.5

// Turn is one decision point of an episode.
type Turn struct {
	Tape    *nn.Tape  // forward state retained for the deferred backward pass
	LogProb float64   // weighted log-probability of the turn's samples
	Grad    []float64 // gradient of LogProb with respect to the network output
	Reward  float64
}

// Trajectory is the ordered (log-probability, reward) record of one episode.
type Trajectory struct {
	Turns   []Turn
	Score   int  // final game score
	Illegal bool // ended on a rejected move rather than game over
}

// TotalLogProb returns the sum of the per-turn log-probabilities.
func (t *Trajectory) TotalLogProb() float64 {
	var sum float64
	for i := range t.Turns {
		sum += t.Turns[i].LogProb
	}
	return sum
}

// Rollout simulates complete episodes of a Game under a policy network.
type Rollout struct {
	Net     *nn.Network
	Credit  CreditAssigner // supplies the final-reward rule
	Sampler *Sampler
	Beta    float64       // scale applied to the logits before sampling
	Clock   *timing.Clock // optional probes; nil measures nothing

	scaled [LogitCount]float64
}

// Play runs one episode of g to termination and returns its trajectory.
//
// Each turn encodes the state, samples a top-level action from the first
// logit slice, then the action's operands from the remaining slices: a hand
// position for play and discard, or a target and an info value for a clue,
// the latter two each weighted by ClueSampleWeight. Rewards are the per-turn
// score deltas; the last turn's reward comes from the credit strategy's
// FinalReward rule.
//
// The trajectory retains one network tape per turn. The caller owns them and
// must release each with Net.FreeTape once the episode's gradient
// contribution has been applied.
func (r *Rollout) Play(g Game) *Trajectory {
	traj := &Trajectory{}
	t := r.Clock.Start()
	for {
		x := g.Encode()
		t = r.Clock.End("encode", t)

		tape := r.Net.Forward(x)
		for i, v := range tape.Logits() {
			r.scaled[i] = r.Beta * v
		}
		t = r.Clock.End("policy", t)

		r.Sampler.Begin(r.scaled[:])
		action := r.Sampler.Sample(0, actionLogits, 1)
		score := g.Score()

		var out error
		switch action {
		case actionPlay:
			out = g.Play(r.Sampler.Sample(positionOffset, positionOffset+positionLogits, 1))
		case actionDiscard:
			out = g.Discard(r.Sampler.Sample(positionOffset, positionOffset+positionLogits, 1))
		case actionClue:
			target := r.Sampler.Sample(targetOffset, targetOffset+targetLogits, ClueSampleWeight)
			info := r.Sampler.Sample(infoOffset, infoOffset+infoLogits, ClueSampleWeight)
			// Info values 0-4 clue a card value, 5-9 one of the five colors.
			if info < 5 {
				out = g.ClueValue(target, info)
			} else {
				out = g.ClueColor(target, info-5)
			}
		}
		t = r.Clock.End("decode", t)

		grad := make([]float64, LogitCount)
		for i, v := range r.Sampler.Grad() {
			grad[i] = r.Beta * v
		}
		turn := Turn{Tape: tape, LogProb: r.Sampler.LogProb(), Grad: grad}

		delta := g.Score() - score
		done := true
		switch {
		case out != nil:
			turn.Reward = r.Credit.FinalReward(true, g.Score(), delta)
			traj.Illegal = true
		case g.GameOver():
			turn.Reward = r.Credit.FinalReward(false, g.Score(), delta)
		default:
			turn.Reward = float64(delta)
			done = false
		}
		traj.Turns = append(traj.Turns, turn)

		if done {
			traj.Score = g.Score()
			return traj
		}
	}
}
