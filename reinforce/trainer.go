package reinforce

import (
	"fmt"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/mariogeiger/hanabi/internal/timing"
	"github.com/mariogeiger/hanabi/nn"
)

// Credit strategies selectable through Config.Strategy.
const (
	StrategyDiscounted = "discounted"
	StrategyBaseline   = "baseline"
)

// ReportInterval is the number of batches between two Reporter.Checkpoint
// calls.
const ReportInterval = 1000

// Config are the hyperparameters and bookkeeping options of a training run.
// A Config is immutable once the Trainer is built and is persisted verbatim
// in every checkpoint.
type Config struct {
	LearningRate float64
	BatchTurns   int     // minimum number of kept turns per batch
	Hidden       int     // width of the four hidden layers
	Window       int     // recent scores averaged for the baseline and reports
	Beta         float64 // scale applied to the logits before sampling
	Gamma        float64 // discount factor (StrategyDiscounted only)
	Explore      float64 // probability of overriding a draw with a uniform one
	Strategy     string  // StrategyDiscounted or StrategyBaseline
	MinTurns     int     // StrategyDiscounted: drop episodes shorter than this

	Device     string // execution device; informational, only "cpu" exists
	Restore    string // checkpoint the run resumed from, if any
	Checkpoint string // checkpoint path written during the run
	Seed       uint64
}

// Validate rejects hyperparameter combinations the trainer cannot run with.
func (c *Config) Validate() error {
	if c.LearningRate <= 0 {
		return errors.Errorf("learning rate must be positive, got %v", c.LearningRate)
	}
	if c.BatchTurns < 1 {
		return errors.Errorf("batch size must be at least 1 turn, got %d", c.BatchTurns)
	}
	if c.Hidden < 1 {
		return errors.Errorf("hidden layer width must be at least 1, got %d", c.Hidden)
	}
	if c.Window < 1 {
		return errors.Errorf("score window must be at least 1, got %d", c.Window)
	}
	if c.Beta <= 0 {
		return errors.Errorf("beta must be positive, got %v", c.Beta)
	}
	if c.Explore < 0 || c.Explore > 1 {
		return errors.Errorf("exploration rate must be in [0, 1], got %v", c.Explore)
	}

	switch c.Strategy {
	case StrategyDiscounted:
		if c.Gamma <= 0 || c.Gamma > 1 {
			return errors.Errorf("gamma must be in (0, 1], got %v", c.Gamma)
		}
		// Return normalization divides by the sample standard deviation,
		// which needs at least two turns.
		if c.MinTurns < 2 {
			return errors.Errorf("min turns must be at least 2, got %d", c.MinTurns)
		}
	case StrategyBaseline:
	default:
		return errors.Errorf("unknown credit strategy %q", c.Strategy)
	}

	return nil
}

func (c *Config) newCreditAssigner(history *ScoreHistory) CreditAssigner {
	switch c.Strategy {
	case StrategyDiscounted:
		return &DiscountedReturns{Gamma: c.Gamma, MinTurns: c.MinTurns}
	case StrategyBaseline:
		return &RunningBaseline{Window: c.Window, History: history}
	}
	panic(fmt.Errorf("unknown credit strategy %q", c.Strategy))
}

// Reporter observes the training loop. BatchDone is invoked after every
// batch, Checkpoint every ReportInterval batches. A non-nil error from
// either aborts the run.
type Reporter interface {
	BatchDone(batch int, scores []int, loss float64) error
	Checkpoint(batch int) error
}

// Trainer owns a policy network and improves it by self-play policy
// gradient: it rolls episodes, weighs each turn's log-probability with a
// reward-derived coefficient, and descends the resulting loss.
type Trainer struct {
	Config  Config
	Net     *nn.Network
	Opt     *nn.Adam
	Credit  CreditAssigner
	History *ScoreHistory

	rollout Rollout
	newGame func(rng *rand.Rand) Game
	rng     *rand.Rand
}

// NewTrainer builds a trainer for games produced by newGame, whose encoded
// states are inputs wide. Everything random in the run (parameter
// initialization, action sampling, exploration, and the rng handed to
// newGame) draws from a single source seeded with cfg.Seed.
func NewTrainer(cfg Config, inputs int, newGame func(rng *rand.Rand) Game, clock *timing.Clock) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	src := rand.NewSource(cfg.Seed)
	rng := rand.New(src)
	net, err := nn.NewNetwork(inputs, cfg.Hidden, LogitCount, rng)
	if err != nil {
		return nil, errors.Wrap(err, "building policy network")
	}

	history := &ScoreHistory{}
	credit := cfg.newCreditAssigner(history)

	t := &Trainer{
		Config:  cfg,
		Net:     net,
		Opt:     nn.NewAdam(net, cfg.LearningRate),
		Credit:  credit,
		History: history,
		newGame: newGame,
		rng:     rng,
	}
	t.rollout = Rollout{
		Net:     net,
		Credit:  credit,
		Sampler: NewSampler(cfg.Explore, src),
		Beta:    cfg.Beta,
		Clock:   clock,
	}
	return t, nil
}

// Step runs one training batch: episodes are rolled until the kept ones
// hold at least Config.BatchTurns turns in total, their gradient
// contributions are accumulated, and a single optimizer step is taken. It
// returns the kept episodes' final scores in completion order and the batch
// loss. Dropped episodes leave no trace.
func (t *Trainer) Step() (scores []int, loss float64) {
	var batch []*Trajectory
	turns := 0
	for turns < t.Config.BatchTurns {
		traj := t.rollout.Play(t.newGame(t.rng))
		if !t.Credit.Keep(traj) {
			t.free(traj)
			continue
		}
		batch = append(batch, traj)
		turns += len(traj.Turns)
	}

	tm := t.rollout.Clock.Start()
	t.Net.ZeroGrad()
	var dOut [LogitCount]float64
	for _, traj := range batch {
		weights := t.Credit.Weights(traj)
		for i := range traj.Turns {
			turn := &traj.Turns[i]
			// The division of the batch loss by the turn count is folded
			// into each turn's backward coefficient.
			c := weights[i] / float64(turns)
			loss += c * turn.LogProb
			for j, g := range turn.Grad {
				dOut[j] = c * g
			}
			t.Net.Backward(turn.Tape, dOut[:])
		}
		scores = append(scores, traj.Score)
		t.free(traj)
	}
	t.Opt.Step()
	t.rollout.Clock.End("backward & optim", tm)

	return scores, loss
}

// Run trains forever, extending the score history after every batch and
// reporting through r. It returns only when the reporter fails.
func (t *Trainer) Run(r Reporter) error {
	for batch := 1; ; batch++ {
		scores, loss := t.Step()
		t.History.Extend(scores)
		glog.V(1).Infof("Batch %d: %d episodes, %d total scores, loss %.6f",
			batch, len(scores), t.History.Len(), loss)

		if err := r.BatchDone(batch, scores, loss); err != nil {
			return errors.Wrapf(err, "reporting batch %d", batch)
		}
		if batch%ReportInterval == 0 {
			if err := r.Checkpoint(batch); err != nil {
				return errors.Wrapf(err, "checkpointing at batch %d", batch)
			}
		}
	}
}

// free releases the retained tapes of a trajectory back to the network.
func (t *Trainer) free(traj *Trajectory) {
	for i := range traj.Turns {
		t.Net.FreeTape(traj.Turns[i].Tape)
		traj.Turns[i].Tape = nil
	}
}
