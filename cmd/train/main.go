// Command train improves a Hanabi policy network by self-play REINFORCE,
// checkpointing every 1000 batches.
//
// Both -device (only "cpu" exists) and -checkpoint are required:
//
//	train -device cpu -checkpoint run1.ckpt -logtostderr
//
// A run resumes from a previous checkpoint with -restore; the restored
// weights and score history are adopted, the flags of the current
// invocation apply.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang/glog"
	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/exp/rand"

	"github.com/mariogeiger/hanabi"
	"github.com/mariogeiger/hanabi/checkpoint"
	"github.com/mariogeiger/hanabi/internal/timing"
	"github.com/mariogeiger/hanabi/ldblog"
	"github.com/mariogeiger/hanabi/reinforce"
)

var (
	lr       = flag.Float64("lr", 1e-5, "learning rate")
	bs       = flag.Int("bs", 10, "minimum number of turns per batch")
	n        = flag.Int("n", 500, "hidden layer width")
	nAvg     = flag.Int("n_avg", 1000, "number of recent scores averaged for reporting and the baseline")
	beta     = flag.Float64("beta", 0.01, "scale applied to the logits before sampling")
	gamma    = flag.Float64("gamma", 0.99, "reward discount factor")
	randmove = flag.Float64("randmove", 0.4, "probability of sampling a move uniformly instead of from the policy")
	credit   = flag.String("credit", reinforce.StrategyDiscounted, `credit assignment strategy: "discounted" or "baseline"`)
	minTurns = flag.Int("min_turns", 3, "drop episodes shorter than this many turns (discounted strategy)")
	seed     = flag.Uint64("seed", 1, "seed of the run's random source")

	device     = flag.String("device", "", "execution device, must be cpu (required)")
	ckptPath   = flag.String("checkpoint", "", "checkpoint file written during the run (required)")
	restore    = flag.String("restore", "", "checkpoint file to resume from")
	ldblogPath = flag.String("ldblog", "", "optional LevelDB directory archiving per-batch results")
)

func main() {
	flag.Parse()
	defer glog.Flush()

	if *device == "" || *ckptPath == "" {
		glog.Exitf("Both -device and -checkpoint are required")
	}
	if *device != "cpu" {
		glog.Exitf("Unsupported device %q, only cpu is available", *device)
	}

	cfg := reinforce.Config{
		LearningRate: *lr,
		BatchTurns:   *bs,
		Hidden:       *n,
		Window:       *nAvg,
		Beta:         *beta,
		Gamma:        *gamma,
		Explore:      *randmove,
		Strategy:     *credit,
		MinTurns:     *minTurns,
		Device:       *device,
		Restore:      *restore,
		Checkpoint:   *ckptPath,
		Seed:         *seed,
	}
	if err := cfg.Validate(); err != nil {
		glog.Exitf("Invalid configuration: %v", err)
	}

	clock := timing.New()
	trainer, err := reinforce.NewTrainer(cfg, hanabi.EncodedLen, newGame, clock)
	if err != nil {
		glog.Exitf("%v", err)
	}

	if *restore != "" {
		stored, state, err := checkpoint.NewManager(*restore).Load()
		if err != nil {
			glog.Exitf("Restoring %s: %v", *restore, err)
		}
		if err := trainer.Net.Restore(state.Policy); err != nil {
			glog.Exitf("Restoring %s: %v", *restore, err)
		}
		trainer.History.Restore(state.Scores)
		glog.Infof("Restored %d scores and the policy from %s (written with lr=%v n=%d seed=%d)",
			len(state.Scores), *restore, stored.LearningRate, stored.Hidden, stored.Seed)
	}

	manager := checkpoint.NewManager(*ckptPath)
	if err := saveCheckpoint(manager, trainer); err != nil {
		glog.Exitf("Writing initial checkpoint: %v", err)
	}

	var archive *ldblog.Log
	if *ldblogPath != "" {
		archive, err = ldblog.Open(*ldblogPath, nil)
		if err != nil {
			glog.Exitf("Opening training log %s: %v", *ldblogPath, err)
		}
		defer archive.Close()
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		glog.Warningf("Process stats unavailable: %v", err)
	}

	r := &reporter{
		trainer: trainer,
		bar:     progressbar.Default(-1),
		manager: manager,
		clock:   clock,
		archive: archive,
		proc:    proc,
		start:   time.Now(),
	}
	if err := trainer.Run(r); err != nil {
		glog.Fatalf("%+v", err)
	}
}

func newGame(rng *rand.Rand) reinforce.Game {
	return hanabi.New(4, rng)
}

func saveCheckpoint(m *checkpoint.Manager, t *reinforce.Trainer) error {
	state := &checkpoint.State{
		Policy: t.Net.Snapshot(),
		Scores: t.History.Scores(),
	}
	return m.Save(t.Config, state)
}

// reporter drives the progress bar, the periodic status report, the
// checkpoint saves and the optional batch archive.
type reporter struct {
	trainer *reinforce.Trainer
	bar     *progressbar.ProgressBar
	manager *checkpoint.Manager
	clock   *timing.Clock
	archive *ldblog.Log
	proc    *process.Process
	start   time.Time
}

// BatchDone implements reinforce.Reporter.
func (r *reporter) BatchDone(batch int, scores []int, loss float64) error {
	r.bar.Add(len(scores))
	r.bar.Describe(fmt.Sprintf("scores=%v avg_score=%.2f",
		r.trainer.History.Last(5), r.trainer.History.Mean(r.trainer.Config.Window)))

	if r.archive != nil {
		rec := &ldblog.BatchRecord{
			Batch:   batch,
			Scores:  scores,
			Loss:    loss,
			Elapsed: time.Since(r.start),
		}
		if err := r.archive.Append(rec); err != nil {
			return err
		}
	}
	return nil
}

// Checkpoint implements reinforce.Reporter.
func (r *reporter) Checkpoint(batch int) error {
	fmt.Fprintf(os.Stderr, "\n%s\n", r.clock.Stats())
	if r.proc != nil {
		if mem, err := r.proc.MemoryInfo(); err == nil {
			cpu, _ := r.proc.CPUPercent()
			glog.Infof("Batch %d: rss %.1f MB, cpu %.1f%%", batch, float64(mem.RSS)/1024/1024, cpu)
		}
	}
	return saveCheckpoint(r.manager, r.trainer)
}
