// Package checkpoint persists a training run as a single file holding the
// run configuration, the policy parameters and the score history. Saves are
// atomic: a crash mid-save can never corrupt the previous checkpoint.
package checkpoint

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/mariogeiger/hanabi/nn"
	"github.com/mariogeiger/hanabi/reinforce"
)

// ErrBadFormat reports a checkpoint that could not be decoded, such as a
// file truncated or overwritten by something else.
var ErrBadFormat = errors.New("checkpoint: bad format")

// State is the mutable part of a checkpoint: everything a resumed run
// adopts. The configuration record preceding it is provenance.
type State struct {
	Policy *nn.Snapshot
	Scores []int
}

// Write encodes a checkpoint to w: one gob stream, the configuration
// record first, then the state record. Read expects the same order.
func Write(w io.Writer, cfg reinforce.Config, state *State) error {
	enc := gob.NewEncoder(w)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, "encoding configuration")
	}
	if err := enc.Encode(state); err != nil {
		return errors.Wrap(err, "encoding state")
	}
	return nil
}

// Read decodes a checkpoint from r. Any decode failure is reported as
// ErrBadFormat.
func Read(r io.Reader) (reinforce.Config, *State, error) {
	dec := gob.NewDecoder(r)
	var cfg reinforce.Config
	if err := dec.Decode(&cfg); err != nil {
		return reinforce.Config{}, nil, errors.Wrapf(ErrBadFormat, "decoding configuration: %v", err)
	}
	var state State
	if err := dec.Decode(&state); err != nil {
		return reinforce.Config{}, nil, errors.Wrapf(ErrBadFormat, "decoding state: %v", err)
	}
	return cfg, &state, nil
}

// Manager saves and loads checkpoints at a fixed path.
type Manager struct {
	path   string
	saved  bool
	rename func(oldpath, newpath string) error
}

// NewManager returns a Manager writing to path.
func NewManager(path string) *Manager {
	return &Manager{path: path, rename: os.Rename}
}

// Path returns the checkpoint path.
func (m *Manager) Path() string { return m.path }

// Save replaces the checkpoint at the Manager's path: the stream is written
// to a temporary file in the same directory, synced, and renamed over the
// target, so readers only ever see a complete checkpoint. If a save fails
// before any has succeeded this run, the target path is removed rather than
// left holding a stale run's data; after a success, a failing save
// propagates its error and leaves the last good checkpoint in place.
func (m *Manager) Save(cfg reinforce.Config, state *State) error {
	if err := m.save(cfg, state); err != nil {
		if !m.saved {
			os.Remove(m.path)
		}
		return err
	}
	m.saved = true
	return nil
}

func (m *Manager) save(cfg reinforce.Config, state *State) error {
	f, err := os.CreateTemp(filepath.Dir(m.path), filepath.Base(m.path)+".tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp checkpoint")
	}
	defer os.Remove(f.Name())

	if err := Write(f, cfg, state); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return errors.Wrap(err, "syncing checkpoint")
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, "closing checkpoint")
	}
	return errors.Wrap(m.rename(f.Name(), m.path), "replacing checkpoint")
}

// Load reads the checkpoint at the Manager's path.
func (m *Manager) Load() (reinforce.Config, *State, error) {
	f, err := os.Open(m.path)
	if err != nil {
		return reinforce.Config{}, nil, errors.Wrap(err, "opening checkpoint")
	}
	defer f.Close()
	return Read(f)
}
