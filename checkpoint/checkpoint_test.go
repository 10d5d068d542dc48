package checkpoint

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pkg/errors"
	"golang.org/x/exp/rand"

	"github.com/mariogeiger/hanabi/nn"
	"github.com/mariogeiger/hanabi/reinforce"
)

func testState(t *testing.T, seed uint64) *State {
	t.Helper()
	net, err := nn.NewNetwork(6, 4, 3, rand.New(rand.NewSource(seed)))
	if err != nil {
		t.Fatal(err)
	}
	return &State{Policy: net.Snapshot(), Scores: []int{3, 1, 25}}
}

func testCfg() reinforce.Config {
	return reinforce.Config{
		LearningRate: 1e-5,
		BatchTurns:   10,
		Hidden:       4,
		Window:       1000,
		Beta:         0.01,
		Gamma:        0.99,
		Explore:      0.4,
		Strategy:     reinforce.StrategyDiscounted,
		MinTurns:     3,
		Device:       "cpu",
		Checkpoint:   "run.ckpt",
		Seed:         7,
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	state := testState(t, 1)
	cfg := testCfg()

	var buf bytes.Buffer
	if err := Write(&buf, cfg, state); err != nil {
		t.Fatal(err)
	}
	gotCfg, gotState, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}

	if gotCfg != cfg {
		t.Errorf("expected config %+v, got %+v", cfg, gotCfg)
	}
	if !reflect.DeepEqual(gotState.Scores, state.Scores) {
		t.Errorf("expected scores %v, got %v", state.Scores, gotState.Scores)
	}
	if !reflect.DeepEqual(gotState.Policy, state.Policy) {
		t.Error("expected the policy snapshot to round-trip unchanged")
	}
}

func TestReadTruncated(t *testing.T) {
	state := testState(t, 2)

	var buf bytes.Buffer
	if err := Write(&buf, testCfg(), state); err != nil {
		t.Fatal(err)
	}

	// Cut the stream mid-state, as a crash during a non-atomic write
	// would.
	cut := buf.Bytes()[:buf.Len()-buf.Len()/3]
	_, _, err := Read(bytes.NewReader(cut))
	if errors.Cause(err) != ErrBadFormat {
		t.Errorf("expected ErrBadFormat for a truncated checkpoint, got %v", err)
	}
}

func TestReadGarbage(t *testing.T) {
	_, _, err := Read(bytes.NewReader([]byte("not a checkpoint")))
	if errors.Cause(err) != ErrBadFormat {
		t.Errorf("expected ErrBadFormat for garbage, got %v", err)
	}
}

func TestManagerSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ckpt")
	m := NewManager(path)
	state := testState(t, 3)

	if err := m.Save(testCfg(), state); err != nil {
		t.Fatal(err)
	}
	gotCfg, gotState, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if gotCfg != testCfg() {
		t.Errorf("expected config %+v, got %+v", testCfg(), gotCfg)
	}
	if !reflect.DeepEqual(gotState.Policy, state.Policy) {
		t.Error("expected the saved policy back")
	}
}

func TestManagerSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(filepath.Join(dir, "run.ckpt"))

	if err := m.Save(testCfg(), testState(t, 4)); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "run.ckpt" {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("expected only run.ckpt in the directory, got %v", names)
	}
}

func TestManagerFirstFailureRemovesTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ckpt")

	// A stale file from an older run sits at the target path.
	if err := os.WriteFile(path, []byte("stale"), 0666); err != nil {
		t.Fatal(err)
	}

	m := NewManager(path)
	m.rename = func(oldpath, newpath string) error {
		return errors.New("injected rename failure")
	}
	if err := m.Save(testCfg(), testState(t, 5)); err == nil {
		t.Fatal("expected the injected failure to propagate")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected the target to be removed after a first-save failure, got %v", err)
	}
}

func TestManagerLaterFailureKeepsLastGood(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ckpt")
	m := NewManager(path)
	state := testState(t, 6)

	if err := m.Save(testCfg(), state); err != nil {
		t.Fatal(err)
	}

	m.rename = func(oldpath, newpath string) error {
		return errors.New("injected rename failure")
	}
	if err := m.Save(testCfg(), testState(t, 7)); err == nil {
		t.Fatal("expected the injected failure to propagate")
	}

	// The previous checkpoint must still load.
	_, gotState, err := m.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(gotState.Policy, state.Policy) {
		t.Error("expected the first checkpoint to survive the failed save")
	}
}
