package hanabi

import (
	"testing"

	"golang.org/x/exp/rand"
)

// checkRange fails unless x[off:off+width] holds n leading ones followed by
// minus ones.
func checkRange(t *testing.T, x []float64, off, n, width int, section string) {
	t.Helper()
	for i := 0; i < width; i++ {
		want := -1.0
		if i < n {
			want = 1.0
		}
		if x[off+i] != want {
			t.Errorf("%s: feature %d: expected %v, got %v", section, i, want, x[off+i])
		}
	}
}

func TestEncodeLength(t *testing.T) {
	if EncodedLen != 2270 {
		t.Fatalf("expected 2270 features, got %d", EncodedLen)
	}

	rng := rand.New(rand.NewSource(2))
	g := New(4, rng)
	for i := 0; i < 10 && !g.GameOver(); i++ {
		if err := g.Play(rng.Intn(4)); err != nil {
			t.Fatal(err)
		}
	}

	x := g.Encode()
	if len(x) != EncodedLen {
		t.Fatalf("expected %d features, got %d", EncodedLen, len(x))
	}
	for i, v := range x {
		if v != 1 && v != -1 {
			t.Errorf("feature %d: expected +1 or -1, got %v", i, v)
		}
	}
}

func TestEncodeFixedSections(t *testing.T) {
	g := &Game{
		turn:     1,
		clues:    6,
		mistakes: 1,
		hands: [][]Card{
			{{Value: 2, Color: 0}},
			{{Value: 0, Color: 4}},
		},
		deck:     []Card{{Value: 0, Color: 0}, {Value: 1, Color: 1}},
		discards: []Card{{Value: 0, Color: 2}, {Value: 0, Color: 2}},
	}
	g.piles = [Colors]int{0, 2, 0, 0, 0}

	x := g.Encode()
	off := 0

	checkRange(t, x, off, 1, playerCountFeatures, "player count")
	off += playerCountFeatures

	if x[off] != -1 || x[off+1] != 1 {
		t.Errorf("expected the current player one-hot at P2, got %v", x[off:off+currentPlayerFeatures])
	}
	checkRange(t, x, off+2, 0, currentPlayerFeatures-2, "current player tail")
	off += currentPlayerFeatures

	checkRange(t, x, off, 6, clueFeatures, "clue tokens")
	off += clueFeatures

	checkRange(t, x, off, 1, mistakeFeatures, "mistakes")
	off += mistakeFeatures

	checkRange(t, x, off, 2, deckFeatures, "deck size")
	off += deckFeatures

	// Two discarded 1b: blue sits after the ten slots each of red and
	// green, and value 1 has a three copy thermometer.
	checkRange(t, x, off, 0, 20, "discards before blue")
	checkRange(t, x, off+20, 2, 3, "discarded 1b")
	checkRange(t, x, off+23, 0, 27, "discards after 1b")
	off += discardFeatures

	// P1 holds 3r, visible to the current player: value and color
	// one-hots in the first card's ten slots.
	if x[off+2] != 1 {
		t.Errorf("expected P1's card value at slot 2, got %v", x[off+2])
	}
	if x[off+5] != 1 {
		t.Errorf("expected P1's card color at slot 5, got %v", x[off+5])
	}
	// The current player's own hand stays hidden, as do absent players.
	checkRange(t, x, off+MaxCards*10, 0, 4*MaxCards*10, "hidden hands")
	off += handFeatures

	checkRange(t, x, off, 0, Values, "red pile")
	checkRange(t, x, off+Values, 2, Values, "green pile")
	checkRange(t, x, off+2*Values, 0, 3*Values, "remaining piles")
	off += pileFeatures

	if off != fixedFeatures {
		t.Fatalf("expected the fixed sections to end at %d, got %d", fixedFeatures, off)
	}
	// No history yet.
	checkRange(t, x, off, 0, EncodedLen-off, "history")
}

func TestEncodeHistoryMostRecentFirst(t *testing.T) {
	g := &Game{
		clues: MaxClues,
		hands: [][]Card{
			{{Value: 0, Color: 0}, {Value: 2, Color: 1}},
			{{Value: 1, Color: 0}, {Value: 0, Color: 1}},
		},
	}

	if err := g.Play(0); err != nil { // P1 plays 1r
		t.Fatal(err)
	}
	if err := g.ClueColor(0, 1); err != nil { // P2 clues P1 about g's
		t.Fatal(err)
	}
	if err := g.Discard(0); err != nil { // P1 discards 3g
		t.Fatal(err)
	}

	x := g.Encode()

	// Most recent first: the discard.
	off := fixedFeatures
	checkRange(t, x, off, 0, 2, "discard flags")
	if x[off+2] != 1 {
		t.Error("expected the discard flag")
	}
	if x[off+4] != 1 {
		t.Error("expected position #1")
	}
	if x[off+4+MaxCards+2] != 1 {
		t.Error("expected value 3")
	}
	if x[off+4+MaxCards+Values+1] != 1 {
		t.Error("expected color g")
	}

	// Then the color clue.
	off += historyFeatures
	if x[off+3] != 1 {
		t.Error("expected the clue flag")
	}
	if x[off+4] != 1 {
		t.Error("expected target P1")
	}
	checkRange(t, x, off+4+MaxPlayers, 0, Values, "clued value slots")
	if x[off+4+MaxPlayers+Values+1] != 1 {
		t.Error("expected clued color g")
	}

	// Then the successful play.
	off += historyFeatures
	if x[off] != 1 {
		t.Error("expected the successful play flag")
	}
	if x[off+1] != -1 {
		t.Error("expected no failed play flag")
	}
	if x[off+4] != 1 {
		t.Error("expected position #1")
	}
	if x[off+4+MaxCards] != 1 {
		t.Error("expected value 1")
	}
	if x[off+4+MaxCards+Values] != 1 {
		t.Error("expected color r")
	}

	// Nothing older.
	off += historyFeatures
	checkRange(t, x, off, 0, EncodedLen-off, "history tail")
}

func TestEncodeHistoryCapped(t *testing.T) {
	g := &Game{clues: MaxClues, hands: [][]Card{{}, {}}}
	for i := 0; i < 120; i++ {
		g.history = append(g.history, Action{
			Kind:   ActionClueValue,
			Player: i % 2,
			Target: (i + 1) % 2,
			Value:  i % Values,
		})
	}

	x := g.Encode()
	if len(x) != EncodedLen {
		t.Fatalf("expected %d features, got %d", EncodedLen, len(x))
	}

	for k := 0; k < historyCap; k++ {
		off := fixedFeatures + k*historyFeatures
		src := len(g.history) - 1 - k
		if x[off+3] != 1 {
			t.Fatalf("entry %d: expected the clue flag", k)
		}
		if x[off+4+(src+1)%2] != 1 {
			t.Errorf("entry %d: expected target P%d", k, (src+1)%2+1)
		}
		if x[off+4+MaxPlayers+src%Values] != 1 {
			t.Errorf("entry %d: expected value %d", k, src%Values+1)
		}
	}

	// The oldest moves fall off and the trailing slack stays clear.
	checkRange(t, x, fixedFeatures+historyCap*historyFeatures, 0, historySlack, "slack")
}
