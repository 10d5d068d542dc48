package hanabi

// Widths of the feature sections of an encoded state, in layout order.
const (
	playerCountFeatures   = MaxPlayers - 2 + 1
	currentPlayerFeatures = MaxPlayers
	clueFeatures          = MaxClues
	mistakeFeatures       = MaxMistakes
	deckFeatures          = DeckSize
	discardFeatures       = DeckSize
	handFeatures          = MaxPlayers * MaxCards * 10
	pileFeatures          = Colors * Values

	// historyFeatures is the width of one history entry: four action
	// slots, a position or target, a value and a color.
	historyFeatures = 4 + MaxCards + Values + Colors

	fixedFeatures = playerCountFeatures + currentPlayerFeatures + clueFeatures +
		mistakeFeatures + deckFeatures + discardFeatures + handFeatures + pileFeatures

	// historyCap entries cover the longest legal game with room to spare;
	// a five player game runs out of deck and turns well before.
	historyCap   = 98
	historySlack = 13

	// EncodedLen is the length of the vector Encode returns.
	EncodedLen = fixedFeatures + historyCap*historyFeatures + historySlack
)

// Encode renders the state visible to the current player as a vector of
// +1/-1 features: player count, whose turn it is, thermometer codes for
// clue tokens, mistakes and deck size, the discard pile counted per card,
// every other player's hand, the piles, and the move history most recent
// first. Absent features are -1.
func (g *Game) Encode() []float64 {
	x := make([]float64, EncodedLen)
	for i := range x {
		x[i] = -1
	}
	off := 0

	x[off+len(g.hands)-2] = 1
	off += playerCountFeatures

	player := g.CurrentPlayer()
	x[off+player] = 1
	off += currentPlayerFeatures

	for i := 0; i < g.clues; i++ {
		x[off+i] = 1
	}
	off += clueFeatures

	for i := 0; i < g.mistakes; i++ {
		x[off+i] = 1
	}
	off += mistakeFeatures

	for i := range g.deck {
		x[off+i] = 1
	}
	off += deckFeatures

	// One thermometer per (color, value) pair, sized by how many copies
	// the deck holds of that card.
	for color := 0; color < Colors; color++ {
		for value := 0; value < Values; value++ {
			n := 0
			for _, c := range g.discards {
				if c.Color == color && c.Value == value {
					n++
				}
			}
			for i := 0; i < n; i++ {
				x[off+i] = 1
			}
			off += Copies(value)
		}
	}

	// Ten slots per card: value one-hot, then color one-hot. The current
	// player's own hand stays hidden at -1.
	for i, hand := range g.hands {
		if i != player {
			for j, c := range hand {
				x[off+10*j+c.Value] = 1
				x[off+10*j+5+c.Color] = 1
			}
		}
		off += MaxCards * 10
	}
	off += (MaxPlayers - len(g.hands)) * MaxCards * 10

	for _, n := range g.piles {
		for i := 0; i < n; i++ {
			x[off+i] = 1
		}
		off += Values
	}

	for i := len(g.history) - 1; i >= 0; i-- {
		if off+historyFeatures > len(x) {
			break
		}
		off = encodeAction(x, off, &g.history[i])
	}

	return x
}

// encodeAction writes one history entry at off and returns the next offset.
// The four leading slots distinguish successful play, failed play, discard
// and clue; plays and discards then carry their hand position, clues their
// target player; the trailing ten slots are the card value and color, or
// the clued value or color.
func encodeAction(x []float64, off int, a *Action) int {
	switch a.Kind {
	case ActionPlay:
		if a.Success {
			x[off] = 1
		} else {
			x[off+1] = 1
		}
		x[off+4+a.Position] = 1
		x[off+4+MaxCards+a.Card.Value] = 1
		x[off+4+MaxCards+Values+a.Card.Color] = 1
	case ActionDiscard:
		x[off+2] = 1
		x[off+4+a.Position] = 1
		x[off+4+MaxCards+a.Card.Value] = 1
		x[off+4+MaxCards+Values+a.Card.Color] = 1
	case ActionClueColor:
		x[off+3] = 1
		x[off+4+a.Target] = 1
		x[off+4+MaxPlayers+Values+a.Color] = 1
	case ActionClueValue:
		x[off+3] = 1
		x[off+4+a.Target] = 1
		x[off+4+MaxPlayers+a.Value] = 1
	}
	return off + historyFeatures
}
