// Package hanabi implements the cooperative card game Hanabi: five colored
// piles built in value order by players who see every hand but their own,
// spending clue tokens to point out cards to each other.
package hanabi

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/exp/rand"
)

const (
	Colors      = 5
	Values      = 5
	MaxClues    = 8
	MaxMistakes = 3
	MaxPlayers  = 5
	MaxCards    = 5 // largest hand size

	// DeckSize is the number of cards in a full deck: every color holds
	// Copies(v) cards of each value.
	DeckSize = 50

	// PerfectScore ends the game: all five piles complete.
	PerfectScore = Colors * Values
)

var colorNames = [...]string{"r", "g", "b", "y", "p"}

// Copies returns how many cards of the given value each color holds.
func Copies(value int) int {
	return [...]int{3, 2, 2, 2, 1}[value]
}

// Card is a single card. Value and Color are zero-based indices, so the
// printed "1r" is Card{Value: 0, Color: 0}.
type Card struct {
	Value int
	Color int
}

// String implements fmt.Stringer, e.g. "3r".
func (c Card) String() string {
	return fmt.Sprintf("%d%s", c.Value+1, colorNames[c.Color])
}

// IllegalMove is the reason a move was rejected. A rejected move leaves the
// game unchanged.
type IllegalMove int

const (
	ErrMaxClues  IllegalMove = iota // discard at the clue token cap
	ErrNoClues                      // clue without a token
	ErrSelfClue                     // clue aimed at the current player
	ErrEmptyClue                    // clue matching none of the target's cards
	ErrGameOver                     // any move after the game ended
	ErrBadMove                      // position, target, value or color out of range
)

var illegalMoveStr = [...]string{
	"maximum clue tokens reached",
	"no clue tokens left",
	"cannot clue yourself",
	"clue matches no cards",
	"game is over",
	"no such card or player",
}

// Error implements error.
func (e IllegalMove) Error() string {
	return "hanabi: illegal move: " + illegalMoveStr[e]
}

// ActionKind discriminates the entries of the game history.
type ActionKind int

const (
	ActionPlay ActionKind = iota
	ActionDiscard
	ActionClueColor
	ActionClueValue
)

// Action is one resolved move.
type Action struct {
	Kind     ActionKind
	Player   int
	Position int  // ActionPlay, ActionDiscard
	Card     Card // ActionPlay, ActionDiscard
	Success  bool // ActionPlay: the card extended its pile
	Target   int  // clue actions
	Value    int  // ActionClueValue
	Color    int  // ActionClueColor
}

// String implements fmt.Stringer.
func (a Action) String() string {
	switch a.Kind {
	case ActionPlay:
		if a.Success {
			return fmt.Sprintf("P%d plays %s from position #%d", a.Player+1, a.Card, a.Position+1)
		}
		return fmt.Sprintf("P%d plays wrongly %s from position #%d", a.Player+1, a.Card, a.Position+1)
	case ActionDiscard:
		return fmt.Sprintf("P%d discard %s from position #%d", a.Player+1, a.Card, a.Position+1)
	case ActionClueColor:
		return fmt.Sprintf("P%d clues P%d about %s's", a.Player+1, a.Target+1, colorNames[a.Color])
	case ActionClueValue:
		return fmt.Sprintf("P%d clues P%d about %d's", a.Player+1, a.Target+1, a.Value+1)
	}

	panic(fmt.Errorf("unknown action kind: %v", a.Kind))
}

// Game is a Hanabi game in progress.
type Game struct {
	turn         int
	turnsOnEmpty int // turns taken since the deck ran out
	clues        int
	mistakes     int
	hands        [][]Card
	piles        [Colors]int
	deck         []Card
	discards     []Card
	history      []Action
}

// New deals a game for 2 to 5 players, drawing the shuffle from rng. A nil
// rng is seeded from the current time. Hands hold 5 cards for 2 or 3
// players, 4 otherwise.
func New(players int, rng *rand.Rand) *Game {
	if players < 2 || players > MaxPlayers {
		panic(fmt.Sprintf("hanabi: %d players, want 2 to %d", players, MaxPlayers))
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}

	deck := newDeck()
	rng.Shuffle(len(deck), func(i, j int) {
		deck[i], deck[j] = deck[j], deck[i]
	})

	n := handSize(players)
	g := &Game{clues: MaxClues}
	for i := 0; i < players; i++ {
		hand := make([]Card, n)
		copy(hand, deck[i*n:(i+1)*n])
		g.hands = append(g.hands, hand)
	}
	g.deck = deck[players*n:]
	return g
}

func handSize(players int) int {
	if players <= 3 {
		return MaxCards
	}
	return MaxCards - 1
}

func newDeck() []Card {
	deck := make([]Card, 0, DeckSize)
	for color := 0; color < Colors; color++ {
		for value := 0; value < Values; value++ {
			for i := 0; i < Copies(value); i++ {
				deck = append(deck, Card{Value: value, Color: color})
			}
		}
	}
	return deck
}

// Players returns the number of players.
func (g *Game) Players() int { return len(g.hands) }

// CurrentPlayer returns whose turn it is.
func (g *Game) CurrentPlayer() int { return g.turn % len(g.hands) }

// Turn returns how many moves have been made.
func (g *Game) Turn() int { return g.turn }

// Clues returns the remaining clue tokens.
func (g *Game) Clues() int { return g.clues }

// Mistakes returns how many failed plays have been made.
func (g *Game) Mistakes() int { return g.mistakes }

// DeckLen returns how many cards are left to draw.
func (g *Game) DeckLen() int { return len(g.deck) }

// Hand returns a copy of player p's cards, most recently drawn first.
func (g *Game) Hand(p int) []Card { return append([]Card(nil), g.hands[p]...) }

// Pile returns the height of a color's pile.
func (g *Game) Pile(color int) int { return g.piles[color] }

// Discards returns a copy of the discard pile in discard order.
func (g *Game) Discards() []Card { return append([]Card(nil), g.discards...) }

// History returns a copy of the moves made so far.
func (g *Game) History() []Action { return append([]Action(nil), g.history...) }

// Score returns the sum of the pile heights.
func (g *Game) Score() int {
	s := 0
	for _, n := range g.piles {
		s += n
	}
	return s
}

// GameOver reports whether the game has ended: every player has taken a
// turn on the empty deck plus one more, three mistakes were made, or the
// score is perfect.
func (g *Game) GameOver() bool {
	return g.turnsOnEmpty > len(g.hands) || g.mistakes >= MaxMistakes || g.Score() >= PerfectScore
}

// Play plays the card at position in the current player's hand. A card
// extending its color's pile scores a point; any other card is discarded
// and costs a mistake. The player redraws while the deck lasts.
func (g *Game) Play(position int) error {
	if g.GameOver() {
		return ErrGameOver
	}
	p := g.CurrentPlayer()
	if position < 0 || position >= len(g.hands[p]) {
		return ErrBadMove
	}

	card := g.remove(p, position)
	success := g.piles[card.Color] == card.Value
	if success {
		g.piles[card.Color]++
	} else {
		g.discards = append(g.discards, card)
		g.mistakes++
	}
	g.draw(p)

	g.history = append(g.history, Action{
		Kind:     ActionPlay,
		Player:   p,
		Position: position,
		Card:     card,
		Success:  success,
	})
	g.turn++
	return nil
}

// Discard discards the card at position in the current player's hand and
// regains a clue token. Discarding at the token cap is illegal. The player
// redraws while the deck lasts.
func (g *Game) Discard(position int) error {
	if g.clues >= MaxClues {
		return ErrMaxClues
	}
	if g.GameOver() {
		return ErrGameOver
	}
	p := g.CurrentPlayer()
	if position < 0 || position >= len(g.hands[p]) {
		return ErrBadMove
	}

	card := g.remove(p, position)
	g.discards = append(g.discards, card)
	g.clues++
	g.draw(p)

	g.history = append(g.history, Action{
		Kind:     ActionDiscard,
		Player:   p,
		Position: position,
		Card:     card,
	})
	g.turn++
	return nil
}

// ClueValue points out every card of the given value (zero-based, one less
// than the printed digit) in target's hand. It costs a clue token and must
// match at least one card.
func (g *Game) ClueValue(target, value int) error {
	if value < 0 || value >= Values {
		return ErrBadMove
	}
	p, err := g.clue(target, func(c Card) bool { return c.Value == value })
	if err != nil {
		return err
	}
	g.history = append(g.history, Action{Kind: ActionClueValue, Player: p, Target: target, Value: value})
	return nil
}

// ClueColor points out every card of the given color in target's hand. It
// costs a clue token and must match at least one card.
func (g *Game) ClueColor(target, color int) error {
	if color < 0 || color >= Colors {
		return ErrBadMove
	}
	p, err := g.clue(target, func(c Card) bool { return c.Color == color })
	if err != nil {
		return err
	}
	g.history = append(g.history, Action{Kind: ActionClueColor, Player: p, Target: target, Color: color})
	return nil
}

func (g *Game) clue(target int, match func(Card) bool) (int, error) {
	if target < 0 || target >= len(g.hands) {
		return 0, ErrBadMove
	}
	if g.GameOver() {
		return 0, ErrGameOver
	}
	p := g.CurrentPlayer()
	if p == target {
		return 0, ErrSelfClue
	}
	if g.clues == 0 {
		return 0, ErrNoClues
	}
	found := false
	for _, c := range g.hands[target] {
		if match(c) {
			found = true
			break
		}
	}
	if !found {
		return 0, ErrEmptyClue
	}

	g.clues--
	if len(g.deck) == 0 {
		g.turnsOnEmpty++
	}
	g.turn++
	return p, nil
}

// remove takes the card at position out of player p's hand.
func (g *Game) remove(p, position int) Card {
	hand := g.hands[p]
	card := hand[position]
	g.hands[p] = append(hand[:position], hand[position+1:]...)
	return card
}

// draw moves the top deck card to the front of player p's hand, or counts
// a turn on the empty deck.
func (g *Game) draw(p int) {
	if len(g.deck) == 0 {
		g.turnsOnEmpty++
		return
	}
	card := g.deck[len(g.deck)-1]
	g.deck = g.deck[:len(g.deck)-1]

	hand := append(g.hands[p], Card{})
	copy(hand[1:], hand)
	hand[0] = card
	g.hands[p] = hand
}

// String renders a one-line board summary.
func (g *Game) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "turn %d P%d  clues %d  mistakes %d  deck %d  piles",
		g.turn, g.CurrentPlayer()+1, g.clues, g.mistakes, len(g.deck))
	for color, n := range g.piles {
		fmt.Fprintf(&b, " %d%s", n, colorNames[color])
	}
	return b.String()
}
