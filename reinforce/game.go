// Package reinforce trains a card-game policy network by self-play
// REINFORCE: it rolls out complete episodes against a Game, accumulates the
// log-probabilities of the sampled actions, converts episode outcomes into
// per-turn loss weights, and applies batched gradient updates.
package reinforce

// Game is the narrow interface the trainer drives during an episode.
//
// A non-nil error from a move is the game's terminal signal: the move was
// rejected and the episode is over. It is expected, normal control flow,
// never a trainer failure; the game state is unchanged by a rejected move
// and stays queryable.
type Game interface {
	// Encode returns the current state as a fixed-length feature vector.
	// The length must match the policy network's input width and stay
	// constant for the life of the game.
	Encode() []float64

	// Play plays the card at position in the current player's hand.
	Play(position int) error
	// Discard discards the card at position, recovering a clue token.
	Discard(position int) error
	// ClueValue tells target which of its cards have the given value (0-4).
	ClueValue(target, value int) error
	// ClueColor tells target which of its cards have the given color (0-4).
	ClueColor(target, color int) error

	// Score returns the current score.
	Score() int
	// GameOver reports whether the game has ended on its own terms.
	GameOver() bool
}
