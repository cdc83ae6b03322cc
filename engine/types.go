package engine

import (
	"fmt"
	"math/rand/v2"
)

// Suit identifies a card's suit. Jokers carry SuitNone.
type Suit uint8

// Suit constants in deck construction order.
const (
	SuitSpades Suit = iota
	SuitHearts
	SuitDiamonds
	SuitClubs
	SuitNone
)

var suitSymbols = [...]string{"♠", "♥", "♦", "♣", ""}

// String returns the suit symbol, or "" for SuitNone.
func (s Suit) String() string {
	if int(s) < len(suitSymbols) {
		return suitSymbols[s]
	}
	return "?"
}

// Rank identifies a card's rank. Ranks are ordered Two..Ace, then Joker.
type Rank uint8

// Rank constants in deck construction order.
const (
	RankTwo Rank = iota
	RankThree
	RankFour
	RankFive
	RankSix
	RankSeven
	RankEight
	RankNine
	RankTen
	RankJack
	RankQueen
	RankKing
	RankAce
	RankJoker
)

var rankNames = [...]string{"2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K", "A", "Joker"}

// String returns the printed rank ("2".."10", "J", "Q", "K", "A", "Joker").
func (r Rank) String() string {
	if int(r) < len(rankNames) {
		return rankNames[r]
	}
	return "?"
}

// Value returns the scoring value of a card of this rank.
//   - Joker → 50
//   - Ace → 20
//   - Ten, Jack, Queen, King → 10
//   - Two–Nine → 5
func (r Rank) Value() int {
	switch {
	case r == RankJoker:
		return 50
	case r == RankAce:
		return 20
	case r >= RankTen && r <= RankKing:
		return 10
	case r <= RankNine:
		return 5
	}
	return 0
}

// Card is one physical card. ID is unique across every pack in a game and
// never changes; a card moves between containers but is never copied into two.
type Card struct {
	ID   int
	Suit Suit
	Rank Rank
}

// IsJoker reports whether the card is a joker.
func (c Card) IsJoker() bool { return c.Rank == RankJoker }

// Value returns the point value of the card.
func (c Card) Value() int { return c.Rank.Value() }

// String renders the card as rank followed by suit ("10♥"), or "Joker".
func (c Card) String() string {
	if c.IsJoker() {
		return c.Rank.String()
	}
	return c.Rank.String() + c.Suit.String()
}

// GoString includes the card ID, which String omits.
func (c Card) GoString() string {
	return fmt.Sprintf("%s#%d", c, c.ID)
}

// ---------------------------------------------------------------------------
// Deck construction
// ---------------------------------------------------------------------------

// CreateDeck builds decks standard 52-card packs plus jokersPerDeck jokers per
// pack. Order is suit-major (♠ ♥ ♦ ♣), rank-minor (2..A), with each pack's
// jokers appended after its 52 cards. IDs start at 0 and increase by one.
func CreateDeck(decks, jokersPerDeck int) []Card {
	if decks < 0 {
		decks = 0
	}
	if jokersPerDeck < 0 {
		jokersPerDeck = 0
	}
	deck := make([]Card, 0, decks*(52+jokersPerDeck))
	id := 0
	for d := 0; d < decks; d++ {
		for suit := SuitSpades; suit <= SuitClubs; suit++ {
			for rank := RankTwo; rank <= RankAce; rank++ {
				deck = append(deck, Card{ID: id, Suit: suit, Rank: rank})
				id++
			}
		}
		for j := 0; j < jokersPerDeck; j++ {
			deck = append(deck, Card{ID: id, Suit: SuitNone, Rank: RankJoker})
			id++
		}
	}
	return deck
}

// Shuffle permutes cards in place with Fisher-Yates and returns the same slice.
func Shuffle(cards []Card, rng *rand.Rand) []Card {
	for i := len(cards) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		cards[i], cards[j] = cards[j], cards[i]
	}
	return cards
}

// CardValues sums the values of cards.
func CardValues(cards []Card) int {
	total := 0
	for _, c := range cards {
		total += c.Value()
	}
	return total
}

// ---------------------------------------------------------------------------
// Game lifecycle enums
// ---------------------------------------------------------------------------

// Phase is the lifecycle stage of a single game.
type Phase string

const (
	PhaseInit    Phase = "init"
	PhasePlaying Phase = "playing"
	PhaseGameEnd Phase = "gameEnd"
)

// EndReason records why a game ended.
type EndReason string

const (
	EndNone       EndReason = ""
	EndEmpty      EndReason = "empty"       // not enough cards left to deal
	EndStalemate  EndReason = "stalemate"   // no score change across the configured rounds
	EndManualSkip EndReason = "manual-skip" // ended on request
)

// RandomSeat asks StartGame to draw the first player uniformly.
const RandomSeat = -1
