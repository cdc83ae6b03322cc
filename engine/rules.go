package engine

import "fmt"

// MaxPlayers is the largest supported table.
const (
	MinPlayers = 2
	MaxPlayers = 4
)

// HouseRules holds configurable game rule settings. Rules are read when a game
// is created and never change for the duration of that game.
type HouseRules struct {
	NumPlayers             int    // 2–4; 0 treated as 2
	HandSize               int    // cards dealt to each player per round
	Decks                  int    // standard 52-card packs in play
	JokersPerDeck          int    // jokers added per pack
	StalemateRounds        int    // consecutive stagnant rounds that end the game
	StalemateCardThreshold int    // stagnation only counts once draw+discard is at or below this
	Language               string // BCP 47 tag for event-log messages ("en", "cs")
}

// DefaultHouseRules returns the standard Thief house rules.
func DefaultHouseRules() HouseRules {
	return HouseRules{
		NumPlayers:             2,
		HandSize:               6,
		Decks:                  2,
		JokersPerDeck:          2,
		StalemateRounds:        2,
		StalemateCardThreshold: 20,
		Language:               "en",
	}
}

// numPlayers returns the effective number of players, treating 0 as 2.
func (r *HouseRules) numPlayers() int {
	if r.NumPlayers == 0 {
		return 2
	}
	return r.NumPlayers
}

// DeckSize returns the number of cards CreateDeck builds under these rules.
func (r *HouseRules) DeckSize() int {
	return r.Decks * (52 + r.JokersPerDeck)
}

// Validate reports the first setting outside its supported range.
func (r *HouseRules) Validate() error {
	n := r.numPlayers()
	switch {
	case n < MinPlayers || n > MaxPlayers:
		return fmt.Errorf("number of players must be %d-%d, got %d", MinPlayers, MaxPlayers, n)
	case r.HandSize < 1:
		return fmt.Errorf("hand size must be positive, got %d", r.HandSize)
	case r.Decks < 1:
		return fmt.Errorf("deck count must be positive, got %d", r.Decks)
	case r.JokersPerDeck < 0:
		return fmt.Errorf("jokers per deck cannot be negative, got %d", r.JokersPerDeck)
	case r.StalemateRounds < 1:
		return fmt.Errorf("stalemate rounds must be positive, got %d", r.StalemateRounds)
	case r.StalemateCardThreshold < 0:
		return fmt.Errorf("stalemate card threshold cannot be negative, got %d", r.StalemateCardThreshold)
	}
	return nil
}
