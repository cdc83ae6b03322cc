// Package agent implements the computer opponent for Thief.
package agent

import (
	"fmt"
	"strings"
)

// Tier selects how the computer chooses among legal moves.
type Tier uint8

const (
	TierEasy    Tier = 1 // never steals
	TierMedium  Tier = 2 // steals on a coin flip weighted by StealProbability
	TierOptimal Tier = 3 // weighs the best steal against the best scoring move
)

func (t Tier) String() string {
	switch t {
	case TierEasy:
		return "easy"
	case TierMedium:
		return "medium"
	case TierOptimal:
		return "optimal"
	}
	return fmt.Sprintf("Tier(%d)", uint8(t))
}

// ParseTier accepts "1"-"3" or the tier names.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "easy":
		return TierEasy, nil
	case "2", "medium":
		return TierMedium, nil
	case "3", "optimal":
		return TierOptimal, nil
	}
	return 0, fmt.Errorf("unknown AI tier %q", s)
}

// DefaultStealProbability is the chance a TierMedium decision considers
// stealing.
const DefaultStealProbability = 0.65

// Category groups candidate moves by kind.
type Category uint8

const (
	CatCommit Category = iota
	CatTakeDiscard
	CatSteal
	CatExtend
	CatDiscard
)

var categoryNames = [...]string{"commit", "take_discard", "steal", "extend", "discard"}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Config holds the tunable settings of one computer player.
type Config struct {
	Tier             Tier
	StealProbability float64
}

// DefaultConfig returns the optimal tier with the default steal probability.
func DefaultConfig() Config {
	return Config{Tier: TierOptimal, StealProbability: DefaultStealProbability}
}

// Validate reports an unknown tier or a probability outside [0,1].
func (c Config) Validate() error {
	if c.Tier < TierEasy || c.Tier > TierOptimal {
		return fmt.Errorf("unknown AI tier %d", c.Tier)
	}
	if c.StealProbability < 0 || c.StealProbability > 1 {
		return fmt.Errorf("steal probability must be in [0,1], got %v", c.StealProbability)
	}
	return nil
}
