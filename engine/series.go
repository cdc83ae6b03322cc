package engine

import (
	"fmt"
	"math/rand/v2"
)

// Series plays one game per seat. The first game's starting seat is drawn at
// random; every later game starts one seat after the previous game's start.
type Series struct {
	Rules HouseRules
	Seats []Seat

	// Results holds each finished game's final scores, by seat.
	Results [][]int
	// Reasons holds each finished game's end reason.
	Reasons []EndReason

	rng       *rand.Rand
	current   *GameState
	lastFirst int
}

// NewSeries validates rules and prepares a series. A nil seats slice uses
// DefaultSeats.
func NewSeries(seed uint64, rules HouseRules, seats []Seat) (*Series, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if seats == nil {
		seats = DefaultSeats(rules.numPlayers())
	}
	return &Series{
		Rules: rules,
		Seats: seats,
		rng:   rand.New(rand.NewPCG(seed, ^seed)),
	}, nil
}

// Length returns the number of games in the series.
func (s *Series) Length() int { return len(s.Seats) }

// GamesPlayed returns the number of finished games.
func (s *Series) GamesPlayed() int { return len(s.Results) }

// Done reports whether every game has been played.
func (s *Series) Done() bool { return s.GamesPlayed() >= s.Length() }

// Current returns the game in progress, or nil.
func (s *Series) Current() *GameState { return s.current }

// NextGame creates and starts the next game of the series. The previous game
// must have ended.
func (s *Series) NextGame() (*GameState, error) {
	if s.Done() {
		return nil, fmt.Errorf("series complete after %d games", s.GamesPlayed())
	}
	if s.current != nil && !s.current.IsOver() {
		return nil, fmt.Errorf("game %d is still in progress", s.GamesPlayed()+1)
	}

	g, err := NewGame(s.rng.Uint64(), s.Rules, s.Seats)
	if err != nil {
		return nil, err
	}
	g.OnEnd(s.record)

	first := RandomSeat
	if s.GamesPlayed() > 0 {
		first = (s.lastFirst + 1) % len(s.Seats)
	}
	s.current = g
	if err := g.StartGame(first); err != nil {
		return nil, err
	}
	s.lastFirst = g.FirstPlayer
	return g, nil
}

func (s *Series) record(g *GameState) {
	s.Results = append(s.Results, g.Scores())
	s.Reasons = append(s.Reasons, g.EndReason)
}

// Totals sums every finished game's scores, by seat.
func (s *Series) Totals() []int {
	totals := make([]int, len(s.Seats))
	for _, r := range s.Results {
		for i, v := range r {
			totals[i] += v
		}
	}
	return totals
}

// Winners returns the seats leading the series totals.
func (s *Series) Winners() []int { return Winners(s.Totals()) }
