// Package engine implements the Thief card game rules.
//
// A GameState is owned by exactly one caller at a time and is not safe for
// concurrent use. Rule application (ApplyCommand) and turn advancement
// (AdvanceTurn) are separate, synchronous steps: a caller applies one command,
// then advances the turn when it is ready to, and the state is consistent in
// between.
package engine

import (
	"fmt"
	"math/rand/v2"
)

// Seat describes who sits at one position of the table.
type Seat struct {
	Human bool
	Name  string // empty picks the localized default
}

// DefaultSeats returns n seats with a human at seat 0 and the computer in
// every other seat.
func DefaultSeats(n int) []Seat {
	seats := make([]Seat, n)
	seats[0].Human = true
	return seats
}

// GameState holds the complete state of one Thief game.
type GameState struct {
	Players     []*Player
	DrawPile    []Card // top is the last element
	DiscardPile []Card // top is the last element; dealing takes from index 0

	CurrentPlayer   int
	CurrentRound    int
	SubTurn         int // 0 ≤ SubTurn < len(Players)*CurrentHandSize
	CurrentHandSize int // passes completed by the most recent deal
	FirstPlayer     int

	Phase          Phase
	EndReason      EndReason
	StalemateCount int
	ScoresBefore   []int // TotalScore of each player when the current round was dealt

	Rules HouseRules

	// Log is the append-only event log of localized status lines.
	Log []string

	rng   *rand.Rand
	msgs  *Messages
	onEnd func(*GameState)
}

// NewGame builds a shuffled deck and seats the players. The game stays in
// PhaseInit until StartGame is called. A nil seats slice uses DefaultSeats.
func NewGame(seed uint64, rules HouseRules, seats []Seat) (*GameState, error) {
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	n := rules.numPlayers()
	if seats == nil {
		seats = DefaultSeats(n)
	}
	if len(seats) != n {
		return nil, fmt.Errorf("got %d seats for %d players", len(seats), n)
	}

	g := &GameState{
		Rules: rules,
		Phase: PhaseInit,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		msgs:  NewMessages(rules.Language),
	}
	g.seat(seats)
	g.DrawPile = Shuffle(CreateDeck(rules.Decks, rules.JokersPerDeck), g.rng)
	return g, nil
}

// seat creates the players, numbering default names when more than one seat
// of the same kind would otherwise share a name.
func (g *GameState) seat(seats []Seat) {
	kinds := map[bool]int{}
	for _, s := range seats {
		if s.Name == "" {
			kinds[s.Human]++
		}
	}
	seen := map[bool]int{}
	for i, s := range seats {
		name := s.Name
		if name == "" {
			key := msgAIName
			if s.Human {
				key = msgPlayerName
			}
			name = g.msgs.Sprintf(key)
			seen[s.Human]++
			if kinds[s.Human] > 1 {
				name = fmt.Sprintf("%s %d", name, seen[s.Human])
			}
		}
		g.Players = append(g.Players, newPlayer(i, s.Human, name))
	}
}

// Messages returns the renderer used for this game's event log.
func (g *GameState) Messages() *Messages { return g.msgs }

// OnEnd registers fn to run once when the game reaches PhaseGameEnd.
func (g *GameState) OnEnd(fn func(*GameState)) { g.onEnd = fn }

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartGame moves the game from PhaseInit to PhasePlaying, with first taking
// the first turn (RandomSeat draws one), and deals the first round. If there
// are not enough cards for one pass the game ends with EndEmpty instead.
func (g *GameState) StartGame(first int) error {
	if g.Phase != PhaseInit {
		return fmt.Errorf("cannot start game in phase %q", g.Phase)
	}
	n := len(g.Players)
	if first == RandomSeat {
		first = g.rng.IntN(n)
	}
	if first < 0 || first >= n {
		return fmt.Errorf("first player %d out of range [0,%d)", first, n)
	}
	g.FirstPlayer = first
	g.CurrentPlayer = first
	g.CurrentRound = 1
	g.SubTurn = 0
	g.Phase = PhasePlaying
	g.logf(msgFirstPlayer, g.Players[first].Name)
	g.dealCards()
	return nil
}

// AdvanceTurn passes the turn to the next seat. After the last sub-turn of a
// round it runs the stalemate check and, if the game continues, deals the
// next round.
func (g *GameState) AdvanceTurn() error {
	if g.Phase != PhasePlaying {
		return g.msgs.fail(ReasonGameNotPlaying, msgNotPlaying)
	}
	n := len(g.Players)
	g.SubTurn++
	g.CurrentPlayer = (g.CurrentPlayer + 1) % n
	if g.SubTurn < n*g.CurrentHandSize {
		return nil
	}

	g.SubTurn = 0
	g.CurrentRound++
	if g.checkStalemate() {
		return nil
	}
	g.dealCards()
	return nil
}

// EndGame moves the game to PhaseGameEnd. Calling it on an ended game is a
// no-op.
func (g *GameState) EndGame(reason EndReason) {
	if g.Phase == PhaseGameEnd {
		return
	}
	g.Phase = PhaseGameEnd
	g.EndReason = reason
	g.logf(msgGameOver, g.msgs.EndReason(reason))
	if g.onEnd != nil {
		g.onEnd(g)
	}
}

// IsOver reports whether the game has ended.
func (g *GameState) IsOver() bool { return g.Phase == PhaseGameEnd }

// RoundLength returns the number of sub-turns in the current round.
func (g *GameState) RoundLength() int { return len(g.Players) * g.CurrentHandSize }

// ---------------------------------------------------------------------------
// Dealing
// ---------------------------------------------------------------------------

// dealCards deals up to HandSize round-robin passes, drawing from the top of
// the draw pile and then from the bottom of the discard pile. It reports
// false when the game ended because not even one pass could be dealt.
func (g *GameState) dealCards() bool {
	n := len(g.Players)
	if g.cardsLeft() < n {
		g.EndGame(EndEmpty)
		return false
	}

	passes := 0
	for passes < g.Rules.HandSize && g.cardsLeft() >= n {
		for _, p := range g.Players {
			p.Hand = append(p.Hand, g.drawForDeal())
		}
		passes++
	}
	g.CurrentHandSize = passes
	g.ScoresBefore = g.Scores()
	g.logf(msgDealt, g.CurrentRound, passes)
	return true
}

func (g *GameState) cardsLeft() int { return len(g.DrawPile) + len(g.DiscardPile) }

func (g *GameState) drawForDeal() Card {
	if len(g.DrawPile) > 0 {
		return moveTop(&g.DrawPile)
	}
	c := g.DiscardPile[0]
	g.DiscardPile = g.DiscardPile[1:]
	return c
}

// moveTop removes and returns the last card of pile.
func moveTop(pile *[]Card) Card {
	s := *pile
	c := s[len(s)-1]
	*pile = s[:len(s)-1]
	return c
}

// checkStalemate runs between rounds and reports whether it ended the game.
// Stagnation only counts while the remaining supply is at or below the card
// threshold; a larger supply or any score change resets the counter.
func (g *GameState) checkStalemate() bool {
	if g.cardsLeft() > g.Rules.StalemateCardThreshold {
		g.StalemateCount = 0
		return false
	}
	for i, p := range g.Players {
		if i >= len(g.ScoresBefore) || p.TotalScore() != g.ScoresBefore[i] {
			g.StalemateCount = 0
			return false
		}
	}
	g.StalemateCount++
	if g.StalemateCount >= g.Rules.StalemateRounds {
		g.EndGame(EndStalemate)
		return true
	}
	return false
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

// NextPlayer returns the seat after p.
func (g *GameState) NextPlayer(p int) int { return (p + 1) % len(g.Players) }

// DiscardTop returns the top of the discard pile.
func (g *GameState) DiscardTop() (Card, bool) {
	if len(g.DiscardPile) == 0 {
		return Card{}, false
	}
	return g.DiscardPile[len(g.DiscardPile)-1], true
}

func (g *GameState) logf(key string, args ...any) {
	g.Log = append(g.Log, g.msgs.Sprintf(key, args...))
}

// RevealAll passed to Snapshot shows every hand.
const RevealAll = -1

// PlayerView is the read-only view of one seat.
type PlayerView struct {
	Index        int
	IsHuman      bool
	Name         string
	Hand         []Card // nil when hidden from the viewer
	HandSize     int
	ScorePile    []Group
	TotalScore   int
	InCommitment bool
}

// View is a read-only snapshot of a game, detached from the live state.
type View struct {
	Players         []PlayerView
	DrawPileSize    int
	DiscardPileSize int
	DiscardTop      *Card
	CurrentPlayer   int
	CurrentRound    int
	SubTurn         int
	CurrentHandSize int
	Phase           Phase
	EndReason       EndReason
	StalemateCount  int
	Log             []string
}

// Snapshot returns a copy of the game as seen from viewer's seat: only the
// viewer's own hand is revealed, or every hand when viewer is RevealAll.
func (g *GameState) Snapshot(viewer int) View {
	v := View{
		DrawPileSize:    len(g.DrawPile),
		DiscardPileSize: len(g.DiscardPile),
		CurrentPlayer:   g.CurrentPlayer,
		CurrentRound:    g.CurrentRound,
		SubTurn:         g.SubTurn,
		CurrentHandSize: g.CurrentHandSize,
		Phase:           g.Phase,
		EndReason:       g.EndReason,
		StalemateCount:  g.StalemateCount,
		Log:             append([]string(nil), g.Log...),
	}
	if top, ok := g.DiscardTop(); ok {
		v.DiscardTop = &top
	}
	for _, p := range g.Players {
		pv := PlayerView{
			Index:        p.Index,
			IsHuman:      p.IsHuman,
			Name:         p.Name,
			HandSize:     len(p.Hand),
			ScorePile:    p.ScorePile(),
			TotalScore:   p.TotalScore(),
			InCommitment: p.InCommitment(),
		}
		if viewer == RevealAll || viewer == p.Index {
			pv.Hand = append([]Card(nil), p.Hand...)
		}
		v.Players = append(v.Players, pv)
	}
	return v
}
