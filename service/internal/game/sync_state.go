// internal/game/sync_state.go
package game

import (
	"github.com/google/uuid"
	engine "github.com/jason-s-yu/thief/engine"
)

// SyncCard is a card as sent to a client.
type SyncCard struct {
	ID    int    `json:"id"`
	Rank  string `json:"rank"`
	Suit  string `json:"suit,omitempty"`
	Value int    `json:"value"`
}

func syncCard(c engine.Card) SyncCard {
	return SyncCard{ID: c.ID, Rank: c.Rank.String(), Suit: c.Suit.String(), Value: c.Value()}
}

func syncCards(cards []engine.Card) []SyncCard {
	out := make([]SyncCard, len(cards))
	for i, c := range cards {
		out[i] = syncCard(c)
	}
	return out
}

// SyncPlayerState represents one seat as seen by a specific observer.
type SyncPlayerState struct {
	Seat          int          `json:"seat"`
	Name          string       `json:"name"`
	IsHuman       bool         `json:"isHuman"`
	HandSize      int          `json:"handSize"`
	IsCurrentTurn bool         `json:"isCurrentTurn"`
	ScorePile     [][]SyncCard `json:"scorePile"` // bottom group first
	TotalScore    int          `json:"totalScore"`
	InCommitment  bool         `json:"inCommitment"`
	// Hand is populated only for the seat requesting the state.
	Hand []SyncCard `json:"hand,omitempty"`
}

// SyncState represents the table as seen by one seat.
type SyncState struct {
	GameID          uuid.UUID         `json:"gameId"`
	GameNumber      int               `json:"gameNumber"`
	SeriesLength    int               `json:"seriesLength,omitempty"`
	Phase           engine.Phase      `json:"phase"`
	EndReason       engine.EndReason  `json:"endReason,omitempty"`
	CurrentPlayer   int               `json:"currentPlayer"`
	Round           int               `json:"round"`
	SubTurn         int               `json:"subTurn"`
	HandSize        int               `json:"handSize"`
	DrawPileSize    int               `json:"drawPileSize"`
	DiscardPileSize int               `json:"discardPileSize"`
	DiscardTop      *SyncCard         `json:"discardTop,omitempty"`
	StalemateCount  int               `json:"stalemateCount"`
	AIPending       bool              `json:"aiPending"`
	Players         []SyncPlayerState `json:"players"`
	Log             []string          `json:"log"`
	HouseRules      engine.HouseRules `json:"houseRules"`
}

// State returns the table as seen by seat; engine.RevealAll shows every hand.
func (g *ThiefGame) State(seat int) SyncState {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.syncState(seat)
}

// syncState builds the state for seat from an engine snapshot.
// Assumes lock is held by caller.
func (g *ThiefGame) syncState(seat int) SyncState {
	s := SyncState{
		GameID:     g.GameID,
		GameNumber: g.gameNumber,
		AIPending:  g.aiPending,
		HouseRules: g.Rules,
	}
	if g.Series != nil {
		s.SeriesLength = g.Series.Length()
	}
	if g.Engine == nil {
		s.Phase = engine.PhaseInit
		return s
	}

	v := g.Engine.Snapshot(seat)
	s.Phase = v.Phase
	s.EndReason = v.EndReason
	s.CurrentPlayer = v.CurrentPlayer
	s.Round = v.CurrentRound
	s.SubTurn = v.SubTurn
	s.HandSize = v.CurrentHandSize
	s.DrawPileSize = v.DrawPileSize
	s.DiscardPileSize = v.DiscardPileSize
	s.StalemateCount = v.StalemateCount
	s.Log = v.Log
	if v.DiscardTop != nil {
		top := syncCard(*v.DiscardTop)
		s.DiscardTop = &top
	}

	s.Players = make([]SyncPlayerState, len(v.Players))
	for i, pv := range v.Players {
		ps := SyncPlayerState{
			Seat:          pv.Index,
			Name:          pv.Name,
			IsHuman:       pv.IsHuman,
			HandSize:      pv.HandSize,
			IsCurrentTurn: v.Phase == engine.PhasePlaying && v.CurrentPlayer == pv.Index,
			ScorePile:     make([][]SyncCard, len(pv.ScorePile)),
			TotalScore:    pv.TotalScore,
			InCommitment:  pv.InCommitment,
		}
		for j, grp := range pv.ScorePile {
			ps.ScorePile[j] = syncCards(grp)
		}
		if pv.Hand != nil {
			ps.Hand = syncCards(pv.Hand)
		}
		s.Players[i] = ps
	}
	return s
}

// sendSyncState sends the full state privately to a human seat.
// Assumes lock is held by caller.
func (g *ThiefGame) sendSyncState(seat int) {
	if g.BroadcastToPlayerFn == nil || !g.Seats[seat].Human {
		return
	}
	state := g.syncState(seat)
	g.fireEventToPlayer(seat, GameEvent{Type: EventPrivateSyncState, Seat: seatRef(seat), State: &state})
}

// broadcastSyncStateToAll sends each human seat its own state.
// Assumes lock is held by caller.
func (g *ThiefGame) broadcastSyncStateToAll() {
	for i := range g.Seats {
		g.sendSyncState(i)
	}
}
