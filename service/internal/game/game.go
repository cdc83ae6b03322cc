// internal/game/game.go
package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/thief/engine"
	"github.com/jason-s-yu/thief/engine/agent"
	"github.com/jason-s-yu/thief/service/internal/historian"
	"github.com/sirupsen/logrus"
)

// OnGameEndFunc defines the signature for a callback function executed when a game ends.
// It receives the finished game's ID, the end reason and the final scores by seat.
type OnGameEndFunc func(gameID uuid.UUID, reason engine.EndReason, scores []int)

// GameEventType represents the type of a game-related event sent to listeners.
type GameEventType string

// Constants defining the various GameEvent types.
const (
	EventGameStart         GameEventType = "game_start"          // Public: A game of the table has started.
	EventGameRoundDealt    GameEventType = "game_round_dealt"    // Public: A new round was dealt.
	EventGamePlayerTurn    GameEventType = "game_player_turn"    // Public: Notification of the current player's turn.
	EventPlayerDiscard     GameEventType = "player_discard"      // Public: Player discarded a card.
	EventPlayerTakeDiscard GameEventType = "player_take_discard" // Public: Player paired a card with the discard top.
	EventPlayerScore       GameEventType = "player_score"        // Public: Player played a card to their own score pile.
	EventPlayerSteal       GameEventType = "player_steal"        // Public: Player stole another seat's top group.
	EventPrivateActionFail GameEventType = "private_action_fail" // Private: A command was rejected.
	EventPrivateSyncState  GameEventType = "private_sync_state"  // Private: Full state sync for a seat.
	EventAIThinking        GameEventType = "ai_thinking"         // Public: A computer seat is about to move.
	EventGameEnd           GameEventType = "game_end"            // Public: Game has ended, includes results.
	EventSeriesEnd         GameEventType = "series_end"          // Public: Every game of the series is done.
)

// ErrNotActed is returned by AdvanceTurn before the seat on turn has applied a command.
var ErrNotActed = errors.New("no command applied this turn")

// EventCard identifies a card within a GameEvent payload.
type EventCard struct {
	ID    int    `json:"id"`
	Rank  string `json:"rank"`
	Suit  string `json:"suit,omitempty"`
	Value int    `json:"value"`
}

func eventCard(c engine.Card) *EventCard {
	return &EventCard{ID: c.ID, Rank: c.Rank.String(), Suit: c.Suit.String(), Value: c.Value()}
}

// GameEvent is the standard structure for broadcasting game state changes and actions.
type GameEvent struct {
	Type    GameEventType `json:"type"`
	Seat    *int          `json:"seat,omitempty"`    // The seat initiating or targeted by the event.
	Victim  *int          `json:"victim,omitempty"`  // Seat robbed by a steal.
	Card    *EventCard    `json:"card,omitempty"`    // Primary card involved.
	Message string        `json:"message,omitempty"` // Localized status line.

	Payload map[string]any `json:"payload,omitempty"` // Additional arbitrary data.

	State *SyncState `json:"state,omitempty"` // Full state for sync events.
}

func seatRef(i int) *int { return &i }

// Options configures a table.
type Options struct {
	Rules engine.HouseRules
	Seats []engine.Seat // nil seats a human at 0 and computers elsewhere
	AI    agent.Config

	// Seed drives the shuffle, first-player draw and AI tie-breaking. Zero seeds from the clock.
	Seed uint64
	// Series plays one game per seat instead of a single game.
	Series bool
	// AIDelay is the pause before a computer seat moves. Zero moves immediately, inline.
	AIDelay time.Duration
	// AutoAdvance advances the turn after every successful human command.
	AutoAdvance bool

	Historian historian.Sink
	Logger    *logrus.Entry
}

// ThiefGame owns one table: a single game or a series, its computer players,
// and the listeners interested in what happens at it.
type ThiefGame struct {
	ID     uuid.UUID // Identifies the table; every game played at it gets its own GameID.
	GameID uuid.UUID // Current game.

	Rules       engine.HouseRules
	Seats       []engine.Seat
	AIDelay     time.Duration
	AutoAdvance bool

	Engine *engine.GameState // The authoritative game state; nil until Start.
	Series *engine.Series    // Nil for a single game.

	Mu sync.Mutex // Protects everything above and below.

	// Communication Callbacks
	BroadcastFn         func(ev GameEvent)           // Sends an event to every listener.
	BroadcastToPlayerFn func(seat int, ev GameEvent) // Sends an event to a single seat.
	OnGameEnd           OnGameEndFunc                // Callback executed when a game finishes.

	historian historian.Sink
	publishes sync.WaitGroup // in-flight historian publishes
	log       *logrus.Entry

	seed   uint64
	brains []*agent.Brain // nil entries for human seats

	aiTimer   *time.Timer
	aiGen     int  // invalidates timers that fire after cancellation
	aiPending bool // a computer move is scheduled
	turnActed bool // the seat on turn has applied its command
	ended     bool // game end already announced
	closed    bool

	gameNumber  int
	actionIndex int
}

// NewThiefGame validates opts and seats the table. Call Start to deal.
func NewThiefGame(opts Options) (*ThiefGame, error) {
	if err := opts.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("house rules: %w", err)
	}
	if err := opts.AI.Validate(); err != nil {
		return nil, fmt.Errorf("ai config: %w", err)
	}
	n := opts.Rules.NumPlayers
	if n == 0 {
		n = engine.MinPlayers
	}
	seats := opts.Seats
	if seats == nil {
		seats = engine.DefaultSeats(n)
	}
	if len(seats) != n {
		return nil, fmt.Errorf("got %d seats for %d players", len(seats), n)
	}
	seed := opts.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	sink := opts.Historian
	if sink == nil {
		sink = historian.Nop{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	id := uuid.New()
	g := &ThiefGame{
		ID:          id,
		Rules:       opts.Rules,
		Seats:       seats,
		AIDelay:     opts.AIDelay,
		AutoAdvance: opts.AutoAdvance,
		historian:   sink,
		log:         logger.WithField("table_id", id),
		seed:        seed,
	}

	rng := newRand(seed, 0)
	g.brains = make([]*agent.Brain, len(seats))
	for i, s := range seats {
		if s.Human {
			continue
		}
		b, err := agent.NewBrain(opts.AI, newRand(seed, uint64(i)+1))
		if err != nil {
			return nil, err
		}
		g.brains[i] = b
	}

	if opts.Series {
		s, err := engine.NewSeries(rng.Uint64(), opts.Rules, seats)
		if err != nil {
			return nil, err
		}
		g.Series = s
	}
	return g, nil
}

// Start deals the first game. With no AI delay every computer turn up to the
// first human decision is played before Start returns.
func (g *ThiefGame) Start() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.Engine != nil {
		return fmt.Errorf("table %s already started", g.ID)
	}
	return g.startGame()
}

// NextGame starts the next game of a series once the current one has ended.
func (g *ThiefGame) NextGame() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	switch {
	case g.closed:
		return fmt.Errorf("table %s is closed", g.ID)
	case g.Series == nil:
		return fmt.Errorf("table %s is not playing a series", g.ID)
	case g.Engine == nil || !g.Engine.IsOver():
		return fmt.Errorf("table %s: current game still in progress", g.ID)
	case g.Series.Done():
		return fmt.Errorf("table %s: series complete", g.ID)
	}
	return g.startGame()
}

// startGame creates and deals a game, then runs computer turns.
// Assumes lock is held by caller.
func (g *ThiefGame) startGame() error {
	var (
		eg  *engine.GameState
		err error
	)
	if g.Series != nil {
		eg, err = g.Series.NextGame()
	} else {
		eg, err = engine.NewGame(g.seed, g.Rules, g.Seats)
		if err == nil {
			err = eg.StartGame(engine.RandomSeat)
		}
	}
	if err != nil {
		return err
	}

	g.Engine = eg
	g.GameID = uuid.New()
	g.gameNumber++
	g.actionIndex = 0
	g.ended = false
	g.turnActed = false
	g.log = g.log.WithField("game_id", g.GameID)

	payload := map[string]any{
		"tableId":     g.ID.String(),
		"gameNumber":  g.gameNumber,
		"firstPlayer": eg.FirstPlayer,
		"players":     len(eg.Players),
		"language":    eg.Messages().Language().String(),
	}
	g.logAction(historian.NoActor, string(EventGameStart), payload)
	g.fireEvent(GameEvent{Type: EventGameStart, Seat: seatRef(eg.FirstPlayer), Payload: payload})
	g.log.WithFields(logrus.Fields{"game": g.gameNumber, "first_player": eg.FirstPlayer}).Info("Game started")

	if !eg.IsOver() {
		g.announceDeal()
	}
	g.proceed()
	return nil
}

// announceDeal reports a fresh deal publicly and syncs every human hand.
// Assumes lock is held by caller.
func (g *ThiefGame) announceDeal() {
	eg := g.Engine
	payload := map[string]any{
		"round":       eg.CurrentRound,
		"handSize":    eg.CurrentHandSize,
		"drawPile":    len(eg.DrawPile),
		"discardPile": len(eg.DiscardPile),
	}
	g.logAction(historian.NoActor, string(EventGameRoundDealt), payload)
	g.fireEvent(GameEvent{Type: EventGameRoundDealt, Message: lastLine(eg), Payload: payload})
	g.broadcastSyncStateToAll()
}

// proceed drives the table after every state change: it announces a finished
// game, or the next turn, and plays computer turns until a human must act or
// a delayed computer move has been scheduled.
// Assumes lock is held by caller.
func (g *ThiefGame) proceed() {
	for !g.closed {
		if g.Engine.IsOver() {
			g.finishGame()
			return
		}
		g.turnActed = false
		g.broadcastPlayerTurn()

		seat := g.Engine.CurrentPlayer
		if g.brains[seat] == nil {
			return
		}
		if g.AIDelay > 0 {
			g.scheduleAI(seat)
			return
		}
		g.playAITurn(seat)
	}
}

// scheduleAI plays the computer seat's move after AIDelay. Commands from any
// seat are rejected as busy until it fires.
// Assumes lock is held by caller.
func (g *ThiefGame) scheduleAI(seat int) {
	g.aiPending = true
	g.aiGen++
	gen := g.aiGen
	g.fireEvent(GameEvent{Type: EventAIThinking, Seat: seatRef(seat)})
	g.aiTimer = time.AfterFunc(g.AIDelay, func() {
		g.Mu.Lock()
		defer g.Mu.Unlock()
		if gen != g.aiGen || !g.aiPending || g.closed {
			return
		}
		g.aiPending = false
		g.aiTimer = nil
		g.playAITurn(seat)
		g.proceed()
	})
}

// cancelAI stops a scheduled computer move.
// Assumes lock is held by caller.
func (g *ThiefGame) cancelAI() {
	g.aiGen++
	g.aiPending = false
	if g.aiTimer != nil {
		g.aiTimer.Stop()
		g.aiTimer = nil
	}
}

// playAITurn applies the brain's decision for seat and advances the turn.
// Assumes lock is held by caller.
func (g *ThiefGame) playAITurn(seat int) {
	cmd := g.brains[seat].Decide(g.Engine, seat)
	if cmd == nil {
		g.log.WithField("player", seat).Warn("Computer found no move; passing")
	} else {
		out, err := g.Engine.ApplyCommand(seat, cmd)
		if err != nil {
			g.log.WithFields(logrus.Fields{"player": seat, "action": cmd.Kind()}).WithError(err).Error("Computer move rejected; falling back to first legal move")
			if legal := g.Engine.LegalCommands(seat); len(legal) > 0 {
				out, err = g.Engine.ApplyCommand(seat, legal[0])
			}
		}
		if err == nil {
			g.log.WithFields(logrus.Fields{"player": seat, "action": out.Command.Kind(), "effect": out.Effect}).Debug("Computer moved")
			g.announce(out)
		}
	}
	g.turnActed = true
	if err := g.advance(); err != nil {
		g.log.WithError(err).Error("Failed advancing turn after computer move")
	}
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

// AttemptDiscard moves a card from seat's hand to the discard pile.
func (g *ThiefGame) AttemptDiscard(seat, cardID int) error {
	return g.attempt(seat, engine.Discard{Card: cardID})
}

// AttemptTakeFromDiscard pairs a card with the top of the discard pile.
func (g *ThiefGame) AttemptTakeFromDiscard(seat, cardID int) error {
	return g.attempt(seat, engine.TakeFromDiscard{Card: cardID})
}

// AttemptPlayToScorePile plays a card onto seat's own score pile. forceNew
// starts a new pledge even when the card could extend the top group.
func (g *ThiefGame) AttemptPlayToScorePile(seat, cardID int, forceNew bool) error {
	return g.attempt(seat, engine.PlayToScorePile{Card: cardID, ForceNew: forceNew})
}

// AttemptSteal takes victim's top group with a card from seat's hand.
func (g *ThiefGame) AttemptSteal(seat, cardID, victim int) error {
	return g.attempt(seat, engine.Steal{Card: cardID, Victim: victim})
}

// attempt gates, applies and announces one command. A rejection is sent
// privately to seat and returned as an *engine.ActionError.
func (g *ThiefGame) attempt(seat int, cmd engine.Command) error {
	g.Mu.Lock()
	defer g.Mu.Unlock()

	if err := g.gate(seat); err != nil {
		g.rejectCommand(seat, cmd, err)
		return err
	}
	out, err := g.Engine.ApplyCommand(seat, cmd)
	if err != nil {
		g.rejectCommand(seat, cmd, err)
		return err
	}
	g.turnActed = true
	g.announce(out)
	if g.AutoAdvance {
		if err := g.advance(); err != nil {
			return err
		}
		g.proceed()
	}
	return nil
}

// gate rejects commands the engine cannot see are out of order: before start,
// while a computer move is pending, or a second command in one turn.
// Assumes lock is held by caller.
func (g *ThiefGame) gate(seat int) error {
	if g.Engine == nil {
		return engine.NewMessages(g.Rules.Language).Reject(engine.ReasonGameNotPlaying)
	}
	msgs := g.Engine.Messages()
	switch {
	case g.closed:
		return msgs.Reject(engine.ReasonGameNotPlaying)
	case g.aiPending:
		return msgs.Reject(engine.ReasonBusy)
	case g.turnActed && seat == g.Engine.CurrentPlayer && !g.Engine.IsOver():
		return msgs.Reject(engine.ReasonTurnDone)
	}
	return nil
}

// rejectCommand reports a failed command privately.
// Assumes lock is held by caller.
func (g *ThiefGame) rejectCommand(seat int, cmd engine.Command, err error) {
	reason := engine.ReasonOf(err)
	message := err.Error()
	var ae *engine.ActionError
	if errors.As(err, &ae) {
		message = ae.Message
	}
	g.log.WithFields(logrus.Fields{"player": seat, "action": cmd.Kind(), "reason": reason}).Debug("Command rejected")
	g.logAction(seat, string(EventPrivateActionFail), map[string]any{"action": cmd.Kind(), "card": cmd.CardID(), "reason": string(reason)})
	g.fireEventToPlayer(seat, GameEvent{
		Type:    EventPrivateActionFail,
		Seat:    seatRef(seat),
		Message: message,
		Payload: map[string]any{"action": cmd.Kind(), "reason": string(reason)},
	})
}

// announce broadcasts and records a successful command.
// Assumes lock is held by caller.
func (g *ThiefGame) announce(out engine.Outcome) {
	ev := GameEvent{
		Seat:    seatRef(out.Player),
		Card:    eventCard(out.Card),
		Message: out.Message,
		Payload: map[string]any{"effect": string(out.Effect)},
	}
	switch cmd := out.Command.(type) {
	case engine.Discard:
		ev.Type = EventPlayerDiscard
	case engine.TakeFromDiscard:
		ev.Type = EventPlayerTakeDiscard
	case engine.PlayToScorePile:
		ev.Type = EventPlayerScore
		ev.Payload["forceNew"] = cmd.ForceNew
	case engine.Steal:
		ev.Type = EventPlayerSteal
		ev.Victim = seatRef(cmd.Victim)
		ev.Payload["stolen"] = out.Stolen
	}
	ev.Payload["score"] = g.Engine.Players[out.Player].TotalScore()

	record := map[string]any{"card": out.Card.ID, "effect": string(out.Effect)}
	if ev.Victim != nil {
		record["victim"] = *ev.Victim
		record["stolen"] = out.Stolen
	}
	g.logAction(out.Player, string(ev.Type), record)
	g.fireEvent(ev)
	g.broadcastSyncStateToAll()
}

// AdvanceTurn passes the turn once the seat on turn has applied a command,
// dealing a new round or ending the game as the rules require.
func (g *ThiefGame) AdvanceTurn() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.Engine == nil || g.closed {
		return engine.NewMessages(g.Rules.Language).Reject(engine.ReasonGameNotPlaying)
	}
	if g.aiPending {
		return g.Engine.Messages().Reject(engine.ReasonBusy)
	}
	if !g.turnActed {
		return ErrNotActed
	}
	if err := g.advance(); err != nil {
		return err
	}
	g.proceed()
	return nil
}

// advance runs the engine's turn step and announces a new deal. The caller
// continues with proceed.
// Assumes lock is held by caller.
func (g *ThiefGame) advance() error {
	round := g.Engine.CurrentRound
	if err := g.Engine.AdvanceTurn(); err != nil {
		return err
	}
	if !g.Engine.IsOver() && g.Engine.CurrentRound != round {
		g.announceDeal()
	}
	return nil
}

// SkipGame ends the current game early with the manual-skip reason.
func (g *ThiefGame) SkipGame() error {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	if g.Engine == nil || g.Engine.IsOver() {
		return fmt.Errorf("table %s: no game in progress", g.ID)
	}
	g.cancelAI()
	g.Engine.EndGame(engine.EndManualSkip)
	g.finishGame()
	return nil
}

// Close cancels any pending computer move and waits for queued history
// records to be published. The table accepts no commands afterwards.
func (g *ThiefGame) Close() {
	g.Mu.Lock()
	g.closed = true
	g.cancelAI()
	g.Mu.Unlock()
	g.publishes.Wait()
}

// finishGame announces the end of the current game and, when it completes
// the series, the series result.
// Assumes lock is held by caller.
func (g *ThiefGame) finishGame() {
	if g.ended {
		return
	}
	g.ended = true
	g.cancelAI()

	eg := g.Engine
	scores := eg.Scores()
	winners := eg.Winners()
	payload := map[string]any{
		"reason":     string(eg.EndReason),
		"scores":     scores,
		"winners":    winners,
		"gameNumber": g.gameNumber,
		"rounds":     eg.CurrentRound,
	}
	g.logAction(historian.NoActor, string(EventGameEnd), payload)
	g.fireEvent(GameEvent{Type: EventGameEnd, Message: lastLine(eg), Payload: payload})
	g.broadcastSyncStateToAll()
	g.log.WithFields(logrus.Fields{"reason": eg.EndReason, "scores": scores, "winners": winners}).Info("Game ended")

	if g.OnGameEnd != nil {
		g.OnGameEnd(g.GameID, eg.EndReason, scores)
	}

	if g.Series != nil && g.Series.Done() {
		totals := g.Series.Totals()
		seriesPayload := map[string]any{
			"games":   g.Series.GamesPlayed(),
			"results": g.Series.Results,
			"totals":  totals,
			"winners": g.Series.Winners(),
		}
		g.logAction(historian.NoActor, string(EventSeriesEnd), seriesPayload)
		g.fireEvent(GameEvent{Type: EventSeriesEnd, Payload: seriesPayload})
		g.log.WithField("totals", totals).Info("Series ended")
	}
}

// broadcastPlayerTurn notifies every listener of the seat on turn.
// Assumes lock is held by caller.
func (g *ThiefGame) broadcastPlayerTurn() {
	eg := g.Engine
	g.fireEvent(GameEvent{
		Type: EventGamePlayerTurn,
		Seat: seatRef(eg.CurrentPlayer),
		Payload: map[string]any{
			"round":   eg.CurrentRound,
			"subTurn": eg.SubTurn,
		},
	})
}

// fireEvent broadcasts an event via the BroadcastFn callback.
// Assumes lock is held by caller.
func (g *ThiefGame) fireEvent(ev GameEvent) {
	if g.BroadcastFn != nil {
		g.BroadcastFn(ev)
	}
}

// fireEventToPlayer sends an event to one seat via the BroadcastToPlayerFn callback.
// Assumes lock is held by caller.
func (g *ThiefGame) fireEventToPlayer(seat int, ev GameEvent) {
	if g.BroadcastToPlayerFn != nil {
		g.BroadcastToPlayerFn(seat, ev)
	}
}

// logAction sends game action details to the historian sink.
// Increments the internal action index for ordering. Nothing is recorded
// once the table is closed.
// Assumes lock is held by caller.
func (g *ThiefGame) logAction(actor int, actionType string, payload map[string]any) {
	if g.closed {
		return
	}
	g.actionIndex++
	if payload == nil {
		payload = make(map[string]any)
	}
	record := historian.ActionRecord{
		GameID:      g.GameID,
		ActionIndex: g.actionIndex,
		Actor:       actor,
		ActionType:  actionType,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	}

	g.publishes.Add(1)
	go func(rec historian.ActionRecord, log *logrus.Entry) {
		defer g.publishes.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.historian.Publish(ctx, rec); err != nil {
			log.WithFields(logrus.Fields{"action_index": rec.ActionIndex, "action": rec.ActionType}).WithError(err).Warn("Failed publishing action")
		}
	}(record, g.log)
}

// lastLine returns the newest event-log line.
func lastLine(eg *engine.GameState) string {
	if len(eg.Log) == 0 {
		return ""
	}
	return eg.Log[len(eg.Log)-1]
}

func newRand(seed, stream uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, stream))
}
