// internal/game/game_test.go
package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	engine "github.com/jason-s-yu/thief/engine"
	"github.com/jason-s-yu/thief/engine/agent"
	"github.com/jason-s-yu/thief/service/internal/historian"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster captures game events for testing assertions.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []GameEvent
	playerEvents map[int][]GameEvent
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{playerEvents: make(map[int][]GameEvent)}
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(seat int, ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[seat] = append(mb.playerEvents[seat], ev)
}

func (mb *mockBroadcaster) getLastPlayerEvent(seat int) *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events := mb.playerEvents[seat]
	if len(events) == 0 {
		return nil
	}
	return &events[len(events)-1]
}

func (mb *mockBroadcaster) findEventByType(eventType GameEventType) *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for i := len(mb.allEvents) - 1; i >= 0; i-- {
		if mb.allEvents[i].Type == eventType {
			return &mb.allEvents[i]
		}
	}
	return nil
}

func (mb *mockBroadcaster) countEvents(eventType GameEventType) int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	n := 0
	for _, ev := range mb.allEvents {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

func (mb *mockBroadcaster) total() int {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	return len(mb.allEvents)
}

// recordingSink collects historian records.
type recordingSink struct {
	mu      sync.Mutex
	records []historian.ActionRecord
}

func (s *recordingSink) Publish(_ context.Context, rec historian.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

func (s *recordingSink) Close() error { return nil }

func (s *recordingSink) hasType(gameID uuid.UUID, actionType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.GameID == gameID && r.ActionType == actionType {
			return true
		}
	}
	return false
}

func quietLogger() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

func computerSeats(n int) []engine.Seat {
	return make([]engine.Seat, n)
}

// setupTestGame builds and starts a table with a human at seat 0 and a
// computer at seat 1. With no AI delay the human is on turn when it returns.
func setupTestGame(t *testing.T, opts Options) (*ThiefGame, *mockBroadcaster) {
	t.Helper()
	if opts.Rules == (engine.HouseRules{}) {
		opts.Rules = engine.DefaultHouseRules()
	}
	if opts.AI == (agent.Config{}) {
		opts.AI = agent.DefaultConfig()
	}
	if opts.Seed == 0 {
		opts.Seed = 42
	}
	if opts.Logger == nil {
		opts.Logger = quietLogger()
	}
	g, err := NewThiefGame(opts)
	require.NoError(t, err)
	mb := newMockBroadcaster()
	g.BroadcastFn = mb.broadcastFn
	g.BroadcastToPlayerFn = mb.broadcastToPlayerFn
	require.NoError(t, g.Start())
	t.Cleanup(g.Close)
	return g, mb
}

// humanCard returns the ID of the first card in seat 0's hand.
func humanCard(t *testing.T, g *ThiefGame) int {
	t.Helper()
	g.Mu.Lock()
	defer g.Mu.Unlock()
	require.NotEmpty(t, g.Engine.Players[0].Hand)
	return g.Engine.Players[0].Hand[0].ID
}

// startTurns is the number of turn notifications Start sends before the
// human at seat 0 is on turn: one more when the computer moved first.
func startTurns(t *testing.T, mb *mockBroadcaster) int {
	t.Helper()
	start := mb.findEventByType(EventGameStart)
	require.NotNil(t, start)
	require.NotNil(t, start.Seat)
	if *start.Seat == 0 {
		return 1
	}
	return 2
}

func currentPlayer(g *ThiefGame) int {
	g.Mu.Lock()
	defer g.Mu.Unlock()
	return g.Engine.CurrentPlayer
}

func TestNewThiefGameValidation(t *testing.T) {
	rules := engine.DefaultHouseRules()
	rules.NumPlayers = 5
	_, err := NewThiefGame(Options{Rules: rules, AI: agent.DefaultConfig()})
	assert.Error(t, err, "five players")

	_, err = NewThiefGame(Options{Rules: engine.DefaultHouseRules(), AI: agent.Config{Tier: 9}})
	assert.Error(t, err, "unknown tier")

	_, err = NewThiefGame(Options{Rules: engine.DefaultHouseRules(), AI: agent.DefaultConfig(), Seats: computerSeats(3)})
	assert.Error(t, err, "seat count mismatch")
}

func TestStartPutsHumanOnTurn(t *testing.T) {
	g, mb := setupTestGame(t, Options{})

	assert.Equal(t, 0, currentPlayer(g))
	assert.NotNil(t, mb.findEventByType(EventGameStart))
	assert.NotNil(t, mb.findEventByType(EventGameRoundDealt))

	turn := mb.findEventByType(EventGamePlayerTurn)
	require.NotNil(t, turn)
	require.NotNil(t, turn.Seat)
	assert.Equal(t, 0, *turn.Seat)
	assert.Equal(t, startTurns(t, mb), mb.countEvents(EventGamePlayerTurn))
	assert.Equal(t, 1, mb.countEvents(EventGameRoundDealt))

	st := mb.getLastPlayerEvent(0)
	require.NotNil(t, st, "human seat should receive its state")
	assert.Equal(t, EventPrivateSyncState, st.Type)
	assert.Empty(t, mb.playerEvents[1], "computer seats receive no private events")

	assert.Error(t, g.Start(), "second Start")
}

func TestHumanDiscardAndAdvance(t *testing.T) {
	g, mb := setupTestGame(t, Options{})

	turns := startTurns(t, mb)
	cardID := humanCard(t, g)
	require.NoError(t, g.AttemptDiscard(0, cardID))
	assert.Equal(t, turns, mb.countEvents(EventGamePlayerTurn), "no turn change without AdvanceTurn")

	ev := mb.findEventByType(EventPlayerDiscard)
	require.NotNil(t, ev)
	assert.Equal(t, 0, *ev.Seat)
	assert.Equal(t, cardID, ev.Card.ID)
	assert.NotEmpty(t, ev.Message)

	err := g.AttemptDiscard(0, humanCard(t, g))
	assert.ErrorIs(t, err, engine.ErrTurnDone, "one command per turn")

	require.NoError(t, g.AdvanceTurn())
	assert.Equal(t, 0, currentPlayer(g), "computer moves inline and hands the turn back")
	assert.Equal(t, turns+2, mb.countEvents(EventGamePlayerTurn), "one notification for the computer, one for the human")
	moves := mb.countEvents(EventPlayerDiscard) + mb.countEvents(EventPlayerTakeDiscard) +
		mb.countEvents(EventPlayerScore) + mb.countEvents(EventPlayerSteal)
	assert.Equal(t, turns+1, moves, "each turn applies exactly one command")
}

func TestAdvanceBeforeActing(t *testing.T) {
	g, _ := setupTestGame(t, Options{})
	assert.ErrorIs(t, g.AdvanceTurn(), ErrNotActed)
}

func TestRejectedCommandsArePrivate(t *testing.T) {
	g, mb := setupTestGame(t, Options{})
	before := mb.total()

	err := g.AttemptDiscard(0, 9999)
	assert.ErrorIs(t, err, engine.ErrCardNotFound)
	last := mb.getLastPlayerEvent(0)
	require.NotNil(t, last)
	assert.Equal(t, EventPrivateActionFail, last.Type)
	assert.Equal(t, string(engine.ReasonCardNotFound), last.Payload["reason"])
	assert.NotEmpty(t, last.Message)

	err = g.AttemptSteal(0, humanCard(t, g), 0)
	assert.ErrorIs(t, err, engine.ErrInvalidVictim)

	err = g.AttemptDiscard(1, 0)
	assert.ErrorIs(t, err, engine.ErrNotYourTurn)

	assert.Equal(t, before, mb.total(), "rejections are never broadcast")
	assert.Equal(t, 0, currentPlayer(g))
}

func TestAutoAdvance(t *testing.T) {
	g, _ := setupTestGame(t, Options{AutoAdvance: true})

	require.NoError(t, g.AttemptDiscard(0, humanCard(t, g)))
	assert.Equal(t, 0, currentPlayer(g))
	assert.NoError(t, g.AttemptDiscard(0, humanCard(t, g)), "a new turn accepts a command")
}

func TestAIDelayRejectsCommandsAsBusy(t *testing.T) {
	g, mb := setupTestGame(t, Options{AIDelay: 200 * time.Millisecond})

	if currentPlayer(g) == 0 {
		require.NoError(t, g.AttemptDiscard(0, humanCard(t, g)))
		require.NoError(t, g.AdvanceTurn())
	}
	require.True(t, g.State(0).AIPending)
	assert.Equal(t, 1, mb.countEvents(EventAIThinking))

	err := g.AttemptDiscard(0, humanCard(t, g))
	assert.ErrorIs(t, err, engine.ErrBusy)
	assert.ErrorIs(t, g.AdvanceTurn(), engine.ErrBusy)

	assert.Eventually(t, func() bool {
		s := g.State(0)
		return !s.AIPending && s.CurrentPlayer == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, mb.countEvents(EventAIThinking), "one scheduled move, one notification")
	assert.NoError(t, g.AttemptDiscard(0, humanCard(t, g)))
}

func TestCloseCancelsPendingAI(t *testing.T) {
	g, mb := setupTestGame(t, Options{AIDelay: 50 * time.Millisecond})

	if currentPlayer(g) == 0 {
		require.NoError(t, g.AttemptDiscard(0, humanCard(t, g)))
		require.NoError(t, g.AdvanceTurn())
	}
	g.Close()
	count := mb.total()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, count, mb.total(), "no computer move after Close")
	assert.ErrorIs(t, g.AttemptDiscard(0, humanCard(t, g)), engine.ErrGameNotPlaying)
}

func TestSkipGame(t *testing.T) {
	var (
		gotID     uuid.UUID
		gotReason engine.EndReason
		gotScores []int
	)
	g, mb := setupTestGame(t, Options{})
	g.OnGameEnd = func(id uuid.UUID, reason engine.EndReason, scores []int) {
		gotID, gotReason, gotScores = id, reason, scores
	}

	require.NoError(t, g.SkipGame())
	assert.Equal(t, g.GameID, gotID)
	assert.Equal(t, engine.EndManualSkip, gotReason)
	assert.Len(t, gotScores, 2)

	end := mb.findEventByType(EventGameEnd)
	require.NotNil(t, end)
	assert.Equal(t, string(engine.EndManualSkip), end.Payload["reason"])

	assert.ErrorIs(t, g.AttemptDiscard(0, humanCard(t, g)), engine.ErrGameNotPlaying)
	assert.Error(t, g.SkipGame(), "nothing left to skip")
	assert.Error(t, g.NextGame(), "single game has no next game")
}

func TestComputerOnlyGameCompletes(t *testing.T) {
	sink := &recordingSink{}
	ends := 0
	g, err := NewThiefGame(Options{
		Rules:     engine.DefaultHouseRules(),
		Seats:     computerSeats(2),
		AI:        agent.DefaultConfig(),
		Seed:      7,
		Historian: sink,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(g.Close)
	mb := newMockBroadcaster()
	g.BroadcastFn = mb.broadcastFn
	g.OnGameEnd = func(uuid.UUID, engine.EndReason, []int) { ends++ }

	require.NoError(t, g.Start())
	assert.True(t, g.Engine.IsOver())
	assert.Equal(t, 1, ends)
	assert.Contains(t, []engine.EndReason{engine.EndEmpty, engine.EndStalemate}, g.Engine.EndReason)
	assert.Equal(t, 1, mb.countEvents(EventGameEnd))
	assert.Nil(t, mb.findEventByType(EventSeriesEnd))

	assert.Eventually(t, func() bool {
		return sink.hasType(g.GameID, string(EventGameStart)) && sink.hasType(g.GameID, string(EventGameEnd))
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSeriesRotatesAndEnds(t *testing.T) {
	rules := engine.DefaultHouseRules()
	rules.NumPlayers = 3
	var gameIDs []uuid.UUID
	g, err := NewThiefGame(Options{
		Rules:  rules,
		Seats:  computerSeats(3),
		AI:     agent.Config{Tier: agent.TierMedium, StealProbability: agent.DefaultStealProbability},
		Seed:   11,
		Series: true,
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(g.Close)
	mb := newMockBroadcaster()
	g.BroadcastFn = mb.broadcastFn
	g.OnGameEnd = func(id uuid.UUID, _ engine.EndReason, _ []int) { gameIDs = append(gameIDs, id) }

	require.NoError(t, g.Start())
	firsts := []int{g.Engine.FirstPlayer}
	for !g.Series.Done() {
		require.NoError(t, g.NextGame())
		firsts = append(firsts, g.Engine.FirstPlayer)
	}

	require.Len(t, firsts, 3)
	assert.Equal(t, (firsts[0]+1)%3, firsts[1])
	assert.Equal(t, (firsts[1]+1)%3, firsts[2])
	assert.Len(t, gameIDs, 3)
	assert.NotEqual(t, gameIDs[0], gameIDs[1])
	assert.Equal(t, 3, mb.countEvents(EventGameEnd))

	end := mb.findEventByType(EventSeriesEnd)
	require.NotNil(t, end)
	assert.Equal(t, 3, end.Payload["games"])
	assert.Error(t, g.NextGame(), "series complete")
}

func TestStateHidesOtherHands(t *testing.T) {
	g, _ := setupTestGame(t, Options{})

	own := g.State(0)
	assert.Equal(t, g.GameID, own.GameID)
	assert.Equal(t, engine.PhasePlaying, own.Phase)
	require.Len(t, own.Players, 2)
	assert.Len(t, own.Players[0].Hand, own.Players[0].HandSize)
	assert.Nil(t, own.Players[1].Hand)
	assert.True(t, own.Players[0].IsCurrentTurn)
	assert.NotEmpty(t, own.Log)

	all := g.State(engine.RevealAll)
	assert.Len(t, all.Players[1].Hand, all.Players[1].HandSize)
}

// TestComputerMovesFirst seats the computer first: Start plays its move and
// hands the turn to the human.
func TestComputerMovesFirst(t *testing.T) {
	for seed := uint64(1); seed <= 64; seed++ {
		g, mb := setupTestGame(t, Options{Seed: seed})
		if startTurns(t, mb) == 1 {
			continue
		}

		assert.Equal(t, 0, currentPlayer(g))
		require.Equal(t, 2, mb.countEvents(EventGamePlayerTurn))
		mb.mu.Lock()
		var turnSeats []int
		for _, ev := range mb.allEvents {
			if ev.Type == EventGamePlayerTurn {
				turnSeats = append(turnSeats, *ev.Seat)
			}
		}
		mb.mu.Unlock()
		assert.Equal(t, []int{1, 0}, turnSeats)

		st := g.State(engine.RevealAll)
		assert.Equal(t, st.HandSize-1, st.Players[1].HandSize, "computer played one card")
		assert.Equal(t, st.HandSize, st.Players[0].HandSize)
		assert.NoError(t, g.AttemptDiscard(0, humanCard(t, g)))
		return
	}
	t.Fatal("no seed in range put the computer first")
}

// slowSink delivers each record after a delay.
type slowSink struct {
	recordingSink
	delay time.Duration
}

func (s *slowSink) Publish(ctx context.Context, rec historian.ActionRecord) error {
	time.Sleep(s.delay)
	return s.recordingSink.Publish(ctx, rec)
}

func (s *slowSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func TestCloseWaitsForHistory(t *testing.T) {
	sink := &slowSink{delay: 20 * time.Millisecond}
	g, err := NewThiefGame(Options{
		Rules:     engine.DefaultHouseRules(),
		Seats:     computerSeats(2),
		AI:        agent.DefaultConfig(),
		Seed:      3,
		Historian: sink,
		Logger:    quietLogger(),
	})
	require.NoError(t, err)
	require.NoError(t, g.Start())

	g.Mu.Lock()
	logged := g.actionIndex
	g.Mu.Unlock()
	require.Positive(t, logged)

	g.Close()
	assert.Equal(t, logged, sink.count(), "every record delivered before Close returns")
	assert.True(t, sink.hasType(g.GameID, string(EventGameEnd)))
}
