package engine

import (
	"slices"
	"testing"
)

// newTestGame returns a started game with seat 0 to move.
func newTestGame(t *testing.T, rules HouseRules) *GameState {
	t.Helper()
	g, err := NewGame(42, rules, nil)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	if err := g.StartGame(0); err != nil {
		t.Fatalf("StartGame: %v", err)
	}
	return g
}

// setTable replaces every hand and empties both piles and all score piles.
func setTable(g *GameState, hands ...[]Card) {
	g.DrawPile = nil
	g.DiscardPile = nil
	for i, p := range g.Players {
		p.Hand = nil
		if i < len(hands) {
			p.Hand = slices.Clone(hands[i])
		}
		p.scorePile = nil
		p.recompute()
	}
}

func TestNewGameSeats(t *testing.T) {
	g, err := NewGame(1, DefaultHouseRules(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if g.Phase != PhaseInit {
		t.Errorf("Phase: want init, got %s", g.Phase)
	}
	if len(g.Players) != 2 {
		t.Fatalf("players: want 2, got %d", len(g.Players))
	}
	if !g.Players[0].IsHuman || g.Players[1].IsHuman {
		t.Error("seat 0 should be human and seat 1 the computer")
	}
	if g.Players[0].Name != "Player" || g.Players[1].Name != "Computer" {
		t.Errorf("names: got %q, %q", g.Players[0].Name, g.Players[1].Name)
	}
	if len(g.DrawPile) != 108 {
		t.Errorf("draw pile: want 108, got %d", len(g.DrawPile))
	}
}

func TestNewGameLocalizedNames(t *testing.T) {
	rules := DefaultHouseRules()
	rules.Language = "cs"
	rules.NumPlayers = 4
	g, err := NewGame(1, rules, nil)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"Hráč", "Počítač 1", "Počítač 2", "Počítač 3"}
	for i, p := range g.Players {
		if p.Name != want[i] {
			t.Errorf("seat %d: want %q, got %q", i, want[i], p.Name)
		}
	}
}

func TestNewGameErrors(t *testing.T) {
	rules := DefaultHouseRules()
	if _, err := NewGame(1, rules, DefaultSeats(3)); err == nil {
		t.Error("seat count mismatch should fail")
	}
	rules.NumPlayers = 7
	if _, err := NewGame(1, rules, nil); err == nil {
		t.Error("7 players should fail validation")
	}
}

// TestNewGameDeterministic verifies the seed fixes the shuffle.
func TestNewGameDeterministic(t *testing.T) {
	a, _ := NewGame(99, DefaultHouseRules(), nil)
	b, _ := NewGame(99, DefaultHouseRules(), nil)
	if !slices.Equal(a.DrawPile, b.DrawPile) {
		t.Error("same seed produced different decks")
	}
}

// TestInitialDeal deals two players six cards each from 108.
func TestInitialDeal(t *testing.T) {
	g := newTestGame(t, DefaultHouseRules())

	if g.Phase != PhasePlaying {
		t.Fatalf("Phase: want playing, got %s", g.Phase)
	}
	for i, p := range g.Players {
		if len(p.Hand) != 6 {
			t.Errorf("player %d hand: want 6, got %d", i, len(p.Hand))
		}
	}
	if len(g.DrawPile) != 96 {
		t.Errorf("draw pile: want 96, got %d", len(g.DrawPile))
	}
	if g.CurrentHandSize != 6 || g.CurrentRound != 1 || g.SubTurn != 0 {
		t.Errorf("round state: hand %d round %d subturn %d", g.CurrentHandSize, g.CurrentRound, g.SubTurn)
	}
	if !slices.Equal(g.ScoresBefore, []int{0, 0}) {
		t.Errorf("ScoresBefore: got %v", g.ScoresBefore)
	}
	if len(g.Log) != 2 {
		t.Errorf("log: want first-player and deal lines, got %q", g.Log)
	}
}

func TestStartGameErrors(t *testing.T) {
	g, _ := NewGame(1, DefaultHouseRules(), nil)
	if err := g.StartGame(2); err == nil {
		t.Error("out-of-range first player should fail")
	}
	if err := g.StartGame(RandomSeat); err != nil {
		t.Fatal(err)
	}
	if g.FirstPlayer < 0 || g.FirstPlayer > 1 || g.CurrentPlayer != g.FirstPlayer {
		t.Errorf("random first player: first %d current %d", g.FirstPlayer, g.CurrentPlayer)
	}
	if err := g.StartGame(0); err == nil {
		t.Error("starting twice should fail")
	}
}

// TestDealRoundRobin verifies one card per player per pass, draw pile first
// from the top, then the discard pile from the bottom.
func TestDealRoundRobin(t *testing.T) {
	rules := DefaultHouseRules()
	rules.HandSize = 2
	g := newTestGame(t, rules)
	setTable(g)
	g.DrawPile = []Card{c(1, RankTwo), c(2, RankThree)}
	g.DiscardPile = []Card{c(3, RankFour), c(4, RankFive), c(5, RankSix)}

	if !g.dealCards() {
		t.Fatal("deal should succeed")
	}
	if got := []int{g.Players[0].Hand[0].ID, g.Players[1].Hand[0].ID, g.Players[0].Hand[1].ID, g.Players[1].Hand[1].ID}; !slices.Equal(got, []int{2, 1, 3, 4}) {
		t.Errorf("deal order: got %v, want [2 1 3 4]", got)
	}
	if len(g.DiscardPile) != 1 || g.DiscardPile[0].ID != 5 {
		t.Errorf("discard pile: got %v", g.DiscardPile)
	}
	if g.CurrentHandSize != 2 {
		t.Errorf("CurrentHandSize: want 2, got %d", g.CurrentHandSize)
	}
}

// TestDealShortHand stops after the last full pass.
func TestDealShortHand(t *testing.T) {
	g := newTestGame(t, DefaultHouseRules())
	setTable(g)
	g.DrawPile = []Card{c(1, RankTwo), c(2, RankTwo), c(3, RankTwo), c(4, RankTwo), c(5, RankTwo)}

	if !g.dealCards() {
		t.Fatal("deal should succeed")
	}
	if g.CurrentHandSize != 2 || len(g.Players[0].Hand) != 2 || len(g.Players[1].Hand) != 2 {
		t.Errorf("short deal: hand size %d, hands %d/%d", g.CurrentHandSize, len(g.Players[0].Hand), len(g.Players[1].Hand))
	}
	if len(g.DrawPile) != 1 {
		t.Errorf("draw pile: want 1 left, got %d", len(g.DrawPile))
	}
}

// TestDealEmptyEndsGame ends the game without dealing when fewer cards than
// players remain.
func TestDealEmptyEndsGame(t *testing.T) {
	g := newTestGame(t, DefaultHouseRules())
	setTable(g)
	g.DrawPile = []Card{c(1, RankTwo)}
	g.SubTurn = g.RoundLength() - 1

	if err := g.AdvanceTurn(); err != nil {
		t.Fatal(err)
	}
	if g.Phase != PhaseGameEnd || g.EndReason != EndEmpty {
		t.Fatalf("want gameEnd/empty, got %s/%s", g.Phase, g.EndReason)
	}
	for i, p := range g.Players {
		if len(p.Hand) != 0 {
			t.Errorf("player %d was dealt %d cards", i, len(p.Hand))
		}
	}
	if len(g.DrawPile) != 1 {
		t.Errorf("draw pile touched: %v", g.DrawPile)
	}
}

func TestAdvanceTurnRotation(t *testing.T) {
	g := newTestGame(t, DefaultHouseRules())
	for sub := 1; sub < g.RoundLength(); sub++ {
		p := g.CurrentPlayer
		if _, err := g.ApplyCommand(p, Discard{Card: g.Players[p].Hand[0].ID}); err != nil {
			t.Fatalf("sub-turn %d: %v", sub, err)
		}
		if err := g.AdvanceTurn(); err != nil {
			t.Fatal(err)
		}
		if g.SubTurn != sub || g.CurrentPlayer != sub%2 {
			t.Fatalf("after %d: subturn %d player %d", sub, g.SubTurn, g.CurrentPlayer)
		}
	}

	// Last sub-turn of the round re-deals.
	p := g.CurrentPlayer
	if _, err := g.ApplyCommand(p, Discard{Card: g.Players[p].Hand[0].ID}); err != nil {
		t.Fatal(err)
	}
	if err := g.AdvanceTurn(); err != nil {
		t.Fatal(err)
	}
	if g.CurrentRound != 2 || g.SubTurn != 0 || g.CurrentPlayer != 0 {
		t.Errorf("new round: round %d subturn %d player %d", g.CurrentRound, g.SubTurn, g.CurrentPlayer)
	}
	if len(g.Players[0].Hand) != 6 || len(g.DrawPile) != 84 || len(g.DiscardPile) != 12 {
		t.Errorf("re-deal: hand %d draw %d discard %d", len(g.Players[0].Hand), len(g.DrawPile), len(g.DiscardPile))
	}
}

// discardRound has every seat discard its first card once per sub-turn until
// the round ends.
func discardRound(t *testing.T, g *GameState) {
	t.Helper()
	round := g.CurrentRound
	for g.Phase == PhasePlaying && g.CurrentRound == round {
		p := g.CurrentPlayer
		if _, err := g.ApplyCommand(p, Discard{Card: g.Players[p].Hand[0].ID}); err != nil {
			t.Fatal(err)
		}
		if err := g.AdvanceTurn(); err != nil {
			t.Fatal(err)
		}
	}
}

// TestStalemateSecondRound ends the game at the second stagnant round, not
// the first.
func TestStalemateSecondRound(t *testing.T) {
	rules := DefaultHouseRules()
	rules.HandSize = 1
	g, _ := NewGame(1, rules, nil)
	g.DrawPile = []Card{c(1, RankTwo), c(2, RankThree), c(3, RankFour), c(4, RankFive), c(5, RankSix), c(6, RankSeven), c(7, RankEight), c(8, RankNine)}
	if err := g.StartGame(0); err != nil {
		t.Fatal(err)
	}

	discardRound(t, g)
	if g.Phase != PhasePlaying || g.StalemateCount != 1 {
		t.Fatalf("after first stagnant round: phase %s count %d", g.Phase, g.StalemateCount)
	}
	discardRound(t, g)
	if g.Phase != PhaseGameEnd || g.EndReason != EndStalemate {
		t.Fatalf("after second stagnant round: phase %s reason %s", g.Phase, g.EndReason)
	}
	if g.CurrentRound != 3 {
		t.Errorf("CurrentRound: want 3, got %d", g.CurrentRound)
	}
}

// TestStalemateResets verifies a score change or a large supply clears the
// counter.
func TestStalemateResets(t *testing.T) {
	rules := DefaultHouseRules()
	rules.HandSize = 1
	g, _ := NewGame(1, rules, nil)
	g.DrawPile = []Card{c(1, RankTwo), c(2, RankThree), c(3, RankFour), c(4, RankFive), c(5, RankSix), c(6, RankSeven)}
	if err := g.StartGame(0); err != nil {
		t.Fatal(err)
	}
	discardRound(t, g)
	if g.StalemateCount != 1 {
		t.Fatalf("count: want 1, got %d", g.StalemateCount)
	}

	g.Players[1].pushGroup(Group{c(50, RankAce), c(51, RankAce)})
	discardRound(t, g)
	if g.Phase != PhasePlaying || g.StalemateCount != 0 {
		t.Fatalf("score change: phase %s count %d", g.Phase, g.StalemateCount)
	}

	g.StalemateCount = 1
	g.Rules.StalemateCardThreshold = 0
	discardRound(t, g)
	if g.Phase != PhasePlaying || g.StalemateCount != 0 {
		t.Errorf("large supply: phase %s count %d", g.Phase, g.StalemateCount)
	}
}

func TestEndGame(t *testing.T) {
	g := newTestGame(t, DefaultHouseRules())
	calls := 0
	g.OnEnd(func(*GameState) { calls++ })

	g.EndGame(EndManualSkip)
	g.EndGame(EndStalemate)
	if calls != 1 {
		t.Errorf("OnEnd calls: want 1, got %d", calls)
	}
	if g.EndReason != EndManualSkip || !g.IsOver() {
		t.Errorf("want manual-skip, got %s", g.EndReason)
	}
	if err := g.AdvanceTurn(); ReasonOf(err) != ReasonGameNotPlaying {
		t.Errorf("AdvanceTurn after end: got %v", err)
	}
	if last := g.Log[len(g.Log)-1]; last != "Game over: skipped." {
		t.Errorf("log: got %q", last)
	}
}

func TestSnapshot(t *testing.T) {
	g := newTestGame(t, DefaultHouseRules())
	g.DiscardPile = append(g.DiscardPile, c(500, RankKing))

	v := g.Snapshot(0)
	if len(v.Players[0].Hand) != 6 || v.Players[1].Hand != nil || v.Players[1].HandSize != 6 {
		t.Errorf("viewer 0: own hand %d, opponent hand %v size %d", len(v.Players[0].Hand), v.Players[1].Hand, v.Players[1].HandSize)
	}
	if v.DiscardTop == nil || v.DiscardTop.ID != 500 || v.DrawPileSize != 96 {
		t.Errorf("piles: top %v draw %d", v.DiscardTop, v.DrawPileSize)
	}

	all := g.Snapshot(RevealAll)
	if len(all.Players[1].Hand) != 6 {
		t.Error("RevealAll should show every hand")
	}
	all.Players[0].Hand[0] = jk(999)
	if g.Players[0].Hand[0].ID == 999 {
		t.Error("snapshot shares hand storage with the game")
	}
}
