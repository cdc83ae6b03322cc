package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/jason-s-yu/thief/service/internal/game"
)

// humanSeat is the seat played from the terminal.
const humanSeat = 0

// printer renders table events as text. Events arrive from the table's lock
// and from AI timers, so writes are serialized.
type printer struct {
	mu    sync.Mutex
	out   io.Writer
	human bool
	state *game.SyncState // latest private state of the human seat
}

func newPrinter(out io.Writer, human bool) *printer {
	return &printer{out: out, human: human}
}

func (p *printer) broadcast(ev game.GameEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch ev.Type {
	case game.EventGameStart:
		fmt.Fprintf(p.out, "\n=== Game %v ===\n", ev.Payload["gameNumber"])
	case game.EventGameRoundDealt, game.EventPlayerDiscard, game.EventPlayerTakeDiscard,
		game.EventPlayerScore, game.EventPlayerSteal:
		fmt.Fprintln(p.out, ev.Message)
	case game.EventGameEnd:
		fmt.Fprintln(p.out, ev.Message)
		fmt.Fprintf(p.out, "Scores: %v\n", ev.Payload["scores"])
		if p.human {
			fmt.Fprint(p.out, "(next, q)\n> ")
		}
	case game.EventSeriesEnd:
		fmt.Fprintf(p.out, "Series totals: %v\n", ev.Payload["totals"])
	case game.EventGamePlayerTurn:
		if p.human && ev.Seat != nil && *ev.Seat == humanSeat && p.state != nil {
			p.writeState(*p.state)
			fmt.Fprint(p.out, "> ")
		}
	}
}

func (p *printer) private(seat int, ev game.GameEvent) {
	if seat != humanSeat {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	switch ev.Type {
	case game.EventPrivateSyncState:
		p.state = ev.State
	case game.EventPrivateActionFail:
		fmt.Fprintf(p.out, "! %s\n> ", ev.Message)
	}
}

// showState prints the latest state of the human seat.
func (p *printer) showState() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != nil {
		p.writeState(*p.state)
	}
}

func (p *printer) writeState(s game.SyncState) {
	for _, pl := range s.Players {
		marker := " "
		if pl.IsCurrentTurn {
			marker = "*"
		}
		pledge := ""
		if pl.InCommitment {
			pledge = " (pledged)"
		}
		fmt.Fprintf(p.out, "%s [%d] %-12s %3d pts  pile: %s%s\n", marker, pl.Seat, pl.Name, pl.TotalScore, formatPile(pl.ScorePile), pledge)
	}
	top := "-"
	if s.DiscardTop != nil {
		top = formatCard(*s.DiscardTop)
	}
	fmt.Fprintf(p.out, "  draw %d  discard %d (top %s)\n", s.DrawPileSize, s.DiscardPileSize, top)
	if s.Players != nil && s.Players[humanSeat].Hand != nil {
		cards := make([]string, len(s.Players[humanSeat].Hand))
		for i, c := range s.Players[humanSeat].Hand {
			cards[i] = formatCard(c)
		}
		fmt.Fprintf(p.out, "  hand: %s\n", strings.Join(cards, " "))
	}
}

func formatCard(c game.SyncCard) string {
	return fmt.Sprintf("%s%s#%d", c.Rank, c.Suit, c.ID)
}

func formatPile(pile [][]game.SyncCard) string {
	if len(pile) == 0 {
		return "-"
	}
	groups := make([]string, len(pile))
	for i, grp := range pile {
		cards := make([]string, len(grp))
		for j, c := range grp {
			cards[j] = c.Rank + c.Suit
		}
		groups[i] = "[" + strings.Join(cards, " ") + "]"
	}
	return strings.Join(groups, " ")
}

// notice prints a message for the terminal user.
func (p *printer) notice(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "%s\n> ", msg)
}
