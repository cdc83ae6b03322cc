package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jason-s-yu/thief/engine"
	"github.com/jason-s-yu/thief/service/internal/game"
)

const helpText = `commands:
  d ID        discard a card
  t ID        pair a card with the discard top
  p ID        play a card to your score pile
  n ID        start a new pledge with a card
  s ID SEAT   steal SEAT's top group with a card
  hand        show the table
  skip        end the current game
  next        start the next game of the series
  q           quit`

type verb string

const (
	verbDiscard verb = "d"
	verbTake    verb = "t"
	verbPlay    verb = "p"
	verbPledge  verb = "n"
	verbSteal   verb = "s"
	verbHand    verb = "hand"
	verbSkip    verb = "skip"
	verbNext    verb = "next"
	verbHelp    verb = "help"
	verbQuit    verb = "q"
)

// input is one parsed terminal command.
type input struct {
	verb   verb
	card   int
	victim int
}

// parseInput parses a terminal line. Blank lines parse as help.
func parseInput(line string) (input, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return input{verb: verbHelp}, nil
	}
	in := input{verb: verb(fields[0])}
	args := fields[1:]
	want := 0
	switch in.verb {
	case verbDiscard, verbTake, verbPlay, verbPledge:
		want = 1
	case verbSteal:
		want = 2
	case verbHand, verbSkip, verbNext, verbHelp, verbQuit:
	case "quit", "exit":
		in.verb = verbQuit
	case "?":
		in.verb = verbHelp
	default:
		return input{}, fmt.Errorf("unknown command %q", fields[0])
	}
	if len(args) != want {
		return input{}, fmt.Errorf("%s takes %d argument(s)", in.verb, want)
	}
	if want >= 1 {
		id, err := strconv.Atoi(strings.TrimPrefix(args[0], "#"))
		if err != nil {
			return input{}, fmt.Errorf("card id %q: %w", args[0], err)
		}
		in.card = id
	}
	if want == 2 {
		seat, err := strconv.Atoi(args[1])
		if err != nil {
			return input{}, fmt.Errorf("seat %q: %w", args[1], err)
		}
		in.victim = seat
	}
	return in, nil
}

// playInteractive reads commands for the human seat until the input ends,
// the user quits or ctx is cancelled.
func playInteractive(ctx context.Context, g *game.ThiefGame, p *printer, r io.Reader) error {
	fmt.Fprintln(p.out, helpText)
	if err := g.Start(); err != nil {
		return err
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			in, err := parseInput(line)
			if err != nil {
				p.notice(err.Error())
				continue
			}
			if in.verb == verbQuit {
				return nil
			}
			if err := execute(g, p, in); err != nil {
				var ae *engine.ActionError
				if !errors.As(err, &ae) {
					p.notice(err.Error())
				}
			}
		}
	}
}

// execute runs one command. Rule rejections are reported by the table itself.
func execute(g *game.ThiefGame, p *printer, in input) error {
	switch in.verb {
	case verbDiscard:
		return g.AttemptDiscard(humanSeat, in.card)
	case verbTake:
		return g.AttemptTakeFromDiscard(humanSeat, in.card)
	case verbPlay:
		return g.AttemptPlayToScorePile(humanSeat, in.card, false)
	case verbPledge:
		return g.AttemptPlayToScorePile(humanSeat, in.card, true)
	case verbSteal:
		return g.AttemptSteal(humanSeat, in.card, in.victim)
	case verbHand:
		p.showState()
	case verbSkip:
		return g.SkipGame()
	case verbNext:
		return g.NextGame()
	case verbHelp:
		p.notice(helpText)
	}
	return nil
}
