package engine

// Command is one player action. The concrete types are Discard,
// TakeFromDiscard, PlayToScorePile and Steal.
type Command interface {
	// Kind is the stable name of the action, used for history records.
	Kind() string
	// CardID is the hand card the action plays.
	CardID() int
	command()
}

// Discard puts a hand card on top of the discard pile.
type Discard struct{ Card int }

// TakeFromDiscard pairs a hand card with the top of the discard pile.
type TakeFromDiscard struct{ Card int }

// PlayToScorePile completes a pledge, starts one, or extends the top group of
// the player's own pile. Extending wins over pledging unless ForceNew is set.
type PlayToScorePile struct {
	Card int
	// ForceNew is the only way to pledge a card that could extend the top group.
	ForceNew bool
}

// Steal takes the top group of Victim's pile with a matching hand card.
type Steal struct {
	Card   int
	Victim int
}

func (Discard) Kind() string         { return "discard" }
func (TakeFromDiscard) Kind() string { return "take_discard" }
func (PlayToScorePile) Kind() string { return "score_self" }
func (Steal) Kind() string           { return "score_steal" }

func (c Discard) CardID() int         { return c.Card }
func (c TakeFromDiscard) CardID() int { return c.Card }
func (c PlayToScorePile) CardID() int { return c.Card }
func (c Steal) CardID() int           { return c.Card }

func (Discard) command()         {}
func (TakeFromDiscard) command() {}
func (PlayToScorePile) command() {}
func (Steal) command()           {}

// Effect names what a successful command did.
type Effect string

const (
	EffectDiscarded       Effect = "discarded"
	EffectTookDiscard     Effect = "took_discard"
	EffectPledged         Effect = "pledged"
	EffectCompletedPledge Effect = "completed_pledge"
	EffectExtended        Effect = "extended"
	EffectRegrouped       Effect = "regrouped"
	EffectStole           Effect = "stole"
)

// Outcome describes a successfully applied command.
type Outcome struct {
	Player  int
	Command Command
	Effect  Effect
	Card    Card
	// Stolen is the value taken from the victim by a Steal.
	Stolen int
	// Message is the localized line appended to the event log.
	Message string
}

// mutation applies an already validated command.
type mutation func() Outcome

// ApplyCommand validates cmd for player and, if legal, applies it and appends
// a line to the event log. A rejected command returns an *ActionError and
// leaves the state untouched. ApplyCommand never advances the turn.
func (g *GameState) ApplyCommand(player int, cmd Command) (Outcome, error) {
	apply, err := g.plan(player, cmd)
	if err != nil {
		return Outcome{}, err
	}
	out := apply()
	out.Player = player
	out.Command = cmd
	g.Log = append(g.Log, out.Message)
	return out, nil
}

// Validate reports whether ApplyCommand would accept cmd, without applying it.
func (g *GameState) Validate(player int, cmd Command) error {
	_, err := g.plan(player, cmd)
	return err
}

func (g *GameState) plan(player int, cmd Command) (mutation, error) {
	if g.Phase != PhasePlaying {
		return nil, g.msgs.fail(ReasonGameNotPlaying, msgNotPlaying)
	}
	if player != g.CurrentPlayer {
		return nil, g.msgs.fail(ReasonNotYourTurn, msgNotYourTurn, g.Players[g.CurrentPlayer].Name)
	}
	if cmd == nil {
		return nil, g.msgs.fail(ReasonUnknownCommand, msgUnknownCommand)
	}
	p := g.Players[player]
	idx := p.FindInHand(cmd.CardID())
	if idx < 0 {
		return nil, g.msgs.fail(ReasonCardNotFound, msgCardNotFound)
	}

	switch c := cmd.(type) {
	case Discard:
		return g.planDiscard(p, idx)
	case TakeFromDiscard:
		return g.planTakeFromDiscard(p, idx)
	case PlayToScorePile:
		return g.planPlayToScorePile(p, idx, c.ForceNew)
	case Steal:
		return g.planSteal(p, idx, c.Victim)
	}
	return nil, g.msgs.fail(ReasonUnknownCommand, msgUnknownCommand)
}

// ---------------------------------------------------------------------------
// Discard
// ---------------------------------------------------------------------------

func (g *GameState) planDiscard(p *Player, idx int) (mutation, error) {
	if p.InCommitment() {
		return nil, g.msgs.fail(ReasonInCommitment, msgInCommitment)
	}
	return func() Outcome {
		c := p.removeFromHand(idx)
		g.DiscardPile = append(g.DiscardPile, c)
		return Outcome{
			Effect:  EffectDiscarded,
			Card:    c,
			Message: g.msgs.Sprintf(msgDiscarded, p.Name, g.msgs.CardName(c)),
		}
	}, nil
}

// ---------------------------------------------------------------------------
// Take from discard
// ---------------------------------------------------------------------------

func (g *GameState) planTakeFromDiscard(p *Player, idx int) (mutation, error) {
	if p.InCommitment() {
		return nil, g.msgs.fail(ReasonInCommitment, msgInCommitment)
	}
	top, ok := g.DiscardTop()
	if !ok {
		return nil, g.msgs.fail(ReasonEmptyDiscard, msgEmptyDiscard)
	}
	card := p.Hand[idx]
	switch {
	case card.IsJoker() && top.IsJoker():
		return nil, g.msgs.fail(ReasonJokerPair, msgJokerPair)
	case !card.IsJoker() && !top.IsJoker() && card.Rank != top.Rank:
		return nil, g.msgs.fail(ReasonRankMismatch, msgRankMismatch, g.msgs.CardName(card), g.msgs.CardName(top))
	}

	return func() Outcome {
		c := p.removeFromHand(idx)
		d := moveTop(&g.DiscardPile)
		group := Group{c, d}
		if d.IsJoker() {
			group = Group{d, c}
		}
		p.pushGroup(group)
		return Outcome{
			Effect:  EffectTookDiscard,
			Card:    c,
			Message: g.msgs.Sprintf(msgTookDiscard, p.Name, g.msgs.CardName(d), g.msgs.CardName(c)),
		}
	}, nil
}

// ---------------------------------------------------------------------------
// Play to own score pile
// ---------------------------------------------------------------------------

// planPlayToScorePile resolves, in order: completing a pledge; starting a
// pledge when ForceNew is set; extending the top group; starting a pledge.
// Jokers never pledge or extend.
func (g *GameState) planPlayToScorePile(p *Player, idx int, forceNew bool) (mutation, error) {
	card := p.Hand[idx]

	if rank, ok := p.CommitmentRank(); ok {
		if card.Rank != rank {
			return nil, g.msgs.fail(ReasonCommitmentRank, msgCommitmentRank, rank)
		}
		return func() Outcome {
			c := p.removeFromHand(idx)
			p.appendToTop(c)
			return Outcome{
				Effect:  EffectCompletedPledge,
				Card:    c,
				Message: g.msgs.Sprintf(msgCompletedPledge, p.Name, c.Rank),
			}
		}, nil
	}

	pledge := canPledge(p, card)
	extend := canExtend(p, card)
	switch {
	case pledge && (forceNew || !extend):
		return func() Outcome {
			c := p.removeFromHand(idx)
			p.pushGroup(Group{c})
			return Outcome{
				Effect:  EffectPledged,
				Card:    c,
				Message: g.msgs.Sprintf(msgPledged, p.Name, g.msgs.CardName(c)),
			}
		}, nil
	case extend:
		return g.planExtend(p, idx)
	}
	return nil, g.msgs.fail(ReasonNoPair, msgNoPair)
}

// canPledge reports whether card can start a pledge: it is not a joker and the
// rest of the hand holds another card of its rank.
func canPledge(p *Player, card Card) bool {
	return !card.IsJoker() && p.holdsRank(card.Rank, card.ID)
}

// canExtend reports whether card can be added to the player's top group.
func canExtend(p *Player, card Card) bool {
	if card.IsJoker() {
		return false
	}
	r, ok := p.TopGroup().Rank()
	return ok && r == card.Rank
}

func (g *GameState) planExtend(p *Player, idx int) (mutation, error) {
	card := p.Hand[idx]
	grown := append(p.TopGroup().clone(), card)
	if len(grown) < 4 {
		return func() Outcome {
			c := p.removeFromHand(idx)
			p.appendToTop(c)
			return Outcome{
				Effect:  EffectExtended,
				Card:    c,
				Message: g.msgs.Sprintf(msgExtended, p.Name, g.msgs.CardName(c)),
			}
		}, nil
	}

	groups, err := SplitIntoGroups(grown)
	if err != nil {
		return nil, g.msgs.fail(ReasonGroupingFault, msgGroupingFault)
	}
	return func() Outcome {
		c := p.removeFromHand(idx)
		p.popGroup()
		p.pushGroup(groups...)
		return Outcome{
			Effect:  EffectRegrouped,
			Card:    c,
			Message: g.msgs.Sprintf(msgRegrouped, p.Name, g.msgs.CardName(c)),
		}
	}, nil
}

// ---------------------------------------------------------------------------
// Steal
// ---------------------------------------------------------------------------

// planSteal takes the victim's top group with a card of its rank, or with a
// joker against any group holding a non-joker. When the thief's own top group
// has the same rank it is merged in, and the whole bag is regrouped.
func (g *GameState) planSteal(p *Player, idx, victim int) (mutation, error) {
	if p.InCommitment() {
		return nil, g.msgs.fail(ReasonInCommitment, msgInCommitment)
	}
	if victim < 0 || victim >= len(g.Players) || victim == p.Index {
		return nil, g.msgs.fail(ReasonInvalidVictim, msgInvalidVictim)
	}
	v := g.Players[victim]
	if v.PileLen() == 0 {
		return nil, g.msgs.fail(ReasonVictimEmpty, msgVictimEmpty, v.Name)
	}
	if v.InCommitment() {
		return nil, g.msgs.fail(ReasonVictimCommitted, msgVictimCommitted, v.Name)
	}

	card := p.Hand[idx]
	target := v.TopGroup()
	rank, ok := target.Rank()
	if !ok || (!card.IsJoker() && card.Rank != rank) {
		return nil, g.msgs.fail(ReasonRankMismatch, msgRankMismatch, g.msgs.CardName(card), g.describeGroup(target))
	}

	bag := append(Group{card}, target...)
	own := p.TopGroup()
	ownRank, ownOK := own.Rank()
	merge := ownOK && ownRank == rank
	if merge {
		bag = append(bag, own...)
	}
	groups, err := SplitIntoGroups(bag)
	if err != nil {
		return nil, g.msgs.fail(ReasonGroupingFault, msgGroupingFault)
	}

	return func() Outcome {
		c := p.removeFromHand(idx)
		stolen := v.popGroup()
		if merge {
			p.popGroup()
		}
		p.pushGroup(groups...)
		return Outcome{
			Effect:  EffectStole,
			Card:    c,
			Stolen:  stolen.Value(),
			Message: g.msgs.Sprintf(msgStole, p.Name, stolen.Value(), v.Name, g.msgs.CardName(c)),
		}
	}, nil
}

func (g *GameState) describeGroup(grp Group) string {
	if r, ok := grp.Rank(); ok {
		return r.String()
	}
	return g.msgs.Sprintf(msgJoker)
}
