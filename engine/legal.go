package engine

// LegalCommands returns every command player could apply right now, grouped
// by hand card in hand order. It returns nil when it is not player's turn or
// the game is not being played.
//
// PlayToScorePile with ForceNew is listed only when it differs from the plain
// form, i.e. when the card could both start a pledge and extend the top group.
func (g *GameState) LegalCommands(player int) []Command {
	if g.Phase != PhasePlaying || player != g.CurrentPlayer {
		return nil
	}
	p := g.Players[player]

	var out []Command
	try := func(cmd Command) {
		if _, err := g.plan(player, cmd); err == nil {
			out = append(out, cmd)
		}
	}
	for _, c := range p.Hand {
		try(Discard{Card: c.ID})
		try(TakeFromDiscard{Card: c.ID})
		try(PlayToScorePile{Card: c.ID})
		if !p.InCommitment() && canPledge(p, c) && canExtend(p, c) {
			try(PlayToScorePile{Card: c.ID, ForceNew: true})
		}
		for v := range g.Players {
			if v != player {
				try(Steal{Card: c.ID, Victim: v})
			}
		}
	}
	return out
}
