package agent

import (
	engine "github.com/jason-s-yu/thief/engine"
)

// Candidate is one move the computer could make, with its heuristic gain.
type Candidate struct {
	Category Category
	Command  engine.Command
	Score    int
}

// Candidates lists every move of the given categories that player could make
// against victim, scored for tier. Only moves the engine would accept are
// returned. Commitment is not handled here; see Brain.Decide.
//
// Scores:
//   - commit: both cards of the pair (TierOptimal counts only the pledged card)
//   - take_discard: the hand card plus the discard top
//   - steal: the victim's top group less the card spent on it
//   - extend: the card added
//   - discard: minus the card's value
func Candidates(g *engine.GameState, player, victim int, tier Tier, cats ...Category) []Candidate {
	want := make(map[Category]bool, len(cats))
	for _, c := range cats {
		want[c] = true
	}
	p := g.Players[player]
	var out []Candidate
	add := func(cat Category, cmd engine.Command, score int) {
		if g.Validate(player, cmd) == nil {
			out = append(out, Candidate{Category: cat, Command: cmd, Score: score})
		}
	}

	if want[CatCommit] {
		seen := map[engine.Rank]int{}
		for _, c := range p.Hand {
			if c.IsJoker() {
				continue
			}
			first, ok := seen[c.Rank]
			if !ok {
				seen[c.Rank] = c.ID
				continue
			}
			if first < 0 {
				continue
			}
			score := c.Value() * 2
			if tier == TierOptimal {
				score = c.Value()
			}
			add(CatCommit, engine.PlayToScorePile{Card: first, ForceNew: true}, score)
			seen[c.Rank] = -1
		}
	}

	if want[CatTakeDiscard] {
		if top, ok := g.DiscardTop(); ok {
			for _, c := range p.Hand {
				add(CatTakeDiscard, engine.TakeFromDiscard{Card: c.ID}, c.Value()+top.Value())
			}
		}
	}

	if want[CatSteal] && victim != player && victim >= 0 && victim < len(g.Players) {
		if target := g.Players[victim].TopGroup(); target != nil {
			for _, c := range p.Hand {
				add(CatSteal, engine.Steal{Card: c.ID, Victim: victim}, target.Value()-c.Value())
			}
		}
	}

	if want[CatExtend] {
		if r, ok := p.TopGroup().Rank(); ok {
			for _, c := range p.Hand {
				if !c.IsJoker() && c.Rank == r {
					add(CatExtend, engine.PlayToScorePile{Card: c.ID}, c.Value())
				}
			}
		}
	}

	if want[CatDiscard] {
		for _, c := range p.Hand {
			add(CatDiscard, engine.Discard{Card: c.ID}, -c.Value())
		}
	}
	return out
}

// best returns the candidates sharing the highest score.
func best(cands []Candidate) []Candidate {
	var out []Candidate
	for _, c := range cands {
		switch {
		case len(out) == 0 || c.Score > out[0].Score:
			out = append(out[:0], c)
		case c.Score == out[0].Score:
			out = append(out, c)
		}
	}
	return out
}
