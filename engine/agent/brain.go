package agent

import (
	"math/rand/v2"

	engine "github.com/jason-s-yu/thief/engine"
)

// Brain picks one command per computer turn. A Brain is not safe for
// concurrent use; the game controller serializes turns.
type Brain struct {
	cfg Config
	rng *rand.Rand
}

// NewBrain returns a Brain for cfg drawing randomness from rng.
func NewBrain(cfg Config, rng *rand.Rand) (*Brain, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Brain{cfg: cfg, rng: rng}, nil
}

// Config returns the brain's settings.
func (b *Brain) Config() Config { return b.cfg }

// Decide returns the command player should apply now. The victim considered
// for steals is the next seat. Decide returns nil only when player holds no
// cards or it is not player's turn.
func (b *Brain) Decide(g *engine.GameState, player int) engine.Command {
	if g.Phase != engine.PhasePlaying || player != g.CurrentPlayer {
		return nil
	}
	p := g.Players[player]
	if len(p.Hand) == 0 {
		return nil
	}
	victim := g.NextPlayer(player)

	if rank, ok := p.CommitmentRank(); ok {
		for _, c := range p.Hand {
			if c.Rank == rank {
				return engine.PlayToScorePile{Card: c.ID}
			}
		}
		return b.cheapestDiscard(g, player)
	}

	switch b.cfg.Tier {
	case TierEasy:
		return b.pick(Candidates(g, player, victim, b.cfg.Tier, CatCommit, CatTakeDiscard, CatDiscard))
	case TierMedium:
		cats := []Category{CatCommit, CatTakeDiscard, CatDiscard}
		if b.rng.Float64() < b.cfg.StealProbability {
			cats = append(cats, CatSteal)
		}
		return b.pick(Candidates(g, player, victim, b.cfg.Tier, cats...))
	}
	return b.decideOptimal(g, player, victim)
}

// decideOptimal compares the best steal with the best scoring move and takes
// the larger gain, preferring the scoring move on a tie. With no positive gain
// available it discards the cheapest card.
func (b *Brain) decideOptimal(g *engine.GameState, player, victim int) engine.Command {
	steals := best(Candidates(g, player, victim, TierOptimal, CatSteal))
	gains := best(Candidates(g, player, victim, TierOptimal, CatCommit, CatTakeDiscard, CatExtend))

	stealOK := len(steals) > 0 && steals[0].Score > 0
	gainOK := len(gains) > 0 && gains[0].Score > 0
	switch {
	case stealOK && (!gainOK || steals[0].Score > gains[0].Score):
		return b.choose(steals)
	case gainOK:
		return b.choose(gains)
	}
	return b.cheapestDiscard(g, player)
}

func (b *Brain) cheapestDiscard(g *engine.GameState, player int) engine.Command {
	p := g.Players[player]
	low := p.Hand[0].Value()
	for _, c := range p.Hand[1:] {
		low = min(low, c.Value())
	}
	var ties []engine.Command
	for _, c := range p.Hand {
		if c.Value() == low {
			ties = append(ties, engine.Discard{Card: c.ID})
		}
	}
	return ties[b.rng.IntN(len(ties))]
}

// pick chooses uniformly among the highest-scoring candidates.
func (b *Brain) pick(cands []Candidate) engine.Command {
	return b.choose(best(cands))
}

func (b *Brain) choose(top []Candidate) engine.Command {
	if len(top) == 0 {
		return nil
	}
	return top[b.rng.IntN(len(top))].Command
}
