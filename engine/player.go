package engine

// Player holds one seat's hand and score pile.
//
// The score pile is private: every mutation goes through pushGroup, popGroup
// or appendToTop, each of which recomputes the cached total and commitment
// flag, so TotalScore and InCommitment always agree with the pile.
type Player struct {
	Index   int
	IsHuman bool
	Name    string
	Hand    []Card

	scorePile    []Group
	totalScore   int
	inCommitment bool
}

func newPlayer(index int, isHuman bool, name string) *Player {
	return &Player{Index: index, IsHuman: isHuman, Name: name}
}

// TotalScore returns the summed value of every card on the score pile.
func (p *Player) TotalScore() int { return p.totalScore }

// InCommitment reports whether the top group is a lone pledge card.
func (p *Player) InCommitment() bool { return p.inCommitment }

// ScorePile returns a deep copy of the score pile, bottom group first.
func (p *Player) ScorePile() []Group {
	out := make([]Group, len(p.scorePile))
	for i, g := range p.scorePile {
		out[i] = g.clone()
	}
	return out
}

// PileLen returns the number of groups on the score pile.
func (p *Player) PileLen() int { return len(p.scorePile) }

// TopGroup returns the top group of the score pile, or nil when it is empty.
// The returned group must not be modified.
func (p *Player) TopGroup() Group {
	if len(p.scorePile) == 0 {
		return nil
	}
	return p.scorePile[len(p.scorePile)-1]
}

// CommitmentRank returns the rank of the pledge card when in commitment.
func (p *Player) CommitmentRank() (Rank, bool) {
	if !p.inCommitment {
		return 0, false
	}
	return p.TopGroup()[0].Rank, true
}

// ---------------------------------------------------------------------------
// Score pile mutation
// ---------------------------------------------------------------------------

func (p *Player) recompute() {
	total := 0
	for _, g := range p.scorePile {
		total += g.Value()
	}
	p.totalScore = total
	n := len(p.scorePile)
	p.inCommitment = n > 0 && len(p.scorePile[n-1]) == 1
}

// SetScorePile replaces the score pile with a copy of groups, bottom first.
// It is meant for loading a position; play mutates the pile only through
// commands.
func (p *Player) SetScorePile(groups []Group) {
	p.scorePile = make([]Group, len(groups))
	for i, g := range groups {
		p.scorePile[i] = g.clone()
	}
	p.recompute()
}

func (p *Player) pushGroup(groups ...Group) {
	for _, g := range groups {
		p.scorePile = append(p.scorePile, g)
	}
	p.recompute()
}

func (p *Player) popGroup() Group {
	n := len(p.scorePile)
	if n == 0 {
		return nil
	}
	top := p.scorePile[n-1]
	p.scorePile = p.scorePile[:n-1]
	p.recompute()
	return top
}

func (p *Player) appendToTop(c Card) {
	n := len(p.scorePile)
	if n == 0 {
		return
	}
	p.scorePile[n-1] = append(p.scorePile[n-1], c)
	p.recompute()
}

// ---------------------------------------------------------------------------
// Hand helpers
// ---------------------------------------------------------------------------

// FindInHand returns the position of the card with the given ID, or -1.
func (p *Player) FindInHand(cardID int) int {
	for i, c := range p.Hand {
		if c.ID == cardID {
			return i
		}
	}
	return -1
}

// removeFromHand removes and returns the card at position i.
func (p *Player) removeFromHand(i int) Card {
	c := p.Hand[i]
	p.Hand = append(p.Hand[:i], p.Hand[i+1:]...)
	return c
}

// holdsRank reports whether the hand holds a card of rank r other than the
// card with ID exceptID.
func (p *Player) holdsRank(r Rank, exceptID int) bool {
	for _, c := range p.Hand {
		if c.ID != exceptID && c.Rank == r {
			return true
		}
	}
	return false
}
