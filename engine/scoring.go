package engine

// Scores returns each player's TotalScore, by seat.
func (g *GameState) Scores() []int {
	scores := make([]int, len(g.Players))
	for i, p := range g.Players {
		scores[i] = p.TotalScore()
	}
	return scores
}

// Winners returns the seats holding the highest score. Ties return every
// tied seat in seat order; an empty slice returns nil.
func Winners(scores []int) []int {
	if len(scores) == 0 {
		return nil
	}
	best := scores[0]
	for _, s := range scores[1:] {
		best = max(best, s)
	}
	var out []int
	for i, s := range scores {
		if s == best {
			out = append(out, i)
		}
	}
	return out
}

// Winners returns the leading seats of this game.
func (g *GameState) Winners() []int { return Winners(g.Scores()) }
