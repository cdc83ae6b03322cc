package engine

import (
	"slices"
	"testing"
)

func TestWinners(t *testing.T) {
	tests := []struct {
		scores []int
		want   []int
	}{
		{nil, nil},
		{[]int{10, 5}, []int{0}},
		{[]int{10, 25, 0}, []int{1}},
		{[]int{30, 10, 30, 5}, []int{0, 2}},
		{[]int{0, 0}, []int{0, 1}},
	}
	for _, tt := range tests {
		if got := Winners(tt.scores); !slices.Equal(got, tt.want) {
			t.Errorf("Winners(%v) = %v, want %v", tt.scores, got, tt.want)
		}
	}
}

func TestGameScores(t *testing.T) {
	g := newTestGame(t, DefaultHouseRules())
	setTable(g)
	g.Players[1].pushGroup(Group{jk(1), c(2, RankAce)})
	if got := g.Scores(); !slices.Equal(got, []int{0, 70}) {
		t.Errorf("Scores: got %v", got)
	}
	if got := g.Winners(); !slices.Equal(got, []int{1}) {
		t.Errorf("Winners: got %v", got)
	}
}
