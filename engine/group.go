package engine

import "errors"

// ErrGroupingFault is returned by SplitIntoGroups when the input holds more
// jokers than the split can place without putting two in one group.
var ErrGroupingFault = errors.New("grouping fault: more jokers than groups")

// Group is a stack of same-rank cards (jokers wild) on a score pile.
// Index 0 is the bottom card.
type Group []Card

// Value sums the values of the cards in the group.
func (g Group) Value() int { return CardValues(g) }

// Rank returns the rank of the first non-joker card. ok is false for an
// empty or all-joker group.
func (g Group) Rank() (r Rank, ok bool) {
	for _, c := range g {
		if !c.IsJoker() {
			return c.Rank, true
		}
	}
	return 0, false
}

// Jokers counts the jokers in the group.
func (g Group) Jokers() int {
	n := 0
	for _, c := range g {
		if c.IsJoker() {
			n++
		}
	}
	return n
}

// AllJokers reports whether every card in a non-empty group is a joker.
func (g Group) AllJokers() bool {
	_, ok := g.Rank()
	return len(g) > 0 && !ok
}

func (g Group) clone() Group {
	out := make(Group, len(g))
	copy(out, g)
	return out
}

// SplitIntoGroups partitions a bag of cards into resting groups, ordered
// bottom to top. Non-jokers pair off in input order. An odd non-joker count is
// absorbed by pairing the first card with a joker when one is available,
// otherwise by a 3-card bottom group. Leftover jokers go to the front of the
// lowest groups that do not already hold a joker.
//
// The input slice is not modified. Every input card appears in exactly one
// output group; if that is impossible without doubling jokers up,
// ErrGroupingFault is returned and no groups.
func SplitIntoGroups(cards []Card) ([]Group, error) {
	var jokers, normals []Card
	for _, c := range cards {
		if c.IsJoker() {
			jokers = append(jokers, c)
		} else {
			normals = append(normals, c)
		}
	}

	var groups []Group
	next := 0
	if len(normals)%2 == 1 {
		if len(jokers) > 0 {
			groups = append(groups, Group{jokers[0], normals[0]})
			jokers = jokers[1:]
			next = 1
		} else {
			next = min(3, len(normals))
			groups = append(groups, append(Group(nil), normals[:next]...))
		}
	}
	for ; next+1 < len(normals); next += 2 {
		groups = append(groups, Group{normals[next], normals[next+1]})
	}

	if len(groups) == 0 {
		groups = append(groups, Group{})
	}

	for i := 0; i < len(groups) && len(jokers) > 0; i++ {
		if groups[i].Jokers() > 0 {
			continue
		}
		groups[i] = append(Group{jokers[0]}, groups[i]...)
		jokers = jokers[1:]
	}
	if len(jokers) > 0 {
		return nil, ErrGroupingFault
	}
	return groups, nil
}
