package game

import "sort"

// Winners returns the non-judge players holding the top score, in draft
// order. Ties are all returned.
func Winners(r Round) []Player {
	best := -1
	for _, player := range r.Players {
		if player.ID == r.JudgeID {
			continue
		}
		if player.Score > best {
			best = player.Score
		}
	}
	winners := make([]Player, 0)
	if best < 0 {
		return winners
	}
	for _, player := range orderByDraft(r.Players) {
		if player.ID != r.JudgeID && player.Score == best {
			winners = append(winners, player)
		}
	}
	return winners
}

// NextJudge returns the player after judgeID in draft order, wrapping to the
// first seat. An unknown judge yields the first seat.
func NextJudge(players []Player, judgeID int) int {
	if len(players) == 0 {
		return 0
	}
	ordered := orderByDraft(players)
	for i, player := range ordered {
		if player.ID == judgeID {
			return ordered[(i+1)%len(ordered)].ID
		}
	}
	return ordered[0].ID
}

// Standings returns players sorted by score, highest first, draft order
// breaking ties.
func Standings(r Round) []Player {
	out := orderByDraft(r.Players)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
