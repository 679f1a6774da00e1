package server

import (
	"top-ten/internal/game"
)

// roundSnapshot is the JSON view of a round. Item names stay hidden until
// guessed unless reveal is set.
func roundSnapshot(round game.Round, reveal bool) map[string]any {
	winners := make(map[int]bool, len(round.WinnerIDs))
	for _, id := range round.WinnerIDs {
		winners[id] = true
	}
	return map[string]any{
		"type":          "snapshot",
		"round_id":      round.ID,
		"group_id":      round.GroupID,
		"round_number":  round.Number,
		"status":        string(round.Status),
		"draft_type":    string(round.DraftType),
		"judge_id":      round.JudgeID,
		"list_id":       round.ListID,
		"list_title":    round.ListTitle,
		"target":        round.Target(),
		"guessed_count": len(round.Guessed),
		"players":       buildPlayers(round, winners),
		"standings":     buildStandings(round),
		"items":         buildItems(round, reveal),
		"guessed":       buildGuessed(round),
		"winner_ids":    append([]int{}, round.WinnerIDs...),
	}
}

func buildPlayers(round game.Round, winners map[int]bool) []map[string]any {
	players := make([]map[string]any, 0, len(round.Players))
	for _, player := range round.Players {
		players = append(players, map[string]any{
			"id":             player.ID,
			"name":           player.Name,
			"draft_position": player.DraftPosition,
			"score":          player.Score,
			"is_judge":       player.ID == round.JudgeID,
			"is_winner":      winners[player.ID],
		})
	}
	return players
}

func buildStandings(round game.Round) []map[string]any {
	standings := make([]map[string]any, 0, len(round.Players))
	for _, player := range game.Standings(round) {
		if player.ID == round.JudgeID {
			continue
		}
		standings = append(standings, map[string]any{
			"id":    player.ID,
			"name":  player.Name,
			"score": player.Score,
		})
	}
	return standings
}

func buildItems(round game.Round, reveal bool) []map[string]any {
	guessedBy := make(map[uint]game.GuessedItem, len(round.Guessed))
	for _, guess := range round.Guessed {
		guessedBy[guess.ItemID] = guess
	}
	items := make([]map[string]any, 0, len(round.Items))
	for _, item := range round.Items {
		guess, guessed := guessedBy[item.ID]
		entry := map[string]any{
			"id":      item.ID,
			"rank":    item.Rank,
			"guessed": guessed,
		}
		if guessed || reveal {
			entry["name"] = item.Name
			entry["details"] = item.Details
			entry["statistic"] = item.Statistic
		}
		if guessed {
			entry["player_id"] = guess.PlayerID
			entry["player_name"] = guess.PlayerName
		}
		items = append(items, entry)
	}
	return items
}

func buildGuessed(round game.Round) []map[string]any {
	guessed := make([]map[string]any, 0, len(round.Guessed))
	for _, guess := range round.Guessed {
		guessed = append(guessed, map[string]any{
			"item_id":     guess.ItemID,
			"item_name":   guess.ItemName,
			"item_rank":   guess.ItemRank,
			"player_id":   guess.PlayerID,
			"player_name": guess.PlayerName,
		})
	}
	return guessed
}
