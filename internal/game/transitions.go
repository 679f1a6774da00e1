package game

import "sort"

// AssignList attaches a list to a round in setup. Items are kept in rank order.
func AssignList(r Round, listID uint, items []Item) (Round, []Effect, error) {
	if r.Status != StatusSetup {
		return r, nil, ErrNotSetup
	}
	if listID == 0 {
		return r, nil, ErrNoList
	}
	next := r.Clone()
	next.ListID = listID
	next.Items = append([]Item(nil), items...)
	sort.SliceStable(next.Items, func(i, j int) bool {
		return next.Items[i].Rank < next.Items[j].Rank
	})
	return next, []Effect{{
		Kind:    EffectListAssigned,
		RoundID: next.ID,
		ListID:  listID,
	}}, nil
}

// Start moves a round from setup to playing.
func Start(r Round, draftType DraftType) (Round, []Effect, error) {
	if r.Status != StatusSetup {
		return r, nil, ErrNotSetup
	}
	if r.ListID == 0 {
		return r, nil, ErrNoList
	}
	if len(r.Items) == 0 {
		return r, nil, ErrEmptyList
	}
	parsed, err := ParseDraftType(string(draftType))
	if err != nil {
		return r, nil, err
	}
	next := r.Clone()
	next.Status = StatusPlaying
	next.DraftType = parsed
	return next, []Effect{{
		Kind:      EffectRoundStarted,
		RoundID:   next.ID,
		DraftType: parsed,
		Status:    StatusPlaying,
	}}, nil
}

// AssignGuess credits itemID to playerID. The round completes on the guess
// that brings the guessed count to Target.
func AssignGuess(r Round, itemID uint, playerID int) (Round, []Effect, error) {
	if r.Status != StatusPlaying {
		return r, nil, ErrNotPlaying
	}
	item, ok := r.Item(itemID)
	if !ok {
		return r, nil, ErrUnknownItem
	}
	if r.IsGuessed(itemID) {
		return r, nil, ErrAlreadyGuessed
	}
	if playerID == r.JudgeID {
		return r, nil, ErrJudgeCannotScore
	}
	player, ok := r.Player(playerID)
	if !ok {
		return r, nil, ErrUnknownPlayer
	}

	next := r.Clone()
	next.Guessed = append(next.Guessed, GuessedItem{
		PlayerID:   player.ID,
		PlayerName: player.Name,
		ItemID:     item.ID,
		ItemName:   item.Name,
		ItemRank:   item.Rank,
	})
	score := 0
	for i := range next.Players {
		if next.Players[i].ID == playerID {
			next.Players[i].Score++
			score = next.Players[i].Score
			break
		}
	}
	effects := []Effect{
		{Kind: EffectGuessRecorded, RoundID: next.ID, PlayerID: playerID, ItemID: itemID},
		{Kind: EffectScoreUpdated, RoundID: next.ID, PlayerID: playerID, Score: score},
	}
	if len(next.Guessed) >= next.Target() {
		completed, completion := complete(next)
		return completed, append(effects, completion...), nil
	}
	return next, effects, nil
}

func complete(r Round) (Round, []Effect) {
	r.Status = StatusCompleted
	winners := Winners(r)
	r.WinnerIDs = make([]int, 0, len(winners))
	for _, winner := range winners {
		r.WinnerIDs = append(r.WinnerIDs, winner.ID)
	}
	winnerID := 0
	if len(winners) == 1 {
		winnerID = winners[0].ID
	}
	effects := []Effect{{
		Kind:     EffectRoundCompleted,
		RoundID:  r.ID,
		WinnerID: winnerID,
		Status:   StatusCompleted,
	}}
	if winnerID != 0 {
		effects = append(effects, Effect{Kind: EffectWinRecorded, RoundID: r.ID, PlayerID: winnerID})
	}
	return r, effects
}

// NextRound opens the following round for the same roster with the judge
// rotated one seat along the draft order.
func NextRound(r Round, sess Session) (Round, []Effect, error) {
	if r.Status != StatusCompleted {
		return r, nil, ErrNotCompleted
	}
	if sess.GroupID == "" {
		sess.GroupID = r.GroupID
	}
	return NewRound(sess, r.Number+1, NextJudge(r.Players, r.JudgeID), r.Players, r.MaxGuesses)
}
