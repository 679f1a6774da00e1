package server

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"top-ten/internal/catalog"
	"top-ten/internal/db"
	"top-ten/internal/game"

	"gorm.io/gorm"
)

// loadRound returns the in-memory round, restoring it from the database when
// it has been pruned or the process restarted.
func (s *Server) loadRound(ctx context.Context, id string) (game.Round, error) {
	if round, ok := s.store.GetRound(id); ok {
		return round, nil
	}
	if s.db == nil {
		return game.Round{}, errRoundNotFound
	}
	dbID, ok := parseDBID(id, "round")
	if !ok {
		return game.Round{}, errRoundNotFound
	}
	return s.restoreRoundFromDB(ctx, dbID)
}

func (s *Server) loadGroup(ctx context.Context, id string) (Group, error) {
	if group, ok := s.store.GetGroup(id); ok {
		return group, nil
	}
	if s.db == nil {
		return Group{}, errGroupNotFound
	}
	dbID, ok := parseDBID(id, "group")
	if !ok {
		return Group{}, errGroupNotFound
	}
	return s.restoreGroupFromDB(ctx, dbID)
}

func (s *Server) restoreGroupFromDB(ctx context.Context, dbID uint) (Group, error) {
	var record db.GameGroup
	err := s.db.WithContext(ctx).
		Preload("Players", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		Preload("Rounds", func(tx *gorm.DB) *gorm.DB { return tx.Order("round_number asc") }).
		First(&record, dbID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Group{}, errGroupNotFound
		}
		return Group{}, err
	}
	group := Group{
		ID:        fmt.Sprintf("group-%d", record.ID),
		DBID:      record.ID,
		Name:      record.Name,
		CreatedBy: record.CreatedBy,
		Players:   make([]GroupPlayer, 0, len(record.Players)),
		RoundIDs:  make([]string, 0, len(record.Rounds)),
		CreatedAt: record.CreatedAt,
	}
	for _, player := range record.Players {
		group.Players = append(group.Players, GroupPlayer{
			ID:        int(player.ID),
			DBID:      player.ID,
			Name:      player.Name,
			TotalWins: player.TotalWins,
		})
	}
	for _, round := range record.Rounds {
		group.RoundIDs = append(group.RoundIDs, fmt.Sprintf("round-%d", round.ID))
	}
	return s.store.RestoreGroup(group), nil
}

func (s *Server) restoreRoundFromDB(ctx context.Context, dbID uint) (game.Round, error) {
	var record db.GameRound
	err := s.db.WithContext(ctx).
		Preload("Players", func(tx *gorm.DB) *gorm.DB { return tx.Order("draft_position asc") }).
		Preload("Players.Player").
		Preload("Guesses", func(tx *gorm.DB) *gorm.DB { return tx.Order("id asc") }).
		First(&record, dbID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return game.Round{}, errRoundNotFound
		}
		return game.Round{}, err
	}
	group, err := s.loadGroup(ctx, fmt.Sprintf("group-%d", record.GroupID))
	if err != nil {
		return game.Round{}, err
	}
	round, err := s.buildRound(ctx, group, record)
	if err != nil {
		return game.Round{}, err
	}
	if err := s.store.RestoreRound(round); err != nil {
		if existing, ok := s.store.GetRound(round.ID); ok {
			return existing, nil
		}
		return game.Round{}, err
	}
	return round, nil
}

func (s *Server) buildRound(ctx context.Context, group Group, record db.GameRound) (game.Round, error) {
	status, err := game.ParseStatus(record.Status)
	if err != nil {
		return game.Round{}, err
	}
	draftType, err := game.ParseDraftType(record.DraftType)
	if err != nil {
		return game.Round{}, err
	}
	playerIDs := make(map[uint]int, len(group.Players))
	for _, player := range group.Players {
		playerIDs[player.DBID] = player.ID
	}
	memoryID := func(dbID uint) int {
		if id, ok := playerIDs[dbID]; ok {
			return id
		}
		return int(dbID)
	}

	round := game.Round{
		ID:         fmt.Sprintf("round-%d", record.ID),
		DBID:       record.ID,
		GroupID:    group.ID,
		Number:     record.RoundNumber,
		JudgeID:    memoryID(record.JudgeID),
		Status:     status,
		DraftType:  draftType,
		MaxGuesses: s.cfg.MaxGuessesPerRound,
		Players:    make([]game.Player, 0, len(record.Players)),
	}
	for _, rp := range record.Players {
		round.Players = append(round.Players, game.Player{
			ID:            memoryID(rp.PlayerID),
			DBID:          rp.PlayerID,
			Name:          rp.Player.Name,
			DraftPosition: rp.DraftPosition,
			Score:         rp.Score,
		})
	}
	if record.ListID != nil {
		list, err := s.catalog.List(ctx, *record.ListID)
		if err != nil && !errors.Is(err, catalog.ErrNotFound) {
			return game.Round{}, err
		}
		round.ListID = *record.ListID
		round.ListTitle = list.Title
		round.Items = roundItems(list)
	}
	for _, guess := range record.Guesses {
		player, _ := round.Player(memoryID(guess.PlayerID))
		item, _ := round.Item(guess.ListItemID)
		round.Guessed = append(round.Guessed, game.GuessedItem{
			PlayerID:   player.ID,
			PlayerName: player.Name,
			ItemID:     guess.ListItemID,
			ItemName:   item.Name,
			ItemRank:   item.Rank,
		})
	}
	if round.Status == game.StatusCompleted {
		for _, winner := range game.Winners(round) {
			round.WinnerIDs = append(round.WinnerIDs, winner.ID)
		}
	}
	return round, nil
}

// roundItems converts the named items of a list into playable round items.
// Unnamed placeholders never count toward a round's target.
func roundItems(list catalog.List) []game.Item {
	items := make([]game.Item, 0, len(list.Items))
	for _, item := range list.Items {
		if item.Name == "" {
			continue
		}
		items = append(items, game.Item{
			ID:        item.ID,
			Rank:      item.Rank,
			Name:      item.Name,
			Details:   item.Details,
			Statistic: item.Statistic,
		})
	}
	return items
}

func parseDBID(id, prefix string) (uint, bool) {
	raw, ok := strings.CutPrefix(strings.TrimSpace(id), prefix+"-")
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		return 0, false
	}
	return uint(value), true
}
