package server

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"top-ten/internal/db"
	"top-ten/internal/game"
	"top-ten/internal/metrics"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var errRoundNotPersisted = errors.New("round not persisted")

// roundMirror writes round state to storage. Group and round creation are
// awaited by callers because they hand out database ids; everything else is
// applied effect by effect.
type roundMirror interface {
	CreateGroup(ctx context.Context, group Group) (uint, map[int]uint, error)
	CreateRound(ctx context.Context, groupDBID uint, round game.Round) (uint, error)
	Apply(ctx context.Context, groupDBID uint, round game.Round, effect game.Effect) error
}

type EventPayload struct {
	RoundID   string `json:"round_id,omitempty"`
	PlayerID  int    `json:"player_id,omitempty"`
	ItemID    uint   `json:"item_id,omitempty"`
	ListID    uint   `json:"list_id,omitempty"`
	Score     int    `json:"score,omitempty"`
	WinnerID  int    `json:"winner_id,omitempty"`
	DraftType string `json:"draft_type,omitempty"`
	Status    string `json:"status,omitempty"`
}

type dbMirror struct {
	db *gorm.DB
}

func newDBMirror(conn *gorm.DB) *dbMirror {
	return &dbMirror{db: conn}
}

// CreateGroup inserts the group and then all of its players in one batch.
// The inserts are not wrapped in a transaction.
func (m *dbMirror) CreateGroup(ctx context.Context, group Group) (uint, map[int]uint, error) {
	if m.db == nil {
		return 0, nil, nil
	}
	defer metrics.RecordDBOperation("create", "game_groups", time.Now())
	record := db.GameGroup{
		Name:      group.Name,
		CreatedBy: group.CreatedBy,
	}
	if err := m.db.WithContext(ctx).Create(&record).Error; err != nil {
		return 0, nil, err
	}
	players := make([]db.Player, 0, len(group.Players))
	for _, player := range group.Players {
		players = append(players, db.Player{GroupID: record.ID, Name: player.Name})
	}
	if err := m.db.WithContext(ctx).Create(&players).Error; err != nil {
		return record.ID, nil, err
	}
	ids := make(map[int]uint, len(players))
	for i, player := range group.Players {
		ids[player.ID] = players[i].ID
	}
	return record.ID, ids, nil
}

// CreateRound inserts the round row and its round players.
func (m *dbMirror) CreateRound(ctx context.Context, groupDBID uint, round game.Round) (uint, error) {
	if m.db == nil {
		return 0, nil
	}
	if groupDBID == 0 {
		return 0, errors.New("group not persisted")
	}
	defer metrics.RecordDBOperation("create", "game_rounds", time.Now())
	judge, ok := round.Judge()
	if !ok || judge.DBID == 0 {
		return 0, errors.New("judge not persisted")
	}
	record := db.GameRound{
		GroupID:     groupDBID,
		JudgeID:     judge.DBID,
		RoundNumber: round.Number,
		Status:      string(round.Status),
		DraftType:   string(round.DraftType),
	}
	if err := m.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, errors.New("round number already used for this group")
		}
		return 0, err
	}
	roundPlayers := make([]db.RoundPlayer, 0, len(round.Players))
	for _, player := range round.Players {
		if player.DBID == 0 {
			continue
		}
		roundPlayers = append(roundPlayers, db.RoundPlayer{
			RoundID:       record.ID,
			PlayerID:      player.DBID,
			DraftPosition: player.DraftPosition,
			Score:         player.Score,
		})
	}
	if len(roundPlayers) > 0 {
		if err := m.db.WithContext(ctx).Create(&roundPlayers).Error; err != nil {
			return record.ID, err
		}
	}
	round.DBID = record.ID
	return record.ID, m.persistEvent(ctx, groupDBID, round, game.Effect{
		Kind:     game.EffectRoundCreated,
		RoundID:  round.ID,
		PlayerID: round.JudgeID,
		Status:   round.Status,
	})
}

func (m *dbMirror) Apply(ctx context.Context, groupDBID uint, round game.Round, effect game.Effect) error {
	if m.db == nil {
		return nil
	}
	if round.DBID == 0 {
		return errRoundNotPersisted
	}
	defer metrics.RecordDBOperation(string(effect.Kind), "game_rounds", time.Now())
	tx := m.db.WithContext(ctx)
	switch effect.Kind {
	case game.EffectRoundCreated:
		// Written by CreateRound.
		return nil
	case game.EffectListAssigned:
		if err := tx.Model(&db.GameRound{}).Where("id = ?", round.DBID).Update("list_id", effect.ListID).Error; err != nil {
			return err
		}
	case game.EffectRoundStarted:
		if err := tx.Model(&db.GameRound{}).Where("id = ?", round.DBID).Updates(map[string]any{
			"status":     string(effect.Status),
			"draft_type": string(effect.DraftType),
		}).Error; err != nil {
			return err
		}
	case game.EffectGuessRecorded:
		playerDBID, err := playerDBID(round, effect.PlayerID)
		if err != nil {
			return err
		}
		record := db.Guess{
			RoundID:    round.DBID,
			PlayerID:   playerDBID,
			ListItemID: effect.ItemID,
			IsCorrect:  true,
		}
		if err := tx.Create(&record).Error; err != nil {
			if isUniqueViolation(err) {
				return nil
			}
			return err
		}
	case game.EffectScoreUpdated:
		playerDBID, err := playerDBID(round, effect.PlayerID)
		if err != nil {
			return err
		}
		if err := tx.Model(&db.RoundPlayer{}).
			Where("round_id = ? AND player_id = ?", round.DBID, playerDBID).
			Update("score", effect.Score).Error; err != nil {
			return err
		}
	case game.EffectRoundCompleted:
		updates := map[string]any{
			"status":    string(game.StatusCompleted),
			"winner_id": nil,
		}
		if effect.WinnerID != 0 {
			winnerDBID, err := playerDBID(round, effect.WinnerID)
			if err != nil {
				return err
			}
			updates["winner_id"] = winnerDBID
		}
		if err := tx.Model(&db.GameRound{}).Where("id = ?", round.DBID).Updates(updates).Error; err != nil {
			return err
		}
	case game.EffectWinRecorded:
		winnerDBID, err := playerDBID(round, effect.PlayerID)
		if err != nil {
			return err
		}
		if err := tx.Model(&db.Player{}).
			Where("id = ?", winnerDBID).
			UpdateColumn("total_wins", gorm.Expr("total_wins + ?", 1)).Error; err != nil {
			return err
		}
	default:
		return errors.New("unknown effect " + string(effect.Kind))
	}
	return m.persistEvent(ctx, groupDBID, round, effect)
}

func (m *dbMirror) persistEvent(ctx context.Context, groupDBID uint, round game.Round, effect game.Effect) error {
	if m.db == nil {
		return nil
	}
	if groupDBID == 0 {
		return errors.New("group not persisted")
	}
	data, err := json.Marshal(EventPayload{
		RoundID:   round.ID,
		PlayerID:  effect.PlayerID,
		ItemID:    effect.ItemID,
		ListID:    effect.ListID,
		Score:     effect.Score,
		WinnerID:  effect.WinnerID,
		DraftType: string(effect.DraftType),
		Status:    string(effect.Status),
	})
	if err != nil {
		return err
	}
	event := db.Event{
		GroupID: groupDBID,
		Type:    string(effect.Kind),
		Payload: datatypes.JSON(data),
	}
	if round.DBID != 0 {
		id := round.DBID
		event.RoundID = &id
	}
	if effect.PlayerID != 0 {
		if player, ok := round.Player(effect.PlayerID); ok && player.DBID != 0 {
			id := player.DBID
			event.PlayerID = &id
		}
	}
	return m.db.WithContext(ctx).Create(&event).Error
}

func playerDBID(round game.Round, playerID int) (uint, error) {
	player, ok := round.Player(playerID)
	if !ok || player.DBID == 0 {
		return 0, errors.New("player not persisted")
	}
	return player.DBID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
