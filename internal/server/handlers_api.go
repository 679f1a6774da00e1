package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"top-ten/internal/game"
	"top-ten/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

func (s *Server) handleSession(c *gin.Context) {
	_, sess, ok := s.currentSession(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"group_id":       sess.GroupID,
		"round_id":       sess.RoundID,
		"is_judge":       sess.IsJudge,
		"category_index": sess.CategoryIndex,
	})
}

func (s *Server) handleCreateGroup(c *gin.Context) {
	var req createGroupRequest
	tooFew := rosterMessage(errTooFewPlayers, s.cfg)
	if !bindJSON(c, &req, bindMessages{
		"Players": {"required": tooFew, "min": tooFew},
		"Name": {
			"required": "All players must have names",
			"name":     "Player names may only use letters, numbers and simple punctuation",
		},
	}, "invalid players") {
		return
	}
	groupName, err := validateGroupName(req.Name)
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	names, judgeIndex, err := validateRoster(req.Players, s.cfg)
	if err != nil {
		writeError(c, http.StatusBadRequest, rosterMessage(err, s.cfg))
		return
	}
	sessionID, sess, ok := s.currentSession(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	ctx := c.Request.Context()
	group := s.store.CreateGroup(groupName, sess.UserID, names)
	groupDBID, playerDBIDs, err := s.mirror.CreateGroup(ctx, group)
	if err != nil {
		s.store.DeleteGroup(group.ID)
		log.Printf("group create failed error=%v", err)
		writeError(c, http.StatusInternalServerError, "failed to create game")
		return
	}
	if groupDBID != 0 {
		group, err = s.store.UpdateGroup(group.ID, func(group *Group) error {
			group.DBID = groupDBID
			for i := range group.Players {
				group.Players[i].DBID = playerDBIDs[group.Players[i].ID]
			}
			return nil
		})
		if err != nil {
			writeError(c, http.StatusInternalServerError, "failed to create game")
			return
		}
		group.ID = s.store.UpdateGroupID(group.ID, fmt.Sprintf("group-%d", groupDBID))
	}

	roster := make([]game.Player, 0, len(group.Players))
	for _, player := range group.Players {
		roster = append(roster, game.Player{ID: player.ID, DBID: player.DBID, Name: player.Name})
	}
	roundSession := game.Session{GroupID: group.ID, RoundID: s.store.NewRoundID(), IsJudge: true}
	round, effects, err := game.NewRound(roundSession, 1, group.Players[judgeIndex].ID, roster, s.cfg.MaxGuessesPerRound)
	if err != nil {
		s.store.DeleteGroup(group.ID)
		writeRoundError(c, err)
		return
	}
	round = s.storeNewRound(ctx, round, effects)
	s.rememberRound(sessionID, round)
	log.Printf("group created group_id=%s round_id=%s players=%d", group.ID, round.ID, len(group.Players))
	c.JSON(http.StatusCreated, roundSnapshot(round, true))
}

func (s *Server) handleGetGroup(c *gin.Context) {
	ctx := c.Request.Context()
	group, err := s.loadGroup(ctx, c.Param("groupID"))
	if err != nil {
		if errors.Is(err, errGroupNotFound) {
			writeError(c, http.StatusNotFound, "group not found")
			return
		}
		writeError(c, http.StatusInternalServerError, "failed to load group")
		return
	}
	if group.CreatedBy != c.GetString(ctxUserID) {
		writeError(c, http.StatusNotFound, "group not found")
		return
	}
	// Newest rounds first.
	ids := make([]string, 0, len(group.RoundIDs))
	for i := len(group.RoundIDs) - 1; i >= 0; i-- {
		ids = append(ids, group.RoundIDs[i])
	}
	ids, pagination := paginate(c, ids, "/api/groups/"+group.ID, 10, 50)
	rounds := make([]RoundSummary, 0, len(ids))
	for _, id := range ids {
		summary := RoundSummary{ID: id, GroupID: group.ID}
		if round, ok := s.store.GetRound(id); ok {
			summary.Number = round.Number
			summary.Status = string(round.Status)
			summary.Players = len(round.Players)
		}
		rounds = append(rounds, summary)
	}

	players := make([]gin.H, 0, len(group.Players))
	for _, player := range group.Players {
		players = append(players, gin.H{
			"id":         player.ID,
			"name":       player.Name,
			"total_wins": player.TotalWins,
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         group.ID,
		"name":       group.Name,
		"players":    players,
		"rounds":     rounds,
		"pagination": pagination,
	})
}

func (s *Server) handleGetRound(c *gin.Context) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return
	}
	round, err := s.loadRound(c.Request.Context(), uri.RoundID)
	if err != nil {
		writeLoadRoundError(c, err)
		return
	}
	group, err := s.loadGroup(c.Request.Context(), round.GroupID)
	if err != nil {
		writeLoadRoundError(c, err)
		return
	}
	if group.CreatedBy != c.GetString(ctxUserID) {
		writeError(c, http.StatusNotFound, "round not found")
		return
	}
	_, sess, _ := s.currentSession(c)
	reveal := sess.IsJudge && sess.GroupID == round.GroupID
	c.JSON(http.StatusOK, roundSnapshot(round, reveal))
}

func (s *Server) handleAssignList(c *gin.Context) {
	sessionID, round, ok := s.judgeRound(c)
	if !ok {
		return
	}
	var req assignListRequest
	if !bindJSON(c, &req, bindMessages{"ListID": {"required": "Please choose a list"}}, "") {
		return
	}
	ctx := c.Request.Context()
	list, err := s.catalog.List(ctx, req.ListID)
	if err != nil {
		writeCatalogError(c, err, "failed to load list")
		return
	}
	items := roundItems(list)
	next, effects, err := s.store.UpdateRound(round.ID, func(round game.Round) (game.Round, []game.Effect, error) {
		next, effects, err := game.AssignList(round, list.ID, items)
		if err == nil {
			next.ListTitle = list.Title
		}
		return next, effects, err
	})
	if err != nil {
		writeRoundError(c, err)
		return
	}
	s.recordEffects(ctx, next, effects)
	s.rememberRound(sessionID, next)
	log.Printf("list assigned round_id=%s list_id=%d items=%d", next.ID, list.ID, len(items))
	s.broadcastRound(next)
	c.JSON(http.StatusOK, roundSnapshot(next, true))
}

func (s *Server) handleStartRound(c *gin.Context) {
	_, round, ok := s.judgeRound(c)
	if !ok {
		return
	}
	var req startRoundRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req, bindMessages{
			"DraftType": {"oneof": "Draft type must be serpentine or fixed"},
		}, "") {
			return
		}
	}
	next, effects, err := s.store.UpdateRound(round.ID, func(round game.Round) (game.Round, []game.Effect, error) {
		return game.Start(round, game.DraftType(req.DraftType))
	})
	if err != nil {
		writeRoundError(c, err)
		return
	}
	s.recordEffects(c.Request.Context(), next, effects)
	log.Printf("round started round_id=%s draft_type=%s", next.ID, next.DraftType)
	s.broadcastRound(next)
	c.JSON(http.StatusOK, roundSnapshot(next, true))
}

func (s *Server) handleGuess(c *gin.Context) {
	_, round, ok := s.judgeRound(c)
	if !ok {
		return
	}
	var req guessRequest
	if !bindJSON(c, &req, bindMessages{
		"ItemID":   {"required": "Choose an item"},
		"PlayerID": {"required": "Choose a player"},
	}, "") {
		return
	}
	next, effects, err := s.store.UpdateRound(round.ID, func(round game.Round) (game.Round, []game.Effect, error) {
		return game.AssignGuess(round, req.ItemID, req.PlayerID)
	})
	if err != nil {
		recordRejectedGuess(err)
		writeRoundError(c, err)
		return
	}
	for _, effect := range effects {
		if effect.Kind == game.EffectWinRecorded {
			s.store.RecordWin(next.GroupID, effect.PlayerID)
		}
	}
	s.recordEffects(c.Request.Context(), next, effects)
	log.Printf("guess recorded round_id=%s item_id=%d player_id=%d", next.ID, req.ItemID, req.PlayerID)
	if next.Status == game.StatusCompleted {
		log.Printf("round completed round_id=%s winners=%v", next.ID, next.WinnerIDs)
	}
	s.broadcastRound(next)
	c.JSON(http.StatusOK, roundSnapshot(next, true))
}

func (s *Server) handleNextRound(c *gin.Context) {
	sessionID, round, ok := s.judgeRound(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if existing, ok := s.followingRound(round); ok {
		s.rememberRound(sessionID, existing)
		c.JSON(http.StatusOK, roundSnapshot(existing, true))
		return
	}
	next, effects, err := game.NextRound(round, game.Session{
		GroupID: round.GroupID,
		RoundID: s.store.NewRoundID(),
		IsJudge: true,
	})
	if err != nil {
		writeRoundError(c, err)
		return
	}
	next = s.storeNewRound(ctx, next, effects)
	s.rememberRound(sessionID, next)
	log.Printf("round created round_id=%s group_id=%s round_number=%d judge_id=%d", next.ID, next.GroupID, next.Number, next.JudgeID)
	c.JSON(http.StatusCreated, roundSnapshot(next, true))
}

func (s *Server) handleRoundQR(c *gin.Context) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return
	}
	round, err := s.loadRound(c.Request.Context(), uri.RoundID)
	if err != nil {
		writeLoadRoundError(c, err)
		return
	}
	png, err := qrcode.Encode(s.boardURL(round.ID), qrcode.Medium, qrSize)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "qr generation failed")
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// judgeRound loads the round named in the path and checks that the caller's
// session is the judge of its group.
func (s *Server) judgeRound(c *gin.Context) (string, game.Round, bool) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return "", game.Round{}, false
	}
	sessionID, sess, ok := s.currentSession(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "authentication required")
		return "", game.Round{}, false
	}
	round, err := s.loadRound(c.Request.Context(), uri.RoundID)
	if err != nil {
		writeLoadRoundError(c, err)
		return "", game.Round{}, false
	}
	if !sess.IsJudge || sess.GroupID != round.GroupID {
		writeError(c, http.StatusForbidden, "only the judge can change this round")
		return "", game.Round{}, false
	}
	return sessionID, round, true
}

// storeNewRound keeps a freshly built round and waits for its database row,
// adopting the database id when one is returned.
func (s *Server) storeNewRound(ctx context.Context, round game.Round, effects []game.Effect) game.Round {
	s.store.PutRound(round)
	for _, effect := range effects {
		metrics.RoundTransitions.WithLabelValues(string(effect.Kind)).Inc()
	}
	roundDBID, err := s.mirror.CreateRound(ctx, s.groupDBID(round.GroupID), round)
	if err != nil {
		metrics.MirrorFailures.WithLabelValues(string(game.EffectRoundCreated)).Inc()
		log.Printf("mirror failed round_id=%s effect=%s error=%v", round.ID, game.EffectRoundCreated, err)
	}
	id := round.ID
	if roundDBID != 0 {
		id = s.store.SetRoundDBID(round.ID, roundDBID)
	}
	metrics.ActiveRounds.Set(float64(s.store.RoundCount()))
	if stored, ok := s.store.GetRound(id); ok {
		return stored
	}
	return round
}

// followingRound finds a round already created after round in its group.
func (s *Server) followingRound(round game.Round) (game.Round, bool) {
	group, ok := s.store.GetGroup(round.GroupID)
	if !ok {
		return game.Round{}, false
	}
	for _, id := range group.RoundIDs {
		candidate, ok := s.store.GetRound(id)
		if ok && candidate.Number == round.Number+1 {
			return candidate, true
		}
	}
	return game.Round{}, false
}

func (s *Server) rememberRound(sessionID string, round game.Round) {
	if _, err := s.sessions.Update(sessionID, func(data *sessionData) {
		data.GroupID = round.GroupID
		data.RoundID = round.ID
		data.IsJudge = true
	}); err != nil {
		log.Printf("session update failed session_id=%s error=%v", sessionID, err)
	}
}

func (s *Server) boardURL(roundID string) string {
	return s.cfg.PublicBaseURL + "/board/" + roundID
}

func writeLoadRoundError(c *gin.Context, err error) {
	if errors.Is(err, errRoundNotFound) || errors.Is(err, errGroupNotFound) {
		writeError(c, http.StatusNotFound, "round not found")
		return
	}
	log.Printf("round load failed error=%v", err)
	writeError(c, http.StatusInternalServerError, "failed to load round")
}
