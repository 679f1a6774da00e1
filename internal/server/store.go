package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"top-ten/internal/game"
)

var (
	errRoundNotFound = errors.New("round not found")
	errGroupNotFound = errors.New("group not found")
)

type Store struct {
	mu           sync.Mutex
	nextGroupID  int
	nextRoundID  int
	nextPlayerID int
	groups       map[string]*Group
	rounds       map[string]*roundEntry
}

func NewStore() *Store {
	return &Store{
		nextGroupID:  1,
		nextRoundID:  1,
		nextPlayerID: 1,
		groups:       make(map[string]*Group),
		rounds:       make(map[string]*roundEntry),
	}
}

// CreateGroup registers a group and gives every player a store-wide id.
func (s *Store) CreateGroup(name, createdBy string, playerNames []string) Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.freeID("group", &s.nextGroupID, func(id string) bool {
		_, taken := s.groups[id]
		return taken
	})
	group := &Group{
		ID:        id,
		Name:      name,
		CreatedBy: createdBy,
		Players:   make([]GroupPlayer, 0, len(playerNames)),
		CreatedAt: timeNowUTC(),
	}
	for _, playerName := range playerNames {
		group.Players = append(group.Players, GroupPlayer{ID: s.nextPlayerID, Name: playerName})
		s.nextPlayerID++
	}
	s.groups[id] = group
	return cloneGroup(group)
}

func (s *Store) GetGroup(id string) (Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return Group{}, false
	}
	return cloneGroup(group), true
}

func (s *Store) UpdateGroup(id string, update func(group *Group) error) (Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return Group{}, errGroupNotFound
	}
	if err := update(group); err != nil {
		return Group{}, err
	}
	return cloneGroup(group), nil
}

// DeleteGroup drops a group and its rounds.
func (s *Store) DeleteGroup(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return
	}
	for _, roundID := range group.RoundIDs {
		delete(s.rounds, roundID)
	}
	delete(s.groups, id)
}

// UpdateGroupID renames a group once its database id is known and rewrites
// the group id held by its rounds. The resulting id is returned.
func (s *Store) UpdateGroupID(oldID, newID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[oldID]
	if !ok || oldID == newID {
		return oldID
	}
	if _, taken := s.groups[newID]; taken {
		return oldID
	}
	delete(s.groups, oldID)
	group.ID = newID
	s.groups[newID] = group
	for _, entry := range s.rounds {
		if entry.round.GroupID == oldID {
			entry.round.GroupID = newID
		}
	}
	bumpCounter(&s.nextGroupID, newID)
	return newID
}

// NewRoundID reserves an unused round id.
func (s *Store) NewRoundID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.freeID("round", &s.nextRoundID, func(id string) bool {
		_, taken := s.rounds[id]
		return taken
	})
}

// PutRound stores a round and records it in its group's history.
func (s *Store) PutRound(round game.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[round.ID] = &roundEntry{round: round.Clone(), updatedAt: timeNowUTC()}
	if group, ok := s.groups[round.GroupID]; ok && !containsID(group.RoundIDs, round.ID) {
		group.RoundIDs = append(group.RoundIDs, round.ID)
	}
}

func (s *Store) GetRound(id string) (game.Round, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.rounds[id]
	if !ok {
		return game.Round{}, false
	}
	return entry.round.Clone(), true
}

// UpdateRound applies a transition to the stored round under the store lock.
// The stored round is only replaced when the transition succeeds.
func (s *Store) UpdateRound(id string, transition func(round game.Round) (game.Round, []game.Effect, error)) (game.Round, []game.Effect, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.rounds[id]
	if !ok {
		return game.Round{}, nil, errRoundNotFound
	}
	next, effects, err := transition(entry.round.Clone())
	if err != nil {
		return entry.round.Clone(), nil, err
	}
	entry.round = next.Clone()
	entry.updatedAt = timeNowUTC()
	return next, effects, nil
}

// SetRoundDBID records the database id of a round and renames the round to
// match. The resulting id is returned.
func (s *Store) SetRoundDBID(id string, roundDBID uint) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.rounds[id]
	if !ok || roundDBID == 0 {
		return id
	}
	entry.round.DBID = roundDBID
	newID := fmt.Sprintf("round-%d", roundDBID)
	if newID == id {
		return id
	}
	if _, taken := s.rounds[newID]; taken {
		return id
	}
	delete(s.rounds, id)
	entry.round.ID = newID
	s.rounds[newID] = entry
	if group, ok := s.groups[entry.round.GroupID]; ok {
		for i := range group.RoundIDs {
			if group.RoundIDs[i] == id {
				group.RoundIDs[i] = newID
			}
		}
	}
	bumpCounter(&s.nextRoundID, newID)
	return newID
}

// RecordWin bumps the in-memory win counter of a group player.
func (s *Store) RecordWin(groupID string, playerID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[groupID]
	if !ok {
		return
	}
	for i := range group.Players {
		if group.Players[i].ID == playerID {
			group.Players[i].TotalWins++
			return
		}
	}
}

// RestoreGroup inserts a group loaded from the database unless one with the
// same id is already held.
func (s *Store) RestoreGroup(group Group) Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.groups[group.ID]; ok {
		return cloneGroup(existing)
	}
	stored := cloneGroup(&group)
	s.groups[group.ID] = &stored
	bumpCounter(&s.nextGroupID, group.ID)
	for _, player := range group.Players {
		if player.ID >= s.nextPlayerID {
			s.nextPlayerID = player.ID + 1
		}
	}
	return cloneGroup(&stored)
}

func (s *Store) RestoreRound(round game.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds[round.ID]; ok {
		return errors.New("round already loaded")
	}
	s.rounds[round.ID] = &roundEntry{round: round.Clone(), updatedAt: timeNowUTC()}
	if group, ok := s.groups[round.GroupID]; ok && !containsID(group.RoundIDs, round.ID) {
		group.RoundIDs = append(group.RoundIDs, round.ID)
	}
	bumpCounter(&s.nextRoundID, round.ID)
	for _, player := range round.Players {
		if player.ID >= s.nextPlayerID {
			s.nextPlayerID = player.ID + 1
		}
	}
	return nil
}

// PruneRounds drops completed rounds untouched since cutoff, and groups left
// without any round in memory.
func (s *Store) PruneRounds(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, entry := range s.rounds {
		if entry.round.Status == game.StatusCompleted && entry.updatedAt.Before(cutoff) {
			delete(s.rounds, id)
			removed++
		}
	}
	for id, group := range s.groups {
		live := false
		for _, roundID := range group.RoundIDs {
			if _, ok := s.rounds[roundID]; ok {
				live = true
				break
			}
		}
		if !live && group.CreatedAt.Before(cutoff) {
			delete(s.groups, id)
		}
	}
	return removed
}

func (s *Store) RoundCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rounds)
}

func (s *Store) freeID(prefix string, counter *int, taken func(id string) bool) string {
	for {
		id := fmt.Sprintf("%s-%d", prefix, *counter)
		*counter++
		if !taken(id) {
			return id
		}
	}
}

func bumpCounter(counter *int, id string) {
	if value := idSortKey(id); value >= *counter {
		*counter = value + 1
	}
}

func idSortKey(id string) int {
	parts := strings.Split(id, "-")
	if len(parts) < 2 {
		return 0
	}
	value, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return value
}

func containsID(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func cloneGroup(group *Group) Group {
	out := *group
	out.Players = append([]GroupPlayer(nil), group.Players...)
	out.RoundIDs = append([]string(nil), group.RoundIDs...)
	return out
}

func timeNowUTC() time.Time {
	return time.Now().UTC()
}
