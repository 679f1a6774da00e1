// Package game holds the round state machine: one Round aggregate that owns
// its roster, list items and guessed items, and pure transition functions that
// return the next Round together with the effects to mirror to storage.
package game

import (
	"errors"
	"sort"
	"strings"
)

type Status string

const (
	StatusSetup     Status = "setup"
	StatusPlaying   Status = "playing"
	StatusCompleted Status = "completed"
)

// statusInProgress is how older rows spell StatusPlaying.
const statusInProgress = "in_progress"

type DraftType string

const (
	DraftSerpentine DraftType = "serpentine"
	DraftFixed      DraftType = "fixed"
)

// DefaultMaxGuesses caps how many items a round plays, whatever the list length.
const DefaultMaxGuesses = 10

var (
	ErrNotSetup          = errors.New("round is not in setup")
	ErrNotPlaying        = errors.New("round is not in progress")
	ErrNotCompleted      = errors.New("round is not completed")
	ErrNoList            = errors.New("no list assigned")
	ErrEmptyList         = errors.New("list has no items")
	ErrAlreadyGuessed    = errors.New("item already guessed")
	ErrJudgeCannotScore  = errors.New("judge cannot be credited with a guess")
	ErrUnknownItem       = errors.New("item is not on this list")
	ErrUnknownPlayer     = errors.New("player is not in this round")
	ErrJudgeNotInRoster  = errors.New("judge must be one of the players")
	ErrRosterTooSmall    = errors.New("round needs a judge and at least one guesser")
	ErrDuplicatePlayer   = errors.New("player appears twice in the roster")
	ErrInvalidDraftType  = errors.New("draft type must be serpentine or fixed")
	ErrInvalidStatus     = errors.New("unknown round status")
	ErrMissingRoundID    = errors.New("session has no round id")
	ErrInvalidRoundCount = errors.New("round number must be positive")
)

// Session is the client context a round is created under: which group and
// round the caller is looking at and whether the caller is the judge.
type Session struct {
	GroupID string
	RoundID string
	IsJudge bool
}

type Player struct {
	ID            int
	DBID          uint
	Name          string
	DraftPosition int
	Score         int
}

type Item struct {
	ID        uint
	Rank      int
	Name      string
	Details   string
	Statistic string
}

type GuessedItem struct {
	PlayerID   int
	PlayerName string
	ItemID     uint
	ItemName   string
	ItemRank   int
}

type Round struct {
	ID         string
	DBID       uint
	GroupID    string
	Number     int
	JudgeID    int
	Status     Status
	DraftType  DraftType
	ListID     uint
	ListTitle  string
	Items      []Item
	Players    []Player
	Guessed    []GuessedItem
	WinnerIDs  []int
	MaxGuesses int
}

func ParseStatus(raw string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case string(StatusSetup), "":
		return StatusSetup, nil
	case string(StatusPlaying), statusInProgress:
		return StatusPlaying, nil
	case string(StatusCompleted):
		return StatusCompleted, nil
	default:
		return "", ErrInvalidStatus
	}
}

// ParseDraftType defaults an empty value to serpentine.
func ParseDraftType(raw string) (DraftType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(DraftSerpentine):
		return DraftSerpentine, nil
	case string(DraftFixed):
		return DraftFixed, nil
	default:
		return "", ErrInvalidDraftType
	}
}

// NewRound builds a round in setup. The roster keeps its draft order (by
// DraftPosition when set, otherwise slice order) and is renumbered 1..N.
func NewRound(sess Session, number int, judgeID int, roster []Player, maxGuesses int) (Round, []Effect, error) {
	if sess.RoundID == "" {
		return Round{}, nil, ErrMissingRoundID
	}
	if number <= 0 {
		return Round{}, nil, ErrInvalidRoundCount
	}
	if len(roster) < 2 {
		return Round{}, nil, ErrRosterTooSmall
	}
	players := orderByDraft(roster)
	seen := make(map[int]struct{}, len(players))
	judgeFound := false
	for i := range players {
		if _, dup := seen[players[i].ID]; dup {
			return Round{}, nil, ErrDuplicatePlayer
		}
		seen[players[i].ID] = struct{}{}
		players[i].DraftPosition = i + 1
		players[i].Score = 0
		if players[i].ID == judgeID {
			judgeFound = true
		}
	}
	if !judgeFound {
		return Round{}, nil, ErrJudgeNotInRoster
	}
	if maxGuesses <= 0 {
		maxGuesses = DefaultMaxGuesses
	}
	round := Round{
		ID:         sess.RoundID,
		GroupID:    sess.GroupID,
		Number:     number,
		JudgeID:    judgeID,
		Status:     StatusSetup,
		DraftType:  DraftSerpentine,
		Players:    players,
		MaxGuesses: maxGuesses,
	}
	return round, []Effect{{
		Kind:     EffectRoundCreated,
		RoundID:  round.ID,
		PlayerID: judgeID,
		Status:   StatusSetup,
	}}, nil
}

// Clone returns a copy that shares no slices with r.
func (r Round) Clone() Round {
	out := r
	out.Items = append([]Item(nil), r.Items...)
	out.Players = append([]Player(nil), r.Players...)
	out.Guessed = append([]GuessedItem(nil), r.Guessed...)
	out.WinnerIDs = append([]int(nil), r.WinnerIDs...)
	return out
}

// Target is the number of guesses that completes the round.
func (r Round) Target() int {
	limit := r.MaxGuesses
	if limit <= 0 {
		limit = DefaultMaxGuesses
	}
	if len(r.Items) < limit {
		return len(r.Items)
	}
	return limit
}

func (r Round) Judge() (Player, bool) {
	return r.Player(r.JudgeID)
}

func (r Round) Player(id int) (Player, bool) {
	for _, player := range r.Players {
		if player.ID == id {
			return player, true
		}
	}
	return Player{}, false
}

func (r Round) Item(id uint) (Item, bool) {
	for _, item := range r.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

func (r Round) IsGuessed(itemID uint) bool {
	for _, guessed := range r.Guessed {
		if guessed.ItemID == itemID {
			return true
		}
	}
	return false
}

func orderByDraft(roster []Player) []Player {
	players := append([]Player(nil), roster...)
	sort.SliceStable(players, func(i, j int) bool {
		pi, pj := players[i].DraftPosition, players[j].DraftPosition
		if pi <= 0 || pj <= 0 {
			return false
		}
		return pi < pj
	})
	return players
}
