package server

import (
	"time"

	"top-ten/internal/game"
)

type Group struct {
	ID        string
	DBID      uint
	Name      string
	CreatedBy string
	Players   []GroupPlayer
	RoundIDs  []string
	CreatedAt time.Time
}

type GroupPlayer struct {
	ID        int
	DBID      uint
	Name      string
	TotalWins int
}

type roundEntry struct {
	round     game.Round
	updatedAt time.Time
}

type RoundSummary struct {
	ID      string `json:"id"`
	GroupID string `json:"group_id"`
	Number  int    `json:"round_number"`
	Status  string `json:"status"`
	Players int    `json:"players"`
}

type playerInput struct {
	Name    string `json:"name" binding:"required,name"`
	IsJudge bool   `json:"is_judge"`
}

type createGroupRequest struct {
	Name    string        `json:"name"`
	Players []playerInput `json:"players" binding:"required,min=1,dive"`
}

type assignListRequest struct {
	ListID uint `json:"list_id" binding:"required"`
}

type startRoundRequest struct {
	DraftType string `json:"draft_type" binding:"omitempty,oneof=serpentine fixed"`
}

type guessRequest struct {
	ItemID   uint `json:"item_id" binding:"required"`
	PlayerID int  `json:"player_id" binding:"required"`
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Icon        string `json:"icon" binding:"required"`
	Description string `json:"description"`
}

type listRequest struct {
	CategoryID    uint   `json:"category_id" binding:"required"`
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	SourceURL     string `json:"source_url" binding:"omitempty,url"`
	ReferenceInfo string `json:"reference_info"`
	Year          int    `json:"year" binding:"omitempty,min=1,max=9999"`
}

type itemRequest struct {
	ID        uint   `json:"id"`
	Rank      int    `json:"rank" binding:"omitempty,min=1"`
	Name      string `json:"name" binding:"required"`
	Details   string `json:"details"`
	Statistic string `json:"statistic"`
}

type saveItemsRequest struct {
	Items []itemRequest `json:"items" binding:"required,dive"`
}

type roundURI struct {
	RoundID string `uri:"roundID" binding:"required"`
}

type idURI struct {
	ID uint `uri:"id" binding:"required"`
}

type exportQuery struct {
	CategoryID    uint `form:"category_id"`
	IncludeFilled bool `form:"include_filled"`
}

type categoryURI struct {
	CategoryID uint `uri:"categoryID" binding:"required"`
}

type listURI struct {
	ListID uint `uri:"listID" binding:"required"`
}

type adminQuery struct {
	CategoryID uint `form:"category_id"`
}
