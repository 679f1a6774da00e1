package web

import "top-ten/internal/catalog"

type PaginationData struct {
	BasePath   string `json:"-"`
	Page       int    `json:"page"`
	PerPage    int    `json:"per_page"`
	Total      int    `json:"total"`
	TotalPages int    `json:"total_pages"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
	PrevPage   int    `json:"prev_page,omitempty"`
	NextPage   int    `json:"next_page,omitempty"`
}

type HomeData struct {
	Email   string
	GroupID string
	RoundID string
	IsJudge bool
}

// CategoryCarouselData drives the one-category-at-a-time picker.
type CategoryCarouselData struct {
	Category catalog.Category
	Index    int
	Count    int
	HasPrev  bool
	HasNext  bool
	RoundID  string
}

type CategoryListsData struct {
	Category catalog.Category
	Lists    []catalog.List
	RoundID  string
}

type AdminData struct {
	Categories []catalog.Category
	Lists      []catalog.List
	CategoryID uint
	Pagination PaginationData
}

type ScrapeData struct {
	Categories   []catalog.Category
	CanPublish   bool
	PendingLists int
}
