// Package catalog stores the categories, lists and ranked list items rounds
// are played from, and implements the scrape import/export file contract.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/gosimple/slug"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrCategoryIncomplete = errors.New("category name and icon are required")
	ErrListIncomplete     = errors.New("list title and category are required")
	ErrItemNameRequired   = errors.New("all items must have a name")
	ErrItemNameMissing    = errors.New("item name is required")
	ErrInvalidRank        = errors.New("item rank must be positive")
	ErrDuplicateRank      = errors.New("an item with that rank already exists")
	ErrDuplicateCategory  = errors.New("a category with that name already exists")
	ErrItemNotInList      = errors.New("item does not belong to this list")
	ErrNoListsAvailable   = errors.New("no lists available")
)

type Category struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Icon        string `json:"icon"`
	Description string `json:"description,omitempty"`
	ListCount   int    `json:"list_count"`
}

type List struct {
	ID            uint   `json:"id"`
	CategoryID    uint   `json:"category_id"`
	CategoryName  string `json:"category,omitempty"`
	Title         string `json:"title"`
	Description   string `json:"description,omitempty"`
	SourceURL     string `json:"source_url,omitempty"`
	ReferenceInfo string `json:"reference_info,omitempty"`
	Year          int    `json:"year,omitempty"`
	Items         []Item `json:"items,omitempty"`
}

// HasItems reports whether any item on the list has been filled in.
func (l List) HasItems() bool {
	for _, item := range l.Items {
		if strings.TrimSpace(item.Name) != "" {
			return true
		}
	}
	return false
}

type Item struct {
	ID        uint   `json:"id"`
	ListID    uint   `json:"list_id"`
	Rank      int    `json:"rank"`
	Name      string `json:"name"`
	Details   string `json:"details,omitempty"`
	Statistic string `json:"statistic,omitempty"`
}

type CategoryInput struct {
	Name        string
	Icon        string
	Description string
}

type ListInput struct {
	CategoryID    uint
	Title         string
	Description   string
	SourceURL     string
	ReferenceInfo string
	Year          int
}

type ItemInput struct {
	ID        uint
	Rank      int
	Name      string
	Details   string
	Statistic string
}

// Repository is the persistence surface used by the HTTP handlers and the
// operator CLI.
type Repository interface {
	Categories(ctx context.Context) ([]Category, error)
	Category(ctx context.Context, id uint) (Category, error)
	CreateCategory(ctx context.Context, in CategoryInput) (Category, error)
	UpdateCategory(ctx context.Context, id uint, in CategoryInput) (Category, error)
	DeleteCategory(ctx context.Context, id uint) error

	Lists(ctx context.Context, categoryID uint) ([]List, error)
	List(ctx context.Context, id uint) (List, error)
	RandomList(ctx context.Context) (List, error)
	CreateList(ctx context.Context, in ListInput, emptyItems int) (List, error)
	UpdateList(ctx context.Context, id uint, in ListInput) (List, error)
	DeleteList(ctx context.Context, id uint) error

	AddItem(ctx context.Context, listID uint, in ItemInput) (Item, error)
	UpdateItem(ctx context.Context, id uint, in ItemInput) (Item, error)
	SaveItems(ctx context.Context, listID uint, items []ItemInput) ([]Item, error)
	ReplaceItems(ctx context.Context, listID uint, items []ItemInput) error
}

func normalizeCategory(in CategoryInput) (CategoryInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Icon = strings.TrimSpace(in.Icon)
	in.Description = strings.TrimSpace(in.Description)
	if in.Name == "" || in.Icon == "" {
		return in, ErrCategoryIncomplete
	}
	return in, nil
}

func normalizeList(in ListInput) (ListInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.SourceURL = strings.TrimSpace(in.SourceURL)
	in.ReferenceInfo = strings.TrimSpace(in.ReferenceInfo)
	if in.Title == "" || in.CategoryID == 0 {
		return in, ErrListIncomplete
	}
	return in, nil
}

func normalizeItem(in ItemInput) (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Details = strings.TrimSpace(in.Details)
	in.Statistic = strings.TrimSpace(in.Statistic)
	if in.Name == "" {
		return in, ErrItemNameMissing
	}
	if in.Rank < 0 {
		return in, ErrInvalidRank
	}
	return in, nil
}

// Slug is the URL key stored for a category name.
func Slug(name string) string {
	return slug.Make(name)
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
