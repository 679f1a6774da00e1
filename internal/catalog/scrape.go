package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/gosimple/slug"
)

// ExportEntry is one line of the scrape config handed to the list scraper.
type ExportEntry struct {
	ID        uint   `json:"id"`
	Title     string `json:"title"`
	SourceURL string `json:"source_url"`
	Category  string `json:"category"`
	HasItems  bool   `json:"has_items"`
}

type ExportFilter struct {
	CategoryID    uint
	IncludeFilled bool
}

// ImportItem is one scraped list item as the scraper writes it.
type ImportItem struct {
	ListID    uint    `json:"list_id"`
	Rank      int     `json:"rank"`
	Name      string  `json:"name"`
	Details   *string `json:"details"`
	Statistic *string `json:"statistic"`
}

type ImportResult struct {
	Success      bool   `json:"success"`
	SuccessCount int    `json:"success_count"`
	ErrorCount   int    `json:"error_count"`
	Message      string `json:"message"`
}

var ErrInvalidImport = errors.New("invalid file format, expected an array of list items")

// Export lists the scrape targets. By default only lists without any named
// item are returned.
func Export(ctx context.Context, repo Repository, filter ExportFilter) ([]ExportEntry, error) {
	lists, err := repo.Lists(ctx, filter.CategoryID)
	if err != nil {
		return nil, err
	}
	out := make([]ExportEntry, 0, len(lists))
	for _, list := range lists {
		hasItems := list.HasItems()
		if hasItems && !filter.IncludeFilled {
			continue
		}
		out = append(out, ExportEntry{
			ID:        list.ID,
			Title:     list.Title,
			SourceURL: list.SourceURL,
			Category:  list.CategoryName,
			HasItems:  hasItems,
		})
	}
	return out, nil
}

// ExportFileName names an export file after the category it covers.
func ExportFileName(category string, now time.Time) string {
	base := "scrape-config"
	if category != "" {
		base = base + "-" + slug.Make(category)
	}
	return fmt.Sprintf("%s-%s.json", base, now.UTC().Format("20060102-150405"))
}

func DecodeImport(r io.Reader) ([]ImportItem, error) {
	var items []ImportItem
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, ErrInvalidImport
	}
	if items == nil {
		return nil, ErrInvalidImport
	}
	return items, nil
}

// Import groups records by list and replaces each list's items with its
// group. Lists are processed in the order they first appear; a failing list
// is counted and skipped.
func Import(ctx context.Context, repo Repository, records []ImportItem) ImportResult {
	order := make([]uint, 0)
	groups := make(map[uint][]ItemInput)
	for _, record := range records {
		if _, ok := groups[record.ListID]; !ok {
			order = append(order, record.ListID)
		}
		groups[record.ListID] = append(groups[record.ListID], ItemInput{
			Rank:      record.Rank,
			Name:      record.Name,
			Details:   deref(record.Details),
			Statistic: deref(record.Statistic),
		})
	}

	result := ImportResult{}
	for _, listID := range order {
		if err := validateImportGroup(listID, groups[listID]); err != nil {
			log.Printf("scrape import rejected list_id=%d error=%v", listID, err)
			result.ErrorCount++
			continue
		}
		if err := repo.ReplaceItems(ctx, listID, groups[listID]); err != nil {
			log.Printf("scrape import failed list_id=%d error=%v", listID, err)
			result.ErrorCount++
			continue
		}
		result.SuccessCount++
	}
	result.Success = result.ErrorCount == 0
	result.Message = fmt.Sprintf("Imported items for %d lists with %d errors.", result.SuccessCount, result.ErrorCount)
	return result
}

func validateImportGroup(listID uint, items []ItemInput) error {
	if listID == 0 {
		return errors.New("missing list_id")
	}
	seen := make(map[int]struct{}, len(items))
	for _, item := range items {
		if item.Rank <= 0 {
			return ErrInvalidRank
		}
		if _, dup := seen[item.Rank]; dup {
			return ErrDuplicateRank
		}
		seen[item.Rank] = struct{}{}
	}
	return nil
}
