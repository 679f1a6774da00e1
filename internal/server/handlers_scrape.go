package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"top-ten/internal/catalog"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleScrapeExport(c *gin.Context) {
	var query exportQuery
	if !bindQuery(c, &query) {
		return
	}
	entries, name, err := s.buildExport(c.Request.Context(), query)
	if err != nil {
		writeCatalogError(c, err, "failed to export lists")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.JSON(http.StatusOK, entries)
}

func (s *Server) handleScrapeImport(c *gin.Context) {
	records, err := catalog.DecodeImport(c.Request.Body)
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid file format. Expected an array of list items.")
		return
	}
	result := catalog.Import(c.Request.Context(), s.catalog, records)
	log.Printf("scrape import lists=%d errors=%d", result.SuccessCount, result.ErrorCount)
	c.JSON(http.StatusOK, result)
}

// handleScrapePublish uploads the export to the configured bucket.
func (s *Server) handleScrapePublish(c *gin.Context) {
	if s.exporter == nil {
		writeError(c, http.StatusServiceUnavailable, "export bucket is not configured")
		return
	}
	var query exportQuery
	if !bindQuery(c, &query) {
		return
	}
	ctx := c.Request.Context()
	entries, name, err := s.buildExport(ctx, query)
	if err != nil {
		writeCatalogError(c, err, "failed to export lists")
		return
	}
	body, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to export lists")
		return
	}
	location, err := s.exporter.Upload(ctx, name, body, "application/json")
	if err != nil {
		log.Printf("scrape publish failed key=%s error=%v", name, err)
		writeError(c, http.StatusBadGateway, "failed to upload export")
		return
	}
	log.Printf("scrape published key=%s lists=%d", name, len(entries))
	c.JSON(http.StatusOK, gin.H{
		"key":      name,
		"location": location,
		"lists":    len(entries),
	})
}

func (s *Server) buildExport(ctx context.Context, query exportQuery) ([]catalog.ExportEntry, string, error) {
	categoryName := ""
	if query.CategoryID != 0 {
		category, err := s.catalog.Category(ctx, query.CategoryID)
		if err != nil {
			return nil, "", err
		}
		categoryName = category.Name
	}
	entries, err := catalog.Export(ctx, s.catalog, catalog.ExportFilter{
		CategoryID:    query.CategoryID,
		IncludeFilled: query.IncludeFilled,
	})
	if err != nil {
		return nil, "", err
	}
	return entries, catalog.ExportFileName(categoryName, time.Now()), nil
}
