package server

import (
	"log"
	"net/http"
	"strconv"

	"top-ten/internal/catalog"

	"github.com/gin-gonic/gin"
)

func (s *Server) handleCategories(c *gin.Context) {
	categories, err := s.catalog.Categories(c.Request.Context())
	if err != nil {
		writeCatalogError(c, err, "failed to load categories")
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (s *Server) handleCurrentCategory(c *gin.Context) {
	s.moveCategoryCursor(c, func(cursor catalog.Cursor) catalog.Cursor { return cursor })
}

func (s *Server) handleCategoryNext(c *gin.Context) {
	s.moveCategoryCursor(c, catalog.Cursor.Next)
}

func (s *Server) handleCategoryPrev(c *gin.Context) {
	s.moveCategoryCursor(c, catalog.Cursor.Prev)
}

// moveCategoryCursor applies move to the session's category position and
// returns the category it lands on. Moving past either end leaves the
// position unchanged.
func (s *Server) moveCategoryCursor(c *gin.Context, move func(catalog.Cursor) catalog.Cursor) {
	sessionID, sess, ok := s.currentSession(c)
	if !ok {
		writeError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	categories, err := s.catalog.Categories(c.Request.Context())
	if err != nil {
		writeCatalogError(c, err, "failed to load categories")
		return
	}
	cursor := move(catalog.NewCursor(sess.CategoryIndex, len(categories)))
	if cursor.Index != sess.CategoryIndex {
		if _, err := s.sessions.Update(sessionID, func(data *sessionData) {
			data.CategoryIndex = cursor.Index
		}); err != nil {
			log.Printf("session update failed session_id=%s error=%v", sessionID, err)
		}
	}
	response := gin.H{
		"index":    cursor.Index,
		"count":    cursor.Count,
		"has_prev": cursor.HasPrev(),
		"has_next": cursor.HasNext(),
	}
	if len(categories) > 0 {
		response["category"] = categories[cursor.Index]
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) handleCategoryLists(c *gin.Context) {
	var uri categoryURI
	if !bindURI(c, &uri) {
		return
	}
	ctx := c.Request.Context()
	category, err := s.catalog.Category(ctx, uri.CategoryID)
	if err != nil {
		writeCatalogError(c, err, "failed to load category")
		return
	}
	lists, err := s.catalog.Lists(ctx, category.ID)
	if err != nil {
		writeCatalogError(c, err, "failed to load lists")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"lists":    lists,
	})
}

func (s *Server) handleGetList(c *gin.Context) {
	var uri listURI
	if !bindURI(c, &uri) {
		return
	}
	list, err := s.catalog.List(c.Request.Context(), uri.ListID)
	if err != nil {
		writeCatalogError(c, err, "failed to load list")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleRandomList(c *gin.Context) {
	list, err := s.catalog.RandomList(c.Request.Context())
	if err != nil {
		writeCatalogError(c, err, "failed to load list")
		return
	}
	c.JSON(http.StatusOK, list)
}

func uintString(value uint) string {
	return strconv.FormatUint(uint64(value), 10)
}
