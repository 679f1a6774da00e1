package server

import (
	"log"
	"net/http"

	"top-ten/internal/catalog"

	"github.com/gin-gonic/gin"
)

var (
	categoryMessages = bindMessages{
		"Name": {"required": "Category name and icon are required"},
		"Icon": {"required": "Category name and icon are required"},
	}
	listMessages = bindMessages{
		"CategoryID": {"required": "List title and category are required"},
		"Title":      {"required": "List title and category are required"},
		"SourceURL":  {"url": "Source URL must be a valid URL"},
		"Year":       {"min": "Year must be between 1 and 9999", "max": "Year must be between 1 and 9999"},
	}
	itemMessages = bindMessages{
		"Name": {"required": "Item name is required"},
		"Rank": {"min": "Item rank must be positive"},
	}
	saveItemsMessages = bindMessages{
		"Items": {"required": "No items to save"},
		"Name":  {"required": "All items must have a name"},
		"Rank":  {"min": "Item rank must be positive"},
	}
)

func (s *Server) handleAdminCreateCategory(c *gin.Context) {
	var req categoryRequest
	if !bindJSON(c, &req, categoryMessages, "") {
		return
	}
	category, err := s.catalog.CreateCategory(c.Request.Context(), categoryInput(req))
	if err != nil {
		writeCatalogError(c, err, "failed to create category")
		return
	}
	log.Printf("category created category_id=%d slug=%s", category.ID, category.Slug)
	c.JSON(http.StatusCreated, category)
}

func (s *Server) handleAdminUpdateCategory(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri) {
		return
	}
	var req categoryRequest
	if !bindJSON(c, &req, categoryMessages, "") {
		return
	}
	category, err := s.catalog.UpdateCategory(c.Request.Context(), uri.ID, categoryInput(req))
	if err != nil {
		writeCatalogError(c, err, "failed to update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (s *Server) handleAdminDeleteCategory(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri) {
		return
	}
	if err := s.catalog.DeleteCategory(c.Request.Context(), uri.ID); err != nil {
		writeCatalogError(c, err, "failed to delete category")
		return
	}
	log.Printf("category deleted category_id=%d", uri.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminCreateList(c *gin.Context) {
	var req listRequest
	if !bindJSON(c, &req, listMessages, "") {
		return
	}
	list, err := s.catalog.CreateList(c.Request.Context(), listInput(req), s.cfg.EmptyListItems)
	if err != nil {
		writeCatalogError(c, err, "failed to create list")
		return
	}
	log.Printf("list created list_id=%d category_id=%d items=%d", list.ID, list.CategoryID, len(list.Items))
	c.JSON(http.StatusCreated, list)
}

func (s *Server) handleAdminUpdateList(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri) {
		return
	}
	var req listRequest
	if !bindJSON(c, &req, listMessages, "") {
		return
	}
	list, err := s.catalog.UpdateList(c.Request.Context(), uri.ID, listInput(req))
	if err != nil {
		writeCatalogError(c, err, "failed to update list")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) handleAdminDeleteList(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri) {
		return
	}
	if err := s.catalog.DeleteList(c.Request.Context(), uri.ID); err != nil {
		writeCatalogError(c, err, "failed to delete list")
		return
	}
	log.Printf("list deleted list_id=%d", uri.ID)
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAdminAddItem(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri) {
		return
	}
	var req itemRequest
	if !bindJSON(c, &req, itemMessages, "") {
		return
	}
	item, err := s.catalog.AddItem(c.Request.Context(), uri.ID, itemInput(req))
	if err != nil {
		writeCatalogError(c, err, "failed to add item")
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (s *Server) handleAdminUpdateItem(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri) {
		return
	}
	var req itemRequest
	if !bindJSON(c, &req, itemMessages, "") {
		return
	}
	item, err := s.catalog.UpdateItem(c.Request.Context(), uri.ID, itemInput(req))
	if err != nil {
		writeCatalogError(c, err, "failed to update item")
		return
	}
	c.JSON(http.StatusOK, item)
}

// handleAdminSaveItems saves every item of a list at once. All of them must
// be named.
func (s *Server) handleAdminSaveItems(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri) {
		return
	}
	var req saveItemsRequest
	if !bindJSON(c, &req, saveItemsMessages, "") {
		return
	}
	inputs := make([]catalog.ItemInput, 0, len(req.Items))
	for _, item := range req.Items {
		inputs = append(inputs, itemInput(item))
	}
	items, err := s.catalog.SaveItems(c.Request.Context(), uri.ID, inputs)
	if err != nil {
		writeCatalogError(c, err, "failed to save items")
		return
	}
	log.Printf("list items saved list_id=%d items=%d", uri.ID, len(items))
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func categoryInput(req categoryRequest) catalog.CategoryInput {
	return catalog.CategoryInput{
		Name:        req.Name,
		Icon:        req.Icon,
		Description: req.Description,
	}
}

func listInput(req listRequest) catalog.ListInput {
	return catalog.ListInput{
		CategoryID:    req.CategoryID,
		Title:         req.Title,
		Description:   req.Description,
		SourceURL:     req.SourceURL,
		ReferenceInfo: req.ReferenceInfo,
		Year:          req.Year,
	}
}

func itemInput(req itemRequest) catalog.ItemInput {
	return catalog.ItemInput{
		ID:        req.ID,
		Rank:      req.Rank,
		Name:      req.Name,
		Details:   req.Details,
		Statistic: req.Statistic,
	}
}
