package server

import (
	"errors"
	"log"
	"net/http"

	"top-ten/internal/catalog"
	"top-ten/internal/web"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func render(c *gin.Context, component templ.Component) {
	templ.Handler(component).ServeHTTP(c.Writer, c.Request)
}

func (s *Server) handleLoginView(c *gin.Context) {
	if s.authenticate(c) {
		c.Redirect(http.StatusFound, "/")
		return
	}
	render(c, web.Login())
}

func (s *Server) handleHome(c *gin.Context) {
	_, sess, _ := s.currentSession(c)
	render(c, web.Home(web.HomeData{
		Email:   c.GetString(ctxEmail),
		GroupID: sess.GroupID,
		RoundID: sess.RoundID,
		IsJudge: sess.IsJudge,
	}))
}

func (s *Server) handleSetupView(c *gin.Context) {
	render(c, web.Setup(s.cfg.MinPlayers, s.cfg.MaxPlayers))
}

func (s *Server) handleCategoriesView(c *gin.Context) {
	_, sess, _ := s.currentSession(c)
	categories, err := s.catalog.Categories(c.Request.Context())
	if err != nil {
		log.Printf("categories view failed error=%v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	cursor := catalog.NewCursor(sess.CategoryIndex, len(categories))
	data := web.CategoryCarouselData{
		Index:   cursor.Index,
		Count:   cursor.Count,
		HasPrev: cursor.HasPrev(),
		HasNext: cursor.HasNext(),
		RoundID: sess.RoundID,
	}
	if len(categories) > 0 {
		data.Category = categories[cursor.Index]
	}
	render(c, web.Categories(data))
}

func (s *Server) handleCategoryListsView(c *gin.Context) {
	var uri categoryURI
	if !bindURI(c, &uri) {
		return
	}
	ctx := c.Request.Context()
	category, err := s.catalog.Category(ctx, uri.CategoryID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.Redirect(http.StatusFound, "/private/categories")
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	lists, err := s.catalog.Lists(ctx, category.ID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	playable := make([]catalog.List, 0, len(lists))
	for _, list := range lists {
		if list.HasItems() {
			playable = append(playable, list)
		}
	}
	_, sess, _ := s.currentSession(c)
	render(c, web.CategoryLists(web.CategoryListsData{
		Category: category,
		Lists:    playable,
		RoundID:  sess.RoundID,
	}))
}

func (s *Server) handlePlayView(c *gin.Context) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return
	}
	round, err := s.loadRound(c.Request.Context(), uri.RoundID)
	if err != nil {
		log.Printf("play view missing round_id=%s", uri.RoundID)
		c.Redirect(http.StatusFound, "/")
		return
	}
	render(c, web.Play(round.ID))
}

func (s *Server) handleBoardView(c *gin.Context) {
	var uri roundURI
	if !bindURI(c, &uri) {
		return
	}
	round, err := s.loadRound(c.Request.Context(), uri.RoundID)
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}
	render(c, web.Board(round.ID))
}

func (s *Server) handleSimpleView(c *gin.Context) {
	list, err := s.catalog.RandomList(c.Request.Context())
	if err != nil {
		if errors.Is(err, catalog.ErrNoListsAvailable) {
			c.Redirect(http.StatusFound, "/private/admin")
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	render(c, web.Simple(list))
}

func (s *Server) handleAdminView(c *gin.Context) {
	var query adminQuery
	if !bindQuery(c, &query) {
		return
	}
	ctx := c.Request.Context()
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	lists, err := s.catalog.Lists(ctx, query.CategoryID)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	basePath := "/private/admin"
	if query.CategoryID != 0 {
		basePath += "?category_id=" + uintString(query.CategoryID)
	}
	lists, pagination := paginate(c, lists, basePath, 20, 100)
	render(c, web.Admin(web.AdminData{
		Categories: categories,
		Lists:      lists,
		CategoryID: query.CategoryID,
		Pagination: pagination,
	}))
}

func (s *Server) handleAdminListView(c *gin.Context) {
	var uri idURI
	if !bindURI(c, &uri) {
		return
	}
	list, err := s.catalog.List(c.Request.Context(), uri.ID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			c.Redirect(http.StatusFound, "/private/admin")
			return
		}
		c.Status(http.StatusInternalServerError)
		return
	}
	render(c, web.AdminList(list))
}

func (s *Server) handleScrapeView(c *gin.Context) {
	ctx := c.Request.Context()
	categories, err := s.catalog.Categories(ctx)
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	pending, err := catalog.Export(ctx, s.catalog, catalog.ExportFilter{})
	if err != nil {
		c.Status(http.StatusInternalServerError)
		return
	}
	render(c, web.Scrape(web.ScrapeData{
		Categories:   categories,
		CanPublish:   s.exporter != nil,
		PendingLists: len(pending),
	}))
}
