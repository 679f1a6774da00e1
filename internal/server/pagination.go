package server

import (
	"top-ten/internal/web"

	"github.com/gin-gonic/gin"
)

type pageQuery struct {
	Page    int `form:"page"`
	PerPage int `form:"per_page"`
}

// paginate slices items for the page requested in the query string. Bad or
// missing values fall back to the first page and the default size.
func paginate[T any](c *gin.Context, items []T, basePath string, defaultPerPage, maxPerPage int) ([]T, web.PaginationData) {
	var query pageQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		query = pageQuery{}
	}
	perPage := query.PerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if maxPerPage > 0 {
		perPage = min(perPage, maxPerPage)
	}
	data := buildPaginationData(basePath, query.Page, perPage, len(items))
	start := min((data.Page-1)*data.PerPage, len(items))
	end := min(start+data.PerPage, len(items))
	return items[start:end], data
}

func buildPaginationData(basePath string, page, perPage, total int) web.PaginationData {
	perPage = max(perPage, 1)
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	data := web.PaginationData{
		BasePath:   basePath,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
	if data.HasPrev {
		data.PrevPage = page - 1
	}
	if data.HasNext {
		data.NextPage = page + 1
	}
	return data
}
