package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// pageParams reads page and per_page, clamping out-of-range values.
func pageParams(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(defaultPerPage)))

	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

func lastPage(total int64, perPage int) int {
	if total == 0 {
		return 1
	}
	pages := int(total) / perPage
	if int(total)%perPage > 0 {
		pages++
	}
	return pages
}
