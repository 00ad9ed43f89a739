package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

func GetPaginationParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	return page, pageSize
}

// GetSortParams reads sort and order, falling back to defaultSort when the
// column is not in allowed. Order is "asc" or "desc".
func GetSortParams(c *gin.Context, allowed []string, defaultSort string) (string, string) {
	sort := c.DefaultQuery("sort", defaultSort)
	valid := false
	for _, a := range allowed {
		if a == sort {
			valid = true
			break
		}
	}
	if !valid {
		sort = defaultSort
	}

	order := strings.ToLower(c.DefaultQuery("order", "desc"))
	if order != "asc" {
		order = "desc"
	}
	return sort, order
}

func ParseUintParam(c *gin.Context, name string) (uint64, error) {
	return strconv.ParseUint(c.Param(name), 10, 64)
}
