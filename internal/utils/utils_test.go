package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextFor(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestGetPaginationParams(t *testing.T) {
	page, size := GetPaginationParams(contextFor("/documents?page=3&per_page=20"))
	assert.Equal(t, 3, page)
	assert.Equal(t, 20, size)

	page, size = GetPaginationParams(contextFor("/documents?page=-1&per_page=500"))
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, size)
}

func TestGetSortParams(t *testing.T) {
	allowed := []string{"created_at", "title"}

	sort, order := GetSortParams(contextFor("/documents?sort=title&order=ASC"), allowed, "created_at")
	assert.Equal(t, "title", sort)
	assert.Equal(t, "asc", order)

	sort, order = GetSortParams(contextFor("/documents?sort=password&order=sideways"), allowed, "created_at")
	assert.Equal(t, "created_at", sort)
	assert.Equal(t, "desc", order)
}
