package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"noria.fr/campusnet/internal/modules/search/service"
	"noria.fr/campusnet/pkg/response"
)

type SearchHandler struct {
	service service.SearchService
}

func NewSearchHandler(service service.SearchService) *SearchHandler {
	return &SearchHandler{service: service}
}

func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing query parameter q"})
		return
	}

	index := c.DefaultQuery("index", service.IndexPosts)
	if index != service.IndexPosts && index != service.IndexCommunities {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown index"})
		return
	}

	results, err := h.service.Search(index, query, 20)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": results})
}
