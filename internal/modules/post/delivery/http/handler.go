package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"noria.fr/campusnet/internal/modules/post/dto"
	"noria.fr/campusnet/internal/modules/post/service"
	"noria.fr/campusnet/pkg/ratelimiter"
	"noria.fr/campusnet/pkg/response"
	"noria.fr/campusnet/pkg/storage"
	"noria.fr/campusnet/pkg/validator"
)

type PostHandler struct {
	service     service.PostService
	fileStorage storage.ImageStorage
}

func NewPostHandler(service service.PostService, fileStorage storage.ImageStorage) *PostHandler {
	return &PostHandler{service: service, fileStorage: fileStorage}
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), externalID, req)
	if err != nil {
		if rateLimitErr, ok := err.(*ratelimiter.RateLimitError); ok {
			c.Header("Retry-After", fmt.Sprintf("%.0f", rateLimitErr.RetryAfter.Seconds()))
			c.JSON(http.StatusTooManyRequests, gin.H{"error": rateLimitErr.Message})
			return
		}
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetFeed(c *gin.Context) {
	posts, err := h.service.GetFeed(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": posts})
}

func (h *PostHandler) GetPost(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("post_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid post id"})
		return
	}

	post, err := h.service.GetPost(c.Request.Context(), postID, response.OptionalExternalID(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) GetCommunityPosts(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("community_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	posts, err := h.service.GetCommunityPosts(c.Request.Context(), communityID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": posts})
}

// UploadImage streams a multipart image to storage and returns the stable
// URL the client embeds in a later post create.
func (h *PostHandler) UploadImage(c *gin.Context) {
	if _, err := response.GetExternalID(c); err != nil {
		response.ResponseError(c, err)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	if h.fileStorage == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "image storage is not configured"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	url, err := h.fileStorage.UploadImage(c.Request.Context(), file, "posts", fileHeader.Filename)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url})
}
