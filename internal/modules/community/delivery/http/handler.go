package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"noria.fr/campusnet/internal/modules/community/dto"
	"noria.fr/campusnet/internal/modules/community/service"
	"noria.fr/campusnet/pkg/response"
	"noria.fr/campusnet/pkg/validator"
)

type CommunityHandler struct {
	service service.CommunityService
}

func NewCommunityHandler(service service.CommunityService) *CommunityHandler {
	return &CommunityHandler{service: service}
}

func (h *CommunityHandler) CreateCommunity(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	community, err := h.service.CreateCommunity(c.Request.Context(), externalID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusCreated, community)
}

func (h *CommunityHandler) GetCommunity(c *gin.Context) {
	communityID, err := uuid.Parse(c.Param("community_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	community, err := h.service.GetCommunity(c.Request.Context(), communityID, response.OptionalExternalID(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, community)
}

func (h *CommunityHandler) ListCommunities(c *gin.Context) {
	communities, err := h.service.ListCommunities(c.Request.Context(), response.OptionalExternalID(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": communities})
}

func (h *CommunityHandler) ListAllCommunities(c *gin.Context) {
	communities, err := h.service.ListAllCommunities(c.Request.Context())
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": communities})
}

func (h *CommunityHandler) ListJoinedCommunities(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	communities, err := h.service.ListJoinedCommunities(c.Request.Context(), externalID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": communities})
}

func (h *CommunityHandler) ListCreatedCommunities(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	communities, err := h.service.ListCreatedCommunities(c.Request.Context(), externalID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": communities})
}

func (h *CommunityHandler) ListRecommendations(c *gin.Context) {
	communities, err := h.service.ListRecommendations(c.Request.Context(), response.OptionalExternalID(c))
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": communities})
}

func (h *CommunityHandler) JoinCommunity(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	communityID, err := uuid.Parse(c.Param("community_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	if err := h.service.JoinCommunity(c.Request.Context(), externalID, communityID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "joined"})
}

func (h *CommunityHandler) LeaveCommunity(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	communityID, err := uuid.Parse(c.Param("community_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community id"})
		return
	}

	if err := h.service.LeaveCommunity(c.Request.Context(), externalID, communityID); err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "left"})
}
