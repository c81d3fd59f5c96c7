package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"noria.fr/campusnet/internal/modules/vote/dto"
	"noria.fr/campusnet/internal/modules/vote/service"
	"noria.fr/campusnet/pkg/response"
	"noria.fr/campusnet/pkg/validator"
)

type VoteHandler struct {
	service service.VoteService
}

func NewVoteHandler(service service.VoteService) *VoteHandler {
	return &VoteHandler{service: service}
}

func (h *VoteHandler) CastVote(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	counts, err := h.service.CastVote(c.Request.Context(), externalID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, counts)
}
