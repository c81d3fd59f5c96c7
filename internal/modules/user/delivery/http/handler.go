package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"noria.fr/campusnet/internal/modules/user/dto"
	"noria.fr/campusnet/internal/modules/user/service"
	"noria.fr/campusnet/pkg/response"
	"noria.fr/campusnet/pkg/validator"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) SyncUser(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	var req dto.SyncUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": validator.FormatValidationError(err)})
		return
	}

	user, err := h.service.SyncUser(c.Request.Context(), externalID, req)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetCurrentUser(c *gin.Context) {
	externalID, err := response.GetExternalID(c)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	user, err := h.service.GetCurrentUser(c.Request.Context(), externalID)
	if err != nil {
		response.ResponseError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}
