package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"habittracker/backend/internal/middleware"
	"habittracker/backend/internal/service"
)

type UserHandler struct {
	userService *service.UserService
}

type updateUserRequest struct {
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	Phone          *string `json:"phone"`
	City           *string `json:"city"`
	TelegramChatID *string `json:"telegramChatId"`
}

func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func (h *UserHandler) List(c *gin.Context) {
	page, apiErr := h.userService.List(c.Request.Context(), pageFromQuery(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Get(c *gin.Context) {
	user, apiErr := h.userService.Get(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	user, apiErr := h.userService.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"), service.UpdateUserInput{
		Email:          req.Email,
		Password:       req.Password,
		Phone:          req.Phone,
		City:           req.City,
		TelegramChatID: req.TelegramChatID,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

func (h *UserHandler) Delete(c *gin.Context) {
	if apiErr := h.userService.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
