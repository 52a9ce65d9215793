package handlers

import (
	"errors"
	"net/http"

	"portfolio/auth"
	"portfolio/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
)

type UserLoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UserInfo struct {
	Success  bool   `json:"success"`
	Username string `json:"username"`
}

func (h *Handlers) UserLogin(c *gin.Context) {
	postReq := UserLoginRequest{}
	if err := c.ShouldBindWith(&postReq, binding.JSON); err != nil {
		c.JSON(http.StatusBadRequest, Response{Error: "Username and password are required"})
		return
	}
	user, err := h.Store.Login(c.Request.Context(), postReq.Username, postReq.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, Response{Error: "Invalid username or password"})
		return
	}
	if err != nil {
		h.Log.Error().Err(err).Msg("login")
		c.JSON(http.StatusInternalServerError, DBErrorResponse)
		return
	}
	if err = auth.LoadSession(c).LoginUser(user); err != nil {
		h.Log.Error().Err(err).Msg("save session")
		c.JSON(http.StatusInternalServerError, InternalErrorResponse)
		return
	}
	h.Log.Info().Str("username", user.Username).Msg("user logged in")
	c.JSON(http.StatusOK, UserInfo{Success: true, Username: user.Username})
}

func (h *Handlers) UserLogout(c *gin.Context) {
	auth.LoadSession(c).LogoutUser()
	c.JSON(http.StatusOK, OKResponse)
}

func (h *Handlers) UserStatus(c *gin.Context, user *models.User) {
	info := UserInfo{Success: true}
	if user != nil {
		info.Username = user.Username
	}
	c.JSON(http.StatusOK, info)
}
