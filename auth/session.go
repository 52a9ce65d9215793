package auth

import (
	"portfolio/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const userIdKey = "id"

type Session struct {
	sessions.Session
}

func LoadSession(c *gin.Context) *Session {
	return &Session{
		Session: sessions.Default(c),
	}
}

func (s *Session) LoginUser(user *models.User) error {
	s.Set(userIdKey, user.ID)
	return s.Save()
}

func (s *Session) LogoutUser() {
	s.Delete(userIdKey)
	s.Clear()
	s.Options(sessions.Options{Path: "/", MaxAge: -1})
	_ = s.Save()
}

func (s *Session) UserID() uint64 {
	id, _ := s.Get(userIdKey).(uint64)
	return id
}

// User loads the logged in user, nil if there is none (or it was deleted).
func (s *Session) User(c *gin.Context, users *models.Store) *models.User {
	id := s.UserID()
	if id == 0 {
		return nil
	}
	user, err := users.FindUser(c.Request.Context(), id)
	if err != nil {
		return nil
	}
	return user
}
