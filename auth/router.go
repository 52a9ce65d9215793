package auth

import (
	"net/http"

	"portfolio/models"

	"github.com/gin-gonic/gin"
)

// User is authenticated (or auth is disabled, then user is nil)
type HandlerFunc func(c *gin.Context, user *models.User)

// Router is a wrapper class that adds auth checks + User pre-loading
type Router struct {
	Base     gin.IRoutes
	Users    *models.Store
	Disabled bool
}

func (cr *Router) baseExec(c *gin.Context, handler HandlerFunc) {
	if cr.Disabled {
		handler(c, nil)
		return
	}
	user := LoadSession(c).User(c, cr.Users)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "access denied"})
		return
	}
	handler(c, user)
}

func (cr *Router) wrap(handler HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		cr.baseExec(c, handler)
	}
}

func (cr *Router) POST(path string, handler HandlerFunc) {
	cr.Base.POST(path, cr.wrap(handler))
}

func (cr *Router) GET(path string, handler HandlerFunc) {
	cr.Base.GET(path, cr.wrap(handler))
}

func (cr *Router) PUT(path string, handler HandlerFunc) {
	cr.Base.PUT(path, cr.wrap(handler))
}

func (cr *Router) DELETE(path string, handler HandlerFunc) {
	cr.Base.DELETE(path, cr.wrap(handler))
}
