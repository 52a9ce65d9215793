package web

import (
	"net/http"
	"strings"
	"time"

	"portfolio/auth"
	"portfolio/config"
	"portfolio/handlers"
	"portfolio/models"
	"portfolio/storage"
	"portfolio/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

const sessionCookieName = "token"

type Deps struct {
	Config   *config.Config
	Log      zerolog.Logger
	Store    *models.Store
	Handlers *handlers.Handlers
	Media    storage.MediaStore
	Sessions sessions.Store
}

func NewRouter(d Deps) *gin.Engine {
	if !d.Config.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(d.Log), requestMetrics)
	_ = router.SetTrustedProxies([]string{})
	if d.Config.DebugMode {
		router.Use(utils.ErrorLogMiddleware(d.Log))
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORSOrigins,
		AllowMethods:     []string{"GET", "PUT", "POST", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "ETag"},
		AllowCredentials: true,
		MaxAge:           30 * 24 * time.Hour,
	}))

	d.Sessions.Options(sessions.Options{Path: "/", MaxAge: d.Config.SessionMaxAge, HttpOnly: true})
	router.Use(sessions.Sessions(sessionCookieName, d.Sessions))
	if !d.Config.DebugMode {
		router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/media"})))
	}
	// No cache by default, stored media can be cached forever
	router.Use((&utils.CacheRouter{
		CacheTime: utils.CacheNoCache,
		Prefixes:  map[string]int{"/media/": utils.CacheMedia, "/metrics": utils.CacheCustom},
	}).Handler())

	h := d.Handlers
	authRouter := &auth.Router{Base: router, Users: d.Store, Disabled: !d.Config.AuthRequired}
	// Albums
	router.GET("/albums", h.AlbumList)
	router.GET("/albums/:id", h.AlbumGet)
	authRouter.POST("/albums", h.AlbumCreate)
	authRouter.PUT("/albums", h.AlbumUpdate)
	authRouter.DELETE("/albums", h.AlbumDelete)
	// Standalone images
	router.GET("/images", h.ImageList)
	authRouter.POST("/images", h.ImageUpload)
	authRouter.DELETE("/images", h.ImageDelete)
	// User
	router.POST("/user/login", h.UserLogin)
	router.POST("/user/logout", h.UserLogout)
	authRouter.GET("/user/status", h.UserStatus)
	// Misc
	if disk, ok := d.Media.(*storage.DiskStorage); ok {
		router.GET("/media/*path", MediaView(disk))
	}
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/robots.txt", DisallowRobots)
	return router
}

// MediaView serves files of the disk storage backend.
func MediaView(disk *storage.DiskStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		disk.Serve(strings.TrimPrefix(c.Param("path"), "/"), c.Request, c.Writer)
	}
}

func DisallowRobots(c *gin.Context) {
	c.String(http.StatusOK, "User-agent: *\nDisallow: /\n")
}
