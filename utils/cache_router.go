package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoCache = 0
	CacheCustom  = -1
	CacheMedia   = 365 * 86400 // stored media never changes, ids are unique
)

type CacheRouter struct {
	CacheTime int // defaults to CacheNoCache = 0
	// Prefixes overrides CacheTime for matching paths, e.g. "/media/": CacheMedia
	Prefixes map[string]int
}

func (cr *CacheRouter) cacheTime(path string) int {
	for prefix, t := range cr.Prefixes {
		if strings.HasPrefix(path, prefix) {
			return t
		}
	}
	return cr.CacheTime
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch t := cr.cacheTime(c.Request.URL.Path); {
		case t == CacheCustom:
		case t == CacheNoCache:
			c.Header("cache-control", "no-cache")
		case t >= CacheMedia:
			c.Header("cache-control", "public, max-age="+strconv.Itoa(t)+", immutable")
		default:
			c.Header("cache-control", "private, max-age="+strconv.Itoa(t))
		}
		c.Next()
	}
}
