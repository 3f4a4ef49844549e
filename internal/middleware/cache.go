package middleware

import "github.com/gin-gonic/gin"

// ImmutableAssets marks uploads as never changing. Image keys are random
// per upload, so a replaced image always has a new url.
func ImmutableAssets() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "public, max-age=31536000, immutable")
		c.Next()
	}
}

// NoStore disables caching for live and personalised responses.
func NoStore() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
