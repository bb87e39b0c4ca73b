package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shardchat/shardchat/internal/common"
)

// Recovery converts panics into the uniform 500 body instead of gin's
// default empty response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("panic recovered path=%s err=%v", c.Request.URL.Path, r)
				common.Error(c, http.StatusInternalServerError, "internal error")
				c.Abort()
			}
		}()
		c.Next()
	}
}
