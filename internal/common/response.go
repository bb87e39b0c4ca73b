package common

import "github.com/gin-gonic/gin"

// Error writes the uniform error body. Validation failures come through as
// 400, everything else as 500.
func Error(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
