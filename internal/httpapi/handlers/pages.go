package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

const landingPage = `<!doctype html>
<html>
<head><title>shardchat</title></head>
<body>
<h1>shardchat</h1>
<p>Pick a room: <code>/{room}</code></p>
</body>
</html>
`

func (h *Handler) Landing(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(landingPage))
}

func (h *Handler) RoomPage(c *gin.Context) {
	roomID := c.Param("room")
	page := fmt.Sprintf(`<!doctype html>
<html>
<head><title>%s - shardchat</title></head>
<body>
<h1>#%s</h1>
<p>Messages: <code>GET /%s/messages</code>, send: <code>POST /%s/send</code></p>
</body>
</html>
`, roomID, roomID, roomID, roomID)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}
