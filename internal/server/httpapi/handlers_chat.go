package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/streamfi/streamfi/internal/logging"
	"github.com/streamfi/streamfi/internal/server/chat"
)

type ChatController struct {
	hub      *chat.Hub
	upgrader websocket.Upgrader
	logger   logging.Logger
}

func NewChatController(hub *chat.Hub, logger logging.Logger) *ChatController {
	return &ChatController{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The browser player runs on a different origin than the API.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger.With("module", "chat_controller"),
	}
}

// Connect upgrades the request and joins the viewer to the stream's chat
// room. Anonymous viewers chat as "anonymous".
func (ctrl *ChatController) Connect(c *gin.Context) {
	playbackID := c.Param("playbackId")
	if playbackID == "" {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "playback id required"})
		return
	}

	username := c.Query("username")
	if username == "" {
		username = "anonymous"
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		ctrl.logger.Warn(c.Request.Context(), "websocket upgrade failed", "playback_id", playbackID, "error", err)
		return
	}

	chat.NewClient(ctrl.hub, conn, playbackID, username)
}
