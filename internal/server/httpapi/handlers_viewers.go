package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ViewerAPI is the presence-tracking surface the viewer handlers need.
type ViewerAPI interface {
	Join(ctx context.Context, playbackID, clientSessionID, wallet string) (int, error)
	Leave(ctx context.Context, playbackID, clientSessionID string) (int, error)
}

type ViewerController struct {
	viewers ViewerAPI
}

func NewViewerController(viewers ViewerAPI) *ViewerController {
	return &ViewerController{viewers: viewers}
}

type viewerRequest struct {
	PlaybackID      string `json:"playbackId" binding:"required"`
	ClientSessionID string `json:"sessionId" binding:"required"`
	Wallet          string `json:"wallet"`
}

func (ctrl *ViewerController) Join(c *gin.Context) {
	var req viewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	count, err := ctrl.viewers.Join(c.Request.Context(), req.PlaybackID, req.ClientSessionID, req.Wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"currentViewers": count})
}

func (ctrl *ViewerController) Leave(c *gin.Context) {
	var req viewerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	count, err := ctrl.viewers.Leave(c.Request.Context(), req.PlaybackID, req.ClientSessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"currentViewers": count})
}
