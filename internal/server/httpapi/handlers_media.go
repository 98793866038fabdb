package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamfi/streamfi/internal/common"
)

// MediaAPI hands out presigned URLs for the media store.
type MediaAPI interface {
	GetPresignedPutURL(ctx context.Context, kind string) (key string, url string, err error)
	GetPresignedGetURL(ctx context.Context, key string) (string, error)
}

type MediaController struct {
	media MediaAPI
}

func NewMediaController(media MediaAPI) *MediaController {
	return &MediaController{media: media}
}

type uploadURLRequest struct {
	Kind string `json:"kind" binding:"required"`
}

func (ctrl *MediaController) UploadURL(c *gin.Context) {
	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	key, url, err := ctrl.media.GetPresignedPutURL(c.Request.Context(), req.Kind)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"key": key, "uploadUrl": url})
}

func (ctrl *MediaController) DownloadURL(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		respondError(c, common.ErrorValidation)
		return
	}

	url, err := ctrl.media.GetPresignedGetURL(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"url": url})
}
