package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamfi/streamfi/internal/server/models"
	"github.com/streamfi/streamfi/internal/server/services"
)

// StreamAPI is the stream lifecycle surface the stream handlers need.
type StreamAPI interface {
	Create(ctx context.Context, wallet, title, description, category string, tags []string) (*services.StreamInfo, error)
	Start(ctx context.Context, wallet string) (*models.StreamSession, error)
	Stop(ctx context.Context, wallet string) error
	Update(ctx context.Context, wallet string, updates models.CreatorProfile) (*models.CreatorProfile, error)
	Delete(ctx context.Context, wallet string) error
	ForceDelete(ctx context.Context, wallet string) error
	ResolvePlayback(ctx context.Context, playbackID string) (*services.PlaybackResult, error)
}

type StreamController struct {
	streams StreamAPI
}

func NewStreamController(streams StreamAPI) *StreamController {
	return &StreamController{streams: streams}
}

type createStreamRequest struct {
	Title       string   `json:"title" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

func (ctrl *StreamController) Create(c *gin.Context) {
	var req createStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	info, err := ctrl.streams.Create(c.Request.Context(), c.GetString(walletKey),
		req.Title, req.Description, req.Category, req.Tags)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, info)
}

func (ctrl *StreamController) Start(c *gin.Context) {
	session, err := ctrl.streams.Start(c.Request.Context(), c.GetString(walletKey))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, session)
}

func (ctrl *StreamController) Stop(c *gin.Context) {
	if err := ctrl.streams.Stop(c.Request.Context(), c.GetString(walletKey)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

type updateStreamRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Thumbnail   string   `json:"thumbnail"`
}

func (ctrl *StreamController) Update(c *gin.Context) {
	var req updateStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	creator, err := ctrl.streams.Update(c.Request.Context(), c.GetString(walletKey), models.CreatorProfile{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Tags:        req.Tags,
		Thumbnail:   req.Thumbnail,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, creator)
}

func (ctrl *StreamController) Delete(c *gin.Context) {
	if err := ctrl.streams.Delete(c.Request.Context(), c.GetString(walletKey)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (ctrl *StreamController) ForceDelete(c *gin.Context) {
	if err := ctrl.streams.ForceDelete(c.Request.Context(), c.GetString(walletKey)); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (ctrl *StreamController) Playback(c *gin.Context) {
	result, err := ctrl.streams.ResolvePlayback(c.Request.Context(), c.Param("playbackId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, result)
}
