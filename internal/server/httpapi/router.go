// Package httpapi exposes the platform over REST plus one websocket route
// for chat. Handlers bind requests, call the services, and translate errors
// to statuses in a single place.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Controllers bundles every handler group the router mounts.
type Controllers struct {
	Users        *UserController
	Streams      *StreamController
	Viewers      *ViewerController
	Catalog      *CatalogController
	Verification *VerificationController
	Media        *MediaController
	Chat         *ChatController
}

// NewRouter mounts all routes. Routes touching the caller's own resources
// sit behind the wallet session token; discovery and playback are public.
func NewRouter(secretKey []byte, ctrl Controllers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/users", ctrl.Users.Register)
		api.POST("/users/session", ctrl.Users.IssueSession)
		api.GET("/users/wallet/:wallet", ctrl.Users.GetByWallet)
		api.GET("/users/:username", ctrl.Users.GetByUsername)

		api.GET("/streams/playback/:playbackId", ctrl.Streams.Playback)
		api.POST("/streams/viewers/join", ctrl.Viewers.Join)
		api.POST("/streams/viewers/leave", ctrl.Viewers.Leave)

		api.GET("/categories", ctrl.Catalog.ListCategories)
		api.GET("/categories/:title", ctrl.Catalog.GetCategory)
		api.GET("/tags", ctrl.Catalog.ListTags)

		api.POST("/verification/request", ctrl.Verification.Request)
		api.POST("/verification/confirm", ctrl.Verification.Confirm)
	}

	authed := r.Group("/api", WalletAuth(secretKey))
	{
		authed.PUT("/users", ctrl.Users.UpdateProfile)
		authed.POST("/users/follow/:username", ctrl.Users.Follow)
		authed.DELETE("/users/follow/:username", ctrl.Users.Unfollow)

		authed.POST("/streams", ctrl.Streams.Create)
		authed.POST("/streams/start", ctrl.Streams.Start)
		authed.POST("/streams/stop", ctrl.Streams.Stop)
		authed.PUT("/streams", ctrl.Streams.Update)
		authed.DELETE("/streams", ctrl.Streams.Delete)
		authed.DELETE("/streams/force", ctrl.Streams.ForceDelete)

		authed.POST("/categories", ctrl.Catalog.CreateCategory)
		authed.PUT("/categories/:id", ctrl.Catalog.UpdateCategory)
		authed.DELETE("/categories/:id", ctrl.Catalog.DeleteCategory)
		authed.POST("/tags", ctrl.Catalog.CreateTag)
		authed.PUT("/tags/:id", ctrl.Catalog.UpdateTag)
		authed.DELETE("/tags/:id", ctrl.Catalog.DeleteTag)

		authed.POST("/media/upload-url", ctrl.Media.UploadURL)
		authed.GET("/media/url", ctrl.Media.DownloadURL)
	}

	r.GET("/ws/chat/:playbackId", ctrl.Chat.Connect)

	return r
}
