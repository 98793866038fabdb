package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamfi/streamfi/internal/server/models"
)

// UserAPI is the account surface the user handlers need.
type UserAPI interface {
	Register(ctx context.Context, user *models.User) (*models.User, error)
	GetByWallet(ctx context.Context, wallet string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, wallet string, updates *models.User) (*models.User, error)
	Follow(ctx context.Context, wallet, targetUsername string) error
	Unfollow(ctx context.Context, wallet, targetUsername string) error
	IssueSession(ctx context.Context, wallet string) (string, error)
}

type UserController struct {
	users UserAPI
}

func NewUserController(users UserAPI) *UserController {
	return &UserController{users: users}
}

type registerRequest struct {
	Wallet      string            `json:"wallet" binding:"required"`
	Username    string            `json:"username" binding:"required"`
	Email       string            `json:"email"`
	Avatar      string            `json:"avatar"`
	Bio         string            `json:"bio"`
	SocialLinks map[string]string `json:"socialLinks"`
}

func (ctrl *UserController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	user, err := ctrl.users.Register(c.Request.Context(), &models.User{
		Wallet:      req.Wallet,
		Username:    req.Username,
		Email:       req.Email,
		Avatar:      req.Avatar,
		Bio:         req.Bio,
		SocialLinks: req.SocialLinks,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, user)
}

func (ctrl *UserController) GetByWallet(c *gin.Context) {
	user, err := ctrl.users.GetByWallet(c.Request.Context(), c.Param("wallet"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (ctrl *UserController) GetByUsername(c *gin.Context) {
	user, err := ctrl.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

type updateProfileRequest struct {
	Username    string            `json:"username"`
	Email       string            `json:"email"`
	Avatar      string            `json:"avatar"`
	Bio         string            `json:"bio"`
	SocialLinks map[string]string `json:"socialLinks"`
}

func (ctrl *UserController) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	user, err := ctrl.users.UpdateProfile(c.Request.Context(), c.GetString(walletKey), &models.User{
		Username:    req.Username,
		Email:       req.Email,
		Avatar:      req.Avatar,
		Bio:         req.Bio,
		SocialLinks: req.SocialLinks,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, user)
}

func (ctrl *UserController) Follow(c *gin.Context) {
	if err := ctrl.users.Follow(c.Request.Context(), c.GetString(walletKey), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (ctrl *UserController) Unfollow(c *gin.Context) {
	if err := ctrl.users.Unfollow(c.Request.Context(), c.GetString(walletKey), c.Param("username")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

type sessionRequest struct {
	Wallet string `json:"wallet" binding:"required"`
}

// IssueSession exchanges a wallet address for a session token. Wallet
// ownership is established by the wallet-connect flow in front of the API.
func (ctrl *UserController) IssueSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	token, err := ctrl.users.IssueSession(c.Request.Context(), req.Wallet)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"token": token})
}
