package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamfi/streamfi/internal/server/models"
)

// VerificationAPI is the email verification surface.
type VerificationAPI interface {
	Request(ctx context.Context, email string) (*models.VerificationToken, error)
	Confirm(ctx context.Context, email, code string) error
}

type VerificationController struct {
	verification VerificationAPI
	debug        bool
}

func NewVerificationController(verification VerificationAPI, debug bool) *VerificationController {
	return &VerificationController{verification: verification, debug: debug}
}

type verificationRequest struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code"`
}

func (ctrl *VerificationController) Request(c *gin.Context) {
	var req verificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	token, err := ctrl.verification.Request(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	data := gin.H{"expiresAt": token.ExpiresAt}
	if ctrl.debug {
		// Debug deployments have no mail relay; echo the code instead.
		data["code"] = token.Token
	}
	respond(c, http.StatusOK, data)
}

func (ctrl *VerificationController) Confirm(c *gin.Context) {
	var req verificationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	if err := ctrl.verification.Confirm(c.Request.Context(), req.Email, req.Code); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}
