package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamfi/streamfi/internal/server/models"
)

// CatalogAPI is the category/tag surface the catalog handlers need.
type CatalogAPI interface {
	CreateCategory(ctx context.Context, title, description string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	GetCategory(ctx context.Context, title string) (*models.Category, error)
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id string) error

	CreateTag(ctx context.Context, name string, visible bool) (*models.Tag, error)
	ListTags(ctx context.Context, visibleOnly bool) ([]*models.Tag, error)
	UpdateTag(ctx context.Context, tag *models.Tag) error
	DeleteTag(ctx context.Context, id string) error
}

type CatalogController struct {
	catalog CatalogAPI
}

func NewCatalogController(catalog CatalogAPI) *CatalogController {
	return &CatalogController{catalog: catalog}
}

type categoryRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (ctrl *CatalogController) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	cat, err := ctrl.catalog.CreateCategory(c.Request.Context(), req.Title, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, cat)
}

func (ctrl *CatalogController) ListCategories(c *gin.Context) {
	list, err := ctrl.catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

func (ctrl *CatalogController) GetCategory(c *gin.Context) {
	cat, err := ctrl.catalog.GetCategory(c.Request.Context(), c.Param("title"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, cat)
}

func (ctrl *CatalogController) UpdateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	err := ctrl.catalog.UpdateCategory(c.Request.Context(), &models.Category{
		ID:          c.Param("id"),
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (ctrl *CatalogController) DeleteCategory(c *gin.Context) {
	if err := ctrl.catalog.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

type tagRequest struct {
	Name    string `json:"name" binding:"required"`
	Visible *bool  `json:"visible"`
}

func (r *tagRequest) visible() bool {
	if r.Visible == nil {
		return true
	}
	return *r.Visible
}

func (ctrl *CatalogController) CreateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	tag, err := ctrl.catalog.CreateTag(c.Request.Context(), req.Name, req.visible())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusCreated, tag)
}

func (ctrl *CatalogController) ListTags(c *gin.Context) {
	visibleOnly := c.Query("all") == ""
	list, err := ctrl.catalog.ListTags(c.Request.Context(), visibleOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, list)
}

func (ctrl *CatalogController) UpdateTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorEnvelope{Error: "invalid request body"})
		return
	}

	err := ctrl.catalog.UpdateTag(c.Request.Context(), &models.Tag{
		ID:      c.Param("id"),
		Name:    req.Name,
		Visible: req.visible(),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}

func (ctrl *CatalogController) DeleteTag(c *gin.Context) {
	if err := ctrl.catalog.DeleteTag(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, nil)
}
