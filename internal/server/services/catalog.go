package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/streamfi/streamfi/internal/common"
	"github.com/streamfi/streamfi/internal/server/models"
	"github.com/streamfi/streamfi/internal/server/repositories/repomanager"
)

// CatalogService owns the category and tag lookup tables behind the browse
// pages. Titles and names are unique case-insensitively; duplicates are
// rejected before any insert is attempted.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewCatalogService(db *sql.DB, m repomanager.RepositoryManager) *CatalogService {
	return &CatalogService{db: db, repomanager: m}
}

func (s *CatalogService) CreateCategory(ctx context.Context, title, description string) (*models.Category, error) {
	if title == "" || len(title) > maxTitleLen {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", common.ErrorValidation, maxTitleLen)
	}

	repo := s.repomanager.Categories(s.db)

	_, err := repo.GetByTitle(ctx, title)
	if err == nil {
		return nil, fmt.Errorf("%w: category already exists", common.ErrorConflict)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	return repo.Create(ctx, &models.Category{Title: title, Description: description})
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return s.repomanager.Categories(s.db).List(ctx)
}

func (s *CatalogService) GetCategory(ctx context.Context, title string) (*models.Category, error) {
	return s.repomanager.Categories(s.db).GetByTitle(ctx, title)
}

func (s *CatalogService) UpdateCategory(ctx context.Context, category *models.Category) error {
	if category.Title == "" || len(category.Title) > maxTitleLen {
		return fmt.Errorf("%w: title must be 1-%d characters", common.ErrorValidation, maxTitleLen)
	}
	return s.repomanager.Categories(s.db).Update(ctx, category)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return s.repomanager.Categories(s.db).Delete(ctx, id)
}

func (s *CatalogService) CreateTag(ctx context.Context, name string, visible bool) (*models.Tag, error) {
	if name == "" || len(name) > 50 {
		return nil, fmt.Errorf("%w: name must be 1-50 characters", common.ErrorValidation)
	}

	repo := s.repomanager.Tags(s.db)

	_, err := repo.GetByName(ctx, name)
	if err == nil {
		return nil, fmt.Errorf("%w: tag already exists", common.ErrorConflict)
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	return repo.Create(ctx, &models.Tag{Name: name, Visible: visible})
}

func (s *CatalogService) ListTags(ctx context.Context, visibleOnly bool) ([]*models.Tag, error) {
	return s.repomanager.Tags(s.db).List(ctx, visibleOnly)
}

func (s *CatalogService) UpdateTag(ctx context.Context, tag *models.Tag) error {
	if tag.Name == "" || len(tag.Name) > 50 {
		return fmt.Errorf("%w: name must be 1-50 characters", common.ErrorValidation)
	}
	return s.repomanager.Tags(s.db).Update(ctx, tag)
}

func (s *CatalogService) DeleteTag(ctx context.Context, id string) error {
	return s.repomanager.Tags(s.db).Delete(ctx, id)
}
