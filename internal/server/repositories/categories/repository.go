// Package categories persists the browse-page category lookup table.
package categories

import (
	"context"

	"github.com/streamfi/streamfi/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, category *models.Category) (*models.Category, error)
	GetByTitle(ctx context.Context, title string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}
