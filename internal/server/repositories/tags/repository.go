// Package tags persists the tag lookup table.
package tags

import (
	"context"

	"github.com/streamfi/streamfi/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, tag *models.Tag) (*models.Tag, error)
	GetByName(ctx context.Context, name string) (*models.Tag, error)
	List(ctx context.Context, visibleOnly bool) ([]*models.Tag, error)
	Update(ctx context.Context, tag *models.Tag) error
	Delete(ctx context.Context, id string) error
}
