package ports

import (
	"context"

	"redevdash/models"
)

// ProjectRepository defines the persistence operations for pipeline projects
type ProjectRepository interface {
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	Count(ctx context.Context, filter models.ProjectFilter) (int, error)
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	GetByName(ctx context.Context, name string) (*models.Project, error)
	GetByExcelRowID(ctx context.Context, rowID string) (*models.Project, error)

	// Create and Update record an audit row in the same transaction
	Create(ctx context.Context, values models.ProjectValues, meta models.RequestMeta) (*models.Project, error)
	Update(ctx context.Context, id int64, values models.ProjectValues, meta models.RequestMeta) (*models.Project, error)
	SoftDelete(ctx context.Context, id int64, meta models.RequestMeta) (*models.Project, error)

	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
	FilterOptions(ctx context.Context) (*models.FilterOptions, error)
	Ping(ctx context.Context) models.ConnectionStatus
}
