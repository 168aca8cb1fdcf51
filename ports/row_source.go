package ports

import (
	"context"

	"redevdash/domain/pipeline"
)

// RowSource supplies the raw pipeline rows for one aggregation pass.
// Implementations hand out a batch the caller may share but must not mutate.
type RowSource interface {
	Load(ctx context.Context) (pipeline.Batch, error)
	Name() string
}
