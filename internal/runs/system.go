package runs

import (
	"context"

	"github.com/google/uuid"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/pagination"
)

// System defines pipeline run persistence. Stage results are append-only;
// state changes only move forward and stop at a terminal state.
type System interface {
	Handler() *Handler
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Run], error)
	Find(ctx context.Context, id uuid.UUID) (*Run, error)
	Recent(ctx context.Context, n int) ([]Run, error)
	Begin(ctx context.Context, emailID string) (*Run, error)
	RecordStage(ctx context.Context, id uuid.UUID, result StageResult, state State) error
	Finish(ctx context.Context, id uuid.UUID, state State, reason string) (*Run, error)
	Summarize(ctx context.Context) (*Summary, error)
}
