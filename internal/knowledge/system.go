package knowledge

import (
	"context"

	"github.com/google/uuid"

	"github.com/harishmarimuthu13022003/finance-agent/internal/intents"
	"github.com/harishmarimuthu13022003/finance-agent/pkg/pagination"
)

// System defines snippet management and retrieval operations. Query is the
// retrieval surface used during reply generation: for a fixed store snapshot
// and identical arguments it always returns the same ranked snippet set.
type System interface {
	Handler() *Handler
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Snippet], error)
	Find(ctx context.Context, id uuid.UUID) (*Snippet, error)
	Query(ctx context.Context, intent intents.Intent, vendor string, k int) ([]Snippet, error)
	Create(ctx context.Context, cmd CreateCommand) (*Snippet, error)
	Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Snippet, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) (*Snippet, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Snippet, error)
}
