package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/pagination"
)

// System defines ledger storage operations. Write is idempotent per
// reference email id; status transitions happen only through Post and
// Reject so that every transition is an explicit, logged operation.
type System interface {
	Handler() *Handler
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Entry], error)
	Find(ctx context.Context, id uuid.UUID) (*Entry, error)
	FindByEmail(ctx context.Context, emailID string) (*Entry, error)
	Write(ctx context.Context, entry *Entry) (*Entry, error)
	Post(ctx context.Context, id uuid.UUID) (*Entry, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*Entry, error)
	Summarize(ctx context.Context) (*Summary, error)
}
