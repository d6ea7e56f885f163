package emails

import (
	"context"

	"github.com/harishmarimuthu13022003/finance-agent/pkg/pagination"
)

// System defines the public contract for email domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Email], error)

	Find(ctx context.Context, id string) (*Email, error)
	Ingest(ctx context.Context, raw RawEmail) (*Email, error)
	LoadRaw(ctx context.Context, id string) (*RawEmail, error)
}
