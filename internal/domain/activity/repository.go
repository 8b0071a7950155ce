package activity

import "context"

type Repository interface {
	CreateBatch(ctx context.Context, entries []Entry) error
}
