package activity

import "context"

// Logger records audit entries. Log never blocks on storage and never fails the caller.
type Logger interface {
	Log(ctx context.Context, entry Entry)
	Stop()
}
