package site

import "context"

type SiteRepository interface {
	GetByID(ctx context.Context, id string) (Site, error)
}
