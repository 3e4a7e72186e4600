package directory

import "context"

// Directory is a remote catalogue of titles.
type Directory interface {
	// FetchByID returns the full record for an IMDb identifier.
	FetchByID(ctx context.Context, id string) (*FullRecord, error)
	// Search returns one page of titles matching query. Pages start at 1.
	Search(ctx context.Context, query string, page int) (*SearchPage, error)
}

// Provider is a Directory that can describe and probe itself.
type Provider interface {
	Directory
	Name() string
	IsConfigured() bool
	Test(ctx context.Context) error
}
