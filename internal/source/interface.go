package source

import "context"

// AreaItem is one batch of area names collected for a (city, category) pair.
type AreaItem struct {
	SourceID string // Unique ID within the source
	City     string
	Category string
	Areas    []string
}

// Source defines the interface for bulk location data sources.
type Source interface {
	// GetSourceID returns the unique identifier for this source.
	GetSourceID() string

	// FetchBatch fetches a batch of items starting from the given cursor.
	// Parameters:
	//   - ctx: context for cancellation and deadlines.
	//   - cursor: pagination cursor or empty for first page.
	//   - limit: maximum number of items to fetch.
	// Returns:
	//   - items: batch of area items.
	//   - nextCursor: cursor for the next batch or empty if done.
	//   - err: non-nil if fetching fails.
	FetchBatch(ctx context.Context, cursor string, limit int) (items []AreaItem, nextCursor string, err error)
}
