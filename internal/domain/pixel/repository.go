package pixel

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no pixel exists under the requested id.
var ErrNotFound = errors.New("pixel not found")

// Repository is the persistence boundary for pixels and their open events.
// List and count operations consume a single page of the underlying store
// and report whether that page covered the whole namespace; callers never
// chase continuations.
type Repository interface {
	SaveMeta(ctx context.Context, meta *Meta) error
	FindMeta(ctx context.Context, id string) (*Meta, error)
	AppendEvent(ctx context.Context, id string, event *Event) error
	ListEvents(ctx context.Context, id string, limit int) ([]*Event, bool, error)
	CountEvents(ctx context.Context, id string, limit int) (int64, bool, error)
	ListPixelIDs(ctx context.Context, limit int) ([]string, bool, error)
}
