// Package docstore wraps the remote document database that owns medicine
// records. It holds no business logic; derived statuses are recomputed by
// the inventory service on every read.
package docstore

import (
	"context"
	"errors"

	"github.com/medchain/inventory-api/internal/model"
)

// ErrNotFound is returned by Update when no record has the identifier.
var ErrNotFound = errors.New("docstore: record not found")

// Client is the document store collaborator contract. Create assigns the
// record identifier; Update returns the partial field set it persisted.
// PushHistory is append-only; entries are never removed or reordered.
type Client interface {
	List(ctx context.Context) ([]*model.Medicine, error)
	Create(ctx context.Context, medicine *model.Medicine) (*model.Medicine, error)
	Update(ctx context.Context, id string, fields model.JSONMap) (model.JSONMap, error)
	PushHistory(ctx context.Context, id string, entry model.HistoryEntry) error
}
