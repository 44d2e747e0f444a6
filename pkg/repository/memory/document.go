package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

type documentRepository struct {
	mu        sync.RWMutex
	documents map[types.DocumentID]*model.Document
}

func newDocumentRepository() *documentRepository {
	return &documentRepository{
		documents: make(map[types.DocumentID]*model.Document),
	}
}

// copyDocument creates a deep copy of a document
func copyDocument(d *model.Document) *model.Document {
	copied := &model.Document{
		ID:          d.ID,
		Type:        d.Type,
		Content:     d.Content,
		CreatedAt:   d.CreatedAt,
		TypeFlagged: d.TypeFlagged,
	}

	if d.Metadata != nil {
		copied.Metadata = make(map[string]string, len(d.Metadata))
		for k, v := range d.Metadata {
			copied.Metadata[k] = v
		}
	}

	return copied
}

func (r *documentRepository) Put(ctx context.Context, doc *model.Document) (*model.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyDocument(doc)
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	r.documents[stored.ID] = stored
	return copyDocument(stored), nil
}

func (r *documentRepository) Get(ctx context.Context, id types.DocumentID) (*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, exists := r.documents[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "document not found",
			goerr.T(types.ErrTagNotFound), goerr.V("id", id))
	}

	return copyDocument(doc), nil
}

func (r *documentRepository) List(ctx context.Context, limit int) ([]*model.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*model.Document, 0, len(r.documents))
	for _, d := range r.documents {
		all = append(all, copyDocument(d))
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	return all, nil
}
