package repository_test

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/repository/firestore"
	"github.com/lexintel-lab/themis/pkg/repository/memory"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
)

// newFirestoreRepository connects to the test Firestore project, skipping
// when the environment is not configured. Collections are prefixed per
// run to isolate concurrent test executions.
func newFirestoreRepository(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	repo, err := firestore.New(ctx, projectID, databaseID,
		firestore.WithCollectionPrefix(fmt.Sprintf("test-%d-", time.Now().UnixNano())))
	gt.NoError(t, err).Required()
	t.Cleanup(func() {
		gt.NoError(t, repo.Close())
	})
	return repo
}

func newMemoryRepository(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

var docIDSeq int64

// newDocumentID is unique per call so shared Firestore projects never
// see collisions across test runs
func newDocumentID() types.DocumentID {
	return types.DocumentID(fmt.Sprintf("doc-%d-%d", time.Now().UnixNano(), atomic.AddInt64(&docIDSeq, 1)))
}

func runDocumentRepositoryTest(t *testing.T, newRepo func(t *testing.T) interfaces.Repository) {
	t.Helper()

	t.Run("Put and Get roundtrip", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id := newDocumentID()
		stored, err := repo.Document().Put(ctx, &model.Document{
			ID:      id,
			Type:    types.DocumentTypeContract,
			Content: "This agreement is entered into by the parties.",
			Metadata: map[string]string{
				"source": "upload",
			},
		})
		gt.NoError(t, err).Required()
		gt.Value(t, stored.ID).Equal(id)
		gt.Bool(t, stored.CreatedAt.IsZero()).False()

		got, err := repo.Document().Get(ctx, id)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Type).Equal(types.DocumentTypeContract)
		gt.Value(t, got.Content).Equal("This agreement is entered into by the parties.")
		gt.Value(t, got.Metadata["source"]).Equal("upload")
	})

	t.Run("Get of unknown document is a not found error", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		_, err := repo.Document().Get(ctx, newDocumentID())
		gt.Error(t, err)
		gt.Bool(t, goerr.HasTag(err, types.ErrTagNotFound)).True()
	})

	t.Run("re-ingestion supersedes the prior document", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		id := newDocumentID()
		_, err := repo.Document().Put(ctx, &model.Document{
			ID:      id,
			Type:    types.DocumentTypeContract,
			Content: "Original content.",
		})
		gt.NoError(t, err).Required()

		_, err = repo.Document().Put(ctx, &model.Document{
			ID:      id,
			Type:    types.DocumentTypeBrief,
			Content: "Revised content.",
		})
		gt.NoError(t, err).Required()

		got, err := repo.Document().Get(ctx, id)
		gt.NoError(t, err).Required()
		gt.Value(t, got.Type).Equal(types.DocumentTypeBrief)
		gt.Value(t, got.Content).Equal("Revised content.")
	})

	t.Run("List returns newest first and honors the limit", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()

		first := newDocumentID()
		_, err := repo.Document().Put(ctx, &model.Document{
			ID: first, Content: "first",
		})
		gt.NoError(t, err).Required()

		time.Sleep(10 * time.Millisecond)

		second := newDocumentID()
		_, err = repo.Document().Put(ctx, &model.Document{
			ID: second, Content: "second",
		})
		gt.NoError(t, err).Required()

		docs, err := repo.Document().List(ctx, 0)
		gt.NoError(t, err).Required()
		gt.Number(t, len(docs)).GreaterOrEqual(2)
		gt.Value(t, docs[0].ID).Equal(second)
		gt.Value(t, docs[1].ID).Equal(first)

		limited, err := repo.Document().List(ctx, 1)
		gt.NoError(t, err).Required()
		gt.Array(t, limited).Length(1)
		gt.Value(t, limited[0].ID).Equal(second)
	})
}

func TestMemoryDocumentRepository(t *testing.T) {
	runDocumentRepositoryTest(t, newMemoryRepository)
}

func TestFirestoreDocumentRepository(t *testing.T) {
	runDocumentRepositoryTest(t, newFirestoreRepository)
}
