package audit

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"github.com/lexintel-lab/themis/pkg/domain/interfaces"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
)

// Archiver preserves raw model output in Cloud Storage so parse failures
// can be replayed later. Objects are keyed by document, operation and
// attempt; rewriting the same attempt overwrites the same object.
type Archiver struct {
	client *storage.Client
	bucket string
}

var _ interfaces.Archiver = (*Archiver)(nil)

// New creates an archiver writing into the given bucket
func New(ctx context.Context, bucket string) (*Archiver, error) {
	if bucket == "" {
		return nil, goerr.New("archive bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage client",
			goerr.V("bucket", bucket))
	}

	return &Archiver{client: client, bucket: bucket}, nil
}

// objectName builds the deterministic object key for one attempt
func objectName(id types.DocumentID, op types.Operation, attempt types.AttemptID) string {
	return fmt.Sprintf("raw/%s/%s/%s.txt", id, op, attempt)
}

// ArchiveRawOutput stores the verbatim model output for one operation attempt
func (a *Archiver) ArchiveRawOutput(ctx context.Context, id types.DocumentID, op types.Operation, attempt types.AttemptID, raw string) error {
	obj := a.client.Bucket(a.bucket).Object(objectName(id, op, attempt))

	w := obj.NewWriter(ctx)
	w.ContentType = "text/plain; charset=utf-8"

	if _, err := w.Write([]byte(raw)); err != nil {
		_ = w.Close()
		return goerr.Wrap(err, "failed to write archive object",
			goerr.V("bucket", a.bucket), goerr.V("object", obj.ObjectName()))
	}
	if err := w.Close(); err != nil {
		return goerr.Wrap(err, "failed to finalize archive object",
			goerr.V("bucket", a.bucket), goerr.V("object", obj.ObjectName()))
	}

	return nil
}

// Close releases the underlying storage client
func (a *Archiver) Close() error {
	return a.client.Close()
}
