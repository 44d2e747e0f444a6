package firestore

import (
	"context"
	"encoding/json"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// recordDoc is the Firestore document representation of
// model.DocumentIntelligenceRecord. The record body is serialized as
// JSON: records are rebuilt whole and only ever read back whole, so no
// field-level queries apply.
type recordDoc struct {
	DocumentID    string    `firestore:"DocumentID"`
	AttemptID     string    `firestore:"AttemptID"`
	OverallStatus string    `firestore:"OverallStatus"`
	State         string    `firestore:"State"`
	BodyJSON      string    `firestore:"BodyJSON"`
	CreatedAt     time.Time `firestore:"CreatedAt"`
}

type recordRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newRecordRepository(client *firestore.Client) *recordRepository {
	return &recordRepository{client: client}
}

func (r *recordRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "records")
}

func (r *recordRepository) Put(ctx context.Context, record *model.DocumentIntelligenceRecord) (*model.DocumentIntelligenceRecord, error) {
	stored := *record
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	body, err := json.Marshal(&stored)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to marshal record",
			goerr.V("document_id", stored.DocumentID))
	}

	doc := &recordDoc{
		DocumentID:    string(stored.DocumentID),
		AttemptID:     string(stored.AttemptID),
		OverallStatus: string(stored.OverallStatus),
		State:         string(stored.State),
		BodyJSON:      string(body),
		CreatedAt:     stored.CreatedAt,
	}

	// Keyed by document ID: the latest attempt replaces the record whole
	if _, err := r.collection().Doc(doc.DocumentID).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to put record",
			goerr.V("document_id", stored.DocumentID))
	}

	return &stored, nil
}

func (r *recordRepository) Get(ctx context.Context, id types.DocumentID) (*model.DocumentIntelligenceRecord, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "record not found",
				goerr.T(types.ErrTagNotFound), goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get record", goerr.V("id", id))
	}

	var d recordDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal record", goerr.V("id", id))
	}

	var record model.DocumentIntelligenceRecord
	if err := json.Unmarshal([]byte(d.BodyJSON), &record); err != nil {
		return nil, goerr.Wrap(err, "failed to decode record body", goerr.V("id", id))
	}

	return &record, nil
}
