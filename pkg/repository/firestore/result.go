package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
)

// resultDoc is the Firestore document representation of
// model.GenerativeResult. Parsed is serialized as JSON: the value is a
// discriminated union and is only ever read back whole.
type resultDoc struct {
	DocumentID string        `firestore:"DocumentID"`
	AttemptID  string        `firestore:"AttemptID"`
	Operation  string        `firestore:"Operation"`
	RawOutput  string        `firestore:"RawOutput"`
	ParsedJSON string        `firestore:"ParsedJSON,omitempty"`
	Status     string        `firestore:"Status"`
	Latency    time.Duration `firestore:"Latency"`
	Note       string        `firestore:"Note,omitempty"`
	CreatedAt  time.Time     `firestore:"CreatedAt"`
}

func toResultDoc(res *model.GenerativeResult) (*resultDoc, error) {
	doc := &resultDoc{
		DocumentID: string(res.DocumentID),
		AttemptID:  string(res.AttemptID),
		Operation:  string(res.Operation),
		RawOutput:  res.RawOutput,
		Status:     string(res.Status),
		Latency:    res.Latency,
		Note:       res.Note,
		CreatedAt:  res.CreatedAt,
	}

	if res.Parsed != nil {
		raw, err := json.Marshal(res.Parsed)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to marshal parsed value")
		}
		doc.ParsedJSON = string(raw)
	}

	return doc, nil
}

func fromResultDoc(d *resultDoc) (*model.GenerativeResult, error) {
	res := &model.GenerativeResult{
		DocumentID: types.DocumentID(d.DocumentID),
		AttemptID:  types.AttemptID(d.AttemptID),
		Operation:  types.Operation(d.Operation),
		RawOutput:  d.RawOutput,
		Status:     types.ResultStatus(d.Status),
		Latency:    d.Latency,
		Note:       d.Note,
		CreatedAt:  d.CreatedAt,
	}

	if d.ParsedJSON != "" {
		var parsed model.Value
		if err := json.Unmarshal([]byte(d.ParsedJSON), &parsed); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal parsed value")
		}
		res.Parsed = &parsed
	}

	return res, nil
}

type resultRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newResultRepository(client *firestore.Client) *resultRepository {
	return &resultRepository{client: client}
}

func (r *resultRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "results")
}

func (r *resultRepository) Create(ctx context.Context, result *model.GenerativeResult) (*model.GenerativeResult, error) {
	created := *result
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	doc, err := toResultDoc(&created)
	if err != nil {
		return nil, err
	}

	// One result per (attempt, operation); attempts are never reused
	key := fmt.Sprintf("%s:%s", created.AttemptID, created.Operation)
	if _, err := r.collection().Doc(key).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to create result",
			goerr.V("document_id", created.DocumentID),
			goerr.V("operation", created.Operation))
	}

	return &created, nil
}

func (r *resultRepository) ListByAttempt(ctx context.Context, attemptID types.AttemptID) ([]*model.GenerativeResult, error) {
	return r.list(ctx, r.collection().Where("AttemptID", "==", string(attemptID)))
}

func (r *resultRepository) ListByDocument(ctx context.Context, id types.DocumentID) ([]*model.GenerativeResult, error) {
	return r.list(ctx, r.collection().Where("DocumentID", "==", string(id)))
}

func (r *resultRepository) list(ctx context.Context, query firestore.Query) ([]*model.GenerativeResult, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var results []*model.GenerativeResult
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate results")
		}

		var d resultDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal result")
		}

		res, err := fromResultDoc(&d)
		if err != nil {
			return nil, err
		}

		results = append(results, res)
	}

	return results, nil
}
