package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lexintel-lab/themis/pkg/domain/model"
	"github.com/lexintel-lab/themis/pkg/domain/types"
	"github.com/lexintel-lab/themis/pkg/utils/errutil"
	"github.com/m-mizutani/goerr/v2"
)

// statusForError maps the error taxonomy to HTTP status codes
func statusForError(err error) int {
	switch {
	case goerr.HasTag(err, types.ErrTagValidation):
		return http.StatusBadRequest
	case goerr.HasTag(err, types.ErrTagNotFound):
		return http.StatusNotFound
	case goerr.HasTag(err, types.ErrTagTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data) //nolint:errcheck // header already committed
}

type ingestRequest struct {
	ID       string            `json:"id"`
	Type     string            `json:"type"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type ingestResponse struct {
	DocumentID  string `json:"document_id"`
	AttemptID   string `json:"attempt_id"`
	TypeFlagged bool   `json:"type_flagged,omitempty"`
}

func (s *Server) ingestHandler(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	doc := &model.Document{
		ID:       types.DocumentID(req.ID),
		Type:     types.DocumentType(req.Type).Normalize(),
		Content:  req.Content,
		Metadata: req.Metadata,
	}

	handle, err := s.uc.Ingest(r.Context(), doc)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusForError(err))
		return
	}

	respondJSON(w, r, http.StatusAccepted, ingestResponse{
		DocumentID:  handle.DocumentID.String(),
		AttemptID:   handle.AttemptID.String(),
		TypeFlagged: doc.TypeFlagged,
	})
}

type similarityItem struct {
	DocumentID      string  `json:"document_id"`
	Distance        float64 `json:"distance"`
	SimilarityScore float64 `json:"similarity_score"`
}

type forecastPointItem struct {
	Timestamp      time.Time `json:"timestamp"`
	PointEstimate  float64   `json:"point_estimate"`
	StandardError  float64   `json:"standard_error"`
	ConfidenceLow  float64   `json:"confidence_low"`
	ConfidenceHigh float64   `json:"confidence_high"`
}

type forecastBody struct {
	Horizon         int                 `json:"horizon"`
	ConfidenceLevel float64             `json:"confidence_level"`
	Points          []forecastPointItem `json:"points"`
}

type recordResponse struct {
	DocumentID       string            `json:"document_id"`
	AttemptID        string            `json:"attempt_id"`
	Summary          string            `json:"summary,omitempty"`
	ExtractedFields  map[string]any    `json:"extracted_fields,omitempty"`
	IsUrgent         bool              `json:"is_urgent"`
	UrgencyNote      string            `json:"urgency_note,omitempty"`
	Forecast         *forecastBody     `json:"forecast,omitempty"`
	SimilarDocuments []similarityItem  `json:"similar_documents"`
	SimilarityStatus string            `json:"similarity_status"`
	FieldStatus      map[string]string `json:"field_status"`
	OverallStatus    string            `json:"overall_status"`
	State            string            `json:"state"`
	CreatedAt        time.Time         `json:"created_at"`
}

func buildRecordResponse(record *model.DocumentIntelligenceRecord) recordResponse {
	resp := recordResponse{
		DocumentID:       record.DocumentID.String(),
		AttemptID:        record.AttemptID.String(),
		Summary:          record.Summary,
		IsUrgent:         record.IsUrgent,
		UrgencyNote:      record.UrgencyNote,
		SimilarDocuments: make([]similarityItem, 0, len(record.SimilarDocuments)),
		SimilarityStatus: record.SimilarityStatus.String(),
		FieldStatus:      make(map[string]string, len(record.FieldStatus)),
		OverallStatus:    record.OverallStatus.String(),
		State:            record.State.String(),
		CreatedAt:        record.CreatedAt,
	}

	if len(record.ExtractedFields) > 0 {
		resp.ExtractedFields = make(map[string]any, len(record.ExtractedFields))
		for name, v := range record.ExtractedFields {
			if v.Kind == model.FieldKindStringList {
				resp.ExtractedFields[name] = v.List
			} else {
				resp.ExtractedFields[name] = v.Text
			}
		}
	}

	if record.Forecast != nil {
		fb := &forecastBody{
			Horizon:         record.Forecast.Horizon,
			ConfidenceLevel: record.Forecast.ConfidenceLevel,
			Points:          make([]forecastPointItem, len(record.Forecast.Points)),
		}
		for i, p := range record.Forecast.Points {
			fb.Points[i] = forecastPointItem{
				Timestamp:      p.Timestamp,
				PointEstimate:  p.PointEstimate,
				StandardError:  p.StandardError,
				ConfidenceLow:  p.ConfidenceLow,
				ConfidenceHigh: p.ConfidenceHigh,
			}
		}
		resp.Forecast = fb
	}

	for _, sd := range record.SimilarDocuments {
		resp.SimilarDocuments = append(resp.SimilarDocuments, similarityItem{
			DocumentID:      sd.CandidateID.String(),
			Distance:        sd.Distance,
			SimilarityScore: sd.SimilarityScore,
		})
	}

	for op, st := range record.FieldStatus {
		resp.FieldStatus[op.String()] = st.String()
	}

	return resp
}

func (s *Server) recordHandler(w http.ResponseWriter, r *http.Request) {
	id := types.DocumentID(chi.URLParam(r, "id"))

	record, err := s.uc.GetRecord(r.Context(), id)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusForError(err))
		return
	}

	respondJSON(w, r, http.StatusOK, buildRecordResponse(record))
}

type similarResponse struct {
	DocumentID string           `json:"document_id"`
	Results    []similarityItem `json:"results"`
}

func (s *Server) similarHandler(w http.ResponseWriter, r *http.Request) {
	id := types.DocumentID(chi.URLParam(r, "id"))

	k := 0
	if raw := r.URL.Query().Get("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			errutil.HandleHTTP(r.Context(), w,
				errors.New("query parameter k must be a positive integer"), http.StatusBadRequest)
			return
		}
		k = parsed
	}

	results, err := s.uc.SimilarDocuments(r.Context(), id, k)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusForError(err))
		return
	}

	resp := similarResponse{
		DocumentID: id.String(),
		Results:    make([]similarityItem, len(results)),
	}
	for i, sd := range results {
		resp.Results[i] = similarityItem{
			DocumentID:      sd.CandidateID.String(),
			Distance:        sd.Distance,
			SimilarityScore: sd.SimilarityScore,
		}
	}

	respondJSON(w, r, http.StatusOK, resp)
}

type clusterRequest struct {
	DocumentIDs []string `json:"document_ids"`
	Threshold   float64  `json:"threshold"`
}

type clusterPairItem struct {
	A          string  `json:"a"`
	B          string  `json:"b"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
}

type clusterItem struct {
	Members []string          `json:"members"`
	Pairs   []clusterPairItem `json:"pairs"`
}

type clusterResponse struct {
	Threshold float64       `json:"threshold"`
	Clusters  []clusterItem `json:"clusters"`
}

func (s *Server) clusterHandler(w http.ResponseWriter, r *http.Request) {
	var req clusterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "invalid request body"), http.StatusBadRequest)
		return
	}

	ids := make([]types.DocumentID, len(req.DocumentIDs))
	for i, raw := range req.DocumentIDs {
		ids[i] = types.DocumentID(raw)
	}

	clusters, err := s.uc.ClusterDocuments(r.Context(), ids, req.Threshold)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, err, statusForError(err))
		return
	}

	resp := clusterResponse{
		Threshold: req.Threshold,
		Clusters:  make([]clusterItem, len(clusters)),
	}
	for i, c := range clusters {
		item := clusterItem{
			Members: make([]string, len(c.Members)),
			Pairs:   make([]clusterPairItem, len(c.Pairs)),
		}
		for j, m := range c.Members {
			item.Members[j] = m.String()
		}
		for j, p := range c.Pairs {
			item.Pairs[j] = clusterPairItem{
				A:          p.A.String(),
				B:          p.B.String(),
				Distance:   p.Distance,
				Similarity: p.Similarity,
			}
		}
		resp.Clusters[i] = item
	}

	respondJSON(w, r, http.StatusOK, resp)
}
