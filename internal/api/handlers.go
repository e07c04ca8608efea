package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/expenseflow/ledger-match/internal/common"
	"github.com/expenseflow/ledger-match/internal/model"
	"github.com/expenseflow/ledger-match/internal/service"
)

// handlers serves all API endpoints against the storage layer.
type handlers struct {
	storage service.Storage
}

func (h *handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (h *handlers) writeError(w http.ResponseWriter, status int, apiErr APIError) {
	h.writeJSON(w, status, apiErr)
}

// writeStorageError maps storage errors onto HTTP statuses.
func (h *handlers) writeStorageError(w http.ResponseWriter, err error, resource string) {
	var conflict *common.ExclusivityConflictError
	switch {
	case errors.Is(err, common.ErrNotFound):
		h.writeError(w, http.StatusNotFound, notFoundError(resource))
	case errors.As(err, &conflict):
		h.writeError(w, http.StatusConflict, conflictError(conflict.Error()))
	default:
		h.writeError(w, http.StatusInternalServerError, internalError())
	}
}

func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// Health handles GET /health.
func (h *handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetReviewQueue handles GET /api/review.
func (h *handlers) GetReviewQueue(w http.ResponseWriter, r *http.Request) {
	items, err := h.storage.GetReviewQueue(r.Context())
	if err != nil {
		h.writeStorageError(w, err, "review queue")
		return
	}

	resp := ReviewQueueResponse{
		Items:      make([]ReviewItemResponse, 0, len(items)),
		TotalCount: len(items),
	}
	for i := range items {
		item := ReviewItemResponse{
			Result:   toMatchResultResponse(&items[i].Result),
			Document: toDocumentResponse(&items[i].Document),
		}
		if items[i].Transaction != nil {
			txn := toTransactionResponse(items[i].Transaction)
			item.Transaction = &txn
		}
		resp.Items = append(resp.Items, item)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// ListMatches handles GET /api/matches?status=.
func (h *handlers) ListMatches(w http.ResponseWriter, r *http.Request) {
	status := model.MatchStatus(r.URL.Query().Get("status"))
	switch status {
	case model.MatchPendingReview, model.MatchAccepted, model.MatchRejected, model.MatchUnmatched:
	case "":
		h.writeError(w, http.StatusBadRequest, badRequestError("status query parameter is required"))
		return
	default:
		h.writeError(w, http.StatusBadRequest, badRequestError("unknown status: "+string(status)))
		return
	}

	results, err := h.storage.GetMatchResultsByStatus(r.Context(), status)
	if err != nil {
		h.writeStorageError(w, err, "matches")
		return
	}

	resp := MatchListResponse{
		Results:    make([]MatchResultResponse, 0, len(results)),
		TotalCount: len(results),
	}
	for i := range results {
		resp.Results = append(resp.Results, toMatchResultResponse(&results[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetMatch handles GET /api/matches/{id}.
func (h *handlers) GetMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.storage.GetMatchResultByID(r.Context(), id)
	if err != nil {
		h.writeStorageError(w, err, "match")
		return
	}
	h.writeJSON(w, http.StatusOK, toMatchResultResponse(result))
}

// AcceptMatch handles POST /api/matches/{id}/accept.
func (h *handlers) AcceptMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.storage.AcceptMatch(r.Context(), id); err != nil {
		h.writeStorageError(w, err, "match")
		return
	}
	result, err := h.storage.GetMatchResultByID(r.Context(), id)
	if err != nil {
		h.writeStorageError(w, err, "match")
		return
	}
	h.writeJSON(w, http.StatusOK, toMatchResultResponse(result))
}

// RejectMatch handles POST /api/matches/{id}/reject.
func (h *handlers) RejectMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.storage.RejectMatch(r.Context(), id); err != nil {
		h.writeStorageError(w, err, "match")
		return
	}
	result, err := h.storage.GetMatchResultByID(r.Context(), id)
	if err != nil {
		h.writeStorageError(w, err, "match")
		return
	}
	h.writeJSON(w, http.StatusOK, toMatchResultResponse(result))
}

// ReassignMatch handles POST /api/matches/{id}/reassign.
func (h *handlers) ReassignMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ReassignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, badRequestError("invalid JSON body"))
		return
	}
	if req.TransactionID == "" {
		h.writeError(w, http.StatusBadRequest, badRequestError("transaction_id is required"))
		return
	}

	if err := h.storage.ReassignMatch(r.Context(), id, req.TransactionID); err != nil {
		h.writeStorageError(w, err, "match")
		return
	}
	result, err := h.storage.GetMatchResultByID(r.Context(), id)
	if err != nil {
		h.writeStorageError(w, err, "match")
		return
	}
	h.writeJSON(w, http.StatusOK, toMatchResultResponse(result))
}

// ListDocuments handles GET /api/documents.
func (h *handlers) ListDocuments(w http.ResponseWriter, r *http.Request) {
	filter := service.DocumentFilter{
		Limit:  parseIntParam(r, "limit", 50),
		Offset: parseIntParam(r, "offset", 0),
	}
	if t := r.URL.Query().Get("type"); t != "" {
		docType := model.DocumentType(t)
		filter.Type = &docType
	}

	docs, err := h.storage.ListDocuments(r.Context(), filter)
	if err != nil {
		h.writeStorageError(w, err, "documents")
		return
	}

	resp := make([]DocumentResponse, 0, len(docs))
	for i := range docs {
		resp = append(resp, toDocumentResponse(&docs[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetDocument handles GET /api/documents/{id}.
func (h *handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	doc, err := h.storage.GetDocumentByID(r.Context(), id)
	if err != nil {
		h.writeStorageError(w, err, "document")
		return
	}
	h.writeJSON(w, http.StatusOK, toDocumentResponse(doc))
}

// GetDocumentMatch handles GET /api/documents/{id}/match.
func (h *handlers) GetDocumentMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	result, err := h.storage.GetMatchResultForDocument(r.Context(), id)
	if err != nil {
		h.writeStorageError(w, err, "match")
		return
	}
	h.writeJSON(w, http.StatusOK, toMatchResultResponse(result))
}

// AddCorrection handles POST /api/documents/{id}/corrections.
func (h *handlers) AddCorrection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req CorrectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, badRequestError("invalid JSON body"))
		return
	}
	if req.Field == "" || req.NewValue == "" {
		h.writeError(w, http.StatusBadRequest, badRequestError("field and new_value are required"))
		return
	}

	correction := &model.Correction{
		DocumentID:  id,
		Field:       req.Field,
		OldValue:    req.OldValue,
		NewValue:    req.NewValue,
		CorrectedBy: req.CorrectedBy,
		CorrectedAt: time.Now().UTC(),
	}
	if err := h.storage.AppendCorrection(r.Context(), correction); err != nil {
		h.writeStorageError(w, err, "document")
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}
