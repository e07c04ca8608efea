package api

import (
	"github.com/expenseflow/ledger-match/internal/model"
)

// APIError is the structured error body returned by every failing endpoint.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	errCodeNotFound   = "not_found"
	errCodeBadRequest = "bad_request"
	errCodeConflict   = "conflict"
	errCodeInternal   = "internal_error"
)

func notFoundError(resource string) APIError {
	return APIError{Code: errCodeNotFound, Message: resource + " not found"}
}

func badRequestError(message string) APIError {
	return APIError{Code: errCodeBadRequest, Message: message}
}

func conflictError(message string) APIError {
	return APIError{Code: errCodeConflict, Message: message}
}

func internalError() APIError {
	return APIError{Code: errCodeInternal, Message: "an internal error occurred"}
}

// DocumentResponse is the API shape of an extracted document. Amounts are
// serialized as strings to keep decimal precision on the wire.
type DocumentResponse struct {
	ID            string             `json:"id"`
	Type          string             `json:"type"`
	Total         string             `json:"total"`
	Currency      string             `json:"currency,omitempty"`
	Date          string             `json:"date"`
	MerchantName  string             `json:"merchant_name"`
	VATAmount     *string            `json:"vat_amount,omitempty"`
	TaxID         string             `json:"tax_id,omitempty"`
	InvoiceNumber string             `json:"invoice_number,omitempty"`
	SourceFile    string             `json:"source_file,omitempty"`
	Confidence    map[string]float64 `json:"confidence,omitempty"`
	UploadedAt    string             `json:"uploaded_at"`
}

// TransactionResponse is the API shape of a bank transaction.
type TransactionResponse struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency,omitempty"`
	AccountID   string `json:"account_id"`
	StatementID string `json:"statement_id,omitempty"`
}

// MatchResultResponse is the API shape of a match result.
type MatchResultResponse struct {
	ID            string  `json:"id"`
	DocumentID    string  `json:"document_id"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Tier          string  `json:"tier,omitempty"`
	Status        string  `json:"status"`
	Reason        string  `json:"reason,omitempty"`
	Confidence    float64 `json:"confidence"`
	ResolvedAt    string  `json:"resolved_at"`
}

// ReviewItemResponse pairs a pending result with its full context.
type ReviewItemResponse struct {
	Result      MatchResultResponse  `json:"result"`
	Document    DocumentResponse     `json:"document"`
	Transaction *TransactionResponse `json:"transaction,omitempty"`
}

// ReviewQueueResponse is the body of GET /api/review.
type ReviewQueueResponse struct {
	Items      []ReviewItemResponse `json:"items"`
	TotalCount int                  `json:"total_count"`
}

// MatchListResponse is the body of GET /api/matches.
type MatchListResponse struct {
	Results    []MatchResultResponse `json:"results"`
	TotalCount int                   `json:"total_count"`
}

// ReassignRequest is the body of POST /api/matches/{id}/reassign.
type ReassignRequest struct {
	TransactionID string `json:"transaction_id"`
}

// CorrectionRequest is the body of POST /api/documents/{id}/corrections.
type CorrectionRequest struct {
	Field       string `json:"field"`
	OldValue    string `json:"old_value"`
	NewValue    string `json:"new_value"`
	CorrectedBy string `json:"corrected_by"`
}

func toDocumentResponse(doc *model.ExtractedDocument) DocumentResponse {
	resp := DocumentResponse{
		ID:            doc.ID,
		Type:          string(doc.Type),
		Total:         doc.Total.StringFixed(2),
		Currency:      doc.Currency,
		MerchantName:  doc.MerchantName,
		TaxID:         doc.TaxID,
		InvoiceNumber: doc.InvoiceNumber,
		SourceFile:    doc.SourceFile,
		Confidence:    doc.Confidence,
		UploadedAt:    doc.UploadedAt.Format("2006-01-02T15:04:05Z"),
	}
	if !doc.Date.IsZero() {
		resp.Date = doc.Date.Format("2006-01-02")
	}
	if doc.VATAmount != nil {
		vat := doc.VATAmount.StringFixed(2)
		resp.VATAmount = &vat
	}
	return resp
}

func toTransactionResponse(txn *model.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:          txn.ID,
		Date:        txn.Date.Format("2006-01-02"),
		Name:        txn.Name,
		Amount:      txn.Amount.StringFixed(2),
		Currency:    txn.Currency,
		AccountID:   txn.AccountID,
		StatementID: txn.StatementID,
	}
}

func toMatchResultResponse(result *model.MatchResult) MatchResultResponse {
	return MatchResultResponse{
		ID:            result.ID,
		DocumentID:    result.DocumentID,
		TransactionID: result.TransactionID,
		Tier:          string(result.Tier),
		Status:        string(result.Status),
		Reason:        string(result.Reason),
		Confidence:    result.Confidence,
		ResolvedAt:    result.ResolvedAt.Format("2006-01-02T15:04:05Z"),
	}
}
