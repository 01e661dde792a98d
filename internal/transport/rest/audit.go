package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/heartmarshall/json-auditor/internal/domain"
	"github.com/heartmarshall/json-auditor/internal/jsonvalue"
	"github.com/heartmarshall/json-auditor/internal/service/audit"
)

// auditService defines the minimal interface needed by AuditHandler.
type auditService interface {
	Submit(ctx context.Context, input audit.SubmitInput) (string, error)
	Query(ctx context.Context, input audit.QueryInput) (jsonvalue.Value, error)
	QueryAll(ctx context.Context, key domain.PartitionKey) ([]domain.AuditRecord, error)
}

// AuditHandler serves the audit REST endpoints.
type AuditHandler struct {
	svc         auditService
	log         *slog.Logger
	maxBodySize int64
}

// NewAuditHandler creates an AuditHandler. maxDocumentBytes bounds the
// submitted document; the request body may be somewhat larger to leave room
// for string escaping and the envelope.
func NewAuditHandler(svc auditService, logger *slog.Logger, maxDocumentBytes int) *AuditHandler {
	return &AuditHandler{
		svc:         svc,
		log:         logger.With("handler", "audit"),
		maxBodySize: 2*int64(maxDocumentBytes) + 64<<10,
	}
}

type submitRequest struct {
	EntityID            string          `json:"entityId"`
	EntityType          json.RawMessage `json:"entityType"`
	TransactionDateTime json.RawMessage `json:"transactionDateTime"`
	Entity              json.RawMessage `json:"entity"`
}

type submitResponse struct {
	AuditID string `json:"auditId"`
}

type recordResponse struct {
	AuditID         string    `json:"auditId"`
	ParentAuditID   *string   `json:"parentAuditId"`
	EntityID        string    `json:"entityId"`
	EntityType      int       `json:"entityType"`
	TransactionTime time.Time `json:"transactionDateTime"`
	AuditTime       time.Time `json:"auditDateTime"`
	AutoResolved    bool      `json:"autoResolved"`
	Record          string    `json:"record"`
}

// Submit handles POST /audit.
func (h *AuditHandler) Submit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var fieldErrs []domain.FieldError

	entityType, err := parseEntityTypeJSON(req.EntityType)
	if err != nil {
		fieldErrs = append(fieldErrs, fieldErrors(err, "entityType")...)
	}
	txTime, err := parseTimeJSON(req.TransactionDateTime)
	if err != nil {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "transactionDateTime", Message: err.Error()})
	}
	document, err := entityDocument(req.Entity)
	if err != nil {
		fieldErrs = append(fieldErrs, domain.FieldError{Field: "entity", Message: err.Error()})
	}
	if len(fieldErrs) > 0 {
		h.handleError(w, r, domain.NewValidationErrors(fieldErrs))
		return
	}

	auditID, err := h.svc.Submit(r.Context(), audit.SubmitInput{
		EntityID:        req.EntityID,
		EntityType:      entityType,
		TransactionTime: txTime,
		Document:        document,
	})
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, submitResponse{AuditID: auditID})
}

// Query handles GET /audit. asOf (or its alias auditTime) selects the
// instant; without it the latest state is returned.
func (h *AuditHandler) Query(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	key, err := partitionFromQuery(q.Get("entityId"), q.Get("entityType"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	input := audit.QueryInput{EntityID: key.EntityID, EntityType: key.EntityType}

	raw := q.Get("asOf")
	if raw == "" {
		raw = q.Get("auditTime")
	}
	if raw != "" {
		t, err := parseTime(raw)
		if err != nil {
			h.handleError(w, r, domain.NewValidationError("asOf", err.Error()))
			return
		}
		input.AsOf = &t
	}

	doc, err := h.svc.Query(r.Context(), input)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(jsonvalue.Marshal(doc)) //nolint:errcheck
}

// QueryAll handles GET /audit/all.
func (h *AuditHandler) QueryAll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	key, err := partitionFromQuery(q.Get("entityId"), q.Get("entityType"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	records, err := h.svc.QueryAll(r.Context(), key)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toRecordResponse(rec))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toRecordResponse(rec domain.AuditRecord) recordResponse {
	return recordResponse{
		AuditID:         rec.AuditID,
		ParentAuditID:   rec.ParentAuditID,
		EntityID:        rec.EntityID,
		EntityType:      int(rec.EntityType),
		TransactionTime: rec.TransactionTime,
		AuditTime:       rec.AuditTime,
		AutoResolved:    rec.AutoResolved,
		Record:          rec.Record,
	}
}

// ---------------------------------------------------------------------------
// Request parsing
// ---------------------------------------------------------------------------

func partitionFromQuery(entityID, entityType string) (domain.PartitionKey, error) {
	key := domain.PartitionKey{EntityID: entityID, EntityType: domain.EntityTypeGeneric}
	if entityType == "" {
		return key, nil
	}
	et, err := domain.ParseEntityType(entityType)
	if err != nil {
		return domain.PartitionKey{}, err
	}
	key.EntityType = et
	return key, nil
}

// parseEntityTypeJSON accepts a code (0) or a name ("Generic"); absent
// means Generic.
func parseEntityTypeJSON(raw json.RawMessage) (domain.EntityType, error) {
	if isAbsent(raw) {
		return domain.EntityTypeGeneric, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	return domain.ParseEntityType(s)
}

// parseTimeJSON accepts an RFC 3339 string or epoch milliseconds, either as
// a number or a numeric string.
func parseTimeJSON(raw json.RawMessage) (time.Time, error) {
	if isAbsent(raw) {
		return time.Time{}, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	return parseTime(s)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.FromMillis(ms), nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("want RFC 3339 or epoch milliseconds, got %q", s)
	}
	return t.UTC(), nil
}

// entityDocument returns the submitted document. A JSON string is taken as
// the serialized document; any other value is the document itself.
func entityDocument(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 {
		return nil, errors.New("required")
	}
	if raw[0] != '"' {
		return raw, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func fieldErrors(err error, field string) []domain.FieldError {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		out := make([]domain.FieldError, 0, len(ve.Errors))
		for _, fe := range ve.Errors {
			out = append(out, domain.FieldError{Field: field, Message: fe.Message})
		}
		return out
	}
	return []domain.FieldError{{Field: field, Message: err.Error()}}
}
