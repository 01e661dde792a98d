package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/heartmarshall/json-auditor/internal/domain"
)

const maxEntityIDLength = 256

// SubmitInput is one snapshot of an entity.
type SubmitInput struct {
	EntityID        string
	EntityType      domain.EntityType
	TransactionTime time.Time
	Document        []byte
}

// Key returns the partition the snapshot belongs to.
func (i SubmitInput) Key() domain.PartitionKey {
	return domain.PartitionKey{EntityID: i.EntityID, EntityType: i.EntityType}
}

// Validate checks all fields and collects all errors. JSON syntax is checked
// separately and reported as a malformed input error.
func (i SubmitInput) Validate(maxDocumentBytes int) error {
	errs := validateKey(i.EntityID, i.EntityType)

	if i.TransactionTime.IsZero() {
		errs = append(errs, domain.FieldError{Field: "transaction_time", Message: "required"})
	}
	if len(i.Document) > maxDocumentBytes {
		errs = append(errs, domain.FieldError{
			Field:   "document",
			Message: fmt.Sprintf("exceeds %d bytes", maxDocumentBytes),
		})
	}

	if len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

// QueryInput selects the state of an entity. A nil AsOf means now.
type QueryInput struct {
	EntityID   string
	EntityType domain.EntityType
	AsOf       *time.Time
}

// Key returns the partition being queried.
func (i QueryInput) Key() domain.PartitionKey {
	return domain.PartitionKey{EntityID: i.EntityID, EntityType: i.EntityType}
}

// Validate checks all fields and collects all errors.
func (i QueryInput) Validate() error {
	if errs := validateKey(i.EntityID, i.EntityType); len(errs) > 0 {
		return &domain.ValidationError{Errors: errs}
	}
	return nil
}

func validateKey(entityID string, entityType domain.EntityType) []domain.FieldError {
	var errs []domain.FieldError

	if strings.TrimSpace(entityID) == "" {
		errs = append(errs, domain.FieldError{Field: "entity_id", Message: "required"})
	}
	if len(entityID) > maxEntityIDLength {
		errs = append(errs, domain.FieldError{Field: "entity_id", Message: fmt.Sprintf("max %d characters", maxEntityIDLength)})
	}
	if !entityType.IsValid() {
		errs = append(errs, domain.FieldError{Field: "entity_type", Message: fmt.Sprintf("unknown entity type %d", int(entityType))})
	}
	return errs
}
