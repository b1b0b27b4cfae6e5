package equipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ===== Error model =====

type Code string

const (
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	CodeNotFound        Code = "NOT_FOUND"
	CodeInternal        Code = "INTERNAL"
)

type APIError struct {
	Code    Code
	Message string
}

func (e *APIError) Error() string      { return fmt.Sprintf("%s: %s", e.Code, e.Message) }
func ErrInvalid(msg string) *APIError  { return &APIError{Code: CodeInvalidArgument, Message: msg} }
func ErrNotFound(msg string) *APIError { return &APIError{Code: CodeNotFound, Message: msg} }

func toHTTPStatus(err error) int {
	var api *APIError
	if errors.As(err, &api) {
		switch api.Code {
		case CodeInvalidArgument:
			return 400
		case CodeNotFound:
			return 404
		default:
			return 500
		}
	}
	return 500
}

type equipmentStore interface {
	List(ctx context.Context) ([]Equipment, error)
	Upsert(ctx context.Context, e Equipment) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store equipmentStore
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

// List returns every unit ordered by type.
func (s *Service) List(ctx context.Context) ([]Equipment, error) {
	return s.store.List(ctx)
}

// Upsert inserts or fully updates a unit keyed by id. Omitted status defaults
// to "available". Serial uniqueness is a business expectation, not a schema
// constraint, so duplicates are accepted here.
func (s *Service) Upsert(ctx context.Context, in UpsertEquipmentRequest) (Equipment, error) {
	if strings.TrimSpace(in.ID) == "" || strings.TrimSpace(in.Serial) == "" || strings.TrimSpace(in.Type) == "" {
		return Equipment{}, ErrInvalid("id, serial, type are required")
	}
	if in.Value < 0 {
		return Equipment{}, ErrInvalid("value must be >= 0")
	}

	e := Equipment{
		ID:          in.ID,
		Serial:      in.Serial,
		Type:        in.Type,
		Brand:       in.Brand,
		Model:       in.Model,
		Value:       in.Value,
		Status:      StatusAvailable,
		Description: in.Description,
	}
	if in.Status != nil && *in.Status != "" {
		if _, ok := validStatuses[*in.Status]; !ok {
			return Equipment{}, ErrInvalid("status must be one of available, loaned, maintenance, retired")
		}
		e.Status = *in.Status
	}

	if err := s.store.Upsert(ctx, e); err != nil {
		return Equipment{}, err
	}
	return e, nil
}

// Delete removes the row. Historical loans keep their own snapshot of the
// unit, so no cascade guard is needed.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalid("id is required")
	}
	return s.store.Delete(ctx, id)
}
