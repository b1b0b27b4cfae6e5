package employees

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

type employeeStore interface {
	List(ctx context.Context) ([]Employee, error)
	Upsert(ctx context.Context, e Employee) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	store employeeStore
}

func NewService(db *sql.DB) *Service { return &Service{store: NewStore(db)} }

// List returns every employee ordered by name.
func (s *Service) List(ctx context.Context) ([]Employee, error) {
	return s.store.List(ctx)
}

// Upsert inserts a new employee or updates every field of an existing one,
// keyed by id. Omitted area defaults to "", omitted shift to "A".
func (s *Service) Upsert(ctx context.Context, in UpsertEmployeeRequest) (Employee, error) {
	if strings.TrimSpace(in.ID) == "" || strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Rut) == "" {
		return Employee{}, ErrInvalid("id, name, rut are required")
	}

	e := Employee{
		ID:    in.ID,
		Name:  in.Name,
		Rut:   in.Rut,
		Shift: "A",
	}
	if in.Area != nil {
		e.Area = *in.Area
	}
	if in.Shift != nil && *in.Shift != "" {
		if _, ok := validShifts[*in.Shift]; !ok {
			return Employee{}, ErrInvalid("shift must be one of A, B, C, Administrative")
		}
		e.Shift = *in.Shift
	}

	if err := s.store.Upsert(ctx, e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

// Delete removes the row. Deleting an unknown id is not an error: loan rows
// carry their own employee snapshot, so nothing dangles.
func (s *Service) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrInvalid("id is required")
	}
	return s.store.Delete(ctx, id)
}
