package loans

import (
	"context"
	"database/sql"
	"strings"
	"time"

	ulid "github.com/oklog/ulid/v2"
)

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type IDGen interface {
	New() string
}

type ulidGen struct{}

func (ulidGen) New() string { return ulid.Make().String() }

type loanStore interface {
	CreateLoan(ctx context.Context, m *Loan, equipmentIDs []string, requestedTotal int64) ([]Item, error)
	ReturnLoan(ctx context.Context, in ReturnLoanRequest) error
	ListLoans(ctx context.Context) ([]Loan, map[string][]Item, error)
	GetLoan(ctx context.Context, id string) (*Loan, []Item, error)
}

type Service struct {
	store loanStore
	clock Clock
	id    IDGen
}

func NewService(db *sql.DB) *Service {
	return &Service{store: NewStore(db), clock: realClock{}, id: ulidGen{}}
}

// Create opens a loan. The store does the heavy lifting in one transaction;
// here we validate shape, default the date to today and generate an id when
// the caller did not bring one.
func (s *Service) Create(ctx context.Context, req CreateLoanRequest) (LoanResponse, error) {
	if strings.TrimSpace(req.EmployeeID) == "" {
		return LoanResponse{}, ErrInvalid("employeeId is required")
	}
	if len(req.Items) == 0 {
		return LoanResponse{}, ErrInvalid("a loan needs at least one item")
	}
	if req.TotalValue < 0 {
		return LoanResponse{}, ErrInvalid("totalValue must be >= 0")
	}

	equipmentIDs := make([]string, 0, len(req.Items))
	seen := make(map[string]struct{}, len(req.Items))
	for _, it := range req.Items {
		id := strings.TrimSpace(it.EquipmentID)
		if id == "" {
			return LoanResponse{}, ErrInvalid("items[].equipmentId is required")
		}
		if _, dup := seen[id]; dup {
			return LoanResponse{}, ErrInvalid("duplicate equipment in items: " + id)
		}
		seen[id] = struct{}{}
		equipmentIDs = append(equipmentIDs, id)
	}

	m := &Loan{
		ID:          strings.TrimSpace(req.ID),
		Date:        strings.TrimSpace(req.Date),
		EmployeeID:  req.EmployeeID,
		GeneratedBy: req.GeneratedBy,
		Status:      StatusOpen,
	}
	if m.ID == "" {
		m.ID = s.id.New()
	}
	if m.Date == "" {
		m.Date = s.clock.Now().Format("2006-01-02")
	}
	if req.Observations != "" {
		m.Observations = sql.NullString{String: req.Observations, Valid: true}
	}
	if req.Signature != nil && *req.Signature != "" {
		m.Signature = sql.NullString{String: *req.Signature, Valid: true}
	}

	items, err := s.store.CreateLoan(ctx, m, equipmentIDs, req.TotalValue)
	if err != nil {
		return LoanResponse{}, err
	}
	return buildLoanResponse(m, items), nil
}

// Return closes an open loan and releases its equipment. Closing an already
// returned loan is a conflict.
func (s *Service) Return(ctx context.Context, req ReturnLoanRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return ErrInvalid("id is required")
	}
	if strings.TrimSpace(req.ReturnDate) == "" || strings.TrimSpace(req.ReceivedBy) == "" {
		return ErrInvalid("returnDate and receivedBy are required")
	}
	return s.store.ReturnLoan(ctx, req)
}

// List returns every loan newest-first with its snapshots.
func (s *Service) List(ctx context.Context) ([]LoanResponse, error) {
	ls, itemsByLoan, err := s.store.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]LoanResponse, 0, len(ls))
	for i := range ls {
		out = append(out, buildLoanResponse(&ls[i], itemsByLoan[ls[i].ID]))
	}
	return out, nil
}

// Get returns a single loan, used by the receipt generator.
func (s *Service) Get(ctx context.Context, id string) (LoanResponse, error) {
	if strings.TrimSpace(id) == "" {
		return LoanResponse{}, ErrInvalid("id is required")
	}
	m, items, err := s.store.GetLoan(ctx, id)
	if err != nil {
		return LoanResponse{}, err
	}
	return buildLoanResponse(m, items), nil
}

func buildLoanResponse(m *Loan, items []Item) LoanResponse {
	resp := LoanResponse{
		ID:         m.ID,
		Date:       m.Date,
		EmployeeID: m.EmployeeID,
		EmployeeSnapshot: EmployeeSnapshot{
			ID:    m.EmployeeID,
			Name:  m.EmpName,
			Rut:   m.EmpRut,
			Area:  m.EmpArea,
			Shift: m.EmpShift,
		},
		Items:              make([]LoanItem, 0, len(items)),
		Observations:       m.Observations.String,
		TotalValue:         m.TotalValue,
		Status:             m.Status,
		GeneratedBy:        m.GeneratedBy,
		Signature:          nullStrPtr(m.Signature),
		ReturnDate:         nullStrPtr(m.ReturnDate),
		ReceivedBy:         nullStrPtr(m.ReceivedBy),
		ReturnObservations: nullStrPtr(m.ReturnObservations),
		ReturnSignature:    nullStrPtr(m.ReturnSignature),
	}
	for _, it := range items {
		resp.Items = append(resp.Items, LoanItem{
			EquipmentID: it.EquipmentID,
			Quantity:    it.Quantity,
			EquipmentSnapshot: EquipmentSnapshot{
				ID:          it.EquipmentID,
				Serial:      it.Serial,
				Type:        it.Type,
				Brand:       it.Brand,
				Model:       it.Model,
				Value:       it.Value,
				Status:      it.Status,
				Description: it.Description,
			},
		})
	}
	return resp
}

func nullStrPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
