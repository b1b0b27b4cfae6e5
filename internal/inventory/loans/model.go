package loans

import (
	"database/sql"
	"time"
)

const (
	StatusOpen     = "open"
	StatusReturned = "returned"
)

// Loan is one row of the loans table, employee snapshot included.
type Loan struct {
	ID                 string
	Date               string
	EmployeeID         string
	EmpName            string
	EmpRut             string
	EmpArea            string
	EmpShift           string
	Observations       sql.NullString
	TotalValue         int64
	Status             string
	Signature          sql.NullString
	GeneratedBy        string
	ReturnDate         sql.NullString
	ReceivedBy         sql.NullString
	ReturnObservations sql.NullString
	ReturnSignature    sql.NullString
	CreatedAt          time.Time
}

// Item is one row of the loan_items table with its frozen equipment snapshot.
type Item struct {
	LoanID      string
	EquipmentID string
	Quantity    int
	Serial      string
	Type        string
	Brand       string
	Model       string
	Value       int64
	Status      string
	Description string
}
