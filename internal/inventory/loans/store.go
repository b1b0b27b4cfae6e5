package loans

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mysql "github.com/go-sql-driver/mysql"

	"equiploan-backend/internal/platform/db"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

const (
	selectEmployeeQ = `SELECT name, rut, area, shift FROM employees WHERE id = ?`

	insertLoanQ = `
	INSERT INTO loans
	(id, loan_date, employee_id, emp_name, emp_rut, emp_area, emp_shift, observations, total_value, status, signature, generated_by)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 'open', ?, ?)`

	selectEquipmentForClaimQ = `
	SELECT serial, type, brand, model, value, status, COALESCE(description, '')
	FROM equipment WHERE id = ? FOR UPDATE`

	claimEquipmentQ = `UPDATE equipment SET status = 'loaned' WHERE id = ? AND status = 'available'`

	insertItemQ = `
	INSERT INTO loan_items
	(loan_id, equipment_id, quantity, eq_serial, eq_type, eq_brand, eq_model, eq_value, eq_status, eq_description)
	VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?, ?)`

	updateLoanTotalQ = `UPDATE loans SET total_value = ? WHERE id = ?`

	closeLoanQ = `
	UPDATE loans
	SET status = 'returned', return_date = ?, received_by = ?, return_observations = ?, return_signature = ?
	WHERE id = ? AND status = 'open'`

	selectLoanStatusQ = `SELECT status FROM loans WHERE id = ?`

	selectItemEquipmentIDsQ = `SELECT equipment_id FROM loan_items WHERE loan_id = ?`

	releaseEquipmentQ = `UPDATE equipment SET status = 'available' WHERE id = ?`

	loanColumns = `id, loan_date, employee_id, emp_name, emp_rut, emp_area, emp_shift,
	observations, total_value, status, signature, generated_by,
	return_date, received_by, return_observations, return_signature, created_at`

	itemColumns = `loan_id, equipment_id, quantity, eq_serial, eq_type, eq_brand, eq_model, eq_value, eq_status, eq_description`
)

// CreateLoan runs the whole creation as one transaction: snapshot the
// employee, insert the loan row, then claim every unit with a conditional
// update and freeze its snapshot into the line item. A unit that is no longer
// available aborts the whole thing, so concurrent creates cannot double-book.
// The stored total is the server-side sum of the claimed values; a non-zero
// requestedTotal that disagrees is rejected.
func (s *Store) CreateLoan(ctx context.Context, m *Loan, equipmentIDs []string, requestedTotal int64) ([]Item, error) {
	var items []Item
	err := db.RunInTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx db.DBTX) error {
		err := tx.QueryRowContext(ctx, selectEmployeeQ, m.EmployeeID).
			Scan(&m.EmpName, &m.EmpRut, &m.EmpArea, &m.EmpShift)
		if err == sql.ErrNoRows {
			return ErrNotFound("employee not found")
		}
		if err != nil {
			return err
		}

		if _, err = tx.ExecContext(ctx, insertLoanQ,
			m.ID, m.Date, m.EmployeeID, m.EmpName, m.EmpRut, m.EmpArea, m.EmpShift,
			m.Observations, m.Signature, m.GeneratedBy,
		); err != nil {
			var me *mysql.MySQLError
			if errors.As(err, &me) && me.Number == 1062 {
				return ErrConflict("loan id already exists")
			}
			return err
		}

		items = make([]Item, 0, len(equipmentIDs))
		var total int64
		for _, eqID := range equipmentIDs {
			it := Item{LoanID: m.ID, EquipmentID: eqID, Quantity: 1}
			err = tx.QueryRowContext(ctx, selectEquipmentForClaimQ, eqID).
				Scan(&it.Serial, &it.Type, &it.Brand, &it.Model, &it.Value, &it.Status, &it.Description)
			if err == sql.ErrNoRows {
				return ErrNotFound(fmt.Sprintf("equipment %s not found", eqID))
			}
			if err != nil {
				return err
			}
			if it.Status != "available" {
				return ErrConflict(fmt.Sprintf("equipment %s is not available", eqID))
			}

			res, err := tx.ExecContext(ctx, claimEquipmentQ, eqID)
			if err != nil {
				return err
			}
			if aff, _ := res.RowsAffected(); aff != 1 {
				return ErrConflict(fmt.Sprintf("equipment %s is not available", eqID))
			}

			if _, err = tx.ExecContext(ctx, insertItemQ,
				it.LoanID, it.EquipmentID, it.Serial, it.Type, it.Brand, it.Model,
				it.Value, it.Status, it.Description,
			); err != nil {
				return err
			}

			total += it.Value
			items = append(items, it)
		}

		if requestedTotal != 0 && requestedTotal != total {
			return ErrInvalid(fmt.Sprintf("totalValue %d does not match the sum of item values %d", requestedTotal, total))
		}

		if _, err = tx.ExecContext(ctx, updateLoanTotalQ, total, m.ID); err != nil {
			return err
		}
		m.TotalValue = total
		m.Status = StatusOpen
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// ReturnLoan closes the loan and releases every unit it references, as one
// transaction. The close is conditional on status='open': returning a loan
// twice is a conflict, not a silent no-op.
func (s *Store) ReturnLoan(ctx context.Context, in ReturnLoanRequest) error {
	return db.RunInTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx db.DBTX) error {
		res, err := tx.ExecContext(ctx, closeLoanQ,
			in.ReturnDate, in.ReceivedBy, in.ReturnObservations, nullStrOrNil(in.ReturnSignature), in.ID)
		if err != nil {
			return err
		}
		if aff, _ := res.RowsAffected(); aff != 1 {
			var status string
			err = tx.QueryRowContext(ctx, selectLoanStatusQ, in.ID).Scan(&status)
			if err == sql.ErrNoRows {
				return ErrNotFound("loan not found")
			}
			if err != nil {
				return err
			}
			return ErrConflict("loan already returned")
		}

		rows, err := tx.QueryContext(ctx, selectItemEquipmentIDsQ, in.ID)
		if err != nil {
			return err
		}
		var equipmentIDs []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return err
			}
			equipmentIDs = append(equipmentIDs, id)
		}
		rows.Close()
		if err = rows.Err(); err != nil {
			return err
		}

		for _, eqID := range equipmentIDs {
			if _, err = tx.ExecContext(ctx, releaseEquipmentQ, eqID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListLoans returns every loan newest-first plus all line items grouped by
// loan id. A read-only transaction keeps the two queries on one consistent
// snapshot; both read the frozen columns, never a re-join against the live
// employee or equipment rows.
func (s *Store) ListLoans(ctx context.Context) ([]Loan, map[string][]Item, error) {
	var out []Loan
	itemsByLoan := make(map[string][]Item)
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+loanColumns+` FROM loans ORDER BY created_at DESC`)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var m Loan
			if err := scanLoan(rows, &m); err != nil {
				return err
			}
			out = append(out, m)
		}
		if err := rows.Err(); err != nil {
			return err
		}

		itemRows, err := tx.QueryContext(ctx, `SELECT `+itemColumns+` FROM loan_items`)
		if err != nil {
			return err
		}
		defer itemRows.Close()

		for itemRows.Next() {
			var it Item
			if err := itemRows.Scan(&it.LoanID, &it.EquipmentID, &it.Quantity,
				&it.Serial, &it.Type, &it.Brand, &it.Model, &it.Value, &it.Status, &it.Description); err != nil {
				return err
			}
			itemsByLoan[it.LoanID] = append(itemsByLoan[it.LoanID], it)
		}
		return itemRows.Err()
	})
	if err != nil {
		return nil, nil, err
	}
	return out, itemsByLoan, nil
}

// GetLoan fetches one loan with its line items.
func (s *Store) GetLoan(ctx context.Context, id string) (*Loan, []Item, error) {
	var m Loan
	var items []Item
	err := db.ReadOnly(ctx, s.db, func(ctx context.Context, tx db.DBTX) error {
		row := tx.QueryRowContext(ctx, `SELECT `+loanColumns+` FROM loans WHERE id = ?`, id)
		if err := scanLoan(row, &m); err != nil {
			if err == sql.ErrNoRows {
				return ErrNotFound("loan not found")
			}
			return err
		}

		rows, err := tx.QueryContext(ctx, `SELECT `+itemColumns+` FROM loan_items WHERE loan_id = ?`, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var it Item
			if err := rows.Scan(&it.LoanID, &it.EquipmentID, &it.Quantity,
				&it.Serial, &it.Type, &it.Brand, &it.Model, &it.Value, &it.Status, &it.Description); err != nil {
				return err
			}
			items = append(items, it)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, nil, err
	}
	return &m, items, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLoan(r rowScanner, m *Loan) error {
	return r.Scan(
		&m.ID, &m.Date, &m.EmployeeID, &m.EmpName, &m.EmpRut, &m.EmpArea, &m.EmpShift,
		&m.Observations, &m.TotalValue, &m.Status, &m.Signature, &m.GeneratedBy,
		&m.ReturnDate, &m.ReceivedBy, &m.ReturnObservations, &m.ReturnSignature, &m.CreatedAt,
	)
}

func nullStrOrNil(p *string) any {
	if p == nil || *p == "" {
		return nil
	}
	return *p
}
