package loans

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	mysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestCreateLoanClaimsAndFreezes(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectEmployeeQ)).
		WithArgs("EMP1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "rut", "area", "shift"}).
			AddRow("Ana Rojas", "11.111.111-1", "Packing", "B"))
	mock.ExpectExec(regexp.QuoteMeta(insertLoanQ)).
		WithArgs("L1", "2024-01-02", "EMP1", "Ana Rojas", "11.111.111-1", "Packing", "B", nil, nil, "Tech A").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta(selectEquipmentForClaimQ)).
		WithArgs("E1").
		WillReturnRows(sqlmock.NewRows([]string{"serial", "type", "brand", "model", "value", "status", "description"}).
			AddRow("SN1", "Notebook", "Lenovo", "T14", int64(450000), "available", ""))
	mock.ExpectExec(regexp.QuoteMeta(claimEquipmentQ)).
		WithArgs("E1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemQ)).
		WithArgs("L1", "E1", "SN1", "Notebook", "Lenovo", "T14", int64(450000), "available", "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery(regexp.QuoteMeta(selectEquipmentForClaimQ)).
		WithArgs("E2").
		WillReturnRows(sqlmock.NewRows([]string{"serial", "type", "brand", "model", "value", "status", "description"}).
			AddRow("SN2", "Mouse", "Logitech", "M185", int64(8000), "available", "inalámbrico"))
	mock.ExpectExec(regexp.QuoteMeta(claimEquipmentQ)).
		WithArgs("E2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemQ)).
		WithArgs("L1", "E2", "SN2", "Mouse", "Logitech", "M185", int64(8000), "available", "inalámbrico").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(regexp.QuoteMeta(updateLoanTotalQ)).
		WithArgs(int64(458000), "L1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := &Loan{ID: "L1", Date: "2024-01-02", EmployeeID: "EMP1", GeneratedBy: "Tech A"}
	items, err := store.CreateLoan(context.Background(), m, []string{"E1", "E2"}, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(458000), m.TotalValue)
	assert.Equal(t, "Ana Rojas", m.EmpName)
	assert.Equal(t, StatusOpen, m.Status)
	require.Len(t, items, 2)
	assert.Equal(t, "SN1", items[0].Serial)
	assert.Equal(t, "available", items[0].Status)
	assert.Equal(t, int64(8000), items[1].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLoanEmployeeNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectEmployeeQ)).
		WithArgs("GHOST").
		WillReturnRows(sqlmock.NewRows([]string{"name", "rut", "area", "shift"}))
	mock.ExpectRollback()

	m := &Loan{ID: "L1", Date: "2024-01-02", EmployeeID: "GHOST"}
	_, err := store.CreateLoan(context.Background(), m, []string{"E1"}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, err.(*APIError).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLoanDuplicateID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectEmployeeQ)).
		WithArgs("EMP1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "rut", "area", "shift"}).
			AddRow("Ana Rojas", "11.111.111-1", "Packing", "B"))
	mock.ExpectExec(regexp.QuoteMeta(insertLoanQ)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "duplicate entry"})
	mock.ExpectRollback()

	m := &Loan{ID: "L1", Date: "2024-01-02", EmployeeID: "EMP1"}
	_, err := store.CreateLoan(context.Background(), m, []string{"E1"}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, err.(*APIError).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLoanEquipmentNotAvailable(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectEmployeeQ)).
		WithArgs("EMP1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "rut", "area", "shift"}).
			AddRow("Ana Rojas", "11.111.111-1", "Packing", "B"))
	mock.ExpectExec(regexp.QuoteMeta(insertLoanQ)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectEquipmentForClaimQ)).
		WithArgs("E1").
		WillReturnRows(sqlmock.NewRows([]string{"serial", "type", "brand", "model", "value", "status", "description"}).
			AddRow("SN1", "Notebook", "Lenovo", "T14", int64(450000), "loaned", ""))
	mock.ExpectRollback()

	m := &Loan{ID: "L1", Date: "2024-01-02", EmployeeID: "EMP1"}
	_, err := store.CreateLoan(context.Background(), m, []string{"E1"}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, err.(*APIError).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLoanLostClaimRace(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectEmployeeQ)).
		WithArgs("EMP1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "rut", "area", "shift"}).
			AddRow("Ana Rojas", "11.111.111-1", "Packing", "B"))
	mock.ExpectExec(regexp.QuoteMeta(insertLoanQ)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectEquipmentForClaimQ)).
		WithArgs("E1").
		WillReturnRows(sqlmock.NewRows([]string{"serial", "type", "brand", "model", "value", "status", "description"}).
			AddRow("SN1", "Notebook", "Lenovo", "T14", int64(450000), "available", ""))
	mock.ExpectExec(regexp.QuoteMeta(claimEquipmentQ)).
		WithArgs("E1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	m := &Loan{ID: "L1", Date: "2024-01-02", EmployeeID: "EMP1"}
	_, err := store.CreateLoan(context.Background(), m, []string{"E1"}, 0)
	require.Error(t, err)
	assert.Equal(t, CodeConflict, err.(*APIError).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLoanTotalMismatch(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(selectEmployeeQ)).
		WithArgs("EMP1").
		WillReturnRows(sqlmock.NewRows([]string{"name", "rut", "area", "shift"}).
			AddRow("Ana Rojas", "11.111.111-1", "Packing", "B"))
	mock.ExpectExec(regexp.QuoteMeta(insertLoanQ)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectEquipmentForClaimQ)).
		WithArgs("E1").
		WillReturnRows(sqlmock.NewRows([]string{"serial", "type", "brand", "model", "value", "status", "description"}).
			AddRow("SN1", "Notebook", "Lenovo", "T14", int64(450000), "available", ""))
	mock.ExpectExec(regexp.QuoteMeta(claimEquipmentQ)).
		WithArgs("E1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(insertItemQ)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	m := &Loan{ID: "L1", Date: "2024-01-02", EmployeeID: "EMP1"}
	_, err := store.CreateLoan(context.Background(), m, []string{"E1"}, 999)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidArgument, err.(*APIError).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnLoanReleasesEquipment(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(closeLoanQ)).
		WithArgs("2024-01-05", "Tech A", "todo ok", nil, "L1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(selectItemEquipmentIDsQ)).
		WithArgs("L1").
		WillReturnRows(sqlmock.NewRows([]string{"equipment_id"}).AddRow("E1").AddRow("E2"))
	mock.ExpectExec(regexp.QuoteMeta(releaseEquipmentQ)).
		WithArgs("E1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(releaseEquipmentQ)).
		WithArgs("E2").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := store.ReturnLoan(context.Background(), ReturnLoanRequest{
		ID:                 "L1",
		ReturnDate:         "2024-01-05",
		ReceivedBy:         "Tech A",
		ReturnObservations: "todo ok",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnLoanTwiceConflicts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(closeLoanQ)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectLoanStatusQ)).
		WithArgs("L1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("returned"))
	mock.ExpectRollback()

	err := store.ReturnLoan(context.Background(), ReturnLoanRequest{
		ID: "L1", ReturnDate: "2024-01-05", ReceivedBy: "Tech A",
	})
	require.Error(t, err)
	assert.Equal(t, CodeConflict, err.(*APIError).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func loanRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "loan_date", "employee_id", "emp_name", "emp_rut", "emp_area", "emp_shift",
		"observations", "total_value", "status", "signature", "generated_by",
		"return_date", "received_by", "return_observations", "return_signature", "created_at",
	})
}

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"loan_id", "equipment_id", "quantity",
		"eq_serial", "eq_type", "eq_brand", "eq_model", "eq_value", "eq_status", "eq_description",
	})
}

// The list reads only the frozen columns on loans and loan_items; renaming the
// live employee or equipment rows afterwards must not show through.
func TestListLoansServesFrozenSnapshots(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + loanColumns + ` FROM loans ORDER BY created_at DESC`)).
		WillReturnRows(loanRows().
			AddRow("L2", "2024-01-03", "EMP1", "Ana Rojas", "11.111.111-1", "Packing", "B",
				nil, int64(8000), "open", nil, "Tech A",
				nil, nil, nil, nil, created.Add(24*time.Hour)).
			AddRow("L1", "2024-01-02", "EMP1", "Ana Rojas", "11.111.111-1", "Packing", "B",
				"entrega notebook", int64(450000), "returned", "data:image/png;base64,AAAA", "Tech A",
				"2024-01-05", "Tech A", "todo ok", nil, created))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + itemColumns + ` FROM loan_items`)).
		WillReturnRows(itemRows().
			AddRow("L1", "E1", 1, "SN1", "Notebook", "Lenovo", "T14", int64(450000), "available", "").
			AddRow("L2", "E2", 1, "SN2", "Mouse", "Logitech", "M185", int64(8000), "available", "inalámbrico"))
	mock.ExpectCommit()

	loans, itemsByLoan, err := store.ListLoans(context.Background())
	require.NoError(t, err)
	require.Len(t, loans, 2)

	assert.Equal(t, "L2", loans[0].ID)
	assert.Equal(t, "L1", loans[1].ID)

	returned := loans[1]
	assert.Equal(t, "Ana Rojas", returned.EmpName)
	assert.Equal(t, "Packing", returned.EmpArea)
	assert.Equal(t, int64(450000), returned.TotalValue)
	assert.Equal(t, StatusReturned, returned.Status)
	assert.Equal(t, "2024-01-05", returned.ReturnDate.String)
	assert.Equal(t, created, returned.CreatedAt)

	require.Len(t, itemsByLoan["L1"], 1)
	assert.Equal(t, "SN1", itemsByLoan["L1"][0].Serial)
	assert.Equal(t, "available", itemsByLoan["L1"][0].Status)
	require.Len(t, itemsByLoan["L2"], 1)
	assert.Equal(t, "inalámbrico", itemsByLoan["L2"][0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLoan(t *testing.T) {
	store, mock := newMockStore(t)
	created := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + loanColumns + ` FROM loans WHERE id = ?`)).
		WithArgs("L1").
		WillReturnRows(loanRows().
			AddRow("L1", "2024-01-02", "EMP1", "Ana Rojas", "11.111.111-1", "Packing", "B",
				nil, int64(450000), "open", nil, "Tech A",
				nil, nil, nil, nil, created))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + itemColumns + ` FROM loan_items WHERE loan_id = ?`)).
		WithArgs("L1").
		WillReturnRows(itemRows().
			AddRow("L1", "E1", 1, "SN1", "Notebook", "Lenovo", "T14", int64(450000), "available", ""))
	mock.ExpectCommit()

	m, items, err := store.GetLoan(context.Background(), "L1")
	require.NoError(t, err)
	assert.Equal(t, "L1", m.ID)
	assert.Equal(t, "Ana Rojas", m.EmpName)
	assert.False(t, m.ReturnDate.Valid)
	require.Len(t, items, 1)
	assert.Equal(t, "E1", items[0].EquipmentID)
	assert.Equal(t, int64(450000), items[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetLoanNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT ` + loanColumns + ` FROM loans WHERE id = ?`)).
		WithArgs("GHOST").
		WillReturnRows(loanRows())
	mock.ExpectRollback()

	_, _, err := store.GetLoan(context.Background(), "GHOST")
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, err.(*APIError).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnLoanUnknownID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(closeLoanQ)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta(selectLoanStatusQ)).
		WithArgs("GHOST").
		WillReturnRows(sqlmock.NewRows([]string{"status"}))
	mock.ExpectRollback()

	err := store.ReturnLoan(context.Background(), ReturnLoanRequest{
		ID: "GHOST", ReturnDate: "2024-01-05", ReceivedBy: "Tech A",
	})
	require.Error(t, err)
	assert.Equal(t, CodeNotFound, err.(*APIError).Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
