package employees

import (
	"context"
	"database/sql"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) List(ctx context.Context) ([]Employee, error) {
	const q = `SELECT id, name, rut, area, shift FROM employees ORDER BY name ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Employee, 0)
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name, &e.Rut, &e.Area, &e.Shift); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, e Employee) error {
	const q = `
	INSERT INTO employees (id, name, rut, area, shift)
	VALUES (?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE name=VALUES(name), rut=VALUES(rut), area=VALUES(area), shift=VALUES(shift)`
	_, err := s.db.ExecContext(ctx, q, e.ID, e.Name, e.Rut, e.Area, e.Shift)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	return err
}
