package equipment

import (
	"context"
	"database/sql"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) List(ctx context.Context) ([]Equipment, error) {
	const q = `SELECT id, serial, type, brand, model, value, status, COALESCE(description, '') FROM equipment ORDER BY type ASC`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Equipment, 0)
	for rows.Next() {
		var e Equipment
		if err := rows.Scan(&e.ID, &e.Serial, &e.Type, &e.Brand, &e.Model, &e.Value, &e.Status, &e.Description); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Upsert(ctx context.Context, e Equipment) error {
	const q = `
	INSERT INTO equipment (id, serial, type, brand, model, value, status, description)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON DUPLICATE KEY UPDATE
	serial=VALUES(serial), type=VALUES(type), brand=VALUES(brand), model=VALUES(model),
	value=VALUES(value), status=VALUES(status), description=VALUES(description)`
	_, err := s.db.ExecContext(ctx, q, e.ID, e.Serial, e.Type, e.Brand, e.Model, e.Value, e.Status, e.Description)
	return err
}

func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	return err
}
