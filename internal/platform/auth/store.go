package auth

import (
	"context"
	"database/sql"
	"errors"

	mysql "github.com/go-sql-driver/mysql"
)

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) Get(ctx context.Context, username string) (*Account, error) {
	const q = `SELECT username, password_hash, role, created_at FROM accounts WHERE username = ?`
	var a Account
	err := s.db.QueryRowContext(ctx, q, username).Scan(&a.Username, &a.PasswordHash, &a.Role, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) Create(ctx context.Context, a Account) error {
	const q = `INSERT INTO accounts (username, password_hash, role) VALUES (?, ?, ?)`
	_, err := s.db.ExecContext(ctx, q, a.Username, a.PasswordHash, a.Role)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == 1062 {
		return ErrAlreadyExists
	}
	return err
}
