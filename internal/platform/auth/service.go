package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	ulid "github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyExists      = errors.New("already exists")
	ErrNotFound           = errors.New("not found")
)

// Authenticator is the pluggable identity boundary. The shipped
// implementation checks bcrypt hashes in the accounts table and issues HS256
// tokens; real deployments can swap in a directory-backed one.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (string, error)
}

type Account struct {
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

type AccountStore interface {
	Get(ctx context.Context, username string) (*Account, error)
	Create(ctx context.Context, a Account) error
}

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
}

func NewService(db *sql.DB, secret []byte, ttl time.Duration) *Service {
	return &Service{store: NewStore(db), secret: secret, ttl: ttl}
}

// NewServiceWithStore wires a custom account backend.
func NewServiceWithStore(store AccountStore, secret []byte, ttl time.Duration) *Service {
	return &Service{store: store, secret: secret, ttl: ttl}
}

func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	acc, err := s.store.Get(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  acc.Username,
		"role": acc.Role,
		"jti":  ulid.Make().String(),
		"iat":  now.Unix(),
		"exp":  now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *Service) Register(ctx context.Context, username, password, role string) error {
	if role == "" {
		role = "staff"
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.store.Create(ctx, Account{
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	})
}
