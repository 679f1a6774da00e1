package auth

import (
	"context"
	"errors"
	"sync"

	"top-ten/internal/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Store interface {
	Create(ctx context.Context, user User) (User, error)
	ByEmail(ctx context.Context, email string) (User, error)
	ByID(ctx context.Context, id string) (User, error)
}

// NewStore returns a users table store, or an in-memory one when conn is nil.
func NewStore(conn *gorm.DB) Store {
	if conn == nil {
		return &memoryStore{users: make(map[string]User)}
	}
	return &gormStore{db: conn}
}

type gormStore struct {
	db *gorm.DB
}

func (s *gormStore) Create(ctx context.Context, user User) (User, error) {
	record := db.User{
		ID:           user.ID,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return User{}, ErrEmailTaken
		}
		return User{}, err
	}
	return user, nil
}

func (s *gormStore) ByEmail(ctx context.Context, email string) (User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *gormStore) ByID(ctx context.Context, id string) (User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *gormStore) first(ctx context.Context, query string, arg string) (User, error) {
	var record db.User
	if err := s.db.WithContext(ctx).Where(query, arg).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}
		return User{}, err
	}
	return User{
		ID:           record.ID,
		Email:        record.Email,
		PasswordHash: record.PasswordHash,
		CreatedAt:    record.CreatedAt,
	}, nil
}

type memoryStore struct {
	mu    sync.Mutex
	users map[string]User
}

func (s *memoryStore) Create(ctx context.Context, user User) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return User{}, ErrEmailTaken
		}
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *memoryStore) ByEmail(ctx context.Context, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *memoryStore) ByID(ctx context.Context, id string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
