// Package auth signs users up and in and issues the signed session tokens the
// server keeps in a cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidEmail       = errors.New("a valid email is required")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrEmailTaken         = errors.New("an account with that email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid session token")
	ErrUserNotFound       = errors.New("user not found")
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Claims is the token payload. ID carries the session id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type Service struct {
	users       Store
	secret      []byte
	ttl         time.Duration
	minPassword int
	cost        int
	validate    *validator.Validate
	now         func() time.Time
}

func NewService(users Store, secret string, ttl time.Duration, minPassword int) *Service {
	return &Service{
		users:       users,
		secret:      []byte(secret),
		ttl:         ttl,
		minPassword: minPassword,
		cost:        bcrypt.DefaultCost,
		validate:    validator.New(),
		now:         time.Now,
	}
}

func (s *Service) MinPasswordLength() int {
	return s.minPassword
}

func (s *Service) SignUp(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if err := s.validate.Var(email, "required,email"); err != nil {
		return User{}, ErrInvalidEmail
	}
	if len(password) < s.minPassword {
		return User{}, fmt.Errorf("%w: must be at least %d characters long", ErrPasswordTooShort, s.minPassword)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, err
	}
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}
	return s.users.Create(ctx, user)
}

func (s *Service) SignIn(ctx context.Context, email, password string) (User, error) {
	user, err := s.users.ByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, ErrUserNotFound) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

func (s *Service) User(ctx context.Context, id string) (User, error) {
	return s.users.ByID(ctx, id)
}

// Issue signs a token for user bound to sessionID.
func (s *Service) Issue(user User, sessionID string) (string, time.Time, error) {
	now := s.now().UTC()
	expires := now.Add(s.ttl)
	claims := Claims{
		Email: user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (s *Service) Parse(raw string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
