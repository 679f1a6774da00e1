package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	service := NewService(NewStore(nil), "test-secret", time.Hour, 8)
	service.cost = bcrypt.MinCost
	return service
}

func TestSignUpValidates(t *testing.T) {
	service := newTestService()
	ctx := context.Background()
	if _, err := service.SignUp(ctx, "not-an-email", "longenough"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email, got %v", err)
	}
	_, err := service.SignUp(ctx, "ada@example.com", "short")
	if !errors.Is(err, ErrPasswordTooShort) {
		t.Fatalf("expected short password, got %v", err)
	}
	if err.Error() != "password too short: must be at least 8 characters long" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestSignUpThenSignIn(t *testing.T) {
	service := newTestService()
	ctx := context.Background()
	user, err := service.SignUp(ctx, " Ada@Example.com ", "correct horse")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if user.ID == "" || user.Email != "ada@example.com" {
		t.Fatalf("unexpected user %#v", user)
	}
	if user.PasswordHash == "correct horse" {
		t.Fatalf("expected password to be hashed")
	}
	if _, err := service.SignUp(ctx, "ada@example.com", "another one"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected email taken, got %v", err)
	}
	if _, err := service.SignIn(ctx, "ada@example.com", "wrong password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := service.SignIn(ctx, "bob@example.com", "correct horse"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
	signedIn, err := service.SignIn(ctx, "ADA@example.com", "correct horse")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if signedIn.ID != user.ID {
		t.Fatalf("expected same user, got %s", signedIn.ID)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	service := newTestService()
	user := User{ID: "user-1", Email: "ada@example.com"}
	token, expires, err := service.Issue(user, "session-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expires) <= 0 {
		t.Fatalf("expected future expiry, got %v", expires)
	}
	claims, err := service.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.ID != "session-1" || claims.Email != "ada@example.com" {
		t.Fatalf("unexpected claims %#v", claims)
	}
}

func TestParseRejectsTamperedAndExpired(t *testing.T) {
	service := newTestService()
	token, _, err := service.Issue(User{ID: "user-1"}, "session-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	other := NewService(NewStore(nil), "other-secret", time.Hour, 8)
	if _, err := other.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token for other secret, got %v", err)
	}
	service.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := service.Parse(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
	if _, err := service.Parse("garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected garbage token to fail, got %v", err)
	}
}
