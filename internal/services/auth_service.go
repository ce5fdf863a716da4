package services

import (
	"context"
	"database/sql"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"marketplace/internal/apperr"
	"marketplace/internal/domain"
	"marketplace/internal/payments"
	"marketplace/internal/repos"
	"marketplace/internal/validate"
)

var ErrBadCreds = apperr.Unauthorized("invalid email or password")

type AuthService struct {
	Users    *repos.UserRepo
	Tenants  *repos.TenantRepo
	Payments payments.Provider
}

type RegisterInput struct {
	Email    string
	Username string
	Password string
}

// Register creates a seller: a connected payment account, a storefront named
// after the username, and the user signed in under a new session id.
func (s *AuthService) Register(ctx context.Context, prevSID string, in RegisterInput) (*domain.User, string, error) {
	username, ok := validate.Username(in.Username)
	if !ok {
		return nil, "", apperr.BadRequest("username must be 3-63 lowercase letters, numbers or single hyphens")
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, "", apperr.BadRequest("invalid email")
	}
	if !validate.Password(in.Password) {
		return nil, "", apperr.BadRequest("password must be 8-72 characters with upper, lower, digit and symbol")
	}

	if _, err := s.Users.ByUsername(ctx, username); err == nil {
		return nil, "", apperr.BadRequest("username already taken")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", err
	}
	if _, err := s.Users.ByEmail(ctx, email); err == nil {
		return nil, "", apperr.BadRequest("email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", err
	}
	if _, err := s.Tenants.BySlug(ctx, username); err == nil {
		return nil, "", apperr.BadRequest("username already taken")
	}

	acct, err := s.Payments.CreateAccount(ctx)
	if err != nil {
		return nil, "", apperr.Internal("failed to create payment account").Wrap(err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	u, err := s.Users.CreateWithTenant(ctx,
		domain.Tenant{Name: username, Slug: username, StripeAccountID: acct},
		domain.User{Email: email, Username: username, Hash: string(hash), Role: domain.RoleUser},
	)
	if err != nil {
		return nil, "", err
	}
	sid, err := s.Users.RotateSession(ctx, prevSID, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, sid, nil
}

// Login checks credentials and returns the user with a new session id; prevSID
// is discarded.
func (s *AuthService) Login(ctx context.Context, prevSID, email, password string) (*domain.User, string, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, "", ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, "", ErrBadCreds
	}
	sid, err := s.Users.RotateSession(ctx, prevSID, u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, sid, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

// CurrentUser returns nil without error for anonymous sessions.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	if sid == "" {
		return nil, nil
	}
	u, err := s.Users.SessionUser(ctx, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}
