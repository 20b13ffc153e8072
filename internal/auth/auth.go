// Package auth issues API tokens and gates requests on a valid identity.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"littlelemon/internal/models"
	"littlelemon/internal/store"
)

var (
	// ErrNoCredentials means the request carried no recognised credential.
	ErrNoCredentials = errors.New("authentication credentials were not provided")
	// ErrInvalidCredentials covers unknown users and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInactiveUser means the credential is genuine but the account is disabled.
	ErrInactiveUser = errors.New("user inactive")
)

// UserFinder looks up accounts in the identity store.
type UserFinder interface {
	ByID(ctx context.Context, id uint) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
}

// Authenticator resolves credentials to users.
type Authenticator struct {
	users  UserFinder
	tokens *Issuer
}

func NewAuthenticator(users UserFinder, tokens *Issuer) *Authenticator {
	return &Authenticator{users: users, tokens: tokens}
}

// Login checks username and password and returns a fresh token.
func (a *Authenticator) Login(ctx context.Context, username, password string) (string, error) {
	user, err := a.checkPassword(ctx, username, password)
	if err != nil {
		return "", err
	}
	if !user.IsActive {
		return "", ErrInvalidCredentials
	}
	return a.tokens.Issue(user)
}

// Authenticate resolves an Authorization header value. Accepted schemes are
// "Token <t>", "Bearer <t>" and "Basic <base64(user:pass)>".
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*models.User, error) {
	scheme, value, ok := strings.Cut(strings.TrimSpace(header), " ")
	value = strings.TrimSpace(value)
	if !ok || value == "" {
		return nil, ErrNoCredentials
	}

	var (
		user *models.User
		err  error
	)
	switch strings.ToLower(scheme) {
	case "token", "bearer":
		user, err = a.fromToken(ctx, value)
	case "basic":
		user, err = a.fromBasic(ctx, value)
	default:
		return nil, ErrNoCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	return user, nil
}

func (a *Authenticator) fromToken(ctx context.Context, raw string) (*models.User, error) {
	claims, err := a.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	id, err := claims.UserID()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	user, err := a.users.ByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	return user, err
}

func (a *Authenticator) fromBasic(ctx context.Context, raw string) (*models.User, error) {
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return a.checkPassword(ctx, username, password)
}

func (a *Authenticator) checkPassword(ctx context.Context, username, password string) (*models.User, error) {
	user, err := a.users.ByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
