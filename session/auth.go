package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/vantage-modeller/vantage/client"
)

// ErrMissingCredentials is returned before any network call when the email
// or password is blank.
var ErrMissingCredentials = errors.New("email and password are required")

// Authenticator is the subset of *client.Client used for sign-in.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.Token, error)
	Register(ctx context.Context, email, password string) (*client.Registration, error)
}

var (
	_ Authenticator      = (*client.Client)(nil)
	_ client.Credentials = (*Store)(nil)
)

// Auth signs users in and out, recording the outcome in a Store.
type Auth struct {
	store *Store
	api   Authenticator
}

func NewAuth(store *Store, api Authenticator) *Auth {
	return &Auth{store: store, api: api}
}

// Login authenticates and persists the token. On failure the stored
// identity is left untouched.
func (a *Auth) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}
	tok, err := a.api.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if err := a.store.SetAuth(tok.AccessToken, email); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	logrus.Infof("signed in as %s", email)
	return nil
}

// Register creates the account and then signs in with the same credentials.
func (a *Auth) Register(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrMissingCredentials
	}
	if _, err := a.api.Register(ctx, email, password); err != nil {
		return err
	}
	logrus.Infof("registered %s", email)
	return a.Login(ctx, email, password)
}

// Logout forgets the token and email.
func (a *Auth) Logout() error {
	return a.store.ClearAuth()
}

// CurrentUser returns the signed-in email, or "" when signed out.
func (a *Auth) CurrentUser() string {
	if !a.store.LoggedIn() {
		return ""
	}
	return a.store.UserEmail()
}
