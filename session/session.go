// Package session holds the logged-in user context. Presence of a user in
// the local store is the sole gate for remote cart synchronization; without
// one, cart and wishlist stay local-only.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"trendora-client/api"
	"trendora-client/localstore"
	"trendora-client/logger"
	"trendora-client/models"

	"github.com/golang-jwt/jwt/v5"
)

const (
	keyToken    = "token"
	keyUser     = "user"
	keyRedirect = "redirectUrl"
)

// ErrLoginFailed wraps the server's rejection message.
var ErrLoginFailed = errors.New("session: login failed")

// Manager persists and gates the session.
type Manager struct {
	mu    sync.Mutex
	store localstore.Store
	api   *api.Client
	token string
	user  *models.User
}

// NewManager loads any persisted session from the store. A persisted token
// that is already expired is dropped on the spot.
func NewManager(store localstore.Store, client *api.Client) *Manager {
	m := &Manager{store: store, api: client}

	var token string
	var user models.User
	hasToken := localstore.GetJSON(store, keyToken, &token)
	hasUser := localstore.GetJSON(store, keyUser, &user)

	if hasToken && hasUser && token != "" {
		if tokenExpired(token) {
			logger.Get().Info().Msg("persisted session token expired, discarding")
			_ = store.Delete(keyToken)
			_ = store.Delete(keyUser)
		} else {
			m.token = token
			m.user = &user
		}
	}

	client.SetTokenProvider(m.Token)
	return m
}

// Login authenticates against the API. identifier is an email address or a
// phone number; anything containing "@" is treated as an email.
func (m *Manager) Login(ctx context.Context, identifier, password string) (models.User, error) {
	req := models.LoginRequest{Password: password}
	if strings.Contains(identifier, "@") {
		req.Email = identifier
	} else {
		req.Phone = identifier
	}

	resp, err := m.api.Login(ctx, req)
	if err != nil {
		return models.User{}, err
	}
	if !resp.Success {
		return models.User{}, errors.Join(ErrLoginFailed, errors.New(resp.FailureMessage()))
	}

	m.mu.Lock()
	m.token = resp.Token
	user := resp.User
	m.user = &user
	_ = localstore.PutJSON(m.store, keyToken, resp.Token)
	_ = localstore.PutJSON(m.store, keyUser, resp.User)
	m.mu.Unlock()

	logger.Get().Info().Str("user", resp.User.ID.String()).Msg("logged in")
	return resp.User, nil
}

// Logout discards the session locally. No network call; the server keeps its
// copy of the cart for the next login.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	m.user = nil
	_ = m.store.Delete(keyToken)
	_ = m.store.Delete(keyUser)
}

// Invalidate clears the session after an auth failure on a privileged call
// and records where the user should return to after logging back in.
func (m *Manager) Invalidate(returnTo string) {
	logger.Get().Info().Str("return_to", returnTo).Msg("session invalidated")
	m.Logout()
	if returnTo != "" {
		m.SetRedirectURL(returnTo)
	}
}

// Current returns the logged-in user, if any.
func (m *Manager) Current() (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return models.User{}, false
	}
	return *m.user, true
}

// Token returns the current bearer token, empty when logged out.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// LoggedIn reports whether a session exists.
func (m *Manager) LoggedIn() bool {
	_, ok := m.Current()
	return ok
}

// SetRedirectURL records the page to return to after the next login.
func (m *Manager) SetRedirectURL(u string) {
	_ = localstore.PutJSON(m.store, keyRedirect, u)
}

// ConsumeRedirectURL returns and deletes the recorded return page.
func (m *Manager) ConsumeRedirectURL() string {
	var u string
	if !localstore.GetJSON(m.store, keyRedirect, &u) {
		return ""
	}
	_ = m.store.Delete(keyRedirect)
	return u
}

// tokenExpired checks the token's exp claim without verifying the signature;
// the client has no signing secret, the server remains the authority. Tokens
// that cannot be parsed or carry no exp are kept and left to the server to
// reject.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
