// Package auth implements the session lifecycle: login, signup, logout,
// boot-time hydration, and mirroring of session changes made by other
// processes sharing the same session store.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ilasdev/ilas/internal/client"
	"github.com/ilasdev/ilas/internal/models"
	"github.com/ilasdev/ilas/internal/session"
	"github.com/ilasdev/ilas/internal/shared"
)

// Controller orchestrates session lifecycle operations against the backend's
// auth endpoints and owns the session store. It keeps an in-memory copy of
// the current user that tracks both local operations and remote changes
// observed through the store's subscription.
type Controller struct {
	api    *client.Client
	store  session.Store
	paths  shared.APIConfig
	logger *log.Logger

	mu   sync.Mutex
	user *models.User

	unsubscribe func()
}

// NewController creates a lifecycle controller and subscribes it to the
// store. Call [Controller.Close] to drop the subscription.
func NewController(api *client.Client, store session.Store, cfg shared.APIConfig, logger *log.Logger) *Controller {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	c := &Controller{
		api:    api,
		store:  store,
		paths:  cfg,
		logger: shared.WithLogger(logger, "component", "auth"),
		user:   store.Get().User,
	}

	c.unsubscribe = store.Subscribe(c.onRemoteChange)
	return c
}

// Close drops the store subscription.
func (c *Controller) Close() {
	if c.unsubscribe != nil {
		c.unsubscribe()
		c.unsubscribe = nil
	}
}

// CurrentUser returns the in-memory user, or nil when logged out.
func (c *Controller) CurrentUser() *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// onRemoteChange mirrors a session change made by another process. A removed
// access token is a remote logout: only the in-memory state is dropped, the
// storage was already cleared by whoever initiated it.
func (c *Controller) onRemoteChange(s session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.AccessToken == "" {
		if c.user != nil {
			c.logger.Info("session cleared by another process, logging out")
		}
		c.user = nil
		return
	}
	c.user = s.User
}

// authPayload covers the login/signup/refresh response shapes: tokens nested
// under "tokens" or flattened at the top level.
type authPayload struct {
	User    *models.User `json:"user"`
	Access  string       `json:"access"`
	Refresh string       `json:"refresh"`
	Tokens  struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
	Detail string `json:"detail"`
}

func (p *authPayload) tokenPair() (access, refresh string) {
	access, refresh = p.Tokens.Access, p.Tokens.Refresh
	if access == "" {
		access = p.Access
	}
	if refresh == "" {
		refresh = p.Refresh
	}
	return access, refresh
}

// Login authenticates with the backend and populates the session store.
func (c *Controller) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	resp, err := c.api.Post(ctx, c.paths.LoginPath, creds)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	if !resp.OK() {
		var payload authPayload
		detail := ""
		if resp.Decode(&payload) == nil {
			detail = payload.Detail
		}
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden {
			if detail != "" {
				return nil, fmt.Errorf("%w: %s", shared.ErrInvalidCredentials, detail)
			}
			return nil, shared.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: login returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var payload authPayload
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}

	access, refresh := payload.tokenPair()
	if payload.User == nil || access == "" || refresh == "" {
		return nil, fmt.Errorf("%w: login response missing user or token pair", shared.ErrMalformedResponse)
	}

	if err := c.establish(access, refresh, payload.User); err != nil {
		return nil, err
	}

	c.logger.Info("logged in", "username", payload.User.Username)
	return payload.User, nil
}

// Signup registers a new account. When the backend auto-authenticates (the
// response carries a user and a token pair) this behaves like [Login];
// otherwise it returns (nil, nil) and the session is left untouched,
// signaling the caller to prompt for a manual login.
func (c *Controller) Signup(ctx context.Context, payload models.SignupPayload) (*models.User, error) {
	resp, err := c.api.Post(ctx, c.paths.RegisterPath, payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	if !resp.OK() {
		return nil, fmt.Errorf("%w: registration returned status %d: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	var parsed authPayload
	if err := resp.Decode(&parsed); err != nil {
		return nil, err
	}

	access, refresh := parsed.tokenPair()
	if parsed.User == nil || access == "" || refresh == "" {
		// Backend did not auto-authenticate.
		return nil, nil
	}

	if err := c.establish(access, refresh, parsed.User); err != nil {
		return nil, err
	}

	c.logger.Info("account created and logged in", "username", parsed.User.Username)
	return parsed.User, nil
}

// Logout clears the session unconditionally. It never fails; storage errors
// are logged and the in-memory state is dropped regardless.
func (c *Controller) Logout() {
	if err := c.store.Clear(); err != nil {
		c.logger.Errorf("failed to clear session store: %v", err)
	}

	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()

	c.logger.Info("logged out")
}

// Hydrate validates a persisted session at startup by fetching the identity
// endpoint and refreshing the cached user record. Any failure means "no valid
// session": the store is cleared and no token refresh is attempted, since no
// request-retry context exists yet.
func (c *Controller) Hydrate(ctx context.Context) error {
	sess := c.store.Get()
	if sess.AccessToken == "" {
		c.mu.Lock()
		c.user = nil
		c.mu.Unlock()
		return nil
	}

	resp, err := c.api.Get(client.WithoutRefresh(ctx), c.paths.MePath)
	if err != nil {
		c.logger.Warnf("session validation failed: %v", err)
		c.discard()
		return nil
	}

	if !resp.OK() {
		c.logger.Warn("persisted session rejected by backend", "status", resp.StatusCode)
		c.discard()
		return nil
	}

	var user models.User
	if err := resp.Decode(&user); err != nil {
		c.logger.Warnf("identity response unreadable: %v", err)
		c.discard()
		return nil
	}

	sess.User = &user
	if err := c.store.Set(sess); err != nil {
		return err
	}

	c.mu.Lock()
	c.user = &user
	c.mu.Unlock()

	c.logger.Debug("session hydrated", "username", user.Username)
	return nil
}

// UpdateProfile patches the identity endpoint and stores the updated record.
func (c *Controller) UpdateProfile(ctx context.Context, fields map[string]any) (*models.User, error) {
	if c.store.Get().AccessToken == "" {
		return nil, shared.ErrNotAuthenticated
	}

	resp, err := c.api.Patch(ctx, c.paths.MePath, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: profile update returned status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var parsed struct {
		User *models.User `json:"user"`
	}
	if err := resp.Decode(&parsed); err != nil {
		return nil, err
	}
	if parsed.User == nil {
		return nil, fmt.Errorf("%w: profile update response missing user", shared.ErrMalformedResponse)
	}

	sess := c.store.Get()
	if sess.Populated() {
		sess.User = parsed.User
		if err := c.store.Set(sess); err != nil {
			return nil, err
		}
	}

	c.mu.Lock()
	c.user = parsed.User
	c.mu.Unlock()

	return parsed.User, nil
}

// establish persists a fresh session atomically and updates in-memory state.
func (c *Controller) establish(access, refresh string, user *models.User) error {
	sess := session.Session{AccessToken: access, RefreshToken: refresh, User: user}
	if err := c.store.Set(sess); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	c.mu.Lock()
	c.user = user
	c.mu.Unlock()
	return nil
}

// discard clears both persisted and in-memory session state.
func (c *Controller) discard() {
	if err := c.store.Clear(); err != nil {
		c.logger.Errorf("failed to clear session store: %v", err)
	}
	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()
}
