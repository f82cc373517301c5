package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/ilasdev/ilas/internal/session"
	"github.com/ilasdev/ilas/internal/shared"
)

// refreshResult is what each waiter receives when the in-flight refresh
// settles: the new access token, or the failure every waiter shares.
type refreshResult struct {
	token string
	err   error
}

// Coordinator serializes token renewal across concurrent requests. It owns
// the in-flight flag and the FIFO waiter queue; both are private to a
// constructed instance so independent clients never contaminate each other.
type Coordinator struct {
	store      session.Store
	refreshURL string
	httpClient *http.Client
	logger     *log.Logger

	mu       sync.Mutex
	inFlight bool
	waiters  []chan refreshResult
}

// NewCoordinator creates a refresh coordinator. The refresh call is issued on
// httpClient directly, never through the authenticated transport, so a failing
// refresh can never recurse into another refresh. A nil httpClient falls back
// to [http.DefaultClient].
func NewCoordinator(store session.Store, refreshURL string, httpClient *http.Client, logger *log.Logger) *Coordinator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Coordinator{
		store:      store,
		refreshURL: refreshURL,
		httpClient: httpClient,
		logger:     shared.WithLogger(logger, "component", "client.refresh"),
	}
}

// join enqueues a waiter and reports whether the caller must run the refresh.
// The check of the in-flight flag and its flip are a single critical section;
// this is the one place a duplicate refresh could otherwise race into being.
func (c *Coordinator) join() (<-chan refreshResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan refreshResult)
	c.waiters = append(c.waiters, ch)
	if c.inFlight {
		return ch, false
	}
	c.inFlight = true
	return ch, true
}

// settle flips back to idle and drains the waiter queue in FIFO order. The
// queue is detached under the lock, so a 401 arriving mid-drain enqueues onto
// a fresh queue and triggers its own refresh. Waiter channels are unbuffered:
// each send completes only once that waiter has received, which is what
// guarantees waiters resume strictly in enqueue order.
func (c *Coordinator) settle(res refreshResult) {
	c.mu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.inFlight = false
	c.mu.Unlock()

	for _, ch := range waiters {
		ch <- res
	}
}

// run performs one refresh and settles every waiter. The context deliberately
// discards the instigating request's cancellation: the refresh outcome is
// shared state that later waiters depend on.
func (c *Coordinator) run(ctx context.Context) {
	sess := c.store.Get()
	if sess.RefreshToken == "" {
		// Nothing to exchange and nothing to clear.
		c.settle(refreshResult{err: shared.ErrNoRefreshToken})
		return
	}

	token, err := c.exchange(context.WithoutCancel(ctx), sess.RefreshToken)
	if err != nil {
		c.logger.Warnf("refresh failed, ending session: %v", err)
		if clearErr := c.store.Clear(); clearErr != nil {
			c.logger.Errorf("failed to clear session after refresh failure: %v", clearErr)
		}
		c.settle(refreshResult{err: err})
		return
	}

	// Replace the access token only; refresh token and user stay as they are.
	sess = c.store.Get()
	sess.AccessToken = token
	if err := c.store.Set(sess); err != nil {
		c.logger.Errorf("failed to persist refreshed token: %v", err)
	}

	c.settle(refreshResult{token: token})
}

// exchange calls the refresh endpoint with the refresh token and extracts the
// new access token. The backend returns it at "access" or nested under
// "tokens.access"; both shapes are accepted.
func (c *Coordinator) exchange(ctx context.Context, refreshToken string) (string, error) {
	payload, err := json.Marshal(map[string]string{"refresh": refreshToken})
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode refresh payload: %v", shared.ErrRefreshFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("%w: failed to create refresh request: %v", shared.ErrRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read refresh response: %v", shared.ErrRefreshFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: refresh endpoint returned status %d", shared.ErrRefreshFailed, resp.StatusCode)
	}

	var parsed struct {
		Access string `json:"access"`
		Tokens struct {
			Access string `json:"access"`
		} `json:"tokens"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: %w: %v", shared.ErrRefreshFailed, shared.ErrMalformedResponse, err)
	}

	token := parsed.Access
	if token == "" {
		token = parsed.Tokens.Access
	}
	if token == "" {
		return "", fmt.Errorf("%w: %w: no access token in refresh response", shared.ErrRefreshFailed, shared.ErrMalformedResponse)
	}

	return token, nil
}
