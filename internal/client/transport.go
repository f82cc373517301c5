package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/ilasdev/ilas/internal/session"
	"github.com/ilasdev/ilas/internal/shared"
	"golang.org/x/time/rate"
)

type ctxKey int

const (
	// retriedKey marks a request that has already been resubmitted once after
	// a refresh, bounding amplification to a single retry per original request.
	retriedKey ctxKey = iota
	// noRefreshKey marks a request whose 401 must pass through untouched.
	noRefreshKey
)

func markRetried(ctx context.Context) context.Context {
	return context.WithValue(ctx, retriedKey, true)
}

func wasRetried(ctx context.Context) bool {
	retried, _ := ctx.Value(retriedKey).(bool)
	return retried
}

// WithoutRefresh returns a context whose requests bypass the refresh
// coordinator entirely: a 401 is returned to the caller as-is. Session
// hydration uses this, since a failed validation there means "no session",
// not "renew and replay".
func WithoutRefresh(ctx context.Context) context.Context {
	return context.WithValue(ctx, noRefreshKey, true)
}

func refreshDisabled(ctx context.Context) bool {
	disabled, _ := ctx.Value(noRefreshKey).(bool)
	return disabled
}

// Authorize attaches the session's access token to req as a bearer
// credential. Requests without a token pass through unmodified. Pure header
// rewrite, no other side effects.
func Authorize(req *http.Request, sess session.Session) {
	if sess.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+sess.AccessToken)
	}
}

// Transport is the [http.RoundTripper] sitting between caller modules and the
// network. Outbound it attaches the bearer token and a request ID; inbound it
// routes 401 responses through the refresh coordinator and replays the
// original request once with the renewed token.
type Transport struct {
	base      http.RoundTripper
	store     session.Store
	refresher *Coordinator
	limiter   *rate.Limiter
	logger    *log.Logger
}

// TransportOptions configures a [Transport].
type TransportOptions struct {
	Base      http.RoundTripper // defaults to [http.DefaultTransport]
	Refresher *Coordinator      // nil disables refresh-and-replay
	RateLimit float64           // requests per second; 0 disables throttling
	Logger    *log.Logger
}

// NewTransport creates an authenticated transport reading tokens from store.
func NewTransport(store session.Store, opts TransportOptions) *Transport {
	if opts.Base == nil {
		opts.Base = http.DefaultTransport
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	var limiter *rate.Limiter
	if opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	}

	return &Transport{
		base:      opts.Base,
		store:     store,
		refresher: opts.Refresher,
		limiter:   limiter,
		logger:    shared.WithLogger(opts.Logger, "component", "client.transport"),
	}
}

// RoundTrip implements [http.RoundTripper].
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.limiter != nil {
		if err := t.limiter.Wait(req.Context()); err != nil {
			return nil, err
		}
	}

	outbound := req.Clone(req.Context())
	Authorize(outbound, t.store.Get())
	if outbound.Header.Get("X-Request-ID") == "" {
		outbound.Header.Set("X-Request-ID", shared.GenerateID())
	}

	resp, err := t.base.RoundTrip(outbound)
	if err != nil {
		// Transport-level failure: no response, so nothing to classify and
		// no refresh to attempt.
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || t.refresher == nil {
		return resp, nil
	}

	if refreshDisabled(req.Context()) {
		return resp, nil
	}

	if wasRetried(req.Context()) {
		// Already replayed once; a second 401 goes back to the caller.
		return resp, nil
	}

	if req.Body != nil && req.GetBody == nil {
		t.logger.Warn("401 on request with non-replayable body, passing through",
			"method", req.Method, "url", req.URL.Path)
		return resp, nil
	}

	return t.refreshAndReplay(req, resp)
}

// refreshAndReplay suspends the failed request on the coordinator, running
// the refresh itself if none is in flight, and replays the request when its
// waiter resolves. On waiter failure the caller sees either its original 401
// (no refresh token existed) or the refresh failure.
func (t *Transport) refreshAndReplay(req *http.Request, original *http.Response) (*http.Response, error) {
	ch, lead := t.refresher.join()
	if lead {
		go t.refresher.run(req.Context())
	}

	// Deliberately no select on the request context: a waiter cannot leave
	// the queue once enqueued, it resolves or rejects with the refresh.
	res := <-ch

	if res.err != nil {
		if errors.Is(res.err, shared.ErrNoRefreshToken) {
			// No renewal was possible; the original 401 is the answer.
			return original, nil
		}
		drainAndClose(original.Body)
		return nil, res.err
	}

	drainAndClose(original.Body)

	retry := req.Clone(markRetried(req.Context()))
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrBodyNotReplayable, err)
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+res.token)
	if retry.Header.Get("X-Request-ID") == "" {
		retry.Header.Set("X-Request-ID", shared.GenerateID())
	}

	if t.limiter != nil {
		if err := t.limiter.Wait(retry.Context()); err != nil {
			return nil, err
		}
	}

	return t.base.RoundTrip(retry)
}

// drainAndClose releases a response body so the connection can be reused.
func drainAndClose(body io.ReadCloser) {
	if body == nil {
		return
	}
	io.Copy(io.Discard, body)
	body.Close()
}
