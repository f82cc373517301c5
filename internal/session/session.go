package session

import (
	"encoding/json"
	"fmt"

	"github.com/ilasdev/ilas/internal/models"
	"github.com/ilasdev/ilas/internal/shared"
)

// Storage keys shared with the browser portal's localStorage layout.
const (
	KeyAccess  = "access"
	KeyRefresh = "refresh"
	KeyUser    = "user"
)

// Session holds the credential pair and the user profile for one login.
// A session is either fully populated or fully empty; [Store.Set] rejects
// partial sessions so that no partial state ever persists.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *models.User
}

// Empty reports whether no session field is set.
func (s Session) Empty() bool {
	return s.AccessToken == "" && s.RefreshToken == "" && s.User == nil
}

// Populated reports whether every session field is set.
func (s Session) Populated() bool {
	return s.AccessToken != "" && s.RefreshToken != "" && s.User != nil
}

// Validate checks the all-or-nothing invariant.
func (s Session) Validate() error {
	if s.Empty() || s.Populated() {
		return nil
	}
	return fmt.Errorf("%w: partial session must not persist", shared.ErrInvalidInput)
}

// Store is the contract for session persistence. Get and Set are synchronous.
// Subscribe registers a callback fired when the session is changed by another
// store handle sharing the same backing storage; it is never fired for the
// handle's own writes. The returned cancel function unregisters the callback.
type Store interface {
	Get() Session
	Set(s Session) error
	Clear() error
	Subscribe(fn func(Session)) (cancel func())
}

// encodeUser serializes the user profile for the "user" storage entry.
func encodeUser(u *models.User) (string, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return "", fmt.Errorf("failed to serialize user: %w", err)
	}
	return string(data), nil
}

// decodeUser deserializes the "user" storage entry. An empty value yields nil.
func decodeUser(raw string) (*models.User, error) {
	if raw == "" {
		return nil, nil
	}
	var u models.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("failed to parse stored user: %w", err)
	}
	return &u, nil
}
