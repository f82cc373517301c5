// Package services contains the caller modules: thin wrappers over the
// library domain endpoints. They submit requests through the authenticated
// [client.Client] and know nothing about tokens; expiry, renewal and replay
// all happen below them in the transport.
package services

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/ilasdev/ilas/internal/models"
	"github.com/ilasdev/ilas/internal/shared"
)

// Endpoint prefixes mirroring the backend's URL layout.
const (
	libraryPrefix = "v1/library"
	adminPrefix   = "v1/admin"
)

// ListOptions are the common filter/pagination query parameters.
type ListOptions struct {
	Page     int
	PageSize int
	Search   string
}

func (o ListOptions) encode() string {
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", fmt.Sprintf("%d", o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", fmt.Sprintf("%d", o.PageSize))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// decodePage normalizes the backend's list shapes into a [models.Page]. The
// backend answers with a bare array, a paginated envelope, or a paginated
// envelope wrapped in {"success": ..., "data": ...}; all three are accepted.
func decodePage[T any](body []byte) (*models.Page[T], error) {
	trimmed := strings.TrimSpace(string(body))

	if strings.HasPrefix(trimmed, "[") {
		var items []T
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
		}
		return &models.Page[T]{Count: len(items), Results: items}, nil
	}

	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && len(wrapper.Data) > 0 {
		body = wrapper.Data
	}

	var page models.Page[T]
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrMalformedResponse, err)
	}
	if page.Results == nil {
		page.Results = []T{}
	}
	return &page, nil
}
