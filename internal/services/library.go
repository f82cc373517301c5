package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ilasdev/ilas/internal/client"
	"github.com/ilasdev/ilas/internal/models"
	"github.com/ilasdev/ilas/internal/shared"
)

// LibraryService wraps the books, members and transactions endpoints.
type LibraryService struct {
	api *client.Client
}

// NewLibraryService creates a library service on top of an authenticated client.
func NewLibraryService(api *client.Client) *LibraryService {
	return &LibraryService{api: api}
}

// Books lists library books with the given filters.
func (s *LibraryService) Books(ctx context.Context, opts ListOptions) (*models.Page[models.Book], error) {
	return list[models.Book](ctx, s.api, libraryPrefix+"/books/"+opts.encode())
}

// Book retrieves a single book by primary key.
func (s *LibraryService) Book(ctx context.Context, id int) (*models.Book, error) {
	return get[models.Book](ctx, s.api, fmt.Sprintf("%s/books/%d/", libraryPrefix, id))
}

// Members lists library members. Requires an admin session on the backend.
func (s *LibraryService) Members(ctx context.Context, opts ListOptions) (*models.Page[models.Member], error) {
	return list[models.Member](ctx, s.api, adminPrefix+"/members/"+opts.encode())
}

// Transactions lists the caller's borrow/return history.
func (s *LibraryService) Transactions(ctx context.Context, opts ListOptions) (*models.Page[models.Transaction], error) {
	return list[models.Transaction](ctx, s.api, libraryPrefix+"/user/transactions/"+opts.encode())
}

func list[T any](ctx context.Context, api *client.Client, path string) (*models.Page[T], error) {
	resp, err := api.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp, path); err != nil {
		return nil, err
	}
	return decodePage[T](resp.Body)
}

func get[T any](ctx context.Context, api *client.Client, path string) (*T, error) {
	resp, err := api.Get(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if err := checkStatus(resp, path); err != nil {
		return nil, err
	}

	var item T
	if err := resp.Decode(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

// checkStatus maps non-2xx responses to sentinel errors. A 401 here survived
// refresh-and-replay in the transport, so the session is genuinely expired.
func checkStatus(resp *client.Response, path string) error {
	if resp.OK() {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s returned status 401", shared.ErrAuthExpired, path)
	}
	return fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, path, resp.StatusCode)
}
