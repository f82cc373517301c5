package main

import (
	"context"

	"github.com/ilasdev/ilas/internal/services"
	"github.com/urfave/cli/v3"
)

func listOptions(cmd *cli.Command) services.ListOptions {
	return services.ListOptions{
		Page:     cmd.Int("page"),
		PageSize: cmd.Int("page-size"),
		Search:   cmd.String("search"),
	}
}

// BooksList prints the books listing.
func (r *Runner) BooksList(ctx context.Context, cmd *cli.Command) error {
	page, err := r.library.Books(ctx, listOptions(cmd))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	r.writePlain("%d books (showing %d)\n", page.Count, len(page.Results))
	for _, book := range page.Results {
		if err := r.writePlain("%6d  %-40s  %-24s  %s\n", book.ID, book.Title, book.Author, book.Status); err != nil {
			return err
		}
	}
	return nil
}

// MembersList prints the members listing.
func (r *Runner) MembersList(ctx context.Context, cmd *cli.Command) error {
	page, err := r.library.Members(ctx, listOptions(cmd))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	r.writePlain("%d members (showing %d)\n", page.Count, len(page.Results))
	for _, member := range page.Results {
		if err := r.writePlain("%6d  %-32s  %-32s  %s\n", member.ID, member.Name, member.Email, member.Status); err != nil {
			return err
		}
	}
	return nil
}

// TransactionsList prints the caller's borrow/return history.
func (r *Runner) TransactionsList(ctx context.Context, cmd *cli.Command) error {
	page, err := r.library.Transactions(ctx, listOptions(cmd))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(page, true)
	}

	r.writePlain("%d transactions (showing %d)\n", page.Count, len(page.Results))
	for _, txn := range page.Results {
		if err := r.writePlain("%6d  %-8s  %-40s  due %s  %s\n", txn.ID, txn.TxnType, txn.BookTitle, txn.DueDate, txn.Status); err != nil {
			return err
		}
	}
	return nil
}
