package database

import "context"

// Transactor runs fn so that repository calls made with the ctx it receives
// share one unit of work.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NoopTransactor runs fn directly. Used with stores that have no transactions.
type NoopTransactor struct{}

func (NoopTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
