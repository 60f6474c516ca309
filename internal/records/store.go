package records

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an update or delete matches no row.
	ErrNotFound = errors.New("records: not found")
	// ErrUnknownCollection is returned for collection names outside the registry.
	ErrUnknownCollection = errors.New("records: unknown collection")
	// ErrInvalidField is returned for filters, sort keys or patches naming unknown columns.
	ErrInvalidField = errors.New("records: invalid field")
	// ErrTypeMismatch is returned when a destination or record does not match the collection type.
	ErrTypeMismatch = errors.New("records: type mismatch")
)

// Store is row-level CRUD over named collections.
type Store interface {
	// Fetch loads matching rows into dest, which must point to a slice of
	// the collection's record type.
	Fetch(ctx context.Context, c Collection, q Query, dest any) error
	// Insert stores record and returns its id, generating one when empty.
	Insert(ctx context.Context, c Collection, record any) (string, error)
	Update(ctx context.Context, c Collection, id string, patch map[string]any) error
	Delete(ctx context.Context, c Collection, id string) error
	Count(ctx context.Context, c Collection, q Query) (int, error)
}

// FetchAll is the typed form of Store.Fetch.
func FetchAll[T any](ctx context.Context, store Store, c Collection, q Query) ([]T, error) {
	var out []T
	if err := store.Fetch(ctx, c, q, &out); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", c, err)
	}
	return out, nil
}

// MutationHook runs after a successful write to c.
type MutationHook func(ctx context.Context, c Collection)

type observed struct {
	Store
	hook MutationHook
}

// Observe wraps store so hook runs after every successful Insert, Update and Delete.
func Observe(store Store, hook MutationHook) Store {
	if hook == nil {
		return store
	}
	return &observed{Store: store, hook: hook}
}

func (o *observed) Insert(ctx context.Context, c Collection, record any) (string, error) {
	id, err := o.Store.Insert(ctx, c, record)
	if err == nil {
		o.hook(ctx, c)
	}
	return id, err
}

func (o *observed) Update(ctx context.Context, c Collection, id string, patch map[string]any) error {
	err := o.Store.Update(ctx, c, id, patch)
	if err == nil {
		o.hook(ctx, c)
	}
	return err
}

func (o *observed) Delete(ctx context.Context, c Collection, id string) error {
	err := o.Store.Delete(ctx, c, id)
	if err == nil {
		o.hook(ctx, c)
	}
	return err
}
