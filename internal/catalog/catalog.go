// Package catalog maintains the products, customers and expenses the
// dashboard aggregates.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/bizdash/bizdash/internal/records"
)

var (
	ErrNotFound     = errors.New("catalog: record not found")
	ErrInvalidInput = errors.New("catalog: invalid input")
	ErrInUse        = errors.New("catalog: record is referenced")
)

// Service validates catalog writes before they reach the store.
type Service struct {
	store    records.Store
	validate *validator.Validate
	logger   *slog.Logger
}

// NewService builds the service.
func NewService(store records.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, validate: validator.New(), logger: logger}
}

func (s *Service) check(input any) error {
	if err := s.validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

// update applies patch and maps a missing row onto ErrNotFound.
func (s *Service) update(ctx context.Context, c records.Collection, id string, patch map[string]any) error {
	err := s.store.Update(ctx, c, id, patch)
	if errors.Is(err, records.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, c, id)
	}
	return err
}

// remove deletes id from c unless one of refs still points at it.
func (s *Service) remove(ctx context.Context, c records.Collection, id string, refs map[records.Collection]string) error {
	for ref, column := range refs {
		n, err := s.store.Count(ctx, ref, records.Query{}.Where(column, records.OpEq, id))
		if err != nil {
			return fmt.Errorf("check %s: %w", ref, err)
		}
		if n > 0 {
			return fmt.Errorf("%w: %d %s on file", ErrInUse, n, ref)
		}
	}
	err := s.store.Delete(ctx, c, id)
	if errors.Is(err, records.ErrNotFound) {
		return fmt.Errorf("%w: %s %s", ErrNotFound, c, id)
	}
	if err == nil {
		s.logger.Info("catalog record deleted", slog.String("collection", string(c)), slog.String("id", id))
	}
	return err
}
