package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type searchRunKey struct{}

// WithSearchRunID tags ctx with the id the in-progress search will be stored under,
// so audit rows written along the way can point back at it.
func WithSearchRunID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, searchRunKey{}, id)
}

func SearchRunID(ctx context.Context) *uuid.UUID {
	if ctx == nil {
		return nil
	}
	id, ok := ctx.Value(searchRunKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return nil
	}
	return &id
}
