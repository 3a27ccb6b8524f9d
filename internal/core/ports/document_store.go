package ports

import (
	"context"

	"go.trai.ch/hoard/internal/core/domain"
)

// DocumentStore is the authoritative, slow store that cached results are derived from.
//
//go:generate go run go.uber.org/mock/mockgen -source=document_store.go -destination=mocks/mock_document_store.go -package=mocks
type DocumentStore interface {
	// Find returns the documents matching q, sorted and windowed by its offset and limit.
	Find(ctx context.Context, q domain.FindQuery) (domain.FindResult, error)

	// Count returns the number of documents matching q, ignoring its offset and limit.
	Count(ctx context.Context, q domain.FindQuery) (int64, error)
}
