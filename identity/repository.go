package identity

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// Document is the constraint satisfied by every persisted entity type.
type Document interface {
	// DocumentID returns the key the document is stored under.
	DocumentID() string
}

// Repository is a generic per-entity wrapper around the document store. It
// carries no business logic. Every call acquires its own store session and
// releases it before returning; no session is ever held across calls, so
// there is no atomicity across multiple repository operations.
//
// Store-layer connectivity failures propagate to the caller with added
// context but are never retried, logged, or swallowed here.
type Repository[T Document] interface {
	// Save inserts or replaces one document, keyed by its DocumentID.
	Save(ctx context.Context, instance T) error

	// Update is functionally identical to Save -- store-by-key is an upsert.
	// It exists to distinguish caller intent, not behavior.
	Update(ctx context.Context, instance T) error

	// Delete removes the document with the instance's DocumentID.
	Delete(ctx context.Context, instance T) error

	// FindAll returns every document of type T. Ordering is unspecified.
	FindAll(ctx context.Context) ([]T, error)

	// FindAllBy returns all documents matching the given filter.
	FindAllBy(ctx context.Context, filter bson.M) ([]T, error)

	// FindOneBy returns the single document matching the given filter, with
	// found == false when nothing matches. Matching more than one document is
	// a hard failure of type *meta.ErrAmbiguousResult; callers that want a
	// first-match should use FindAllBy and take the head.
	FindOneBy(ctx context.Context, filter bson.M) (instance T, found bool, err error)
}
