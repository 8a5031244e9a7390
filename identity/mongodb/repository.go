package mongodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/mongident/mongident/identity"
	"github.com/mongident/mongident/meta"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// repository is the MongoDB-backed identity.Repository. Each call starts its
// own driver session and ends it on every exit path; no session outlives a
// call.
type repository[T identity.Document] struct {
	// docType names the entity type in errors, e.g. "User".
	docType    string
	collection *mongo.Collection
}

func newRepository[T identity.Document](
	docType string,
	collection *mongo.Collection,
) *repository[T] {
	return &repository[T]{
		docType:    docType,
		collection: collection,
	}
}

func (r *repository[T]) withSession(
	ctx context.Context,
	fn func(mongo.SessionContext) error,
) error {
	session, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return errors.Wrapf(
			err,
			"error starting session for %s operation",
			strings.ToLower(r.docType),
		)
	}
	defer session.EndSession(ctx)
	return mongo.WithSession(ctx, session, fn)
}

func (r *repository[T]) Save(ctx context.Context, instance T) error {
	return r.withSession(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.collection.ReplaceOne(
			sc,
			bson.M{"_id": instance.DocumentID()},
			instance,
			options.Replace().SetUpsert(true),
		); err != nil {
			if writeException, ok := err.(mongo.WriteException); ok {
				if len(writeException.WriteErrors) == 1 &&
					writeException.WriteErrors[0].Code == 11000 {
					return &meta.ErrConflict{
						Type: r.docType,
						ID:   instance.DocumentID(),
						Reason: fmt.Sprintf(
							"A %s with conflicting unique field values already exists.",
							strings.ToLower(r.docType),
						),
					}
				}
			}
			return errors.Wrapf(
				err,
				"error storing %s %q",
				strings.ToLower(r.docType),
				instance.DocumentID(),
			)
		}
		return nil
	})
}

// Update is functionally identical to Save; store-by-key is an upsert.
func (r *repository[T]) Update(ctx context.Context, instance T) error {
	return r.Save(ctx, instance)
}

func (r *repository[T]) Delete(ctx context.Context, instance T) error {
	return r.withSession(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.collection.DeleteOne(
			sc,
			bson.M{"_id": instance.DocumentID()},
		); err != nil {
			return errors.Wrapf(
				err,
				"error deleting %s %q",
				strings.ToLower(r.docType),
				instance.DocumentID(),
			)
		}
		return nil
	})
}

func (r *repository[T]) FindAll(ctx context.Context) ([]T, error) {
	return r.FindAllBy(ctx, bson.M{})
}

func (r *repository[T]) FindAllBy(
	ctx context.Context,
	filter bson.M,
) ([]T, error) {
	var instances []T
	err := r.withSession(ctx, func(sc mongo.SessionContext) error {
		cur, err := r.collection.Find(sc, filter)
		if err != nil {
			return errors.Wrapf(
				err,
				"error finding %ss",
				strings.ToLower(r.docType),
			)
		}
		if err := cur.All(sc, &instances); err != nil {
			return errors.Wrapf(
				err,
				"error decoding %ss",
				strings.ToLower(r.docType),
			)
		}
		return nil
	})
	return instances, err
}

func (r *repository[T]) FindOneBy(
	ctx context.Context,
	filter bson.M,
) (T, bool, error) {
	var instance T
	var found bool
	err := r.withSession(ctx, func(sc mongo.SessionContext) error {
		// Fetch up to two documents so an ambiguous match is detectable.
		findOptions := options.Find()
		findOptions.SetLimit(2)
		cur, err := r.collection.Find(sc, filter, findOptions)
		if err != nil {
			return errors.Wrapf(
				err,
				"error finding %s",
				strings.ToLower(r.docType),
			)
		}
		var matches []T
		if err := cur.All(sc, &matches); err != nil {
			return errors.Wrapf(
				err,
				"error decoding %s",
				strings.ToLower(r.docType),
			)
		}
		if len(matches) > 1 {
			return &meta.ErrAmbiguousResult{
				Type: r.docType,
			}
		}
		if len(matches) == 1 {
			instance = matches[0]
			found = true
		}
		return nil
	})
	return instance, found, err
}
