package mongodb

import (
	"context"

	"github.com/mongident/mongident/identity"
	"go.mongodb.org/mongo-driver/bson"
)

// fakeRepository stands in for the mongo-backed repository in store tests.
// Unset functions return zero values.
type fakeRepository[T identity.Document] struct {
	SaveFn      func(context.Context, T) error
	UpdateFn    func(context.Context, T) error
	DeleteFn    func(context.Context, T) error
	FindAllFn   func(context.Context) ([]T, error)
	FindAllByFn func(context.Context, bson.M) ([]T, error)
	FindOneByFn func(context.Context, bson.M) (T, bool, error)
}

func (f *fakeRepository[T]) Save(ctx context.Context, instance T) error {
	if f.SaveFn == nil {
		return nil
	}
	return f.SaveFn(ctx, instance)
}

func (f *fakeRepository[T]) Update(ctx context.Context, instance T) error {
	if f.UpdateFn == nil {
		return nil
	}
	return f.UpdateFn(ctx, instance)
}

func (f *fakeRepository[T]) Delete(ctx context.Context, instance T) error {
	if f.DeleteFn == nil {
		return nil
	}
	return f.DeleteFn(ctx, instance)
}

func (f *fakeRepository[T]) FindAll(ctx context.Context) ([]T, error) {
	if f.FindAllFn == nil {
		return nil, nil
	}
	return f.FindAllFn(ctx)
}

func (f *fakeRepository[T]) FindAllBy(
	ctx context.Context,
	filter bson.M,
) ([]T, error) {
	if f.FindAllByFn == nil {
		return nil, nil
	}
	return f.FindAllByFn(ctx, filter)
}

func (f *fakeRepository[T]) FindOneBy(
	ctx context.Context,
	filter bson.M,
) (T, bool, error) {
	if f.FindOneByFn == nil {
		var zero T
		return zero, false, nil
	}
	return f.FindOneByFn(ctx, filter)
}

func canceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
