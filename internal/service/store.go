package service

import (
	"context"

	"collab_web/internal/policy"
	"collab_web/internal/repository"
)

// Record 是持久層回傳、可以交給 policy 判斷的資源
type Record interface {
	Resource() *policy.Resource
}

// Store 是協調器依賴的持久層
type Store interface {
	Fetch(ctx context.Context, id uint) (Record, error)
	Apply(ctx context.Context, m repository.Mutation) (interface{}, error)
	ListOwnedBy(ctx context.Context, ownerID uint) ([]uint, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type typedStore[T Record] interface {
	Fetch(ctx context.Context, id uint) (T, error)
	Apply(ctx context.Context, m repository.Mutation) (interface{}, error)
	ListOwnedBy(ctx context.Context, ownerID uint) ([]uint, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type storeAdapter[T Record] struct {
	typedStore[T]
}

// AdaptStore 讓回傳具體 model 的 repository 符合 Store
func AdaptStore[T Record](s typedStore[T]) Store {
	return storeAdapter[T]{s}
}

func (a storeAdapter[T]) Fetch(ctx context.Context, id uint) (Record, error) {
	rec, err := a.typedStore.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}
