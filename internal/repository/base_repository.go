package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"collab_web/internal/policy"
	"collab_web/internal/storage"
)

// Mutation 是協調器交給 repository 執行的一次變更
type Mutation struct {
	ID      uint // 建立時為 0
	Action  policy.Action
	ActorID uint
	Patch   interface{}
}

// ownedRepository 提供有 created_by 欄位的資源共用的操作
type ownedRepository[T any] struct {
	db *storage.DB
}

func (r ownedRepository[T]) find(ctx context.Context, id uint) (*T, error) {
	var model T
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		return nil, translate(err)
	}
	return &model, nil
}

func (r ownedRepository[T]) delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(new(T), id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListOwnedBy 回傳 ownerID 建立的所有資源 ID
func (r ownedRepository[T]) ListOwnedBy(ctx context.Context, ownerID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(new(T)).Where("created_by = ?", ownerID).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// DeleteAll 刪除所有資源，只有管理員的 clearAll 會用到
func (r ownedRepository[T]) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(new(T))
	return res.RowsAffected, res.Error
}

// Count 回傳資源總數
func (r ownedRepository[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(new(T)).Count(&n).Error
	return n, err
}

func patchError(want string, got interface{}) error {
	return fmt.Errorf("%w: expected %s, got %T", ErrInvalidPatch, want, got)
}
