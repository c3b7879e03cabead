package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"collab_web/internal/auth"
	"collab_web/internal/policy"
	"collab_web/internal/repository"
)

type ResourceType string

const (
	ResourceTask    ResourceType = "task"
	ResourceComment ResourceType = "comment"
	ResourceVersion ResourceType = "version"
)

// Request 描述一次對資源的操作，建立時 ID 為 0
type Request struct {
	Type   ResourceType
	Action policy.Action
	ID     uint
	Patch  interface{}
}

type Status int

const (
	StatusApplied Status = iota
	StatusDenied
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return "applied"
	case StatusDenied:
		return "denied"
	case StatusNotFound:
		return "not_found"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome 是一次操作的結果。Affected 只在 clearAll 時有意義
type Outcome struct {
	Status   Status
	Result   interface{}
	Affected int64
}

// Err 把非 Applied 的結果轉成對應的錯誤
func (o Outcome) Err() error {
	switch o.Status {
	case StatusDenied:
		return ErrDenied
	case StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Coordinator 把身分、policy 與持久層串在一起。
// 同一個資源的操作會依序執行，不同資源之間互不阻塞。
type Coordinator struct {
	gate    *auth.Gate
	decider policy.Decider
	stores  map[ResourceType]Store
	locks   *keyedLocks
	logger  *slog.Logger
}

func NewCoordinator(gate *auth.Gate, decider policy.Decider, stores map[ResourceType]Store, logger *slog.Logger) *Coordinator {
	if decider == nil {
		decider = policy.Engine{}
	}
	return &Coordinator{
		gate:    gate,
		decider: decider,
		stores:  stores,
		locks:   newKeyedLocks(),
		logger:  logger.With("component", "coordinator"),
	}
}

// Submit 先驗證憑證再執行操作，驗證失敗時不會碰到 policy 或持久層
func (c *Coordinator) Submit(ctx context.Context, credential string, req Request, roles ...auth.Role) (Outcome, error) {
	actor, err := c.gate.Authenticate(credential, roles...)
	if err != nil {
		return Outcome{}, err
	}
	return c.Mutate(ctx, actor, req)
}

func (c *Coordinator) Mutate(ctx context.Context, actor auth.Identity, req Request) (Outcome, error) {
	store, ok := c.stores[req.Type]
	if !ok {
		return Outcome{}, fmt.Errorf("%w: unknown resource type %q", ErrInvalid, req.Type)
	}

	switch req.Action {
	case policy.ActionCreate:
		if !c.decider.Decide(actor, req.Action, nil).Allowed() {
			return Outcome{Status: StatusDenied}, nil
		}
		return c.apply(ctx, store, actor, req)

	case policy.ActionRead, policy.ActionUpdate, policy.ActionDelete:
		release, err := c.locks.acquire(ctx, lockKey{req.Type, req.ID})
		if err != nil {
			return Outcome{}, err
		}
		defer release()
		return c.checkAndApply(ctx, store, actor, req)

	case policy.ActionClearAll:
		return c.clearAll(ctx, store, actor, req)
	}
	return Outcome{}, fmt.Errorf("%w: unknown action %q", ErrInvalid, req.Action)
}

// checkAndApply 在持有資源鎖的情況下執行
func (c *Coordinator) checkAndApply(ctx context.Context, store Store, actor auth.Identity, req Request) (Outcome, error) {
	rec, err := store.Fetch(ctx, req.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return Outcome{Status: StatusNotFound}, nil
	}
	if err != nil {
		return Outcome{}, c.fail(fmt.Sprintf("fetch %s %d", req.Type, req.ID), err)
	}

	if !c.decider.Decide(actor, req.Action, rec.Resource()).Allowed() {
		c.logger.Debug("mutation denied",
			"type", req.Type, "id", req.ID, "action", req.Action, "actor", actor.String())
		return Outcome{Status: StatusDenied}, nil
	}
	return c.apply(ctx, store, actor, req)
}

func (c *Coordinator) apply(ctx context.Context, store Store, actor auth.Identity, req Request) (Outcome, error) {
	result, err := store.Apply(ctx, repository.Mutation{
		ID:      req.ID,
		Action:  req.Action,
		ActorID: actor.UserID,
		Patch:   req.Patch,
	})
	switch {
	case err == nil:
		out := Outcome{Status: StatusApplied, Result: result}
		if req.Action == policy.ActionDelete {
			out.Affected = 1
		}
		return out, nil
	case errors.Is(err, repository.ErrNotFound):
		return Outcome{Status: StatusNotFound}, nil
	case errors.Is(err, repository.ErrInvalidPatch):
		return Outcome{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return Outcome{}, c.fail(fmt.Sprintf("%s %s %d", req.Action, req.Type, req.ID), err)
}

// clearAll 只做一次判斷，再依結果決定刪除全部或只刪自己的資源
func (c *Coordinator) clearAll(ctx context.Context, store Store, actor auth.Identity, req Request) (Outcome, error) {
	switch c.decider.Decide(actor, policy.ActionClearAll, nil) {
	case policy.Allow:
		n, err := store.DeleteAll(ctx)
		if err != nil {
			return Outcome{}, c.fail(fmt.Sprintf("clear all %s", req.Type), err)
		}
		return Outcome{Status: StatusApplied, Affected: n}, nil

	case policy.AllowOwned:
		ids, err := store.ListOwnedBy(ctx, actor.UserID)
		if err != nil {
			return Outcome{}, c.fail(fmt.Sprintf("list %s owned by %d", req.Type, actor.UserID), err)
		}
		var affected int64
		for _, id := range ids {
			ok, err := c.deleteOwned(ctx, store, actor, req.Type, id)
			if err != nil {
				return Outcome{Status: StatusApplied, Affected: affected}, err
			}
			if ok {
				affected++
			}
		}
		return Outcome{Status: StatusApplied, Affected: affected}, nil
	}
	return Outcome{Status: StatusDenied}, nil
}

func (c *Coordinator) deleteOwned(ctx context.Context, store Store, actor auth.Identity, typ ResourceType, id uint) (bool, error) {
	release, err := c.locks.acquire(ctx, lockKey{typ, id})
	if err != nil {
		return false, err
	}
	defer release()

	_, err = store.Apply(ctx, repository.Mutation{ID: id, Action: policy.ActionDelete, ActorID: actor.UserID})
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		// 已經被其他請求刪除
		return false, nil
	}
	return false, c.fail(fmt.Sprintf("delete %s %d", typ, id), err)
}

func (c *Coordinator) fail(op string, err error) error {
	if !errors.Is(err, context.Canceled) {
		c.logger.Error("persistence failure", "op", op, "error", err)
	}
	return upstream(op, err)
}
