package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab_web/internal/auth"
	"collab_web/internal/policy"
	"collab_web/internal/repository"
)

const testSecret = "coordinator-test-secret"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeRecord struct {
	owner uint
}

func (r fakeRecord) Resource() *policy.Resource {
	return &policy.Resource{OwnerID: r.owner}
}

// fakeStore 是記憶體中的持久層，會記錄被呼叫的次數
type fakeStore struct {
	mu       sync.Mutex
	records  map[uint]fakeRecord
	nextID   uint
	fetches  atomic.Int32
	applies  atomic.Int32
	applyErr error
	block    chan struct{} // 非 nil 時 Apply 會等到它被關閉
	entered  chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[uint]fakeRecord{}}
}

func (s *fakeStore) seed(owner uint) uint {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.records[s.nextID] = fakeRecord{owner: owner}
	return s.nextID
}

func (s *fakeStore) has(id uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[id]
	return ok
}

func (s *fakeStore) Fetch(_ context.Context, id uint) (Record, error) {
	s.fetches.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (s *fakeStore) Apply(ctx context.Context, m repository.Mutation) (interface{}, error) {
	s.applies.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.block != nil {
		select {
		case <-s.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.applyErr != nil {
		return nil, s.applyErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	switch m.Action {
	case policy.ActionCreate:
		s.nextID++
		s.records[s.nextID] = fakeRecord{owner: m.ActorID}
		return s.nextID, nil
	case policy.ActionDelete:
		if _, ok := s.records[m.ID]; !ok {
			return nil, repository.ErrNotFound
		}
		delete(s.records, m.ID)
		return nil, nil
	}
	return s.records[m.ID], nil
}

func (s *fakeStore) ListOwnedBy(_ context.Context, owner uint) ([]uint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []uint
	for id, rec := range s.records {
		if rec.owner == owner {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *fakeStore) DeleteAll(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.records))
	s.records = map[uint]fakeRecord{}
	return n, nil
}

type spyDecider struct {
	calls atomic.Int32
}

func (d *spyDecider) Decide(actor auth.Identity, action policy.Action, res *policy.Resource) policy.Decision {
	d.calls.Add(1)
	return policy.Decide(actor, action, res)
}

func newTestCoordinator(t *testing.T, store Store, decider policy.Decider) *Coordinator {
	t.Helper()
	gate, err := auth.NewGate(testSecret, time.Hour)
	require.NoError(t, err)
	return NewCoordinator(gate, decider, map[ResourceType]Store{ResourceTask: store}, newTestLogger())
}

var (
	memberM = auth.Identity{UserID: 1, Role: auth.RoleMember}
	memberN = auth.Identity{UserID: 2, Role: auth.RoleMember}
	admin   = auth.Identity{UserID: 3, Role: auth.RoleAdmin}
)

func TestMutate_MemberCannotDeleteOthersButAdminCan(t *testing.T) {
	store := newFakeStore()
	c := newTestCoordinator(t, store, nil)
	ctx := context.Background()

	created, err := c.Mutate(ctx, memberM, Request{Type: ResourceTask, Action: policy.ActionCreate})
	require.NoError(t, err)
	require.Equal(t, StatusApplied, created.Status)
	id := created.Result.(uint)

	out, err := c.Mutate(ctx, memberN, Request{Type: ResourceTask, Action: policy.ActionDelete, ID: id})
	require.NoError(t, err)
	assert.Equal(t, StatusDenied, out.Status)
	assert.ErrorIs(t, out.Err(), ErrDenied)
	assert.True(t, store.has(id))
	assert.Equal(t, int32(1), store.applies.Load(), "denied delete must not reach persistence")

	out, err = c.Mutate(ctx, admin, Request{Type: ResourceTask, Action: policy.ActionDelete, ID: id})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, out.Status)
	assert.False(t, store.has(id))
}

func TestSubmit_ExpiredCredentialStopsAtGate(t *testing.T) {
	store := newFakeStore()
	id := store.seed(memberM.UserID)
	decider := &spyDecider{}
	c := newTestCoordinator(t, store, decider)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: memberM.UserID,
		Role:   string(auth.RoleMember),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(-time.Minute).Unix(),
		},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = c.Submit(context.Background(), expired, Request{Type: ResourceTask, Action: policy.ActionDelete, ID: id})
	assert.ErrorIs(t, err, auth.ErrCredentialExpired)
	assert.Zero(t, decider.calls.Load())
	assert.Zero(t, store.fetches.Load())
	assert.Zero(t, store.applies.Load())
	assert.True(t, store.has(id))
}

func TestSubmit_ValidCredential(t *testing.T) {
	store := newFakeStore()
	id := store.seed(memberM.UserID)
	c := newTestCoordinator(t, store, nil)

	token, err := c.gate.Issue(memberM)
	require.NoError(t, err)

	out, err := c.Submit(context.Background(), token, Request{Type: ResourceTask, Action: policy.ActionDelete, ID: id})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, out.Status)

	_, err = c.Submit(context.Background(), token, Request{Type: ResourceTask, Action: policy.ActionRead, ID: id}, auth.RoleAdmin)
	assert.ErrorIs(t, err, auth.ErrForbidden)
}

func TestMutate_NotFoundBeforePolicy(t *testing.T) {
	decider := &spyDecider{}
	c := newTestCoordinator(t, newFakeStore(), decider)

	out, err := c.Mutate(context.Background(), admin, Request{Type: ResourceTask, Action: policy.ActionUpdate, ID: 42})
	require.NoError(t, err)
	assert.Equal(t, StatusNotFound, out.Status)
	assert.ErrorIs(t, out.Err(), ErrNotFound)
	assert.Zero(t, decider.calls.Load())
}

func TestMutate_UnknownTypeAndAction(t *testing.T) {
	c := newTestCoordinator(t, newFakeStore(), nil)

	_, err := c.Mutate(context.Background(), admin, Request{Type: "idea", Action: policy.ActionCreate})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = c.Mutate(context.Background(), admin, Request{Type: ResourceTask, Action: "archive"})
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestMutate_InvalidPatch(t *testing.T) {
	store := newFakeStore()
	store.applyErr = repository.ErrInvalidPatch
	c := newTestCoordinator(t, store, nil)

	_, err := c.Mutate(context.Background(), memberM, Request{Type: ResourceTask, Action: policy.ActionCreate})
	assert.ErrorIs(t, err, ErrInvalid)
	var up *UpstreamError
	assert.False(t, errors.As(err, &up))
}

func TestMutate_UpstreamFailureIsWrapped(t *testing.T) {
	store := newFakeStore()
	id := store.seed(memberM.UserID)
	cause := errors.New("connection reset")
	store.applyErr = cause
	c := newTestCoordinator(t, store, nil)

	_, err := c.Mutate(context.Background(), memberM, Request{Type: ResourceTask, Action: policy.ActionDelete, ID: id})
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, up.Op, "delete")
}

func TestMutate_ClearAll(t *testing.T) {
	t.Run("member clears own only", func(t *testing.T) {
		store := newFakeStore()
		own1 := store.seed(memberM.UserID)
		other := store.seed(memberN.UserID)
		own2 := store.seed(memberM.UserID)
		decider := &spyDecider{}
		c := newTestCoordinator(t, store, decider)

		out, err := c.Mutate(context.Background(), memberM, Request{Type: ResourceTask, Action: policy.ActionClearAll})
		require.NoError(t, err)
		assert.Equal(t, StatusApplied, out.Status)
		assert.Equal(t, int64(2), out.Affected)
		assert.False(t, store.has(own1))
		assert.False(t, store.has(own2))
		assert.True(t, store.has(other))
		assert.Equal(t, int32(1), decider.calls.Load(), "clearAll decides once")
	})

	t.Run("admin clears everything", func(t *testing.T) {
		store := newFakeStore()
		store.seed(memberM.UserID)
		store.seed(memberN.UserID)
		c := newTestCoordinator(t, store, nil)

		out, err := c.Mutate(context.Background(), admin, Request{Type: ResourceTask, Action: policy.ActionClearAll})
		require.NoError(t, err)
		assert.Equal(t, int64(2), out.Affected)
		ids, _ := store.ListOwnedBy(context.Background(), memberN.UserID)
		assert.Empty(t, ids)
	})
}

func TestMutate_SameResourceIsSerialized(t *testing.T) {
	store := newFakeStore()
	id := store.seed(memberM.UserID)
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 2)
	c := newTestCoordinator(t, store, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make(chan Outcome, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := c.Mutate(ctx, memberM, Request{Type: ResourceTask, Action: policy.ActionDelete, ID: id})
			assert.NoError(t, err)
			results <- out
		}()
	}

	<-store.entered
	// 第二個請求拿不到鎖，不會進到 Fetch
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), store.fetches.Load())

	close(store.block)
	wg.Wait()
	close(results)

	var statuses []Status
	for out := range results {
		statuses = append(statuses, out.Status)
	}
	assert.ElementsMatch(t, []Status{StatusApplied, StatusNotFound}, statuses)
	assert.Zero(t, c.locks.size())
}

func TestMutate_DifferentResourcesDoNotBlock(t *testing.T) {
	store := newFakeStore()
	blocked := store.seed(memberM.UserID)
	free := store.seed(memberM.UserID)
	c := newTestCoordinator(t, store, nil)

	release, err := c.locks.acquire(context.Background(), lockKey{ResourceTask, blocked})
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	out, err := c.Mutate(ctx, memberM, Request{Type: ResourceTask, Action: policy.ActionRead, ID: free})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, out.Status)
}

func TestMutate_CancelReleasesWaiter(t *testing.T) {
	store := newFakeStore()
	id := store.seed(memberM.UserID)
	c := newTestCoordinator(t, store, nil)

	release, err := c.locks.acquire(context.Background(), lockKey{ResourceTask, id})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = c.Mutate(ctx, memberM, Request{Type: ResourceTask, Action: policy.ActionDelete, ID: id})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, store.fetches.Load())

	release()
	release()
	assert.Zero(t, c.locks.size())

	out, err := c.Mutate(context.Background(), memberM, Request{Type: ResourceTask, Action: policy.ActionDelete, ID: id})
	require.NoError(t, err)
	assert.Equal(t, StatusApplied, out.Status)
}

func TestMutate_CancelDuringApplyReleasesLock(t *testing.T) {
	store := newFakeStore()
	id := store.seed(memberM.UserID)
	store.block = make(chan struct{})
	c := newTestCoordinator(t, store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := c.Mutate(ctx, memberM, Request{Type: ResourceTask, Action: policy.ActionDelete, ID: id})
		done <- err
	}()
	require.Eventually(t, func() bool { return store.applies.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	err := <-done
	var up *UpstreamError
	require.ErrorAs(t, err, &up)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, c.locks.size())
	assert.True(t, store.has(id))
}
