package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collab_web/internal/auth"
	"collab_web/internal/models"
	"collab_web/internal/policy"
	"collab_web/internal/storage"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db, err := storage.NewSQLiteDB(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return NewRepositories(db)
}

func newUser(t *testing.T, repos *Repositories, email string) *models.User {
	t.Helper()
	u := &models.User{Name: email, Email: email, Password: "hash", Role: auth.RoleMember}
	require.NoError(t, repos.User.Create(context.Background(), u))
	return u
}

func strPtr(s string) *string { return &s }

func TestUserRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	u := newUser(t, repos, "a@example.com")

	err := repos.User.Create(ctx, &models.User{Name: "dup", Email: "a@example.com", Password: "x"})
	assert.ErrorIs(t, err, ErrDuplicate)

	got, err := repos.User.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = repos.User.FindByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	at := time.Now()
	require.NoError(t, repos.User.RecordLogin(ctx, u.ID, at))
	require.NoError(t, repos.User.RecordLogin(ctx, u.ID, at))
	got, err = repos.User.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.LoginCount)

	updated, err := repos.User.UpdateRole(ctx, u.ID, auth.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, updated.Role)
	_, err = repos.User.UpdateRole(ctx, 999, auth.RoleAdmin)
	assert.ErrorIs(t, err, ErrNotFound)

	n, err := repos.User.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestTaskRepository_Apply(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	owner := newUser(t, repos, "owner@example.com")

	res, err := repos.Task.Apply(ctx, Mutation{Action: policy.ActionCreate, ActorID: owner.ID, Patch: TaskPatch{Title: strPtr("draft")}})
	require.NoError(t, err)
	task := res.(*models.Task)
	assert.Equal(t, models.TaskStatusTodo, task.Status)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, owner.ID, task.Resource().OwnerID)

	_, err = repos.Task.Apply(ctx, Mutation{Action: policy.ActionCreate, ActorID: owner.ID, Patch: TaskPatch{}})
	assert.ErrorIs(t, err, ErrInvalidPatch)
	_, err = repos.Task.Apply(ctx, Mutation{Action: policy.ActionCreate, ActorID: owner.ID, Patch: "title"})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	progress := 150
	_, err = repos.Task.Apply(ctx, Mutation{ID: task.ID, Action: policy.ActionUpdate, Patch: TaskPatch{Progress: &progress}})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	status := models.TaskStatusReview
	assignee := uint(7)
	progress = 40
	res, err = repos.Task.Apply(ctx, Mutation{ID: task.ID, Action: policy.ActionUpdate, Patch: TaskPatch{
		Status: &status, AssignedTo: &assignee, Progress: &progress,
	}})
	require.NoError(t, err)
	task = res.(*models.Task)
	assert.Equal(t, models.TaskStatusReview, task.Status)
	assert.Equal(t, 40, task.Progress)
	assert.Equal(t, uint(7), task.Resource().AssigneeID)

	unassign := uint(0)
	res, err = repos.Task.Apply(ctx, Mutation{ID: task.ID, Action: policy.ActionUpdate, Patch: TaskPatch{AssignedTo: &unassign}})
	require.NoError(t, err)
	assert.Nil(t, res.(*models.Task).AssignedTo)

	_, err = repos.Task.Apply(ctx, Mutation{ID: task.ID, Action: policy.ActionDelete})
	require.NoError(t, err)
	_, err = repos.Task.Apply(ctx, Mutation{ID: task.ID, Action: policy.ActionDelete})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = repos.Task.Fetch(ctx, task.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTaskRepository_OwnedAndDeleteAll(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	a := newUser(t, repos, "a@example.com")
	b := newUser(t, repos, "b@example.com")

	create := func(actor uint, title string) uint {
		res, err := repos.Task.Apply(ctx, Mutation{Action: policy.ActionCreate, ActorID: actor, Patch: TaskPatch{Title: strPtr(title)}})
		require.NoError(t, err)
		return res.(*models.Task).ID
	}
	a1 := create(a.ID, "a1")
	create(b.ID, "b1")
	a2 := create(a.ID, "a2")

	ids, err := repos.Task.ListOwnedBy(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{a1, a2}, ids)

	visible, err := repos.Task.List(ctx, policy.Scope{UserID: b.ID})
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	n, err := repos.Task.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	total, err := repos.Task.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCommentRepository_RequiresTask(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	u := newUser(t, repos, "u@example.com")

	_, err := repos.Comment.Apply(ctx, Mutation{Action: policy.ActionCreate, ActorID: u.ID, Patch: CommentPatch{TaskID: 99, Text: "hi"}})
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := repos.Task.Apply(ctx, Mutation{Action: policy.ActionCreate, ActorID: u.ID, Patch: TaskPatch{Title: strPtr("t")}})
	require.NoError(t, err)
	taskID := res.(*models.Task).ID

	_, err = repos.Comment.Apply(ctx, Mutation{Action: policy.ActionCreate, ActorID: u.ID, Patch: CommentPatch{TaskID: taskID, Text: "  "}})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	res, err = repos.Comment.Apply(ctx, Mutation{Action: policy.ActionCreate, ActorID: u.ID, Patch: CommentPatch{TaskID: taskID, Text: "first"}})
	require.NoError(t, err)
	comment := res.(*models.Comment)

	res, err = repos.Comment.Apply(ctx, Mutation{ID: comment.ID, Action: policy.ActionUpdate, Patch: CommentPatch{Text: "edited"}})
	require.NoError(t, err)
	assert.Equal(t, "edited", res.(*models.Comment).Text)

	list, err := repos.Comment.ListByTask(ctx, taskID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "edited", list[0].Text)
}

func TestProjectAndVersionRepository(t *testing.T) {
	repos := newTestRepos(t)
	ctx := context.Background()
	owner := newUser(t, repos, "owner@example.com")
	member := newUser(t, repos, "member@example.com")

	project := &models.Project{Name: "apollo", CreatedBy: owner.ID, Members: []models.ProjectMember{{UserID: member.ID}, {UserID: owner.ID}}}
	require.NoError(t, repos.Project.Create(ctx, project))

	got, err := repos.Project.FindByID(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, got.Members, 2)
	roles := map[uint]models.ProjectRole{}
	for _, m := range got.Members {
		roles[m.UserID] = m.Role
	}
	assert.Equal(t, models.ProjectRoleOwner, roles[owner.ID])
	assert.Equal(t, models.ProjectRoleMember, roles[member.ID])

	_, err = repos.Version.Apply(ctx, Mutation{Action: policy.ActionCreate, ActorID: owner.ID, Patch: VersionPatch{ProjectID: 404, Text: "v1"}})
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := repos.Version.Apply(ctx, Mutation{Action: policy.ActionCreate, ActorID: owner.ID, Patch: VersionPatch{ProjectID: project.ID, Text: "v1"}})
	require.NoError(t, err)
	v := res.(*models.Version)
	assert.Equal(t, owner.ID, v.Resource().OwnerID)

	versions, err := repos.Version.FindByProject(ctx, project.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
	versions, err = repos.Version.FindByProject(ctx, project.ID+1)
	require.NoError(t, err)
	assert.Empty(t, versions)
}
