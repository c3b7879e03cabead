package repository

import "collab_web/internal/storage"

type Repositories struct {
	User    UserRepository
	Project ProjectRepository
	Task    TaskRepository
	Comment CommentRepository
	Version VersionRepository
}

func NewRepositories(db *storage.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Project: NewProjectRepository(db),
		Task:    NewTaskRepository(db),
		Comment: NewCommentRepository(db),
		Version: NewVersionRepository(db),
	}
}
