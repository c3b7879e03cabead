package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"collab_web/internal/auth"
	"collab_web/internal/models"
	"collab_web/internal/repository"
)

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     auth.Role
}

type UserService struct {
	userRepo repository.UserRepository
	gate     *auth.Gate
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository, gate *auth.Gate) *UserService {
	return &UserService{userRepo: userRepo, gate: gate, now: time.Now}
}

// Register 建立用戶並回傳登入用的 token
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, "", fmt.Errorf("%w: name, email and password are required", ErrInvalid)
	}
	if in.Role == "" {
		in.Role = auth.RoleMember
	}
	if !in.Role.Valid() {
		return nil, "", fmt.Errorf("%w: unknown role %q", ErrInvalid, in.Role)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hashed),
		Role:     in.Role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", upstream("create user", err)
	}

	token, err := s.gate.Issue(user.Identity())
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login 驗證密碼，成功時記錄登入次數
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrWrongCredentials
	}
	if err != nil {
		return nil, "", upstream("find user", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, "", ErrWrongCredentials
	}

	if err := s.userRepo.RecordLogin(ctx, user.ID, s.now()); err != nil {
		return nil, "", upstream("record login", err)
	}
	token, err := s.gate.Issue(user.Identity())
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, upstream("find user", err)
	}
	return user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return nil, upstream("list users", err)
	}
	return users, nil
}

func (s *UserService) SetRole(ctx context.Context, id uint, role auth.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}
	user, err := s.userRepo.UpdateRole(ctx, id, role)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, upstream("update role", err)
	}
	return user, nil
}
