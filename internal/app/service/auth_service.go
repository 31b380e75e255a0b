package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"pulseid/internal/common"
	"pulseid/internal/common/security"
	"pulseid/internal/domain/model"
	"pulseid/internal/domain/repository"
	"pulseid/internal/platform/cache"

	"github.com/google/uuid"
)

var emailRegex = regexp.MustCompile(`^\w+([.-]?\w+)*@\w+([.-]?\w+)*(\.\w{2,3})+$`)

// DirectoryCache is the slice of the redis cache the user services need.
// Nil is allowed and means caching is disabled.
type DirectoryCache interface {
	GetPage(ctx context.Context, page, pageSize int) (*cache.DirectoryPage, bool, error)
	SetPage(ctx context.Context, page, pageSize int, p *cache.DirectoryPage) error
	Invalidate(ctx context.Context) error
}

type AuthService struct {
	userRepo repository.UserRepository
	dirCache DirectoryCache
}

func NewAuthService(userRepo repository.UserRepository, dirCache DirectoryCache) *AuthService {
	return &AuthService{userRepo: userRepo, dirCache: dirCache}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	if strings.TrimSpace(req.Name) == "" || req.Email == "" || req.Password == "" {
		return nil, common.Errorf("name, email and password are required: %w", common.ErrValidation)
	}
	email := normalizeEmail(req.Email)
	if !emailRegex.MatchString(email) {
		return nil, common.Errorf("please provide a valid email: %w", common.ErrValidation)
	}

	hashedPassword, err := security.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(req.Name),
		Email:          email,
		HashedPassword: hashedPassword,
	}

	// Email uniqueness is the users table's constraint; the repo maps the
	// violation to common.ErrConflict.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	s.invalidateDirectory(ctx)

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = "" // Clear password before returning
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, common.Errorf("email and password are required: %w", common.ErrValidation)
	}

	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized // Generic message for security
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if !security.CheckPasswordHash(req.Password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	user.HashedPassword = ""
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) invalidateDirectory(ctx context.Context) {
	if s.dirCache == nil {
		return
	}
	if err := s.dirCache.Invalidate(ctx); err != nil {
		log.Printf("directory cache invalidation failed: %v", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
