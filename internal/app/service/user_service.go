package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"pulseid/internal/common"
	"pulseid/internal/domain/model"
	"pulseid/internal/domain/repository"
	"pulseid/internal/platform/cache"
)

type UserService struct {
	userRepo repository.UserRepository
	dirCache DirectoryCache
}

func NewUserService(userRepo repository.UserRepository, dirCache DirectoryCache) *UserService {
	return &UserService{userRepo: userRepo, dirCache: dirCache}
}

type UpdateUserRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
}

func (s *UserService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.HashedPassword = ""
	return user, nil
}

// ListUsers returns one page of the public user directory. The directory is
// open by design; no authentication gates it.
func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) ([]model.User, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	if s.dirCache != nil {
		cached, hit, err := s.dirCache.GetPage(ctx, page, pageSize)
		if err != nil {
			log.Printf("directory cache read failed: %v", err)
		} else if hit {
			return cached.Users, cached.Total, nil
		}
	}

	users, err := s.userRepo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	total, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}
	for i := range users {
		users[i].HashedPassword = ""
	}

	if s.dirCache != nil {
		if err := s.dirCache.SetPage(ctx, page, pageSize, &cache.DirectoryPage{Users: users, Total: total}); err != nil {
			log.Printf("directory cache write failed: %v", err)
		}
	}
	return users, total, nil
}

func (s *UserService) UpdateUser(ctx context.Context, requesterID, targetID string, req UpdateUserRequest) (*model.User, error) {
	if requesterID != targetID {
		return nil, common.Errorf("cannot update another user's profile: %w", common.ErrForbidden)
	}

	user, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, common.Errorf("name cannot be empty: %w", common.ErrValidation)
		}
		user.Name = name
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if !emailRegex.MatchString(email) {
			return nil, common.Errorf("please provide a valid email: %w", common.ErrValidation)
		}
		user.Email = email
	}

	// Conflicting email rewrites surface as common.ErrConflict from the repo.
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	s.invalidateDirectory(ctx)

	user.HashedPassword = ""
	return user, nil
}

func (s *UserService) DeleteUser(ctx context.Context, requesterID, targetID string) error {
	if requesterID != targetID {
		return common.Errorf("cannot delete another user's account: %w", common.ErrForbidden)
	}

	// Outstanding tokens for this id die with the record: the auth
	// middleware re-loads the user on every request.
	if err := s.userRepo.Delete(ctx, targetID); err != nil {
		return err
	}
	s.invalidateDirectory(ctx)
	return nil
}

func (s *UserService) invalidateDirectory(ctx context.Context) {
	if s.dirCache == nil {
		return
	}
	if err := s.dirCache.Invalidate(ctx); err != nil {
		log.Printf("directory cache invalidation failed: %v", err)
	}
}
